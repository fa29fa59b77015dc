package rewards

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	rewardsRepo "github.com/m04kA/SMC-DetailingService/internal/infra/storage/rewards"
	"github.com/m04kA/SMC-DetailingService/internal/integrations/emailservice"
	"github.com/m04kA/SMC-DetailingService/internal/service/rewards/models"
	"github.com/m04kA/SMC-DetailingService/pkg/logger"
	"github.com/m04kA/SMC-DetailingService/pkg/ptr"
)

// memoryRepo журнал бонусов в памяти с теми же уникальностями, что и в базе
type memoryRepo struct {
	mu            sync.Mutex
	accounts      map[int64]*domain.RewardsAccount
	txs           []*domain.RewardTransaction
	notifications map[string]bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		accounts:      make(map[int64]*domain.RewardsAccount),
		notifications: make(map[string]bool),
	}
}

func (m *memoryRepo) EnsureAccount(ctx context.Context, userID int64) (*domain.RewardsAccount, error) {
	m.mu.Lock()
	if _, ok := m.accounts[userID]; !ok {
		m.accounts[userID] = &domain.RewardsAccount{UserID: userID, Tier: domain.TierBronze}
	}
	m.mu.Unlock()
	return m.GetAccount(ctx, userID)
}

func (m *memoryRepo) GetAccount(_ context.Context, userID int64) (*domain.RewardsAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[userID]
	if !ok {
		return nil, rewardsRepo.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memoryRepo) UpdateAccount(_ context.Context, a *domain.RewardsAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.accounts[a.UserID] = &cp
	return nil
}

func (m *memoryRepo) AddTransaction(_ context.Context, tx *domain.RewardTransaction) (*domain.RewardTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx.BookingID != nil {
		for _, existing := range m.txs {
			if existing.BookingID != nil && *existing.BookingID == *tx.BookingID && existing.Type == tx.Type {
				return nil, rewardsRepo.ErrDuplicateTransaction
			}
		}
	}
	tx.ID = int64(len(m.txs) + 1)
	m.txs = append(m.txs, tx)
	return tx, nil
}

func (m *memoryRepo) ListTransactions(_ context.Context, userID int64, _ int) ([]*domain.RewardTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.RewardTransaction, 0)
	for i := len(m.txs) - 1; i >= 0; i-- {
		if m.txs[i].UserID == userID {
			out = append(out, m.txs[i])
		}
	}
	return out, nil
}

func (m *memoryRepo) AddTierNotification(_ context.Context, n *domain.TierNotification) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := string(n.ToTier)
	if m.notifications[key] {
		return false, nil
	}
	m.notifications[key] = true
	return true, nil
}

type passthroughTx struct{}

func (passthroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeUsers struct{}

func (fakeUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	return &domain.User{ID: id, Email: "jane@example.com", Name: "Jane"}, nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent []emailservice.Message
}

func (r *recordingSender) Send(_ context.Context, msg emailservice.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func newTestService() (*Service, *memoryRepo, *recordingSender) {
	repo := newMemoryRepo()
	sender := &recordingSender{}
	return NewService(repo, fakeUsers{}, sender, passthroughTx{}, nil, logger.Discard()), repo, sender
}

func earned(bookingID, points int64) *models.AddPointsRequest {
	return &models.AddPointsRequest{
		UserID:    1,
		BookingID: ptr.Ptr(bookingID),
		Type:      domain.RewardEarned,
		Points:    points,
		Reason:    "booking completed",
	}
}

func TestAddPoints_IdempotentPerBooking(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	first, err := svc.AddPoints(ctx, earned(10, 70))
	require.NoError(t, err)
	assert.False(t, first.Duplicate)
	assert.Equal(t, int64(70), first.Account.PointsBalance)

	second, err := svc.AddPoints(ctx, earned(10, 70))
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, int64(70), second.Account.PointsBalance)

	assert.Len(t, repo.txs, 1)
}

func TestAddPoints_TierUpgradeNotifiesOnce(t *testing.T) {
	svc, _, sender := newTestService()
	ctx := context.Background()

	res, err := svc.AddPoints(ctx, earned(1, 450))
	require.NoError(t, err)
	assert.False(t, res.Upgraded)
	assert.Equal(t, domain.TierBronze, res.Account.Tier)

	res, err = svc.AddPoints(ctx, earned(2, 60))
	require.NoError(t, err)
	assert.True(t, res.Upgraded)
	assert.Equal(t, domain.TierSilver, res.Account.Tier)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, emailservice.TypeTierUpgrade, sender.sent[0].Type)
	assert.Equal(t, "silver", sender.sent[0].TemplateData["to_tier"])

	// Повтор того же начисления не шлет второе письмо
	res, err = svc.AddPoints(ctx, earned(2, 60))
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Len(t, sender.sent, 1)
}

func TestAddPoints_JumpOverSeveralTiers(t *testing.T) {
	svc, repo, sender := newTestService()

	res, err := svc.AddPoints(context.Background(), earned(1, 1200))
	require.NoError(t, err)
	assert.Equal(t, domain.TierGold, res.Account.Tier)
	assert.True(t, repo.notifications["silver"])
	assert.True(t, repo.notifications["gold"])
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "gold", sender.sent[0].TemplateData["to_tier"])
}

func TestAddPoints_RedeemKeepsTier(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddPoints(ctx, earned(1, 600))
	require.NoError(t, err)

	res, err := svc.AddPoints(ctx, &models.AddPointsRequest{UserID: 1, Type: domain.RewardRedeemed, Points: 500, Reason: "voucher"})
	require.NoError(t, err)
	assert.Equal(t, int64(100), res.Account.PointsBalance)
	assert.Equal(t, int64(600), res.Account.LifetimePoints)
	assert.Equal(t, domain.TierSilver, res.Account.Tier)
	assert.Equal(t, int64(-500), res.Transaction.Points)

	_, err = svc.AddPoints(ctx, &models.AddPointsRequest{UserID: 1, Type: domain.RewardRedeemed, Points: 500})
	assert.ErrorIs(t, err, ErrInsufficientPoints)
}

func TestAddPoints_Validation(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.AddPoints(context.Background(), &models.AddPointsRequest{UserID: 1, Type: "bonus", Points: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.AddPoints(context.Background(), &models.AddPointsRequest{UserID: 1, Type: domain.RewardEarned, Points: 0})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetAccount(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	empty, err := svc.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "bronze", empty.Tier)
	require.NotNil(t, empty.NextTier)
	assert.Equal(t, "silver", *empty.NextTier)
	assert.Equal(t, int64(500), *empty.PointsToNextTier)
	assert.Empty(t, empty.History)

	_, err = svc.AddPoints(ctx, earned(1, 2100))
	require.NoError(t, err)

	acc, err := svc.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "platinum", acc.Tier)
	assert.Equal(t, 20, acc.DiscountPercent)
	assert.Nil(t, acc.NextTier)
	assert.Len(t, acc.History, 1)
}
