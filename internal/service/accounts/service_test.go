package accounts

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	userRepo "github.com/m04kA/SMC-DetailingService/internal/infra/storage/user"
	"github.com/m04kA/SMC-DetailingService/pkg/logger"
)

type fakeUsers struct {
	user  *domain.User
	token *domain.PasswordSetupToken
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if f.user == nil || !strings.EqualFold(f.user.Email, email) {
		return nil, userRepo.ErrUserNotFound
	}
	return f.user, nil
}

func (f *fakeUsers) SetPasswordHash(_ context.Context, _ int64, hash string) error {
	f.user.PasswordHash = &hash
	return nil
}

func (f *fakeUsers) SaveSetupToken(_ context.Context, t *domain.PasswordSetupToken) error {
	f.token = t
	return nil
}

func (f *fakeUsers) GetSetupToken(context.Context, int64) (*domain.PasswordSetupToken, error) {
	if f.token == nil {
		return nil, userRepo.ErrTokenNotFound
	}
	return f.token, nil
}

func (f *fakeUsers) MarkSetupTokenUsed(_ context.Context, _ int64, at time.Time) error {
	f.token.UsedAt = &at
	return nil
}

type passthroughTx struct{}

func (passthroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedTime struct{ now time.Time }

func (f *fixedTime) Now() time.Time { return f.now }

func newTestService() (*Service, *fakeUsers, *fixedTime) {
	users := &fakeUsers{user: &domain.User{ID: 5, Email: "jane@example.com", Name: "Jane"}}
	clock := &fixedTime{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	svc := NewService(users, passthroughTx{}, time.Hour, logger.Discard())
	svc.bcryptCost = bcrypt.MinCost
	svc.timeProvider = clock
	return svc, users, clock
}

func TestPasswordSetup_HappyPath(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()

	issued, err := svc.IssuePasswordSetup(ctx, 5)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)
	assert.NotEqual(t, issued.Token, users.token.TokenHash, "token is stored hashed")

	require.NoError(t, svc.CompletePasswordSetup(ctx, "Jane@Example.com", issued.Token, "s3cret-pass"))
	require.True(t, users.user.HasPassword())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(*users.user.PasswordHash), []byte("s3cret-pass")))

	err = svc.CompletePasswordSetup(ctx, "jane@example.com", issued.Token, "another-pass")
	assert.ErrorIs(t, err, ErrPasswordAlreadySet)
}

func TestPasswordSetup_Rejections(t *testing.T) {
	svc, users, clock := newTestService()
	ctx := context.Background()

	issued, err := svc.IssuePasswordSetup(ctx, 5)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.CompletePasswordSetup(ctx, "jane@example.com", issued.Token, "short"), ErrInvalidInput)
	assert.ErrorIs(t, svc.CompletePasswordSetup(ctx, "jane@example.com", "wrong-token", "long-enough"), ErrInvalidToken)
	assert.ErrorIs(t, svc.CompletePasswordSetup(ctx, "nobody@example.com", issued.Token, "long-enough"), ErrInvalidToken)

	clock.now = clock.now.Add(2 * time.Hour)
	assert.ErrorIs(t, svc.CompletePasswordSetup(ctx, "jane@example.com", issued.Token, "long-enough"), ErrInvalidToken)
	assert.False(t, users.user.HasPassword())
}
