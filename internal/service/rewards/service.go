package rewards

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	rewardsRepo "github.com/m04kA/SMC-DetailingService/internal/infra/storage/rewards"
	"github.com/m04kA/SMC-DetailingService/internal/integrations/emailservice"
	"github.com/m04kA/SMC-DetailingService/internal/service/rewards/models"
)

// DefaultHistoryLimit сколько записей журнала отдается вместе со счетом
const DefaultHistoryLimit = 50

// Service журнал бонусов: баланс, уровень и уведомления о повышении уровня
// Скидок сервис не считает, уровень читает расчет цены
type Service struct {
	repo      RewardsRepository
	users     UserReader
	email     EmailSender
	txManager TransactionManager
	metrics   Metrics
	logger    Logger
}

// NewService создает новый экземпляр сервиса бонусов
func NewService(
	repo RewardsRepository,
	users UserReader,
	email EmailSender,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
) *Service {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Service{
		repo:      repo,
		users:     users,
		email:     email,
		txManager: txManager,
		metrics:   metrics,
		logger:    logger,
	}
}

// AddPoints добавляет запись в журнал и пересчитывает баланс и уровень
// Повтор для того же бронирования и типа ничего не меняет.
// При повышении уровня записывается ровно одно уведомление на каждый пересеченный порог
func (s *Service) AddPoints(ctx context.Context, req *models.AddPointsRequest) (*models.AddPointsResult, error) {
	s.logger.Info("AddPoints: user=%d, booking=%v, type=%s, points=%d", req.UserID, req.BookingID, req.Type, req.Points)

	if err := validateAddPoints(req); err != nil {
		s.logger.Warn("AddPoints: validation failed: %v", err)
		return nil, err
	}

	signed := req.Points
	if req.Type == domain.RewardRedeemed || req.Type == domain.RewardExpired {
		signed = -req.Points
	}

	var result *models.AddPointsResult
	var crossed []domain.Tier

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		// 1. Счет с блокировкой строки
		account, err := s.repo.EnsureAccount(ctx, req.UserID)
		if err != nil {
			return fmt.Errorf("%w: AddPoints - ensure account: %v", ErrInternal, err)
		}
		fromTier := domain.TierFor(account.LifetimePoints)

		if account.PointsBalance+signed < 0 {
			return ErrInsufficientPoints
		}

		// 2. Запись в журнал, повтор по тому же бронированию - no-op
		tx, err := s.repo.AddTransaction(ctx, &domain.RewardTransaction{
			UserID:    req.UserID,
			BookingID: req.BookingID,
			Type:      req.Type,
			Points:    signed,
			Reason:    req.Reason,
		})
		if errors.Is(err, rewardsRepo.ErrDuplicateTransaction) {
			result = &models.AddPointsResult{Account: account, Duplicate: true, FromTier: fromTier}
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: AddPoints - add transaction: %v", ErrInternal, err)
		}

		// 3. Баланс и уровень
		account.PointsBalance += signed
		if signed > 0 && (req.Type == domain.RewardEarned || req.Type == domain.RewardAdjusted) {
			account.LifetimePoints += signed
		}
		account.Tier = domain.TierFor(account.LifetimePoints)

		if err := s.repo.UpdateAccount(ctx, account); err != nil {
			return fmt.Errorf("%w: AddPoints - update account: %v", ErrInternal, err)
		}

		// 4. Уведомления о пересеченных порогах
		for _, level := range domain.TierTable {
			if level.Tier.Rank() <= fromTier.Rank() || level.Tier.Rank() > account.Tier.Rank() {
				continue
			}
			created, err := s.repo.AddTierNotification(ctx, &domain.TierNotification{
				UserID:   req.UserID,
				FromTier: fromTier,
				ToTier:   level.Tier,
			})
			if err != nil {
				return fmt.Errorf("%w: AddPoints - add tier notification: %v", ErrInternal, err)
			}
			if created {
				crossed = append(crossed, level.Tier)
			}
		}

		result = &models.AddPointsResult{
			Account:     account,
			Transaction: tx,
			Upgraded:    len(crossed) > 0,
			FromTier:    fromTier,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientPoints) {
			s.logger.Warn("AddPoints: user=%d has not enough points", req.UserID)
			return nil, err
		}
		s.logger.Error("AddPoints: failed for user=%d: %v", req.UserID, err)
		if errors.Is(err, ErrInternal) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: AddPoints - transaction: %v", ErrInternal, err)
	}

	if result.Duplicate {
		s.logger.Info("AddPoints: booking=%v already accrued for user=%d", req.BookingID, req.UserID)
		return result, nil
	}

	if result.Upgraded {
		top := crossed[len(crossed)-1]
		for _, tier := range crossed {
			s.metrics.TierUpgraded(string(tier))
		}
		s.notifyUpgrade(ctx, req.UserID, result.FromTier, top)
	}

	s.logger.Info("AddPoints: user=%d balance=%d lifetime=%d tier=%s",
		req.UserID, result.Account.PointsBalance, result.Account.LifetimePoints, result.Account.Tier)
	return result, nil
}

// GetAccount возвращает баланс, уровень, следующий уровень и историю
// Пользователь без счета получает пустой bronze-счет
func (s *Service) GetAccount(ctx context.Context, userID int64) (*models.AccountResponse, error) {
	s.logger.Info("GetAccount: user=%d", userID)

	account, err := s.repo.GetAccount(ctx, userID)
	if err != nil {
		if !errors.Is(err, rewardsRepo.ErrAccountNotFound) {
			s.logger.Error("GetAccount: repository error for user=%d: %v", userID, err)
			return nil, fmt.Errorf("%w: GetAccount - get account: %v", ErrInternal, err)
		}
		account = &domain.RewardsAccount{UserID: userID, Tier: domain.TierBronze}
	}

	history, err := s.repo.ListTransactions(ctx, userID, DefaultHistoryLimit)
	if err != nil {
		s.logger.Error("GetAccount: failed to list transactions for user=%d: %v", userID, err)
		return nil, fmt.Errorf("%w: GetAccount - list transactions: %v", ErrInternal, err)
	}

	return models.FromDomainAccount(account, history), nil
}

// notifyUpgrade письмо о новом уровне, ошибка только логируется
func (s *Service) notifyUpgrade(ctx context.Context, userID int64, from, to domain.Tier) {
	if s.email == nil || s.users == nil {
		return
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("AddPoints: cannot load user=%d for tier email: %v", userID, err)
		s.metrics.SideEffectFailed("tier_email")
		return
	}

	err = s.email.Send(ctx, emailservice.Message{
		Type: emailservice.TypeTierUpgrade,
		To:   user.Email,
		TemplateData: map[string]interface{}{
			"name":             user.Name,
			"from_tier":        string(from),
			"to_tier":          string(to),
			"discount_percent": to.DiscountPercent(),
		},
	})
	if err != nil {
		s.logger.Warn("AddPoints: tier email to user=%d failed: %v", userID, err)
		s.metrics.SideEffectFailed("tier_email")
	}
}

func validateAddPoints(req *models.AddPointsRequest) error {
	if req.UserID <= 0 {
		return fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if !req.Type.IsValid() {
		return fmt.Errorf("%w: unknown transaction type %q", ErrInvalidInput, req.Type)
	}
	if req.Type != domain.RewardAdjusted && req.Points <= 0 {
		return fmt.Errorf("%w: points must be positive", ErrInvalidInput)
	}
	if req.Points == 0 {
		return fmt.Errorf("%w: points must not be zero", ErrInvalidInput)
	}
	return nil
}
