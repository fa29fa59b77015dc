package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	userRepo "github.com/m04kA/SMC-DetailingService/internal/infra/storage/user"
)

// DefaultSetupTTL срок действия ссылки на установку пароля
const DefaultSetupTTL = 72 * time.Hour

// SetupToken выданный токен установки пароля (в открытом виде только здесь)
type SetupToken struct {
	UserID    int64
	Token     string
	ExpiresAt time.Time
}

// Service отложенная установка пароля для аккаунтов, созданных при анонимном бронировании
type Service struct {
	users        UserRepository
	txManager    TransactionManager
	setupTTL     time.Duration
	bcryptCost   int
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса аккаунтов
func NewService(users UserRepository, txManager TransactionManager, setupTTL time.Duration, logger Logger) *Service {
	if setupTTL <= 0 {
		setupTTL = DefaultSetupTTL
	}
	return &Service{
		users:        users,
		txManager:    txManager,
		setupTTL:     setupTTL,
		bcryptCost:   bcrypt.DefaultCost,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// IssuePasswordSetup выдает токен установки пароля
// В базе хранится только bcrypt-хеш токена, прежний токен пользователя заменяется
func (s *Service) IssuePasswordSetup(ctx context.Context, userID int64) (*SetupToken, error) {
	token := uuid.NewString()

	hash, err := bcrypt.GenerateFromPassword([]byte(token), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%w: IssuePasswordSetup - hash token: %v", ErrInternal, err)
	}

	expiresAt := s.timeProvider.Now().Add(s.setupTTL)
	if err := s.users.SaveSetupToken(ctx, &domain.PasswordSetupToken{
		UserID:    userID,
		TokenHash: string(hash),
		ExpiresAt: expiresAt,
	}); err != nil {
		s.logger.Error("IssuePasswordSetup: failed to save token for user=%d: %v", userID, err)
		return nil, fmt.Errorf("%w: IssuePasswordSetup - save token: %v", ErrInternal, err)
	}

	s.logger.Info("IssuePasswordSetup: token issued for user=%d, expires %s", userID, expiresAt.Format(time.RFC3339))
	return &SetupToken{UserID: userID, Token: token, ExpiresAt: expiresAt}, nil
}

// CompletePasswordSetup устанавливает пароль по токену, токен одноразовый
func (s *Service) CompletePasswordSetup(ctx context.Context, email, token, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	s.logger.Info("CompletePasswordSetup: email=%s", email)

	if email == "" || token == "" {
		return fmt.Errorf("%w: email and token are required", ErrInvalidInput)
	}
	if len(password) < domain.MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, domain.MinPasswordLength)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return fmt.Errorf("%w: password is too long", ErrInvalidInput)
		}
		return fmt.Errorf("%w: CompletePasswordSetup - hash password: %v", ErrInternal, err)
	}

	now := s.timeProvider.Now()

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		// 1. Пользователь (строка блокируется)
		user, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, userRepo.ErrUserNotFound) {
				return ErrInvalidToken
			}
			return fmt.Errorf("%w: CompletePasswordSetup - get user: %v", ErrInternal, err)
		}
		if user.HasPassword() {
			return ErrPasswordAlreadySet
		}

		// 2. Токен
		setup, err := s.users.GetSetupToken(ctx, user.ID)
		if err != nil {
			if errors.Is(err, userRepo.ErrTokenNotFound) {
				return ErrInvalidToken
			}
			return fmt.Errorf("%w: CompletePasswordSetup - get token: %v", ErrInternal, err)
		}
		if !setup.IsUsable(now) {
			return ErrInvalidToken
		}
		if bcrypt.CompareHashAndPassword([]byte(setup.TokenHash), []byte(token)) != nil {
			return ErrInvalidToken
		}

		// 3. Пароль и погашение токена
		if err := s.users.SetPasswordHash(ctx, user.ID, string(passwordHash)); err != nil {
			return fmt.Errorf("%w: CompletePasswordSetup - set password: %v", ErrInternal, err)
		}
		if err := s.users.MarkSetupTokenUsed(ctx, user.ID, now); err != nil {
			return fmt.Errorf("%w: CompletePasswordSetup - mark token used: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrPasswordAlreadySet):
			s.logger.Warn("CompletePasswordSetup: rejected for email=%s: %v", email, err)
			return err
		case errors.Is(err, ErrInternal):
			s.logger.Error("CompletePasswordSetup: %v", err)
			return err
		default:
			s.logger.Error("CompletePasswordSetup: transaction error: %v", err)
			return fmt.Errorf("%w: CompletePasswordSetup - transaction: %v", ErrInternal, err)
		}
	}

	s.logger.Info("CompletePasswordSetup: password set for email=%s", email)
	return nil
}
