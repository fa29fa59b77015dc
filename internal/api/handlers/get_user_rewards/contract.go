package get_user_rewards

import (
	"context"

	"github.com/m04kA/SMC-DetailingService/internal/service/rewards/models"
)

type RewardsService interface {
	GetAccount(ctx context.Context, userID int64) (*models.AccountResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
