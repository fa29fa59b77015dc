package pricing

import (
	"context"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/internal/integrations/distanceservice"
)

// PriceRepository интерфейс репозитория услуг и матрицы цен
type PriceRepository interface {
	GetService(ctx context.Context, id int64) (*domain.Service, error)
	GetPrices(ctx context.Context, serviceID int64) (domain.PriceMatrix, error)
}

// DistanceClient интерфейс клиента сервиса расстояний
type DistanceClient interface {
	GetDistanceWithGracefulDegradation(ctx context.Context, postcode string) (*distanceservice.Distance, error)
}

// RewardsReader интерфейс чтения уровня лояльности
type RewardsReader interface {
	GetAccount(ctx context.Context, userID int64) (*domain.RewardsAccount, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
