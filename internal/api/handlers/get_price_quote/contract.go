package get_price_quote

import (
	"context"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/internal/service/pricing"
)

type PricingService interface {
	Quote(ctx context.Context, req pricing.QuoteRequest) (*domain.PriceBreakdown, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
