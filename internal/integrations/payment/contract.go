package payment

import "context"

// Provider платежный провайдер
type Provider interface {
	CreateIntent(ctx context.Context, amountPence int64, currency string) (string, error)
	Confirm(ctx context.Context, intentID string) (bool, error)
	Refund(ctx context.Context, intentID string) (bool, error)
}
