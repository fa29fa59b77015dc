package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type intentState string

const (
	intentCreated   intentState = "created"
	intentConfirmed intentState = "confirmed"
	intentRefunded  intentState = "refunded"
)

type intent struct {
	amountPence int64
	currency    string
	state       intentState
}

// MockProvider провайдер в памяти: оплата наличными по факту оказания услуги
type MockProvider struct {
	mu      sync.Mutex
	intents map[string]*intent
}

// NewMockProvider создает новый экземпляр mock-провайдера
func NewMockProvider() *MockProvider {
	return &MockProvider{intents: make(map[string]*intent)}
}

// CreateIntent регистрирует платежное намерение
func (p *MockProvider) CreateIntent(_ context.Context, amountPence int64, currency string) (string, error) {
	if amountPence < 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidAmount, amountPence)
	}

	id := "pi_" + uuid.NewString()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.intents[id] = &intent{amountPence: amountPence, currency: currency, state: intentCreated}

	return id, nil
}

// Confirm подтверждает оплату, повторное подтверждение возвращает true
func (p *MockProvider) Confirm(_ context.Context, intentID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	in, ok := p.intents[intentID]
	if !ok {
		return false, ErrIntentNotFound
	}
	switch in.state {
	case intentCreated:
		in.state = intentConfirmed
		return true, nil
	case intentConfirmed:
		return true, nil
	default:
		return false, nil
	}
}

// Refund возвращает оплату, если она была подтверждена
func (p *MockProvider) Refund(_ context.Context, intentID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	in, ok := p.intents[intentID]
	if !ok {
		return false, ErrIntentNotFound
	}
	switch in.state {
	case intentConfirmed:
		in.state = intentRefunded
		return true, nil
	case intentRefunded:
		return true, nil
	default:
		return false, nil
	}
}
