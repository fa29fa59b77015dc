package payment

import "errors"

var (
	ErrInvalidAmount  = errors.New("payment: invalid amount")
	ErrIntentNotFound = errors.New("payment: intent not found")
)
