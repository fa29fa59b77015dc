package domain

import "errors"

var (
	ErrInvalidSlotKey     = errors.New("domain: invalid slot key")
	ErrUnknownVehicleSize = errors.New("domain: unknown vehicle size")
)
