package user

import "errors"

var (
	ErrUserNotFound    = errors.New("user.repository: user not found")
	ErrEmailTaken      = errors.New("user.repository: email already registered")
	ErrVehicleNotFound = errors.New("user.repository: vehicle not found")
	ErrTokenNotFound   = errors.New("user.repository: password setup token not found")

	ErrBuildQuery = errors.New("user.repository: failed to build query")
	ErrExecQuery  = errors.New("user.repository: failed to execute query")
	ErrScanRow    = errors.New("user.repository: failed to scan row")
)
