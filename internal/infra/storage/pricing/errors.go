package pricing

import "errors"

var (
	ErrServiceNotFound = errors.New("pricing.repository: service not found")
	ErrPricesNotFound  = errors.New("pricing.repository: no prices for service")

	ErrBuildQuery = errors.New("pricing.repository: failed to build query")
	ErrExecQuery  = errors.New("pricing.repository: failed to execute query")
	ErrScanRow    = errors.New("pricing.repository: failed to scan row")
)
