package rewards

import "errors"

var (
	ErrAccountNotFound = errors.New("rewards.repository: account not found")

	// ErrDuplicateTransaction возвращается при повторном начислении по тому же бронированию
	ErrDuplicateTransaction = errors.New("rewards.repository: transaction already recorded")

	ErrBuildQuery = errors.New("rewards.repository: failed to build query")
	ErrExecQuery  = errors.New("rewards.repository: failed to execute query")
	ErrScanRow    = errors.New("rewards.repository: failed to scan row")
)
