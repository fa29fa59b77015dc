package lock

import "errors"

var (
	// ErrLockHeld возвращается, когда слот занят активной блокировкой другого клиента
	ErrLockHeld = errors.New("lock.repository: slot is locked")

	// ErrLockNotFound возвращается, когда активной блокировки нет
	ErrLockNotFound = errors.New("lock.repository: lock not found")

	ErrBuildQuery = errors.New("lock.repository: failed to build query")
	ErrExecQuery  = errors.New("lock.repository: failed to execute query")
	ErrRedis      = errors.New("lock.repository: redis error")
)
