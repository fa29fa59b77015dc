package schedule

import "errors"

var (
	// ErrWorkingDayNotFound возвращается, когда для дня недели нет строки шаблона
	ErrWorkingDayNotFound = errors.New("schedule.repository: working day not found")

	// ErrOverrideNotFound возвращается, когда для даты нет исключения
	ErrOverrideNotFound = errors.New("schedule.repository: override not found")

	ErrBuildQuery = errors.New("schedule.repository: failed to build query")
	ErrExecQuery  = errors.New("schedule.repository: failed to execute query")
	ErrScanRow    = errors.New("schedule.repository: failed to scan row")
)
