package schedule

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("schedule.service: invalid input data")

	// ErrInvalidDateRange возвращается, если start > end или диапазон слишком большой
	ErrInvalidDateRange = errors.New("schedule.service: invalid date range")

	// ErrSlotNotFound возвращается, когда слот не найден
	ErrSlotNotFound = errors.New("schedule.service: slot not found")

	// ErrSlotExists возвращается при попытке создать слот на занятые дату и время
	ErrSlotExists = errors.New("schedule.service: slot already exists")

	// ErrWorkingDayNotFound возвращается, когда для дня недели нет строки шаблона
	ErrWorkingDayNotFound = errors.New("schedule.service: working day not found")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("schedule.service: internal error")
)
