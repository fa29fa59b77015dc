package slot

import "errors"

var (
	// ErrSlotNotFound возвращается, когда слот не найден
	ErrSlotNotFound = errors.New("slot.repository: slot not found")

	// ErrSlotExists возвращается, когда слот на эту дату и время уже есть
	ErrSlotExists = errors.New("slot.repository: slot already exists")

	// ErrSlotUnavailable возвращается, когда резерв места не прошел (нет мест, заблокирован или в прошлом)
	ErrSlotUnavailable = errors.New("slot.repository: slot unavailable")

	// ErrSlotInUse возвращается при попытке удалить слот с бронированиями
	ErrSlotInUse = errors.New("slot.repository: slot has bookings")

	ErrBuildQuery = errors.New("slot.repository: failed to build query")
	ErrExecQuery  = errors.New("slot.repository: failed to execute query")
	ErrScanRow    = errors.New("slot.repository: failed to scan row")
)
