package create_booking

import "errors"

var (
	// ErrValidation возвращается при некорректных входных данных
	ErrValidation = errors.New("create_booking: validation error")

	// ErrSlotUnavailable возвращается, когда слот занят, заблокирован или удерживается другой сессией
	ErrSlotUnavailable = errors.New("create_booking: slot is not available")

	// ErrAccountExists возвращается, когда анонимное бронирование совпало по email с существующим аккаунтом
	ErrAccountExists = errors.New("create_booking: account with this email already exists")

	// ErrInvalidVehicle возвращается, когда автомобиль не найден или принадлежит другому пользователю
	ErrInvalidVehicle = errors.New("create_booking: invalid vehicle")

	// ErrPersistence возвращается при сбое хранилища
	ErrPersistence = errors.New("create_booking: persistence error")
)
