package locks

import "errors"

var (
	// ErrInvalidSlotKey возвращается при ключе не в формате "YYYY-MM-DDTHH:MM"
	ErrInvalidSlotKey = errors.New("locks.service: invalid slot key")

	// ErrSlotNotFound возвращается, когда слота с таким ключом нет
	ErrSlotNotFound = errors.New("locks.service: slot not found")

	// ErrSlotUnavailable возвращается, когда слот занят другим клиентом, заполнен или закрыт
	ErrSlotUnavailable = errors.New("locks.service: slot unavailable")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("locks.service: internal error")
)
