package emailservice

import "errors"

var (
	// ErrInvalidMessage возвращается при пустом получателе или типе письма
	ErrInvalidMessage = errors.New("emailservice client: invalid message")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("emailservice client: internal error")

	// ErrDeliveryFailed возвращается, когда сервис отказался принять письмо
	ErrDeliveryFailed = errors.New("emailservice client: delivery failed")
)
