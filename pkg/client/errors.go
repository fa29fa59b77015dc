package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrSlotUnavailable слот занят, заполнен или закрыт, расписание нужно перечитать
	ErrSlotUnavailable = errors.New("client: slot unavailable")

	// ErrAccountExists анонимное бронирование на email существующего аккаунта
	ErrAccountExists = errors.New("client: account already exists")

	ErrBadRequest   = errors.New("client: bad request")
	ErrUnauthorized = errors.New("client: unauthorized")
	ErrForbidden    = errors.New("client: forbidden")
	ErrNotFound     = errors.New("client: not found")
	ErrConflict     = errors.New("client: conflict")
	ErrServer       = errors.New("client: server error")

	// ErrTransport запрос не дошел до сервера или ответ не прочитан
	ErrTransport = errors.New("client: transport error")
)

// Коды ошибок из ответа сервера
const (
	codeSlotUnavailable = "slot_unavailable"
	codeAccountExists   = "account_exists"
)

// APIError ответ сервера с success=false
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Unwrap сопоставляет ответ сентинел-ошибке, чтобы работал errors.Is
func (e *APIError) Unwrap() error {
	switch e.Code {
	case codeSlotUnavailable:
		return ErrSlotUnavailable
	case codeAccountExists:
		return ErrAccountExists
	}

	switch {
	case e.Status == http.StatusBadRequest:
		return ErrBadRequest
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Status == http.StatusForbidden:
		return ErrForbidden
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status == http.StatusConflict:
		return ErrConflict
	default:
		return ErrServer
	}
}
