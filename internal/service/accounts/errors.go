package accounts

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("accounts.service: invalid input data")

	// ErrInvalidToken возвращается при неверном, истекшем или использованном токене
	ErrInvalidToken = errors.New("accounts.service: invalid or expired setup token")

	// ErrPasswordAlreadySet возвращается, если пароль у аккаунта уже есть
	ErrPasswordAlreadySet = errors.New("accounts.service: password already set")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("accounts.service: internal error")
)
