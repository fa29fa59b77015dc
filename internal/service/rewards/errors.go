package rewards

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("rewards.service: invalid input data")

	// ErrInsufficientPoints возвращается, если списание уводит баланс в минус
	ErrInsufficientPoints = errors.New("rewards.service: insufficient points")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("rewards.service: internal error")
)
