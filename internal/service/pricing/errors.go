package pricing

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("pricing.service: invalid input data")

	// ErrServiceNotFound возвращается, когда услуга не найдена или отключена
	ErrServiceNotFound = errors.New("pricing.service: service not found")

	// ErrUnknownPostcode возвращается, когда сервис расстояний не знает индекс
	ErrUnknownPostcode = errors.New("pricing.service: unknown postcode")
)
