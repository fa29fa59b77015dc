package distanceservice

import "errors"

var (
	// ErrPostcodeNotFound возвращается, когда сервис не знает почтовый индекс
	ErrPostcodeNotFound = errors.New("distanceservice client: postcode not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("distanceservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("distanceservice client: invalid response")

	// ErrServiceDegraded возвращается при применении graceful degradation
	// Доплата за выезд в этом случае не начисляется
	ErrServiceDegraded = errors.New("distanceservice unavailable: graceful degradation applied")
)
