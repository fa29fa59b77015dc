package create_booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/pkg/types"
)

// validateRequest валидирует и нормализует входные данные запроса
func validateRequest(req *Request, now time.Time) error {
	if req.ServiceID <= 0 {
		return fmt.Errorf("%w: service_id must be positive", ErrValidation)
	}

	// Проверяем, что дата не является нулевой
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	req.Date = domain.TruncateDate(req.Date)

	// Проверяем, что время начала указано
	if req.StartTime.IsZero() {
		return fmt.Errorf("%w: start_time is required", ErrValidation)
	}

	// Валидируем формат времени
	if err := req.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid start_time format: %v", ErrValidation, err)
	}

	if isDateInPast(req.Date, now) {
		return fmt.Errorf("%w: date is in the past", ErrValidation)
	}
	if isSameDay(req.Date, now) && req.StartTime.IsBefore(types.NewTimeString(now)) {
		return fmt.Errorf("%w: start_time has already passed", ErrValidation)
	}

	if err := validateCustomer(req); err != nil {
		return err
	}
	if err := validateVehicle(&req.Vehicle); err != nil {
		return err
	}

	if req.DistanceMiles != nil && *req.DistanceMiles < 0 {
		return fmt.Errorf("%w: distance_miles must not be negative", ErrValidation)
	}
	if req.Notes != nil && len(*req.Notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes exceed %d characters", ErrValidation, domain.MaxNotesLength)
	}

	switch domain.PaymentMethod(req.PaymentMethod) {
	case "":
		req.PaymentMethod = string(domain.PaymentMethodCash)
	case domain.PaymentMethodCash, domain.PaymentMethodCard:
	default:
		return fmt.Errorf("%w: unknown payment_method %q", ErrValidation, req.PaymentMethod)
	}

	return nil
}

// validateCustomer анонимному клиенту нужны имя и email
func validateCustomer(req *Request) error {
	c := &req.Customer
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))

	if req.Actor.IsAnonymous() {
		if c.Name == "" {
			return fmt.Errorf("%w: customer name is required", ErrValidation)
		}
		if c.Email == "" {
			return fmt.Errorf("%w: customer email is required", ErrValidation)
		}
	}

	if len(c.Name) > domain.MaxNameLength {
		return fmt.Errorf("%w: customer name exceeds %d characters", ErrValidation, domain.MaxNameLength)
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return fmt.Errorf("%w: invalid customer email", ErrValidation)
		}
	}
	return nil
}

// validateVehicle новый автомобиль должен быть описан полностью
func validateVehicle(v *Vehicle) error {
	if v.ID != nil {
		if *v.ID <= 0 {
			return fmt.Errorf("%w: vehicle id must be positive", ErrValidation)
		}
		return nil
	}

	v.Make = strings.TrimSpace(v.Make)
	v.Model = strings.TrimSpace(v.Model)
	v.Registration = domain.NormalizeRegistration(v.Registration)

	if v.Make == "" || v.Model == "" {
		return fmt.Errorf("%w: vehicle make and model are required", ErrValidation)
	}
	if v.Registration == "" {
		return fmt.Errorf("%w: vehicle registration is required", ErrValidation)
	}
	if len(v.Registration) > domain.MaxRegistrationLength {
		return fmt.Errorf("%w: vehicle registration exceeds %d characters", ErrValidation, domain.MaxRegistrationLength)
	}
	return nil
}

// generateReference номер бронирования вида DT-XXXXXX
func generateReference() (string, error) {
	alphabetLen := big.NewInt(int64(len(domain.ReferenceAlphabet)))

	var b strings.Builder
	b.Grow(len(domain.ReferencePrefix) + domain.ReferenceLength)
	b.WriteString(domain.ReferencePrefix)
	for i := 0; i < domain.ReferenceLength; i++ {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		b.WriteByte(domain.ReferenceAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// isSameDay проверяет, что две даты относятся к одному и тому же дню
func isSameDay(date1, date2 time.Time) bool {
	y1, m1, d1 := date1.Date()
	y2, m2, d2 := date2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// isDateInPast проверяет, что дата в прошлом (раньше сегодняшнего дня)
func isDateInPast(date, now time.Time) bool {
	return domain.TruncateDate(date).Before(domain.TruncateDate(now))
}
