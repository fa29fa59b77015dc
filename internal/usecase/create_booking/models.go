package create_booking

import (
	"time"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	"github.com/m04kA/SMC-DetailingService/internal/service/accounts"
	"github.com/m04kA/SMC-DetailingService/pkg/types"
)

// Customer контактные данные клиента
// Для авторизованного пользователя пустые поля берутся из профиля
type Customer struct {
	Name  string
	Email string
	Phone *string
}

// Vehicle автомобиль: сохраненный (ID) или новый
type Vehicle struct {
	ID           *int64
	Make         string
	Model        string
	Registration string
	Size         string // small|medium|large или класс A-S
}

// Request модель запроса на создание бронирования
type Request struct {
	Actor         domain.Actor
	Date          time.Time        // Дата бронирования (без времени)
	StartTime     types.TimeString // Время начала слота (например, "10:00")
	LockToken     string           // Токен блокировки слота, полученный при начале оформления
	ServiceID     int64
	Customer      Customer
	Vehicle       Vehicle
	Postcode      *string
	DistanceMiles *float64
	Notes         *string
	PaymentMethod string // cash по умолчанию
}

// SlotKey ключ блокировки выбранного слота
func (r *Request) SlotKey() domain.SlotKey {
	return domain.NewSlotKey(r.Date, r.StartTime)
}

// Response результат создания бронирования
type Response struct {
	Booking         *domain.Booking
	Slot            *domain.Slot
	PaymentIntentID string
	AccountCreated  bool
	PasswordSetup   *accounts.SetupToken // Только для аккаунтов, созданных этим бронированием
	PriceDegraded   bool
}

// Config параметры use case
type Config struct {
	Currency           string
	ReferenceAttempts  int
	SideEffectsTimeout time.Duration
}
