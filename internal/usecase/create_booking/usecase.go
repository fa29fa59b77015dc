package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-DetailingService/internal/infra/storage/booking"
	slotRepo "github.com/m04kA/SMC-DetailingService/internal/infra/storage/slot"
	userRepo "github.com/m04kA/SMC-DetailingService/internal/infra/storage/user"
	"github.com/m04kA/SMC-DetailingService/internal/integrations/emailservice"
	"github.com/m04kA/SMC-DetailingService/internal/service/accounts"
	bookingModels "github.com/m04kA/SMC-DetailingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-DetailingService/internal/service/locks"
	"github.com/m04kA/SMC-DetailingService/internal/service/pricing"
	scheduleModels "github.com/m04kA/SMC-DetailingService/internal/service/schedule/models"
	"github.com/m04kA/SMC-DetailingService/pkg/ptr"
	"github.com/m04kA/SMC-DetailingService/pkg/txmanager"
)

const (
	defaultReferenceAttempts  = 5
	defaultSideEffectsTimeout = 10 * time.Second
	defaultCurrency           = "GBP"
)

// UseCase use case для создания бронирования
type UseCase struct {
	bookingRepo  BookingRepository
	slotRepo     SlotRepository
	userRepo     UserRepository
	locks        LockManager
	pricing      PricingService
	payments     PaymentProvider
	accounts     AccountsService
	email        EmailSender
	publisher    EventPublisher
	txManager    TransactionManager
	metrics      Metrics
	cfg          Config
	timeProvider TimeProvider
	newReference func() (string, error)
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	slotRepo SlotRepository,
	userRepo UserRepository,
	locks LockManager,
	pricing PricingService,
	payments PaymentProvider,
	accounts AccountsService,
	email EmailSender,
	publisher EventPublisher,
	txManager TransactionManager,
	metrics Metrics,
	cfg Config,
	logger Logger,
) *UseCase {
	if cfg.ReferenceAttempts <= 0 {
		cfg.ReferenceAttempts = defaultReferenceAttempts
	}
	if cfg.SideEffectsTimeout <= 0 {
		cfg.SideEffectsTimeout = defaultSideEffectsTimeout
	}
	if cfg.Currency == "" {
		cfg.Currency = defaultCurrency
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &UseCase{
		bookingRepo:  bookingRepo,
		slotRepo:     slotRepo,
		userRepo:     userRepo,
		locks:        locks,
		pricing:      pricing,
		payments:     payments,
		accounts:     accounts,
		email:        email,
		publisher:    publisher,
		txManager:    txManager,
		metrics:      metrics,
		cfg:          cfg,
		timeProvider: &RealTimeProvider{},
		newReference: generateReference,
		logger:       logger,
	}
}

// Execute выполняет use case создания бронирования
// Резерв места, клиент, автомобиль и бронирование пишутся в одной сериализуемой транзакции,
// письмо и события отправляются после коммита и не влияют на результат
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: user=%d, service=%d, date=%s, time=%s",
		req.Actor.UserID, req.ServiceID, req.Date.Format(domain.DateFormat), req.StartTime)

	// 1. Валидация входных данных
	now := uc.timeProvider.Now()
	if err := validateRequest(req, now); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}
	slotKey := req.SlotKey()

	// 2. Сохраненный автомобиль (проверка владельца)
	savedVehicle, err := uc.resolveSavedVehicle(ctx, req)
	if err != nil {
		return nil, err
	}
	vehicleSize := req.Vehicle.Size
	if savedVehicle != nil {
		vehicleSize = string(savedVehicle.Size)
	}

	// 3. Цена
	var userID *int64
	if !req.Actor.IsAnonymous() {
		userID = ptr.Ptr(req.Actor.UserID)
	}
	price, err := uc.pricing.Quote(ctx, pricing.QuoteRequest{
		ServiceID:     req.ServiceID,
		VehicleSize:   vehicleSize,
		DistanceMiles: req.DistanceMiles,
		Postcode:      req.Postcode,
		UserID:        userID,
	})
	if err != nil {
		return nil, uc.mapPricingError(err)
	}

	var (
		result         *domain.Booking
		reservedSlot   *domain.Slot
		accountCreated bool
		setupToken     *accounts.SetupToken
	)

	// 4. Операции с БД в одной транзакции
	// Вместимость защищает условный инкремент в Reserve, он перепроверяется после ожидания блокировки строки
	err = uc.txManager.Do(ctx, func(txCtx context.Context) error {
		// 4.1. Блокировка слота не должна принадлежать другой сессии
		if err := uc.locks.Check(txCtx, slotKey, req.LockToken); err != nil {
			if errors.Is(err, locks.ErrSlotUnavailable) {
				uc.logger.Warn("CreateBooking: slot=%s is held by another checkout", slotKey)
				return ErrSlotUnavailable
			}
			uc.logger.Error("CreateBooking: lock check failed for slot=%s: %v", slotKey, err)
			return fmt.Errorf("%w: lock check: %v", ErrPersistence, err)
		}

		// 4.2. Атомарный резерв места в слоте
		slot, err := uc.reserveSlot(txCtx, req, now)
		if err != nil {
			return err
		}
		reservedSlot = slot

		// 4.3. Клиент
		user, created, err := uc.resolveCustomer(txCtx, req)
		if err != nil {
			return err
		}
		accountCreated = created

		// 4.4. Снимок автомобиля
		vehicle, err := uc.resolveVehicle(txCtx, req, savedVehicle, user, price.VehicleSize)
		if err != nil {
			return err
		}

		// 4.5. Платежное намерение
		intentID, err := uc.payments.CreateIntent(txCtx, price.TotalPence, uc.cfg.Currency)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to create payment intent: %v", err)
			return fmt.Errorf("%w: create payment intent: %v", ErrPersistence, err)
		}

		booking := buildBooking(req, slot, price, vehicle, user)
		booking.PaymentIntentID = &intentID

		// 4.6. Бронирование с уникальным номером
		inserted, err := uc.insertWithReference(txCtx, booking)
		if err != nil {
			return err
		}
		result = inserted

		// 4.7. Ссылка на установку пароля для нового аккаунта
		if accountCreated && uc.accounts != nil {
			token, err := uc.accounts.IssuePasswordSetup(txCtx, user.ID)
			if err != nil {
				uc.logger.Error("CreateBooking: failed to issue password setup for user=%d: %v", user.ID, err)
				return fmt.Errorf("%w: issue password setup: %v", ErrPersistence, err)
			}
			setupToken = token
		}

		return nil
	})
	if err != nil {
		if txmanager.IsSerializationFailure(err) {
			uc.logger.Warn("CreateBooking: slot=%s lost to a concurrent transaction: %v", slotKey, err)
			err = ErrSlotUnavailable
		}
		if errors.Is(err, ErrSlotUnavailable) {
			uc.metrics.SlotConflict("commit")
		}
		return nil, uc.classify(err)
	}

	uc.metrics.BookingCreated()
	uc.logger.Info("CreateBooking: created booking id=%d (%s), total=%d, slot=%s",
		result.ID, result.Reference, result.TotalPricePence, slotKey)

	// 5. Снимаем блокировку слота
	if err := uc.locks.Release(ctx, slotKey); err != nil {
		uc.logger.Warn("CreateBooking: failed to release lock for slot=%s: %v", slotKey, err)
	}

	// 6. Побочные эффекты
	uc.fireSideEffects(ctx, result, reservedSlot)

	return &Response{
		Booking:         result,
		Slot:            reservedSlot,
		PaymentIntentID: ptr.Value(result.PaymentIntentID),
		AccountCreated:  accountCreated,
		PasswordSetup:   setupToken,
		PriceDegraded:   price.Degraded,
	}, nil
}

// resolveSavedVehicle загружает сохраненный автомобиль и проверяет владельца
func (uc *UseCase) resolveSavedVehicle(ctx context.Context, req *Request) (*domain.Vehicle, error) {
	if req.Vehicle.ID == nil {
		return nil, nil
	}
	if req.Actor.IsAnonymous() {
		uc.logger.Warn("CreateBooking: anonymous request references saved vehicle id=%d", *req.Vehicle.ID)
		return nil, fmt.Errorf("%w: saved vehicles require an account", ErrInvalidVehicle)
	}

	vehicle, err := uc.userRepo.GetVehicle(ctx, *req.Vehicle.ID)
	if err != nil {
		if errors.Is(err, userRepo.ErrVehicleNotFound) {
			uc.logger.Warn("CreateBooking: vehicle id=%d not found", *req.Vehicle.ID)
			return nil, fmt.Errorf("%w: vehicle not found", ErrInvalidVehicle)
		}
		uc.logger.Error("CreateBooking: failed to get vehicle id=%d: %v", *req.Vehicle.ID, err)
		return nil, fmt.Errorf("%w: get vehicle: %v", ErrPersistence, err)
	}

	if vehicle.UserID != req.Actor.UserID {
		uc.logger.Warn("CreateBooking: vehicle id=%d belongs to user=%d, not user=%d",
			vehicle.ID, vehicle.UserID, req.Actor.UserID)
		return nil, fmt.Errorf("%w: vehicle belongs to another user", ErrInvalidVehicle)
	}
	return vehicle, nil
}

// reserveSlot находит слот и занимает место условным инкрементом
func (uc *UseCase) reserveSlot(ctx context.Context, req *Request, now time.Time) (*domain.Slot, error) {
	slot, err := uc.slotRepo.GetByDateTime(ctx, req.Date, req.StartTime)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			uc.logger.Warn("CreateBooking: no slot at %s", req.SlotKey())
			return nil, ErrSlotUnavailable
		}
		uc.logger.Error("CreateBooking: failed to get slot %s: %v", req.SlotKey(), err)
		return nil, fmt.Errorf("%w: get slot: %v", ErrPersistence, err)
	}

	reserved, err := uc.slotRepo.Reserve(ctx, slot.ID, now)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotUnavailable) {
			uc.logger.Warn("CreateBooking: slot id=%d is full, blocked or in the past (%d/%d)",
				slot.ID, slot.CurrentBookings, slot.MaxBookings)
			return nil, ErrSlotUnavailable
		}
		if txmanager.IsSerializationFailure(err) {
			uc.logger.Warn("CreateBooking: slot id=%d reserve lost to a concurrent transaction", slot.ID)
			return nil, ErrSlotUnavailable
		}
		uc.logger.Error("CreateBooking: failed to reserve slot id=%d: %v", slot.ID, err)
		return nil, fmt.Errorf("%w: reserve slot: %v", ErrPersistence, err)
	}

	uc.logger.Info("CreateBooking: reserved slot id=%d, %d/%d taken", reserved.ID, reserved.CurrentBookings, reserved.MaxBookings)
	return reserved, nil
}

// resolveCustomer возвращает пользователя бронирования
// Анонимный клиент с занятым email получает ErrAccountExists, аккаунт не объединяется
func (uc *UseCase) resolveCustomer(ctx context.Context, req *Request) (*domain.User, bool, error) {
	if !req.Actor.IsAnonymous() {
		user, err := uc.userRepo.GetByID(ctx, req.Actor.UserID)
		if err != nil {
			if errors.Is(err, userRepo.ErrUserNotFound) {
				uc.logger.Warn("CreateBooking: user id=%d not found", req.Actor.UserID)
				return nil, false, fmt.Errorf("%w: unknown user", ErrValidation)
			}
			return nil, false, fmt.Errorf("%w: get user: %v", ErrPersistence, err)
		}
		return user, false, nil
	}

	existing, err := uc.userRepo.GetByEmail(ctx, req.Customer.Email)
	if err == nil && existing != nil {
		uc.logger.Warn("CreateBooking: anonymous booking for existing account email=%s", req.Customer.Email)
		return nil, false, ErrAccountExists
	}
	if err != nil && !errors.Is(err, userRepo.ErrUserNotFound) {
		uc.logger.Error("CreateBooking: failed to look up email=%s: %v", req.Customer.Email, err)
		return nil, false, fmt.Errorf("%w: get user by email: %v", ErrPersistence, err)
	}

	created, err := uc.userRepo.Create(ctx, &domain.User{
		Email: req.Customer.Email,
		Name:  req.Customer.Name,
		Phone: req.Customer.Phone,
		Role:  domain.RoleCustomer,
	})
	if err != nil {
		if errors.Is(err, userRepo.ErrEmailTaken) {
			uc.logger.Warn("CreateBooking: email=%s registered concurrently", req.Customer.Email)
			return nil, false, ErrAccountExists
		}
		uc.logger.Error("CreateBooking: failed to create user: %v", err)
		return nil, false, fmt.Errorf("%w: create user: %v", ErrPersistence, err)
	}

	uc.logger.Info("CreateBooking: created account id=%d without password", created.ID)
	return created, true, nil
}

// resolveVehicle снимок автомобиля, новый автомобиль сохраняется в профиль
func (uc *UseCase) resolveVehicle(
	ctx context.Context,
	req *Request,
	saved *domain.Vehicle,
	user *domain.User,
	size domain.VehicleSize,
) (*domain.Vehicle, error) {
	if saved != nil {
		return saved, nil
	}

	vehicle := &domain.Vehicle{
		UserID:       user.ID,
		Make:         req.Vehicle.Make,
		Model:        req.Vehicle.Model,
		Registration: req.Vehicle.Registration,
		Size:         size,
	}

	stored, err := uc.userRepo.SaveVehicle(ctx, vehicle)
	if err != nil {
		uc.logger.Error("CreateBooking: failed to save vehicle for user=%d: %v", user.ID, err)
		return nil, fmt.Errorf("%w: save vehicle: %v", ErrPersistence, err)
	}
	return stored, nil
}

// insertWithReference вставляет бронирование, при коллизии номера генерирует новый
func (uc *UseCase) insertWithReference(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	for attempt := 1; attempt <= uc.cfg.ReferenceAttempts; attempt++ {
		reference, err := uc.newReference()
		if err != nil {
			return nil, fmt.Errorf("%w: generate reference: %v", ErrPersistence, err)
		}
		booking.Reference = reference

		created, err := uc.bookingRepo.Create(ctx, booking)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, bookingRepo.ErrReferenceTaken) {
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return nil, fmt.Errorf("%w: create booking: %v", ErrPersistence, err)
		}
		uc.logger.Warn("CreateBooking: reference %s taken, attempt %d/%d", reference, attempt, uc.cfg.ReferenceAttempts)
	}

	uc.logger.Error("CreateBooking: no free reference after %d attempts", uc.cfg.ReferenceAttempts)
	return nil, fmt.Errorf("%w: no free booking reference after %d attempts", ErrPersistence, uc.cfg.ReferenceAttempts)
}

// buildBooking собирает бронирование с денормализацией данных
func buildBooking(req *Request, slot *domain.Slot, price *domain.PriceBreakdown, vehicle *domain.Vehicle, user *domain.User) *domain.Booking {
	name := req.Customer.Name
	if name == "" {
		name = user.Name
	}
	email := req.Customer.Email
	if email == "" {
		email = user.Email
	}
	phone := req.Customer.Phone
	if phone == nil {
		phone = user.Phone
	}

	serviceName := price.ServiceName
	if serviceName == "" {
		serviceName = fmt.Sprintf("service #%d", price.ServiceID)
	}

	duration := price.DurationMinutes
	if duration <= 0 {
		duration = slot.DurationMinutes
	}

	return &domain.Booking{
		Status:               domain.StatusPending,
		UserID:               ptr.Ptr(user.ID),
		CustomerName:         name,
		CustomerEmail:        email,
		CustomerPhone:        phone,
		VehicleID:            ptr.Ptr(vehicle.ID),
		VehicleMake:          vehicle.Make,
		VehicleModel:         vehicle.Model,
		VehicleRegistration:  vehicle.Registration,
		VehicleSize:          vehicle.Size,
		ServiceID:            price.ServiceID,
		ServiceName:          serviceName,
		SlotID:               slot.ID,
		BookingDate:          slot.Date,
		StartTime:            slot.StartTime,
		DurationMinutes:      duration,
		Postcode:             req.Postcode,
		Notes:                req.Notes,
		ServicePricePence:    price.ServicePricePence,
		TravelSurchargePence: price.TravelSurchargePence,
		DiscountPercent:      price.DiscountPercent,
		DiscountPence:        price.DiscountPence,
		TotalPricePence:      price.TotalPence,
		LoyaltyTier:          price.Tier,
		PaymentMethod:        domain.PaymentMethod(req.PaymentMethod),
		PaymentStatus:        domain.PaymentStatusPending,
	}
}

// fireSideEffects письмо и события после коммита, ошибки только логируются
func (uc *UseCase) fireSideEffects(ctx context.Context, booking *domain.Booking, slot *domain.Slot) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.cfg.SideEffectsTimeout)
	defer cancel()

	now := uc.timeProvider.Now()

	var g errgroup.Group

	g.Go(func() error {
		if uc.email == nil {
			return nil
		}
		err := uc.email.Send(ctx, emailservice.Message{
			Type: emailservice.TypeBookingConfirmation,
			To:   booking.CustomerEmail,
			TemplateData: map[string]interface{}{
				"customer_name": booking.CustomerName,
				"reference":     booking.Reference,
				"date":          booking.BookingDate.Format(domain.DateFormat),
				"time":          booking.StartTime.String(),
				"service_name":  booking.ServiceName,
				"vehicle":       booking.VehicleMake + " " + booking.VehicleModel,
				"total_pence":   booking.TotalPricePence,
			},
		})
		if err != nil {
			uc.metrics.SideEffectFailed("email")
			return fmt.Errorf("confirmation email: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if uc.publisher == nil {
			return nil
		}
		if err := uc.publisher.Publish(ctx, domain.ChangeEvent{
			EventType:  domain.ChangeInsert,
			Table:      domain.TableBookings,
			New:        bookingModels.FromDomainBooking(booking),
			OccurredAt: now,
		}); err != nil {
			uc.metrics.SideEffectFailed("event")
			return fmt.Errorf("booking event: %w", err)
		}
		if err := uc.publisher.Publish(ctx, domain.ChangeEvent{
			EventType:  domain.ChangeUpdate,
			Table:      domain.TableSlots,
			New:        scheduleModels.FromDomainSlot(slot, false, now),
			OccurredAt: now,
		}); err != nil {
			uc.metrics.SideEffectFailed("event")
			return fmt.Errorf("slot event: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		uc.logger.Warn("CreateBooking: side effect failed for booking %s: %v", booking.Reference, err)
	}
}

// mapPricingError переводит ошибки расчета цены в таксономию бронирования
func (uc *UseCase) mapPricingError(err error) error {
	switch {
	case errors.Is(err, pricing.ErrServiceNotFound):
		uc.logger.Warn("CreateBooking: service not found: %v", err)
		return fmt.Errorf("%w: service not found", ErrValidation)
	case errors.Is(err, pricing.ErrUnknownPostcode):
		uc.logger.Warn("CreateBooking: unknown postcode: %v", err)
		return fmt.Errorf("%w: unknown postcode", ErrValidation)
	case errors.Is(err, pricing.ErrInvalidInput):
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	uc.logger.Error("CreateBooking: pricing failed: %v", err)
	return fmt.Errorf("%w: pricing: %v", ErrPersistence, err)
}

// classify гарантирует, что наружу уходит одна из ошибок таксономии
func (uc *UseCase) classify(err error) error {
	for _, known := range []error{ErrValidation, ErrSlotUnavailable, ErrAccountExists, ErrInvalidVehicle, ErrPersistence} {
		if errors.Is(err, known) {
			return err
		}
	}
	uc.logger.Error("CreateBooking: transaction failed: %v", err)
	return fmt.Errorf("%w: transaction: %v", ErrPersistence, err)
}
