package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-DetailingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-DetailingService/internal/integrations/emailservice"
	"github.com/m04kA/SMC-DetailingService/internal/service/bookings/models"
	rewardsModels "github.com/m04kA/SMC-DetailingService/internal/service/rewards/models"
)

// Service сервис для работы с бронированиями
type Service struct {
	bookingRepo    BookingRepository
	slotRepo       SlotRepository
	rewards        RewardsService
	payments       PaymentProvider
	email          EmailSender
	publisher      EventPublisher
	txManager      TransactionManager
	metrics        Metrics
	timeProvider   TimeProvider
	pointsPerPound int64
	logger         Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	slotRepo SlotRepository,
	rewards RewardsService,
	payments PaymentProvider,
	email EmailSender,
	publisher EventPublisher,
	txManager TransactionManager,
	metrics Metrics,
	pointsPerPound int64,
	logger Logger,
) *Service {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Service{
		bookingRepo:    bookingRepo,
		slotRepo:       slotRepo,
		rewards:        rewards,
		payments:       payments,
		email:          email,
		publisher:      publisher,
		txManager:      txManager,
		metrics:        metrics,
		timeProvider:   &RealTimeProvider{},
		pointsPerPound: pointsPerPound,
		logger:         logger,
	}
}

// GetByID получает бронирование по ID
// Клиент видит только свои бронирования, администратор - любые
func (s *Service) GetByID(ctx context.Context, id int64, actor domain.Actor) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%d for user=%d", id, actor.UserID)

	booking, err := s.getBooking(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}

	if !actor.CanAccessBooking(booking) {
		s.logger.Warn("GetByID: access denied for user=%d to booking id=%d", actor.UserID, id)
		return nil, ErrAccessDenied
	}

	return models.FromDomainBooking(booking), nil
}

// GetUserBookings получает историю бронирований пользователя
// Опционально фильтрует по статусу
func (s *Service) GetUserBookings(ctx context.Context, req *models.GetUserBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetUserBookings: fetching bookings for user=%d, status=%v", req.UserID, req.Status)

	if !req.Actor.CanAccessUser(req.UserID) {
		s.logger.Warn("GetUserBookings: user=%d may not read bookings of user=%d", req.Actor.UserID, req.UserID)
		return nil, ErrAccessDenied
	}

	listReq := &models.ListBookingsRequest{UserID: &req.UserID, Status: req.Status}
	filter, err := listReq.ToDomainFilter()
	if err != nil {
		s.logger.Warn("GetUserBookings: invalid status=%v for user=%d", req.Status, req.UserID)
		return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
	}

	bookings, err := s.bookingRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("GetUserBookings: repository error for user=%d: %v", req.UserID, err)
		return nil, fmt.Errorf("%w: GetUserBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetUserBookings: fetched %d bookings for user=%d", len(bookings), req.UserID)
	return models.FromDomainBookingList(bookings), nil
}

// ListBookings список бронирований для администратора
// Поддерживает фильтрацию по периоду, статусу и пользователю
func (s *Service) ListBookings(ctx context.Context, req *models.ListBookingsRequest) (*models.BookingListResponse, error) {
	if !req.Actor.IsAdmin() {
		s.logger.Warn("ListBookings: user=%d is not an admin", req.Actor.UserID)
		return nil, ErrAccessDenied
	}

	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, fmt.Errorf("%w: end_date before start_date", ErrInvalidInput)
	}

	filter, err := req.ToDomainFilter()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
	}

	bookings, err := s.bookingRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ListBookings: repository error: %v", err)
		return nil, fmt.Errorf("%w: ListBookings - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("ListBookings: fetched %d bookings (limit=%d, offset=%d)", len(bookings), filter.Limit, filter.Offset)
	return models.FromDomainBookingList(bookings), nil
}

// Cancel отменяет бронирование и возвращает место в слот
// Повторная отмена не ошибка: возвращается текущее состояние
func (s *Service) Cancel(ctx context.Context, id int64, req *models.CancelBookingRequest) (*models.CancelBookingResponse, error) {
	s.logger.Info("Cancel: cancelling booking id=%d by user=%d", id, req.Actor.UserID)

	reason, err := normalizeReason(req.CancellationReason)
	if err != nil {
		return nil, err
	}

	var (
		before, after    *domain.Booking
		alreadyCancelled bool
	)

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		// 1. Читаем бронирование под блокировкой
		booking, err := s.getBooking(ctx, "Cancel", id)
		if err != nil {
			return err
		}

		// 2. Проверяем права
		if !req.Actor.CanAccessBooking(booking) {
			s.logger.Warn("Cancel: access denied for user=%d to booking id=%d", req.Actor.UserID, id)
			return ErrAccessDenied
		}

		if booking.IsCancelled() {
			alreadyCancelled = true
			after = booking
			return nil
		}

		if !booking.CanBeCancelled() {
			s.logger.Warn("Cancel: booking id=%d in status=%s cannot be cancelled", id, booking.Status)
			return fmt.Errorf("%w: booking is %s", ErrInvalidTransition, booking.Status)
		}

		// 3. Меняем статус и возвращаем место
		if err := s.transition(ctx, "Cancel", booking, domain.StatusCancelled, reason); err != nil {
			return err
		}

		before = booking
		after, err = s.getBooking(ctx, "Cancel", id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if alreadyCancelled {
		s.logger.Info("Cancel: booking id=%d already cancelled", id)
		return &models.CancelBookingResponse{Booking: models.FromDomainBooking(after), AlreadyCancelled: true}, nil
	}

	s.metrics.BookingCancelled()

	// Побочные эффекты после коммита, ошибки не откатывают отмену
	if after.PaymentStatus == domain.PaymentStatusPaid && after.PaymentIntentID != nil {
		s.refund(ctx, after)
	}
	s.sendCancellationEmail(ctx, after)
	s.publishChange(ctx, before, after)

	s.logger.Info("Cancel: booking id=%d (%s) cancelled", id, after.Reference)
	return &models.CancelBookingResponse{Booking: models.FromDomainBooking(after)}, nil
}

// UpdateStatus переводит бронирование в новый статус (только администратор)
func (s *Service) UpdateStatus(ctx context.Context, id int64, req *models.UpdateStatusRequest) (*models.BookingResponse, error) {
	s.logger.Info("UpdateStatus: booking id=%d -> %s by user=%d", id, req.Status, req.Actor.UserID)

	if !req.Actor.IsAdmin() {
		s.logger.Warn("UpdateStatus: user=%d is not an admin", req.Actor.UserID)
		return nil, ErrAccessDenied
	}

	target, err := models.ToDomainBookingStatus(req.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, req.Status)
	}

	reason, err := normalizeReason(req.Reason)
	if err != nil {
		return nil, err
	}

	var before, after *domain.Booking

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		booking, err := s.getBooking(ctx, "UpdateStatus", id)
		if err != nil {
			return err
		}

		// Повторный запрос того же статуса ничего не меняет
		if booking.Status == target {
			after = booking
			return nil
		}

		if !domain.CanTransition(booking.Status, target) {
			s.logger.Warn("UpdateStatus: illegal transition %s -> %s for booking id=%d", booking.Status, target, id)
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, target)
		}

		if err := s.transition(ctx, "UpdateStatus", booking, target, reason); err != nil {
			return err
		}

		if target == domain.StatusCompleted && booking.PaymentStatus == domain.PaymentStatusPending {
			if err := s.bookingRepo.UpdatePayment(ctx, id, domain.PaymentStatusPaid, booking.PaymentIntentID); err != nil {
				s.logger.Error("UpdateStatus: failed to mark booking id=%d as paid: %v", id, err)
				return fmt.Errorf("%w: UpdateStatus - update payment: %v", ErrInternal, err)
			}
		}

		before = booking
		after, err = s.getBooking(ctx, "UpdateStatus", id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if before == nil {
		s.logger.Info("UpdateStatus: booking id=%d already %s", id, target)
		return models.FromDomainBooking(after), nil
	}

	switch target {
	case domain.StatusCompleted:
		if after.PaymentIntentID != nil && before.PaymentStatus == domain.PaymentStatusPending {
			s.confirmPayment(ctx, after)
		}
		s.accruePoints(ctx, after)
	case domain.StatusCancelled:
		s.metrics.BookingCancelled()
		if after.PaymentStatus == domain.PaymentStatusPaid && after.PaymentIntentID != nil {
			s.refund(ctx, after)
		}
		s.sendCancellationEmail(ctx, after)
	}
	s.publishChange(ctx, before, after)

	s.logger.Info("UpdateStatus: booking id=%d moved %s -> %s", id, before.Status, after.Status)
	return models.FromDomainBooking(after), nil
}

// getBooking читает бронирование и маппит ошибки репозитория
func (s *Service) getBooking(ctx context.Context, op string, id int64) (*domain.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("%s: booking id=%d not found", op, id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("%s: repository error for booking id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - get booking: %v", ErrInternal, op, err)
	}
	return booking, nil
}

// transition условная смена статуса, при отмене и неявке освобождает место
func (s *Service) transition(ctx context.Context, op string, booking *domain.Booking, to domain.BookingStatus, reason *string) error {
	err := s.bookingRepo.TransitionStatus(ctx, booking.ID, booking.Status, to, reason, s.timeProvider.Now())
	if err != nil {
		if errors.Is(err, bookingRepo.ErrStatusChanged) {
			s.logger.Warn("%s: booking id=%d changed concurrently", op, booking.ID)
			return fmt.Errorf("%w: status changed concurrently", ErrInvalidTransition)
		}
		s.logger.Error("%s: failed to update status of booking id=%d: %v", op, booking.ID, err)
		return fmt.Errorf("%w: %s - transition status: %v", ErrInternal, op, err)
	}

	if to.ReleasesCapacity() {
		released, err := s.slotRepo.Release(ctx, booking.SlotID)
		if err != nil {
			s.logger.Error("%s: failed to release slot id=%d: %v", op, booking.SlotID, err)
			return fmt.Errorf("%w: %s - release slot: %v", ErrInternal, op, err)
		}
		if !released {
			s.logger.Warn("%s: slot id=%d had no bookings to release", op, booking.SlotID)
		}
	}
	return nil
}

func (s *Service) refund(ctx context.Context, booking *domain.Booking) {
	if s.payments == nil {
		return
	}
	refunded, err := s.payments.Refund(ctx, *booking.PaymentIntentID)
	if err != nil || !refunded {
		s.logger.Warn("refund: intent %s of booking %s not refunded: %v", *booking.PaymentIntentID, booking.Reference, err)
		s.metrics.SideEffectFailed("refund")
		return
	}
	if err := s.bookingRepo.UpdatePayment(ctx, booking.ID, domain.PaymentStatusRefunded, booking.PaymentIntentID); err != nil {
		s.logger.Error("refund: failed to store refund of booking %s: %v", booking.Reference, err)
		s.metrics.SideEffectFailed("refund")
		return
	}
	booking.PaymentStatus = domain.PaymentStatusRefunded
}

func (s *Service) confirmPayment(ctx context.Context, booking *domain.Booking) {
	if s.payments == nil {
		return
	}
	if _, err := s.payments.Confirm(ctx, *booking.PaymentIntentID); err != nil {
		s.logger.Warn("confirmPayment: intent %s of booking %s: %v", *booking.PaymentIntentID, booking.Reference, err)
		s.metrics.SideEffectFailed("payment_confirm")
	}
}

// accruePoints начисляет бонусы за завершенное бронирование
func (s *Service) accruePoints(ctx context.Context, booking *domain.Booking) {
	if s.rewards == nil || booking.UserID == nil {
		return
	}
	points := domain.PointsForTotal(booking.TotalPricePence, s.pointsPerPound)
	if points == 0 {
		return
	}

	bookingID := booking.ID
	result, err := s.rewards.AddPoints(ctx, &rewardsModels.AddPointsRequest{
		UserID:    *booking.UserID,
		BookingID: &bookingID,
		Type:      domain.RewardEarned,
		Points:    points,
		Reason:    fmt.Sprintf("booking %s completed", booking.Reference),
	})
	if err != nil {
		s.logger.Error("accruePoints: booking %s: %v", booking.Reference, err)
		s.metrics.SideEffectFailed("rewards")
		return
	}
	if result.Duplicate {
		s.logger.Info("accruePoints: points for booking %s already granted", booking.Reference)
	}
}

func (s *Service) sendCancellationEmail(ctx context.Context, booking *domain.Booking) {
	if s.email == nil {
		return
	}
	err := s.email.Send(ctx, emailservice.Message{
		Type: emailservice.TypeBookingCancellation,
		To:   booking.CustomerEmail,
		TemplateData: map[string]interface{}{
			"customer_name": booking.CustomerName,
			"reference":     booking.Reference,
			"date":          booking.BookingDate.Format(domain.DateFormat),
			"time":          booking.StartTime.String(),
			"service_name":  booking.ServiceName,
		},
	})
	if err != nil {
		s.logger.Warn("sendCancellationEmail: booking %s: %v", booking.Reference, err)
		s.metrics.SideEffectFailed("email")
	}
}

func (s *Service) publishChange(ctx context.Context, before, after *domain.Booking) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, domain.ChangeEvent{
		EventType:  domain.ChangeUpdate,
		Table:      domain.TableBookings,
		Old:        models.FromDomainBooking(before),
		New:        models.FromDomainBooking(after),
		OccurredAt: s.timeProvider.Now(),
	})
	if err != nil {
		s.logger.Warn("publishChange: booking id=%d: %v", after.ID, err)
		s.metrics.SideEffectFailed("event")
	}
}

func normalizeReason(reason *string) (*string, error) {
	if reason == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*reason)
	if trimmed == "" {
		return nil, nil
	}
	if len(trimmed) > domain.MaxCancellationReasonLength {
		return nil, fmt.Errorf("%w: reason exceeds %d characters", ErrInvalidInput, domain.MaxCancellationReasonLength)
	}
	return &trimmed, nil
}
