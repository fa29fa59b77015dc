package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-DetailingService/internal/domain"
	pricingRepo "github.com/m04kA/SMC-DetailingService/internal/infra/storage/pricing"
	rewardsRepo "github.com/m04kA/SMC-DetailingService/internal/infra/storage/rewards"
	"github.com/m04kA/SMC-DetailingService/internal/integrations/distanceservice"
	"github.com/m04kA/SMC-DetailingService/pkg/ptr"
)

// Config параметры наценки за выезд
type Config struct {
	BaseRadiusMiles      float64 // В пределах радиуса выезд бесплатный
	TravelSurchargePence int64   // Фиксированная наценка за пределами радиуса
}

// QuoteRequest входные данные расчета цены
type QuoteRequest struct {
	ServiceID     int64
	VehicleSize   string   // small|medium|large или класс автомобиля (A..S)
	DistanceMiles *float64 // Если задано, сервис расстояний не вызывается
	Postcode      *string
	UserID        *int64 // Для скидки по уровню лояльности
}

// Service расчет цены: матрица цен, наценка за выезд, скидка по уровню лояльности
// Все суммы в пенсах
type Service struct {
	priceRepo PriceRepository
	distance  DistanceClient
	rewards   RewardsReader
	cfg       Config
	logger    Logger
}

// NewService создает новый экземпляр сервиса цен
func NewService(priceRepo PriceRepository, distance DistanceClient, rewards RewardsReader, cfg Config, logger Logger) *Service {
	return &Service{
		priceRepo: priceRepo,
		distance:  distance,
		rewards:   rewards,
		cfg:       cfg,
		logger:    logger,
	}
}

// Quote рассчитывает цену и длительность услуги
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (*domain.PriceBreakdown, error) {
	s.logger.Info("Quote: service=%d, size=%q, user=%v", req.ServiceID, req.VehicleSize, ptr.Value(req.UserID))

	if req.ServiceID <= 0 {
		return nil, fmt.Errorf("%w: service_id is required", ErrInvalidInput)
	}
	if req.DistanceMiles != nil && *req.DistanceMiles < 0 {
		return nil, fmt.Errorf("%w: distance_miles must not be negative", ErrInvalidInput)
	}

	size := domain.NormalizeVehicleSize(req.VehicleSize)

	// 1. Базовая цена
	price, name, degraded, err := s.resolveBasePrice(ctx, req.ServiceID, size)
	if err != nil {
		return nil, err
	}

	// 2. Наценка за выезд
	distance, surcharge, distanceDegraded, err := s.resolveTravelSurcharge(ctx, req.DistanceMiles, req.Postcode)
	if err != nil {
		return nil, err
	}

	// 3. Скидка по уровню лояльности
	tier := s.resolveTier(ctx, req.UserID)

	breakdown := Calculate(price, surcharge, tier)
	breakdown.ServiceID = req.ServiceID
	breakdown.ServiceName = name
	breakdown.VehicleSize = size
	breakdown.DistanceMiles = distance
	breakdown.Degraded = degraded || distanceDegraded

	s.logger.Info("Quote: service=%d, size=%s, base=%d, surcharge=%d, discount=%d, total=%d, degraded=%t",
		req.ServiceID, size, breakdown.ServicePricePence, breakdown.TravelSurchargePence,
		breakdown.DiscountPence, breakdown.TotalPence, breakdown.Degraded)
	return breakdown, nil
}

// Calculate собирает итоговую цену
// Скидка применяется только к цене услуги, наценка за выезд не скидывается
func Calculate(price domain.ServicePrice, surchargePence int64, tier domain.Tier) *domain.PriceBreakdown {
	percent := tier.DiscountPercent()
	discount := domain.ApplyDiscount(price.PricePence, percent)

	return &domain.PriceBreakdown{
		ServiceID:            price.ServiceID,
		VehicleSize:          price.Size,
		ServicePricePence:    price.PricePence,
		DurationMinutes:      price.DurationMinutes,
		TravelSurchargePence: surchargePence,
		Tier:                 tier,
		DiscountPercent:      percent,
		DiscountPence:        discount,
		TotalPence:           domain.TotalPrice(price.PricePence, surchargePence, discount),
	}
}

// Surcharge наценка за расстояние: ноль в пределах радиуса, фиксированная сумма дальше
func (s *Service) Surcharge(distanceMiles float64) int64 {
	if distanceMiles <= s.cfg.BaseRadiusMiles {
		return 0
	}
	return s.cfg.TravelSurchargePence
}

// resolveBasePrice ищет цену в матрице, при недоступности хранилища берет матрицу по умолчанию
func (s *Service) resolveBasePrice(ctx context.Context, serviceID int64, size domain.VehicleSize) (domain.ServicePrice, string, bool, error) {
	service, err := s.priceRepo.GetService(ctx, serviceID)
	if err != nil {
		if errors.Is(err, pricingRepo.ErrServiceNotFound) {
			s.logger.Warn("Quote: service=%d not found", serviceID)
			return domain.ServicePrice{}, "", false, ErrServiceNotFound
		}
		s.logger.Error("Quote: pricing store unavailable, using default matrix: %v", err)
		return defaultPrice(serviceID, size), "", true, nil
	}
	if !service.IsActive {
		s.logger.Warn("Quote: service=%d is not active", serviceID)
		return domain.ServicePrice{}, "", false, ErrServiceNotFound
	}

	matrix, err := s.priceRepo.GetPrices(ctx, serviceID)
	if err != nil {
		s.logger.Error("Quote: failed to load prices for service=%d, using default matrix: %v", serviceID, err)
		return defaultPrice(serviceID, size), service.Name, true, nil
	}

	price, ok := matrix[size]
	if !ok {
		s.logger.Warn("Quote: no %s price for service=%d, using default matrix", size, serviceID)
		return defaultPrice(serviceID, size), service.Name, true, nil
	}

	return price, service.Name, false, nil
}

func (s *Service) resolveTravelSurcharge(ctx context.Context, distanceMiles *float64, postcode *string) (*float64, int64, bool, error) {
	if distanceMiles != nil {
		return distanceMiles, s.Surcharge(*distanceMiles), false, nil
	}
	if postcode == nil || distanceservice.NormalizePostcode(*postcode) == "" || s.distance == nil {
		return nil, 0, false, nil
	}

	distance, err := s.distance.GetDistanceWithGracefulDegradation(ctx, *postcode)
	if err != nil {
		if errors.Is(err, distanceservice.ErrPostcodeNotFound) {
			s.logger.Warn("Quote: unknown postcode %q", *postcode)
			return nil, 0, false, ErrUnknownPostcode
		}
		// Сервис расстояний недоступен: выезд не тарифицируем
		s.logger.Warn("Quote: distance unavailable, surcharge skipped: %v", err)
		return nil, 0, true, nil
	}

	return &distance.Miles, s.Surcharge(distance.Miles), false, nil
}

// resolveTier уровень пользователя. Без счета или при ошибке - bronze
func (s *Service) resolveTier(ctx context.Context, userID *int64) domain.Tier {
	if userID == nil || s.rewards == nil {
		return domain.TierBronze
	}

	account, err := s.rewards.GetAccount(ctx, *userID)
	if err != nil {
		if !errors.Is(err, rewardsRepo.ErrAccountNotFound) {
			s.logger.Error("Quote: failed to read rewards account user=%d: %v", *userID, err)
		}
		return domain.TierBronze
	}

	return domain.TierFor(account.LifetimePoints)
}

func defaultPrice(serviceID int64, size domain.VehicleSize) domain.ServicePrice {
	price := domain.DefaultPriceMatrix[size]
	price.ServiceID = serviceID
	return price
}
