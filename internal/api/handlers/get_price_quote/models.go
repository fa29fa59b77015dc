package get_price_quote

import "github.com/m04kA/SMC-DetailingService/internal/domain"

// QuoteResponse разбивка цены, суммы в пенсах
type QuoteResponse struct {
	ServiceID            int64    `json:"service_id"`
	ServiceName          string   `json:"service_name,omitempty"`
	VehicleSize          string   `json:"vehicle_size"`
	DurationMinutes      int      `json:"duration_minutes"`
	ServicePricePence    int64    `json:"service_price_pence"`
	DistanceMiles        *float64 `json:"distance_miles,omitempty"`
	TravelSurchargePence int64    `json:"travel_surcharge_pence"`
	LoyaltyTier          string   `json:"loyalty_tier"`
	DiscountPercent      int      `json:"discount_percent"`
	DiscountPence        int64    `json:"discount_pence"`
	TotalPricePence      int64    `json:"total_price_pence"`
	Currency             string   `json:"currency"`
	Degraded             bool     `json:"degraded"`
}

func fromDomainBreakdown(b *domain.PriceBreakdown, currency string) *QuoteResponse {
	return &QuoteResponse{
		ServiceID:            b.ServiceID,
		ServiceName:          b.ServiceName,
		VehicleSize:          string(b.VehicleSize),
		DurationMinutes:      b.DurationMinutes,
		ServicePricePence:    b.ServicePricePence,
		DistanceMiles:        b.DistanceMiles,
		TravelSurchargePence: b.TravelSurchargePence,
		LoyaltyTier:          string(b.Tier),
		DiscountPercent:      b.DiscountPercent,
		DiscountPence:        b.DiscountPence,
		TotalPricePence:      b.TotalPence,
		Currency:             currency,
		Degraded:             b.Degraded,
	}
}
