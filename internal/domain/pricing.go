package domain

// Service is a detailing service offered to customers
type Service struct {
	ID          int64
	Name        string
	Description *string
	IsActive    bool
}

// ServicePrice one cell of the pricing matrix
type ServicePrice struct {
	ServiceID       int64
	Size            VehicleSize
	PricePence      int64
	DurationMinutes int
}

// PriceMatrix prices of one service keyed by vehicle size
type PriceMatrix map[VehicleSize]ServicePrice

// DefaultPriceMatrix is used when the pricing store is unavailable
var DefaultPriceMatrix = map[VehicleSize]ServicePrice{
	VehicleSizeSmall:  {Size: VehicleSizeSmall, PricePence: 5000, DurationMinutes: 90},
	VehicleSizeMedium: {Size: VehicleSizeMedium, PricePence: 6000, DurationMinutes: 120},
	VehicleSizeLarge:  {Size: VehicleSizeLarge, PricePence: 7000, DurationMinutes: 150},
}

// PriceBreakdown is the priced quote of a booking, all amounts in pence
type PriceBreakdown struct {
	ServiceID            int64
	ServiceName          string // Empty when the service row could not be read
	VehicleSize          VehicleSize
	ServicePricePence    int64
	DurationMinutes      int
	DistanceMiles        *float64
	TravelSurchargePence int64
	Tier                 Tier
	DiscountPercent      int
	DiscountPence        int64
	TotalPence           int64
	Degraded             bool // Default matrix or missing distance was used
}

// ApplyDiscount returns the discount amount rounded half up
func ApplyDiscount(basePence int64, percent int) int64 {
	if basePence <= 0 || percent <= 0 {
		return 0
	}
	return (basePence*int64(percent) + 50) / 100
}

// TotalPrice is base + surcharge - discount floored at zero
func TotalPrice(basePence, surchargePence, discountPence int64) int64 {
	total := basePence + surchargePence - discountPence
	if total < 0 {
		return 0
	}
	return total
}
