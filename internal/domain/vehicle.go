package domain

import "strings"

// VehicleSize pricing band of a vehicle
type VehicleSize string

const (
	VehicleSizeSmall  VehicleSize = "small"
	VehicleSizeMedium VehicleSize = "medium"
	VehicleSizeLarge  VehicleSize = "large"
)

// VehicleSizes all sizes in ascending order
var VehicleSizes = []VehicleSize{VehicleSizeSmall, VehicleSizeMedium, VehicleSizeLarge}

// carClassSizes maps European car segments to a pricing band
var carClassSizes = map[string]VehicleSize{
	"A": VehicleSizeSmall,
	"B": VehicleSizeSmall,
	"C": VehicleSizeMedium,
	"D": VehicleSizeMedium,
	"E": VehicleSizeLarge,
	"F": VehicleSizeLarge,
	"J": VehicleSizeLarge,
	"M": VehicleSizeLarge,
	"S": VehicleSizeLarge,
}

// IsValid reports whether s is a known size
func (s VehicleSize) IsValid() bool {
	return s == VehicleSizeSmall || s == VehicleSizeMedium || s == VehicleSizeLarge
}

// ParseVehicleSize parses a size without falling back
func ParseVehicleSize(raw string) (VehicleSize, error) {
	size := VehicleSize(strings.ToLower(strings.TrimSpace(raw)))
	if !size.IsValid() {
		return "", ErrUnknownVehicleSize
	}
	return size, nil
}

// NormalizeVehicleSize accepts a size name or a car class letter
// Anything unknown is priced as medium
func NormalizeVehicleSize(raw string) VehicleSize {
	if size, err := ParseVehicleSize(raw); err == nil {
		return size
	}
	if size, ok := carClassSizes[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return size
	}
	return VehicleSizeMedium
}

// Vehicle is a customer's saved vehicle
type Vehicle struct {
	ID           int64
	UserID       int64
	Make         string
	Model        string
	Registration string
	Size         VehicleSize
}

// NormalizeRegistration uppercases a plate and strips spaces
func NormalizeRegistration(reg string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(reg), " ", ""))
}
