package service

import (
	"math"

	"cabbooking/internal/domain"
)

const (
	baseFare         = 10.0
	earthRadiusKm    = 6371.0
	defaultRatePerKm = 2.0
)

// ratePerKm is the per-class distance multiplier. Unknown classes pay the default rate.
var ratePerKm = map[domain.CabType]float64{
	domain.CabTypeHatchback: defaultRatePerKm,
	domain.CabTypeSedan:     2.5,
	domain.CabTypeSUV:       3.5,
	domain.CabTypeLuxury:    5.0,
}

// RatePerKm returns the distance rate for a cab class.
func RatePerKm(cabType domain.CabType) float64 {
	if rate, ok := ratePerKm[cabType]; ok {
		return rate
	}
	return defaultRatePerKm
}

// EstimateFare returns baseFare + ratePerKm(cabType) * great-circle distance.
func EstimateFare(pickup, dropoff domain.Location, cabType domain.CabType) float64 {
	return baseFare + RatePerKm(cabType)*DistanceKm(pickup, dropoff)
}

// DistanceKm returns the haversine distance between two points in kilometers.
func DistanceKm(a, b domain.Location) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// FarePolicy decides what a completed ride costs.
type FarePolicy interface {
	ActualFare(booking *domain.Booking) float64
}

// EstimateFarePolicy charges exactly the estimate quoted at request time.
type EstimateFarePolicy struct{}

func (EstimateFarePolicy) ActualFare(booking *domain.Booking) float64 {
	return booking.EstimatedFare
}

func isValidLocation(loc domain.Location) bool {
	return loc.Lat >= -90 && loc.Lat <= 90 && loc.Lng >= -180 && loc.Lng <= 180 &&
		!math.IsNaN(loc.Lat) && !math.IsNaN(loc.Lng)
}
