package handler

import (
	"time"

	"cabbooking/internal/domain"
)

// LocationDTO is a map point on the wire.
type LocationDTO struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

func (l LocationDTO) toDomain() domain.Location {
	return domain.Location{Lat: l.Lat, Lng: l.Lng, Address: l.Address}
}

func toLocationDTO(l domain.Location) LocationDTO {
	return LocationDTO{Lat: l.Lat, Lng: l.Lng, Address: l.Address}
}

// BookingResponse is the HTTP representation of a booking.
type BookingResponse struct {
	ID            string      `json:"id"`
	RiderID       string      `json:"rider_id"`
	DriverID      string      `json:"driver_id,omitempty"`
	CabID         string      `json:"cab_id,omitempty"`
	Pickup        LocationDTO `json:"pickup"`
	Dropoff       LocationDTO `json:"dropoff"`
	CabType       string      `json:"cab_type"`
	Status        string      `json:"status"`
	EstimatedFare float64     `json:"estimated_fare"`
	ActualFare    float64     `json:"actual_fare,omitempty"`
	PaymentID     string      `json:"payment_id,omitempty"`
	DriverRating  int         `json:"driver_rating,omitempty"`
	CancelledBy   string      `json:"cancelled_by,omitempty"`
	StartTime     *time.Time  `json:"start_time,omitempty"`
	EndTime       *time.Time  `json:"end_time,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	return BookingResponse{
		ID:            b.ID,
		RiderID:       b.RiderID,
		DriverID:      b.DriverID,
		CabID:         b.CabID,
		Pickup:        toLocationDTO(b.Pickup),
		Dropoff:       toLocationDTO(b.Dropoff),
		CabType:       string(b.CabType),
		Status:        string(b.Status),
		EstimatedFare: b.EstimatedFare,
		ActualFare:    b.ActualFare,
		PaymentID:     b.PaymentID,
		DriverRating:  b.DriverRating,
		CancelledBy:   b.CancelledBy,
		StartTime:     optionalTime(b.StartTime),
		EndTime:       optionalTime(b.EndTime),
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func toBookingResponses(bs []*domain.Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, toBookingResponse(b))
	}
	return out
}

// PaymentResponse is the HTTP representation of a payment.
type PaymentResponse struct {
	ID               string     `json:"id"`
	BookingID        string     `json:"booking_id"`
	Amount           float64    `json:"amount"`
	Currency         string     `json:"currency"`
	Method           string     `json:"method"`
	Status           string     `json:"status"`
	TransactionID    string     `json:"transaction_id"`
	PayerID          string     `json:"payer_id,omitempty"`
	GatewayReference string     `json:"gateway_reference,omitempty"`
	PaymentDate      *time.Time `json:"payment_date,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func toPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:               p.ID,
		BookingID:        p.BookingID,
		Amount:           p.Amount,
		Currency:         p.Currency,
		Method:           p.Method,
		Status:           string(p.Status),
		TransactionID:    p.TransactionID,
		PayerID:          p.PayerID,
		GatewayReference: p.GatewayReference,
		PaymentDate:      optionalTime(p.PaymentDate),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// AccountResponse is the HTTP representation of an account.
type AccountResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone,omitempty"`
	Role      string          `json:"role"`
	Driver    *DriverResponse `json:"driver,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// DriverResponse is the driver-only part of an account.
type DriverResponse struct {
	LicenseNumber   string      `json:"license_number"`
	Rating          float64     `json:"rating"`
	NumberOfRatings int         `json:"number_of_ratings"`
	Available       bool        `json:"available"`
	Location        LocationDTO `json:"location"`
}

func toAccountResponse(a *domain.Account) AccountResponse {
	resp := AccountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Phone:     a.Phone,
		Role:      string(a.Role),
		CreatedAt: a.CreatedAt,
	}
	if a.Driver != nil {
		resp.Driver = &DriverResponse{
			LicenseNumber:   a.Driver.LicenseNumber,
			Rating:          a.Driver.Rating,
			NumberOfRatings: a.Driver.NumberOfRatings,
			Available:       a.Driver.Available,
			Location:        toLocationDTO(a.Driver.Location),
		}
	}
	return resp
}

// CabResponse is the HTTP representation of a cab.
type CabResponse struct {
	ID           string      `json:"id"`
	DriverID     string      `json:"driver_id"`
	LicensePlate string      `json:"license_plate"`
	Make         string      `json:"make"`
	Model        string      `json:"model"`
	CabType      string      `json:"cab_type"`
	Capacity     int         `json:"capacity"`
	Active       bool        `json:"active"`
	Location     LocationDTO `json:"location"`
}

func toCabResponse(cab *domain.Cab) CabResponse {
	return CabResponse{
		ID:           cab.ID,
		DriverID:     cab.DriverID,
		LicensePlate: cab.LicensePlate,
		Make:         cab.Make,
		Model:        cab.Model,
		CabType:      string(cab.Type),
		Capacity:     cab.Capacity,
		Active:       cab.Active,
		Location:     toLocationDTO(cab.Location),
	}
}

// AvailabilityResponse is the registry view of the calling driver.
type AvailabilityResponse struct {
	DriverID  string      `json:"driver_id"`
	Available bool        `json:"available"`
	Location  LocationDTO `json:"location"`
	CabID     string      `json:"cab_id,omitempty"`
	CabType   string      `json:"cab_type,omitempty"`
}

func toAvailabilityResponse(d *domain.DriverAvailability) AvailabilityResponse {
	return AvailabilityResponse{
		DriverID:  d.DriverID,
		Available: d.Available,
		Location:  toLocationDTO(d.Location),
		CabID:     d.CabID,
		CabType:   string(d.CabType),
	}
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
