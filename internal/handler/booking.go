package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cabbooking/internal/domain"
	"cabbooking/internal/service"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	bookingService *service.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// RequestRideRequest is the HTTP request body for requesting a ride.
type RequestRideRequest struct {
	Pickup  LocationDTO `json:"pickup"`
	Dropoff LocationDTO `json:"dropoff"`
	CabType string      `json:"cab_type" binding:"required"`
}

// RateDriverRequest is the HTTP request body for rating a driver.
type RateDriverRequest struct {
	Rating int `json:"rating" binding:"required"`
}

// RequestRide handles POST /v1/bookings
func (h *BookingHandler) RequestRide(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	var req RequestRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	cabType, valid := domain.ParseCabType(req.CabType)
	if !valid {
		respondError(c, service.ErrInvalidCabType)
		return
	}

	booking, err := h.bookingService.RequestRide(c.Request.Context(), caller, service.RequestRideInput{
		Pickup:  req.Pickup.toDomain(),
		Dropoff: req.Dropoff.toDomain(),
		CabType: cabType,
	})
	if errors.Is(err, service.ErrNoDriverAvailable) && booking != nil {
		c.JSON(http.StatusServiceUnavailable, NoDriverResponse{
			ErrorResponse: ErrorResponse{Error: "no driver available", Code: "NO_DRIVER_AVAILABLE"},
			Booking:       toBookingResponse(booking),
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toBookingResponse(booking))
}

// GetBooking handles GET /v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}

// ListMyBookings handles GET /v1/bookings/mine
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	bookings, err := h.bookingService.ListMyBookings(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponses(bookings))
}

// ListBookings handles GET /v1/admin/bookings?limit=N
func (h *BookingHandler) ListBookings(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		limit = n
	}

	bookings, err := h.bookingService.ListBookings(c.Request.Context(), caller, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponses(bookings))
}

type bookingAction func(*service.BookingService, *gin.Context, domain.Caller, string) (*domain.Booking, error)

func (h *BookingHandler) transition(action bookingAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := callerOrAbort(c)
		if !ok {
			return
		}

		booking, err := action(h.bookingService, c, caller, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondJSON(c, http.StatusOK, toBookingResponse(booking))
	}
}

// Accept handles PUT /v1/bookings/:id/accept
func (h *BookingHandler) Accept() gin.HandlerFunc {
	return h.transition(func(s *service.BookingService, c *gin.Context, caller domain.Caller, id string) (*domain.Booking, error) {
		return s.DriverAccepts(c.Request.Context(), caller, id)
	})
}

// Arrive handles PUT /v1/bookings/:id/arrived
func (h *BookingHandler) Arrive() gin.HandlerFunc {
	return h.transition(func(s *service.BookingService, c *gin.Context, caller domain.Caller, id string) (*domain.Booking, error) {
		return s.DriverArrives(c.Request.Context(), caller, id)
	})
}

// Start handles PUT /v1/bookings/:id/start
func (h *BookingHandler) Start() gin.HandlerFunc {
	return h.transition(func(s *service.BookingService, c *gin.Context, caller domain.Caller, id string) (*domain.Booking, error) {
		return s.DriverStarts(c.Request.Context(), caller, id)
	})
}

// Complete handles PUT /v1/bookings/:id/complete
func (h *BookingHandler) Complete() gin.HandlerFunc {
	return h.transition(func(s *service.BookingService, c *gin.Context, caller domain.Caller, id string) (*domain.Booking, error) {
		return s.DriverCompletes(c.Request.Context(), caller, id)
	})
}

// Cancel handles PUT /v1/bookings/:id/cancel
func (h *BookingHandler) Cancel() gin.HandlerFunc {
	return h.transition(func(s *service.BookingService, c *gin.Context, caller domain.Caller, id string) (*domain.Booking, error) {
		return s.Cancel(c.Request.Context(), caller, id)
	})
}

// RateDriver handles POST /v1/bookings/:id/rating
func (h *BookingHandler) RateDriver(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	var req RateDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	booking, err := h.bookingService.RateDriver(c.Request.Context(), caller, c.Param("id"), req.Rating)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toBookingResponse(booking))
}
