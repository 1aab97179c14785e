package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cabbooking/internal/service"
)

// DriverHandler handles the driver's side of the availability registry.
type DriverHandler struct {
	cabService *service.CabService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(cabService *service.CabService) *DriverHandler {
	return &DriverHandler{cabService: cabService}
}

// UpdateLocationRequest is the HTTP request body for a location update.
type UpdateLocationRequest struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// SetAvailabilityRequest is the HTTP request body for going on or off duty.
type SetAvailabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

// UpdateLocation handles PUT /v1/drivers/me/location
func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	loc := LocationDTO{Lat: req.Lat, Lng: req.Lng, Address: req.Address}.toDomain()
	avail, err := h.cabService.UpdateDriverLocation(c.Request.Context(), caller, loc)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toAvailabilityResponse(avail))
}

// SetAvailability handles PUT /v1/drivers/me/availability
func (h *DriverHandler) SetAvailability(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	var req SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	avail, err := h.cabService.SetDriverAvailability(c.Request.Context(), caller, *req.Available)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toAvailabilityResponse(avail))
}
