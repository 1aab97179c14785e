package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cabbooking/internal/apperror"
	"cabbooking/internal/domain"
	"cabbooking/internal/middleware"
	"cabbooking/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// NoDriverResponse is returned when a ride request finds no driver. The
// booking has been recorded as NO_DRIVER_FOUND.
type NoDriverResponse struct {
	ErrorResponse
	Booking BookingResponse `json:"booking"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	appErr := apperror.From(err)
	if appErr.Status >= http.StatusInternalServerError && !errors.Is(err, service.ErrNoDriverAvailable) {
		_ = c.Error(err)
	}
	c.JSON(appErr.Status, ErrorResponse{Error: appErr.Message, Code: appErr.Code})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

func respondBadRequest(c *gin.Context, err error) {
	respondError(c, apperror.BadRequest("invalid request body: "+err.Error(), err))
}

// callerOrAbort returns the caller set by the caller middleware. Routes that
// reach a handler without one are misconfigured, so it answers 401.
func callerOrAbort(c *gin.Context) (domain.Caller, bool) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		respondError(c, service.ErrMissingCaller)
		return domain.Caller{}, false
	}
	return caller, true
}
