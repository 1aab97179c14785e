package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cabbooking/internal/domain"
	"cabbooking/internal/service"
)

// CabHandler handles HTTP requests for cabs.
type CabHandler struct {
	cabService *service.CabService
}

// NewCabHandler creates a new CabHandler.
func NewCabHandler(cabService *service.CabService) *CabHandler {
	return &CabHandler{cabService: cabService}
}

// CabRequest is the HTTP request body for registering or updating a cab.
// On update, empty fields are left unchanged.
type CabRequest struct {
	LicensePlate string `json:"license_plate"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	CabType      string `json:"cab_type"`
	Capacity     int    `json:"capacity"`
}

func (r CabRequest) cabType() (domain.CabType, bool) {
	if r.CabType == "" {
		return "", true
	}
	return domain.ParseCabType(r.CabType)
}

// RegisterCab handles POST /v1/cabs
func (h *CabHandler) RegisterCab(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	var req CabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	cabType, valid := req.cabType()
	if !valid || cabType == "" {
		respondError(c, service.ErrInvalidCabType)
		return
	}

	cab, err := h.cabService.RegisterCab(c.Request.Context(), caller, service.RegisterCabInput{
		LicensePlate: req.LicensePlate,
		Make:         req.Make,
		Model:        req.Model,
		CabType:      cabType,
		Capacity:     req.Capacity,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toCabResponse(cab))
}

// UpdateCab handles PUT /v1/cabs/:id
func (h *CabHandler) UpdateCab(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	var req CabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	cabType, valid := req.cabType()
	if !valid {
		respondError(c, service.ErrInvalidCabType)
		return
	}

	cab, err := h.cabService.UpdateCab(c.Request.Context(), caller, c.Param("id"), service.UpdateCabInput{
		LicensePlate: req.LicensePlate,
		Make:         req.Make,
		Model:        req.Model,
		CabType:      cabType,
		Capacity:     req.Capacity,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toCabResponse(cab))
}

// DeactivateCab handles PUT /v1/cabs/:id/deactivate
func (h *CabHandler) DeactivateCab(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	cab, err := h.cabService.DeactivateCab(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toCabResponse(cab))
}

// GetCab handles GET /v1/cabs/:id
func (h *CabHandler) GetCab(c *gin.Context) {
	cab, err := h.cabService.GetCab(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toCabResponse(cab))
}

// ListActiveCabs handles GET /v1/cabs
func (h *CabHandler) ListActiveCabs(c *gin.Context) {
	cabs, err := h.cabService.ListActiveCabs(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]CabResponse, 0, len(cabs))
	for _, cab := range cabs {
		out = append(out, toCabResponse(cab))
	}
	respondJSON(c, http.StatusOK, out)
}
