package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cabbooking/internal/domain"
	"cabbooking/internal/middleware"
	"cabbooking/internal/service"
)

// AccountHandler handles HTTP requests for accounts.
type AccountHandler struct {
	accountService *service.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// RegisterRequest is the HTTP request body for creating an account.
type RegisterRequest struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required"`
	Phone         string `json:"phone,omitempty"`
	Role          string `json:"role" binding:"required"`
	LicenseNumber string `json:"license_number,omitempty"`
}

// Register handles POST /v1/accounts. Only admins may create admin accounts.
func (h *AccountHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	role := domain.Role(strings.ToUpper(strings.TrimSpace(req.Role)))
	if role == domain.RoleAdmin {
		if caller, ok := middleware.CallerFrom(c); !ok || !caller.IsAdmin() {
			respondError(c, service.ErrUnauthorized)
			return
		}
	}

	account, err := h.accountService.Register(c.Request.Context(), service.RegisterInput{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Role:          role,
		LicenseNumber: req.LicenseNumber,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, toAccountResponse(account))
}

// GetAccount handles GET /v1/accounts/:id. Callers may read their own
// account; admins may read any.
func (h *AccountHandler) GetAccount(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if !caller.IsAdmin() && caller.ID != id {
		respondError(c, service.ErrUnauthorized)
		return
	}

	account, err := h.accountService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toAccountResponse(account))
}

// ListDrivers handles GET /v1/admin/drivers
func (h *AccountHandler) ListDrivers(c *gin.Context) {
	drivers, err := h.accountService.ListDrivers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]AccountResponse, 0, len(drivers))
	for _, d := range drivers {
		out = append(out, toAccountResponse(d))
	}
	respondJSON(c, http.StatusOK, out)
}
