package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cabbooking/internal/service"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CallbackRequest is the status report posted by the payment gateway.
type CallbackRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
	Status        string `json:"status" binding:"required"`
	PayerID       string `json:"payer_id,omitempty"`
}

// InitiateResponse tells the payer where to continue the charge.
type InitiateResponse struct {
	Payment     PaymentResponse `json:"payment"`
	RedirectURL string          `json:"redirect_url"`
}

// GetPayment handles GET /v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// Initiate handles POST /v1/payments/:id/initiate
func (h *PaymentHandler) Initiate(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	started, err := h.paymentService.InitiateWithGateway(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, InitiateResponse{
		Payment:     toPaymentResponse(started.Payment),
		RedirectURL: started.RedirectURL,
	})
}

// Callback handles POST /v1/payments/callback
func (h *PaymentHandler) Callback(c *gin.Context) {
	var req CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	payment, err := h.paymentService.HandleCallback(c.Request.Context(), service.CallbackInput{
		TransactionID: req.TransactionID,
		Status:        req.Status,
		PayerID:       req.PayerID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// Refund handles POST /v1/payments/:id/refund
func (h *PaymentHandler) Refund(c *gin.Context) {
	payment, err := h.paymentService.InitiateRefund(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}
