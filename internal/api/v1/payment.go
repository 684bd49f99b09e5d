package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tillpoint/tillpoint/internal/api/dto"
	"github.com/tillpoint/tillpoint/internal/logger"
	"github.com/tillpoint/tillpoint/internal/service"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	logger         *logger.Logger
}

func NewPaymentHandler(paymentService service.PaymentService, logger *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// RecordPaymentDelta adds a signed amount to what has been paid on an invoice
func (h *PaymentHandler) RecordPaymentDelta(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}

	var req dto.RecordPaymentDeltaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		_ = c.Error(bindError(err, "Invalid request format"))
		return
	}

	resp, err := h.paymentService.RecordPaymentDelta(c.Request.Context(), storeID(c), id, req.PaidAmount)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// AddPayment appends a payment event to an invoice
func (h *PaymentHandler) AddPayment(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}

	var req dto.AddPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		_ = c.Error(bindError(err, "Invalid request format"))
		return
	}

	resp, err := h.paymentService.AddPaymentEvent(c.Request.Context(), storeID(c), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
