package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tillpoint/tillpoint/internal/api/dto"
	"github.com/tillpoint/tillpoint/internal/logger"
	"github.com/tillpoint/tillpoint/internal/service"
	"github.com/tillpoint/tillpoint/internal/types"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
	logger         *logger.Logger
}

func NewInvoiceHandler(invoiceService service.InvoiceService, logger *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		logger:         logger,
	}
}

// CreateInvoice prices the requested lines, reserves stock and stores the invoice
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		_ = c.Error(bindError(err, "Invalid request format"))
		return
	}

	resp, err := h.invoiceService.CreateInvoice(c.Request.Context(), storeID(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.invoiceService.GetInvoice(c.Request.Context(), storeID(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *InvoiceHandler) GetInvoiceByNumber(c *gin.Context) {
	number, ok := requireParam(c, "number")
	if !ok {
		return
	}

	resp, err := h.invoiceService.GetInvoiceByNumber(c.Request.Context(), storeID(c), number)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	var filter types.InvoiceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.logger.Errorw("failed to bind query parameters", "error", err)
		_ = c.Error(bindError(err, "Invalid query parameters"))
		return
	}

	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}

	resp, err := h.invoiceService.ListInvoices(c.Request.Context(), storeID(c), &filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetCustomerInvoices lists every invoice of a customer, newest first
func (h *InvoiceHandler) GetCustomerInvoices(c *gin.Context) {
	customerID, ok := requireParam(c, "id")
	if !ok {
		return
	}

	invoices, err := h.invoiceService.GetInvoicesByCustomer(c.Request.Context(), storeID(c), customerID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, types.NewListResponse(invoices, len(invoices), len(invoices), 0))
}
