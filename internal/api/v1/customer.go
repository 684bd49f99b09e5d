package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tillpoint/tillpoint/internal/api/dto"
	"github.com/tillpoint/tillpoint/internal/logger"
	"github.com/tillpoint/tillpoint/internal/service"
	"github.com/tillpoint/tillpoint/internal/types"
)

type CustomerHandler struct {
	customerService service.CustomerService
	logger          *logger.Logger
}

func NewCustomerHandler(customerService service.CustomerService, logger *logger.Logger) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		logger:          logger,
	}
}

func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req dto.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		_ = c.Error(bindError(err, "Invalid request format"))
		return
	}

	resp, err := h.customerService.CreateCustomer(c.Request.Context(), storeID(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.customerService.GetCustomer(c.Request.Context(), storeID(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	var filter types.CustomerFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.logger.Errorw("failed to bind query parameters", "error", err)
		_ = c.Error(bindError(err, "Invalid query parameters"))
		return
	}

	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}

	resp, err := h.customerService.ListCustomers(c.Request.Context(), storeID(c), &filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		_ = c.Error(bindError(err, "Invalid request format"))
		return
	}

	resp, err := h.customerService.UpdateCustomer(c.Request.Context(), storeID(c), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}

	if err := h.customerService.DeleteCustomer(c.Request.Context(), storeID(c), id); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
