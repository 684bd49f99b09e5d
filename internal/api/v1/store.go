package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tillpoint/tillpoint/internal/api/dto"
	"github.com/tillpoint/tillpoint/internal/logger"
	"github.com/tillpoint/tillpoint/internal/service"
)

type StoreHandler struct {
	storeService service.StoreService
	logger       *logger.Logger
}

func NewStoreHandler(storeService service.StoreService, logger *logger.Logger) *StoreHandler {
	return &StoreHandler{
		storeService: storeService,
		logger:       logger,
	}
}

// CreateStore registers a new tenant. It is mounted outside the store scoped group.
func (h *StoreHandler) CreateStore(c *gin.Context) {
	var req dto.CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		_ = c.Error(bindError(err, "Invalid request format"))
		return
	}

	resp, err := h.storeService.CreateStore(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetCurrentStore returns the store the request is scoped to
func (h *StoreHandler) GetCurrentStore(c *gin.Context) {
	resp, err := h.storeService.GetStore(c.Request.Context(), storeID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *StoreHandler) GetStoreBySlug(c *gin.Context) {
	slug, ok := requireParam(c, "slug")
	if !ok {
		return
	}

	resp, err := h.storeService.GetStoreBySlug(c.Request.Context(), slug)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
