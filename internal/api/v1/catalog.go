package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tillpoint/tillpoint/internal/api/dto"
	"github.com/tillpoint/tillpoint/internal/logger"
	"github.com/tillpoint/tillpoint/internal/service"
	"github.com/tillpoint/tillpoint/internal/types"
)

type CatalogHandler struct {
	catalogService service.CatalogService
	logger         *logger.Logger
}

func NewCatalogHandler(catalogService service.CatalogService, logger *logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		_ = c.Error(bindError(err, "Invalid request format"))
		return
	}

	resp, err := h.catalogService.CreateProduct(c.Request.Context(), storeID(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.catalogService.GetProduct(c.Request.Context(), storeID(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) ListSKUs(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.catalogService.ListSKUs(c.Request.Context(), storeID(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, types.NewListResponse(resp, len(resp), len(resp), 0))
}

func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var filter types.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.logger.Errorw("failed to bind query parameters", "error", err)
		_ = c.Error(bindError(err, "Invalid query parameters"))
		return
	}

	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}

	resp, err := h.catalogService.ListProducts(c.Request.Context(), storeID(c), &filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		_ = c.Error(bindError(err, "Invalid request format"))
		return
	}

	resp, err := h.catalogService.UpdateProduct(c.Request.Context(), storeID(c), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteProduct(c.Request.Context(), storeID(c), id); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *CatalogHandler) CreateSKU(c *gin.Context) {
	var req dto.CreateSKURequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		_ = c.Error(bindError(err, "Invalid request format"))
		return
	}

	// the product in the path wins over the body
	if productID := c.Param("id"); productID != "" {
		req.ProductID = productID
	}

	resp, err := h.catalogService.CreateSKU(c.Request.Context(), storeID(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *CatalogHandler) GetSKU(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.catalogService.GetSKU(c.Request.Context(), storeID(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandler) UpdateSKU(c *gin.Context) {
	id, ok := requireParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateSKURequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		_ = c.Error(bindError(err, "Invalid request format"))
		return
	}

	resp, err := h.catalogService.UpdateSKU(c.Request.Context(), storeID(c), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
