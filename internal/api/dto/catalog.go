package dto

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/tillpoint/tillpoint/internal/domain/catalog"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/types"
	"github.com/tillpoint/tillpoint/internal/validator"
)

var hundred = decimal.NewFromInt(100)

type CreateProductRequest struct {
	Name        string            `json:"name" validate:"required,max=255"`
	Description string            `json:"description" validate:"omitempty,max=2000"`
	Type        types.ProductType `json:"type" validate:"required"`
	TaxRate     decimal.Decimal   `json:"tax_rate"`
}

func (r *CreateProductRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	if err := r.Type.Validate(); err != nil {
		return err
	}

	return validateTaxRate(r.TaxRate)
}

// validateTaxRate keeps a tax rate within the 0 to 100 percent range
func validateTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return ierr.NewError("tax rate must be between 0 and 100").
			WithHint("Tax rate is a percentage between 0 and 100").
			WithReportableDetails(map[string]any{
				"tax_rate": rate.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (r *CreateProductRequest) ToProduct(ctx context.Context, storeID string) *catalog.Product {
	return &catalog.Product{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PRODUCT),
		Name:        r.Name,
		Description: r.Description,
		Type:        r.Type,
		TaxRate:     r.TaxRate,
		BaseModel:   types.GetDefaultBaseModel(ctx, storeID),
	}
}

// UpdateProductRequest changes the listed fields of a product. Invoices already
// issued keep the values they were priced with.
type UpdateProductRequest struct {
	Name        *string            `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string            `json:"description,omitempty" validate:"omitempty,max=2000"`
	Type        *types.ProductType `json:"type,omitempty"`
	TaxRate     *decimal.Decimal   `json:"tax_rate,omitempty"`
	Status      *types.Status      `json:"status,omitempty"`
}

func (r *UpdateProductRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.Type != nil {
		if err := r.Type.Validate(); err != nil {
			return err
		}
	}
	if r.Status != nil {
		if err := r.Status.Validate(); err != nil {
			return err
		}
	}
	if r.TaxRate != nil {
		return validateTaxRate(*r.TaxRate)
	}
	return nil
}

// Apply copies the requested changes onto p
func (r *UpdateProductRequest) Apply(ctx context.Context, p *catalog.Product) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Type != nil {
		p.Type = *r.Type
	}
	if r.TaxRate != nil {
		p.TaxRate = *r.TaxRate
	}
	if r.Status != nil {
		p.Status = *r.Status
	}
	p.UpdatedAt = time.Now().UTC()
	p.UpdatedBy = types.GetUserID(ctx)
}

type CreateSKURequest struct {
	ProductID  string             `json:"product_id" validate:"required"`
	Code       string             `json:"code" validate:"required,max=100"`
	Price      decimal.Decimal    `json:"price"`
	Currency   string             `json:"currency,omitempty" validate:"omitempty,currency"`
	Stock      *int64             `json:"stock,omitempty" validate:"omitempty,min=0"`
	Attributes catalog.Attributes `json:"attributes,omitempty"`
}

func (r *CreateSKURequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	if r.Price.IsNegative() {
		return ierr.NewError("price must be non negative").
			WithHint("SKU price cannot be negative").
			Mark(ierr.ErrValidation)
	}

	return nil
}

func (r *CreateSKURequest) ToSKU(ctx context.Context, storeID, currency string) *catalog.SKU {
	return &catalog.SKU{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SKU),
		ProductID:  r.ProductID,
		Code:       r.Code,
		Price:      r.Price,
		Currency:   types.NormalizeCurrency(r.Currency, currency),
		Stock:      r.Stock,
		Attributes: r.Attributes,
		Version:    1,
		BaseModel:  types.GetDefaultBaseModel(ctx, storeID),
	}
}

// UpdateSKURequest changes price, stock level or attributes of a SKU. When
// Version is set the update only applies to that version of the SKU.
type UpdateSKURequest struct {
	Price      *decimal.Decimal   `json:"price,omitempty"`
	Stock      *int64             `json:"stock,omitempty" validate:"omitempty,min=0"`
	Attributes catalog.Attributes `json:"attributes,omitempty"`
	Version    *int               `json:"version,omitempty" validate:"omitempty,min=1"`
}

func (r *UpdateSKURequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	if r.Price != nil && r.Price.IsNegative() {
		return ierr.NewError("price must be non negative").
			WithHint("SKU price cannot be negative").
			Mark(ierr.ErrValidation)
	}

	return nil
}

// Apply copies the requested changes onto sku
func (r *UpdateSKURequest) Apply(sku *catalog.SKU) {
	if r.Price != nil {
		sku.Price = *r.Price
	}
	if r.Stock != nil {
		sku.Stock = lo.ToPtr(*r.Stock)
	}
	if r.Attributes != nil {
		sku.Attributes = r.Attributes
	}
}

type SKUResponse struct {
	*catalog.SKU
}

type ProductResponse struct {
	*catalog.Product
	SKUs []*SKUResponse `json:"skus,omitempty"`
}

// ListProductsResponse represents the response for listing products
type ListProductsResponse = types.ListResponse[*ProductResponse]
