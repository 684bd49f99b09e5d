package dto

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tillpoint/tillpoint/internal/domain/invoice"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/types"
	"github.com/tillpoint/tillpoint/internal/validator"
)

// CreateInvoiceRequest prices a set of SKUs for a customer
type CreateInvoiceRequest struct {
	CustomerID     string                     `json:"customer_id" validate:"required"`
	Items          []CreateInvoiceItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAmount *decimal.Decimal           `json:"shipping_amount,omitempty"`
	Adjustments    *decimal.Decimal           `json:"adjustments,omitempty"`
	Currency       string                     `json:"currency,omitempty" validate:"omitempty,currency"`
	InvoiceStatus  *types.InvoiceStatus       `json:"invoice_status,omitempty"`
	PaidAmount     *decimal.Decimal           `json:"paid_amount,omitempty"`
	PaymentMethod  *types.PaymentMethod       `json:"payment_method,omitempty"`
	DueAt          *time.Time                 `json:"due_at,omitempty"`
	IdempotencyKey *string                    `json:"idempotency_key,omitempty" validate:"omitempty,min=1,max=255"`
	Metadata       types.Metadata             `json:"metadata,omitempty"`
}

// CreateInvoiceItemRequest is one requested SKU of an invoice
type CreateInvoiceItemRequest struct {
	SKUID    string           `json:"sku_id" validate:"required"`
	Quantity int64            `json:"quantity" validate:"required,gt=0"`
	Discount *decimal.Decimal `json:"discount,omitempty"`
}

func (r *CreateInvoiceRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	for i, item := range r.Items {
		if item.Discount != nil && item.Discount.IsNegative() {
			return ierr.NewError("discount must be non negative").
				WithHint("Line item discount cannot be negative").
				WithReportableDetails(map[string]any{
					"index":    i,
					"sku_id":   item.SKUID,
					"discount": item.Discount.String(),
				}).
				Mark(ierr.ErrValidation)
		}
	}

	if r.ShippingAmount != nil && r.ShippingAmount.IsNegative() {
		return ierr.NewError("shipping amount must be non negative").
			WithHint("Shipping amount cannot be negative").
			Mark(ierr.ErrValidation)
	}

	if r.PaidAmount != nil && r.PaidAmount.IsNegative() {
		return ierr.NewError("paid amount must be non negative").
			WithHint("Paid amount cannot be negative").
			Mark(ierr.ErrValidation)
	}

	if r.InvoiceStatus != nil {
		if err := r.InvoiceStatus.Validate(); err != nil {
			return err
		}
	}

	if r.PaymentMethod != nil {
		if err := r.PaymentMethod.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// GetShippingAmount returns the shipping amount or zero
func (r *CreateInvoiceRequest) GetShippingAmount() decimal.Decimal {
	if r.ShippingAmount == nil {
		return decimal.Zero
	}
	return *r.ShippingAmount
}

// GetAdjustments returns the adjustments or zero
func (r *CreateInvoiceRequest) GetAdjustments() decimal.Decimal {
	if r.Adjustments == nil {
		return decimal.Zero
	}
	return *r.Adjustments
}

// GetPaidAmount returns the initial paid amount or zero
func (r *CreateInvoiceRequest) GetPaidAmount() decimal.Decimal {
	if r.PaidAmount == nil {
		return decimal.Zero
	}
	return *r.PaidAmount
}

// GetPaymentMethod returns the initial payment method, cash when unset
func (r *CreateInvoiceRequest) GetPaymentMethod() types.PaymentMethod {
	if r.PaymentMethod == nil {
		return types.PaymentMethodCash
	}
	return *r.PaymentMethod
}

// GetInvoiceStatus returns the requested lifecycle status, draft when unset
func (r *CreateInvoiceRequest) GetInvoiceStatus() types.InvoiceStatus {
	if r.InvoiceStatus == nil {
		return types.InvoiceStatusDraft
	}
	return *r.InvoiceStatus
}

// ToInvoice builds the invoice shell; totals and line items are filled in by the pricing engine
func (r *CreateInvoiceRequest) ToInvoice(ctx context.Context, storeID, currency string) *invoice.Invoice {
	return &invoice.Invoice{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		CustomerID:     r.CustomerID,
		IdempotencyKey: r.IdempotencyKey,
		Currency:       currency,
		InvoiceStatus:  r.GetInvoiceStatus(),
		ShippingAmount: r.GetShippingAmount(),
		Adjustments:    r.GetAdjustments(),
		Payments:       invoice.Payments{},
		IssuedAt:       time.Now().UTC(),
		DueAt:          r.DueAt,
		Metadata:       r.Metadata,
		Version:        1,
		BaseModel:      types.GetDefaultBaseModel(ctx, storeID),
	}
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	*invoice.Invoice
}

func NewInvoiceResponse(inv *invoice.Invoice) *InvoiceResponse {
	if inv == nil {
		return nil
	}
	return &InvoiceResponse{Invoice: inv}
}

// ListInvoicesResponse represents the response for listing invoices
type ListInvoicesResponse = types.ListResponse[*InvoiceResponse]
