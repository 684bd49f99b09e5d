package dto

import (
	"time"

	"github.com/shopspring/decimal"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/types"
	"github.com/tillpoint/tillpoint/internal/validator"
)

// RecordPaymentDeltaRequest adds a signed amount to an invoice's paid amount
type RecordPaymentDeltaRequest struct {
	PaidAmount decimal.Decimal `json:"paid_amount"`
}

func (r *RecordPaymentDeltaRequest) Validate() error {
	if r.PaidAmount.IsZero() {
		return ierr.NewError("paid amount must not be zero").
			WithHint("Please provide a non zero paid amount").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// AddPaymentRequest appends one event to an invoice's payment history.
// Negative amounts record refunds or corrections.
type AddPaymentRequest struct {
	Amount    decimal.Decimal     `json:"amount"`
	Method    types.PaymentMethod `json:"method" validate:"required"`
	Note      string              `json:"note,omitempty" validate:"omitempty,max=500"`
	Date      *time.Time          `json:"date,omitempty"`
	Reference *string             `json:"reference,omitempty" validate:"omitempty,min=1,max=255"`
}

func (r *AddPaymentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}

	if r.Amount.IsZero() {
		return ierr.NewError("payment amount must not be zero").
			WithHint("Please provide a non zero payment amount").
			Mark(ierr.ErrValidation)
	}

	return r.Method.Validate()
}

// GetDate returns the payment date, now when unset
func (r *AddPaymentRequest) GetDate() time.Time {
	if r.Date == nil {
		return time.Now().UTC()
	}
	return r.Date.UTC()
}
