package invoice

import (
	"time"

	"github.com/shopspring/decimal"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/types"
)

// Invoice is a priced, numbered sale to a customer. Line items are an immutable
// snapshot of the catalog at creation; payments are an append-only history.
type Invoice struct {
	ID             string              `db:"id" json:"id"`
	CustomerID     string              `db:"customer_id" json:"customer_id"`
	InvoiceNumber  string              `db:"invoice_number" json:"invoice_number"`
	IdempotencyKey *string             `db:"idempotency_key" json:"idempotency_key,omitempty"`
	Currency       string              `db:"currency" json:"currency"`
	InvoiceStatus  types.InvoiceStatus `db:"invoice_status" json:"invoice_status"`
	LineItems      LineItems           `db:"line_items" json:"line_items"`
	SubTotal       decimal.Decimal     `db:"subtotal" json:"subtotal"`
	TotalTax       decimal.Decimal     `db:"total_tax" json:"total_tax"`
	TotalDiscount  decimal.Decimal     `db:"total_discount" json:"total_discount"`
	ShippingAmount decimal.Decimal     `db:"shipping_amount" json:"shipping_amount"`
	Adjustments    decimal.Decimal     `db:"adjustments" json:"adjustments"`
	Total          decimal.Decimal     `db:"total" json:"total"`
	PaidAmount     decimal.Decimal     `db:"paid_amount" json:"paid_amount"`
	DueAmount      decimal.Decimal     `db:"due_amount" json:"due_amount"`
	PaymentStatus  types.PaymentStatus `db:"payment_status" json:"payment_status"`
	Payments       Payments            `db:"payments" json:"payments"`
	IssuedAt       time.Time           `db:"issued_at" json:"issued_at"`
	DueAt          *time.Time          `db:"due_at" json:"due_at,omitempty"`
	Metadata       types.Metadata      `db:"metadata" json:"metadata,omitempty"`
	Version        int                 `db:"version" json:"version"`
	types.BaseModel
}

// PaymentUpdate is the set of fields the reconciliation engine writes
type PaymentUpdate struct {
	PaidAmount    decimal.Decimal
	DueAmount     decimal.Decimal
	PaymentStatus types.PaymentStatus
	Payments      Payments
}

// Settle derives paid amount, due amount and payment status from a total and a
// payment history. The paid amount is always the sum of the history.
func Settle(total decimal.Decimal, payments Payments) PaymentUpdate {
	paid := payments.Sum()
	due := decimal.Max(decimal.Zero, total.Sub(paid))
	return PaymentUpdate{
		PaidAmount:    paid,
		DueAmount:     due,
		PaymentStatus: types.DerivePaymentStatus(paid, due),
		Payments:      payments,
	}
}

// Apply copies a payment update onto the invoice
func (i *Invoice) Apply(u PaymentUpdate) {
	i.PaidAmount = u.PaidAmount
	i.DueAmount = u.DueAmount
	i.PaymentStatus = u.PaymentStatus
	i.Payments = u.Payments
}

// Validate checks the accounting identities every stored invoice must satisfy
func (i *Invoice) Validate() error {
	expected := i.SubTotal.Add(i.TotalTax).Add(i.ShippingAmount).Add(i.Adjustments).Sub(i.TotalDiscount)
	if !expected.Equal(i.Total) {
		return newInvariantError(i.ID, "total must equal subtotal + tax + shipping + adjustments - discount")
	}

	if i.DueAmount.IsNegative() {
		return newInvariantError(i.ID, "due amount must be non negative")
	}

	// an overpaid invoice carries the excess in paid amount with nothing due
	if !i.PaidAmount.Add(i.DueAmount).Equal(decimal.Max(i.Total, i.PaidAmount)) {
		return newInvariantError(i.ID, "paid amount plus due amount must equal the larger of total and paid amount")
	}

	if !i.PaidAmount.Equal(i.Payments.Sum()) {
		return newInvariantError(i.ID, "paid amount must equal the sum of recorded payments")
	}

	if i.PaymentStatus != types.DerivePaymentStatus(i.PaidAmount, i.DueAmount) {
		return newInvariantError(i.ID, "payment status does not match paid and due amounts")
	}

	var sub, tax, disc decimal.Decimal
	for _, item := range i.LineItems {
		sub = sub.Add(item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity)).Round(types.GetCurrencyPrecision(i.Currency)))
		tax = tax.Add(item.TaxAmount)
		disc = disc.Add(item.DiscountAmount)
	}
	if !sub.Equal(i.SubTotal) || !tax.Equal(i.TotalTax) || !disc.Equal(i.TotalDiscount) {
		return newInvariantError(i.ID, "invoice totals must equal the sum of line items")
	}

	return nil
}

func newInvariantError(id, reason string) error {
	return ierr.NewInvariantViolation("invoice", id, reason)
}
