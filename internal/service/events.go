package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tillpoint/tillpoint/internal/domain/invoice"
	"github.com/tillpoint/tillpoint/internal/logger"
	"github.com/tillpoint/tillpoint/internal/publisher"
	"github.com/tillpoint/tillpoint/internal/types"
)

// InvoiceEventPayload is the body of invoice events
type InvoiceEventPayload struct {
	InvoiceID     string              `json:"invoice_id"`
	InvoiceNumber string              `json:"invoice_number"`
	CustomerID    string              `json:"customer_id"`
	Currency      string              `json:"currency"`
	Total         decimal.Decimal     `json:"total"`
	PaidAmount    decimal.Decimal     `json:"paid_amount"`
	DueAmount     decimal.Decimal     `json:"due_amount"`
	PaymentStatus types.PaymentStatus `json:"payment_status"`
	Version       int                 `json:"version"`
}

func newInvoiceEventPayload(inv *invoice.Invoice) InvoiceEventPayload {
	return InvoiceEventPayload{
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		CustomerID:    inv.CustomerID,
		Currency:      inv.Currency,
		Total:         inv.Total,
		PaidAmount:    inv.PaidAmount,
		DueAmount:     inv.DueAmount,
		PaymentStatus: inv.PaymentStatus,
		Version:       inv.Version,
	}
}

// publishInvoiceEvent announces a committed invoice change. Delivery is best
// effort and never fails the operation that triggered it.
func publishInvoiceEvent(ctx context.Context, pub publisher.EventPublisher, log *logger.Logger, eventName string, inv *invoice.Invoice) {
	if pub == nil {
		return
	}

	event, err := publisher.NewEvent(eventName, inv.StoreID, newInvoiceEventPayload(inv))
	if err != nil {
		log.Errorw("failed to build invoice event",
			"event_name", eventName,
			"invoice_id", inv.ID,
			"error", err,
		)
		return
	}

	if err := pub.Publish(ctx, event); err != nil {
		log.Errorw("failed to publish invoice event",
			"event_name", eventName,
			"invoice_id", inv.ID,
			"store_id", inv.StoreID,
			"error", err,
		)
	}
}

func (s *invoiceService) publishInvoiceEvent(ctx context.Context, eventName string, inv *invoice.Invoice) {
	publishInvoiceEvent(ctx, s.EventPublisher, s.Logger, eventName, inv)
}
