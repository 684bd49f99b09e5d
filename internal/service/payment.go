package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/tillpoint/tillpoint/internal/api/dto"
	"github.com/tillpoint/tillpoint/internal/domain/invoice"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/idempotency"
	"github.com/tillpoint/tillpoint/internal/types"
)

const defaultPaymentMaxRetries = 5

type PaymentService interface {
	// RecordPaymentDelta adds a signed amount to the paid amount of an invoice
	RecordPaymentDelta(ctx context.Context, storeID, invoiceID string, delta decimal.Decimal) (*dto.InvoiceResponse, error)

	// AddPaymentEvent appends a payment to the history of an invoice. A payment
	// carrying an already recorded reference leaves the invoice unchanged.
	AddPaymentEvent(ctx context.Context, storeID, invoiceID string, req dto.AddPaymentRequest) (*dto.InvoiceResponse, error)
}

type paymentService struct {
	ServiceParams
	idempGen *idempotency.Generator
}

func NewPaymentService(params ServiceParams) PaymentService {
	return &paymentService{
		ServiceParams: params,
		idempGen:      idempotency.NewGenerator(),
	}
}

// paymentBuilder returns the event to append, or nil when the invoice already holds it
type paymentBuilder func(inv *invoice.Invoice) (*invoice.Payment, error)

func (s *paymentService) RecordPaymentDelta(ctx context.Context, storeID, invoiceID string, delta decimal.Decimal) (*dto.InvoiceResponse, error) {
	req := dto.RecordPaymentDeltaRequest{PaidAmount: delta}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	return s.reconcile(ctx, storeID, invoiceID, func(inv *invoice.Invoice) (*invoice.Payment, error) {
		amount, err := roundPayment(inv, delta)
		if err != nil {
			return nil, err
		}
		return &invoice.Payment{
			ID:        types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_PAYMENT),
			Amount:    amount,
			Date:      time.Now().UTC(),
			Method:    types.PaymentMethodAdjustment,
			CreatedBy: types.GetUserID(ctx),
		}, nil
	})
}

func (s *paymentService) AddPaymentEvent(ctx context.Context, storeID, invoiceID string, req dto.AddPaymentRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	paymentID := types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_PAYMENT)
	if req.Reference != nil {
		paymentID = s.idempGen.GenerateKey(idempotency.ScopePayment, map[string]interface{}{
			"invoice_id": invoiceID,
			"reference":  *req.Reference,
		})
	}
	date := req.GetDate()

	return s.reconcile(ctx, storeID, invoiceID, func(inv *invoice.Invoice) (*invoice.Payment, error) {
		if req.Reference != nil && lo.ContainsBy(inv.Payments, func(p invoice.Payment) bool {
			return p.ID == paymentID
		}) {
			return nil, nil
		}
		amount, err := roundPayment(inv, req.Amount)
		if err != nil {
			return nil, err
		}
		return &invoice.Payment{
			ID:        paymentID,
			Amount:    amount,
			Date:      date,
			Method:    req.Method,
			Note:      req.Note,
			CreatedBy: types.GetUserID(ctx),
		}, nil
	})
}

// roundPayment rounds amount to the invoice currency and rejects amounts
// that vanish in the rounding
func roundPayment(inv *invoice.Invoice, amount decimal.Decimal) (decimal.Decimal, error) {
	rounded := types.RoundToCurrencyPrecision(amount, inv.Currency)
	if rounded.IsZero() {
		return decimal.Zero, ierr.NewError("payment amount rounds to zero").
			WithHintf("Amount %s is below the smallest %s unit", amount.String(), inv.Currency).
			WithReportableDetails(map[string]any{
				"invoice_id": inv.ID,
				"amount":     amount.String(),
				"currency":   inv.Currency,
			}).
			Mark(ierr.ErrValidation)
	}
	return rounded, nil
}

// reconcile appends a payment and rewrites the derived payment fields with a
// version check, retrying the whole read-compute-write when another writer won
func (s *paymentService) reconcile(ctx context.Context, storeID, invoiceID string, build paymentBuilder) (*dto.InvoiceResponse, error) {
	var (
		result   *invoice.Invoice
		recorded bool
		attempt  int
	)

	operation := func() error {
		attempt++

		inv, err := s.InvoiceRepo.Get(ctx, storeID, invoiceID)
		if err != nil {
			if ierr.IsNotFound(err) {
				return backoff.Permanent(ierr.NewReferenceNotFound("invoice", invoiceID))
			}
			return backoff.Permanent(err)
		}

		payment, err := build(inv)
		if err != nil {
			return backoff.Permanent(err)
		}
		if payment == nil {
			s.Logger.Infow("payment already recorded, skipping",
				"store_id", storeID,
				"invoice_id", invoiceID,
			)
			result = inv
			return nil
		}

		update := invoice.Settle(inv.Total, inv.Payments.Append(*payment))
		if err := validatePaymentUpdate(inv, update); err != nil {
			return backoff.Permanent(err)
		}

		updated, err := s.InvoiceRepo.UpdatePayment(ctx, storeID, inv.ID, inv.Version, update)
		if err != nil {
			if ierr.IsVersionConflict(err) {
				s.Logger.Debugw("invoice changed concurrently, retrying payment",
					"store_id", storeID,
					"invoice_id", invoiceID,
					"attempt", attempt,
				)
				s.Sentry.AddBreadcrumb("payment", "invoice version conflict", map[string]interface{}{
					"invoice_id": invoiceID,
					"attempt":    attempt,
				})
				return err
			}
			if ierr.IsNotFound(err) {
				return backoff.Permanent(ierr.NewReferenceNotFound("invoice", invoiceID))
			}
			return backoff.Permanent(err)
		}

		result = updated
		recorded = true
		return nil
	}

	if err := backoff.Retry(operation, s.retryPolicy(ctx)); err != nil {
		if ierr.IsVersionConflict(err) {
			return nil, ierr.WithError(err).
				WithHint("The invoice is being updated by another request, please retry").
				WithReportableDetails(map[string]any{
					"invoice_id": invoiceID,
					"attempts":   attempt,
				}).
				Mark(ierr.ErrVersionConflict)
		}
		return nil, err
	}

	if recorded {
		s.Logger.Infow("recorded invoice payment",
			"store_id", storeID,
			"invoice_id", result.ID,
			"paid_amount", result.PaidAmount.String(),
			"due_amount", result.DueAmount.String(),
			"payment_status", result.PaymentStatus,
		)
		publishInvoiceEvent(ctx, s.EventPublisher, s.Logger, types.WebhookEventInvoicePaymentRecorded, result)
	}

	return dto.NewInvoiceResponse(result), nil
}

func (s *paymentService) retryPolicy(ctx context.Context) backoff.BackOffContext {
	maxRetries := s.Config.Invoice.PaymentMaxRetries
	if maxRetries == 0 {
		maxRetries = defaultPaymentMaxRetries
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second

	return backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx)
}

// validatePaymentUpdate rejects histories whose sum drops below zero. Paying
// more than the total is allowed and leaves nothing due.
func validatePaymentUpdate(inv *invoice.Invoice, update invoice.PaymentUpdate) error {
	if update.PaidAmount.IsNegative() {
		return ierr.NewError("paid amount cannot be negative").
			WithHintf("This payment would bring the paid amount to %s", update.PaidAmount.String()).
			WithReportableDetails(map[string]any{
				"invoice_id":  inv.ID,
				"paid_amount": update.PaidAmount.String(),
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
