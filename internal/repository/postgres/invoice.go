package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/tillpoint/tillpoint/internal/domain/invoice"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/logger"
	"github.com/tillpoint/tillpoint/internal/postgres"
	"github.com/tillpoint/tillpoint/internal/types"
)

type invoiceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewInvoiceRepository creates a new instance of invoice repository
func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{
		db:     db,
		logger: logger,
	}
}

var invoiceSortColumns = map[string]string{
	"created_at": "created_at",
	"issued_at":  "issued_at",
	"due_at":     "due_at",
	"total":      "total",
}

func (r *invoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	span := StartRepositorySpan(ctx, "invoice", "create", map[string]interface{}{
		"invoice_id":     inv.ID,
		"invoice_number": inv.InvoiceNumber,
	})
	defer FinishSpan(span)

	query := `
		INSERT INTO invoices (
			id, store_id, customer_id, invoice_number, idempotency_key, currency, invoice_status,
			line_items, subtotal, total_tax, total_discount, shipping_amount, adjustments, total,
			paid_amount, due_amount, payment_status, payments, issued_at, due_at, metadata, version,
			status, created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :store_id, :customer_id, :invoice_number, :idempotency_key, :currency, :invoice_status,
			:line_items, :subtotal, :total_tax, :total_discount, :shipping_amount, :adjustments, :total,
			:paid_amount, :due_amount, :payment_status, :payments, :issued_at, :due_at, :metadata, :version,
			:status, :created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating invoice",
		"invoice_id", inv.ID,
		"store_id", inv.StoreID,
		"invoice_number", inv.InvoiceNumber,
	)

	if _, err := r.db.NamedExecContext(ctx, query, inv); err != nil {
		SetSpanError(span, err)
		if constraint, ok := postgres.IsUniqueViolation(err); ok {
			return ierr.WithError(err).
				WithHint("An invoice with this number or idempotency key already exists").
				WithReportableDetails(map[string]any{
					"invoice_number": inv.InvoiceNumber,
					"constraint":     constraint,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create invoice").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, storeID, id string) (*invoice.Invoice, error) {
	return r.getBy(ctx, "id", storeID, id)
}

func (r *invoiceRepository) GetByInvoiceNumber(ctx context.Context, storeID, invoiceNumber string) (*invoice.Invoice, error) {
	return r.getBy(ctx, "invoice_number", storeID, invoiceNumber)
}

func (r *invoiceRepository) GetByIdempotencyKey(ctx context.Context, storeID, key string) (*invoice.Invoice, error) {
	return r.getBy(ctx, "idempotency_key", storeID, key)
}

func (r *invoiceRepository) getBy(ctx context.Context, column, storeID, value string) (*invoice.Invoice, error) {
	span := StartRepositorySpan(ctx, "invoice", "get_by_"+column, map[string]interface{}{column: value})
	defer FinishSpan(span)

	query := `SELECT * FROM invoices WHERE ` + column + ` = :value AND store_id = :store_id`

	var inv invoice.Invoice
	err := r.db.NamedGetContext(ctx, &inv, query, map[string]interface{}{
		"value":    value,
		"store_id": storeID,
	})
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, ierr.WithError(err).
				WithHintf("Invoice %s not found", value).
				Mark(ierr.ErrNotFound)
		}
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to get invoice").
			Mark(ierr.ErrDatabase)
	}
	return &inv, nil
}

func (r *invoiceRepository) ListByCustomer(ctx context.Context, storeID, customerID string) ([]*invoice.Invoice, error) {
	span := StartRepositorySpan(ctx, "invoice", "list_by_customer", map[string]interface{}{"customer_id": customerID})
	defer FinishSpan(span)

	query := `
		SELECT * FROM invoices
		WHERE store_id = :store_id AND customer_id = :customer_id
		ORDER BY created_at DESC, id DESC`

	var invoices []*invoice.Invoice
	err := r.db.NamedSelectContext(ctx, &invoices, query, map[string]interface{}{
		"store_id":    storeID,
		"customer_id": customerID,
	})
	if err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to list customer invoices").
			Mark(ierr.ErrDatabase)
	}
	return invoices, nil
}

func (r *invoiceRepository) List(ctx context.Context, storeID string, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	span := StartRepositorySpan(ctx, "invoice", "list", map[string]interface{}{"store_id": storeID})
	defer FinishSpan(span)

	if filter == nil {
		filter = types.NewInvoiceFilter()
	}

	where, params := invoiceWhere(storeID, filter)
	sortColumn := lo.ValueOr(invoiceSortColumns, filter.GetSort(), "created_at")
	query := fmt.Sprintf(`SELECT * FROM invoices WHERE %s ORDER BY %s %s, id %s`,
		where, sortColumn, sqlOrder(filter.GetOrder()), sqlOrder(filter.GetOrder()))
	if !filter.IsUnlimited() {
		query += ` LIMIT :limit OFFSET :offset`
		params["limit"] = filter.GetLimit()
		params["offset"] = filter.GetOffset()
	}

	var invoices []*invoice.Invoice
	if err := r.db.NamedSelectContext(ctx, &invoices, query, params); err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to list invoices").
			Mark(ierr.ErrDatabase)
	}
	return invoices, nil
}

func (r *invoiceRepository) Count(ctx context.Context, storeID string, filter *types.InvoiceFilter) (int, error) {
	if filter == nil {
		filter = types.NewInvoiceFilter()
	}

	where, params := invoiceWhere(storeID, filter)

	var count int
	if err := r.db.NamedGetContext(ctx, &count, `SELECT COUNT(*) FROM invoices WHERE `+where, params); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count invoices").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func invoiceWhere(storeID string, filter *types.InvoiceFilter) (string, map[string]interface{}) {
	where := `store_id = :store_id`
	params := map[string]interface{}{"store_id": storeID}

	if filter.CustomerID != "" {
		where += ` AND customer_id = :customer_id`
		params["customer_id"] = filter.CustomerID
	}
	if len(filter.InvoiceStatus) > 0 {
		where += ` AND invoice_status = ANY(:invoice_status)`
		params["invoice_status"] = stringArray(filter.InvoiceStatus)
	}
	if len(filter.PaymentStatus) > 0 {
		where += ` AND payment_status = ANY(:payment_status)`
		params["payment_status"] = stringArray(filter.PaymentStatus)
	}
	if len(filter.InvoiceNumbers) > 0 {
		where += ` AND invoice_number = ANY(:invoice_numbers)`
		params["invoice_numbers"] = stringArray(filter.InvoiceNumbers)
	}
	if filter.TimeRangeFilter != nil {
		if filter.StartTime != nil {
			where += ` AND issued_at >= :start_time`
			params["start_time"] = *filter.StartTime
		}
		if filter.EndTime != nil {
			where += ` AND issued_at < :end_time`
			params["end_time"] = *filter.EndTime
		}
	}
	return where, params
}

func (r *invoiceRepository) UpdatePayment(ctx context.Context, storeID, id string, expectedVersion int, update invoice.PaymentUpdate) (*invoice.Invoice, error) {
	span := StartRepositorySpan(ctx, "invoice", "update_payment", map[string]interface{}{
		"invoice_id": id,
		"version":    expectedVersion,
	})
	defer FinishSpan(span)

	query := `
		UPDATE invoices
		SET paid_amount = :paid_amount,
			due_amount = :due_amount,
			payment_status = :payment_status,
			payments = :payments,
			version = version + 1,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
		AND store_id = :store_id
		AND version = :version
		RETURNING *`

	var inv invoice.Invoice
	err := r.db.NamedGetContext(ctx, &inv, query, map[string]interface{}{
		"paid_amount":    update.PaidAmount,
		"due_amount":     update.DueAmount,
		"payment_status": update.PaymentStatus,
		"payments":       update.Payments,
		"updated_at":     time.Now().UTC(),
		"updated_by":     types.GetUserID(ctx),
		"id":             id,
		"store_id":       storeID,
		"version":        expectedVersion,
	})
	if err == nil {
		return &inv, nil
	}
	if !postgres.IsNoRows(err) {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to update invoice payment").
			Mark(ierr.ErrDatabase)
	}

	// no row matched: the invoice is missing or its version moved
	if _, getErr := r.Get(ctx, storeID, id); getErr != nil {
		return nil, getErr
	}
	return nil, ierr.NewError("invoice version mismatch").
		WithHintf("Invoice %s was modified concurrently", id).
		WithReportableDetails(map[string]any{
			"id":               id,
			"expected_version": expectedVersion,
		}).
		Mark(ierr.ErrVersionConflict)
}
