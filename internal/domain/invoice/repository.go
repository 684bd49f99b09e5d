package invoice

import (
	"context"

	"github.com/tillpoint/tillpoint/internal/types"
)

// Repository defines the interface for invoice persistence operations.
// All lookups are scoped to a store.
type Repository interface {
	// Create persists a new invoice. It fails with ErrAlreadyExists when the
	// invoice number or idempotency key is already used in the store.
	Create(ctx context.Context, invoice *Invoice) error

	// Get retrieves an invoice by ID
	Get(ctx context.Context, storeID, id string) (*Invoice, error)

	// GetByInvoiceNumber retrieves an invoice by its store-unique number
	GetByInvoiceNumber(ctx context.Context, storeID, invoiceNumber string) (*Invoice, error)

	// GetByIdempotencyKey retrieves the invoice created with the given key
	GetByIdempotencyKey(ctx context.Context, storeID, key string) (*Invoice, error)

	// ListByCustomer returns a customer's invoices newest first
	ListByCustomer(ctx context.Context, storeID, customerID string) ([]*Invoice, error)

	// List retrieves invoices based on filter criteria
	List(ctx context.Context, storeID string, filter *types.InvoiceFilter) ([]*Invoice, error)

	// Count returns the total count of invoices based on filter criteria
	Count(ctx context.Context, storeID string, filter *types.InvoiceFilter) (int, error)

	// UpdatePayment writes the payment fields when the stored version still
	// equals expectedVersion and bumps the version. A moved version fails with
	// ErrVersionConflict.
	UpdatePayment(ctx context.Context, storeID, id string, expectedVersion int, update PaymentUpdate) (*Invoice, error)
}

// SequenceRepository hands out invoice number counters
type SequenceRepository interface {
	// NextValue atomically increments and returns the counter of a store and period
	NextValue(ctx context.Context, storeID, period string) (int64, error)
}
