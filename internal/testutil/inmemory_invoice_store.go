package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/tillpoint/tillpoint/internal/domain/invoice"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/types"
)

// InMemoryInvoiceStore implements invoice.Repository
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]
}

func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
	}
}

func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	if inv == nil {
		return nil
	}
	out := *inv
	if inv.IdempotencyKey != nil {
		out.IdempotencyKey = lo.ToPtr(*inv.IdempotencyKey)
	}
	if inv.DueAt != nil {
		out.DueAt = lo.ToPtr(*inv.DueAt)
	}
	out.LineItems = append(invoice.LineItems{}, inv.LineItems...)
	out.Payments = append(invoice.Payments{}, inv.Payments...)
	if inv.Metadata != nil {
		out.Metadata = make(types.Metadata, len(inv.Metadata))
		for k, v := range inv.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

func invoiceFilterFn(storeID string) FilterFunc[*invoice.Invoice] {
	return func(ctx context.Context, inv *invoice.Invoice, filter interface{}) bool {
		if !CheckStoreScope(inv.StoreID, storeID) {
			return false
		}
		f, ok := filter.(*types.InvoiceFilter)
		if !ok || f == nil {
			return true
		}
		if f.CustomerID != "" && inv.CustomerID != f.CustomerID {
			return false
		}
		if len(f.InvoiceStatus) > 0 && !lo.Contains(f.InvoiceStatus, inv.InvoiceStatus) {
			return false
		}
		if len(f.PaymentStatus) > 0 && !lo.Contains(f.PaymentStatus, inv.PaymentStatus) {
			return false
		}
		if len(f.InvoiceNumbers) > 0 && !lo.Contains(f.InvoiceNumbers, inv.InvoiceNumber) {
			return false
		}
		if f.TimeRangeFilter != nil {
			if f.StartTime != nil && inv.IssuedAt.Before(*f.StartTime) {
				return false
			}
			if f.EndTime != nil && !inv.IssuedAt.Before(*f.EndTime) {
				return false
			}
		}
		return true
	}
}

// newest first, ties broken by id
func invoiceSortFn(i, j *invoice.Invoice) bool {
	if i.CreatedAt.Equal(j.CreatedAt) {
		return i.ID > j.ID
	}
	return i.CreatedAt.After(j.CreatedAt)
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	if inv == nil {
		return ierr.NewError("invoice cannot be nil").
			Mark(ierr.ErrValidation)
	}

	return s.InMemoryStore.CreateIf(ctx, inv.ID, copyInvoice(inv), func(existing *invoice.Invoice) error {
		if existing.StoreID != inv.StoreID {
			return nil
		}
		if existing.InvoiceNumber == inv.InvoiceNumber {
			return ierr.NewError("invoice number already exists").
				WithHintf("Invoice number %s already exists", inv.InvoiceNumber).
				WithReportableDetails(map[string]any{
					"constraint": "uq_invoices_store_number",
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		if inv.IdempotencyKey != nil && existing.IdempotencyKey != nil && *existing.IdempotencyKey == *inv.IdempotencyKey {
			return ierr.NewError("invoice idempotency key already exists").
				WithHint("An invoice with this idempotency key already exists").
				WithReportableDetails(map[string]any{
					"constraint": "uq_invoices_store_idempotency_key",
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return nil
	})
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, storeID, id string) (*invoice.Invoice, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !CheckStoreScope(inv.StoreID, storeID) {
		return nil, invoiceNotFound(id)
	}
	return copyInvoice(inv), nil
}

func (s *InMemoryInvoiceStore) GetByInvoiceNumber(ctx context.Context, storeID, invoiceNumber string) (*invoice.Invoice, error) {
	inv, ok := s.InMemoryStore.Find(ctx, func(inv *invoice.Invoice) bool {
		return inv.StoreID == storeID && inv.InvoiceNumber == invoiceNumber
	})
	if !ok {
		return nil, invoiceNotFound(invoiceNumber)
	}
	return copyInvoice(inv), nil
}

func (s *InMemoryInvoiceStore) GetByIdempotencyKey(ctx context.Context, storeID, key string) (*invoice.Invoice, error) {
	inv, ok := s.InMemoryStore.Find(ctx, func(inv *invoice.Invoice) bool {
		return inv.StoreID == storeID && inv.IdempotencyKey != nil && *inv.IdempotencyKey == key
	})
	if !ok {
		return nil, invoiceNotFound(key)
	}
	return copyInvoice(inv), nil
}

func (s *InMemoryInvoiceStore) ListByCustomer(ctx context.Context, storeID, customerID string) ([]*invoice.Invoice, error) {
	filter := types.NewNoLimitInvoiceFilter()
	filter.CustomerID = customerID
	return s.List(ctx, storeID, filter)
}

func (s *InMemoryInvoiceStore) List(ctx context.Context, storeID string, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	if filter == nil {
		filter = types.NewInvoiceFilter()
	}
	items, err := s.InMemoryStore.List(ctx, filter, invoiceFilterFn(storeID), invoiceSortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(inv *invoice.Invoice, _ int) *invoice.Invoice {
		return copyInvoice(inv)
	}), nil
}

func (s *InMemoryInvoiceStore) Count(ctx context.Context, storeID string, filter *types.InvoiceFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, invoiceFilterFn(storeID))
}

func (s *InMemoryInvoiceStore) UpdatePayment(ctx context.Context, storeID, id string, expectedVersion int, update invoice.PaymentUpdate) (*invoice.Invoice, error) {
	updated, err := s.InMemoryStore.Mutate(ctx, id, func(inv *invoice.Invoice) (*invoice.Invoice, error) {
		if !CheckStoreScope(inv.StoreID, storeID) {
			return nil, invoiceNotFound(id)
		}
		if inv.Version != expectedVersion {
			return nil, ierr.NewError("invoice version mismatch").
				WithHint("The invoice was modified concurrently, please retry").
				WithReportableDetails(map[string]any{
					"invoice_id":       id,
					"expected_version": expectedVersion,
					"current_version":  inv.Version,
				}).
				Mark(ierr.ErrVersionConflict)
		}
		next := copyInvoice(inv)
		next.Apply(update)
		next.Payments = append(invoice.Payments{}, update.Payments...)
		next.Version++
		next.UpdatedAt = time.Now().UTC()
		next.UpdatedBy = types.GetUserID(ctx)
		return next, nil
	})
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, invoiceNotFound(id)
		}
		return nil, err
	}
	return copyInvoice(updated), nil
}

func invoiceNotFound(id string) error {
	return ierr.NewError("invoice not found").
		WithHintf("Invoice %s not found", id).
		Mark(ierr.ErrNotFound)
}

// InMemorySequenceStore implements invoice.SequenceRepository
type InMemorySequenceStore struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewInMemorySequenceStore() *InMemorySequenceStore {
	return &InMemorySequenceStore{
		counters: make(map[string]int64),
	}
}

func (s *InMemorySequenceStore) NextValue(ctx context.Context, storeID, period string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := storeID + ":" + period
	s.counters[key]++
	return s.counters[key], nil
}

// Clear resets all counters
func (s *InMemorySequenceStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters = make(map[string]int64)
}
