package testutil

import (
	"context"
	"time"

	"github.com/tillpoint/tillpoint/internal/domain/customer"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/types"
)

// InMemoryCustomerStore implements customer.Repository
type InMemoryCustomerStore struct {
	*InMemoryStore[*customer.Customer]
}

func NewInMemoryCustomerStore() *InMemoryCustomerStore {
	return &InMemoryCustomerStore{
		InMemoryStore: NewInMemoryStore[*customer.Customer](),
	}
}

func copyCustomer(c *customer.Customer) *customer.Customer {
	if c == nil {
		return nil
	}
	out := *c
	if c.Address != nil {
		out.Address = make(types.Metadata, len(c.Address))
		for k, v := range c.Address {
			out.Address[k] = v
		}
	}
	return &out
}

func customerFilterFn(storeID string) FilterFunc[*customer.Customer] {
	return func(ctx context.Context, c *customer.Customer, filter interface{}) bool {
		if !CheckStoreScope(c.StoreID, storeID) || c.Status == types.StatusDeleted {
			return false
		}
		f, ok := filter.(*types.CustomerFilter)
		if !ok || f == nil {
			return true
		}
		if f.ExternalID != "" && c.ExternalID != f.ExternalID {
			return false
		}
		if f.Email != "" && c.Email != f.Email {
			return false
		}
		return true
	}
}

func customerSortFn(i, j *customer.Customer) bool {
	if i.CreatedAt.Equal(j.CreatedAt) {
		return i.ID > j.ID
	}
	return i.CreatedAt.After(j.CreatedAt)
}

func (s *InMemoryCustomerStore) Create(ctx context.Context, c *customer.Customer) error {
	if c == nil {
		return ierr.NewError("customer cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.InMemoryStore.Create(ctx, c.ID, copyCustomer(c))
}

func (s *InMemoryCustomerStore) Get(ctx context.Context, storeID, id string) (*customer.Customer, error) {
	c, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !CheckStoreScope(c.StoreID, storeID) || c.Status == types.StatusDeleted {
		return nil, customerNotFound(id)
	}
	return copyCustomer(c), nil
}

func (s *InMemoryCustomerStore) List(ctx context.Context, storeID string, filter *types.CustomerFilter) ([]*customer.Customer, error) {
	if filter == nil {
		filter = types.NewCustomerFilter()
	}
	items, err := s.InMemoryStore.List(ctx, filter, customerFilterFn(storeID), customerSortFn)
	if err != nil {
		return nil, err
	}
	out := make([]*customer.Customer, 0, len(items))
	for _, c := range items {
		out = append(out, copyCustomer(c))
	}
	return out, nil
}

func (s *InMemoryCustomerStore) Count(ctx context.Context, storeID string, filter *types.CustomerFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, customerFilterFn(storeID))
}

func (s *InMemoryCustomerStore) Update(ctx context.Context, c *customer.Customer) error {
	_, err := s.InMemoryStore.Mutate(ctx, c.ID, func(existing *customer.Customer) (*customer.Customer, error) {
		if !CheckStoreScope(existing.StoreID, c.StoreID) || existing.Status == types.StatusDeleted {
			return nil, customerNotFound(c.ID)
		}
		next := copyCustomer(c)
		next.Status = existing.Status
		next.CreatedAt = existing.CreatedAt
		next.CreatedBy = existing.CreatedBy
		return next, nil
	})
	if err != nil {
		return customerNotFound(c.ID)
	}
	return nil
}

func (s *InMemoryCustomerStore) Delete(ctx context.Context, storeID, id string) error {
	_, err := s.InMemoryStore.Mutate(ctx, id, func(existing *customer.Customer) (*customer.Customer, error) {
		if !CheckStoreScope(existing.StoreID, storeID) || existing.Status == types.StatusDeleted {
			return nil, customerNotFound(id)
		}
		next := copyCustomer(existing)
		next.Status = types.StatusDeleted
		next.UpdatedAt = time.Now().UTC()
		next.UpdatedBy = types.GetUserID(ctx)
		return next, nil
	})
	if err != nil {
		return customerNotFound(id)
	}
	return nil
}

func customerNotFound(id string) error {
	return ierr.NewError("customer not found").
		WithHintf("Customer %s not found", id).
		Mark(ierr.ErrNotFound)
}
