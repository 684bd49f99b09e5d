package testutil

import (
	"context"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/tillpoint/tillpoint/internal/domain/catalog"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/types"
)

// InMemoryCatalogStore implements catalog.Repository. Stock changes happen
// under the SKU store's write lock so concurrent decrements never oversell.
type InMemoryCatalogStore struct {
	products *InMemoryStore[*catalog.Product]
	skus     *InMemoryStore[*catalog.SKU]
}

func NewInMemoryCatalogStore() *InMemoryCatalogStore {
	return &InMemoryCatalogStore{
		products: NewInMemoryStore[*catalog.Product](),
		skus:     NewInMemoryStore[*catalog.SKU](),
	}
}

func copyProduct(p *catalog.Product) *catalog.Product {
	if p == nil {
		return nil
	}
	out := *p
	return &out
}

func copySKU(s *catalog.SKU) *catalog.SKU {
	if s == nil {
		return nil
	}
	out := *s
	if s.Stock != nil {
		out.Stock = lo.ToPtr(*s.Stock)
	}
	if s.Attributes != nil {
		out.Attributes = make(catalog.Attributes, len(s.Attributes))
		for k, v := range s.Attributes {
			out.Attributes[k] = v
		}
	}
	return &out
}

func productFilterFn(storeID string) FilterFunc[*catalog.Product] {
	return func(ctx context.Context, p *catalog.Product, filter interface{}) bool {
		if !CheckStoreScope(p.StoreID, storeID) || p.Status == types.StatusDeleted {
			return false
		}
		f, ok := filter.(*types.ProductFilter)
		if !ok || f == nil {
			return true
		}
		if len(f.ProductIDs) > 0 && !lo.Contains(f.ProductIDs, p.ID) {
			return false
		}
		if f.Status != nil && p.Status != *f.Status {
			return false
		}
		return true
	}
}

func productSortFn(i, j *catalog.Product) bool {
	if i.CreatedAt.Equal(j.CreatedAt) {
		return i.ID > j.ID
	}
	return i.CreatedAt.After(j.CreatedAt)
}

func (s *InMemoryCatalogStore) CreateProduct(ctx context.Context, p *catalog.Product) error {
	if p == nil {
		return ierr.NewError("product cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.products.Create(ctx, p.ID, copyProduct(p))
}

func (s *InMemoryCatalogStore) GetProduct(ctx context.Context, storeID, id string) (*catalog.Product, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil || !CheckStoreScope(p.StoreID, storeID) || p.Status == types.StatusDeleted {
		return nil, productNotFound(id)
	}
	return copyProduct(p), nil
}

func (s *InMemoryCatalogStore) ListProducts(ctx context.Context, storeID string, filter *types.ProductFilter) ([]*catalog.Product, error) {
	if filter == nil {
		filter = types.NewProductFilter()
	}
	items, err := s.products.List(ctx, filter, productFilterFn(storeID), productSortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(items, func(p *catalog.Product, _ int) *catalog.Product {
		return copyProduct(p)
	}), nil
}

func (s *InMemoryCatalogStore) CountProducts(ctx context.Context, storeID string, filter *types.ProductFilter) (int, error) {
	return s.products.Count(ctx, filter, productFilterFn(storeID))
}

func (s *InMemoryCatalogStore) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	_, err := s.products.Mutate(ctx, p.ID, func(existing *catalog.Product) (*catalog.Product, error) {
		if !CheckStoreScope(existing.StoreID, p.StoreID) || existing.Status == types.StatusDeleted {
			return nil, productNotFound(p.ID)
		}
		next := copyProduct(p)
		next.CreatedAt = existing.CreatedAt
		next.CreatedBy = existing.CreatedBy
		return next, nil
	})
	if err != nil {
		return productNotFound(p.ID)
	}
	return nil
}

func (s *InMemoryCatalogStore) DeleteProduct(ctx context.Context, storeID, id string) error {
	now := time.Now().UTC()
	_, err := s.products.Mutate(ctx, id, func(existing *catalog.Product) (*catalog.Product, error) {
		if !CheckStoreScope(existing.StoreID, storeID) || existing.Status == types.StatusDeleted {
			return nil, productNotFound(id)
		}
		next := copyProduct(existing)
		next.Status = types.StatusDeleted
		next.UpdatedAt = now
		next.UpdatedBy = types.GetUserID(ctx)
		return next, nil
	})
	if err != nil {
		return productNotFound(id)
	}

	skus, err := s.skus.List(ctx, nil, func(ctx context.Context, sku *catalog.SKU, _ interface{}) bool {
		return CheckStoreScope(sku.StoreID, storeID) && sku.ProductID == id && sku.Status != types.StatusDeleted
	}, nil)
	if err != nil {
		return err
	}
	for _, sku := range skus {
		if _, err := s.skus.Mutate(ctx, sku.ID, func(existing *catalog.SKU) (*catalog.SKU, error) {
			next := copySKU(existing)
			next.Status = types.StatusDeleted
			next.Version++
			next.UpdatedAt = now
			next.UpdatedBy = types.GetUserID(ctx)
			return next, nil
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *InMemoryCatalogStore) CreateSKU(ctx context.Context, sku *catalog.SKU) error {
	if sku == nil {
		return ierr.NewError("sku cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return s.skus.CreateIf(ctx, sku.ID, copySKU(sku), func(existing *catalog.SKU) error {
		if existing.StoreID == sku.StoreID && existing.Code == sku.Code {
			return ierr.NewError("sku code already exists").
				WithHintf("A SKU with code %s already exists", sku.Code).
				Mark(ierr.ErrAlreadyExists)
		}
		return nil
	})
}

func (s *InMemoryCatalogStore) GetSKU(ctx context.Context, storeID, id string) (*catalog.SKU, error) {
	sku, err := s.skus.Get(ctx, id)
	if err != nil || !CheckStoreScope(sku.StoreID, storeID) || sku.Status == types.StatusDeleted {
		return nil, skuNotFound(id)
	}
	return copySKU(sku), nil
}

func (s *InMemoryCatalogStore) GetSKUByCode(ctx context.Context, storeID, code string) (*catalog.SKU, error) {
	sku, ok := s.skus.Find(ctx, func(sku *catalog.SKU) bool {
		return sku.StoreID == storeID && sku.Code == code && sku.Status != types.StatusDeleted
	})
	if !ok {
		return nil, skuNotFound(code)
	}
	return copySKU(sku), nil
}

func (s *InMemoryCatalogStore) ListSKUsByProduct(ctx context.Context, storeID, productID string) ([]*catalog.SKU, error) {
	items, err := s.skus.List(ctx, nil, func(ctx context.Context, sku *catalog.SKU, _ interface{}) bool {
		return CheckStoreScope(sku.StoreID, storeID) && sku.ProductID == productID && sku.Status != types.StatusDeleted
	}, nil)
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Code < items[j].Code
	})
	return lo.Map(items, func(sku *catalog.SKU, _ int) *catalog.SKU {
		return copySKU(sku)
	}), nil
}

func (s *InMemoryCatalogStore) UpdateSKU(ctx context.Context, sku *catalog.SKU) (*catalog.SKU, error) {
	updated, err := s.skus.Mutate(ctx, sku.ID, func(existing *catalog.SKU) (*catalog.SKU, error) {
		if !CheckStoreScope(existing.StoreID, sku.StoreID) || existing.Status == types.StatusDeleted {
			return nil, skuNotFound(sku.ID)
		}
		if existing.Version != sku.Version {
			return nil, ierr.NewError("sku version mismatch").
				WithHintf("SKU %s was modified concurrently", existing.Code).
				Mark(ierr.ErrVersionConflict)
		}
		next := copySKU(existing)
		next.Price = sku.Price
		next.Stock = nil
		if sku.Stock != nil {
			next.Stock = lo.ToPtr(*sku.Stock)
		}
		next.Attributes = copySKU(sku).Attributes
		next.Version++
		next.UpdatedAt = time.Now().UTC()
		next.UpdatedBy = types.GetUserID(ctx)
		return next, nil
	})
	if err != nil {
		if ierr.IsVersionConflict(err) {
			return nil, err
		}
		return nil, skuNotFound(sku.ID)
	}
	return copySKU(updated), nil
}

func (s *InMemoryCatalogStore) DecrementStock(ctx context.Context, storeID, skuID string, quantity int64) (*catalog.SKU, error) {
	var current *catalog.SKU
	updated, err := s.skus.Mutate(ctx, skuID, func(sku *catalog.SKU) (*catalog.SKU, error) {
		if !CheckStoreScope(sku.StoreID, storeID) || sku.Status == types.StatusDeleted {
			return nil, skuNotFound(skuID)
		}
		if !sku.CanFulfill(quantity) {
			current = copySKU(sku)
			return nil, ierr.NewError("insufficient stock").
				WithHintf("Insufficient stock for SKU %s", sku.Code).
				WithReportableDetails(map[string]any{
					"sku_code":  sku.Code,
					"available": sku.AvailableStock(),
					"requested": quantity,
				}).
				Mark(ierr.ErrInsufficientStock)
		}
		next := copySKU(sku)
		if next.Stock != nil {
			*next.Stock -= quantity
		}
		next.Version++
		next.UpdatedAt = time.Now().UTC()
		next.UpdatedBy = types.GetUserID(ctx)
		return next, nil
	})
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, skuNotFound(skuID)
		}
		return current, err
	}
	return copySKU(updated), nil
}

func (s *InMemoryCatalogStore) IncrementStock(ctx context.Context, storeID, skuID string, quantity int64) (*catalog.SKU, error) {
	updated, err := s.skus.Mutate(ctx, skuID, func(sku *catalog.SKU) (*catalog.SKU, error) {
		if !CheckStoreScope(sku.StoreID, storeID) {
			return nil, skuNotFound(skuID)
		}
		next := copySKU(sku)
		if next.Stock != nil {
			*next.Stock += quantity
		}
		next.Version++
		next.UpdatedAt = time.Now().UTC()
		next.UpdatedBy = types.GetUserID(ctx)
		return next, nil
	})
	if err != nil {
		return nil, skuNotFound(skuID)
	}
	return copySKU(updated), nil
}

// RemoveProductRow drops a product outright and leaves its SKUs dangling
func (s *InMemoryCatalogStore) RemoveProductRow(ctx context.Context, id string) error {
	return s.products.Delete(ctx, id)
}

// Clear removes all products and SKUs
func (s *InMemoryCatalogStore) Clear() {
	s.products.Clear()
	s.skus.Clear()
}

func productNotFound(id string) error {
	return ierr.NewError("product not found").
		WithHintf("Product %s not found", id).
		Mark(ierr.ErrNotFound)
}

func skuNotFound(id string) error {
	return ierr.NewError("sku not found").
		WithHintf("SKU %s not found", id).
		Mark(ierr.ErrNotFound)
}
