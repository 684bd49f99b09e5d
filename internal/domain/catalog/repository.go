package catalog

import (
	"context"

	"github.com/tillpoint/tillpoint/internal/types"
)

// Repository is the catalog store. Every lookup is scoped to a store; an entity
// that exists under another store or was deleted is reported as not found.
type Repository interface {
	CreateProduct(ctx context.Context, product *Product) error
	GetProduct(ctx context.Context, storeID, id string) (*Product, error)
	ListProducts(ctx context.Context, storeID string, filter *types.ProductFilter) ([]*Product, error)
	CountProducts(ctx context.Context, storeID string, filter *types.ProductFilter) (int, error)
	UpdateProduct(ctx context.Context, product *Product) error

	// DeleteProduct marks a product and all of its SKUs deleted
	DeleteProduct(ctx context.Context, storeID, id string) error

	CreateSKU(ctx context.Context, sku *SKU) error
	GetSKU(ctx context.Context, storeID, id string) (*SKU, error)
	GetSKUByCode(ctx context.Context, storeID, code string) (*SKU, error)
	ListSKUsByProduct(ctx context.Context, storeID, productID string) ([]*SKU, error)

	// UpdateSKU writes price, stock and attributes when the stored version
	// still equals sku.Version. It fails with ErrVersionConflict otherwise.
	UpdateSKU(ctx context.Context, sku *SKU) (*SKU, error)

	// DecrementStock atomically removes quantity units from a SKU when stock is
	// untracked or at least quantity. It fails with ErrInsufficientStock
	// otherwise and never leaves stock negative.
	DecrementStock(ctx context.Context, storeID, skuID string, quantity int64) (*SKU, error)

	// IncrementStock returns quantity units to a tracked SKU. Untracked SKUs are unchanged.
	IncrementStock(ctx context.Context, storeID, skuID string, quantity int64) (*SKU, error)
}
