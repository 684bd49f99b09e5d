package customer

import (
	"context"

	"github.com/tillpoint/tillpoint/internal/types"
)

// Repository defines the interface for customer data access
type Repository interface {
	Create(ctx context.Context, customer *Customer) error
	Get(ctx context.Context, storeID, id string) (*Customer, error)
	List(ctx context.Context, storeID string, filter *types.CustomerFilter) ([]*Customer, error)
	Count(ctx context.Context, storeID string, filter *types.CustomerFilter) (int, error)
	Update(ctx context.Context, customer *Customer) error
	Delete(ctx context.Context, storeID, id string) error
}
