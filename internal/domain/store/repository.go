package store

import "context"

// Repository defines the interface for store persistence. Stores are never deleted.
type Repository interface {
	Create(ctx context.Context, store *Store) error
	Get(ctx context.Context, id string) (*Store, error)
	GetBySlug(ctx context.Context, slug string) (*Store, error)
}
