package postgres

import (
	"context"

	"github.com/tillpoint/tillpoint/internal/domain/store"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/logger"
	"github.com/tillpoint/tillpoint/internal/postgres"
)

type storeRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewStoreRepository creates a new instance of store repository
func NewStoreRepository(db *postgres.DB, logger *logger.Logger) store.Repository {
	return &storeRepository{
		db:     db,
		logger: logger,
	}
}

func (r *storeRepository) Create(ctx context.Context, s *store.Store) error {
	span := StartRepositorySpan(ctx, "store", "create", map[string]interface{}{"store_id": s.ID})
	defer FinishSpan(span)

	query := `
		INSERT INTO stores (id, name, slug, currency, timezone, created_at, updated_at)
		VALUES (:id, :name, :slug, :currency, :timezone, :created_at, :updated_at)`

	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		SetSpanError(span, err)
		if _, ok := postgres.IsUniqueViolation(err); ok {
			return ierr.WithError(err).
				WithHintf("A store with slug %s already exists", s.Slug).
				WithReportableDetails(map[string]any{"slug": s.Slug}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create store").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *storeRepository) Get(ctx context.Context, id string) (*store.Store, error) {
	return r.getBy(ctx, "id", id)
}

func (r *storeRepository) GetBySlug(ctx context.Context, slug string) (*store.Store, error) {
	return r.getBy(ctx, "slug", slug)
}

func (r *storeRepository) getBy(ctx context.Context, column, value string) (*store.Store, error) {
	span := StartRepositorySpan(ctx, "store", "get_by_"+column, map[string]interface{}{column: value})
	defer FinishSpan(span)

	// column is never caller supplied
	query := `SELECT * FROM stores WHERE ` + column + ` = :value`

	var s store.Store
	if err := r.db.NamedGetContext(ctx, &s, query, map[string]interface{}{"value": value}); err != nil {
		if postgres.IsNoRows(err) {
			return nil, ierr.WithError(err).
				WithHintf("Store %s not found", value).
				Mark(ierr.ErrNotFound)
		}
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to get store").
			Mark(ierr.ErrDatabase)
	}
	return &s, nil
}
