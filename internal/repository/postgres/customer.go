package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/tillpoint/tillpoint/internal/domain/customer"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/logger"
	"github.com/tillpoint/tillpoint/internal/postgres"
	"github.com/tillpoint/tillpoint/internal/types"
)

type customerRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewCustomerRepository creates a new instance of customer repository
func NewCustomerRepository(db *postgres.DB, logger *logger.Logger) customer.Repository {
	return &customerRepository{
		db:     db,
		logger: logger,
	}
}

var customerSortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"name":       "name",
}

func (r *customerRepository) Create(ctx context.Context, c *customer.Customer) error {
	span := StartRepositorySpan(ctx, "customer", "create", map[string]interface{}{"customer_id": c.ID})
	defer FinishSpan(span)

	query := `
		INSERT INTO customers (
			id, store_id, external_id, name, email, phone, address, status,
			created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :store_id, :external_id, :name, :email, :phone, :address, :status,
			:created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating customer",
		"customer_id", c.ID,
		"store_id", c.StoreID,
	)

	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		SetSpanError(span, err)
		return ierr.WithError(err).
			WithHint("Failed to create customer").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *customerRepository) Get(ctx context.Context, storeID, id string) (*customer.Customer, error) {
	span := StartRepositorySpan(ctx, "customer", "get", map[string]interface{}{"customer_id": id})
	defer FinishSpan(span)

	query := `SELECT * FROM customers WHERE id = :id AND store_id = :store_id AND status <> 'deleted'`

	var c customer.Customer
	err := r.db.NamedGetContext(ctx, &c, query, map[string]interface{}{
		"id":       id,
		"store_id": storeID,
	})
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, ierr.WithError(err).
				WithHintf("Customer %s not found", id).
				Mark(ierr.ErrNotFound)
		}
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to get customer").
			Mark(ierr.ErrDatabase)
	}
	return &c, nil
}

func (r *customerRepository) List(ctx context.Context, storeID string, filter *types.CustomerFilter) ([]*customer.Customer, error) {
	if filter == nil {
		filter = types.NewCustomerFilter()
	}

	where, params := customerWhere(storeID, filter)
	sortColumn := lo.ValueOr(customerSortColumns, filter.GetSort(), "created_at")
	query := fmt.Sprintf(`SELECT * FROM customers WHERE %s ORDER BY %s %s, id %s`,
		where, sortColumn, sqlOrder(filter.GetOrder()), sqlOrder(filter.GetOrder()))
	if !filter.IsUnlimited() {
		query += ` LIMIT :limit OFFSET :offset`
		params["limit"] = filter.GetLimit()
		params["offset"] = filter.GetOffset()
	}

	var customers []*customer.Customer
	if err := r.db.NamedSelectContext(ctx, &customers, query, params); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list customers").
			Mark(ierr.ErrDatabase)
	}
	return customers, nil
}

func (r *customerRepository) Count(ctx context.Context, storeID string, filter *types.CustomerFilter) (int, error) {
	if filter == nil {
		filter = types.NewCustomerFilter()
	}

	where, params := customerWhere(storeID, filter)

	var count int
	if err := r.db.NamedGetContext(ctx, &count, `SELECT COUNT(*) FROM customers WHERE `+where, params); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count customers").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *customerRepository) Update(ctx context.Context, c *customer.Customer) error {
	span := StartRepositorySpan(ctx, "customer", "update", map[string]interface{}{"customer_id": c.ID})
	defer FinishSpan(span)

	query := `
		UPDATE customers
		SET external_id = :external_id,
			name = :name,
			email = :email,
			phone = :phone,
			address = :address,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
		AND store_id = :store_id
		AND status <> 'deleted'`

	r.logger.Debugw("updating customer",
		"customer_id", c.ID,
		"store_id", c.StoreID,
	)

	result, err := r.db.NamedExecContext(ctx, query, c)
	if err != nil {
		SetSpanError(span, err)
		return ierr.WithError(err).
			WithHint("Failed to update customer").
			Mark(ierr.ErrDatabase)
	}
	return requireAffected(result, "Customer", c.ID)
}

func (r *customerRepository) Delete(ctx context.Context, storeID, id string) error {
	span := StartRepositorySpan(ctx, "customer", "delete", map[string]interface{}{"customer_id": id})
	defer FinishSpan(span)

	query := `
		UPDATE customers
		SET status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
		AND store_id = :store_id
		AND status <> 'deleted'`

	r.logger.Debugw("deleting customer",
		"customer_id", id,
		"store_id", storeID,
	)

	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":         id,
		"store_id":   storeID,
		"status":     types.StatusDeleted,
		"updated_at": time.Now().UTC(),
		"updated_by": types.GetUserID(ctx),
	})
	if err != nil {
		SetSpanError(span, err)
		return ierr.WithError(err).
			WithHint("Failed to delete customer").
			Mark(ierr.ErrDatabase)
	}
	return requireAffected(result, "Customer", id)
}

func customerWhere(storeID string, filter *types.CustomerFilter) (string, map[string]interface{}) {
	where := `store_id = :store_id AND status <> 'deleted'`
	params := map[string]interface{}{"store_id": storeID}

	if filter.ExternalID != "" {
		where += ` AND external_id = :external_id`
		params["external_id"] = filter.ExternalID
	}
	if filter.Email != "" {
		where += ` AND email = :email`
		params["email"] = filter.Email
	}
	return where, params
}
