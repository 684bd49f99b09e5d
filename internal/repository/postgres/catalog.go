package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/tillpoint/tillpoint/internal/domain/catalog"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/logger"
	"github.com/tillpoint/tillpoint/internal/postgres"
	"github.com/tillpoint/tillpoint/internal/types"
)

type catalogRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewCatalogRepository creates a new instance of the product and SKU repository
func NewCatalogRepository(db *postgres.DB, logger *logger.Logger) catalog.Repository {
	return &catalogRepository{
		db:     db,
		logger: logger,
	}
}

var productSortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"name":       "name",
}

func (r *catalogRepository) CreateProduct(ctx context.Context, p *catalog.Product) error {
	span := StartRepositorySpan(ctx, "catalog", "create_product", map[string]interface{}{"product_id": p.ID})
	defer FinishSpan(span)

	query := `
		INSERT INTO products (
			id, store_id, name, description, type, tax_rate, status,
			created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :store_id, :name, :description, :type, :tax_rate, :status,
			:created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		SetSpanError(span, err)
		return ierr.WithError(err).
			WithHint("Failed to create product").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *catalogRepository) GetProduct(ctx context.Context, storeID, id string) (*catalog.Product, error) {
	span := StartRepositorySpan(ctx, "catalog", "get_product", map[string]interface{}{"product_id": id})
	defer FinishSpan(span)

	query := `SELECT * FROM products WHERE id = :id AND store_id = :store_id AND status <> 'deleted'`

	var p catalog.Product
	err := r.db.NamedGetContext(ctx, &p, query, map[string]interface{}{
		"id":       id,
		"store_id": storeID,
	})
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, ierr.WithError(err).
				WithHintf("Product %s not found", id).
				Mark(ierr.ErrNotFound)
		}
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to get product").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *catalogRepository) ListProducts(ctx context.Context, storeID string, filter *types.ProductFilter) ([]*catalog.Product, error) {
	span := StartRepositorySpan(ctx, "catalog", "list_products", map[string]interface{}{"store_id": storeID})
	defer FinishSpan(span)

	if filter == nil {
		filter = types.NewProductFilter()
	}

	where, params := productWhere(storeID, filter)
	sortColumn := lo.ValueOr(productSortColumns, filter.GetSort(), "created_at")
	query := fmt.Sprintf(`SELECT * FROM products WHERE %s ORDER BY %s %s, id %s`,
		where, sortColumn, sqlOrder(filter.GetOrder()), sqlOrder(filter.GetOrder()))
	if !filter.IsUnlimited() {
		query += ` LIMIT :limit OFFSET :offset`
		params["limit"] = filter.GetLimit()
		params["offset"] = filter.GetOffset()
	}

	var products []*catalog.Product
	if err := r.db.NamedSelectContext(ctx, &products, query, params); err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to list products").
			Mark(ierr.ErrDatabase)
	}
	return products, nil
}

func (r *catalogRepository) CountProducts(ctx context.Context, storeID string, filter *types.ProductFilter) (int, error) {
	if filter == nil {
		filter = types.NewProductFilter()
	}

	where, params := productWhere(storeID, filter)

	var count int
	if err := r.db.NamedGetContext(ctx, &count, `SELECT COUNT(*) FROM products WHERE `+where, params); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count products").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func productWhere(storeID string, filter *types.ProductFilter) (string, map[string]interface{}) {
	where := `store_id = :store_id AND status <> 'deleted'`
	params := map[string]interface{}{"store_id": storeID}

	if len(filter.ProductIDs) > 0 {
		where += ` AND id = ANY(:product_ids)`
		params["product_ids"] = stringArray(filter.ProductIDs)
	}
	if filter.Status != nil {
		where += ` AND status = :status`
		params["status"] = *filter.Status
	}
	return where, params
}

func (r *catalogRepository) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	span := StartRepositorySpan(ctx, "catalog", "update_product", map[string]interface{}{"product_id": p.ID})
	defer FinishSpan(span)

	query := `
		UPDATE products
		SET name = :name,
			description = :description,
			type = :type,
			tax_rate = :tax_rate,
			status = :status,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
		AND store_id = :store_id
		AND status <> 'deleted'`

	result, err := r.db.NamedExecContext(ctx, query, p)
	if err != nil {
		SetSpanError(span, err)
		return ierr.WithError(err).
			WithHint("Failed to update product").
			Mark(ierr.ErrDatabase)
	}
	return requireAffected(result, "Product", p.ID)
}

func (r *catalogRepository) DeleteProduct(ctx context.Context, storeID, id string) error {
	span := StartRepositorySpan(ctx, "catalog", "delete_product", map[string]interface{}{"product_id": id})
	defer FinishSpan(span)

	params := map[string]interface{}{
		"id":         id,
		"store_id":   storeID,
		"status":     types.StatusDeleted,
		"updated_at": time.Now().UTC(),
		"updated_by": types.GetUserID(ctx),
	}

	r.logger.Debugw("deleting product",
		"product_id", id,
		"store_id", storeID,
	)

	return r.db.WithTx(ctx, func(ctx context.Context) error {
		result, err := r.db.NamedExecContext(ctx, `
			UPDATE products
			SET status = :status, updated_at = :updated_at, updated_by = :updated_by
			WHERE id = :id AND store_id = :store_id AND status <> 'deleted'`, params)
		if err != nil {
			SetSpanError(span, err)
			return ierr.WithError(err).
				WithHint("Failed to delete product").
				Mark(ierr.ErrDatabase)
		}
		if err := requireAffected(result, "Product", id); err != nil {
			return err
		}

		if _, err := r.db.NamedExecContext(ctx, `
			UPDATE skus
			SET status = :status, version = version + 1, updated_at = :updated_at, updated_by = :updated_by
			WHERE product_id = :id AND store_id = :store_id AND status <> 'deleted'`, params); err != nil {
			SetSpanError(span, err)
			return ierr.WithError(err).
				WithHint("Failed to delete product SKUs").
				Mark(ierr.ErrDatabase)
		}
		return nil
	})
}

func (r *catalogRepository) CreateSKU(ctx context.Context, s *catalog.SKU) error {
	span := StartRepositorySpan(ctx, "catalog", "create_sku", map[string]interface{}{"sku_id": s.ID})
	defer FinishSpan(span)

	query := `
		INSERT INTO skus (
			id, store_id, product_id, code, price, currency, stock, attributes, version, status,
			created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :store_id, :product_id, :code, :price, :currency, :stock, :attributes, :version, :status,
			:created_at, :updated_at, :created_by, :updated_by
		)`

	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		SetSpanError(span, err)
		if _, ok := postgres.IsUniqueViolation(err); ok {
			return ierr.WithError(err).
				WithHintf("A SKU with code %s already exists", s.Code).
				WithReportableDetails(map[string]any{"code": s.Code}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create SKU").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *catalogRepository) GetSKU(ctx context.Context, storeID, id string) (*catalog.SKU, error) {
	return r.getSKUBy(ctx, "id", storeID, id)
}

func (r *catalogRepository) GetSKUByCode(ctx context.Context, storeID, code string) (*catalog.SKU, error) {
	return r.getSKUBy(ctx, "code", storeID, code)
}

func (r *catalogRepository) getSKUBy(ctx context.Context, column, storeID, value string) (*catalog.SKU, error) {
	span := StartRepositorySpan(ctx, "catalog", "get_sku_by_"+column, map[string]interface{}{column: value})
	defer FinishSpan(span)

	query := `SELECT * FROM skus WHERE ` + column + ` = :value AND store_id = :store_id AND status <> 'deleted'`

	var s catalog.SKU
	err := r.db.NamedGetContext(ctx, &s, query, map[string]interface{}{
		"value":    value,
		"store_id": storeID,
	})
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, ierr.WithError(err).
				WithHintf("SKU %s not found", value).
				Mark(ierr.ErrNotFound)
		}
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to get SKU").
			Mark(ierr.ErrDatabase)
	}
	return &s, nil
}

func (r *catalogRepository) ListSKUsByProduct(ctx context.Context, storeID, productID string) ([]*catalog.SKU, error) {
	query := `
		SELECT * FROM skus
		WHERE store_id = :store_id AND product_id = :product_id AND status <> 'deleted'
		ORDER BY created_at ASC, id ASC`

	var skus []*catalog.SKU
	err := r.db.NamedSelectContext(ctx, &skus, query, map[string]interface{}{
		"store_id":   storeID,
		"product_id": productID,
	})
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list SKUs").
			Mark(ierr.ErrDatabase)
	}
	return skus, nil
}

func (r *catalogRepository) UpdateSKU(ctx context.Context, sku *catalog.SKU) (*catalog.SKU, error) {
	span := StartRepositorySpan(ctx, "catalog", "update_sku", map[string]interface{}{
		"sku_id":  sku.ID,
		"version": sku.Version,
	})
	defer FinishSpan(span)

	query := `
		UPDATE skus
		SET price = :price,
			stock = :stock,
			attributes = :attributes,
			version = version + 1,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
		AND store_id = :store_id
		AND version = :version
		AND status <> 'deleted'
		RETURNING *`

	var updated catalog.SKU
	err := r.db.NamedGetContext(ctx, &updated, query, map[string]interface{}{
		"price":      sku.Price,
		"stock":      sku.Stock,
		"attributes": sku.Attributes,
		"updated_at": time.Now().UTC(),
		"updated_by": types.GetUserID(ctx),
		"id":         sku.ID,
		"store_id":   sku.StoreID,
		"version":    sku.Version,
	})
	if err == nil {
		return &updated, nil
	}
	if !postgres.IsNoRows(err) {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to update SKU").
			Mark(ierr.ErrDatabase)
	}

	// no row matched: the SKU is gone or a sale moved its version
	if _, getErr := r.GetSKU(ctx, sku.StoreID, sku.ID); getErr != nil {
		return nil, getErr
	}
	return nil, ierr.NewError("sku version mismatch").
		WithHintf("SKU %s was modified concurrently", sku.Code).
		WithReportableDetails(map[string]any{
			"sku_id":           sku.ID,
			"expected_version": sku.Version,
		}).
		Mark(ierr.ErrVersionConflict)
}

func (r *catalogRepository) DecrementStock(ctx context.Context, storeID, skuID string, quantity int64) (*catalog.SKU, error) {
	span := StartRepositorySpan(ctx, "catalog", "decrement_stock", map[string]interface{}{
		"sku_id":   skuID,
		"quantity": quantity,
	})
	defer FinishSpan(span)

	// NULL stock stays NULL: untracked SKUs always pass the condition
	query := `
		UPDATE skus
		SET stock = stock - :quantity,
			version = version + 1,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
		AND store_id = :store_id
		AND (stock IS NULL OR stock >= :quantity)
		AND status <> 'deleted'
		RETURNING *`

	var s catalog.SKU
	err := r.db.NamedGetContext(ctx, &s, query, map[string]interface{}{
		"id":         skuID,
		"store_id":   storeID,
		"quantity":   quantity,
		"updated_at": time.Now().UTC(),
		"updated_by": types.GetUserID(ctx),
	})
	if err == nil {
		return &s, nil
	}
	if !postgres.IsNoRows(err) {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to reserve stock").
			Mark(ierr.ErrDatabase)
	}

	// the conditional update matched nothing: either the SKU is gone or stock is short
	current, getErr := r.GetSKU(ctx, storeID, skuID)
	if getErr != nil {
		return nil, getErr
	}

	r.logger.Debugw("conditional stock decrement rejected",
		"store_id", storeID,
		"sku_id", skuID,
		"available", current.AvailableStock(),
		"requested", quantity,
	)

	return current, ierr.NewError("insufficient stock").
		WithHintf("Insufficient stock for SKU %s", current.Code).
		WithReportableDetails(map[string]any{
			"sku_code":  current.Code,
			"available": current.AvailableStock(),
			"requested": quantity,
		}).
		Mark(ierr.ErrInsufficientStock)
}

func (r *catalogRepository) IncrementStock(ctx context.Context, storeID, skuID string, quantity int64) (*catalog.SKU, error) {
	span := StartRepositorySpan(ctx, "catalog", "increment_stock", map[string]interface{}{
		"sku_id":   skuID,
		"quantity": quantity,
	})
	defer FinishSpan(span)

	query := `
		UPDATE skus
		SET stock = stock + :quantity,
			version = version + 1,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE id = :id
		AND store_id = :store_id
		RETURNING *`

	var s catalog.SKU
	err := r.db.NamedGetContext(ctx, &s, query, map[string]interface{}{
		"id":         skuID,
		"store_id":   storeID,
		"quantity":   quantity,
		"updated_at": time.Now().UTC(),
		"updated_by": types.GetUserID(ctx),
	})
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, ierr.WithError(err).
				WithHintf("SKU %s not found", skuID).
				Mark(ierr.ErrNotFound)
		}
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to release stock").
			Mark(ierr.ErrDatabase)
	}
	return &s, nil
}
