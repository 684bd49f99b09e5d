package service

import (
	"context"

	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
	"github.com/tillpoint/tillpoint/internal/api/dto"
	"github.com/tillpoint/tillpoint/internal/domain/catalog"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/types"
)

// maxSKUFetchers bounds the goroutines loading SKUs for a product page
const maxSKUFetchers = 8

type CatalogService interface {
	CreateProduct(ctx context.Context, storeID string, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	GetProduct(ctx context.Context, storeID, id string) (*dto.ProductResponse, error)
	ListProducts(ctx context.Context, storeID string, filter *types.ProductFilter) (*dto.ListProductsResponse, error)
	UpdateProduct(ctx context.Context, storeID, id string, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	// DeleteProduct hides a product and its SKUs from the catalog. Issued
	// invoices keep their line items.
	DeleteProduct(ctx context.Context, storeID, id string) error
	CreateSKU(ctx context.Context, storeID string, req dto.CreateSKURequest) (*dto.SKUResponse, error)
	GetSKU(ctx context.Context, storeID, id string) (*dto.SKUResponse, error)
	// UpdateSKU writes price, stock and attributes against the version it read,
	// so a sale landing in between surfaces as a version conflict
	UpdateSKU(ctx context.Context, storeID, id string, req dto.UpdateSKURequest) (*dto.SKUResponse, error)
	ListSKUs(ctx context.Context, storeID, productID string) ([]*dto.SKUResponse, error)
}

type catalogService struct {
	ServiceParams
}

func NewCatalogService(params ServiceParams) CatalogService {
	return &catalogService{
		ServiceParams: params,
	}
}

func (s *catalogService) CreateProduct(ctx context.Context, storeID string, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := NewStoreService(s.ServiceParams).GetStore(ctx, storeID); err != nil {
		return nil, err
	}

	p := req.ToProduct(ctx, storeID)
	if err := s.CatalogRepo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	return &dto.ProductResponse{Product: p}, nil
}

func (s *catalogService) GetProduct(ctx context.Context, storeID, id string) (*dto.ProductResponse, error) {
	p, err := s.CatalogRepo.GetProduct(ctx, storeID, id)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.NewReferenceNotFound("product", id)
		}
		return nil, err
	}

	skus, err := s.ListSKUs(ctx, storeID, id)
	if err != nil {
		return nil, err
	}

	return &dto.ProductResponse{Product: p, SKUs: skus}, nil
}

// ListProducts returns a page of products, each with its SKUs loaded concurrently
func (s *catalogService) ListProducts(ctx context.Context, storeID string, filter *types.ProductFilter) (*dto.ListProductsResponse, error) {
	if filter == nil {
		filter = types.NewProductFilter()
	}

	if err := filter.Validate(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation)
	}

	products, err := s.CatalogRepo.ListProducts(ctx, storeID, filter)
	if err != nil {
		return nil, err
	}

	total, err := s.CatalogRepo.CountProducts(ctx, storeID, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.ProductResponse, len(products))
	p := pool.New().WithMaxGoroutines(maxSKUFetchers).WithContext(ctx).WithCancelOnError()
	for i, product := range products {
		p.Go(func(ctx context.Context) error {
			skus, err := s.ListSKUs(ctx, storeID, product.ID)
			if err != nil {
				return err
			}
			items[i] = &dto.ProductResponse{Product: product, SKUs: skus}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	response := types.NewListResponse(items, total, filter.GetLimit(), filter.GetOffset())
	return &response, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, storeID, id string, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.CatalogRepo.GetProduct(ctx, storeID, id)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.NewReferenceNotFound("product", id)
		}
		return nil, err
	}

	req.Apply(ctx, p)
	if err := s.CatalogRepo.UpdateProduct(ctx, p); err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.NewReferenceNotFound("product", id)
		}
		return nil, err
	}

	s.Logger.Infow("updated product",
		"store_id", storeID,
		"product_id", id,
		"tax_rate", p.TaxRate.String(),
	)

	return s.GetProduct(ctx, storeID, id)
}

func (s *catalogService) DeleteProduct(ctx context.Context, storeID, id string) error {
	if err := s.CatalogRepo.DeleteProduct(ctx, storeID, id); err != nil {
		if ierr.IsNotFound(err) {
			return ierr.NewReferenceNotFound("product", id)
		}
		return err
	}

	s.Logger.Infow("deleted product", "store_id", storeID, "product_id", id)
	return nil
}

func (s *catalogService) CreateSKU(ctx context.Context, storeID string, req dto.CreateSKURequest) (*dto.SKUResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	st, err := NewStoreService(s.ServiceParams).GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}

	if _, err := s.CatalogRepo.GetProduct(ctx, storeID, req.ProductID); err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.NewReferenceNotFound("product", req.ProductID)
		}
		return nil, err
	}

	sku := req.ToSKU(ctx, storeID, lo.CoalesceOrEmpty(st.Currency, s.Config.Invoice.DefaultCurrency))
	if err := s.CatalogRepo.CreateSKU(ctx, sku); err != nil {
		return nil, err
	}

	return &dto.SKUResponse{SKU: sku}, nil
}

func (s *catalogService) GetSKU(ctx context.Context, storeID, id string) (*dto.SKUResponse, error) {
	sku, err := s.CatalogRepo.GetSKU(ctx, storeID, id)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.NewReferenceNotFound("sku", id)
		}
		return nil, err
	}
	return &dto.SKUResponse{SKU: sku}, nil
}

func (s *catalogService) UpdateSKU(ctx context.Context, storeID, id string, req dto.UpdateSKURequest) (*dto.SKUResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sku, err := s.CatalogRepo.GetSKU(ctx, storeID, id)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.NewReferenceNotFound("sku", id)
		}
		return nil, err
	}

	if req.Version != nil && *req.Version != sku.Version {
		return nil, ierr.NewError("sku version mismatch").
			WithHintf("SKU %s is at version %d, the update was made against version %d", id, sku.Version, *req.Version).
			WithReportableDetails(map[string]any{
				"sku_id":           id,
				"current_version":  sku.Version,
				"expected_version": *req.Version,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	req.Apply(sku)
	sku.Price = types.RoundToCurrencyPrecision(sku.Price, sku.Currency)

	updated, err := s.CatalogRepo.UpdateSKU(ctx, sku)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.NewReferenceNotFound("sku", id)
		}
		return nil, err
	}

	s.Logger.Infow("updated sku",
		"store_id", storeID,
		"sku_id", id,
		"price", updated.Price.String(),
		"version", updated.Version,
	)

	return &dto.SKUResponse{SKU: updated}, nil
}

func (s *catalogService) ListSKUs(ctx context.Context, storeID, productID string) ([]*dto.SKUResponse, error) {
	skus, err := s.CatalogRepo.ListSKUsByProduct(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}
	return lo.Map(skus, func(sku *catalog.SKU, _ int) *dto.SKUResponse {
		return &dto.SKUResponse{SKU: sku}
	}), nil
}
