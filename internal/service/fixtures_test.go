package service

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/tillpoint/tillpoint/internal/domain/catalog"
	"github.com/tillpoint/tillpoint/internal/domain/customer"
	"github.com/tillpoint/tillpoint/internal/domain/store"
	"github.com/tillpoint/tillpoint/internal/testutil"
	"github.com/tillpoint/tillpoint/internal/types"
)

// catalogFixture is a store with the t-shirt and e-book catalog used across service tests
type catalogFixture struct {
	store    *store.Store
	tshirt   *catalog.Product
	ebook    *catalog.Product
	tsBlkL   *catalog.SKU
	eb001    *catalog.SKU
	customer *customer.Customer
}

func newTestParams(s *testutil.BaseServiceTestSuite) ServiceParams {
	stores := s.GetStores()
	return ServiceParams{
		Logger:         s.GetLogger(),
		Config:         s.GetConfig(),
		DB:             s.GetDB(),
		Cache:          s.GetCache(),
		Sentry:         s.GetSentry(),
		StoreRepo:      stores.StoreRepo,
		CatalogRepo:    stores.CatalogRepo,
		CustomerRepo:   stores.CustomerRepo,
		InvoiceRepo:    stores.InvoiceRepo,
		SequenceRepo:   stores.SequenceRepo,
		EventPublisher: s.GetPublisher(),
	}
}

func seedCatalog(s *testutil.BaseServiceTestSuite, slug string) catalogFixture {
	ctx := s.GetContext()
	stores := s.GetStores()
	now := s.GetNow()

	f := catalogFixture{}
	f.store = &store.Store{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_STORE),
		Name:      "Store " + slug,
		Slug:      slug,
		Currency:  "usd",
		Timezone:  "UTC",
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Require().NoError(stores.StoreRepo.Create(ctx, f.store))

	f.tshirt = &catalog.Product{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PRODUCT),
		Name:      "T-Shirt",
		Type:      types.ProductTypePhysical,
		TaxRate:   decimal.NewFromInt(10),
		BaseModel: types.GetDefaultBaseModel(ctx, f.store.ID),
	}
	s.Require().NoError(stores.CatalogRepo.CreateProduct(ctx, f.tshirt))

	f.ebook = &catalog.Product{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PRODUCT),
		Name:      "E-Book",
		Type:      types.ProductTypeDigital,
		TaxRate:   decimal.Zero,
		BaseModel: types.GetDefaultBaseModel(ctx, f.store.ID),
	}
	s.Require().NoError(stores.CatalogRepo.CreateProduct(ctx, f.ebook))

	f.tsBlkL = newSKU(s, f.store.ID, f.tshirt.ID, "TS-BLK-L", "20.00", lo.ToPtr(int64(100)))
	f.eb001 = newSKU(s, f.store.ID, f.ebook.ID, "EB-001", "15.00", nil)

	f.customer = &customer.Customer{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CUSTOMER),
		Name:      "Ada Lovelace",
		Email:     "ada@example.com",
		BaseModel: types.GetDefaultBaseModel(ctx, f.store.ID),
	}
	s.Require().NoError(stores.CustomerRepo.Create(ctx, f.customer))

	return f
}

func newSKU(s *testutil.BaseServiceTestSuite, storeID, productID, code, price string, stock *int64) *catalog.SKU {
	sku := &catalog.SKU{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SKU),
		ProductID: productID,
		Code:      code,
		Price:     decimal.RequireFromString(price),
		Currency:  "usd",
		Stock:     stock,
		Version:   1,
		BaseModel: types.GetDefaultBaseModel(s.GetContext(), storeID),
	}
	s.Require().NoError(s.GetStores().CatalogRepo.CreateSKU(s.GetContext(), sku))
	return sku
}

func stockOf(s *testutil.BaseServiceTestSuite, storeID, skuID string) *int64 {
	sku, err := s.GetStores().CatalogRepo.GetSKU(s.GetContext(), storeID, skuID)
	s.Require().NoError(err)
	return sku.Stock
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func decPtr(v string) *decimal.Decimal {
	return lo.ToPtr(decimal.RequireFromString(v))
}
