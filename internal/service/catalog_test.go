package service

import (
	"testing"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/tillpoint/tillpoint/internal/api/dto"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/testutil"
	"github.com/tillpoint/tillpoint/internal/types"
)

type CatalogServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  CatalogService
	testData catalogFixture
}

func TestCatalogService(t *testing.T) {
	suite.Run(t, new(CatalogServiceSuite))
}

func (s *CatalogServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewCatalogService(newTestParams(&s.BaseServiceTestSuite))
	s.testData = seedCatalog(&s.BaseServiceTestSuite, "main")
}

func (s *CatalogServiceSuite) TestCreateProduct() {
	resp, err := s.service.CreateProduct(s.GetContext(), s.testData.store.ID, dto.CreateProductRequest{
		Name:    "Mug",
		Type:    types.ProductTypePhysical,
		TaxRate: decimal.NewFromInt(5),
	})
	s.Require().NoError(err)
	s.NotEmpty(resp.ID)
	s.Equal(s.testData.store.ID, resp.StoreID)
	s.Equal(types.StatusActive, resp.Status)

	_, err = s.service.CreateProduct(s.GetContext(), s.testData.store.ID, dto.CreateProductRequest{
		Name:    "Broken",
		Type:    types.ProductTypePhysical,
		TaxRate: decimal.NewFromInt(101),
	})
	s.True(ierr.IsValidation(err))

	_, err = s.service.CreateProduct(s.GetContext(), "store_missing", dto.CreateProductRequest{
		Name: "Orphan",
		Type: types.ProductTypeDigital,
	})
	s.True(ierr.IsNotFound(err))
}

func (s *CatalogServiceSuite) TestCreateSKU() {
	ctx := s.GetContext()

	resp, err := s.service.CreateSKU(ctx, s.testData.store.ID, dto.CreateSKURequest{
		ProductID: s.testData.tshirt.ID,
		Code:      "TS-BLK-M",
		Price:     dec("19.50"),
		Stock:     lo.ToPtr(int64(3)),
	})
	s.Require().NoError(err)
	s.Equal("usd", resp.Currency)
	s.Equal(1, resp.Version)
	s.Equal(int64(3), resp.AvailableStock())

	_, err = s.service.CreateSKU(ctx, s.testData.store.ID, dto.CreateSKURequest{
		ProductID: s.testData.tshirt.ID,
		Code:      "TS-BLK-M",
		Price:     dec("19.50"),
	})
	s.True(ierr.IsAlreadyExists(err))

	_, err = s.service.CreateSKU(ctx, s.testData.store.ID, dto.CreateSKURequest{
		ProductID: "prod_missing",
		Code:      "NOPE",
		Price:     dec("1"),
	})
	var refErr *ierr.ReferenceNotFoundError
	s.Require().True(ierr.As(err, &refErr))
	s.Equal("product", refErr.Entity)

	_, err = s.service.CreateSKU(ctx, s.testData.store.ID, dto.CreateSKURequest{
		ProductID: s.testData.tshirt.ID,
		Code:      "NEG",
		Price:     dec("-1"),
	})
	s.True(ierr.IsValidation(err))
}

func (s *CatalogServiceSuite) TestGetProductIncludesSKUs() {
	resp, err := s.service.GetProduct(s.GetContext(), s.testData.store.ID, s.testData.tshirt.ID)
	s.Require().NoError(err)
	s.Require().Len(resp.SKUs, 1)
	s.Equal("TS-BLK-L", resp.SKUs[0].Code)

	other := seedCatalog(&s.BaseServiceTestSuite, "other")
	_, err = s.service.GetProduct(s.GetContext(), other.store.ID, s.testData.tshirt.ID)
	s.True(ierr.IsNotFound(err))
}

func (s *CatalogServiceSuite) TestListProducts() {
	ctx := s.GetContext()
	newSKU(&s.BaseServiceTestSuite, s.testData.store.ID, s.testData.tshirt.ID, "TS-WHT-L", "20.00", nil)
	seedCatalog(&s.BaseServiceTestSuite, "other")

	resp, err := s.service.ListProducts(ctx, s.testData.store.ID, nil)
	s.Require().NoError(err)
	s.Equal(2, resp.Pagination.Total)
	s.Require().Len(resp.Items, 2)

	skuCounts := lo.SliceToMap(resp.Items, func(p *dto.ProductResponse) (string, int) {
		return p.Name, len(p.SKUs)
	})
	s.Equal(map[string]int{"T-Shirt": 2, "E-Book": 1}, skuCounts)

	filter := types.NewProductFilter()
	filter.ProductIDs = []string{s.testData.ebook.ID}
	resp, err = s.service.ListProducts(ctx, s.testData.store.ID, filter)
	s.Require().NoError(err)
	s.Require().Len(resp.Items, 1)
	s.Equal(s.testData.ebook.ID, resp.Items[0].ID)
}

func (s *CatalogServiceSuite) TestGetSKU() {
	resp, err := s.service.GetSKU(s.GetContext(), s.testData.store.ID, s.testData.eb001.ID)
	s.Require().NoError(err)
	s.Nil(resp.Stock)
	s.True(resp.CanFulfill(1_000_000))

	_, err = s.service.GetSKU(s.GetContext(), s.testData.store.ID, "sku_missing")
	s.True(ierr.IsNotFound(err))
}

func (s *CatalogServiceSuite) TestUpdateProduct() {
	ctx := s.GetContext()

	resp, err := s.service.UpdateProduct(ctx, s.testData.store.ID, s.testData.tshirt.ID, dto.UpdateProductRequest{
		Description: lo.ToPtr("Heavy cotton"),
		TaxRate:     decPtr("12.5"),
	})
	s.Require().NoError(err)
	s.Equal("T-Shirt", resp.Name)
	s.Equal("Heavy cotton", resp.Description)
	s.True(dec("12.5").Equal(resp.TaxRate))
	s.Len(resp.SKUs, 1)

	_, err = s.service.UpdateProduct(ctx, s.testData.store.ID, s.testData.tshirt.ID, dto.UpdateProductRequest{
		TaxRate: decPtr("150"),
	})
	s.True(ierr.IsValidation(err))

	other := seedCatalog(&s.BaseServiceTestSuite, "other")
	_, err = s.service.UpdateProduct(ctx, other.store.ID, s.testData.tshirt.ID, dto.UpdateProductRequest{
		Name: lo.ToPtr("Stolen"),
	})
	s.True(ierr.IsNotFound(err))

	got, err := s.service.GetProduct(ctx, s.testData.store.ID, s.testData.tshirt.ID)
	s.Require().NoError(err)
	s.Equal("T-Shirt", got.Name)
}

func (s *CatalogServiceSuite) TestDeleteProductHidesItsSKUs() {
	ctx := s.GetContext()

	s.Require().NoError(s.service.DeleteProduct(ctx, s.testData.store.ID, s.testData.tshirt.ID))

	_, err := s.service.GetProduct(ctx, s.testData.store.ID, s.testData.tshirt.ID)
	s.True(ierr.IsNotFound(err))
	_, err = s.service.GetSKU(ctx, s.testData.store.ID, s.testData.tsBlkL.ID)
	s.True(ierr.IsNotFound(err))

	resp, err := s.service.ListProducts(ctx, s.testData.store.ID, nil)
	s.Require().NoError(err)
	s.Equal(1, resp.Pagination.Total)
	s.Equal(s.testData.ebook.ID, resp.Items[0].ID)

	err = s.service.DeleteProduct(ctx, s.testData.store.ID, s.testData.tshirt.ID)
	var refErr *ierr.ReferenceNotFoundError
	s.Require().True(ierr.As(err, &refErr))
	s.Equal("product", refErr.Entity)
}

func (s *CatalogServiceSuite) TestUpdateSKU() {
	ctx := s.GetContext()
	storeID := s.testData.store.ID
	skuID := s.testData.tsBlkL.ID

	resp, err := s.service.UpdateSKU(ctx, storeID, skuID, dto.UpdateSKURequest{
		Price: decPtr("18.499"),
		Stock: lo.ToPtr(int64(40)),
	})
	s.Require().NoError(err)
	s.True(dec("18.50").Equal(resp.Price))
	s.Equal(int64(40), resp.AvailableStock())
	s.Equal(2, resp.Version)

	stale := 1
	_, err = s.service.UpdateSKU(ctx, storeID, skuID, dto.UpdateSKURequest{
		Price:   decPtr("1.00"),
		Version: &stale,
	})
	s.True(ierr.IsVersionConflict(err))

	current := 2
	resp, err = s.service.UpdateSKU(ctx, storeID, skuID, dto.UpdateSKURequest{
		Attributes: map[string]string{"color": "black", "size": "L"},
		Version:    &current,
	})
	s.Require().NoError(err)
	s.Equal(3, resp.Version)
	s.True(dec("18.50").Equal(resp.Price))
	s.Equal("black", resp.Attributes["color"])

	_, err = s.service.UpdateSKU(ctx, storeID, skuID, dto.UpdateSKURequest{Price: decPtr("-2")})
	s.True(ierr.IsValidation(err))

	other := seedCatalog(&s.BaseServiceTestSuite, "other")
	_, err = s.service.UpdateSKU(ctx, other.store.ID, skuID, dto.UpdateSKURequest{Price: decPtr("0")})
	s.True(ierr.IsNotFound(err))

	got, err := s.service.GetSKU(ctx, storeID, skuID)
	s.Require().NoError(err)
	s.True(dec("18.50").Equal(got.Price))
	s.Equal(int64(40), *got.Stock)
}

func (s *CatalogServiceSuite) TestUpdateSKUAfterSaleConflicts() {
	ctx := s.GetContext()
	storeID := s.testData.store.ID

	read, err := s.service.GetSKU(ctx, storeID, s.testData.tsBlkL.ID)
	s.Require().NoError(err)

	_, err = s.GetStores().CatalogRepo.DecrementStock(ctx, storeID, read.ID, 3)
	s.Require().NoError(err)

	_, err = s.service.UpdateSKU(ctx, storeID, read.ID, dto.UpdateSKURequest{
		Stock:   lo.ToPtr(int64(100)),
		Version: lo.ToPtr(read.Version),
	})
	s.True(ierr.IsVersionConflict(err))
	s.Equal(int64(97), *stockOf(&s.BaseServiceTestSuite, storeID, read.ID))
}
