package postgres

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tillpoint/tillpoint/internal/domain/catalog"
	"github.com/tillpoint/tillpoint/internal/domain/invoice"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/logger"
	"github.com/tillpoint/tillpoint/internal/postgres"
	"github.com/tillpoint/tillpoint/internal/types"
)

var skuColumns = []string{
	"id", "store_id", "product_id", "code", "price", "currency", "stock", "attributes", "version",
	"status", "created_at", "updated_at", "created_by", "updated_by",
}

var invoiceColumns = []string{
	"id", "store_id", "customer_id", "invoice_number", "idempotency_key", "currency", "invoice_status",
	"line_items", "subtotal", "total_tax", "total_discount", "shipping_amount", "adjustments", "total",
	"paid_amount", "due_amount", "payment_status", "payments", "issued_at", "due_at", "metadata", "version",
	"status", "created_at", "updated_at", "created_by", "updated_by",
}

type RepositorySuite struct {
	suite.Suite
	ctx  context.Context
	mock sqlmock.Sqlmock
	db   *postgres.DB
	now  time.Time
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	conn, mock, err := sqlmock.New()
	s.Require().NoError(err)

	s.ctx = context.Background()
	s.mock = mock
	s.db = postgres.NewFromSqlx(sqlx.NewDb(conn, "postgres"), logger.NewNoopLogger())
	s.now = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
}

func (s *RepositorySuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *RepositorySuite) skuRow(stock driver.Value) *sqlmock.Rows {
	return sqlmock.NewRows(skuColumns).AddRow(
		"sku_1", "store_1", "prod_1", "TEE-M", "10.00", "usd", stock, []byte(`{"size":"M"}`), 3,
		"active", s.now, s.now, "", "",
	)
}

func (s *RepositorySuite) invoiceRow(version int) *sqlmock.Rows {
	return sqlmock.NewRows(invoiceColumns).AddRow(
		"inv_1", "store_1", "cust_1", "INV-202610-00001", nil, "usd", "draft",
		[]byte(`[]`), "100", "0", "0", "0", "0", "100",
		"0", "100", "unpaid", []byte(`[]`), s.now, nil, []byte(`{}`), version,
		"active", s.now, s.now, "", "",
	)
}

func (s *RepositorySuite) TestDecrementStockUsesConditionalUpdate() {
	repo := NewCatalogRepository(s.db, logger.NewNoopLogger())

	s.mock.ExpectQuery(regexp.QuoteMeta(`AND (stock IS NULL OR stock >= $6)`)).
		WithArgs(int64(2), sqlmock.AnyArg(), "", "sku_1", "store_1", int64(2)).
		WillReturnRows(s.skuRow(int64(3)))

	sku, err := repo.DecrementStock(s.ctx, "store_1", "sku_1", 2)
	s.Require().NoError(err)
	s.Require().NotNil(sku.Stock)
	s.Equal(int64(3), *sku.Stock)
	s.Equal("M", sku.Attributes["size"])
	s.True(sku.Price.Equal(decimal.NewFromInt(10)))
}

func (s *RepositorySuite) TestDecrementStockInsufficient() {
	repo := NewCatalogRepository(s.db, logger.NewNoopLogger())

	s.mock.ExpectQuery(regexp.QuoteMeta(`UPDATE skus`)).
		WillReturnRows(sqlmock.NewRows(skuColumns))
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM skus WHERE id = $1 AND store_id = $2`)).
		WithArgs("sku_1", "store_1").
		WillReturnRows(s.skuRow(int64(1)))

	sku, err := repo.DecrementStock(s.ctx, "store_1", "sku_1", 5)
	s.Require().Error(err)
	s.True(ierr.IsInsufficientStock(err))
	s.Equal(int64(1), sku.AvailableStock())
}

func (s *RepositorySuite) TestDecrementStockMissingSKU() {
	repo := NewCatalogRepository(s.db, logger.NewNoopLogger())

	s.mock.ExpectQuery(regexp.QuoteMeta(`UPDATE skus`)).
		WillReturnRows(sqlmock.NewRows(skuColumns))
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM skus`)).
		WillReturnRows(sqlmock.NewRows(skuColumns))

	_, err := repo.DecrementStock(s.ctx, "store_1", "sku_404", 1)
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *RepositorySuite) TestUpdateSKUChecksVersion() {
	repo := NewCatalogRepository(s.db, logger.NewNoopLogger())
	sku := &catalog.SKU{ID: "sku_1", BaseModel: types.BaseModel{StoreID: "store_1"}, Code: "TEE-M", Price: decimal.NewFromInt(10), Version: 2}

	s.mock.ExpectQuery(regexp.QuoteMeta(`AND version = $8`)).
		WithArgs(sku.Price, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), "", "sku_1", "store_1", int64(2)).
		WillReturnRows(s.skuRow(int64(4)))

	updated, err := repo.UpdateSKU(s.ctx, sku)
	s.Require().NoError(err)
	s.Equal(3, updated.Version)
	s.Equal(int64(4), *updated.Stock)
}

func (s *RepositorySuite) TestUpdateSKUStaleVersionConflicts() {
	repo := NewCatalogRepository(s.db, logger.NewNoopLogger())

	s.mock.ExpectQuery(regexp.QuoteMeta(`UPDATE skus`)).
		WillReturnRows(sqlmock.NewRows(skuColumns))
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM skus WHERE id = $1 AND store_id = $2`)).
		WithArgs("sku_1", "store_1").
		WillReturnRows(s.skuRow(int64(4)))

	_, err := repo.UpdateSKU(s.ctx, &catalog.SKU{ID: "sku_1", BaseModel: types.BaseModel{StoreID: "store_1"}, Version: 1})
	s.Require().Error(err)
	s.True(ierr.IsVersionConflict(err))
}

func (s *RepositorySuite) TestUpdateSKUDeletedIsNotFound() {
	repo := NewCatalogRepository(s.db, logger.NewNoopLogger())

	s.mock.ExpectQuery(regexp.QuoteMeta(`UPDATE skus`)).
		WillReturnRows(sqlmock.NewRows(skuColumns))
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM skus`)).
		WillReturnRows(sqlmock.NewRows(skuColumns))

	_, err := repo.UpdateSKU(s.ctx, &catalog.SKU{ID: "sku_1", BaseModel: types.BaseModel{StoreID: "store_1"}, Version: 3})
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *RepositorySuite) TestDeleteProductMarksSKUsInOneTransaction() {
	repo := NewCatalogRepository(s.db, logger.NewNoopLogger())

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE products`)).
		WithArgs(types.StatusDeleted, sqlmock.AnyArg(), "", "prod_1", "store_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(regexp.QuoteMeta(`SET status = $1, version = version + 1`)).
		WithArgs(types.StatusDeleted, sqlmock.AnyArg(), "", "prod_1", "store_1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	s.mock.ExpectCommit()

	s.Require().NoError(repo.DeleteProduct(s.ctx, "store_1", "prod_1"))
}

func (s *RepositorySuite) TestDeleteProductOtherStoreRollsBack() {
	repo := NewCatalogRepository(s.db, logger.NewNoopLogger())

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE products`)).
		WithArgs(types.StatusDeleted, sqlmock.AnyArg(), "", "prod_1", "store_2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectRollback()

	err := repo.DeleteProduct(s.ctx, "store_2", "prod_1")
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *RepositorySuite) TestDeleteCustomerIsSoft() {
	repo := NewCustomerRepository(s.db, logger.NewNoopLogger())

	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE customers`)).
		WithArgs(types.StatusDeleted, sqlmock.AnyArg(), "", "cust_1", "store_1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	s.Require().NoError(repo.Delete(s.ctx, "store_1", "cust_1"))
}

func (s *RepositorySuite) TestUpdatePaymentBumpsVersion() {
	repo := NewInvoiceRepository(s.db, logger.NewNoopLogger())
	update := invoice.Settle(decimal.NewFromInt(100), invoice.Payments{{ID: "PAY-1", Amount: decimal.NewFromInt(40)}})

	s.mock.ExpectQuery(regexp.QuoteMeta(`AND version = $9`)).
		WithArgs(update.PaidAmount, update.DueAmount, "partial", sqlmock.AnyArg(), sqlmock.AnyArg(), "", "inv_1", "store_1", int64(1)).
		WillReturnRows(s.invoiceRow(2))

	inv, err := repo.UpdatePayment(s.ctx, "store_1", "inv_1", 1, update)
	s.Require().NoError(err)
	s.Equal(2, inv.Version)
	s.Nil(inv.IdempotencyKey)
	s.Nil(inv.DueAt)
}

func (s *RepositorySuite) TestUpdatePaymentVersionConflict() {
	repo := NewInvoiceRepository(s.db, logger.NewNoopLogger())

	s.mock.ExpectQuery(regexp.QuoteMeta(`UPDATE invoices`)).
		WillReturnRows(sqlmock.NewRows(invoiceColumns))
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM invoices WHERE id = $1 AND store_id = $2`)).
		WithArgs("inv_1", "store_1").
		WillReturnRows(s.invoiceRow(2))

	_, err := repo.UpdatePayment(s.ctx, "store_1", "inv_1", 1, invoice.Settle(decimal.NewFromInt(100), nil))
	s.Require().Error(err)
	s.True(ierr.IsVersionConflict(err))
}

func (s *RepositorySuite) TestUpdatePaymentOtherStoreIsNotFound() {
	repo := NewInvoiceRepository(s.db, logger.NewNoopLogger())

	s.mock.ExpectQuery(regexp.QuoteMeta(`UPDATE invoices`)).
		WillReturnRows(sqlmock.NewRows(invoiceColumns))
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM invoices`)).
		WithArgs("inv_1", "store_2").
		WillReturnRows(sqlmock.NewRows(invoiceColumns))

	_, err := repo.UpdatePayment(s.ctx, "store_2", "inv_1", 1, invoice.Settle(decimal.NewFromInt(100), nil))
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *RepositorySuite) TestListInvoicesFiltersByStatus() {
	repo := NewInvoiceRepository(s.db, logger.NewNoopLogger())
	filter := types.NewInvoiceFilter()
	filter.PaymentStatus = []types.PaymentStatus{types.PaymentStatusUnpaid}

	s.mock.ExpectQuery(regexp.QuoteMeta(`AND payment_status = ANY($2) ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`)).
		WithArgs("store_1", sqlmock.AnyArg(), int64(50), int64(0)).
		WillReturnRows(s.invoiceRow(1))

	invoices, err := repo.List(s.ctx, "store_1", filter)
	s.Require().NoError(err)
	s.Len(invoices, 1)
	s.Equal(types.PaymentStatusUnpaid, invoices[0].PaymentStatus)
}

func (s *RepositorySuite) TestNextValueUpserts() {
	repo := NewInvoiceSequenceRepository(s.db, logger.NewNoopLogger())

	s.mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT (store_id, year_month) DO UPDATE`)).
		WithArgs("store_1", "202610").
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(int64(7)))

	v, err := repo.NextValue(s.ctx, "store_1", "202610")
	s.Require().NoError(err)
	s.Equal(int64(7), v)
}

func TestStringArray(t *testing.T) {
	v, err := stringArray([]types.InvoiceStatus{types.InvoiceStatusDraft, types.InvoiceStatusVoid}).(driver.Valuer).Value()
	require.NoError(t, err)
	require.Equal(t, `{"draft","void"}`, v)
}
