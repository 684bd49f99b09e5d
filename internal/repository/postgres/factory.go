package postgres

import (
	"github.com/tillpoint/tillpoint/internal/domain/catalog"
	"github.com/tillpoint/tillpoint/internal/domain/customer"
	"github.com/tillpoint/tillpoint/internal/domain/invoice"
	"github.com/tillpoint/tillpoint/internal/domain/store"
	"github.com/tillpoint/tillpoint/internal/logger"
	"github.com/tillpoint/tillpoint/internal/postgres"
	"go.uber.org/fx"
)

// Module provides every postgres backed repository
func Module() fx.Option {
	return fx.Provide(
		NewStoreRepository,
		NewCatalogRepository,
		NewCustomerRepository,
		NewInvoiceRepository,
		NewInvoiceSequenceRepository,
	)
}

// Repositories groups the repositories for callers that do not use fx
type Repositories struct {
	Store    store.Repository
	Catalog  catalog.Repository
	Customer customer.Repository
	Invoice  invoice.Repository
	Sequence invoice.SequenceRepository
}

// NewRepositories builds every repository over one connection pool
func NewRepositories(db *postgres.DB, logger *logger.Logger) Repositories {
	return Repositories{
		Store:    NewStoreRepository(db, logger),
		Catalog:  NewCatalogRepository(db, logger),
		Customer: NewCustomerRepository(db, logger),
		Invoice:  NewInvoiceRepository(db, logger),
		Sequence: NewInvoiceSequenceRepository(db, logger),
	}
}
