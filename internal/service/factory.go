package service

import (
	"github.com/tillpoint/tillpoint/internal/cache"
	"github.com/tillpoint/tillpoint/internal/config"
	"github.com/tillpoint/tillpoint/internal/domain/catalog"
	"github.com/tillpoint/tillpoint/internal/domain/customer"
	"github.com/tillpoint/tillpoint/internal/domain/invoice"
	"github.com/tillpoint/tillpoint/internal/domain/store"
	"github.com/tillpoint/tillpoint/internal/logger"
	"github.com/tillpoint/tillpoint/internal/postgres"
	"github.com/tillpoint/tillpoint/internal/publisher"
	"github.com/tillpoint/tillpoint/internal/sentry"
	"go.uber.org/fx"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient
	Cache  cache.Cache
	Sentry *sentry.Service

	// Repositories
	StoreRepo    store.Repository
	CatalogRepo  catalog.Repository
	CustomerRepo customer.Repository
	InvoiceRepo  invoice.Repository
	SequenceRepo invoice.SequenceRepository

	// Publishers
	EventPublisher publisher.EventPublisher
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	cache cache.Cache,
	sentry *sentry.Service,
	storeRepo store.Repository,
	catalogRepo catalog.Repository,
	customerRepo customer.Repository,
	invoiceRepo invoice.Repository,
	sequenceRepo invoice.SequenceRepository,
	eventPublisher publisher.EventPublisher,
) ServiceParams {
	return ServiceParams{
		Logger:         logger,
		Config:         config,
		DB:             db,
		Cache:          cache,
		Sentry:         sentry,
		StoreRepo:      storeRepo,
		CatalogRepo:    catalogRepo,
		CustomerRepo:   customerRepo,
		InvoiceRepo:    invoiceRepo,
		SequenceRepo:   sequenceRepo,
		EventPublisher: eventPublisher,
	}
}

// Module provides every service
func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			NewServiceParams,
			NewStoreService,
			NewCatalogService,
			NewCustomerService,
			NewInvoiceService,
			NewPaymentService,
		),
	)
}
