package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/tillpoint/tillpoint/internal/api/v1"
	"github.com/tillpoint/tillpoint/internal/config"
	"github.com/tillpoint/tillpoint/internal/logger"
	"github.com/tillpoint/tillpoint/internal/rest/middleware"
	"github.com/tillpoint/tillpoint/internal/service"
	"github.com/tillpoint/tillpoint/internal/types"
	"go.uber.org/fx"
)

type Handlers struct {
	Health   *v1.HealthHandler
	Store    *v1.StoreHandler
	Catalog  *v1.CatalogHandler
	Customer *v1.CustomerHandler
	Invoice  *v1.InvoiceHandler
	Payment  *v1.PaymentHandler
}

// Module provides the handlers and the gin engine
func Module() fx.Option {
	return fx.Provide(
		NewHandlers,
		NewRouter,
	)
}

func NewHandlers(
	logger *logger.Logger,
	storeService service.StoreService,
	catalogService service.CatalogService,
	customerService service.CustomerService,
	invoiceService service.InvoiceService,
	paymentService service.PaymentService,
) Handlers {
	return Handlers{
		Health:   v1.NewHealthHandler(logger),
		Store:    v1.NewStoreHandler(storeService, logger),
		Catalog:  v1.NewCatalogHandler(catalogService, logger),
		Customer: v1.NewCustomerHandler(customerService, logger),
		Invoice:  v1.NewInvoiceHandler(invoiceService, logger),
		Payment:  v1.NewPaymentHandler(paymentService, logger),
	}
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	if cfg.Deployment.Mode != types.ModeLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.SentryMiddleware(cfg),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.RequestLogger(logger),
		middleware.ErrorHandler(),
	)

	router.GET("/health", handlers.Health.Health)

	public := router.Group("/v1")
	{
		public.POST("/stores", handlers.Store.CreateStore)
		public.GET("/stores/slug/:slug", handlers.Store.GetStoreBySlug)
	}

	scoped := router.Group("/v1")
	scoped.Use(
		middleware.StoreMiddleware(cfg, logger),
		middleware.SentryScope,
		middleware.RateLimitMiddleware(cfg),
	)
	registerV1Routes(scoped, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	router.GET("/store", handlers.Store.GetCurrentStore)

	products := router.Group("/products")
	{
		products.POST("", handlers.Catalog.CreateProduct)
		products.GET("", handlers.Catalog.ListProducts)
		products.GET("/:id", handlers.Catalog.GetProduct)
		products.PUT("/:id", handlers.Catalog.UpdateProduct)
		products.DELETE("/:id", handlers.Catalog.DeleteProduct)
		products.POST("/:id/skus", handlers.Catalog.CreateSKU)
		products.GET("/:id/skus", handlers.Catalog.ListSKUs)
	}

	skus := router.Group("/skus")
	{
		skus.POST("", handlers.Catalog.CreateSKU)
		skus.GET("/:id", handlers.Catalog.GetSKU)
		skus.PUT("/:id", handlers.Catalog.UpdateSKU)
	}

	customers := router.Group("/customers")
	{
		customers.POST("", handlers.Customer.CreateCustomer)
		customers.GET("", handlers.Customer.ListCustomers)
		customers.GET("/:id", handlers.Customer.GetCustomer)
		customers.PUT("/:id", handlers.Customer.UpdateCustomer)
		customers.DELETE("/:id", handlers.Customer.DeleteCustomer)
		customers.GET("/:id/invoices", handlers.Invoice.GetCustomerInvoices)
	}

	invoices := router.Group("/invoices")
	{
		invoices.POST("", handlers.Invoice.CreateInvoice)
		invoices.GET("", handlers.Invoice.ListInvoices)
		invoices.GET("/number/:number", handlers.Invoice.GetInvoiceByNumber)
		invoices.GET("/:id", handlers.Invoice.GetInvoice)
		invoices.POST("/:id/payment", handlers.Payment.RecordPaymentDelta)
		invoices.POST("/:id/payments", handlers.Payment.AddPayment)
	}
}
