package service

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/tillpoint/tillpoint/internal/api/dto"
	"github.com/tillpoint/tillpoint/internal/domain/catalog"
	"github.com/tillpoint/tillpoint/internal/domain/invoice"
	"github.com/tillpoint/tillpoint/internal/domain/store"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/types"
)

type InvoiceService interface {
	CreateInvoice(ctx context.Context, storeID string, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, storeID, id string) (*dto.InvoiceResponse, error)
	GetInvoiceByNumber(ctx context.Context, storeID, invoiceNumber string) (*dto.InvoiceResponse, error)
	GetInvoicesByCustomer(ctx context.Context, storeID, customerID string) ([]*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, storeID string, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error)
}

type invoiceService struct {
	ServiceParams
}

func NewInvoiceService(params ServiceParams) InvoiceService {
	return &invoiceService{
		ServiceParams: params,
	}
}

// errIdempotentReplay aborts a creation that lost the race for its idempotency key
var errIdempotentReplay = ierr.NewError("idempotent replay").
	Mark(ierr.ErrAlreadyExists)

// CreateInvoice prices the requested SKUs, reserves their stock and stores a
// numbered invoice. Either all of it happens or none of it does.
func (s *invoiceService) CreateInvoice(ctx context.Context, storeID string, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	st, err := NewStoreService(s.ServiceParams).GetStore(ctx, storeID)
	if err != nil {
		return nil, err
	}

	if _, err := s.CustomerRepo.Get(ctx, storeID, req.CustomerID); err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.NewReferenceNotFound("customer", req.CustomerID)
		}
		return nil, err
	}

	if req.IdempotencyKey != nil {
		existing, err := s.InvoiceRepo.GetByIdempotencyKey(ctx, storeID, *req.IdempotencyKey)
		if err == nil {
			s.Logger.Infow("returning existing invoice for idempotency key",
				"store_id", storeID,
				"invoice_id", existing.ID,
			)
			return dto.NewInvoiceResponse(existing), nil
		}
		if !ierr.IsNotFound(err) {
			return nil, err
		}
	}

	currency := types.NormalizeCurrency(req.Currency, lo.CoalesceOrEmpty(st.Currency, s.Config.Invoice.DefaultCurrency))
	inv := req.ToInvoice(ctx, storeID, currency)
	inv.ShippingAmount = types.RoundToCurrencyPrecision(inv.ShippingAmount, currency)
	inv.Adjustments = types.RoundToCurrencyPrecision(inv.Adjustments, currency)

	var replay *invoice.Invoice
	err = s.DB.WithTx(ctx, func(txCtx context.Context) (err error) {
		reservations := newStockReservations(s.CatalogRepo, s.Logger, storeID)
		defer func() {
			if err != nil {
				reservations.release(txCtx)
			}
		}()

		if err := s.priceLineItems(txCtx, storeID, inv, req.Items, reservations); err != nil {
			return err
		}

		s.applyInitialPayment(txCtx, inv, req)

		number, err := s.nextInvoiceNumber(txCtx, st.Store, inv.IssuedAt)
		if err != nil {
			return err
		}
		inv.InvoiceNumber = number

		if err := inv.Validate(); err != nil {
			s.reportInvariant(txCtx, storeID, err)
			return err
		}

		// savepoint so a duplicate key leaves the outer transaction usable
		createErr := s.DB.WithTx(txCtx, func(ctx context.Context) error {
			return s.InvoiceRepo.Create(ctx, inv)
		})
		if createErr == nil {
			return nil
		}
		if ierr.IsAlreadyExists(createErr) && inv.IdempotencyKey != nil {
			existing, getErr := s.InvoiceRepo.GetByIdempotencyKey(txCtx, storeID, *inv.IdempotencyKey)
			if getErr == nil {
				replay = existing
				return errIdempotentReplay
			}
		}
		return createErr
	})
	if err != nil {
		if replay != nil && ierr.Is(err, errIdempotentReplay) {
			s.Logger.Infow("concurrent create with same idempotency key, returning existing invoice",
				"store_id", storeID,
				"invoice_id", replay.ID,
			)
			return dto.NewInvoiceResponse(replay), nil
		}
		return nil, err
	}

	s.Logger.Infow("created invoice",
		"store_id", storeID,
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"total", inv.Total.String(),
		"line_items", len(inv.LineItems),
	)

	s.publishInvoiceEvent(ctx, types.WebhookEventInvoiceCreated, inv)

	return dto.NewInvoiceResponse(inv), nil
}

// priceLineItems resolves, prices and reserves every requested item in order
func (s *invoiceService) priceLineItems(ctx context.Context, storeID string, inv *invoice.Invoice, items []dto.CreateInvoiceItemRequest, reservations *stockReservations) error {
	var totals invoiceTotals
	lineItems := make(invoice.LineItems, 0, len(items))

	for _, item := range items {
		sku, product, err := s.resolveSKU(ctx, storeID, item.SKUID)
		if err != nil {
			return err
		}

		// fast fail with the details the caller needs; the conditional decrement below is authoritative
		if !sku.CanFulfill(item.Quantity) {
			return ierr.NewInsufficientStock(product.Name, sku.Code, sku.AvailableStock(), item.Quantity)
		}

		price, err := priceLine(sku.Price, item.Quantity, product.TaxRate, lo.FromPtr(item.Discount), inv.Currency)
		if err != nil {
			return err
		}
		totals.add(price)

		lineItems = append(lineItems, invoice.LineItem{
			SKUID:          sku.ID,
			ProductID:      product.ID,
			Title:          lineTitle(product.Name, sku.Code),
			Description:    product.Description,
			Quantity:       item.Quantity,
			UnitPrice:      sku.Price,
			TaxRate:        product.TaxRate,
			TaxAmount:      price.Tax,
			DiscountAmount: price.Discount,
			Total:          price.Total,
		})

		updated, err := s.CatalogRepo.DecrementStock(ctx, storeID, sku.ID, item.Quantity)
		if err != nil {
			if ierr.IsInsufficientStock(err) {
				available := int64(0)
				if updated != nil {
					available = updated.AvailableStock()
				}
				return ierr.NewInsufficientStock(product.Name, sku.Code, available, item.Quantity)
			}
			if ierr.IsNotFound(err) {
				return ierr.NewReferenceNotFound("sku", sku.ID)
			}
			return err
		}
		if updated.IsStockTracked() {
			reservations.push(sku.ID, item.Quantity)
		}
	}

	inv.LineItems = lineItems
	inv.SubTotal = totals.SubTotal
	inv.TotalTax = totals.TotalTax
	inv.TotalDiscount = totals.TotalDiscount
	inv.Total = totals.total(inv.ShippingAmount, inv.Adjustments)

	if inv.Total.IsNegative() {
		return ierr.NewError("invoice total must be non negative").
			WithHintf("Invoice total %s cannot be negative", inv.Total.String()).
			WithReportableDetails(map[string]any{
				"total": inv.Total.String(),
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}

// resolveSKU loads a SKU and its owning product
func (s *invoiceService) resolveSKU(ctx context.Context, storeID, skuID string) (*catalog.SKU, *catalog.Product, error) {
	sku, err := s.CatalogRepo.GetSKU(ctx, storeID, skuID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, nil, ierr.NewReferenceNotFound("sku", skuID)
		}
		return nil, nil, err
	}

	product, err := s.CatalogRepo.GetProduct(ctx, storeID, sku.ProductID)
	if err != nil {
		if ierr.IsNotFound(err) {
			violation := ierr.NewInvariantViolation("product", sku.ProductID, "referenced by sku "+sku.ID+" but does not exist")
			s.reportInvariant(ctx, storeID, violation)
			return nil, nil, violation
		}
		return nil, nil, err
	}

	return sku, product, nil
}

// applyInitialPayment records a payment taken at the point of sale
func (s *invoiceService) applyInitialPayment(ctx context.Context, inv *invoice.Invoice, req dto.CreateInvoiceRequest) {
	paid := types.RoundToCurrencyPrecision(req.GetPaidAmount(), inv.Currency)
	if paid.GreaterThan(inv.Total) {
		s.Logger.Infow("initial payment exceeds invoice total",
			"store_id", inv.StoreID,
			"paid_amount", paid.String(),
			"total", inv.Total.String(),
		)
	}

	payments := invoice.Payments{}
	if paid.IsPositive() {
		payments = payments.Append(invoice.Payment{
			ID:        types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_PAYMENT),
			Amount:    paid,
			Date:      inv.IssuedAt,
			Method:    req.GetPaymentMethod(),
			Note:      "initial payment",
			CreatedBy: types.GetUserID(ctx),
		})
	}

	inv.Apply(invoice.Settle(inv.Total, payments))
}

// nextInvoiceNumber takes the next counter value of the store's month
func (s *invoiceService) nextInvoiceNumber(ctx context.Context, st *store.Store, issuedAt time.Time) (string, error) {
	loc, err := time.LoadLocation(lo.CoalesceOrEmpty(st.Timezone, "UTC"))
	if err != nil {
		loc = time.UTC
	}
	period := invoice.SequencePeriod(issuedAt.In(loc))

	value, err := s.SequenceRepo.NextValue(ctx, st.ID, period)
	if err != nil {
		return "", err
	}
	return invoice.FormatInvoiceNumber(s.Config.Invoice.NumberPrefix, period, value), nil
}

func (s *invoiceService) reportInvariant(ctx context.Context, storeID string, err error) {
	s.Logger.Errorw("invariant violation",
		"store_id", storeID,
		"request_id", types.GetRequestID(ctx),
		"error", err,
	)
	s.Sentry.CaptureStoreException(ctx, storeID, err)
}

func (s *invoiceService) GetInvoice(ctx context.Context, storeID, id string) (*dto.InvoiceResponse, error) {
	if id == "" {
		return nil, ierr.NewError("invoice_id is required").
			WithHint("Invoice ID is required").
			Mark(ierr.ErrValidation)
	}

	inv, err := s.InvoiceRepo.Get(ctx, storeID, id)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.NewReferenceNotFound("invoice", id)
		}
		return nil, err
	}
	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) GetInvoiceByNumber(ctx context.Context, storeID, invoiceNumber string) (*dto.InvoiceResponse, error) {
	if invoiceNumber == "" {
		return nil, ierr.NewError("invoice_number is required").
			WithHint("Invoice number is required").
			Mark(ierr.ErrValidation)
	}

	inv, err := s.InvoiceRepo.GetByInvoiceNumber(ctx, storeID, invoiceNumber)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.NewReferenceNotFound("invoice", invoiceNumber)
		}
		return nil, err
	}
	return dto.NewInvoiceResponse(inv), nil
}

// GetInvoicesByCustomer returns a customer's invoices newest first
func (s *invoiceService) GetInvoicesByCustomer(ctx context.Context, storeID, customerID string) ([]*dto.InvoiceResponse, error) {
	if customerID == "" {
		return nil, ierr.NewError("customer_id is required").
			WithHint("Customer ID is required").
			Mark(ierr.ErrValidation)
	}

	invoices, err := s.InvoiceRepo.ListByCustomer(ctx, storeID, customerID)
	if err != nil {
		return nil, err
	}

	return lo.Map(invoices, func(inv *invoice.Invoice, _ int) *dto.InvoiceResponse {
		return dto.NewInvoiceResponse(inv)
	}), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, storeID string, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error) {
	if filter == nil {
		filter = types.NewInvoiceFilter()
	}

	if err := filter.Validate(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation)
	}

	invoices, err := s.InvoiceRepo.List(ctx, storeID, filter)
	if err != nil {
		return nil, err
	}

	total, err := s.InvoiceRepo.Count(ctx, storeID, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(invoices, func(inv *invoice.Invoice, _ int) *dto.InvoiceResponse {
		return dto.NewInvoiceResponse(inv)
	})

	response := types.NewListResponse(items, total, filter.GetLimit(), filter.GetOffset())
	return &response, nil
}
