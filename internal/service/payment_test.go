package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/tillpoint/tillpoint/internal/api/dto"
	"github.com/tillpoint/tillpoint/internal/domain/invoice"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/testutil"
	"github.com/tillpoint/tillpoint/internal/types"
)

type PaymentServiceSuite struct {
	testutil.BaseServiceTestSuite
	invoices InvoiceService
	service  PaymentService
	testData catalogFixture
	invoice  *dto.InvoiceResponse
}

func TestPaymentService(t *testing.T) {
	suite.Run(t, new(PaymentServiceSuite))
}

func (s *PaymentServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := newTestParams(&s.BaseServiceTestSuite)
	s.invoices = NewInvoiceService(params)
	s.service = NewPaymentService(params)
	s.testData = seedCatalog(&s.BaseServiceTestSuite, "main")

	// 59.00 invoice: 2 x TS-BLK-L at 20.00 + 10% tax, 1 x EB-001 at 15.00
	var err error
	s.invoice, err = s.invoices.CreateInvoice(s.GetContext(), s.storeID(), dto.CreateInvoiceRequest{
		CustomerID: s.testData.customer.ID,
		Items: []dto.CreateInvoiceItemRequest{
			{SKUID: s.testData.tsBlkL.ID, Quantity: 2},
			{SKUID: s.testData.eb001.ID, Quantity: 1},
		},
	})
	s.Require().NoError(err)
	s.Require().True(dec("59.00").Equal(s.invoice.Total))
	s.GetPublisher().Clear()
}

func (s *PaymentServiceSuite) storeID() string {
	return s.testData.store.ID
}

func (s *PaymentServiceSuite) assertConsistent(resp *dto.InvoiceResponse) {
	s.True(resp.PaidAmount.Add(resp.DueAmount).Equal(decimal.Max(resp.Total, resp.PaidAmount)),
		"paid %s + due %s does not settle total %s", resp.PaidAmount, resp.DueAmount, resp.Total)
	s.False(resp.DueAmount.IsNegative())
	s.True(resp.PaidAmount.Equal(resp.Payments.Sum()))
	s.Equal(types.DerivePaymentStatus(resp.PaidAmount, resp.DueAmount), resp.PaymentStatus)
	s.NoError(resp.Invoice.Validate())
}

func (s *PaymentServiceSuite) TestRecordPaymentDeltaFullPayment() {
	resp, err := s.service.RecordPaymentDelta(s.GetContext(), s.storeID(), s.invoice.ID, dec("59.00"))
	s.Require().NoError(err)

	s.True(dec("59.00").Equal(resp.PaidAmount))
	s.True(dec("0.00").Equal(resp.DueAmount))
	s.Equal(types.PaymentStatusPaid, resp.PaymentStatus)
	s.Equal(types.InvoiceStatusDraft, resp.InvoiceStatus)
	s.Equal(s.invoice.Version+1, resp.Version)
	s.Require().Len(resp.Payments, 1)
	s.Equal(types.PaymentMethodAdjustment, resp.Payments[0].Method)
	s.assertConsistent(resp)

	events := s.GetPublisher().EventsNamed(types.WebhookEventInvoicePaymentRecorded)
	s.Require().Len(events, 1)
	s.Equal(s.storeID(), events[0].StoreID)
}

func (s *PaymentServiceSuite) TestRecordPaymentDeltaPartialPayment() {
	resp, err := s.service.RecordPaymentDelta(s.GetContext(), s.storeID(), s.invoice.ID, dec("30.00"))
	s.Require().NoError(err)

	s.True(dec("30.00").Equal(resp.PaidAmount))
	s.True(dec("29.00").Equal(resp.DueAmount))
	s.Equal(types.PaymentStatusPartial, resp.PaymentStatus)
	s.assertConsistent(resp)
}

func (s *PaymentServiceSuite) TestRecordPaymentDeltaAccumulates() {
	ctx := s.GetContext()
	_, err := s.service.RecordPaymentDelta(ctx, s.storeID(), s.invoice.ID, dec("30.00"))
	s.Require().NoError(err)

	resp, err := s.service.RecordPaymentDelta(ctx, s.storeID(), s.invoice.ID, dec("29.00"))
	s.Require().NoError(err)
	s.True(dec("59.00").Equal(resp.PaidAmount))
	s.Equal(types.PaymentStatusPaid, resp.PaymentStatus)

	resp, err = s.service.RecordPaymentDelta(ctx, s.storeID(), s.invoice.ID, dec("-9.00"))
	s.Require().NoError(err)
	s.True(dec("50.00").Equal(resp.PaidAmount))
	s.True(dec("9.00").Equal(resp.DueAmount))
	s.Equal(types.PaymentStatusPartial, resp.PaymentStatus)
	s.Len(resp.Payments, 3)
	s.assertConsistent(resp)
}

func (s *PaymentServiceSuite) TestAddPaymentEventSumsHistory() {
	ctx := s.GetContext()
	resp, err := s.service.AddPaymentEvent(ctx, s.storeID(), s.invoice.ID, dto.AddPaymentRequest{
		Amount: dec("20"),
		Method: types.PaymentMethodCash,
		Note:   "deposit",
	})
	s.Require().NoError(err)
	s.Equal(types.PaymentStatusPartial, resp.PaymentStatus)

	resp, err = s.service.AddPaymentEvent(ctx, s.storeID(), s.invoice.ID, dto.AddPaymentRequest{
		Amount: dec("39"),
		Method: types.PaymentMethodCard,
	})
	s.Require().NoError(err)

	s.True(dec("59").Equal(resp.PaidAmount))
	s.True(resp.DueAmount.IsZero())
	s.Equal(types.PaymentStatusPaid, resp.PaymentStatus)
	s.Require().Len(resp.Payments, 2)
	s.Equal("deposit", resp.Payments[0].Note)
	s.Equal(types.PaymentMethodCard, resp.Payments[1].Method)
	s.assertConsistent(resp)
}

func (s *PaymentServiceSuite) TestAddPaymentEventRefundMovesStatusBack() {
	ctx := s.GetContext()
	_, err := s.service.AddPaymentEvent(ctx, s.storeID(), s.invoice.ID, dto.AddPaymentRequest{
		Amount: dec("59"),
		Method: types.PaymentMethodCard,
	})
	s.Require().NoError(err)

	resp, err := s.service.AddPaymentEvent(ctx, s.storeID(), s.invoice.ID, dto.AddPaymentRequest{
		Amount: dec("-59"),
		Method: types.PaymentMethodCard,
		Note:   "refund",
	})
	s.Require().NoError(err)
	s.True(resp.PaidAmount.IsZero())
	s.True(dec("59").Equal(resp.DueAmount))
	s.Equal(types.PaymentStatusUnpaid, resp.PaymentStatus)
	s.assertConsistent(resp)
}

func (s *PaymentServiceSuite) TestAddPaymentEventWithReferenceIsIdempotent() {
	ctx := s.GetContext()
	req := dto.AddPaymentRequest{
		Amount:    dec("10"),
		Method:    types.PaymentMethodUPI,
		Reference: lo.ToPtr("upi-txn-42"),
	}

	first, err := s.service.AddPaymentEvent(ctx, s.storeID(), s.invoice.ID, req)
	s.Require().NoError(err)
	second, err := s.service.AddPaymentEvent(ctx, s.storeID(), s.invoice.ID, req)
	s.Require().NoError(err)

	s.Equal(first.Version, second.Version)
	s.Len(second.Payments, 1)
	s.True(dec("10").Equal(second.PaidAmount))
	s.Len(s.GetPublisher().EventsNamed(types.WebhookEventInvoicePaymentRecorded), 1)
}

func (s *PaymentServiceSuite) TestPaymentRejections() {
	tests := []struct {
		name  string
		run   func() error
		check func(error) bool
	}{
		{
			name: "zero delta",
			run: func() error {
				_, err := s.service.RecordPaymentDelta(s.GetContext(), s.storeID(), s.invoice.ID, decimal.Zero)
				return err
			},
			check: ierr.IsValidation,
		},
		{
			name: "paid below zero",
			run: func() error {
				_, err := s.service.RecordPaymentDelta(s.GetContext(), s.storeID(), s.invoice.ID, dec("-0.01"))
				return err
			},
			check: ierr.IsValidation,
		},
		{
			name: "delta below a cent",
			run: func() error {
				_, err := s.service.RecordPaymentDelta(s.GetContext(), s.storeID(), s.invoice.ID, dec("0.004"))
				return err
			},
			check: ierr.IsValidation,
		},
		{
			name: "payment event below a cent",
			run: func() error {
				_, err := s.service.AddPaymentEvent(s.GetContext(), s.storeID(), s.invoice.ID, dto.AddPaymentRequest{
					Amount:    dec("-0.004"),
					Method:    types.PaymentMethodCash,
					Reference: lo.ToPtr("dust-1"),
				})
				return err
			},
			check: ierr.IsValidation,
		},
		{
			name: "invalid method",
			run: func() error {
				_, err := s.service.AddPaymentEvent(s.GetContext(), s.storeID(), s.invoice.ID, dto.AddPaymentRequest{
					Amount: dec("1"),
					Method: types.PaymentMethod("cheque"),
				})
				return err
			},
			check: ierr.IsValidation,
		},
		{
			name: "zero payment event",
			run: func() error {
				_, err := s.service.AddPaymentEvent(s.GetContext(), s.storeID(), s.invoice.ID, dto.AddPaymentRequest{
					Method: types.PaymentMethodCash,
				})
				return err
			},
			check: ierr.IsValidation,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			err := tt.run()
			s.Require().Error(err)
			s.True(tt.check(err), "unexpected error %v", err)
		})
	}

	stored, err := s.invoices.GetInvoice(s.GetContext(), s.storeID(), s.invoice.ID)
	s.Require().NoError(err)
	s.Equal(s.invoice.Version, stored.Version)
	s.True(stored.PaidAmount.IsZero())
	s.Empty(s.GetPublisher().GetEvents())
}

func (s *PaymentServiceSuite) TestOverpaymentLeavesNothingDue() {
	ctx := s.GetContext()

	resp, err := s.service.RecordPaymentDelta(ctx, s.storeID(), s.invoice.ID, dec("70"))
	s.Require().NoError(err)
	s.True(dec("70").Equal(resp.PaidAmount))
	s.True(resp.DueAmount.IsZero())
	s.Equal(types.PaymentStatusPaid, resp.PaymentStatus)
	s.assertConsistent(resp)

	resp, err = s.service.AddPaymentEvent(ctx, s.storeID(), s.invoice.ID, dto.AddPaymentRequest{
		Amount: dec("-11"),
		Method: types.PaymentMethodAdjustment,
		Note:   "refund excess",
	})
	s.Require().NoError(err)
	s.True(dec("59").Equal(resp.PaidAmount))
	s.Equal(types.PaymentStatusPaid, resp.PaymentStatus)
	s.assertConsistent(resp)

	resp, err = s.service.RecordPaymentDelta(ctx, s.storeID(), s.invoice.ID, dec("-1"))
	s.Require().NoError(err)
	s.True(dec("1").Equal(resp.DueAmount))
	s.Equal(types.PaymentStatusPartial, resp.PaymentStatus)
	s.assertConsistent(resp)

	s.Len(s.GetPublisher().EventsNamed(types.WebhookEventInvoicePaymentRecorded), 3)
}

func (s *PaymentServiceSuite) TestPaymentIsStoreScoped() {
	other := seedCatalog(&s.BaseServiceTestSuite, "other")

	_, err := s.service.RecordPaymentDelta(s.GetContext(), other.store.ID, s.invoice.ID, dec("10"))
	s.Require().Error(err)
	var refErr *ierr.ReferenceNotFoundError
	s.Require().True(ierr.As(err, &refErr))
	s.Equal("invoice", refErr.Entity)

	_, err = s.service.AddPaymentEvent(s.GetContext(), s.storeID(), "inv_missing", dto.AddPaymentRequest{
		Amount: dec("10"),
		Method: types.PaymentMethodCash,
	})
	s.True(ierr.IsNotFound(err))
}

func (s *PaymentServiceSuite) TestConcurrentPaymentsAreNotLost() {
	cfg := *s.GetConfig()
	cfg.Invoice.PaymentMaxRetries = 100
	params := newTestParams(&s.BaseServiceTestSuite)
	params.Config = &cfg
	svc := NewPaymentService(params)

	const workers = 10
	var wg sync.WaitGroup
	var failures atomic.Int64
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.RecordPaymentDelta(s.GetContext(), s.storeID(), s.invoice.ID, dec("1.00")); err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int64(0), failures.Load())
	stored, err := s.invoices.GetInvoice(s.GetContext(), s.storeID(), s.invoice.ID)
	s.Require().NoError(err)
	s.True(dec("10.00").Equal(stored.PaidAmount), "paid %s", stored.PaidAmount)
	s.Len(stored.Payments, workers)
	s.Equal(s.invoice.Version+workers, stored.Version)
	s.assertConsistent(stored)
}

// racingInvoiceRepo lets another writer land a payment right before each of
// the first n updates, forcing a version conflict
type racingInvoiceRepo struct {
	*testutil.InMemoryInvoiceStore
	races atomic.Int64
	calls atomic.Int64
}

func (r *racingInvoiceRepo) UpdatePayment(ctx context.Context, storeID, id string, expectedVersion int, update invoice.PaymentUpdate) (*invoice.Invoice, error) {
	r.calls.Add(1)
	if r.races.Add(-1) >= 0 {
		current, err := r.InMemoryInvoiceStore.Get(ctx, storeID, id)
		if err != nil {
			return nil, err
		}
		payments := current.Payments.Append(invoice.Payment{
			ID:     types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_PAYMENT),
			Amount: decimal.NewFromInt(1),
			Method: types.PaymentMethodCash,
		})
		if _, err := r.InMemoryInvoiceStore.UpdatePayment(ctx, storeID, id, current.Version, invoice.Settle(current.Total, payments)); err != nil {
			return nil, err
		}
	}
	return r.InMemoryInvoiceStore.UpdatePayment(ctx, storeID, id, expectedVersion, update)
}

func (s *PaymentServiceSuite) TestVersionConflictIsRetried() {
	repo := &racingInvoiceRepo{InMemoryInvoiceStore: s.GetStores().InvoiceRepo}
	repo.races.Store(2)

	params := newTestParams(&s.BaseServiceTestSuite)
	params.InvoiceRepo = repo
	svc := NewPaymentService(params)

	resp, err := svc.RecordPaymentDelta(s.GetContext(), s.storeID(), s.invoice.ID, dec("5.00"))
	s.Require().NoError(err)

	s.Equal(int64(3), repo.calls.Load())
	// two racing payments of 1.00 plus ours
	s.True(dec("7.00").Equal(resp.PaidAmount), "paid %s", resp.PaidAmount)
	s.Len(resp.Payments, 3)
	s.assertConsistent(resp)
}

func (s *PaymentServiceSuite) TestVersionConflictGivesUpAfterMaxRetries() {
	repo := &racingInvoiceRepo{InMemoryInvoiceStore: s.GetStores().InvoiceRepo}
	repo.races.Store(1000)

	cfg := *s.GetConfig()
	cfg.Invoice.PaymentMaxRetries = 2
	params := newTestParams(&s.BaseServiceTestSuite)
	params.Config = &cfg
	params.InvoiceRepo = repo
	svc := NewPaymentService(params)

	_, err := svc.RecordPaymentDelta(s.GetContext(), s.storeID(), s.invoice.ID, dec("5.00"))
	s.Require().Error(err)
	s.True(ierr.IsVersionConflict(err))
	s.Equal(int64(3), repo.calls.Load())
}
