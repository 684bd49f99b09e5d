package service

import (
	"context"

	"github.com/samber/lo"
	"github.com/tillpoint/tillpoint/internal/api/dto"
	"github.com/tillpoint/tillpoint/internal/domain/customer"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/types"
)

type CustomerService interface {
	CreateCustomer(ctx context.Context, storeID string, req dto.CreateCustomerRequest) (*dto.CustomerResponse, error)
	GetCustomer(ctx context.Context, storeID, id string) (*dto.CustomerResponse, error)
	ListCustomers(ctx context.Context, storeID string, filter *types.CustomerFilter) (*dto.ListCustomersResponse, error)
	UpdateCustomer(ctx context.Context, storeID, id string, req dto.UpdateCustomerRequest) (*dto.CustomerResponse, error)
	DeleteCustomer(ctx context.Context, storeID, id string) error
}

type customerService struct {
	ServiceParams
}

func NewCustomerService(params ServiceParams) CustomerService {
	return &customerService{
		ServiceParams: params,
	}
}

func (s *customerService) CreateCustomer(ctx context.Context, storeID string, req dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := NewStoreService(s.ServiceParams).GetStore(ctx, storeID); err != nil {
		return nil, err
	}

	cust := req.ToCustomer(ctx, storeID)
	if err := s.CustomerRepo.Create(ctx, cust); err != nil {
		return nil, err
	}

	return &dto.CustomerResponse{Customer: cust}, nil
}

func (s *customerService) GetCustomer(ctx context.Context, storeID, id string) (*dto.CustomerResponse, error) {
	if id == "" {
		return nil, ierr.NewError("customer_id is required").
			WithHint("Customer ID is required").
			Mark(ierr.ErrValidation)
	}

	cust, err := s.CustomerRepo.Get(ctx, storeID, id)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.NewReferenceNotFound("customer", id)
		}
		return nil, err
	}

	return &dto.CustomerResponse{Customer: cust}, nil
}

func (s *customerService) ListCustomers(ctx context.Context, storeID string, filter *types.CustomerFilter) (*dto.ListCustomersResponse, error) {
	if filter == nil {
		filter = types.NewCustomerFilter()
	}

	if err := filter.Validate(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation)
	}

	customers, err := s.CustomerRepo.List(ctx, storeID, filter)
	if err != nil {
		return nil, err
	}

	total, err := s.CustomerRepo.Count(ctx, storeID, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(customers, func(c *customer.Customer, _ int) *dto.CustomerResponse {
		return &dto.CustomerResponse{Customer: c}
	})

	response := types.NewListResponse(items, total, filter.GetLimit(), filter.GetOffset())
	return &response, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, storeID, id string, req dto.UpdateCustomerRequest) (*dto.CustomerResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cust, err := s.CustomerRepo.Get(ctx, storeID, id)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.NewReferenceNotFound("customer", id)
		}
		return nil, err
	}

	req.Apply(ctx, cust)
	if err := s.CustomerRepo.Update(ctx, cust); err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.NewReferenceNotFound("customer", id)
		}
		return nil, err
	}

	return &dto.CustomerResponse{Customer: cust}, nil
}

// DeleteCustomer hides a customer from reads. Their invoices stay listed.
func (s *customerService) DeleteCustomer(ctx context.Context, storeID, id string) error {
	if err := s.CustomerRepo.Delete(ctx, storeID, id); err != nil {
		if ierr.IsNotFound(err) {
			return ierr.NewReferenceNotFound("customer", id)
		}
		return err
	}

	s.Logger.Infow("deleted customer", "store_id", storeID, "customer_id", id)
	return nil
}
