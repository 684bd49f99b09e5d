package dto

import (
	"context"
	"time"

	"github.com/tillpoint/tillpoint/internal/domain/customer"
	"github.com/tillpoint/tillpoint/internal/types"
	"github.com/tillpoint/tillpoint/internal/validator"
)

type CreateCustomerRequest struct {
	ExternalID string         `json:"external_id" validate:"omitempty,max=255"`
	Name       string         `json:"name" validate:"required,max=255"`
	Email      string         `json:"email" validate:"omitempty,email"`
	Phone      string         `json:"phone" validate:"omitempty,max=50"`
	Address    types.Metadata `json:"address,omitempty"`
}

// UpdateCustomerRequest changes the listed fields of a customer
type UpdateCustomerRequest struct {
	ExternalID *string        `json:"external_id,omitempty" validate:"omitempty,max=255"`
	Name       *string        `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Email      *string        `json:"email,omitempty" validate:"omitempty,email"`
	Phone      *string        `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address    types.Metadata `json:"address,omitempty"`
}

func (r *UpdateCustomerRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// Apply copies the requested changes onto c
func (r *UpdateCustomerRequest) Apply(ctx context.Context, c *customer.Customer) {
	if r.ExternalID != nil {
		c.ExternalID = *r.ExternalID
	}
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Email != nil {
		c.Email = *r.Email
	}
	if r.Phone != nil {
		c.Phone = *r.Phone
	}
	if r.Address != nil {
		c.Address = r.Address
	}
	c.UpdatedAt = time.Now().UTC()
	c.UpdatedBy = types.GetUserID(ctx)
}

type CustomerResponse struct {
	*customer.Customer
}

// ListCustomersResponse represents the response for listing customers
type ListCustomersResponse = types.ListResponse[*CustomerResponse]

func (r *CreateCustomerRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *CreateCustomerRequest) ToCustomer(ctx context.Context, storeID string) *customer.Customer {
	return &customer.Customer{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CUSTOMER),
		ExternalID: r.ExternalID,
		Name:       r.Name,
		Email:      r.Email,
		Phone:      r.Phone,
		Address:    r.Address,
		BaseModel:  types.GetDefaultBaseModel(ctx, storeID),
	}
}
