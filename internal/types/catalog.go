package types

import (
	"github.com/samber/lo"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
)

// ProductType classifies what a product sells
type ProductType string

const (
	ProductTypePhysical ProductType = "physical"
	ProductTypeDigital  ProductType = "digital"
	ProductTypeService  ProductType = "service"
)

func (t ProductType) Validate() error {
	allowed := []ProductType{
		ProductTypePhysical,
		ProductTypeDigital,
		ProductTypeService,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid product type").
			WithHint("Please provide a valid product type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ProductFilter represents the filter options for listing products
type ProductFilter struct {
	*QueryFilter

	ProductIDs []string `json:"product_ids,omitempty" form:"product_ids"`
	Status     *Status  `json:"status,omitempty" form:"status"`
}

func NewProductFilter() *ProductFilter {
	return &ProductFilter{QueryFilter: NewDefaultQueryFilter()}
}

func (f ProductFilter) Validate() error {
	if f.QueryFilter != nil {
		if err := f.QueryFilter.Validate(); err != nil {
			return err
		}
	}
	if f.Status != nil {
		return f.Status.Validate()
	}
	return nil
}

func (f *ProductFilter) GetLimit() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetLimit()
	}
	return f.QueryFilter.GetLimit()
}

func (f *ProductFilter) GetOffset() int {
	if f.QueryFilter == nil {
		return 0
	}
	return f.QueryFilter.GetOffset()
}

func (f *ProductFilter) GetSort() string {
	if f.QueryFilter == nil {
		return FILTER_DEFAULT_SORT
	}
	return f.QueryFilter.GetSort()
}

func (f *ProductFilter) GetOrder() string {
	if f.QueryFilter == nil {
		return FILTER_DEFAULT_ORDER
	}
	return f.QueryFilter.GetOrder()
}

func (f *ProductFilter) IsUnlimited() bool {
	if f.QueryFilter == nil {
		return false
	}
	return f.QueryFilter.IsUnlimited()
}

// CustomerFilter represents the filter options for listing customers
type CustomerFilter struct {
	*QueryFilter

	ExternalID string `json:"external_id,omitempty" form:"external_id"`
	Email      string `json:"email,omitempty" form:"email"`
}

func NewCustomerFilter() *CustomerFilter {
	return &CustomerFilter{QueryFilter: NewDefaultQueryFilter()}
}

func (f CustomerFilter) Validate() error {
	if f.QueryFilter != nil {
		return f.QueryFilter.Validate()
	}
	return nil
}

func (f *CustomerFilter) GetLimit() int {
	if f.QueryFilter == nil {
		return NewDefaultQueryFilter().GetLimit()
	}
	return f.QueryFilter.GetLimit()
}

func (f *CustomerFilter) GetOffset() int {
	if f.QueryFilter == nil {
		return 0
	}
	return f.QueryFilter.GetOffset()
}

func (f *CustomerFilter) GetSort() string {
	if f.QueryFilter == nil {
		return FILTER_DEFAULT_SORT
	}
	return f.QueryFilter.GetSort()
}

func (f *CustomerFilter) GetOrder() string {
	if f.QueryFilter == nil {
		return FILTER_DEFAULT_ORDER
	}
	return f.QueryFilter.GetOrder()
}

func (f *CustomerFilter) IsUnlimited() bool {
	if f.QueryFilter == nil {
		return false
	}
	return f.QueryFilter.IsUnlimited()
}
