package dto

import (
	"time"

	"github.com/tillpoint/tillpoint/internal/domain/store"
	"github.com/tillpoint/tillpoint/internal/types"
	"github.com/tillpoint/tillpoint/internal/validator"
)

type CreateStoreRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Slug     string `json:"slug" validate:"required,max=100,lowercase"`
	Currency string `json:"currency" validate:"omitempty,currency"`
	Timezone string `json:"timezone" validate:"omitempty,timezone"`
}

func (r *CreateStoreRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *CreateStoreRequest) ToStore(defaultCurrency string) *store.Store {
	now := time.Now().UTC()
	timezone := r.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	return &store.Store{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_STORE),
		Name:      r.Name,
		Slug:      r.Slug,
		Currency:  types.NormalizeCurrency(r.Currency, defaultCurrency),
		Timezone:  timezone,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type StoreResponse struct {
	*store.Store
}
