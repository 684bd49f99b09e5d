package customer

import (
	"github.com/tillpoint/tillpoint/internal/types"
)

// Customer is the billed party of an invoice
type Customer struct {
	ID         string         `db:"id" json:"id"`
	ExternalID string         `db:"external_id" json:"external_id"`
	Name       string         `db:"name" json:"name"`
	Email      string         `db:"email" json:"email"`
	Phone      string         `db:"phone" json:"phone"`
	Address    types.Metadata `db:"address" json:"address,omitempty"`
	types.BaseModel
}
