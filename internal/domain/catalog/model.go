package catalog

import (
	"database/sql/driver"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"github.com/tillpoint/tillpoint/internal/types"
)

// Product is a sellable item of a store. Its tax rate is a percentage from 0 to 100.
type Product struct {
	ID          string            `db:"id" json:"id"`
	Name        string            `db:"name" json:"name"`
	Description string            `db:"description" json:"description"`
	Type        types.ProductType `db:"type" json:"type"`
	TaxRate     decimal.Decimal   `db:"tax_rate" json:"tax_rate"`
	types.BaseModel
}

// SKU is a purchasable variant of a product.
// A nil Stock means stock is not tracked and any quantity can be sold.
type SKU struct {
	ID         string          `db:"id" json:"id"`
	ProductID  string          `db:"product_id" json:"product_id"`
	Code       string          `db:"code" json:"code"`
	Price      decimal.Decimal `db:"price" json:"price"`
	Currency   string          `db:"currency" json:"currency"`
	Stock      *int64          `db:"stock" json:"stock"`
	Attributes Attributes      `db:"attributes" json:"attributes,omitempty"`
	Version    int             `db:"version" json:"version"`
	types.BaseModel
}

// IsStockTracked reports whether the SKU has a finite stock level
func (s *SKU) IsStockTracked() bool {
	return s.Stock != nil
}

// AvailableStock returns the tracked stock level, zero when untracked
func (s *SKU) AvailableStock() int64 {
	if s.Stock == nil {
		return 0
	}
	return *s.Stock
}

// CanFulfill reports whether the SKU can cover quantity units
func (s *SKU) CanFulfill(quantity int64) bool {
	return s.Stock == nil || *s.Stock >= quantity
}

// Attributes are variant descriptors such as size or colour
type Attributes map[string]string

// Scan implements the sql.Scanner interface for Attributes
func (a *Attributes) Scan(value interface{}) error {
	if value == nil {
		*a = make(Attributes)
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to unmarshal JSONB value: %v", value)
	}

	result := make(Attributes)
	err := jsoniter.Unmarshal(bytes, &result)
	*a = result
	return err
}

// Value implements the driver.Valuer interface for Attributes
func (a Attributes) Value() (driver.Value, error) {
	if a == nil {
		return jsoniter.Marshal(make(Attributes))
	}
	return jsoniter.Marshal(a)
}
