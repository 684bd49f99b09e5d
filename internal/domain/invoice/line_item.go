package invoice

import (
	"database/sql/driver"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

// LineItem is a priced snapshot of one requested SKU. It is never re-derived
// from the catalog after the invoice is created.
type LineItem struct {
	SKUID          string          `json:"sku_id"`
	ProductID      string          `json:"product_id"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	Quantity       int64           `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
}

// LineItems is stored as a JSONB array in insertion order
type LineItems []LineItem

// Scan implements the sql.Scanner interface for LineItems
func (l *LineItems) Scan(value interface{}) error {
	if value == nil {
		*l = LineItems{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to unmarshal JSONB value: %v", value)
	}

	var result LineItems
	if err := jsoniter.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*l = result
	return nil
}

// Value implements the driver.Valuer interface for LineItems
func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return jsoniter.Marshal(LineItems{})
	}
	return jsoniter.Marshal(l)
}
