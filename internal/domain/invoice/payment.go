package invoice

import (
	"database/sql/driver"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"github.com/tillpoint/tillpoint/internal/types"
)

// Payment is one entry of an invoice's payment history. Negative amounts are
// refunds or corrections.
type Payment struct {
	ID        string              `json:"id"`
	Amount    decimal.Decimal     `json:"amount"`
	Date      time.Time           `json:"date"`
	Method    types.PaymentMethod `json:"method"`
	Note      string              `json:"note,omitempty"`
	CreatedBy string              `json:"created_by,omitempty"`
}

// Payments is stored as a JSONB array in the order events were recorded
type Payments []Payment

// Sum returns the net amount of all payment events
func (p Payments) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, payment := range p {
		total = total.Add(payment.Amount)
	}
	return total
}

// Append returns a new history with the payment added at the end
func (p Payments) Append(payment Payment) Payments {
	out := make(Payments, 0, len(p)+1)
	out = append(out, p...)
	return append(out, payment)
}

// Scan implements the sql.Scanner interface for Payments
func (p *Payments) Scan(value interface{}) error {
	if value == nil {
		*p = Payments{}
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to unmarshal JSONB value: %v", value)
	}

	var result Payments
	if err := jsoniter.Unmarshal(bytes, &result); err != nil {
		return err
	}
	*p = result
	return nil
}

// Value implements the driver.Valuer interface for Payments
func (p Payments) Value() (driver.Value, error) {
	if p == nil {
		return jsoniter.Marshal(Payments{})
	}
	return jsoniter.Marshal(p)
}
