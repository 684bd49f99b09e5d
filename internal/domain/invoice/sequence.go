package invoice

import (
	"fmt"
	"time"
)

// InvoiceSequence is a store's invoice number counter for one month
type InvoiceSequence struct {
	StoreID   string    `db:"store_id"`
	YearMonth string    `db:"year_month"`
	LastValue int64     `db:"last_value"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// SequencePeriod returns the counter period of a timestamp, e.g. 202610
func SequencePeriod(t time.Time) string {
	return t.Format("200601")
}

// FormatInvoiceNumber renders a number such as INV-202610-00001
func FormatInvoiceNumber(prefix, period string, value int64) string {
	return fmt.Sprintf("%s-%s-%05d", prefix, period, value)
}
