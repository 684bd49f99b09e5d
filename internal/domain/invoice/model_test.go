package invoice

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/types"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validInvoice() *Invoice {
	inv := &Invoice{
		ID:       "inv_1",
		Currency: "usd",
		LineItems: LineItems{
			{Quantity: 2, UnitPrice: dec("10"), TaxAmount: dec("2"), DiscountAmount: dec("1"), Total: dec("21")},
		},
		SubTotal:       dec("20"),
		TotalTax:       dec("2"),
		TotalDiscount:  dec("1"),
		ShippingAmount: dec("5"),
		Adjustments:    dec("-1"),
		Total:          dec("25"),
	}
	inv.Apply(Settle(inv.Total, Payments{{Amount: dec("10")}}))
	return inv
}

func TestSettle(t *testing.T) {
	u := Settle(dec("100"), Payments{{Amount: dec("60")}, {Amount: dec("-10")}})
	assert.True(t, u.PaidAmount.Equal(dec("50")))
	assert.True(t, u.DueAmount.Equal(dec("50")))
	assert.Equal(t, types.PaymentStatusPartial, u.PaymentStatus)

	u = Settle(dec("100"), nil)
	assert.True(t, u.DueAmount.Equal(dec("100")))
	assert.Equal(t, types.PaymentStatusUnpaid, u.PaymentStatus)

	u = Settle(dec("0"), nil)
	assert.Equal(t, types.PaymentStatusPaid, u.PaymentStatus)

	u = Settle(dec("100"), Payments{{Amount: dec("120")}})
	assert.True(t, u.PaidAmount.Equal(dec("120")))
	assert.True(t, u.DueAmount.IsZero())
	assert.Equal(t, types.PaymentStatusPaid, u.PaymentStatus)
}

func TestValidate(t *testing.T) {
	require.NoError(t, validInvoice().Validate())

	inv := validInvoice()
	inv.Total = dec("26")
	err := inv.Validate()
	require.Error(t, err)
	assert.True(t, ierr.IsInvariantViolation(err))

	inv = validInvoice()
	inv.PaymentStatus = types.PaymentStatusPaid
	assert.Error(t, inv.Validate())

	inv = validInvoice()
	inv.PaidAmount = dec("11")
	inv.DueAmount = dec("14")
	assert.Error(t, inv.Validate())

	inv = validInvoice()
	inv.Apply(Settle(inv.Total, Payments{{Amount: dec("30")}}))
	assert.NoError(t, inv.Validate())

	inv.DueAmount = dec("-5")
	assert.Error(t, inv.Validate())
}

func TestPaymentsAppendDoesNotAlias(t *testing.T) {
	base := make(Payments, 1, 4)
	base[0] = Payment{Amount: dec("1")}

	a := base.Append(Payment{Amount: dec("2")})
	b := base.Append(Payment{Amount: dec("3")})

	assert.True(t, a[1].Amount.Equal(dec("2")))
	assert.True(t, b[1].Amount.Equal(dec("3")))
	assert.Len(t, base, 1)
}

func TestJSONBRoundTrip(t *testing.T) {
	items := LineItems{{SKUID: "sku_1", Title: "Tee (TEE-M)", Quantity: 3, UnitPrice: dec("9.99")}}
	v, err := items.Value()
	require.NoError(t, err)

	var scanned LineItems
	require.NoError(t, scanned.Scan(v))
	require.Len(t, scanned, 1)
	assert.Equal(t, "Tee (TEE-M)", scanned[0].Title)
	assert.True(t, scanned[0].UnitPrice.Equal(dec("9.99")))

	var empty Payments
	require.NoError(t, empty.Scan(nil))
	assert.NotNil(t, empty)
}

func TestFormatInvoiceNumber(t *testing.T) {
	period := SequencePeriod(time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "202610", period)
	assert.Equal(t, "INV-202610-00042", FormatInvoiceNumber("INV", period, 42))
}
