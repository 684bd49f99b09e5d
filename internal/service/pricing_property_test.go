package service

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/tillpoint/tillpoint/internal/domain/invoice"
	"github.com/tillpoint/tillpoint/internal/types"
)

// cents turns a generated minor-unit amount into a decimal
func cents(v int64) decimal.Decimal {
	return decimal.New(v, -2)
}

func isRounded(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

func TestPriceLineProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("line total is subtotal plus tax minus discount", prop.ForAll(
		func(price, qty, rate, discount int64) bool {
			gross, err := priceLine(cents(price), qty, decimal.New(rate, -1), decimal.Zero, "usd")
			if err != nil {
				return false
			}
			line, err := priceLine(cents(price), qty, decimal.New(rate, -1), cents(discount), "usd")
			if cents(discount).GreaterThan(gross.Total) {
				return err != nil
			}
			if err != nil {
				return false
			}
			return line.Total.Equal(line.Subtotal.Add(line.Tax).Sub(line.Discount)) &&
				!line.Total.IsNegative()
		},
		gen.Int64Range(0, 1_000_000),
		gen.Int64Range(1, 500),
		gen.Int64Range(0, 1000),
		gen.Int64Range(0, 50_000),
	))

	properties.Property("every line amount is rounded to the minor unit", prop.ForAll(
		func(price, qty, rate int64) bool {
			line, err := priceLine(decimal.New(price, -4), qty, decimal.New(rate, -2), decimal.Zero, "usd")
			if err != nil {
				return false
			}
			return isRounded(line.Subtotal) && isRounded(line.Tax) && isRounded(line.Total)
		},
		gen.Int64Range(0, 10_000_000),
		gen.Int64Range(1, 100),
		gen.Int64Range(0, 10_000),
	))

	properties.Property("zero decimal currencies round to whole units", prop.ForAll(
		func(price, qty, rate int64) bool {
			line, err := priceLine(cents(price), qty, decimal.NewFromInt(rate), decimal.Zero, "jpy")
			if err != nil {
				return false
			}
			return line.Subtotal.Equal(line.Subtotal.Round(0)) && line.Tax.Equal(line.Tax.Round(0))
		},
		gen.Int64Range(0, 1_000_000),
		gen.Int64Range(1, 100),
		gen.Int64Range(0, 100),
	))

	properties.TestingRun(t)
}

func TestInvoiceTotalsProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("invoice total equals the sum of line totals plus shipping and adjustments", prop.ForAll(
		func(prices []int64, shipping, adjustments int64) bool {
			var totals invoiceTotals
			lineSum := decimal.Zero
			for i, p := range prices {
				line, err := priceLine(cents(p), int64(i%5+1), decimal.NewFromInt(int64(i%3)*5), decimal.Zero, "usd")
				if err != nil {
					return false
				}
				totals.add(line)
				lineSum = lineSum.Add(line.Total)
			}

			total := totals.total(cents(shipping), cents(adjustments))
			return total.Equal(lineSum.Add(cents(shipping)).Add(cents(adjustments))) &&
				total.Equal(totals.SubTotal.Add(totals.TotalTax).Add(cents(shipping)).Add(cents(adjustments)).Sub(totals.TotalDiscount))
		},
		gen.SliceOf(gen.Int64Range(0, 100_000)),
		gen.Int64Range(0, 10_000),
		gen.Int64Range(-10_000, 10_000),
	))

	properties.TestingRun(t)
}

func TestSettleProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("paid plus due equals the larger of total and paid", prop.ForAll(
		func(total int64, amounts []int64) bool {
			var payments invoice.Payments
			for _, a := range amounts {
				payments = payments.Append(invoice.Payment{Amount: cents(a)})
			}
			update := invoice.Settle(cents(total), payments)

			if !update.PaidAmount.Equal(payments.Sum()) || update.DueAmount.IsNegative() {
				return false
			}
			if update.PaymentStatus != types.DerivePaymentStatus(update.PaidAmount, update.DueAmount) {
				return false
			}
			return update.PaidAmount.Add(update.DueAmount).Equal(decimal.Max(cents(total), update.PaidAmount))
		},
		gen.Int64Range(0, 100_000),
		gen.SliceOf(gen.Int64Range(-5_000, 20_000)),
	))

	properties.Property("status follows paid and due", prop.ForAll(
		func(total, paid int64) bool {
			if paid > total {
				paid = total
			}
			update := invoice.Settle(cents(total), invoice.Payments{{Amount: cents(paid)}})

			switch {
			case update.DueAmount.IsZero():
				return update.PaymentStatus == types.PaymentStatusPaid
			case update.PaidAmount.IsPositive():
				return update.PaymentStatus == types.PaymentStatusPartial
			default:
				return update.PaymentStatus == types.PaymentStatusUnpaid
			}
		},
		gen.Int64Range(1, 100_000),
		gen.Int64Range(0, 100_000),
	))

	properties.TestingRun(t)
}
