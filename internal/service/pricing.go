package service

import (
	"fmt"

	"github.com/shopspring/decimal"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/types"
)

var hundred = decimal.NewFromInt(100)

// linePrice holds the rounded amounts of one line item
type linePrice struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// priceLine computes a line item. Every amount is rounded to the currency's
// minor unit before it is summed, so invoice totals are exact sums of lines.
func priceLine(unitPrice decimal.Decimal, quantity int64, taxRate, discount decimal.Decimal, currency string) (linePrice, error) {
	subtotal := types.RoundToCurrencyPrecision(unitPrice.Mul(decimal.NewFromInt(quantity)), currency)
	tax := types.RoundToCurrencyPrecision(subtotal.Mul(taxRate).Div(hundred), currency)
	disc := types.RoundToCurrencyPrecision(discount, currency)

	if disc.GreaterThan(subtotal.Add(tax)) {
		return linePrice{}, ierr.NewError("discount exceeds line amount").
			WithHintf("Discount %s cannot exceed the line amount %s", disc.String(), subtotal.Add(tax).String()).
			WithReportableDetails(map[string]any{
				"discount":    disc.String(),
				"line_amount": subtotal.Add(tax).String(),
			}).
			Mark(ierr.ErrValidation)
	}

	return linePrice{
		Subtotal: subtotal,
		Tax:      tax,
		Discount: disc,
		Total:    subtotal.Add(tax).Sub(disc),
	}, nil
}

// invoiceTotals accumulates line prices
type invoiceTotals struct {
	SubTotal      decimal.Decimal
	TotalTax      decimal.Decimal
	TotalDiscount decimal.Decimal
}

func (t *invoiceTotals) add(l linePrice) {
	t.SubTotal = t.SubTotal.Add(l.Subtotal)
	t.TotalTax = t.TotalTax.Add(l.Tax)
	t.TotalDiscount = t.TotalDiscount.Add(l.Discount)
}

// total returns subtotal + tax + shipping + adjustments - discount
func (t invoiceTotals) total(shipping, adjustments decimal.Decimal) decimal.Decimal {
	return t.SubTotal.Add(t.TotalTax).Add(shipping).Add(adjustments).Sub(t.TotalDiscount)
}

// lineTitle snapshots the display title of a line item
func lineTitle(productName, skuCode string) string {
	if skuCode == "" {
		return productName
	}
	return fmt.Sprintf("%s (%s)", productName, skuCode)
}
