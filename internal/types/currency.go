package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when neither the request nor the store sets one
const DefaultCurrency = "usd"

var zeroDecimalCurrencies = map[string]bool{
	"jpy": true,
	"krw": true,
	"vnd": true,
	"clp": true,
	"isk": true,
}

// GetCurrencyPrecision returns the number of minor-unit digits of a currency
func GetCurrencyPrecision(code string) int32 {
	if zeroDecimalCurrencies[strings.ToLower(code)] {
		return 0
	}
	return 2
}

// RoundToCurrencyPrecision rounds half away from zero to the currency's minor unit
func RoundToCurrencyPrecision(amount decimal.Decimal, code string) decimal.Decimal {
	return amount.Round(GetCurrencyPrecision(code))
}

// NormalizeCurrency returns the lower-case currency code or the fallback when empty
func NormalizeCurrency(code, fallback string) string {
	code = strings.TrimSpace(strings.ToLower(code))
	if code == "" {
		return strings.ToLower(fallback)
	}
	return code
}

// IsValidCurrency reports whether the code is a three letter ISO code
func IsValidCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
