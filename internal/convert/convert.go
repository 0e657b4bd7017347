// Package convert turns a typed amount of an asset into fiat using exact
// decimal arithmetic.
package convert

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/five82/coindeck/internal/market"
)

// Currency is the fiat side of a conversion.
type Currency string

const (
	USD   Currency = "usd"
	Local Currency = "local"
)

// ParseCurrency maps a prefs value onto a Currency. Anything unknown is USD.
func ParseCurrency(s string) Currency {
	if Currency(strings.ToLower(strings.TrimSpace(s))) == Local {
		return Local
	}
	return USD
}

// Next cycles USD and Local.
func (c Currency) Next() Currency {
	if c == Local {
		return USD
	}
	return Local
}

// Label is the short name shown next to a converted value.
func (c Currency) Label() string {
	if c == Local {
		return "LOCAL"
	}
	return "USD"
}

// ParseAmount reads user input. Empty or invalid input is zero, and so is a
// negative amount. A comma is accepted as the decimal separator.
func ParseAmount(input string) decimal.Decimal {
	s := strings.TrimSpace(input)
	if s == "" {
		return decimal.Zero
	}
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Price returns the asset price in the given currency.
func Price(a market.Asset, c Currency) decimal.Decimal {
	if c == Local {
		return decimal.NewFromFloat(a.PriceLocal)
	}
	return decimal.NewFromFloat(a.PriceUSD)
}

// Amount multiplies the parsed input by the asset price.
func Amount(input string, a market.Asset, c Currency) decimal.Decimal {
	return ParseAmount(input).Mul(Price(a, c))
}

// Format renders a converted value with two decimals and its currency label.
func Format(v decimal.Decimal, c Currency) string {
	return v.StringFixed(2) + " " + c.Label()
}
