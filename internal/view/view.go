package view

import (
	"cmp"
	"slices"
	"strings"

	"github.com/five82/coindeck/internal/market"
)

// VariationFilter restricts rows by the sign of the 24h variation.
type VariationFilter string

const (
	VariationAll      VariationFilter = "all"
	VariationPositive VariationFilter = "positive"
	VariationNegative VariationFilter = "negative"
)

var variationCycle = []VariationFilter{VariationAll, VariationPositive, VariationNegative}

// ParseVariation maps a stored name to a VariationFilter. Unknown or empty
// names fall back to VariationAll.
func ParseVariation(s string) VariationFilter {
	v := VariationFilter(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(variationCycle, v) {
		return v
	}
	return VariationAll
}

// Next returns the following filter in the all → positive → negative cycle.
func (v VariationFilter) Next() VariationFilter {
	i := slices.Index(variationCycle, v)
	return variationCycle[(i+1)%len(variationCycle)]
}

func (v VariationFilter) match(variation float64) bool {
	switch v {
	case VariationPositive:
		return variation > 0
	case VariationNegative:
		return variation < 0
	default:
		return true
	}
}

// Filter is the user-controlled filter state.
type Filter struct {
	Search        string
	Variation     VariationFilter
	FavoritesOnly bool
}

// Match reports whether a passes every part of the filter.
func (f Filter) Match(a market.Asset) bool {
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		if !strings.Contains(strings.ToLower(a.DisplayName), term) &&
			!strings.Contains(strings.ToLower(a.Symbol), term) {
			return false
		}
	}
	if !f.Variation.match(a.VariationPct24h) {
		return false
	}
	if f.FavoritesOnly && !a.IsFavorite {
		return false
	}
	return true
}

// Apply returns the assets matching f in their original order. The result is
// a new slice of copies; the input is never modified.
func Apply(assets []market.Asset, f Filter) []market.Asset {
	out := make([]market.Asset, 0, len(assets))
	for _, a := range assets {
		if f.Match(a) {
			out = append(out, a.Clone())
		}
	}
	return out
}

// SortKey names a column the table can be ordered by.
type SortKey string

const (
	SortNone      SortKey = ""
	SortName      SortKey = "name"
	SortPrice     SortKey = "price"
	SortChange    SortKey = "change"
	SortMarketCap SortKey = "mcap"
	SortVolume    SortKey = "volume"
)

// SortKeys lists the keys in the order the UI cycles through them.
var SortKeys = []SortKey{SortNone, SortName, SortPrice, SortChange, SortMarketCap, SortVolume}

// ParseSortKey maps a stored name to a SortKey.
func ParseSortKey(s string) (SortKey, bool) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(SortKeys, k) {
		return k, true
	}
	return SortNone, false
}

// Next returns the following key in SortKeys.
func (k SortKey) Next() SortKey {
	i := slices.Index(SortKeys, k)
	return SortKeys[(i+1)%len(SortKeys)]
}

// Label is the header text for the key.
func (k SortKey) Label() string {
	switch k {
	case SortName:
		return "name"
	case SortPrice:
		return "price"
	case SortChange:
		return "24h"
	case SortMarketCap:
		return "market cap"
	case SortVolume:
		return "volume"
	default:
		return "default"
	}
}

func descending(field func(market.Asset) float64) func(a, b market.Asset) int {
	return func(a, b market.Asset) int {
		return cmp.Compare(field(b), field(a))
	}
}

var comparators = map[SortKey]func(a, b market.Asset) int{
	SortName: func(a, b market.Asset) int {
		return cmp.Or(
			cmp.Compare(strings.ToLower(a.DisplayName), strings.ToLower(b.DisplayName)),
			cmp.Compare(strings.ToLower(a.Symbol), strings.ToLower(b.Symbol)),
		)
	},
	SortPrice:     descending(func(a market.Asset) float64 { return a.PriceUSD }),
	SortChange:    descending(func(a market.Asset) float64 { return a.VariationPct24h }),
	SortMarketCap: descending(func(a market.Asset) float64 { return a.MarketCap }),
	SortVolume:    descending(func(a market.Asset) float64 { return a.Volume24h }),
}

// SortBy orders rows in place by key. Name sorts ascending; every numeric key
// sorts descending. Equal rows keep their relative order. SortNone and
// unknown keys leave rows untouched; only unknown keys report false.
func SortBy(rows []market.Asset, key SortKey) bool {
	if key == SortNone {
		return true
	}
	less, ok := comparators[key]
	if !ok {
		return false
	}
	slices.SortStableFunc(rows, less)
	return true
}

// List is the derived table: the filtered rows plus the requested order.
//
// With Sticky unset, every Apply resets the rows to canonical order until
// SortBy is called again. With Sticky set, the last requested key is
// re-applied after each Apply.
type List struct {
	Sticky bool

	filter   Filter
	sort     SortKey
	filtered []market.Asset // canonical order
	rows     []market.Asset
}

// Apply re-derives the rows from a canonical collection.
func (l *List) Apply(assets []market.Asset, f Filter) []market.Asset {
	l.filter = f
	l.filtered = Apply(assets, f)
	if !l.Sticky {
		l.sort = SortNone
	}
	l.rows = slices.Clone(l.filtered)
	SortBy(l.rows, l.sort)
	return l.rows
}

// SortBy re-orders the current rows. SortNone restores canonical order.
// Unknown keys are ignored and report false.
func (l *List) SortBy(key SortKey) bool {
	if _, known := comparators[key]; !known && key != SortNone {
		return false
	}
	l.sort = key
	l.rows = slices.Clone(l.filtered)
	SortBy(l.rows, key)
	return true
}

// Rows returns the derived rows. Callers must not modify them.
func (l *List) Rows() []market.Asset { return l.rows }

// Filter returns the filter used by the last Apply.
func (l *List) Filter() Filter { return l.filter }

// Sort returns the active sort key.
func (l *List) Sort() SortKey { return l.sort }

// Len returns the number of derived rows.
func (l *List) Len() int { return len(l.rows) }
