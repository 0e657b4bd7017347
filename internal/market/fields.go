package market

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

const apiTimestampLayout = "2006-01-02 15:04:05"

// field names a canonical Asset attribute.
type field string

const (
	fieldID         field = "id"
	fieldName       field = "displayName"
	fieldSymbol     field = "symbol"
	fieldLogo       field = "logoUrl"
	fieldPriceUSD   field = "priceUsd"
	fieldPriceLocal field = "priceLocal"
	fieldVariation  field = "variationPct24h"
	fieldMarketCap  field = "marketCap"
	fieldVolume     field = "volume24h"
	fieldUpdatedAt  field = "lastUpdatedAt"
	fieldFavorite   field = "isFavorite"
	fieldTrend      field = "trend"
)

// fieldSources lists, per canonical field, the payload keys that may carry
// it. The first populated key wins.
var fieldSources = []struct {
	field field
	keys  []string
}{
	{fieldID, []string{"id"}},
	{fieldName, []string{"name", "displayName"}},
	{fieldSymbol, []string{"symbol"}},
	{fieldLogo, []string{"imageUrl", "logo", "image"}},
	{fieldPriceUSD, []string{"priceUsd", "price"}},
	{fieldPriceLocal, []string{"priceLocal", "priceBrl"}},
	{fieldVariation, []string{"variationPct24h", "variation24h", "change24h"}},
	{fieldMarketCap, []string{"marketCap"}},
	{fieldVolume, []string{"volume24h", "volume"}},
	{fieldUpdatedAt, []string{"lastUpdated", "lastUpdate"}},
	{fieldFavorite, []string{"isFavorite"}},
	{fieldTrend, []string{"trend7d", "sparkline_in_7d", "sparklineIn7d"}},
}

// SourceKeys returns the payload keys consulted for a canonical field, in
// priority order.
func SourceKeys(name string) []string {
	for _, src := range fieldSources {
		if string(src.field) == name {
			return append([]string(nil), src.keys...)
		}
	}
	return nil
}

// lookup returns the first populated value for f along with its key.
func (r RawAsset) lookup(f field) (any, string, bool) {
	for _, src := range fieldSources {
		if src.field != f {
			continue
		}
		for _, key := range src.keys {
			v, ok := r[key]
			if ok && populated(f, v) {
				return v, key, true
			}
		}
		return nil, "", false
	}
	return nil, "", false
}

func populated(f field, v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(val) != ""
	}
	if f == fieldTrend {
		_, ok := asSeries(v)
		return ok
	}
	return true
}

func (r RawAsset) str(f field) string {
	v, _, ok := r.lookup(f)
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	}
	return ""
}

func (r RawAsset) number(f field) float64 {
	v, _, ok := r.lookup(f)
	if !ok {
		return 0
	}
	n, ok := asFloat(v)
	if !ok {
		return 0
	}
	return n
}

func (r RawAsset) flag(f field) (bool, bool) {
	v, _, ok := r.lookup(f)
	if !ok {
		return false, false
	}
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return false, false
		}
		return b, true
	case float64:
		return val != 0, true
	}
	return false, false
}

func (r RawAsset) timestamp(f field) (time.Time, bool) {
	v, _, ok := r.lookup(f)
	if !ok {
		return time.Time{}, false
	}
	switch val := v.(type) {
	case string:
		return parseTime(val)
	case float64:
		return time.UnixMilli(int64(val)).UTC(), true
	case json.Number:
		ms, err := val.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return time.UnixMilli(ms).UTC(), true
	}
	return time.Time{}, false
}

func (r RawAsset) series(f field) ([]float64, bool) {
	v, _, ok := r.lookup(f)
	if !ok {
		return nil, false
	}
	return asSeries(v)
}

// asSeries accepts a numeric array or a CoinGecko style {"price": [...]}
// object.
func asSeries(v any) ([]float64, bool) {
	switch val := v.(type) {
	case []float64:
		if len(val) == 0 {
			return nil, false
		}
		return append([]float64(nil), val...), true
	case []any:
		if len(val) == 0 {
			return nil, false
		}
		out := make([]float64, 0, len(val))
		for _, item := range val {
			n, ok := asFloat(item)
			if !ok {
				return nil, false
			}
			out = append(out, n)
		}
		return out, true
	case map[string]any:
		return asSeries(val["price"])
	}
	return nil, false
}

func asFloat(v any) (float64, bool) {
	var n float64
	switch val := v.(type) {
	case float64:
		n = val
	case float32:
		n = float64(val)
	case int:
		n = float64(val)
	case int64:
		n = float64(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func parseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	if t, err := time.ParseInLocation(apiTimestampLayout, value, time.UTC); err == nil {
		return t, true
	}
	if ms, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), true
	}
	return time.Time{}, false
}
