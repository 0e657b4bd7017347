package market

import (
	"slices"
	"time"
)

// TrendLength is the number of samples in a 7-day trend series.
const TrendLength = 7

// RawAsset is an asset record as decoded from the pricing API. Field names
// vary between backend versions, so the record stays loosely typed until
// Normalize maps it onto Asset.
type RawAsset map[string]any

// Asset is the canonical client-side representation of a priced asset.
type Asset struct {
	ID              string
	DisplayName     string
	Symbol          string
	LogoURL         string
	PriceUSD        float64
	PriceLocal      float64
	VariationPct24h float64
	MarketCap       float64
	Volume24h       float64
	LastUpdatedAt   time.Time
	IsFavorite      bool

	// Trend holds TrendLength samples. TrendSynthetic is set when the
	// payload carried no series and one was generated locally; such a
	// series is decoration, not history.
	Trend          []float64
	TrendSynthetic bool
}

// Clone returns a copy that shares no slices with a.
func (a Asset) Clone() Asset {
	a.Trend = slices.Clone(a.Trend)
	return a
}

// CloneAll copies a collection so callers can hand it across goroutines.
func CloneAll(assets []Asset) []Asset {
	if len(assets) == 0 {
		return nil
	}
	out := make([]Asset, len(assets))
	for i, a := range assets {
		out[i] = a.Clone()
	}
	return out
}

// IndexByID returns the position of id in assets, or -1.
func IndexByID(assets []Asset, id string) int {
	for i := range assets {
		if assets[i].ID == id {
			return i
		}
	}
	return -1
}
