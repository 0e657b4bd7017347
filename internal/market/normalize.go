package market

import (
	"errors"
	"time"
)

// ErrMissingID is returned for payload records that carry no usable id.
var ErrMissingID = errors.New("asset record has no id")

// Normalized is the result of mapping one RawAsset.
type Normalized struct {
	Asset Asset
	// HasFavorite reports whether the payload carried an explicit favorite
	// flag. Callers merging with earlier state only trust the flag then.
	HasFavorite bool
}

// Normalizer maps raw payload records onto Asset.
type Normalizer struct {
	Trend *TrendGenerator
	Now   func() time.Time
}

// Normalize applies the field table to raw. Missing numbers default to zero,
// negative magnitudes are clamped, and a missing trend is synthesized from the
// 24h variation.
func (n Normalizer) Normalize(raw RawAsset) (Normalized, error) {
	id := raw.str(fieldID)
	if id == "" {
		return Normalized{}, ErrMissingID
	}

	asset := Asset{
		ID:              id,
		DisplayName:     raw.str(fieldName),
		Symbol:          raw.str(fieldSymbol),
		LogoURL:         raw.str(fieldLogo),
		PriceUSD:        nonNegative(raw.number(fieldPriceUSD)),
		PriceLocal:      nonNegative(raw.number(fieldPriceLocal)),
		VariationPct24h: raw.number(fieldVariation),
		MarketCap:       nonNegative(raw.number(fieldMarketCap)),
		Volume24h:       nonNegative(raw.number(fieldVolume)),
	}

	if ts, ok := raw.timestamp(fieldUpdatedAt); ok {
		asset.LastUpdatedAt = ts
	} else {
		asset.LastUpdatedAt = n.now()
	}

	fav, hasFav := raw.flag(fieldFavorite)
	asset.IsFavorite = fav

	if trend, ok := raw.series(fieldTrend); ok {
		asset.Trend = trend
	} else {
		asset.Trend = n.trend().Generate(asset.VariationPct24h)
		asset.TrendSynthetic = true
	}

	return Normalized{Asset: asset, HasFavorite: hasFav}, nil
}

func (n Normalizer) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now()
}

func (n Normalizer) trend() *TrendGenerator {
	if n.Trend != nil {
		return n.Trend
	}
	return defaultTrend
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
