// Package market defines the canonical asset record and the mapping from the
// pricing API's loosely typed payloads onto it.
//
// # Field mapping
//
// Backend versions disagree on key names (logo vs imageUrl, variation24h vs
// change24h, several sparkline spellings). Instead of chained fallbacks at
// each use site, fields.go holds one table that lists, for every canonical
// field, the payload keys to try in priority order. A key counts only when it
// is populated: present, not null, not a blank string, and for trends a
// non-empty numeric series.
//
//	norm := market.Normalizer{Trend: market.NewTrendGenerator(nil)}
//	out, err := norm.Normalize(market.RawAsset{"id": "bitcoin", "logo": "b.png"})
//	// out.Asset.LogoURL == "b.png", out.HasFavorite == false
//
// # Synthetic trends
//
// When a payload has no series, TrendGenerator produces seven samples that
// drift with the 24h variation. The random source is injectable so tests can
// pin the output with a seeded PCG.
package market
