package market

import (
	"encoding/json"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func testNormalizer() Normalizer {
	return Normalizer{
		Trend: NewTrendGenerator(rand.NewPCG(1, 2)),
		Now:   func() time.Time { return fixedNow },
	}
}

func decodeRaw(t *testing.T, payload string) RawAsset {
	t.Helper()
	var raw RawAsset
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))
	return raw
}

func TestNormalize_FullPayload(t *testing.T) {
	raw := decodeRaw(t, `{
		"id": "bitcoin",
		"name": "Bitcoin",
		"symbol": "BTC",
		"logo": "https://img/btc.png",
		"priceUsd": 64000.5,
		"priceBrl": "320000.25",
		"variation24h": -2.5,
		"marketCap": 1.2e12,
		"volume": 3.4e10,
		"lastUpdate": "2025-03-14T11:59:00Z",
		"isFavorite": true,
		"sparkline_in_7d": {"price": [1, 2, 3]}
	}`)

	out, err := testNormalizer().Normalize(raw)
	require.NoError(t, err)

	a := out.Asset
	assert.Equal(t, "bitcoin", a.ID)
	assert.Equal(t, "Bitcoin", a.DisplayName)
	assert.Equal(t, "BTC", a.Symbol)
	assert.Equal(t, "https://img/btc.png", a.LogoURL)
	assert.Equal(t, 64000.5, a.PriceUSD)
	assert.Equal(t, 320000.25, a.PriceLocal)
	assert.Equal(t, -2.5, a.VariationPct24h)
	assert.Equal(t, 1.2e12, a.MarketCap)
	assert.Equal(t, 3.4e10, a.Volume24h)
	assert.Equal(t, time.Date(2025, 3, 14, 11, 59, 0, 0, time.UTC), a.LastUpdatedAt)
	assert.True(t, a.IsFavorite)
	assert.True(t, out.HasFavorite)
	assert.Equal(t, []float64{1, 2, 3}, a.Trend)
	assert.False(t, a.TrendSynthetic)
}

func TestNormalize_MissingLogoFieldsLeavesEmpty(t *testing.T) {
	out, err := testNormalizer().Normalize(RawAsset{"id": "eth"})
	require.NoError(t, err)
	assert.Empty(t, out.Asset.LogoURL)
}

func TestNormalize_LogoPriority(t *testing.T) {
	cases := []struct {
		name string
		raw  RawAsset
		want string
	}{
		{"imageUrl wins", RawAsset{"id": "x", "imageUrl": "a", "logo": "b", "image": "c"}, "a"},
		{"logo before image", RawAsset{"id": "x", "logo": "b", "image": "c"}, "b"},
		{"image last", RawAsset{"id": "x", "image": "c"}, "c"},
		{"blank skipped", RawAsset{"id": "x", "imageUrl": "  ", "logo": nil, "image": "c"}, "c"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := testNormalizer().Normalize(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out.Asset.LogoURL)
		})
	}
}

func TestNormalize_TrendPriority(t *testing.T) {
	cases := []struct {
		name string
		raw  RawAsset
		want []float64
	}{
		{"explicit trend first", RawAsset{"id": "x", "trend7d": []any{1.0}, "sparkline_in_7d": []any{2.0}}, []float64{1}},
		{"snake case next", RawAsset{"id": "x", "trend7d": []any{}, "sparkline_in_7d": []any{2.0}, "sparklineIn7d": []any{3.0}}, []float64{2}},
		{"camel case last", RawAsset{"id": "x", "sparklineIn7d": map[string]any{"price": []any{3.0, 4.0}}}, []float64{3, 4}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := testNormalizer().Normalize(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out.Asset.Trend)
			assert.False(t, out.Asset.TrendSynthetic)
		})
	}
}

func TestNormalize_DefaultsWhenAbsent(t *testing.T) {
	out, err := testNormalizer().Normalize(RawAsset{"id": "doge"})
	require.NoError(t, err)

	a := out.Asset
	assert.Zero(t, a.VariationPct24h)
	assert.False(t, a.IsFavorite)
	assert.False(t, out.HasFavorite)
	assert.Equal(t, fixedNow, a.LastUpdatedAt)
	assert.True(t, a.TrendSynthetic)
	assert.Len(t, a.Trend, TrendLength)
}

func TestNormalize_LastUpdatedPriorityAndFormats(t *testing.T) {
	out, err := testNormalizer().Normalize(RawAsset{
		"id":          "x",
		"lastUpdated": "2024-01-02 03:04:05",
		"lastUpdate":  "2020-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), out.Asset.LastUpdatedAt)

	out, err = testNormalizer().Normalize(RawAsset{"id": "x", "lastUpdate": float64(1700000000000)})
	require.NoError(t, err)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), out.Asset.LastUpdatedAt)

	out, err = testNormalizer().Normalize(RawAsset{"id": "x", "lastUpdate": "not a time"})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, out.Asset.LastUpdatedAt)
}

func TestNormalize_ClampsNegativeMagnitudes(t *testing.T) {
	out, err := testNormalizer().Normalize(RawAsset{
		"id":        "x",
		"priceUsd":  -1.0,
		"marketCap": -5.0,
		"volume":    "-3",
		"change24h": -7.0,
	})
	require.NoError(t, err)
	assert.Zero(t, out.Asset.PriceUSD)
	assert.Zero(t, out.Asset.MarketCap)
	assert.Zero(t, out.Asset.Volume24h)
	assert.Equal(t, -7.0, out.Asset.VariationPct24h)
}

func TestNormalize_NumericIDAndFavoriteStrings(t *testing.T) {
	out, err := testNormalizer().Normalize(RawAsset{"id": 42.0, "isFavorite": "true"})
	require.NoError(t, err)
	assert.Equal(t, "42", out.Asset.ID)
	assert.True(t, out.Asset.IsFavorite)
	assert.True(t, out.HasFavorite)

	out, err = testNormalizer().Normalize(RawAsset{"id": "y", "isFavorite": false})
	require.NoError(t, err)
	assert.False(t, out.Asset.IsFavorite)
	assert.True(t, out.HasFavorite, "explicit false is still an explicit flag")
}

func TestNormalize_MissingIDFails(t *testing.T) {
	_, err := testNormalizer().Normalize(RawAsset{"name": "nameless"})
	require.ErrorIs(t, err, ErrMissingID)

	_, err = testNormalizer().Normalize(RawAsset{"id": "   "})
	require.ErrorIs(t, err, ErrMissingID)
}

func TestSourceKeys_CoversEveryCanonicalField(t *testing.T) {
	for _, name := range []string{
		"id", "displayName", "symbol", "logoUrl", "priceUsd", "priceLocal",
		"variationPct24h", "marketCap", "volume24h", "lastUpdatedAt", "isFavorite", "trend",
	} {
		assert.NotEmpty(t, SourceKeys(name), "field %s has no source keys", name)
	}
	assert.Equal(t, []string{"imageUrl", "logo", "image"}, SourceKeys("logoUrl"))
	assert.Nil(t, SourceKeys("unknown"))
}
