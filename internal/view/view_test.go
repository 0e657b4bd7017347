package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/coindeck/internal/market"
)

func sample() []market.Asset {
	return []market.Asset{
		{ID: "bitcoin", DisplayName: "Bitcoin", Symbol: "BTC", PriceUSD: 10, VariationPct24h: 2, MarketCap: 300, Volume24h: 5, IsFavorite: true},
		{ID: "eth", DisplayName: "Ethereum", Symbol: "ETH", PriceUSD: 30, VariationPct24h: -1, MarketCap: 200, Volume24h: 9},
		{ID: "bitcash", DisplayName: "bitcoin cash", Symbol: "BCH", PriceUSD: 20, VariationPct24h: 0, MarketCap: 100, Volume24h: 9},
		{ID: "wbtc", DisplayName: "Wrapped", Symbol: "WBTC", PriceUSD: 20, VariationPct24h: 5, MarketCap: 50, Volume24h: 1, IsFavorite: true},
	}
}

func rowIDs(rows []market.Asset) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestApply_Filters(t *testing.T) {
	cases := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"empty filter is identity", Filter{}, []string{"bitcoin", "eth", "bitcash", "wbtc"}},
		{"search matches name case-insensitively", Filter{Search: "BIT"}, []string{"bitcoin", "bitcash"}},
		{"search matches symbol", Filter{Search: "btc"}, []string{"bitcoin", "wbtc"}},
		{"positive excludes zero", Filter{Variation: VariationPositive}, []string{"bitcoin", "wbtc"}},
		{"negative", Filter{Variation: VariationNegative}, []string{"eth"}},
		{"favorites only", Filter{FavoritesOnly: true}, []string{"bitcoin", "wbtc"}},
		{"conjunctive", Filter{Search: "bit", FavoritesOnly: true}, []string{"bitcoin"}},
		{"no match", Filter{Search: "doge"}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, rowIDs(Apply(sample(), tc.filter)))
		})
	}
}

func TestApply_DoesNotAliasInput(t *testing.T) {
	in := sample()
	in[0].Trend = []float64{1, 2}
	out := Apply(in, Filter{})
	out[0].DisplayName = "changed"
	out[0].Trend[0] = 99
	assert.Equal(t, "Bitcoin", in[0].DisplayName)
	assert.Equal(t, 1.0, in[0].Trend[0])
}

func TestSortBy_Keys(t *testing.T) {
	cases := []struct {
		key  SortKey
		want []string
	}{
		{SortName, []string{"bitcoin", "bitcash", "eth", "wbtc"}},
		{SortPrice, []string{"eth", "bitcash", "wbtc", "bitcoin"}},
		{SortChange, []string{"wbtc", "bitcoin", "bitcash", "eth"}},
		{SortMarketCap, []string{"bitcoin", "eth", "bitcash", "wbtc"}},
		{SortVolume, []string{"eth", "bitcash", "bitcoin", "wbtc"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.key), func(t *testing.T) {
			rows := sample()
			require.True(t, SortBy(rows, tc.key))
			assert.Equal(t, tc.want, rowIDs(rows))
		})
	}
}

func TestSortBy_PriceDescending(t *testing.T) {
	rows := []market.Asset{{ID: "a", PriceUSD: 10}, {ID: "b", PriceUSD: 30}, {ID: "c", PriceUSD: 20}}
	SortBy(rows, SortPrice)
	assert.Equal(t, []string{"b", "c", "a"}, rowIDs(rows))
}

func TestSortBy_NameTieBrokenBySymbol(t *testing.T) {
	rows := []market.Asset{
		{ID: "2", DisplayName: "Tether", Symbol: "USDT"},
		{ID: "1", DisplayName: "tether", Symbol: "EURT"},
	}
	SortBy(rows, SortName)
	assert.Equal(t, []string{"1", "2"}, rowIDs(rows))
}

func TestSortBy_UnknownKeyIsNoop(t *testing.T) {
	rows := sample()
	assert.False(t, SortBy(rows, SortKey("rank")))
	assert.Equal(t, rowIDs(sample()), rowIDs(rows))
}

func TestList_ApplyResetsSort(t *testing.T) {
	var l List
	l.Apply(sample(), Filter{})
	require.True(t, l.SortBy(SortPrice))
	assert.Equal(t, "eth", l.Rows()[0].ID)

	// A refresh re-applies the filter and returns to canonical order.
	l.Apply(sample(), Filter{})
	assert.Equal(t, SortNone, l.Sort())
	assert.Equal(t, []string{"bitcoin", "eth", "bitcash", "wbtc"}, rowIDs(l.Rows()))
}

func TestList_StickySortSurvivesApply(t *testing.T) {
	l := List{Sticky: true}
	l.Apply(sample(), Filter{})
	l.SortBy(SortPrice)

	rows := l.Apply(sample(), Filter{Search: "bit"})
	assert.Equal(t, SortPrice, l.Sort())
	assert.Equal(t, []string{"bitcash", "bitcoin"}, rowIDs(rows))
}

func TestList_SortNoneRestoresCanonicalOrder(t *testing.T) {
	var l List
	l.Apply(sample(), Filter{})
	l.SortBy(SortName)
	require.True(t, l.SortBy(SortNone))
	assert.Equal(t, []string{"bitcoin", "eth", "bitcash", "wbtc"}, rowIDs(l.Rows()))

	assert.False(t, l.SortBy(SortKey("rank")))
	assert.Equal(t, SortNone, l.Sort())
}

func TestCycles(t *testing.T) {
	assert.Equal(t, VariationPositive, VariationAll.Next())
	assert.Equal(t, VariationAll, VariationNegative.Next())
	assert.Equal(t, VariationAll, ParseVariation("bogus"))
	assert.Equal(t, VariationNegative, ParseVariation(" Negative "))

	assert.Equal(t, SortName, SortNone.Next())
	assert.Equal(t, SortNone, SortVolume.Next())
	k, ok := ParseSortKey("MCAP")
	assert.True(t, ok)
	assert.Equal(t, SortMarketCap, k)
	_, ok = ParseSortKey("rank")
	assert.False(t, ok)
}
