package coinapi

import (
	"fmt"
	"time"
)

// ExportScope selects which assets an export covers.
type ExportScope string

const (
	ScopeFavorites ExportScope = "favorites"
	ScopeAll       ExportScope = "all"
)

// ExportFormat is the file format the backend renders an export in.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatJSON ExportFormat = "json"
)

// AlertCondition is the side of the target price an alert fires on.
type AlertCondition string

const (
	ConditionAbove AlertCondition = "above"
	ConditionBelow AlertCondition = "below"
)

// AssetDetail mirrors /cryptos/{id}.
type AssetDetail struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Symbol       string     `json:"symbol"`
	Logo         string     `json:"logo"`
	PriceUSD     float64    `json:"priceUsd"`
	PriceLocal   float64    `json:"priceBrl"`
	Variation24h float64    `json:"variation24h"`
	MarketCap    float64    `json:"marketCap"`
	Volume       float64    `json:"volume"`
	Supply       float64    `json:"supply"`
	MaxSupply    float64    `json:"maxSupply"`
	Links        AssetLinks `json:"links"`
	IsFavorite   bool       `json:"isFavorite"`
}

// AssetLinks carries the optional project links of an asset.
type AssetLinks struct {
	Website  string `json:"website,omitempty"`
	Explorer string `json:"explorer,omitempty"`
	GitHub   string `json:"github,omitempty"`
}

// History mirrors /cryptos/{id}/chart. Each point is [unix millis, price].
type History struct {
	Prices [][2]float64 `json:"prices"`
}

// PricePoint is one decoded history sample.
type PricePoint struct {
	At    time.Time
	Price float64
}

// Points converts the wire pairs into timestamped samples.
func (h History) Points() []PricePoint {
	if len(h.Prices) == 0 {
		return nil
	}
	out := make([]PricePoint, 0, len(h.Prices))
	for _, p := range h.Prices {
		out = append(out, PricePoint{
			At:    time.UnixMilli(int64(p[0])).UTC(),
			Price: p[1],
		})
	}
	return out
}

// Alert mirrors an entry of /cryptos/alerts.
type Alert struct {
	ID          string         `json:"id"`
	CryptoID    string         `json:"cryptoId"`
	TargetPrice float64        `json:"targetPrice"`
	Condition   AlertCondition `json:"condition"`
	Triggered   bool           `json:"triggered"`
	CreatedAt   string         `json:"createdAt"`
}

type createAlertRequest struct {
	TargetPrice float64        `json:"targetPrice"`
	Condition   AlertCondition `json:"condition"`
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Code)
}
