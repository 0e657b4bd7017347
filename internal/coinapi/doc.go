// Package coinapi provides an HTTP client for the coindeck pricing backend.
//
// # Overview
//
// The backend owns prices, favorites, alerts and exports. This package is a
// thin, context-aware wrapper around its JSON endpoints:
//
//   - GET    /cryptos                          asset list (loosely typed)
//   - GET    /settings/update-interval         refresh period in seconds
//   - POST   /cryptos/{id}/favorite            mark favorite
//   - DELETE /cryptos/{id}/favorite            clear favorite
//   - GET    /export/{favorites|all}?format=   rendered export bytes
//   - GET    /cryptos/{id}                     asset detail
//   - GET    /cryptos/{id}/chart?days=         price history
//   - GET    /cryptos/alerts                   alert list
//   - POST   /cryptos/{id}/alerts              create alert
//   - DELETE /cryptos/alerts/{alertId}         delete alert
//   - GET    /cryptos/stats/top-{gainers|losers}?count=
//
// The asset list is returned as []market.RawAsset because key names differ
// between backend versions; market.Normalizer maps it onto market.Asset.
//
// # Client Usage
//
//	client, err := coinapi.NewClient("https://localhost:7215/api", 10*time.Second)
//	if err != nil {
//		return err
//	}
//	raw, err := client.ListAssets(ctx)
//
// # Request Handling
//
// All requests use the caller's context, carry Accept: application/json and
// User-Agent: coindeck/0.1, and are bounded by the client timeout. Path
// segments are escaped, and the base URL path (/api) is preserved.
//
// # Error Handling
//
// Responses with status >= 400 return *StatusError, which names the method,
// path and status:
//
//	var se *coinapi.StatusError
//	if errors.As(err, &se) && se.Code == http.StatusNotFound { ... }
//
// Export validates scope and format before any request and returns
// ErrInvalidScope or ErrInvalidFormat. FetchUpdateInterval returns
// ErrInvalidInterval for non-numeric or non-positive values.
//
// # Thread Safety
//
// Client is safe for concurrent use.
package coinapi
