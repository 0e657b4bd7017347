package coinapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/five82/coindeck/internal/market"
)

// API is the set of backend operations coindeck uses.
// This interface is implemented by *Client and can be used for testing.
type API interface {
	ListAssets(ctx context.Context) ([]market.RawAsset, error)
	FetchUpdateInterval(ctx context.Context) (int, error)
	AddFavorite(ctx context.Context, id string) error
	RemoveFavorite(ctx context.Context, id string) error
	Export(ctx context.Context, scope ExportScope, format ExportFormat) ([]byte, error)
	FetchAsset(ctx context.Context, id string) (AssetDetail, error)
	FetchHistory(ctx context.Context, id string, days int) (History, error)
	CreateAlert(ctx context.Context, id string, target float64, cond AlertCondition) (Alert, error)
	ListAlerts(ctx context.Context) ([]Alert, error)
	DeleteAlert(ctx context.Context, alertID string) error
	TopMovers(ctx context.Context, gainers bool, count int) ([]market.RawAsset, error)
	Compare(ctx context.Context, ids []string) ([]market.RawAsset, error)
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

var (
	ErrInvalidScope    = errors.New("invalid export scope")
	ErrInvalidFormat   = errors.New("invalid export format")
	ErrInvalidInterval = errors.New("invalid update interval")
	ErrTooLarge        = errors.New("response too large")
)

const (
	DefaultBaseURL        = "https://localhost:7215/api"
	DefaultRequestTimeout = 10 * time.Second
	defaultUserAgent      = "coindeck/0.1"
	maxIntervalSeconds    = 24 * 60 * 60
)

// maxExportBytes caps raw response bodies. A var so tests can lower it.
var maxExportBytes int64 = 64 << 20

// Client talks to the pricing backend's HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

// NewClient builds a Client rooted at baseURL. An empty baseURL uses
// DefaultBaseURL and a non-positive timeout uses DefaultRequestTimeout.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: timeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// ListAssets retrieves the full asset list as loosely typed records.
func (c *Client) ListAssets(ctx context.Context) ([]market.RawAsset, error) {
	var payload []market.RawAsset
	if err := c.getJSON(ctx, nil, &payload, "cryptos"); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchUpdateInterval returns the refresh period, in seconds, configured on
// the backend.
func (c *Client) FetchUpdateInterval(ctx context.Context) (int, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, nil, &raw, "settings", "update-interval"); err != nil {
		return 0, err
	}
	seconds, err := parseInterval(raw)
	if err != nil {
		return 0, err
	}
	return seconds, nil
}

// AddFavorite marks id as a favorite on the backend.
func (c *Client) AddFavorite(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("asset id required")
	}
	return c.do(ctx, http.MethodPost, c.endpoint(nil, "cryptos", id, "favorite"), []byte("{}"), nil)
}

// RemoveFavorite clears the favorite mark of id on the backend.
func (c *Client) RemoveFavorite(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("asset id required")
	}
	return c.do(ctx, http.MethodDelete, c.endpoint(nil, "cryptos", id, "favorite"), nil, nil)
}

// Export downloads a rendered export of the given scope.
func (c *Client) Export(ctx context.Context, scope ExportScope, format ExportFormat) ([]byte, error) {
	switch scope {
	case ScopeFavorites, ScopeAll:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}
	switch format {
	case FormatCSV, FormatJSON:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}
	values := url.Values{}
	values.Set("format", string(format))

	var buf bytes.Buffer
	if err := c.do(ctx, http.MethodGet, c.endpoint(values, "export", string(scope)), nil, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FetchAsset retrieves the detail record of one asset.
func (c *Client) FetchAsset(ctx context.Context, id string) (AssetDetail, error) {
	if strings.TrimSpace(id) == "" {
		return AssetDetail{}, fmt.Errorf("asset id required")
	}
	var payload AssetDetail
	if err := c.getJSON(ctx, nil, &payload, "cryptos", id); err != nil {
		return AssetDetail{}, err
	}
	return payload, nil
}

// FetchHistory retrieves daily prices of id for the last days days.
func (c *Client) FetchHistory(ctx context.Context, id string, days int) (History, error) {
	if strings.TrimSpace(id) == "" {
		return History{}, fmt.Errorf("asset id required")
	}
	values := url.Values{}
	if days > 0 {
		values.Set("days", strconv.Itoa(days))
	}
	var payload History
	if err := c.getJSON(ctx, values, &payload, "cryptos", id, "chart"); err != nil {
		return History{}, err
	}
	return payload, nil
}

// CreateAlert registers a price alert for id.
func (c *Client) CreateAlert(ctx context.Context, id string, target float64, cond AlertCondition) (Alert, error) {
	if strings.TrimSpace(id) == "" {
		return Alert{}, fmt.Errorf("asset id required")
	}
	if target <= 0 {
		return Alert{}, fmt.Errorf("target price must be positive")
	}
	if cond != ConditionAbove && cond != ConditionBelow {
		return Alert{}, fmt.Errorf("unknown alert condition %q", cond)
	}
	body, err := json.Marshal(createAlertRequest{TargetPrice: target, Condition: cond})
	if err != nil {
		return Alert{}, fmt.Errorf("encode alert: %w", err)
	}
	var created Alert
	if err := c.do(ctx, http.MethodPost, c.endpoint(nil, "cryptos", id, "alerts"), body, jsonSink(&created)); err != nil {
		return Alert{}, err
	}
	return created, nil
}

// ListAlerts retrieves all registered alerts.
func (c *Client) ListAlerts(ctx context.Context) ([]Alert, error) {
	var payload []Alert
	if err := c.getJSON(ctx, nil, &payload, "cryptos", "alerts"); err != nil {
		return nil, err
	}
	return payload, nil
}

// DeleteAlert removes an alert by id.
func (c *Client) DeleteAlert(ctx context.Context, alertID string) error {
	if strings.TrimSpace(alertID) == "" {
		return fmt.Errorf("alert id required")
	}
	return c.do(ctx, http.MethodDelete, c.endpoint(nil, "cryptos", "alerts", alertID), nil, nil)
}

// TopMovers retrieves the biggest gainers (or losers) of the last 24h.
func (c *Client) TopMovers(ctx context.Context, gainers bool, count int) ([]market.RawAsset, error) {
	kind := "top-losers"
	if gainers {
		kind = "top-gainers"
	}
	if count <= 0 {
		count = 5
	}
	values := url.Values{}
	values.Set("count", strconv.Itoa(count))
	var payload []market.RawAsset
	if err := c.getJSON(ctx, values, &payload, "cryptos", "stats", kind); err != nil {
		return nil, err
	}
	return payload, nil
}

// Compare retrieves the records of several assets side by side.
func (c *Client) Compare(ctx context.Context, ids []string) ([]market.RawAsset, error) {
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			cleaned = append(cleaned, id)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("asset ids required")
	}
	values := url.Values{}
	values.Set("ids", strings.Join(cleaned, ","))
	var payload []market.RawAsset
	if err := c.getJSON(ctx, values, &payload, "cryptos", "compare"); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *Client) getJSON(ctx context.Context, query url.Values, dest any, segments ...string) error {
	return c.do(ctx, http.MethodGet, c.endpoint(query, segments...), nil, jsonSink(dest))
}

// endpoint resolves escaped path segments below the base URL.
func (c *Client) endpoint(query url.Values, segments ...string) *url.URL {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	u := c.baseURL.JoinPath(escaped...)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u
}

// sink consumes a successful response body.
type sink interface {
	consume(r io.Reader) error
}

type jsonDest struct{ dest any }

func jsonSink(dest any) sink { return jsonDest{dest: dest} }

func (j jsonDest) consume(r io.Reader) error {
	if err := json.NewDecoder(r).Decode(j.dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method string, target *url.URL, body []byte, out any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &StatusError{Method: method, Path: target.Path, Code: resp.StatusCode}
	}

	switch dest := out.(type) {
	case nil:
		return nil
	case sink:
		return dest.consume(resp.Body)
	case *bytes.Buffer:
		n, err := io.Copy(dest, io.LimitReader(resp.Body, maxExportBytes+1))
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		if n > maxExportBytes {
			dest.Reset()
			return fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, maxExportBytes)
		}
		return nil
	default:
		return fmt.Errorf("unsupported response destination %T", out)
	}
}

// parseInterval accepts a bare number or an object carrying one.
func parseInterval(raw json.RawMessage) (int, error) {
	var seconds float64
	if err := json.Unmarshal(raw, &seconds); err != nil {
		var wrapped struct {
			UpdateInterval  *float64 `json:"updateInterval"`
			IntervalSeconds *float64 `json:"intervalSeconds"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidInterval, strings.TrimSpace(string(raw)))
		}
		switch {
		case wrapped.UpdateInterval != nil:
			seconds = *wrapped.UpdateInterval
		case wrapped.IntervalSeconds != nil:
			seconds = *wrapped.IntervalSeconds
		default:
			return 0, fmt.Errorf("%w: %s", ErrInvalidInterval, strings.TrimSpace(string(raw)))
		}
	}
	if seconds < 1 || seconds > maxIntervalSeconds {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInterval, seconds)
	}
	return int(seconds), nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
