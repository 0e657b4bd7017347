// Package cache keeps the last committed asset list in redis so a restart
// while the backend is down still has something to show.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/five82/coindeck/internal/market"
)

// KV is the slice of redis the cache needs.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

// ErrMiss is returned by Load when nothing is cached.
var ErrMiss = errors.New("cache miss")

// Options configures a redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	Key      string
	TTL      time.Duration
}

const defaultKey = "coindeck:assets"

// Cache stores one snapshot of the asset list under a single key.
type Cache struct {
	kv     KV
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// Dial connects to redis and pings it before returning.
func Dial(ctx context.Context, opts Options, logger *zap.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	kv := redisKV{client: client}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := kv.Ping(pingCtx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
	}
	return New(kv, opts.Key, opts.TTL, logger), nil
}

// New wraps an existing KV. A zero ttl keeps entries forever.
func New(kv KV, key string, ttl time.Duration, logger *zap.Logger) *Cache {
	if key == "" {
		key = defaultKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		kv:     kv,
		key:    key,
		ttl:    ttl,
		logger: logger.With(zap.String("component", "cache")),
	}
}

// Record saves assets as the latest snapshot. It satisfies reconcile.Sink.
func (c *Cache) Record(ctx context.Context, assets []market.Asset, at time.Time) error {
	payload := entry{CachedAt: at.UTC(), Assets: make([]cachedAsset, 0, len(assets))}
	for _, a := range assets {
		payload.Assets = append(payload.Assets, fromAsset(a))
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := c.kv.Set(ctx, c.key, string(data), c.ttl); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	c.logger.Debug("snapshot cached", zap.Int("count", len(assets)))
	return nil
}

// Load returns the cached assets and when they were committed.
func (c *Cache) Load(ctx context.Context) ([]market.Asset, time.Time, error) {
	data, err := c.kv.Get(ctx, c.key)
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, ErrMiss) {
			return nil, time.Time{}, ErrMiss
		}
		return nil, time.Time{}, fmt.Errorf("read snapshot: %w", err)
	}

	var payload entry
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode snapshot: %w", err)
	}
	assets := make([]market.Asset, 0, len(payload.Assets))
	for _, ca := range payload.Assets {
		if ca.ID == "" {
			continue
		}
		assets = append(assets, ca.toAsset())
	}
	return assets, payload.CachedAt, nil
}

// Close releases the redis connection.
func (c *Cache) Close() error {
	return c.kv.Close()
}

type entry struct {
	CachedAt time.Time     `json:"cachedAt"`
	Assets   []cachedAsset `json:"assets"`
}

type cachedAsset struct {
	ID              string    `json:"id"`
	DisplayName     string    `json:"displayName"`
	Symbol          string    `json:"symbol"`
	LogoURL         string    `json:"logoUrl,omitempty"`
	PriceUSD        float64   `json:"priceUsd"`
	PriceLocal      float64   `json:"priceLocal"`
	VariationPct24h float64   `json:"variationPct24h"`
	MarketCap       float64   `json:"marketCap"`
	Volume24h       float64   `json:"volume24h"`
	LastUpdatedAt   time.Time `json:"lastUpdatedAt"`
	IsFavorite      bool      `json:"isFavorite"`
	Trend           []float64 `json:"trend,omitempty"`
	TrendSynthetic  bool      `json:"trendSynthetic,omitempty"`
}

func fromAsset(a market.Asset) cachedAsset {
	return cachedAsset{
		ID:              a.ID,
		DisplayName:     a.DisplayName,
		Symbol:          a.Symbol,
		LogoURL:         a.LogoURL,
		PriceUSD:        a.PriceUSD,
		PriceLocal:      a.PriceLocal,
		VariationPct24h: a.VariationPct24h,
		MarketCap:       a.MarketCap,
		Volume24h:       a.Volume24h,
		LastUpdatedAt:   a.LastUpdatedAt,
		IsFavorite:      a.IsFavorite,
		Trend:           a.Trend,
		TrendSynthetic:  a.TrendSynthetic,
	}
}

func (c cachedAsset) toAsset() market.Asset {
	return market.Asset{
		ID:              c.ID,
		DisplayName:     c.DisplayName,
		Symbol:          c.Symbol,
		LogoURL:         c.LogoURL,
		PriceUSD:        c.PriceUSD,
		PriceLocal:      c.PriceLocal,
		VariationPct24h: c.VariationPct24h,
		MarketCap:       c.MarketCap,
		Volume24h:       c.Volume24h,
		LastUpdatedAt:   c.LastUpdatedAt,
		IsFavorite:      c.IsFavorite,
		Trend:           c.Trend,
		TrendSynthetic:  c.TrendSynthetic,
	}
}

type redisKV struct {
	client *redis.Client
}

func (r redisKV) Get(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

func (r redisKV) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r redisKV) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r redisKV) Close() error {
	return r.client.Close()
}
