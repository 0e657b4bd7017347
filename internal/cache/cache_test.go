package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/coindeck/internal/market"
)

type memKV struct {
	mu     sync.Mutex
	data   map[string]string
	ttls   map[string]time.Duration
	setErr error
	closed bool
}

func newMemKV() *memKV {
	return &memKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrMiss
	}
	return v, nil
}

func (m *memKV) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memKV) Ping(context.Context) error { return nil }

func (m *memKV) Close() error {
	m.closed = true
	return nil
}

func TestRecordThenLoad(t *testing.T) {
	kv := newMemKV()
	c := New(kv, "k", time.Hour, nil)
	at := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

	assets := []market.Asset{
		{ID: "btc", DisplayName: "Bitcoin", Symbol: "BTC", PriceUSD: 65000, IsFavorite: true, Trend: []float64{1, 2, 3}},
		{ID: "eth", DisplayName: "Ethereum", Symbol: "ETH", PriceUSD: 3000, VariationPct24h: -1.5, TrendSynthetic: true},
	}
	require.NoError(t, c.Record(context.Background(), assets, at))
	assert.Equal(t, time.Hour, kv.ttls["k"])

	got, cachedAt, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, cachedAt.Equal(at))
	assert.Equal(t, assets, got)
}

func TestLoad_Miss(t *testing.T) {
	c := New(newMemKV(), "", 0, nil)
	_, _, err := c.Load(context.Background())
	assert.ErrorIs(t, err, ErrMiss)
}

func TestLoad_CorruptPayload(t *testing.T) {
	kv := newMemKV()
	kv.data[defaultKey] = "{nope"
	c := New(kv, "", 0, nil)

	_, _, err := c.Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
	assert.Contains(t, err.Error(), "decode snapshot")
}

func TestLoad_SkipsEntriesWithoutID(t *testing.T) {
	kv := newMemKV()
	kv.data["k"] = `{"cachedAt":"2026-10-19T00:00:00Z","assets":[{"id":""},{"id":"sol","symbol":"SOL"}]}`
	c := New(kv, "k", 0, nil)

	got, _, err := c.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sol", got[0].ID)
}

func TestRecord_WrapsWriteError(t *testing.T) {
	kv := newMemKV()
	kv.setErr = errors.New("READONLY")
	c := New(kv, "k", 0, nil)

	err := c.Record(context.Background(), nil, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write snapshot")
}

func TestClose(t *testing.T) {
	kv := newMemKV()
	require.NoError(t, New(kv, "k", 0, nil).Close())
	assert.True(t, kv.closed)
}
