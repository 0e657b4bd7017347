package reconcile

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/coindeck/internal/market"
	"github.com/five82/coindeck/internal/state"
)

var fixedNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

type favCall struct {
	id  string
	add bool
}

type fakeSource struct {
	mu       sync.Mutex
	list     func(ctx context.Context) ([]market.RawAsset, error)
	favorite func(ctx context.Context, id string, add bool) error
	calls    []favCall
}

func (f *fakeSource) ListAssets(ctx context.Context) ([]market.RawAsset, error) {
	return f.list(ctx)
}

func (f *fakeSource) AddFavorite(ctx context.Context, id string) error {
	return f.fav(ctx, id, true)
}

func (f *fakeSource) RemoveFavorite(ctx context.Context, id string) error {
	return f.fav(ctx, id, false)
}

func (f *fakeSource) fav(ctx context.Context, id string, add bool) error {
	f.mu.Lock()
	f.calls = append(f.calls, favCall{id, add})
	fn := f.favorite
	f.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ctx, id, add)
}

func (f *fakeSource) favCalls() []favCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]favCall(nil), f.calls...)
}

func listOf(records ...market.RawAsset) func(context.Context) ([]market.RawAsset, error) {
	return func(context.Context) ([]market.RawAsset, error) { return records, nil }
}

type recordingSink struct {
	mu    sync.Mutex
	calls [][]market.Asset
	err   error
}

func (r *recordingSink) Record(_ context.Context, assets []market.Asset, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, assets)
	return r.err
}

func newEngine(src Source, opts Options) (*Engine, *state.Store) {
	store := &state.Store{}
	opts.Normalizer.Trend = market.NewTrendGenerator(rand.NewPCG(1, 1))
	opts.Now = func() time.Time { return fixedNow }
	return New(src, store, opts), store
}

func ids(assets []market.Asset) []string {
	out := make([]string, len(assets))
	for i, a := range assets {
		out[i] = a.ID
	}
	return out
}

func TestRefresh_ReplacesInPayloadOrder(t *testing.T) {
	src := &fakeSource{list: listOf(
		market.RawAsset{"id": "eth", "name": "Ethereum", "priceUsd": 3000.0},
		market.RawAsset{"id": "bitcoin", "name": "Bitcoin", "logo": "b.png"},
	)}
	eng, store := newEngine(src, Options{})

	res, err := eng.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)

	snap := store.Snapshot()
	assert.Equal(t, []string{"eth", "bitcoin"}, ids(snap.Assets))
	assert.Equal(t, "b.png", snap.Assets[1].LogoURL)
	assert.Equal(t, fixedNow, snap.LastUpdated)
	assert.True(t, snap.Assets[1].TrendSynthetic)
}

func TestRefresh_DropsMissingAndDuplicateIDs(t *testing.T) {
	src := &fakeSource{list: listOf(
		market.RawAsset{"id": "a", "name": "first"},
		market.RawAsset{"name": "no id"},
		market.RawAsset{"id": "a", "name": "second"},
		market.RawAsset{"id": "b"},
	)}
	eng, store := newEngine(src, Options{})

	res, err := eng.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, 2, res.Dropped)

	snap := store.Snapshot()
	assert.Equal(t, []string{"a", "b"}, ids(snap.Assets))
	assert.Equal(t, "first", snap.Assets[0].DisplayName)
}

func TestRefresh_FailureKeepsCollection(t *testing.T) {
	boom := errors.New("connection refused")
	fail := false
	src := &fakeSource{list: func(context.Context) ([]market.RawAsset, error) {
		if fail {
			return nil, boom
		}
		return []market.RawAsset{{"id": "bitcoin"}}, nil
	}}
	eng, store := newEngine(src, Options{})

	_, err := eng.Refresh(context.Background())
	require.NoError(t, err)

	fail = true
	_, err = eng.Refresh(context.Background())
	require.ErrorIs(t, err, boom)

	snap := store.Snapshot()
	assert.Equal(t, []string{"bitcoin"}, ids(snap.Assets))
	assert.ErrorIs(t, snap.LastError, boom)
	assert.Equal(t, 1, snap.ConsecutiveFailures)
}

func TestRefresh_FirstLoadFailureLeavesEmpty(t *testing.T) {
	src := &fakeSource{list: func(context.Context) ([]market.RawAsset, error) {
		return nil, errors.New("down")
	}}
	eng, store := newEngine(src, Options{})

	_, err := eng.Refresh(context.Background())
	require.Error(t, err)
	snap := store.Snapshot()
	assert.Empty(t, snap.Assets)
	assert.False(t, snap.Loaded)
}

func TestRefresh_FavoritePolicies(t *testing.T) {
	first := listOf(
		market.RawAsset{"id": "a", "isFavorite": true},
		market.RawAsset{"id": "b", "isFavorite": true},
	)
	second := listOf(
		market.RawAsset{"id": "a"},                      // flag omitted
		market.RawAsset{"id": "b", "isFavorite": false}, // explicit
		market.RawAsset{"id": "c"},                      // new
	)

	cases := []struct {
		policy FavoritePolicy
		want   map[string]bool
	}{
		{PolicyMerge, map[string]bool{"a": true, "b": false, "c": false}},
		{PolicyServer, map[string]bool{"a": false, "b": false, "c": false}},
	}
	for _, tc := range cases {
		t.Run(string(tc.policy), func(t *testing.T) {
			src := &fakeSource{list: first}
			eng, store := newEngine(src, Options{Policy: tc.policy})
			_, err := eng.Refresh(context.Background())
			require.NoError(t, err)

			src.list = second
			_, err = eng.Refresh(context.Background())
			require.NoError(t, err)

			got := map[string]bool{}
			for _, a := range store.Assets() {
				got[a.ID] = a.IsFavorite
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyMerge, p)

	p, err = ParsePolicy("server")
	require.NoError(t, err)
	assert.Equal(t, PolicyServer, p)

	_, err = ParsePolicy("client")
	require.Error(t, err)
}

func TestRefresh_StaleCompletionDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var calls int
	var mu sync.Mutex
	src := &fakeSource{list: func(context.Context) ([]market.RawAsset, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(started)
			<-release
			return []market.RawAsset{{"id": "old"}}, nil
		}
		return []market.RawAsset{{"id": "new"}}, nil
	}}
	eng, store := newEngine(src, Options{})

	errc := make(chan error, 1)
	go func() {
		_, err := eng.Refresh(context.Background())
		errc <- err
	}()
	<-started

	_, err := eng.Refresh(context.Background())
	require.NoError(t, err)
	close(release)

	require.ErrorIs(t, <-errc, ErrDiscarded)
	assert.Equal(t, []string{"new"}, ids(store.Assets()))
}

func TestRefresh_CancelledBeforeCommit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &fakeSource{list: func(context.Context) ([]market.RawAsset, error) {
		cancel()
		return []market.RawAsset{{"id": "late"}}, nil
	}}
	eng, store := newEngine(src, Options{})

	_, err := eng.Refresh(ctx)
	require.ErrorIs(t, err, ErrDiscarded)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, store.Snapshot().Loaded)
}

func TestRefresh_SinksSeeCommits(t *testing.T) {
	ok := &recordingSink{}
	broken := &recordingSink{err: errors.New("redis down")}
	src := &fakeSource{list: listOf(market.RawAsset{"id": "a"})}
	eng, _ := newEngine(src, Options{Sinks: []Sink{broken, ok}})

	_, err := eng.Refresh(context.Background())
	require.NoError(t, err, "sink failures never fail a refresh")
	require.Len(t, ok.calls, 1)
	assert.Equal(t, []string{"a"}, ids(ok.calls[0]))
	assert.Len(t, broken.calls, 1)
}

func TestSeed_OnlyBeforeFirstLoad(t *testing.T) {
	src := &fakeSource{list: listOf(market.RawAsset{"id": "live"})}
	eng, store := newEngine(src, Options{})

	assert.True(t, eng.Seed([]market.Asset{{ID: "cached"}}, fixedNow.Add(-time.Hour)))
	assert.True(t, store.Snapshot().Stale)

	_, err := eng.Refresh(context.Background())
	require.NoError(t, err)
	assert.False(t, eng.Seed([]market.Asset{{ID: "cached"}}, fixedNow))
	assert.Equal(t, []string{"live"}, ids(store.Assets()))
	assert.False(t, store.Snapshot().Stale)
}

func loadedEngine(t *testing.T, src *fakeSource) (*Engine, *state.Store) {
	t.Helper()
	src.list = listOf(
		market.RawAsset{"id": "bitcoin", "isFavorite": false},
		market.RawAsset{"id": "eth", "isFavorite": true},
	)
	eng, store := newEngine(src, Options{})
	_, err := eng.Refresh(context.Background())
	require.NoError(t, err)
	return eng, store
}

func favorite(t *testing.T, store *state.Store, id string) bool {
	t.Helper()
	a, ok := store.Lookup(id)
	require.True(t, ok, "asset %s missing", id)
	return a.IsFavorite
}

func TestToggleFavorite_OptimisticThenConfirmed(t *testing.T) {
	src := &fakeSource{}
	eng, store := loadedEngine(t, src)

	seenDuringCall := make(chan bool, 1)
	src.favorite = func(_ context.Context, id string, _ bool) error {
		a, _ := store.Lookup(id)
		seenDuringCall <- a.IsFavorite
		return nil
	}

	res := eng.ToggleFavorite(context.Background(), "bitcoin")
	assert.Equal(t, ToggleConfirmed, res.Outcome)
	assert.True(t, res.Favorite)
	assert.NoError(t, res.Err)
	assert.NotEmpty(t, res.OpID)

	assert.True(t, <-seenDuringCall, "flag must flip before the backend call")
	assert.True(t, favorite(t, store, "bitcoin"))
	assert.Equal(t, []favCall{{"bitcoin", true}}, src.favCalls())
	assert.False(t, eng.Pending("bitcoin"))
}

func TestToggleFavorite_RemoveUsesDelete(t *testing.T) {
	src := &fakeSource{}
	eng, store := loadedEngine(t, src)

	res := eng.ToggleFavorite(context.Background(), "eth")
	assert.Equal(t, ToggleConfirmed, res.Outcome)
	assert.False(t, favorite(t, store, "eth"))
	assert.Equal(t, []favCall{{"eth", false}}, src.favCalls())
}

func TestToggleFavorite_FailureRollsBack(t *testing.T) {
	src := &fakeSource{}
	eng, store := loadedEngine(t, src)
	<-store.Changes()

	boom := errors.New("500")
	src.favorite = func(context.Context, string, bool) error { return boom }

	res := eng.ToggleFavorite(context.Background(), "bitcoin")
	assert.Equal(t, ToggleRolledBack, res.Outcome)
	assert.False(t, res.Favorite)
	assert.ErrorIs(t, res.Err, boom)
	assert.False(t, favorite(t, store, "bitcoin"))

	select {
	case <-store.Changes():
	default:
		t.Fatal("rollback did not notify subscribers")
	}
}

func TestToggleFavorite_UnknownIDIsNoop(t *testing.T) {
	src := &fakeSource{}
	eng, store := loadedEngine(t, src)
	before := store.Snapshot()

	res := eng.ToggleFavorite(context.Background(), "nope")
	assert.Equal(t, ToggleNoop, res.Outcome)
	assert.NoError(t, res.Err)
	assert.Empty(t, src.favCalls())
	assert.Equal(t, before.Assets, store.Snapshot().Assets)
}

func TestToggleFavorite_OlderFailureIsSuperseded(t *testing.T) {
	src := &fakeSource{}
	eng, store := loadedEngine(t, src)

	firstInFlight := make(chan struct{})
	releaseFirst := make(chan struct{})
	var n int
	var mu sync.Mutex
	src.favorite = func(_ context.Context, _ string, _ bool) error {
		mu.Lock()
		n++
		call := n
		mu.Unlock()
		if call == 1 {
			close(firstInFlight)
			<-releaseFirst
			return errors.New("timeout")
		}
		return nil
	}

	first := make(chan ToggleResult, 1)
	go func() { first <- eng.ToggleFavorite(context.Background(), "bitcoin") }()
	<-firstInFlight
	require.True(t, favorite(t, store, "bitcoin"))

	second := eng.ToggleFavorite(context.Background(), "bitcoin")
	assert.Equal(t, ToggleConfirmed, second.Outcome)
	assert.False(t, favorite(t, store, "bitcoin"))

	close(releaseFirst)
	got := <-first
	assert.Equal(t, ToggleSuperseded, got.Outcome)
	assert.Error(t, got.Err)
	assert.False(t, favorite(t, store, "bitcoin"), "superseded op must not roll back")
}

func TestToggleFavorite_PendingSurvivesRefresh(t *testing.T) {
	src := &fakeSource{}
	eng, store := loadedEngine(t, src)

	inFlight := make(chan struct{})
	release := make(chan struct{})
	src.favorite = func(context.Context, string, bool) error {
		close(inFlight)
		<-release
		return nil
	}

	done := make(chan ToggleResult, 1)
	go func() { done <- eng.ToggleFavorite(context.Background(), "bitcoin") }()
	<-inFlight

	// Server has not applied the change yet and says false explicitly.
	src.list = listOf(market.RawAsset{"id": "bitcoin", "isFavorite": false})
	_, err := eng.Refresh(context.Background())
	require.NoError(t, err)
	assert.True(t, favorite(t, store, "bitcoin"))

	close(release)
	assert.Equal(t, ToggleConfirmed, (<-done).Outcome)
	assert.True(t, favorite(t, store, "bitcoin"))
}

func TestToggleOutcome_String(t *testing.T) {
	assert.Equal(t, "rolled-back", ToggleRolledBack.String())
	assert.Equal(t, "superseded", ToggleSuperseded.String())
	assert.Equal(t, "ToggleOutcome(9)", ToggleOutcome(9).String())
}
