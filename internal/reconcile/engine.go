package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/five82/coindeck/internal/market"
	"github.com/five82/coindeck/internal/state"
)

// Source is the slice of the backend API the engine needs.
type Source interface {
	ListAssets(ctx context.Context) ([]market.RawAsset, error)
	AddFavorite(ctx context.Context, id string) error
	RemoveFavorite(ctx context.Context, id string) error
}

// Sink receives every committed collection, e.g. a cache or a price journal.
// Sink errors are logged and never affect the commit.
type Sink interface {
	Record(ctx context.Context, assets []market.Asset, at time.Time) error
}

// FavoritePolicy decides what a refresh does with a record that omits the
// favorite flag.
type FavoritePolicy string

const (
	// PolicyMerge carries the flag over from the previous record with the same id.
	PolicyMerge FavoritePolicy = "merge"
	// PolicyServer treats an absent flag as false.
	PolicyServer FavoritePolicy = "server"
)

// ParsePolicy validates a configured policy name. Empty means PolicyMerge.
func ParsePolicy(s string) (FavoritePolicy, error) {
	switch FavoritePolicy(s) {
	case "", PolicyMerge:
		return PolicyMerge, nil
	case PolicyServer:
		return PolicyServer, nil
	default:
		return "", fmt.Errorf("unknown favorite policy %q (want merge or server)", s)
	}
}

// ErrDiscarded marks a refresh whose result was not committed.
var ErrDiscarded = errors.New("refresh discarded")

// Options configures an Engine.
type Options struct {
	Policy     FavoritePolicy
	Normalizer market.Normalizer
	Sinks      []Sink
	Logger     *zap.Logger
	Now        func() time.Time
}

// RefreshResult describes one completed refresh.
type RefreshResult struct {
	Seq     uint64
	Count   int // records committed
	Dropped int // records without id or with a duplicate id
}

// Engine owns the canonical collection stored in a state.Store.
type Engine struct {
	src    Source
	store  *state.Store
	norm   market.Normalizer
	policy FavoritePolicy
	sinks  []Sink
	log    *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	startSeq  uint64
	committed uint64
	pending   map[string]*toggleOp
	toggleSeq map[string]uint64
}

// New builds an Engine that commits into store.
func New(src Source, store *state.Store, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	norm := opts.Normalizer
	if norm.Now == nil {
		norm.Now = now
	}
	policy := opts.Policy
	if policy == "" {
		policy = PolicyMerge
	}
	return &Engine{
		src:       src,
		store:     store,
		norm:      norm,
		policy:    policy,
		sinks:     opts.Sinks,
		log:       logger.With(zap.String("component", "reconcile")),
		now:       now,
		pending:   make(map[string]*toggleOp),
		toggleSeq: make(map[string]uint64),
	}
}

// Refresh fetches the asset list, normalizes it and replaces the canonical
// collection. On fetch failure the collection is kept and the error is
// recorded and returned. A refresh that is overtaken by a newer committed
// refresh, or whose ctx is done before commit, returns ErrDiscarded.
func (e *Engine) Refresh(ctx context.Context) (RefreshResult, error) {
	e.mu.Lock()
	e.startSeq++
	seq := e.startSeq
	e.mu.Unlock()

	raw, fetchErr := e.src.ListAssets(ctx)

	var (
		normalized []market.Normalized
		dropped    int
	)
	if fetchErr == nil {
		normalized, dropped = e.normalizeAll(raw)
	}

	e.mu.Lock()
	if err := ctx.Err(); err != nil {
		e.mu.Unlock()
		e.log.Debug("refresh cancelled before commit", zap.Uint64("seq", seq))
		return RefreshResult{Seq: seq}, fmt.Errorf("%w: %w", ErrDiscarded, err)
	}
	if seq < e.committed {
		e.mu.Unlock()
		e.log.Debug("stale refresh dropped", zap.Uint64("seq", seq), zap.Uint64("committed", e.committed))
		return RefreshResult{Seq: seq}, fmt.Errorf("%w: overtaken by refresh %d", ErrDiscarded, e.committed)
	}
	at := e.now()
	if fetchErr != nil {
		e.store.Fail(fetchErr, at)
		failures := e.store.Snapshot().ConsecutiveFailures
		e.mu.Unlock()
		e.log.Warn("refresh failed", zap.Uint64("seq", seq), zap.Int("consecutive_failures", failures), zap.Error(fetchErr))
		return RefreshResult{Seq: seq}, fmt.Errorf("list assets: %w", fetchErr)
	}

	assets := e.mergeLocked(normalized)
	e.committed = seq
	e.store.Replace(assets, at)
	e.mu.Unlock()

	e.log.Debug("refresh committed", zap.Uint64("seq", seq), zap.Int("count", len(assets)), zap.Int("dropped", dropped))
	e.record(ctx, assets, at)
	return RefreshResult{Seq: seq, Count: len(assets), Dropped: dropped}, nil
}

// Seed installs a cached collection before the first successful refresh.
// It reports whether the store accepted it.
func (e *Engine) Seed(assets []market.Asset, cachedAt time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	ok := e.store.Warm(assets, cachedAt)
	if ok {
		e.log.Info("store warmed from cache", zap.Int("count", len(assets)), zap.Time("cached_at", cachedAt))
	}
	return ok
}

func (e *Engine) normalizeAll(raw []market.RawAsset) ([]market.Normalized, int) {
	out := make([]market.Normalized, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	dropped := 0
	for i, rec := range raw {
		n, err := e.norm.Normalize(rec)
		if err != nil {
			dropped++
			e.log.Warn("dropping asset record", zap.Int("index", i), zap.Error(err))
			continue
		}
		if _, dup := seen[n.Asset.ID]; dup {
			dropped++
			e.log.Warn("dropping duplicate asset id", zap.Int("index", i), zap.String("id", n.Asset.ID))
			continue
		}
		seen[n.Asset.ID] = struct{}{}
		out = append(out, n)
	}
	return out, dropped
}

// mergeLocked resolves favorite flags against the previous collection and
// pending toggles. Caller holds e.mu.
func (e *Engine) mergeLocked(normalized []market.Normalized) []market.Asset {
	var previous map[string]bool
	if e.policy == PolicyMerge {
		prev := e.store.Assets()
		previous = make(map[string]bool, len(prev))
		for _, a := range prev {
			previous[a.ID] = a.IsFavorite
		}
	}

	assets := make([]market.Asset, len(normalized))
	for i, n := range normalized {
		a := n.Asset
		if !n.HasFavorite && previous != nil {
			a.IsFavorite = previous[a.ID]
		}
		if op, ok := e.pending[a.ID]; ok {
			a.IsFavorite = op.target
		}
		assets[i] = a
	}
	return assets
}

func (e *Engine) record(ctx context.Context, assets []market.Asset, at time.Time) {
	for _, sink := range e.sinks {
		if err := sink.Record(ctx, assets, at); err != nil {
			e.log.Warn("sink record failed", zap.String("sink", fmt.Sprintf("%T", sink)), zap.Error(err))
		}
	}
}

// ToggleOutcome is the final state of one favorite toggle.
type ToggleOutcome int

const (
	// ToggleNoop means the id was not in the collection.
	ToggleNoop ToggleOutcome = iota
	// ToggleConfirmed means the backend accepted the change.
	ToggleConfirmed
	// ToggleRolledBack means the backend call failed and the flag was restored.
	ToggleRolledBack
	// ToggleSuperseded means a newer toggle on the same asset started before
	// this one finished, so this one leaves the flag alone.
	ToggleSuperseded
)

func (o ToggleOutcome) String() string {
	switch o {
	case ToggleNoop:
		return "noop"
	case ToggleConfirmed:
		return "confirmed"
	case ToggleRolledBack:
		return "rolled-back"
	case ToggleSuperseded:
		return "superseded"
	default:
		return fmt.Sprintf("ToggleOutcome(%d)", int(o))
	}
}

// ToggleResult reports how a toggle settled.
type ToggleResult struct {
	OpID     string
	AssetID  string
	Outcome  ToggleOutcome
	Favorite bool  // flag value the operation left in the store
	Err      error // backend error, if the call failed
}

type toggleOp struct {
	id     string
	seq    uint64
	prev   bool
	target bool
}

// ToggleFavorite flips the favorite flag of id optimistically, then asks the
// backend to persist it. On failure the latest operation for the asset
// restores the pre-toggle value; an older operation is marked superseded.
// Unknown ids are a no-op.
func (e *Engine) ToggleFavorite(ctx context.Context, id string) ToggleResult {
	e.mu.Lock()
	current, ok := e.store.Lookup(id)
	if !ok {
		e.mu.Unlock()
		return ToggleResult{AssetID: id, Outcome: ToggleNoop}
	}
	e.toggleSeq[id]++
	op := &toggleOp{
		id:     uuid.NewString(),
		seq:    e.toggleSeq[id],
		prev:   current.IsFavorite,
		target: !current.IsFavorite,
	}
	e.pending[id] = op
	e.store.SetFavorite(id, op.target)
	e.mu.Unlock()

	log := e.log.With(zap.String("op", op.id), zap.String("id", id), zap.Uint64("op_seq", op.seq))
	log.Debug("favorite toggle pending", zap.Bool("target", op.target))

	var err error
	if op.target {
		err = e.src.AddFavorite(ctx, id)
	} else {
		err = e.src.RemoveFavorite(ctx, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	res := ToggleResult{OpID: op.id, AssetID: id}
	if e.pending[id] != op {
		res.Outcome = ToggleSuperseded
		if a, ok := e.store.Lookup(id); ok {
			res.Favorite = a.IsFavorite
		}
		if err != nil {
			res.Err = fmt.Errorf("toggle favorite %s: %w", id, err)
			log.Warn("superseded favorite toggle failed", zap.Error(err))
		}
		return res
	}
	delete(e.pending, id)

	if err != nil {
		e.store.SetFavorite(id, op.prev)
		res.Outcome = ToggleRolledBack
		res.Favorite = op.prev
		res.Err = fmt.Errorf("toggle favorite %s: %w", id, err)
		log.Warn("favorite toggle rolled back", zap.Error(err))
		return res
	}

	res.Outcome = ToggleConfirmed
	res.Favorite = op.target
	log.Info("favorite toggle confirmed", zap.Bool("favorite", op.target))
	return res
}

// Pending reports whether a toggle for id is in flight.
func (e *Engine) Pending(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.pending[id]
	return ok
}
