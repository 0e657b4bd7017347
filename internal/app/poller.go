package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/five82/coindeck/internal/reconcile"
)

const (
	defaultPollInterval = 300 * time.Second
	defaultFetchTimeout = 10 * time.Second
)

var (
	ErrSchedulerRunning = errors.New("scheduler already running")
	ErrSchedulerStopped = errors.New("scheduler not running")
)

// Refresher performs one refresh of the canonical collection.
type Refresher interface {
	Refresh(ctx context.Context) (reconcile.RefreshResult, error)
}

// IntervalSource reports the backend's refresh period in seconds.
type IntervalSource interface {
	FetchUpdateInterval(ctx context.Context) (int, error)
}

// Ticker abstracts time.Ticker so tests can drive ticks by hand.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} }

// SchedulerOptions configure a Scheduler. Zero values use defaults.
type SchedulerOptions struct {
	DefaultInterval time.Duration // used when the backend interval is unavailable
	FetchTimeout    time.Duration // bound on the interval request
	Logger          *zap.Logger
	NewTicker       func(time.Duration) Ticker
	// OnRefresh is called after every scheduled or manual refresh.
	OnRefresh func(reconcile.RefreshResult, error)
}

// Scheduler triggers refreshes at the period the backend asks for.
type Scheduler struct {
	refresher Refresher
	intervals IntervalSource
	opts      SchedulerOptions
	log       *zap.Logger

	mu       sync.Mutex
	running  bool
	runCtx   context.Context
	cancel   context.CancelFunc
	wg       *sync.WaitGroup
	interval time.Duration
	failures int
}

// NewScheduler builds a stopped Scheduler.
func NewScheduler(refresher Refresher, intervals IntervalSource, opts SchedulerOptions) *Scheduler {
	if opts.DefaultInterval <= 0 {
		opts.DefaultInterval = defaultPollInterval
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if opts.NewTicker == nil {
		opts.NewTicker = newTimeTicker
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		refresher: refresher,
		intervals: intervals,
		opts:      opts,
		log:       logger.With(zap.String("component", "scheduler")),
	}
}

// Start fetches the refresh period once and launches the ticker goroutine.
// A failed or invalid period falls back to the default and is only logged.
// Starting a running scheduler returns ErrSchedulerRunning.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrSchedulerRunning
	}
	s.mu.Unlock()

	interval := s.fetchInterval(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrSchedulerRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.runCtx = runCtx
	s.cancel = cancel
	s.wg = &sync.WaitGroup{}
	s.interval = interval
	s.failures = 0

	ticker := s.opts.NewTicker(interval)
	s.wg.Add(1)
	go s.loop(runCtx, ticker, s.wg)

	s.log.Info("scheduler started", zap.Duration("interval", interval))
	return nil
}

func (s *Scheduler) fetchInterval(ctx context.Context) time.Duration {
	if s.intervals == nil {
		return s.opts.DefaultInterval
	}
	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	seconds, err := s.intervals.FetchUpdateInterval(fetchCtx)
	if err != nil {
		s.log.Warn("update interval unavailable, using default",
			zap.Duration("default", s.opts.DefaultInterval), zap.Error(err))
		return s.opts.DefaultInterval
	}
	if seconds <= 0 {
		s.log.Warn("update interval not positive, using default",
			zap.Int("seconds", seconds), zap.Duration("default", s.opts.DefaultInterval))
		return s.opts.DefaultInterval
	}
	return time.Duration(seconds) * time.Second
}

func (s *Scheduler) loop(ctx context.Context, ticker Ticker, wg *sync.WaitGroup) {
	defer wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
		}
		// A tick and a stop can be ready together; stop wins.
		if ctx.Err() != nil {
			return
		}
		s.run(ctx, "tick")
	}
}

func (s *Scheduler) run(ctx context.Context, trigger string) (reconcile.RefreshResult, error) {
	res, err := s.refresher.Refresh(ctx)

	s.mu.Lock()
	switch {
	case err == nil:
		s.failures = 0
	case errors.Is(err, reconcile.ErrDiscarded):
	default:
		s.failures++
	}
	failures := s.failures
	s.mu.Unlock()

	switch {
	case err == nil:
		s.log.Debug("refresh done", zap.String("trigger", trigger), zap.Int("count", res.Count))
	case errors.Is(err, reconcile.ErrDiscarded):
		s.log.Debug("refresh discarded", zap.String("trigger", trigger), zap.Error(err))
	default:
		s.log.Warn("refresh failed", zap.String("trigger", trigger),
			zap.Int("consecutive_failures", failures), zap.Error(err))
	}
	if s.opts.OnRefresh != nil {
		s.opts.OnRefresh(res, err)
	}
	return res, err
}

// RefreshNow runs one refresh outside the cadence. The ticker is not reset.
// The refresh is cancelled when either ctx or the scheduler stops.
func (s *Scheduler) RefreshNow(ctx context.Context) (reconcile.RefreshResult, error) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return reconcile.RefreshResult{}, ErrSchedulerStopped
	}
	wg := s.wg
	runCtx := s.runCtx
	wg.Add(1)
	s.mu.Unlock()
	defer wg.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(runCtx, cancel)
	defer stop()

	return s.run(ctx, "manual")
}

// Stop cancels the ticker goroutine and any in-flight RefreshNow and waits
// for them to return. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	wg := s.wg
	s.mu.Unlock()

	wg.Wait()
	s.log.Info("scheduler stopped")
}

// Running reports whether the ticker goroutine is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Interval returns the period chosen by the last Start.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// Failures returns the number of consecutive failed refreshes.
func (s *Scheduler) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}
