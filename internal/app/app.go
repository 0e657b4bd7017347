package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/five82/coindeck/internal/cache"
	"github.com/five82/coindeck/internal/coinapi"
	"github.com/five82/coindeck/internal/config"
	"github.com/five82/coindeck/internal/journal"
	"github.com/five82/coindeck/internal/logging"
	"github.com/five82/coindeck/internal/prefs"
	"github.com/five82/coindeck/internal/reconcile"
	"github.com/five82/coindeck/internal/state"
	"github.com/five82/coindeck/internal/ui"
)

// Options configure the coindeck application.
type Options struct {
	ConfigPath string // empty uses ~/.config/coindeck/config.toml
	PrefsPath  string // empty uses ~/.config/coindeck/prefs.toml
}

// Run boots the coindeck TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("coindeck starting",
		zap.String("api_url", cfg.APIURL),
		zap.String("favorite_policy", string(cfg.Policy())),
	)

	client, err := coinapi.NewClient(cfg.APIURL, cfg.RequestTimeout())
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	store := &state.Store{}
	var sinks []reconcile.Sink

	snapshots := openCache(ctx, cfg, logger)
	if snapshots != nil {
		defer func() { _ = snapshots.Close() }()
		sinks = append(sinks, snapshots)
	}

	prices := openJournal(cfg, logger)
	var history ui.History
	if prices != nil {
		defer func() { _ = prices.Close() }()
		sinks = append(sinks, prices)
		history = prices
	}

	engine := reconcile.New(client, store, reconcile.Options{
		Policy: cfg.Policy(),
		Sinks:  sinks,
		Logger: logger,
	})
	if snapshots != nil {
		warmStore(ctx, engine, snapshots, logger)
	}

	scheduler := NewScheduler(engine, client, SchedulerOptions{
		DefaultInterval: cfg.DefaultInterval(),
		FetchTimeout:    cfg.RequestTimeout(),
		Logger:          logger,
	})
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer scheduler.Stop()

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		logger.Warn("load prefs failed, using defaults", zap.Error(err))
		userPrefs = prefs.Default()
	}

	err = ui.Run(ui.Options{
		Context:   ctx,
		API:       client,
		Store:     store,
		Favorites: engine,
		Refresher: scheduler,
		Journal:   history,
		Config:    &cfg,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
		Logger:    logger,
	})
	logger.Info("coindeck stopped", zap.Error(err))
	return err
}

// openCache connects to redis when enabled. A failed connection only
// disables the cache.
func openCache(ctx context.Context, cfg config.Config, logger *zap.Logger) *cache.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}
	c, err := cache.Dial(ctx, cache.Options{
		Addr:     cfg.Cache.Addr,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
		Key:      cfg.Cache.Key,
		TTL:      cfg.CacheTTL(),
	}, logger)
	if err != nil {
		logger.Warn("snapshot cache unavailable", zap.Error(err))
		return nil
	}
	return c
}

func openJournal(cfg config.Config, logger *zap.Logger) *journal.Journal {
	if !cfg.Journal.Enabled {
		return nil
	}
	j, err := journal.Open(cfg.Journal.Path, journal.Options{Logger: logger})
	if err != nil {
		logger.Warn("price journal unavailable", zap.String("path", cfg.Journal.Path), zap.Error(err))
		return nil
	}
	return j
}

// warmStore seeds the store with the cached snapshot so the table has rows
// before the first refresh lands.
func warmStore(ctx context.Context, engine *reconcile.Engine, c *cache.Cache, logger *zap.Logger) {
	assets, cachedAt, err := c.Load(ctx)
	switch {
	case errors.Is(err, cache.ErrMiss):
		return
	case err != nil:
		logger.Warn("read cached snapshot failed", zap.Error(err))
		return
	}
	if engine.Seed(assets, cachedAt) {
		logger.Info("store warmed from cache",
			zap.Int("assets", len(assets)),
			zap.Time("cached_at", cachedAt),
		)
	}
}
