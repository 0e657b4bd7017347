// Package app is the coindeck composition root.
//
// Run wires the pieces together in this order:
//
//  1. config.Load and the zap file logger
//  2. the coinapi HTTP client and an empty state.Store
//  3. optional sinks: the redis snapshot cache and the sqlite price journal
//  4. the reconcile engine, warmed from the cache when a snapshot exists
//  5. the Scheduler, which polls the engine at the backend's update interval
//  6. the Bubble Tea UI, which blocks until the user quits
//
// Cache and journal failures are logged and only disable that sink. A bad
// config file or log path is fatal.
//
// # Scheduler
//
// Start asks the backend for its update interval once. An invalid or missing
// value falls back to SchedulerOptions.DefaultInterval. The ticker goroutine
// then refreshes on every tick, and RefreshNow runs an out-of-band refresh
// on behalf of the UI. Refresh failures are counted and logged but never stop
// the loop.
package app
