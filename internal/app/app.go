// Package app wires configuration, storage and the dashboard together for
// the command line tools.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/vthunder/daybook/internal/activity"
	"github.com/vthunder/daybook/internal/config"
	"github.com/vthunder/daybook/internal/dashboard"
	"github.com/vthunder/daybook/internal/dates"
	"github.com/vthunder/daybook/internal/logging"
	"github.com/vthunder/daybook/internal/store"
)

// App is an opened daybook
type App struct {
	Config    *config.Config
	Store     store.KV
	Activity  *activity.Log // nil when activity_log is off
	Dashboard *dashboard.Dashboard
}

// Open loads configuration from configPath (or the default search), opens
// the configured store and loads the dashboard. A nil clock uses the real one.
func Open(ctx context.Context, configPath string, clock dates.Clock) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logging.SetDebug(cfg.Debug)
	if cfg.File != "" {
		logging.Debug("config", "loaded %s", cfg.File)
	}
	return OpenWith(ctx, cfg, clock)
}

// OpenWith is Open with an already loaded configuration
func OpenWith(ctx context.Context, cfg *config.Config, clock dates.Clock) (*App, error) {
	if clock == nil {
		clock = dates.RealClock{}
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.StatePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	kv, err := store.Open(cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}

	a := &App{Config: cfg, Store: kv}
	if cfg.ActivityLog {
		a.Activity = activity.New(cfg.StatePath, clock)
	}

	a.Dashboard, err = dashboard.Open(ctx, kv, dashboard.Options{
		Calendar:     dates.Calendar{Clock: clock, Loc: loc},
		Theme:        cfg.Theme,
		TerminalHint: os.Getenv("COLORFGBG"),
		Activity:     a.Activity,
	})
	if err != nil {
		kv.Close()
		return nil, err
	}
	logging.Debug("app", "opened %s store at %s", cfg.Store.Backend, cfg.Store.Path)
	return a, nil
}

// Close releases the store
func (a *App) Close() error {
	if a == nil || a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
