// Package client wires the engine together and exposes the high-level
// command surface consumed by the CLI.
package client

import (
	"sync"
	"time"

	"github.com/TheMichaelB/dirsort/internal/clock"
	"github.com/TheMichaelB/dirsort/internal/config"
	"github.com/TheMichaelB/dirsort/internal/events"
	"github.com/TheMichaelB/dirsort/internal/rules"
	"github.com/TheMichaelB/dirsort/internal/sched"
	"github.com/TheMichaelB/dirsort/internal/settings"
	"github.com/TheMichaelB/dirsort/internal/store"
	"github.com/TheMichaelB/dirsort/internal/trash"
	"github.com/TheMichaelB/dirsort/internal/watch"
)

// Client provides the high-level API for dirsort operations.
type Client struct {
	config   *config.Config
	logger   *events.Logger
	clock    clock.Clock
	settings *settings.Manager
	store    *store.Store
	trash    *trash.Manager
	applier  *rules.Applier
	monitor  *watch.Monitor
	sched    *sched.Scheduler

	// Guards the in-memory settings document.
	mu      sync.Mutex
	current *settings.Settings
}

// New creates a client from the configuration, opening the store and
// loading the settings document.
func New(cfg *config.Config, logger *events.Logger) (*Client, error) {
	return NewWithClock(cfg, logger, clock.Real{})
}

// NewWithClock is New with an injectable clock.
func NewWithClock(cfg *config.Config, logger *events.Logger, clk clock.Clock) (*Client, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Data.DBFile, logger)
	if err != nil {
		return nil, err
	}

	tr := trash.NewManager(cfg.Data.TrashDir, st, cfg.Retention(), clk, logger)
	applier := rules.NewApplier(st, tr, clk, cfg.Rules.MaxRetries, cfg.Rules.RetryDelay, logger)

	monitor, err := watch.NewMonitor(cfg.Watch.Stability, cfg.Watch.Tick, clk, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	scheduler := sched.NewScheduler(st, tr, clk,
		cfg.Sched.Interval, cfg.Sched.SweepHour,
		time.Duration(cfg.Store.LogRetentionDays)*24*time.Hour,
		int64(cfg.Store.MaxStorageMB)*1024*1024,
		logger)

	c := &Client{
		config:   cfg,
		logger:   logger,
		clock:    clk,
		settings: settings.NewManager(cfg.Data.SettingsFile, logger),
		store:    st,
		trash:    tr,
		applier:  applier,
		monitor:  monitor,
		sched:    scheduler,
	}

	current, err := c.settings.Load()
	if err != nil {
		c.Close()
		return nil, err
	}
	c.current = current

	for _, folder := range current.Folders {
		for _, rule := range folder.Rules {
			if err := st.EnsureRuleMetadata(rule.ID, folder.ID, clk.Now()); err != nil {
				c.Close()
				return nil, err
			}
		}
	}

	if err := monitor.SetFolders(current.Folders); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

// save persists the settings document and refreshes the monitor's
// watch set. Callers hold c.mu.
func (c *Client) save() error {
	if err := c.settings.Save(c.current); err != nil {
		return err
	}
	return c.monitor.SetFolders(c.current.Folders)
}

// Close releases the monitor and the store.
func (c *Client) Close() error {
	if err := c.monitor.Close(); err != nil {
		c.store.Close()
		return err
	}
	return c.store.Close()
}
