package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all application configuration. Watched folders and rules are
// not here; they live in the separate settings document managed by the
// settings package.
type Config struct {
	// Storage paths
	Data DataConfig `json:"data" mapstructure:"data"`

	// Filesystem monitor behavior
	Watch WatchConfig `json:"watch" mapstructure:"watch"`

	// Rule execution behavior
	Rules RulesConfig `json:"rules" mapstructure:"rules"`

	// Deletion scheduler and maintenance
	Sched SchedConfig `json:"sched" mapstructure:"sched"`

	// Trash staging / undo
	Trash TrashConfig `json:"trash" mapstructure:"trash"`

	// Persistent store caps
	Store StoreConfig `json:"store" mapstructure:"store"`

	// Logging
	Log LogConfig `json:"log" mapstructure:"log"`
}

// DataConfig for local file paths.
type DataConfig struct {
	Dir          string `json:"dir" mapstructure:"dir"`                     // Base directory for all data
	SettingsFile string `json:"settings_file" mapstructure:"settings_file"` // Folders + rules document
	DBFile       string `json:"db_file" mapstructure:"db_file"`             // SQLite store
	TrashDir     string `json:"trash_dir" mapstructure:"trash_dir"`         // Safe-delete staging area
}

// WatchConfig for the filesystem monitor.
type WatchConfig struct {
	// Stability is how long a file's size and mtime must hold still before
	// it is considered fully written.
	Stability time.Duration `json:"stability" mapstructure:"stability"`

	// Tick is the debounce sweep interval.
	Tick time.Duration `json:"tick" mapstructure:"tick"`
}

// RulesConfig for rule execution.
type RulesConfig struct {
	MaxRetries int           `json:"max_retries" mapstructure:"max_retries"` // Retries for locked files
	RetryDelay time.Duration `json:"retry_delay" mapstructure:"retry_delay"` // Initial backoff delay
}

// SchedConfig for the deletion scheduler.
type SchedConfig struct {
	Interval  time.Duration `json:"interval" mapstructure:"interval"`     // Periodic pass interval
	SweepHour int           `json:"sweep_hour" mapstructure:"sweep_hour"` // Daily bulk sweep hour (0-23)
}

// TrashConfig for the safe-delete subsystem.
type TrashConfig struct {
	RetentionDays int `json:"retention_days" mapstructure:"retention_days"` // Undo window
}

// StoreConfig for persistent store caps.
type StoreConfig struct {
	LogRetentionDays int `json:"log_retention_days" mapstructure:"log_retention_days"`
	MaxStorageMB     int `json:"max_storage_mb" mapstructure:"max_storage_mb"` // 0 = unlimited
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `json:"format" mapstructure:"format"` // text, json
	File   string `json:"file" mapstructure:"file"`     // Log file path (empty = stdout)
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() *Config {
	dataDir := ".dirsort"

	return &Config{
		Data: DataConfig{
			Dir:          dataDir,
			SettingsFile: filepath.Join(dataDir, "settings.json"),
			DBFile:       filepath.Join(dataDir, "dirsort.db"),
			TrashDir:     filepath.Join(dataDir, "trash"),
		},
		Watch: WatchConfig{
			Stability: 3 * time.Second,
			Tick:      time.Second,
		},
		Rules: RulesConfig{
			MaxRetries: 3,
			RetryDelay: time.Second,
		},
		Sched: SchedConfig{
			Interval:  5 * time.Minute,
			SweepHour: 3,
		},
		Trash: TrashConfig{
			RetentionDays: 7,
		},
		Store: StoreConfig{
			LogRetentionDays: 30,
			MaxStorageMB:     2048,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   "",
		},
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Data.Dir == "" {
		return errors.New("data.dir is required")
	}

	if c.Watch.Stability <= 0 {
		return errors.New("watch.stability must be positive")
	}

	if c.Watch.Tick <= 0 {
		return errors.New("watch.tick must be positive")
	}

	if c.Rules.MaxRetries < 0 {
		return errors.New("rules.max_retries must not be negative")
	}

	if c.Sched.Interval <= 0 {
		return errors.New("sched.interval must be positive")
	}

	if c.Sched.SweepHour < 0 || c.Sched.SweepHour > 23 {
		return fmt.Errorf("sched.sweep_hour must be 0-23, got %d", c.Sched.SweepHour)
	}

	if c.Trash.RetentionDays <= 0 {
		return errors.New("trash.retention_days must be positive")
	}

	if c.Store.LogRetentionDays <= 0 {
		return errors.New("store.log_retention_days must be positive")
	}

	if c.Store.MaxStorageMB < 0 {
		return errors.New("store.max_storage_mb must not be negative")
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Data.Dir,
		c.Data.TrashDir,
		filepath.Dir(c.Data.DBFile),
		filepath.Dir(c.Data.SettingsFile),
	}

	if c.Log.File != "" {
		dirs = append(dirs, filepath.Dir(c.Log.File))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}

// Retention returns the undo window as a duration.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Trash.RetentionDays) * 24 * time.Hour
}
