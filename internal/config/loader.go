package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from file and environment.
type Loader struct {
	configPath string
}

// NewLoader creates a config loader. An empty path searches the default
// locations.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// Load reads configuration, layering DIRSORT_* environment variables over
// the config file over defaults.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix("DIRSORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := DefaultConfig()
	setDefaults(v, cfg)

	if l.configPath != "" {
		v.SetConfigFile(l.configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", l.configPath, err)
		}
	} else {
		for _, path := range defaultPaths() {
			if _, err := os.Stat(path); err == nil {
				v.SetConfigFile(path)
				if err := v.ReadInConfig(); err != nil {
					return nil, fmt.Errorf("load config file %s: %w", path, err)
				}
				break
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Paths under data.dir follow the dir unless set explicitly. These
	// keys carry no viper default so IsSet reflects the file and the
	// environment only.
	if !v.IsSet("data.settings_file") {
		cfg.Data.SettingsFile = filepath.Join(cfg.Data.Dir, "settings.json")
	}
	if !v.IsSet("data.db_file") {
		cfg.Data.DBFile = filepath.Join(cfg.Data.Dir, "dirsort.db")
	}
	if !v.IsSet("data.trash_dir") {
		cfg.Data.TrashDir = filepath.Join(cfg.Data.Dir, "trash")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("data.dir", cfg.Data.Dir)
	v.SetDefault("watch.stability", cfg.Watch.Stability)
	v.SetDefault("watch.tick", cfg.Watch.Tick)
	v.SetDefault("rules.max_retries", cfg.Rules.MaxRetries)
	v.SetDefault("rules.retry_delay", cfg.Rules.RetryDelay)
	v.SetDefault("sched.interval", cfg.Sched.Interval)
	v.SetDefault("sched.sweep_hour", cfg.Sched.SweepHour)
	v.SetDefault("trash.retention_days", cfg.Trash.RetentionDays)
	v.SetDefault("store.log_retention_days", cfg.Store.LogRetentionDays)
	v.SetDefault("store.max_storage_mb", cfg.Store.MaxStorageMB)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.file", cfg.Log.File)
}

func defaultPaths() []string {
	paths := []string{
		"dirsort.json",
		".dirsort.json",
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(homeDir, ".config", "dirsort", "config.json"),
			filepath.Join(homeDir, ".dirsort", "config.json"),
		)
	}

	return paths
}
