package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/dirsort/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	assert.NotEmpty(t, cfg.Data.Dir)
	assert.Positive(t, cfg.Watch.Stability)
	assert.Positive(t, cfg.Sched.Interval)
	assert.Equal(t, 7, cfg.Trash.RetentionDays)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr string
	}{
		{
			name:    "valid config",
			modify:  func(c *config.Config) {},
			wantErr: "",
		},
		{
			name: "missing data dir",
			modify: func(c *config.Config) {
				c.Data.Dir = ""
			},
			wantErr: "data.dir is required",
		},
		{
			name: "invalid log level",
			modify: func(c *config.Config) {
				c.Log.Level = "invalid"
			},
			wantErr: "invalid log level",
		},
		{
			name: "negative stability",
			modify: func(c *config.Config) {
				c.Watch.Stability = -time.Second
			},
			wantErr: "watch.stability must be positive",
		},
		{
			name: "sweep hour out of range",
			modify: func(c *config.Config) {
				c.Sched.SweepHour = 24
			},
			wantErr: "sched.sweep_hour must be 0-23",
		},
		{
			name: "zero retention",
			modify: func(c *config.Config) {
				c.Trash.RetentionDays = 0
			},
			wantErr: "trash.retention_days must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoaderEnv(t *testing.T) {
	t.Setenv("DIRSORT_LOG_LEVEL", "debug")
	t.Setenv("DIRSORT_WATCH_STABILITY", "5s")
	t.Setenv("DIRSORT_SCHED_SWEEP_HOUR", "4")

	loader := config.NewLoader("")
	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5*time.Second, cfg.Watch.Stability)
	assert.Equal(t, 4, cfg.Sched.SweepHour)
}

func TestLoaderFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.json")

	configJSON := `{
		"data": {
			"dir": "` + filepath.ToSlash(filepath.Join(tmpDir, "data")) + `"
		},
		"log": {
			"level": "warn",
			"format": "json"
		},
		"trash": {
			"retention_days": 14
		}
	}`

	err := os.WriteFile(configPath, []byte(configJSON), 0644)
	require.NoError(t, err)

	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 14, cfg.Trash.RetentionDays)

	// Dependent paths follow data.dir when not set explicitly.
	assert.Equal(t, filepath.Join(tmpDir, "data", "settings.json"), cfg.Data.SettingsFile)
	assert.Equal(t, filepath.Join(tmpDir, "data", "dirsort.db"), cfg.Data.DBFile)
	assert.Equal(t, filepath.Join(tmpDir, "data", "trash"), cfg.Data.TrashDir)
}

func TestLoaderExplicitPathWins(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.json")

	settingsPath := filepath.ToSlash(filepath.Join(tmpDir, "elsewhere", "settings.json"))
	configJSON := `{
		"data": {
			"dir": "` + filepath.ToSlash(filepath.Join(tmpDir, "data")) + `",
			"settings_file": "` + settingsPath + `"
		}
	}`

	err := os.WriteFile(configPath, []byte(configJSON), 0644)
	require.NoError(t, err)

	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash(settingsPath), cfg.Data.SettingsFile)
	assert.Equal(t, filepath.Join(tmpDir, "data", "dirsort.db"), cfg.Data.DBFile)
}

func TestConfigEnsureDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Data.Dir = filepath.Join(tmpDir, "data")
	cfg.Data.SettingsFile = filepath.Join(tmpDir, "data", "settings.json")
	cfg.Data.DBFile = filepath.Join(tmpDir, "data", "dirsort.db")
	cfg.Data.TrashDir = filepath.Join(tmpDir, "data", "trash")
	cfg.Log.File = filepath.Join(tmpDir, "logs", "dirsort.log")

	err := cfg.EnsureDirectories()
	require.NoError(t, err)

	assert.DirExists(t, cfg.Data.Dir)
	assert.DirExists(t, cfg.Data.TrashDir)
	assert.DirExists(t, filepath.Dir(cfg.Log.File))
}

func TestRetention(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Equal(t, 7*24*time.Hour, cfg.Retention())
}
