// Package settings persists watched folders and their rules as a JSON
// document with atomic writes.
package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/TheMichaelB/dirsort/internal/condition"
	"github.com/TheMichaelB/dirsort/internal/events"
	"github.com/TheMichaelB/dirsort/internal/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Settings is the persisted folder and rule configuration.
type Settings struct {
	Folders []*models.WatchedFolder `json:"folders"`
}

// FolderByID returns the folder with the given id, or nil.
func (s *Settings) FolderByID(id string) *models.WatchedFolder {
	for _, folder := range s.Folders {
		if folder.ID == id {
			return folder
		}
	}
	return nil
}

// FolderByPath returns the folder watching the given path, or nil.
func (s *Settings) FolderByPath(path string) *models.WatchedFolder {
	for _, folder := range s.Folders {
		if folder.Path == path {
			return folder
		}
	}
	return nil
}

// Manager loads and saves the settings document.
type Manager struct {
	path   string
	logger *events.Logger

	mu sync.Mutex
}

// NewManager creates a settings manager for the given file path.
func NewManager(path string, logger *events.Logger) *Manager {
	return &Manager{
		path:   path,
		logger: logger.WithField("component", "settings"),
	}
}

// Load reads the settings document. A missing file yields empty
// settings. Rule condition trees are rebuilt from their text form so
// the text stays the single source of truth.
func (m *Manager) Load() (*Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return &Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	// Editors on some platforms prepend a byte order mark.
	data = bytes.TrimPrefix(data, utf8BOM)

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}

	for _, folder := range settings.Folders {
		for _, rule := range folder.Rules {
			if rule.ConditionText == "" {
				continue
			}
			cond, err := condition.Parse(rule.ConditionText)
			if err != nil {
				return nil, fmt.Errorf("rule %q: %w", rule.Name, err)
			}
			rule.Condition = cond
		}
	}

	return &settings, nil
}

// Save writes the settings document atomically via a temp file rename.
func (m *Manager) Save(settings *Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	tmpPath := m.path + ".tmp"
	file, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync settings: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close settings: %w", err)
	}

	if err := os.Rename(tmpPath, m.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace settings: %w", err)
	}

	m.logger.WithField("folders", len(settings.Folders)).Debug("Settings saved")
	return nil
}
