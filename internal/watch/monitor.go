// Package watch observes watched folders with fsnotify and reports
// files once they have gone quiet. Rapid write bursts for the same file
// coalesce into a single notification.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/TheMichaelB/dirsort/internal/clock"
	"github.com/TheMichaelB/dirsort/internal/events"
	"github.com/TheMichaelB/dirsort/internal/models"
)

// Notification reports a file that has been stable for the configured
// window.
type Notification struct {
	FolderID string
	Path     string
}

type pendingFile struct {
	folderID string
	lastSeen time.Time
}

// Monitor watches folder trees and debounces filesystem events.
type Monitor struct {
	watcher   *fsnotify.Watcher
	clock     clock.Clock
	logger    *events.Logger
	stability time.Duration
	tick      time.Duration

	mu      sync.Mutex
	folders []*models.WatchedFolder
	pending map[string]pendingFile
	stopped bool

	notifications chan Notification
}

// NewMonitor creates a monitor. stability is how long a file must stay
// quiet before it is reported; tick is the sweep interval.
func NewMonitor(stability, tick time.Duration, clk clock.Clock, logger *events.Logger) (*Monitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Monitor{
		watcher:       watcher,
		clock:         clk,
		logger:        logger.WithField("component", "watch"),
		stability:     stability,
		tick:          tick,
		pending:       make(map[string]pendingFile),
		notifications: make(chan Notification, 64),
	}, nil
}

// Notifications returns the channel of stable-file reports.
func (m *Monitor) Notifications() <-chan Notification {
	return m.notifications
}

// SetFolders replaces the watched folder set, tearing down old watches
// and registering the new trees. Disabled folders are ignored.
func (m *Monitor) SetFolders(folders []*models.WatchedFolder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return models.ErrMonitorStopped
	}

	for _, dir := range m.watcher.WatchList() {
		if err := m.watcher.Remove(dir); err != nil {
			m.logger.WithError(err).WithField("dir", dir).Warn("Failed to remove watch")
		}
	}
	m.folders = folders
	m.pending = make(map[string]pendingFile)

	for _, folder := range folders {
		if !folder.Enabled {
			continue
		}
		if err := m.watchTree(folder); err != nil {
			return err
		}
	}
	return nil
}

func (m *Monitor) watchTree(folder *models.WatchedFolder) error {
	if err := m.watcher.Add(folder.Path); err != nil {
		return err
	}
	if !folder.Recursive {
		return nil
	}

	return filepath.WalkDir(folder.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			m.logger.WithError(err).WithField("path", path).Warn("Watch walk error")
			return nil
		}
		if d.IsDir() && path != folder.Path {
			if err := m.watcher.Add(path); err != nil {
				m.logger.WithError(err).WithField("dir", path).Warn("Failed to watch subdirectory")
			}
		}
		return nil
	})
}

// Run processes filesystem events until the context is cancelled. Files
// are reported on the notifications channel once they have been quiet
// for the stability window.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-m.watcher.Events:
			if !ok {
				return models.ErrMonitorStopped
			}
			m.handleEvent(event)

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return models.ErrMonitorStopped
			}
			m.logger.WithError(err).Warn("Watcher error")

		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *Monitor) handleEvent(event fsnotify.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		folder := m.folderFor(event.Name)
		if folder == nil {
			return
		}

		info, err := os.Lstat(event.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			if folder.Recursive && event.Op&fsnotify.Create != 0 {
				m.addSubtree(folder, event.Name)
			}
			return
		}

		m.pending[event.Name] = pendingFile{
			folderID: folder.ID,
			lastSeen: m.clock.Now(),
		}

	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		// The file left before stabilizing; forget it.
		delete(m.pending, event.Name)
	}
}

// addSubtree watches a directory created inside a recursive folder and
// queues any files already inside it. Events for those files may have
// fired before the watch existed.
func (m *Monitor) addSubtree(folder *models.WatchedFolder, dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := m.watcher.Add(path); err != nil {
				m.logger.WithError(err).WithField("dir", path).Warn("Failed to watch subdirectory")
			}
			return nil
		}
		m.pending[path] = pendingFile{
			folderID: folder.ID,
			lastSeen: m.clock.Now(),
		}
		return nil
	})
}

// sweep promotes pending files that have stayed quiet past the
// stability window.
func (m *Monitor) sweep(ctx context.Context) {
	now := m.clock.Now()

	m.mu.Lock()
	var stable []Notification
	for path, p := range m.pending {
		if now.Sub(p.lastSeen) >= m.stability {
			stable = append(stable, Notification{FolderID: p.folderID, Path: path})
			delete(m.pending, path)
		}
	}
	m.mu.Unlock()

	for _, n := range stable {
		select {
		case m.notifications <- n:
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) folderFor(path string) *models.WatchedFolder {
	for _, folder := range m.folders {
		if !folder.Enabled {
			continue
		}
		if path == folder.Path ||
			strings.HasPrefix(path, folder.Path+string(filepath.Separator)) {
			return folder
		}
	}
	return nil
}

// Close stops the monitor. After Close, SetFolders fails with
// ErrMonitorStopped.
func (m *Monitor) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return nil
	}
	m.stopped = true
	return m.watcher.Close()
}
