// Package trash implements safe-delete staging. Deleted files are moved
// into a staging directory and kept restorable until their undo window
// expires.
package trash

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TheMichaelB/dirsort/internal/clock"
	"github.com/TheMichaelB/dirsort/internal/events"
	"github.com/TheMichaelB/dirsort/internal/fsutil"
	"github.com/TheMichaelB/dirsort/internal/models"
	"github.com/TheMichaelB/dirsort/internal/store"
)

// Manager stages deletions and restores them on request.
type Manager struct {
	dir       string
	store     *store.Store
	retention time.Duration
	clock     clock.Clock
	logger    *events.Logger

	// Per-entry locks so concurrent undo calls for the same entry
	// serialize.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a staging manager rooted at dir.
func NewManager(dir string, st *store.Store, retention time.Duration, clk clock.Clock, logger *events.Logger) *Manager {
	return &Manager{
		dir:       dir,
		store:     st,
		retention: retention,
		clock:     clk,
		logger:    logger.WithField("component", "trash"),
		locks:     make(map[string]*sync.Mutex),
	}
}

// SafeDelete moves the file at path into the staging area and records
// an undo entry plus an audit record. ruleID and ruleName may be empty
// for deletions not driven by a rule.
func (m *Manager) SafeDelete(path, folderID, ruleID, ruleName string) (*models.UndoEntry, error) {
	now := m.clock.Now()
	name := filepath.Base(path)
	staged := filepath.Join(m.dir, uuid.NewString()+"_"+name)

	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return nil, &models.ActionError{Op: "stage", Path: path, Err: err}
	}

	if err := fsutil.Move(path, staged); err != nil {
		return nil, &models.ActionError{Op: "stage", Path: path, Transient: transient(err), Err: err}
	}

	entry := &models.UndoEntry{
		OriginalPath: path,
		StagedPath:   staged,
		Action:       models.ActivityDelete,
		CreatedAt:    now,
		ExpiresAt:    now.Add(m.retention),
	}
	activity := &models.ActivityLogEntry{
		Path:      path,
		Name:      name,
		Action:    models.ActivityDelete,
		RuleName:  ruleName,
		FolderID:  folderID,
		Timestamp: now,
		Result:    models.ResultSuccess,
		Detail:    "staged as " + filepath.Base(staged),
	}

	if err := m.store.RecordSafeDelete(path, ruleID, entry, activity); err != nil {
		// Put the file back so filesystem and store stay consistent.
		if restoreErr := fsutil.Move(staged, path); restoreErr != nil {
			m.logger.WithError(restoreErr).WithField("path", path).
				Error("Failed to unstage after store error")
		}
		return nil, err
	}

	m.logger.WithFields(map[string]interface{}{
		"path":    path,
		"expires": entry.ExpiresAt,
	}).Info("File staged for deletion")

	return entry, nil
}

// Undo restores a staged file to its original location. An occupied
// original path or a filesystem failure leaves the undo entry
// unconsumed so the restore can be retried.
func (m *Manager) Undo(id string) (*models.UndoEntry, error) {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	entry, err := m.store.UndoByID(id)
	if err != nil {
		return nil, err
	}
	if entry.Restored {
		return nil, models.ErrAlreadyRestored
	}
	now := m.clock.Now()
	if entry.Expired(now) {
		return nil, models.ErrUndoExpired
	}

	if _, err := os.Lstat(entry.OriginalPath); err == nil {
		return nil, &models.ActionError{Op: "restore", Path: entry.OriginalPath, Err: os.ErrExist}
	}
	if err := fsutil.Move(entry.StagedPath, entry.OriginalPath); err != nil {
		return nil, &models.ActionError{Op: "restore", Path: entry.OriginalPath, Transient: transient(err), Err: err}
	}

	activity := &models.ActivityLogEntry{
		Path:      entry.OriginalPath,
		Name:      filepath.Base(entry.OriginalPath),
		Action:    models.ActivityUndo,
		Timestamp: now,
		Result:    models.ResultSuccess,
		Detail:    "restored from " + filepath.Base(entry.StagedPath),
	}
	if err := m.store.RecordUndo(id, activity); err != nil {
		return nil, err
	}

	m.logger.WithField("path", entry.OriginalPath).Info("File restored")

	entry.Restored = true
	return entry, nil
}

// PurgeExpired permanently removes staged files whose undo window has
// closed and drops their undo records. Returns the number purged.
func (m *Manager) PurgeExpired() (int, error) {
	expired, err := m.store.ExpiredUndo(m.clock.Now())
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, entry := range expired {
		removed, err := m.purgeEntry(entry.ID)
		if err != nil {
			return purged, err
		}
		if removed {
			purged++
		}
	}

	if purged > 0 {
		m.logger.WithField("purged", purged).Info("Purged expired staged files")
	}
	return purged, nil
}

// purgeEntry removes one expired entry under its per-entry lock so a
// purge cannot race an in-flight undo of the same entry.
func (m *Manager) purgeEntry(id string) (bool, error) {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	// An undo may have consumed the entry while we waited for the lock.
	entry, err := m.store.UndoByID(id)
	if errors.Is(err, models.ErrEntryNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if entry.Restored {
		return false, nil
	}

	if err := os.Remove(entry.StagedPath); err != nil && !os.IsNotExist(err) {
		m.logger.WithError(err).WithField("path", entry.StagedPath).
			Warn("Failed to remove staged file")
		return false, nil
	}
	if err := m.store.DeleteUndo(entry.ID); err != nil {
		return false, err
	}
	return true, nil
}

// Purge removes specific staged files, used when the storage size cap
// forces entries out early.
func (m *Manager) Purge(stagedPaths []string) {
	for _, path := range stagedPaths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			m.logger.WithError(err).WithField("path", path).
				Warn("Failed to remove staged file")
		}
	}
}

// StagingSize returns the total size of the staging directory.
func (m *Manager) StagingSize() (int64, error) {
	size, err := fsutil.DirSize(m.dir)
	if err != nil {
		return 0, fmt.Errorf("measure staging dir: %w", err)
	}
	return size, nil
}

func (m *Manager) lockFor(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[id] = lock
	}
	return lock
}

func transient(err error) bool {
	return !os.IsPermission(err) && !os.IsNotExist(err)
}
