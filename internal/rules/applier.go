// Package rules applies ordered organization rules to files observed in
// watched folders.
package rules

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TheMichaelB/dirsort/internal/clock"
	"github.com/TheMichaelB/dirsort/internal/condition"
	"github.com/TheMichaelB/dirsort/internal/events"
	"github.com/TheMichaelB/dirsort/internal/fsutil"
	"github.com/TheMichaelB/dirsort/internal/models"
	"github.com/TheMichaelB/dirsort/internal/store"
	"github.com/TheMichaelB/dirsort/internal/trash"
)

// Outcome kinds reported by Apply.
const (
	OutcomeSkipped   = "skipped"
	OutcomeMoved     = "moved"
	OutcomeDeleted   = "deleted"
	OutcomeScheduled = "scheduled"
)

// Outcome describes what applying the rule set did to one file.
type Outcome struct {
	Kind        string
	Rule        *models.Rule
	Destination string
	DueAt       *time.Time
}

// Applier evaluates a folder's rules against files, first match wins.
type Applier struct {
	store  *store.Store
	trash  *trash.Manager
	clock  clock.Clock
	logger *events.Logger

	maxRetries int
	retryDelay time.Duration
}

// NewApplier creates a rule applier. Transient action failures are
// retried up to maxRetries times with exponentially growing delays.
func NewApplier(st *store.Store, tr *trash.Manager, clk clock.Clock, maxRetries int, retryDelay time.Duration, logger *events.Logger) *Applier {
	return &Applier{
		store:      st,
		trash:      tr,
		clock:      clk,
		logger:     logger.WithField("component", "rules"),
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
}

// Apply indexes the file at path and runs the folder's enabled rules
// against it in order. Files on a whitelist, files inside a move
// destination and files already carrying a pending action are skipped.
func (a *Applier) Apply(folder *models.WatchedFolder, path string) (*Outcome, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Gone before we got to it.
			return &Outcome{Kind: OutcomeSkipped}, nil
		}
		return nil, &models.ActionError{Op: "stat", Path: path, Err: err}
	}
	if info.IsDir() {
		return &Outcome{Kind: OutcomeSkipped}, nil
	}

	now := a.clock.Now()
	name := filepath.Base(path)

	if err := a.store.UpsertFile(&models.FileIndexEntry{
		Path:         path,
		FolderID:     folder.ID,
		Name:         name,
		Extension:    strings.TrimPrefix(filepath.Ext(name), "."),
		Size:         info.Size(),
		FirstSeen:    now,
		LastModified: info.ModTime(),
	}); err != nil {
		return nil, err
	}

	entry, err := a.store.FileByPath(path)
	if err != nil {
		return nil, err
	}
	if entry.Pending != "" {
		return &Outcome{Kind: OutcomeSkipped}, nil
	}

	relPath := relativePath(folder.Path, path)

	if whitelisted(folder.Whitelist, name, relPath) {
		return &Outcome{Kind: OutcomeSkipped}, nil
	}
	if insideMoveDestination(folder, path) {
		return &Outcome{Kind: OutcomeSkipped}, nil
	}

	for _, rule := range folder.Rules {
		if !rule.Enabled {
			continue
		}
		if whitelisted(rule.Whitelist, name, relPath) {
			continue
		}

		target := name
		if rule.MatchSubdirectories {
			target = relPath
		}
		if !condition.Evaluate(rule.Condition, target) {
			continue
		}

		return a.execute(folder, rule, path, entry)
	}

	return &Outcome{Kind: OutcomeSkipped}, nil
}

// ScanFolder walks a watched folder and applies its rules to every
// file. Returns the number of files a rule acted on.
func (a *Applier) ScanFolder(folder *models.WatchedFolder) (int, error) {
	if !folder.Enabled {
		return 0, nil
	}

	acted := 0
	err := filepath.WalkDir(folder.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			a.logger.WithError(err).WithField("path", path).Warn("Scan error, skipping")
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != folder.Path && !folder.Recursive {
				return fs.SkipDir
			}
			return nil
		}

		outcome, err := a.Apply(folder, path)
		if err != nil {
			a.logger.WithError(err).WithField("path", path).Warn("Rule application failed")
			return nil
		}
		if outcome.Kind != OutcomeSkipped {
			acted++
		}
		return nil
	})
	if err != nil {
		return acted, err
	}
	return acted, nil
}

// execute runs the matched rule's action, retrying transient failures.
func (a *Applier) execute(folder *models.WatchedFolder, rule *models.Rule, path string, entry *models.FileIndexEntry) (*Outcome, error) {
	var lastErr error
	delay := a.retryDelay

	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			a.logger.WithFields(map[string]interface{}{
				"path":    path,
				"rule":    rule.Name,
				"attempt": attempt,
			}).Debug("Retrying action")
			time.Sleep(delay)
			delay *= 2
		}

		outcome, err := a.executeOnce(folder, rule, path, entry)
		if err == nil {
			return outcome, nil
		}
		lastErr = err

		var actionErr *models.ActionError
		if errors.As(err, &actionErr) && !actionErr.Transient {
			break
		}
	}

	a.logger.WithError(lastErr).WithFields(map[string]interface{}{
		"path": path,
		"rule": rule.Name,
	}).Error("Action failed")

	if err := a.store.AppendActivity(&models.ActivityLogEntry{
		Path:      path,
		Name:      filepath.Base(path),
		Action:    string(rule.Action.Kind),
		RuleName:  rule.Name,
		FolderID:  folder.ID,
		Timestamp: a.clock.Now(),
		Result:    models.ResultFailure,
		Detail:    lastErr.Error(),
	}); err != nil {
		a.logger.WithError(err).Warn("Failed to record failure")
	}

	return nil, lastErr
}

func (a *Applier) executeOnce(folder *models.WatchedFolder, rule *models.Rule, path string, entry *models.FileIndexEntry) (*Outcome, error) {
	switch rule.Action.Kind {
	case models.ActionMove:
		return a.executeMove(folder, rule, path)
	case models.ActionDelete:
		return a.executeDelete(folder, rule, path, entry)
	default:
		return nil, &models.ActionError{Op: "execute", Path: path,
			Err: errors.New("unknown action: " + string(rule.Action.Kind))}
	}
}

func (a *Applier) executeMove(folder *models.WatchedFolder, rule *models.Rule, path string) (*Outcome, error) {
	name := filepath.Base(path)
	dest, err := fsutil.ConflictPath(filepath.Join(rule.Action.Destination, name))
	if err != nil {
		return nil, &models.ActionError{Op: "move", Path: path, Err: err}
	}

	if err := fsutil.Move(path, dest); err != nil {
		return nil, &models.ActionError{Op: "move", Path: path, Transient: transientFS(err), Err: err}
	}

	now := a.clock.Now()
	if err := a.store.RecordMove(path, rule.ID, &models.ActivityLogEntry{
		Path:      path,
		Name:      name,
		Action:    models.ActivityMove,
		RuleName:  rule.Name,
		FolderID:  folder.ID,
		Timestamp: now,
		Result:    models.ResultSuccess,
		Detail:    "moved to " + dest,
	}); err != nil {
		// Move the file back so the index and the filesystem stay in step.
		if undoErr := fsutil.Move(dest, path); undoErr != nil {
			a.logger.WithError(undoErr).WithField("path", dest).Error("Failed to move file back after record failure")
		}
		return nil, err
	}

	a.logger.WithFields(map[string]interface{}{
		"path": path,
		"dest": dest,
		"rule": rule.Name,
	}).Info("File moved")

	return &Outcome{Kind: OutcomeMoved, Rule: rule, Destination: dest}, nil
}

func (a *Applier) executeDelete(folder *models.WatchedFolder, rule *models.Rule, path string, entry *models.FileIndexEntry) (*Outcome, error) {
	if rule.Action.AfterDays == 0 {
		if _, err := a.trash.SafeDelete(path, folder.ID, rule.ID, rule.Name); err != nil {
			return nil, err
		}
		return &Outcome{Kind: OutcomeDeleted, Rule: rule}, nil
	}

	// The grace period counts from when the file was first seen, not
	// from when the rule matched.
	due := entry.FirstSeen.Add(time.Duration(rule.Action.AfterDays) * 24 * time.Hour)
	scheduled, err := a.store.ScheduleDeletion(path, rule.Name, due)
	if err != nil {
		return nil, err
	}
	if !scheduled {
		return &Outcome{Kind: OutcomeSkipped}, nil
	}

	a.logger.WithFields(map[string]interface{}{
		"path": path,
		"rule": rule.Name,
		"due":  due,
	}).Info("Deletion scheduled")

	return &Outcome{Kind: OutcomeScheduled, Rule: rule, DueAt: &due}, nil
}

// whitelisted reports whether any pattern matches the file name or its
// folder-relative path.
func whitelisted(patterns []string, name, relPath string) bool {
	for _, pattern := range patterns {
		if condition.GlobMatch(pattern, name) || condition.GlobMatch(pattern, relPath) {
			return true
		}
	}
	return false
}

// insideMoveDestination reports whether path sits under the destination
// of any enabled move rule. Files a rule already placed must not be
// picked up again.
func insideMoveDestination(folder *models.WatchedFolder, path string) bool {
	dir := filepath.Dir(path)
	for _, rule := range folder.Rules {
		if !rule.Enabled || rule.Action.Kind != models.ActionMove {
			continue
		}
		dest := filepath.Clean(rule.Action.Destination)
		if dir == dest || strings.HasPrefix(dir, dest+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func relativePath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

func transientFS(err error) bool {
	return !os.IsPermission(err) && !os.IsNotExist(err)
}
