// Package sched executes due scheduled deletions and runs daily store
// maintenance.
package sched

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/TheMichaelB/dirsort/internal/clock"
	"github.com/TheMichaelB/dirsort/internal/events"
	"github.com/TheMichaelB/dirsort/internal/models"
	"github.com/TheMichaelB/dirsort/internal/store"
	"github.com/TheMichaelB/dirsort/internal/trash"
)

// Scheduler periodically safe-deletes files whose grace period has
// passed, and once a day prunes the activity log, purges expired
// staged files and enforces the storage cap.
type Scheduler struct {
	store  *store.Store
	trash  *trash.Manager
	clock  clock.Clock
	logger *events.Logger

	interval     time.Duration
	sweepHour    int
	logRetention time.Duration
	maxStorage   int64

	// Guards against overlapping deletion passes.
	mu sync.Mutex

	sweepMu   sync.Mutex
	lastSweep time.Time
}

// NewScheduler creates a scheduler. maxStorage is in bytes; zero
// disables the size cap.
func NewScheduler(st *store.Store, tr *trash.Manager, clk clock.Clock,
	interval time.Duration, sweepHour int, logRetention time.Duration,
	maxStorage int64, logger *events.Logger) *Scheduler {
	return &Scheduler{
		store:        st,
		trash:        tr,
		clock:        clk,
		logger:       logger.WithField("component", "sched"),
		interval:     interval,
		sweepHour:    sweepHour,
		logRetention: logRetention,
		maxStorage:   maxStorage,
	}
}

// Run executes deletion passes on the configured interval until the
// context is cancelled. The daily maintenance sweep fires on the first
// pass at or after the sweep hour.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.RunNow(); err != nil && !errors.Is(err, models.ErrScanInProgress) {
				s.logger.WithError(err).Warn("Deletion pass failed")
			}
			s.maybeSweep()
		}
	}
}

// RunNow executes all due deletions immediately and returns how many
// files were deleted. Returns ErrScanInProgress when a pass is already
// running.
func (s *Scheduler) RunNow() (int, error) {
	if !s.mu.TryLock() {
		return 0, models.ErrScanInProgress
	}
	defer s.mu.Unlock()

	now := s.clock.Now()
	due, err := s.store.DueDeletions(now)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, entry := range due {
		if _, err := os.Lstat(entry.Path); os.IsNotExist(err) {
			// The user beat us to it; just drop the index row.
			if err := s.store.RemoveFileByPath(entry.Path); err != nil {
				s.logger.WithError(err).WithField("path", entry.Path).
					Warn("Failed to drop vanished file")
			}
			continue
		}

		if _, err := s.trash.SafeDelete(entry.Path, entry.FolderID, "", entry.RuleName); err != nil {
			s.logger.WithError(err).WithField("path", entry.Path).
				Warn("Scheduled deletion failed")
			continue
		}
		deleted++
	}

	if deleted > 0 {
		s.logger.WithField("deleted", deleted).Info("Deletion pass complete")
	}
	return deleted, nil
}

func (s *Scheduler) maybeSweep() {
	now := s.clock.Now()

	s.sweepMu.Lock()
	dueToday := now.Hour() >= s.sweepHour
	alreadyRan := s.lastSweep.Year() == now.Year() && s.lastSweep.YearDay() == now.YearDay()
	if !dueToday || alreadyRan {
		s.sweepMu.Unlock()
		return
	}
	s.lastSweep = now
	s.sweepMu.Unlock()

	if err := s.Maintain(); err != nil {
		s.logger.WithError(err).Warn("Maintenance sweep failed")
	}
}

// Maintain prunes old activity entries, purges expired staged files
// and enforces the storage size cap.
func (s *Scheduler) Maintain() error {
	now := s.clock.Now()

	if _, err := s.store.PruneActivity(now.Add(-s.logRetention)); err != nil {
		return err
	}

	if _, err := s.trash.PurgeExpired(); err != nil {
		return err
	}

	if s.maxStorage > 0 {
		trashSize, err := s.trash.StagingSize()
		if err != nil {
			return err
		}
		result, err := s.store.EnforceSizeLimit(s.maxStorage, trashSize, now)
		if err != nil {
			return err
		}
		if len(result.StagedDropped) > 0 {
			s.trash.Purge(result.StagedDropped)
		}
	}

	s.logger.Debug("Maintenance sweep complete")
	return nil
}
