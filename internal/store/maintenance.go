package store

import (
	"fmt"
	"os"
	"time"

	"github.com/TheMichaelB/dirsort/internal/models"
)

var statTables = []string{"activity_log", "file_index", "undo_history", "rule_metadata"}

// Stats reports the database file size and per-table row counts.
// TrashSizeBytes is left for the caller to fill in.
func (s *Store) Stats() (*models.StoreStats, error) {
	stats := &models.StoreStats{}

	if info, err := os.Stat(s.path); err == nil {
		stats.DBSizeBytes = info.Size()
	}

	for _, table := range statTables {
		var count int64
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			return nil, &models.StoreError{Op: "count " + table, Err: err}
		}
		stats.Tables = append(stats.Tables, models.TableStats{Table: table, Rows: count})
	}

	return stats, nil
}

// ClearTable empties one of the maintained tables and returns the
// number of rows removed. Unknown table names are rejected.
func (s *Store) ClearTable(name string) (int64, error) {
	valid := false
	for _, table := range statTables {
		if table == name {
			valid = true
			break
		}
	}
	if !valid {
		return 0, fmt.Errorf("unknown table: %s", name)
	}

	res, err := s.db.Exec("DELETE FROM " + name)
	if err != nil {
		return 0, &models.StoreError{Op: "clear " + name, Err: err}
	}
	n, _ := res.RowsAffected()
	s.logger.WithFields(map[string]interface{}{
		"table":   name,
		"removed": n,
	}).Info("Cleared table")
	return n, nil
}

// SizeLimitResult describes what a size enforcement pass removed.
type SizeLimitResult struct {
	BytesBefore    int64
	ActivityPruned int64
	// StagedDropped lists staged file paths whose undo rows were
	// removed; the caller deletes the files.
	StagedDropped []string
}

// EnforceSizeLimit trims stored data in batches until the combined
// database and staging footprint drops under maxBytes or nothing is
// left to trim. Activity log entries go first, oldest batch at a time,
// then expired undo entries, then unexpired undo entries oldest first.
// trashSize is the caller-measured staging directory size.
func (s *Store) EnforceSizeLimit(maxBytes, trashSize int64, now time.Time) (*SizeLimitResult, error) {
	result := &SizeLimitResult{}

	size := s.footprint(trashSize)
	result.BytesBefore = size
	if size <= maxBytes {
		return result, nil
	}

	s.logger.WithFields(map[string]interface{}{
		"size_bytes": size,
		"max_bytes":  maxBytes,
	}).Warn("Storage limit exceeded, trimming")

	for size > maxBytes {
		trimmed, err := s.trimBatch(result, now)
		if err != nil {
			return result, err
		}
		if !trimmed {
			break
		}

		// The file only shrinks after a vacuum; without one the
		// re-measure below would never move.
		if _, err := s.db.Exec("VACUUM"); err != nil {
			s.logger.WithError(err).Warn("Vacuum failed")
			break
		}
		size = s.footprint(trashSize)
	}

	return result, nil
}

func (s *Store) footprint(trashSize int64) int64 {
	size := trashSize
	if info, err := os.Stat(s.path); err == nil {
		size += info.Size()
	}
	return size
}

// trimBatch removes one batch of prunable rows, reporting whether it
// removed anything.
func (s *Store) trimBatch(result *SizeLimitResult, now time.Time) (bool, error) {
	res, err := s.db.Exec(`
        DELETE FROM activity_log
        WHERE id IN (
            SELECT id FROM activity_log ORDER BY created_at LIMIT 500
        )
    `)
	if err != nil {
		return false, &models.StoreError{Op: "trim activity", Err: err}
	}
	if n, _ := res.RowsAffected(); n > 0 {
		result.ActivityPruned += n
		return true, nil
	}

	expired, err := s.ExpiredUndo(now)
	if err != nil {
		return false, err
	}
	for _, entry := range expired {
		if err := s.DeleteUndo(entry.ID); err != nil {
			return false, err
		}
		result.StagedDropped = append(result.StagedDropped, entry.StagedPath)
	}
	if len(expired) > 0 {
		return true, nil
	}

	// Staged files still within their undo window are sacrificed only
	// when nothing else is left to trim.
	live, err := s.queryUndo(`
        SELECT id, original_path, staged_path, action, created_at, expires_at, restored
        FROM undo_history
        WHERE restored = 0
        ORDER BY created_at
        LIMIT 10
    `)
	if err != nil {
		return false, err
	}
	for _, entry := range live {
		if err := s.DeleteUndo(entry.ID); err != nil {
			return false, err
		}
		result.StagedDropped = append(result.StagedDropped, entry.StagedPath)
	}
	return len(live) > 0, nil
}
