package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/TheMichaelB/dirsort/internal/models"
)

// ActivityQuery selects a page of activity log entries, newest first.
// A zero Limit means 50. An empty FolderID matches all folders.
type ActivityQuery struct {
	FolderID string
	Limit    int
	Offset   int
}

// AppendActivity inserts an audit record. The entry's ID is assigned if
// empty.
func (s *Store) AppendActivity(entry *models.ActivityLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	_, err := s.db.Exec(`
        INSERT INTO activity_log (id, path, name, action, rule_name, folder_id, created_at, result, detail)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, entry.ID, entry.Path, entry.Name, entry.Action, entry.RuleName,
		entry.FolderID, entry.Timestamp, entry.Result, entry.Detail)
	if err != nil {
		return &models.StoreError{Op: "append activity", Err: err}
	}
	return nil
}

// Activity returns a page of activity entries ordered by timestamp
// descending.
func (s *Store) Activity(q ActivityQuery) ([]*models.ActivityLogEntry, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
        SELECT id, path, name, action, rule_name, folder_id, created_at, result, detail
        FROM activity_log
    `
	args := []interface{}{}
	if q.FolderID != "" {
		query += " WHERE folder_id = ?"
		args = append(args, q.FolderID)
	}
	query += " ORDER BY created_at DESC, id LIMIT ? OFFSET ?"
	args = append(args, limit, q.Offset)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, &models.StoreError{Op: "query activity", Err: err}
	}
	defer rows.Close()

	var entries []*models.ActivityLogEntry
	for rows.Next() {
		var e models.ActivityLogEntry
		if err := rows.Scan(&e.ID, &e.Path, &e.Name, &e.Action, &e.RuleName,
			&e.FolderID, &e.Timestamp, &e.Result, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan activity row: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// PruneActivity deletes entries older than the cutoff and returns the
// number removed.
func (s *Store) PruneActivity(before time.Time) (int64, error) {
	res, err := s.db.Exec("DELETE FROM activity_log WHERE created_at < ?", before)
	if err != nil {
		return 0, &models.StoreError{Op: "prune activity", Err: err}
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.logger.WithField("removed", n).Debug("Pruned activity log")
	}
	return n, nil
}
