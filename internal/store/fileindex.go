package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/TheMichaelB/dirsort/internal/models"
)

// UpsertFile records a file observation. An existing row for the same
// path keeps its id, first_seen and pending state; size and
// last_modified are refreshed.
func (s *Store) UpsertFile(entry *models.FileIndexEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	_, err := s.db.Exec(`
        INSERT INTO file_index (id, path, folder_id, name, extension, size, first_seen, last_modified, rule_name, pending, due_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(path) DO UPDATE SET
            folder_id = excluded.folder_id,
            size = excluded.size,
            last_modified = excluded.last_modified
    `, entry.ID, entry.Path, entry.FolderID, entry.Name, entry.Extension,
		entry.Size, entry.FirstSeen, entry.LastModified, entry.RuleName,
		entry.Pending, entry.DueAt)
	if err != nil {
		return &models.StoreError{Op: "upsert file", Err: err}
	}
	return nil
}

// FileByPath returns the index entry for a path, or ErrEntryNotFound.
func (s *Store) FileByPath(path string) (*models.FileIndexEntry, error) {
	row := s.db.QueryRow(`
        SELECT id, path, folder_id, name, extension, size, first_seen, last_modified, rule_name, pending, due_at
        FROM file_index
        WHERE path = ?
    `, path)

	entry, err := scanFileEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrEntryNotFound
	}
	if err != nil {
		return nil, &models.StoreError{Op: "query file", Err: err}
	}
	return entry, nil
}

// FilesByFolder lists all indexed files under a watched folder.
func (s *Store) FilesByFolder(folderID string) ([]*models.FileIndexEntry, error) {
	return s.queryFiles(`
        SELECT id, path, folder_id, name, extension, size, first_seen, last_modified, rule_name, pending, due_at
        FROM file_index
        WHERE folder_id = ?
        ORDER BY path
    `, folderID)
}

// ScheduleDeletion marks a file for deletion at dueAt. Returns false
// without modifying anything when the file already carries a pending
// deletion.
func (s *Store) ScheduleDeletion(path, ruleName string, dueAt time.Time) (bool, error) {
	res, err := s.db.Exec(`
        UPDATE file_index
        SET pending = ?, due_at = ?, rule_name = ?
        WHERE path = ? AND pending = ''
    `, models.PendingDelete, dueAt, ruleName, path)
	if err != nil {
		return false, &models.StoreError{Op: "schedule deletion", Err: err}
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// PendingDeletions lists all files with a scheduled deletion, soonest
// due first.
func (s *Store) PendingDeletions() ([]*models.FileIndexEntry, error) {
	return s.queryFiles(`
        SELECT id, path, folder_id, name, extension, size, first_seen, last_modified, rule_name, pending, due_at
        FROM file_index
        WHERE pending = ?
        ORDER BY due_at
    `, models.PendingDelete)
}

// DueDeletions lists scheduled deletions whose due time has passed.
func (s *Store) DueDeletions(now time.Time) ([]*models.FileIndexEntry, error) {
	return s.queryFiles(`
        SELECT id, path, folder_id, name, extension, size, first_seen, last_modified, rule_name, pending, due_at
        FROM file_index
        WHERE pending = ? AND due_at <= ?
        ORDER BY due_at
    `, models.PendingDelete, now)
}

// CancelPending clears a scheduled deletion. Returns ErrEntryNotFound
// when the path has no pending action.
func (s *Store) CancelPending(path string) error {
	res, err := s.db.Exec(`
        UPDATE file_index
        SET pending = '', due_at = NULL
        WHERE path = ? AND pending != ''
    `, path)
	if err != nil {
		return &models.StoreError{Op: "cancel pending", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrEntryNotFound
	}
	return nil
}

// RemoveFileByPath drops a file from the index. Removing an unknown
// path is not an error.
func (s *Store) RemoveFileByPath(path string) error {
	if _, err := s.db.Exec("DELETE FROM file_index WHERE path = ?", path); err != nil {
		return &models.StoreError{Op: "remove file", Err: err}
	}
	return nil
}

// RemoveFolderFiles drops all index rows for a watched folder.
func (s *Store) RemoveFolderFiles(folderID string) error {
	if _, err := s.db.Exec("DELETE FROM file_index WHERE folder_id = ?", folderID); err != nil {
		return &models.StoreError{Op: "remove folder files", Err: err}
	}
	return nil
}

func (s *Store) queryFiles(query string, args ...interface{}) ([]*models.FileIndexEntry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, &models.StoreError{Op: "query files", Err: err}
	}
	defer rows.Close()

	var entries []*models.FileIndexEntry
	for rows.Next() {
		entry, err := scanFileEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFileEntry(row rowScanner) (*models.FileIndexEntry, error) {
	var e models.FileIndexEntry
	var dueAt sql.NullTime

	err := row.Scan(&e.ID, &e.Path, &e.FolderID, &e.Name, &e.Extension,
		&e.Size, &e.FirstSeen, &e.LastModified, &e.RuleName, &e.Pending, &dueAt)
	if err != nil {
		return nil, err
	}
	if dueAt.Valid {
		t := dueAt.Time
		e.DueAt = &t
	}
	return &e, nil
}
