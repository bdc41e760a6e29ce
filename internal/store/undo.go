package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/TheMichaelB/dirsort/internal/models"
)

// AddUndo records a staged file that can be restored until it expires.
func (s *Store) AddUndo(entry *models.UndoEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	_, err := s.db.Exec(`
        INSERT INTO undo_history (id, original_path, staged_path, action, created_at, expires_at, restored)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `, entry.ID, entry.OriginalPath, entry.StagedPath, entry.Action,
		entry.CreatedAt, entry.ExpiresAt, entry.Restored)
	if err != nil {
		return &models.StoreError{Op: "add undo", Err: err}
	}
	return nil
}

// UndoByID returns an undo entry, or ErrEntryNotFound.
func (s *Store) UndoByID(id string) (*models.UndoEntry, error) {
	row := s.db.QueryRow(`
        SELECT id, original_path, staged_path, action, created_at, expires_at, restored
        FROM undo_history
        WHERE id = ?
    `, id)

	entry, err := scanUndoEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrEntryNotFound
	}
	if err != nil {
		return nil, &models.StoreError{Op: "query undo", Err: err}
	}
	return entry, nil
}

// ListUndo returns undo entries newest first. Restored entries are
// included only when includeRestored is set.
func (s *Store) ListUndo(includeRestored bool) ([]*models.UndoEntry, error) {
	query := `
        SELECT id, original_path, staged_path, action, created_at, expires_at, restored
        FROM undo_history
    `
	if !includeRestored {
		query += " WHERE restored = 0"
	}
	query += " ORDER BY created_at DESC, id"

	return s.queryUndo(query)
}

// ExpiredUndo lists unrestored entries whose undo window has closed.
func (s *Store) ExpiredUndo(now time.Time) ([]*models.UndoEntry, error) {
	return s.queryUndo(`
        SELECT id, original_path, staged_path, action, created_at, expires_at, restored
        FROM undo_history
        WHERE restored = 0 AND expires_at < ?
        ORDER BY expires_at
    `, now)
}

// MarkRestored flags an undo entry as consumed.
func (s *Store) MarkRestored(id string) error {
	res, err := s.db.Exec("UPDATE undo_history SET restored = 1 WHERE id = ?", id)
	if err != nil {
		return &models.StoreError{Op: "mark restored", Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrEntryNotFound
	}
	return nil
}

// DeleteUndo removes an undo record after its staged file is purged.
func (s *Store) DeleteUndo(id string) error {
	if _, err := s.db.Exec("DELETE FROM undo_history WHERE id = ?", id); err != nil {
		return &models.StoreError{Op: "delete undo", Err: err}
	}
	return nil
}

func (s *Store) queryUndo(query string, args ...interface{}) ([]*models.UndoEntry, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, &models.StoreError{Op: "query undo", Err: err}
	}
	defer rows.Close()

	var entries []*models.UndoEntry
	for rows.Next() {
		entry, err := scanUndoEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan undo row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanUndoEntry(row rowScanner) (*models.UndoEntry, error) {
	var e models.UndoEntry
	err := row.Scan(&e.ID, &e.OriginalPath, &e.StagedPath, &e.Action,
		&e.CreatedAt, &e.ExpiresAt, &e.Restored)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
