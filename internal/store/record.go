package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/TheMichaelB/dirsort/internal/models"
)

// RecordMove atomically drops the moved file from the index, appends
// the audit record and touches the triggering rule. ruleID may be empty
// for moves not driven by a rule.
func (s *Store) RecordMove(oldPath, ruleID string, activity *models.ActivityLogEntry) error {
	return s.withTx("record move", func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM file_index WHERE path = ?", oldPath); err != nil {
			return fmt.Errorf("remove file: %w", err)
		}
		if err := insertActivity(tx, activity); err != nil {
			return err
		}
		return touchRule(tx, ruleID, activity)
	})
}

// RecordSafeDelete atomically drops the file from the index, records
// the staged copy in undo history and appends the audit record.
func (s *Store) RecordSafeDelete(path, ruleID string, undo *models.UndoEntry, activity *models.ActivityLogEntry) error {
	if undo.ID == "" {
		undo.ID = uuid.NewString()
	}

	return s.withTx("record safe delete", func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM file_index WHERE path = ?", path); err != nil {
			return fmt.Errorf("remove file: %w", err)
		}
		_, err := tx.Exec(`
            INSERT INTO undo_history (id, original_path, staged_path, action, created_at, expires_at, restored)
            VALUES (?, ?, ?, ?, ?, ?, 0)
        `, undo.ID, undo.OriginalPath, undo.StagedPath, undo.Action,
			undo.CreatedAt, undo.ExpiresAt)
		if err != nil {
			return fmt.Errorf("insert undo: %w", err)
		}
		if err := insertActivity(tx, activity); err != nil {
			return err
		}
		return touchRule(tx, ruleID, activity)
	})
}

// RecordUndo atomically marks the undo entry restored and appends the
// audit record.
func (s *Store) RecordUndo(undoID string, activity *models.ActivityLogEntry) error {
	return s.withTx("record undo", func(tx *sql.Tx) error {
		res, err := tx.Exec("UPDATE undo_history SET restored = 1 WHERE id = ?", undoID)
		if err != nil {
			return fmt.Errorf("mark restored: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return models.ErrEntryNotFound
		}
		return insertActivity(tx, activity)
	})
}

func (s *Store) withTx(op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return &models.StoreError{Op: op, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		if errors.Is(err, models.ErrEntryNotFound) {
			return err
		}
		return &models.StoreError{Op: op, Err: err}
	}
	return tx.Commit()
}

func insertActivity(tx *sql.Tx, entry *models.ActivityLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	_, err := tx.Exec(`
        INSERT INTO activity_log (id, path, name, action, rule_name, folder_id, created_at, result, detail)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, entry.ID, entry.Path, entry.Name, entry.Action, entry.RuleName,
		entry.FolderID, entry.Timestamp, entry.Result, entry.Detail)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func touchRule(tx *sql.Tx, ruleID string, activity *models.ActivityLogEntry) error {
	if ruleID == "" {
		return nil
	}
	_, err := tx.Exec(`
        UPDATE rule_metadata SET last_triggered_at = ? WHERE rule_id = ?
    `, activity.Timestamp, ruleID)
	if err != nil {
		return fmt.Errorf("touch rule: %w", err)
	}
	return nil
}
