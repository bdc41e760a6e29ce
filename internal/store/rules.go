package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/TheMichaelB/dirsort/internal/models"
)

// EnsureRuleMetadata creates the metadata row for a rule if it does not
// exist yet.
func (s *Store) EnsureRuleMetadata(ruleID, folderID string, now time.Time) error {
	_, err := s.db.Exec(`
        INSERT INTO rule_metadata (rule_id, folder_id, created_at)
        VALUES (?, ?, ?)
        ON CONFLICT(rule_id) DO NOTHING
    `, ruleID, folderID, now)
	if err != nil {
		return &models.StoreError{Op: "ensure rule metadata", Err: err}
	}
	return nil
}

// TouchRule updates a rule's last-triggered time.
func (s *Store) TouchRule(ruleID string, now time.Time) error {
	_, err := s.db.Exec(`
        UPDATE rule_metadata SET last_triggered_at = ? WHERE rule_id = ?
    `, now, ruleID)
	if err != nil {
		return &models.StoreError{Op: "touch rule", Err: err}
	}
	return nil
}

// RuleMetadataList returns metadata for all rules of a folder.
func (s *Store) RuleMetadataList(folderID string) ([]*models.RuleMetadata, error) {
	rows, err := s.db.Query(`
        SELECT rule_id, folder_id, created_at, last_triggered_at
        FROM rule_metadata
        WHERE folder_id = ?
        ORDER BY created_at
    `, folderID)
	if err != nil {
		return nil, &models.StoreError{Op: "query rule metadata", Err: err}
	}
	defer rows.Close()

	var metas []*models.RuleMetadata
	for rows.Next() {
		var m models.RuleMetadata
		var triggered sql.NullTime
		if err := rows.Scan(&m.RuleID, &m.FolderID, &m.CreatedAt, &triggered); err != nil {
			return nil, fmt.Errorf("scan rule metadata: %w", err)
		}
		if triggered.Valid {
			t := triggered.Time
			m.LastTriggeredAt = &t
		}
		metas = append(metas, &m)
	}
	return metas, rows.Err()
}

// DeleteRuleMetadata removes a rule's metadata row.
func (s *Store) DeleteRuleMetadata(ruleID string) error {
	if _, err := s.db.Exec("DELETE FROM rule_metadata WHERE rule_id = ?", ruleID); err != nil {
		return &models.StoreError{Op: "delete rule metadata", Err: err}
	}
	return nil
}

// RuleStats aggregates successful executions per rule from the activity
// log since the given time, scoped to one folder.
func (s *Store) RuleStats(folderID string, since time.Time) ([]*models.RuleStats, error) {
	rows, err := s.db.Query(`
        SELECT rule_name, MAX(created_at), COUNT(*)
        FROM activity_log
        WHERE folder_id = ? AND rule_name != '' AND result = ? AND created_at >= ?
        GROUP BY rule_name
        ORDER BY rule_name
    `, folderID, models.ResultSuccess, since)
	if err != nil {
		return nil, &models.StoreError{Op: "query rule stats", Err: err}
	}
	defer rows.Close()

	var stats []*models.RuleStats
	for rows.Next() {
		var st models.RuleStats
		// MAX() strips the column's timestamp affinity, so the driver
		// hands the aggregate back as a string.
		var last sql.NullString
		if err := rows.Scan(&st.RuleName, &last, &st.ExecutionsIn7); err != nil {
			return nil, fmt.Errorf("scan rule stats: %w", err)
		}
		if last.Valid {
			t, err := parseTimestamp(last.String)
			if err != nil {
				return nil, fmt.Errorf("parse rule stats timestamp: %w", err)
			}
			st.LastExecuted = &t
		}
		stats = append(stats, &st)
	}
	return stats, rows.Err()
}

// timestampLayouts mirrors the formats go-sqlite3 writes time.Time
// values with.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp: %q", s)
}
