package models

import "time"

// Pending actions recorded on file index entries.
const (
	PendingDelete = "delete"
)

// Activity log action names.
const (
	ActivityMove   = "move"
	ActivityDelete = "delete"
	ActivityUndo   = "undo"
)

// Activity log results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// FileIndexEntry is the durable record of a tracked file. Created on first
// observation, updated as pending-action state changes, removed when the
// file is moved, permanently deleted, or gone.
type FileIndexEntry struct {
	ID           string     `json:"id"`
	Path         string     `json:"path"`
	FolderID     string     `json:"folder_id"`
	Name         string     `json:"name"`
	Extension    string     `json:"extension,omitempty"`
	Size         int64      `json:"size"`
	FirstSeen    time.Time  `json:"first_seen"`
	LastModified time.Time  `json:"last_modified"`
	RuleName     string     `json:"rule_name,omitempty"`
	Pending      string     `json:"pending_action,omitempty"`
	DueAt        *time.Time `json:"due_at,omitempty"`
}

// Due reports whether the entry carries a pending delete whose due time has
// passed.
func (e *FileIndexEntry) Due(now time.Time) bool {
	return e.Pending == PendingDelete && e.DueAt != nil && !e.DueAt.After(now)
}

// UndoEntry records a safe-deleted file staged for possible restoration.
type UndoEntry struct {
	ID           string    `json:"id"`
	OriginalPath string    `json:"original_path"`
	StagedPath   string    `json:"staged_path"`
	Action       string    `json:"action"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	Restored     bool      `json:"restored"`
}

// Expired reports whether the undo window has closed.
func (e *UndoEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// ActivityLogEntry is an append-only audit record. Never mutated after
// creation; pruned by the retention policy.
type ActivityLogEntry struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Action    string    `json:"action"`
	RuleName  string    `json:"rule_name,omitempty"`
	FolderID  string    `json:"folder_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Result    string    `json:"result"`
	Detail    string    `json:"detail,omitempty"`
}

// TableStats holds a row count for one store table.
type TableStats struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

// StoreStats summarizes the persistent store's footprint.
type StoreStats struct {
	DBSizeBytes    int64        `json:"db_size_bytes"`
	TrashSizeBytes int64        `json:"trash_size_bytes"`
	Tables         []TableStats `json:"tables"`
}
