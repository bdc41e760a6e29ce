package client

import (
	"github.com/TheMichaelB/dirsort/internal/models"
	"github.com/TheMichaelB/dirsort/internal/store"
)

// ScanNow walks every enabled folder and applies its rules. Returns
// how many files a rule acted on. Rescanning an unchanged tree acts on
// nothing.
func (c *Client) ScanNow() (int, error) {
	c.mu.Lock()
	folders := make([]*models.WatchedFolder, len(c.current.Folders))
	copy(folders, c.current.Folders)
	c.mu.Unlock()

	total := 0
	for _, folder := range folders {
		acted, err := c.applier.ScanFolder(folder)
		total += acted
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// ScanFolder walks one folder and applies its rules.
func (c *Client) ScanFolder(folderID string) (int, error) {
	c.mu.Lock()
	folder := c.current.FolderByID(folderID)
	c.mu.Unlock()
	if folder == nil {
		return 0, models.ErrFolderNotFound
	}

	return c.applier.ScanFolder(folder)
}

// ScheduledDeletions lists files awaiting deletion, soonest due first.
func (c *Client) ScheduledDeletions() ([]*models.FileIndexEntry, error) {
	return c.store.PendingDeletions()
}

// CancelScheduledDeletion clears a file's pending deletion.
func (c *Client) CancelScheduledDeletion(path string) error {
	return c.store.CancelPending(path)
}

// RunDeletionsNow executes all due deletions immediately.
func (c *Client) RunDeletionsNow() (int, error) {
	return c.sched.RunNow()
}

// Undo restores a staged deletion to its original location.
func (c *Client) Undo(id string) (*models.UndoEntry, error) {
	return c.trash.Undo(id)
}

// UndoHistory lists undo entries, newest first.
func (c *Client) UndoHistory(includeRestored bool) ([]*models.UndoEntry, error) {
	return c.store.ListUndo(includeRestored)
}

// ActivityLog returns a page of the audit log, newest first. folderID
// may be empty for all folders.
func (c *Client) ActivityLog(limit, offset int, folderID string) ([]*models.ActivityLogEntry, error) {
	return c.store.Activity(store.ActivityQuery{
		FolderID: folderID,
		Limit:    limit,
		Offset:   offset,
	})
}

// Stats reports store and staging footprint.
func (c *Client) Stats() (*models.StoreStats, error) {
	stats, err := c.store.Stats()
	if err != nil {
		return nil, err
	}

	trashSize, err := c.trash.StagingSize()
	if err != nil {
		return nil, err
	}
	stats.TrashSizeBytes = trashSize
	return stats, nil
}

// EnforceStorageLimit runs the size cap check immediately.
func (c *Client) EnforceStorageLimit() (*store.SizeLimitResult, error) {
	trashSize, err := c.trash.StagingSize()
	if err != nil {
		return nil, err
	}

	maxBytes := int64(c.config.Store.MaxStorageMB) * 1024 * 1024
	result, err := c.store.EnforceSizeLimit(maxBytes, trashSize, c.clock.Now())
	if err != nil {
		return nil, err
	}
	if len(result.StagedDropped) > 0 {
		c.trash.Purge(result.StagedDropped)
	}
	return result, nil
}

// ClearTable empties a prunable store table.
func (c *Client) ClearTable(name string) (int64, error) {
	return c.store.ClearTable(name)
}
