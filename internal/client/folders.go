package client

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/TheMichaelB/dirsort/internal/models"
)

// ListFolders returns the watched folders in configuration order.
func (c *Client) ListFolders() []*models.WatchedFolder {
	c.mu.Lock()
	defer c.mu.Unlock()

	folders := make([]*models.WatchedFolder, len(c.current.Folders))
	copy(folders, c.current.Folders)
	return folders
}

// AddFolder registers a directory for watching. The path must be an
// absolute path to an existing directory not already watched.
func (c *Client) AddFolder(path string, recursive bool) (*models.WatchedFolder, error) {
	if !filepath.IsAbs(path) {
		return nil, fmt.Errorf("folder path must be absolute: %s", path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("folder path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", path)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current.FolderByPath(path) != nil {
		return nil, models.ErrFolderExists
	}

	folder := &models.WatchedFolder{
		ID:        uuid.NewString(),
		Path:      filepath.Clean(path),
		Enabled:   true,
		Recursive: recursive,
	}
	c.current.Folders = append(c.current.Folders, folder)

	if err := c.save(); err != nil {
		return nil, err
	}

	c.logger.WithField("path", folder.Path).Info("Folder added")
	return folder, nil
}

// RemoveFolder stops watching a folder and drops its index rows and
// rule metadata. Files already moved or staged are untouched.
func (c *Client) RemoveFolder(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	folder := c.current.FolderByID(id)
	if folder == nil {
		return models.ErrFolderNotFound
	}

	kept := c.current.Folders[:0]
	for _, f := range c.current.Folders {
		if f.ID != id {
			kept = append(kept, f)
		}
	}
	c.current.Folders = kept

	if err := c.save(); err != nil {
		return err
	}

	for _, rule := range folder.Rules {
		if err := c.store.DeleteRuleMetadata(rule.ID); err != nil {
			c.logger.WithError(err).WithField("rule", rule.Name).
				Warn("Failed to drop rule metadata")
		}
	}
	if err := c.store.RemoveFolderFiles(id); err != nil {
		c.logger.WithError(err).WithField("folder_id", id).
			Warn("Failed to drop folder index rows")
	}

	c.logger.WithField("path", folder.Path).Info("Folder removed")
	return nil
}

// ToggleFolder enables or disables a folder. Disabling tears down its
// watches; pending scheduled deletions stay in place.
func (c *Client) ToggleFolder(id string, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	folder := c.current.FolderByID(id)
	if folder == nil {
		return models.ErrFolderNotFound
	}
	if folder.Enabled == enabled {
		return nil
	}
	folder.Enabled = enabled

	if err := c.save(); err != nil {
		return err
	}

	c.logger.WithFields(map[string]interface{}{
		"path":    folder.Path,
		"enabled": enabled,
	}).Info("Folder toggled")
	return nil
}
