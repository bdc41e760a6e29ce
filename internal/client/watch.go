package client

import (
	"context"
	"errors"
)

// Watch runs the engine until the context is cancelled: an initial
// scan picks up files that arrived while the process was down, then
// the monitor delivers stable files to the rule applier while the
// scheduler handles due deletions and maintenance.
func (c *Client) Watch(ctx context.Context) error {
	acted, err := c.ScanNow()
	if err != nil {
		c.logger.WithError(err).Warn("Initial scan failed")
	} else if acted > 0 {
		c.logger.WithField("acted", acted).Info("Initial scan complete")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, 2)
	go func() { errs <- c.monitor.Run(ctx) }()
	go func() { errs <- c.sched.Run(ctx) }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-errs:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil

		case n := <-c.monitor.Notifications():
			c.mu.Lock()
			folder := c.current.FolderByID(n.FolderID)
			c.mu.Unlock()
			if folder == nil || !folder.Enabled {
				continue
			}

			if _, err := c.applier.Apply(folder, n.Path); err != nil {
				c.logger.WithError(err).WithField("path", n.Path).
					Warn("Rule application failed")
			}
		}
	}
}
