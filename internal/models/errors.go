package models

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrFolderNotFound  = errors.New("watched folder not found")
	ErrFolderExists    = errors.New("folder is already being watched")
	ErrRuleNotFound    = errors.New("rule not found")
	ErrEntryNotFound   = errors.New("entry not found")
	ErrAlreadyRestored = errors.New("entry already restored")
	ErrUndoExpired     = errors.New("undo window expired")
	ErrScanInProgress  = errors.New("scan already in progress")
	ErrMonitorStopped  = errors.New("monitor is not running")
)

// ParseError reports a condition syntax error with the offending position.
// Parsing never mutates stored rules; a ParseError is always recoverable.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("condition syntax error at %d: %s", e.Pos, e.Msg)
}

// ActionError wraps a filesystem failure during rule execution. Transient
// failures (a file still locked by its writer) are retried with backoff;
// the rest are logged as failed actions.
type ActionError struct {
	Op        string
	Path      string
	Transient bool
	Err       error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// StoreError marks a persistence failure. Fatal to the triggering action;
// the action is rolled back and logged.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
