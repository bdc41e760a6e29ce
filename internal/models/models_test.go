package models_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/TheMichaelB/dirsort/internal/models"
)

func TestConditionEqual(t *testing.T) {
	a := models.Or(
		models.Glob("*.pdf"),
		models.And(models.Glob("*.docx"), models.Not(models.Regex("draft"))),
	)
	b := models.Or(
		models.Glob("*.pdf"),
		models.And(models.Glob("*.docx"), models.Not(models.Regex("draft"))),
	)

	assert.True(t, a.Equal(b))

	// Child order matters.
	c := models.Or(
		models.And(models.Glob("*.docx"), models.Not(models.Regex("draft"))),
		models.Glob("*.pdf"),
	)
	assert.False(t, a.Equal(c))

	assert.True(t, models.Always().Equal(models.Always()))
	assert.False(t, models.Glob("*.pdf").Equal(models.Regex("*.pdf")))
	assert.False(t, a.Equal(nil))
}

func TestActionValidate(t *testing.T) {
	tests := []struct {
		name    string
		action  models.Action
		wantErr bool
	}{
		{"valid move", models.Action{Kind: models.ActionMove, Destination: "/archive"}, false},
		{"move without destination", models.Action{Kind: models.ActionMove}, true},
		{"move relative destination", models.Action{Kind: models.ActionMove, Destination: "archive"}, true},
		{"immediate delete", models.Action{Kind: models.ActionDelete}, false},
		{"delayed delete", models.Action{Kind: models.ActionDelete, AfterDays: 14}, false},
		{"negative delay", models.Action{Kind: models.ActionDelete, AfterDays: -1}, true},
		{"unknown kind", models.Action{Kind: "archive"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.action.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFileIndexEntryDue(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	due := now.Add(-time.Minute)

	entry := &models.FileIndexEntry{Pending: models.PendingDelete, DueAt: &due}
	assert.True(t, entry.Due(now))

	later := now.Add(time.Minute)
	entry.DueAt = &later
	assert.False(t, entry.Due(now))

	// Without a pending action the due time is meaningless.
	entry = &models.FileIndexEntry{DueAt: &due}
	assert.False(t, entry.Due(now))
}

func TestUndoEntryExpired(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	entry := &models.UndoEntry{ExpiresAt: now}
	assert.False(t, entry.Expired(now))
	assert.True(t, entry.Expired(now.Add(time.Second)))
}

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("disk full")

	actionErr := &models.ActionError{Op: "move", Path: "/a", Transient: true, Err: cause}
	assert.ErrorIs(t, actionErr, cause)
	assert.Contains(t, actionErr.Error(), "/a")

	storeErr := &models.StoreError{Op: "upsert file", Err: cause}
	assert.ErrorIs(t, storeErr, cause)

	wrapped := fmt.Errorf("apply: %w", actionErr)
	var target *models.ActionError
	assert.ErrorAs(t, wrapped, &target)
	assert.True(t, target.Transient)
}

func TestParseErrorPosition(t *testing.T) {
	err := &models.ParseError{Pos: 7, Msg: "expected pattern"}
	assert.Contains(t, err.Error(), "7")
	assert.Contains(t, err.Error(), "expected pattern")
}
