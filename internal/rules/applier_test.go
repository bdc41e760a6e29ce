package rules_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/dirsort/internal/condition"
	"github.com/TheMichaelB/dirsort/internal/events"
	"github.com/TheMichaelB/dirsort/internal/models"
	"github.com/TheMichaelB/dirsort/internal/rules"
	"github.com/TheMichaelB/dirsort/internal/store"
	"github.com/TheMichaelB/dirsort/internal/testutil"
	"github.com/TheMichaelB/dirsort/internal/trash"
)

type fixture struct {
	applier *rules.Applier
	store   *store.Store
	clock   *testutil.StubClock
	root    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tmpDir := t.TempDir()
	st, err := store.Open(filepath.Join(tmpDir, "dirsort.db"), events.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clk := testutil.FixedClock()
	tr := trash.NewManager(filepath.Join(tmpDir, "trash"), st, 7*24*time.Hour, clk, events.Discard())
	applier := rules.NewApplier(st, tr, clk, 2, time.Millisecond, events.Discard())

	root := filepath.Join(tmpDir, "downloads")
	require.NoError(t, os.MkdirAll(root, 0755))

	return &fixture{applier: applier, store: st, clock: clk, root: root}
}

func (f *fixture) write(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(f.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func (f *fixture) moveRule(t *testing.T, id, name, cond, destRel string) *models.Rule {
	t.Helper()
	parsed, err := condition.Parse(cond)
	require.NoError(t, err)
	return &models.Rule{
		ID:            id,
		Name:          name,
		Enabled:       true,
		Condition:     parsed,
		ConditionText: cond,
		Action: models.Action{
			Kind:        models.ActionMove,
			Destination: filepath.Join(f.root, destRel),
		},
	}
}

func (f *fixture) deleteRule(t *testing.T, id, name, cond string, afterDays int) *models.Rule {
	t.Helper()
	parsed, err := condition.Parse(cond)
	require.NoError(t, err)
	return &models.Rule{
		ID:            id,
		Name:          name,
		Enabled:       true,
		Condition:     parsed,
		ConditionText: cond,
		Action: models.Action{
			Kind:      models.ActionDelete,
			AfterDays: afterDays,
		},
	}
}

func (f *fixture) folder(rules ...*models.Rule) *models.WatchedFolder {
	return &models.WatchedFolder{
		ID:      "folder-1",
		Path:    f.root,
		Enabled: true,
		Rules:   rules,
	}
}

func TestApplyMove(t *testing.T) {
	f := newFixture(t)
	folder := f.folder(f.moveRule(t, "r1", "docs", "*.pdf", "documents"))

	path := f.write(t, "report.pdf", "data")

	outcome, err := f.applier.Apply(folder, path)
	require.NoError(t, err)
	assert.Equal(t, rules.OutcomeMoved, outcome.Kind)
	assert.Equal(t, "docs", outcome.Rule.Name)

	assert.NoFileExists(t, path)
	assert.FileExists(t, filepath.Join(f.root, "documents", "report.pdf"))

	log, err := f.store.Activity(store.ActivityQuery{})
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, models.ActivityMove, log[0].Action)
	assert.Equal(t, models.ResultSuccess, log[0].Result)
}

func TestApplyFirstMatchWins(t *testing.T) {
	f := newFixture(t)
	folder := f.folder(
		f.moveRule(t, "r1", "first", "*.pdf", "first"),
		f.moveRule(t, "r2", "second", "*.pdf", "second"),
	)

	path := f.write(t, "report.pdf", "data")

	outcome, err := f.applier.Apply(folder, path)
	require.NoError(t, err)
	assert.Equal(t, "first", outcome.Rule.Name)
	assert.FileExists(t, filepath.Join(f.root, "first", "report.pdf"))
	assert.NoDirExists(t, filepath.Join(f.root, "second"))
}

func TestApplyRuleOrderMatters(t *testing.T) {
	f := newFixture(t)
	narrow := f.moveRule(t, "r1", "invoices", "*invoice*", "invoices")
	broad := f.moveRule(t, "r2", "docs", "*.pdf", "documents")

	path := f.write(t, "invoice-march.pdf", "data")

	// Narrow rule first takes the file.
	outcome, err := f.applier.Apply(f.folder(narrow, broad), path)
	require.NoError(t, err)
	assert.Equal(t, "invoices", outcome.Rule.Name)

	// Reordered, the broad rule wins.
	path = f.write(t, "invoice-april.pdf", "data")
	outcome, err = f.applier.Apply(f.folder(broad, narrow), path)
	require.NoError(t, err)
	assert.Equal(t, "docs", outcome.Rule.Name)
}

func TestApplyDisabledRuleSkipped(t *testing.T) {
	f := newFixture(t)
	rule := f.moveRule(t, "r1", "docs", "*.pdf", "documents")
	rule.Enabled = false

	path := f.write(t, "report.pdf", "data")

	outcome, err := f.applier.Apply(f.folder(rule), path)
	require.NoError(t, err)
	assert.Equal(t, rules.OutcomeSkipped, outcome.Kind)
	assert.FileExists(t, path)
}

func TestApplyFolderWhitelist(t *testing.T) {
	f := newFixture(t)
	folder := f.folder(f.moveRule(t, "r1", "docs", "*.pdf", "documents"))
	folder.Whitelist = []string{"keep-*"}

	path := f.write(t, "keep-report.pdf", "data")

	outcome, err := f.applier.Apply(folder, path)
	require.NoError(t, err)
	assert.Equal(t, rules.OutcomeSkipped, outcome.Kind)
	assert.FileExists(t, path)
}

func TestApplyRuleWhitelistContinues(t *testing.T) {
	f := newFixture(t)
	first := f.moveRule(t, "r1", "docs", "*.pdf", "documents")
	first.Whitelist = []string{"invoice*"}
	second := f.moveRule(t, "r2", "invoices", "*.pdf", "invoices")

	path := f.write(t, "invoice.pdf", "data")

	// The first rule is whitelisted away; the second still applies.
	outcome, err := f.applier.Apply(f.folder(first, second), path)
	require.NoError(t, err)
	assert.Equal(t, "invoices", outcome.Rule.Name)
}

func TestApplySkipsMoveDestinations(t *testing.T) {
	f := newFixture(t)
	folder := f.folder(f.moveRule(t, "r1", "docs", "*.pdf", "documents"))

	path := f.write(t, filepath.Join("documents", "report.pdf"), "data")

	outcome, err := f.applier.Apply(folder, path)
	require.NoError(t, err)
	assert.Equal(t, rules.OutcomeSkipped, outcome.Kind)
	assert.FileExists(t, path)
}

func TestApplyMoveConflictSuffix(t *testing.T) {
	f := newFixture(t)
	folder := f.folder(f.moveRule(t, "r1", "docs", "*.pdf", "documents"))

	f.write(t, filepath.Join("documents", "report.pdf"), "existing")
	path := f.write(t, "report.pdf", "new")

	outcome, err := f.applier.Apply(folder, path)
	require.NoError(t, err)
	assert.Equal(t, rules.OutcomeMoved, outcome.Kind)
	assert.Equal(t, filepath.Join(f.root, "documents", "report (1).pdf"), outcome.Destination)

	data, err := os.ReadFile(outcome.Destination)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestApplyImmediateDelete(t *testing.T) {
	f := newFixture(t)
	folder := f.folder(f.deleteRule(t, "r1", "cleanup", "*.tmp", 0))

	path := f.write(t, "scratch.tmp", "data")

	outcome, err := f.applier.Apply(folder, path)
	require.NoError(t, err)
	assert.Equal(t, rules.OutcomeDeleted, outcome.Kind)
	assert.NoFileExists(t, path)

	// The delete went through staging, so it is undoable.
	undos, err := f.store.ListUndo(false)
	require.NoError(t, err)
	require.Len(t, undos, 1)
	assert.Equal(t, path, undos[0].OriginalPath)
}

func TestApplyScheduledDelete(t *testing.T) {
	f := newFixture(t)
	folder := f.folder(f.deleteRule(t, "r1", "cleanup", "*.zip", 3))

	path := f.write(t, "old.zip", "data")

	outcome, err := f.applier.Apply(folder, path)
	require.NoError(t, err)
	assert.Equal(t, rules.OutcomeScheduled, outcome.Kind)
	require.NotNil(t, outcome.DueAt)
	assert.Equal(t, f.clock.Now().Add(3*24*time.Hour).Unix(), outcome.DueAt.Unix())

	// The file stays in place until the deletion comes due.
	assert.FileExists(t, path)

	// A second pass leaves the existing schedule untouched.
	outcome, err = f.applier.Apply(folder, path)
	require.NoError(t, err)
	assert.Equal(t, rules.OutcomeSkipped, outcome.Kind)

	pending, err := f.store.PendingDeletions()
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestApplyMatchSubdirectories(t *testing.T) {
	f := newFixture(t)
	rule := f.moveRule(t, "r1", "screenshots", "screenshots/*", "sorted")
	rule.MatchSubdirectories = true
	folder := f.folder(rule)
	folder.Recursive = true

	path := f.write(t, filepath.Join("screenshots", "shot.png"), "data")

	outcome, err := f.applier.Apply(folder, path)
	require.NoError(t, err)
	assert.Equal(t, rules.OutcomeMoved, outcome.Kind)

	// Without the flag the same condition only sees the file name.
	rule.MatchSubdirectories = false
	path = f.write(t, filepath.Join("screenshots", "shot2.png"), "data")

	outcome, err = f.applier.Apply(folder, path)
	require.NoError(t, err)
	assert.Equal(t, rules.OutcomeSkipped, outcome.Kind)
}

func TestApplyVanishedFile(t *testing.T) {
	f := newFixture(t)
	folder := f.folder(f.moveRule(t, "r1", "docs", "*.pdf", "documents"))

	outcome, err := f.applier.Apply(folder, filepath.Join(f.root, "gone.pdf"))
	require.NoError(t, err)
	assert.Equal(t, rules.OutcomeSkipped, outcome.Kind)
}

func TestApplyIndexesUnmatchedFiles(t *testing.T) {
	f := newFixture(t)
	folder := f.folder(f.moveRule(t, "r1", "docs", "*.pdf", "documents"))

	path := f.write(t, "notes.txt", "data")

	outcome, err := f.applier.Apply(folder, path)
	require.NoError(t, err)
	assert.Equal(t, rules.OutcomeSkipped, outcome.Kind)

	// No rule matched but the file is indexed, and no activity is
	// logged for the skip.
	entry, err := f.store.FileByPath(path)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", entry.Name)

	log, err := f.store.Activity(store.ActivityQuery{})
	require.NoError(t, err)
	assert.Empty(t, log)
}

func TestScanFolder(t *testing.T) {
	f := newFixture(t)
	folder := f.folder(f.moveRule(t, "r1", "docs", "*.pdf", "documents"))
	folder.Recursive = true

	f.write(t, "a.pdf", "1")
	f.write(t, "b.pdf", "2")
	f.write(t, "notes.txt", "3")
	f.write(t, filepath.Join("nested", "c.pdf"), "4")

	acted, err := f.applier.ScanFolder(folder)
	require.NoError(t, err)
	assert.Equal(t, 3, acted)

	// A second scan finds nothing left to do.
	acted, err = f.applier.ScanFolder(folder)
	require.NoError(t, err)
	assert.Zero(t, acted)
}

func TestScanFolderNonRecursive(t *testing.T) {
	f := newFixture(t)
	folder := f.folder(f.moveRule(t, "r1", "docs", "*.pdf", "documents"))

	f.write(t, "a.pdf", "1")
	nested := f.write(t, filepath.Join("nested", "b.pdf"), "2")

	acted, err := f.applier.ScanFolder(folder)
	require.NoError(t, err)
	assert.Equal(t, 1, acted)
	assert.FileExists(t, nested)
}

func TestScanFolderDisabled(t *testing.T) {
	f := newFixture(t)
	folder := f.folder(f.moveRule(t, "r1", "docs", "*.pdf", "documents"))
	folder.Enabled = false

	path := f.write(t, "a.pdf", "1")

	acted, err := f.applier.ScanFolder(folder)
	require.NoError(t, err)
	assert.Zero(t, acted)
	assert.FileExists(t, path)
}
