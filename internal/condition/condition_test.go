package condition_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/dirsort/internal/condition"
	"github.com/TheMichaelB/dirsort/internal/models"
)

func TestGlobMatch(t *testing.T) {
	cases := []struct {
		pattern string
		text    string
		match   bool
	}{
		{"*.pdf", "report.pdf", true},
		{"*.PDF", "report.pdf", true}, // case-insensitive
		{"*.pdf", "report.doc", false},
		{"invoice*", "invoice_2026.pdf", true},
		{"*report*", "annual_report_v2.xlsx", true},
		{"?est.txt", "test.txt", true},
		{"?est.txt", "arest.txt", false},
		{"*", "anything.xyz", true},
		{"a*b*c", "aXXbYYc", true},
		{"a*b*c", "aXXbYY", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.match, condition.GlobMatch(tc.pattern, tc.text),
			"pattern %q against %q", tc.pattern, tc.text)
	}
}

func TestParseSimple(t *testing.T) {
	c, err := condition.Parse("*.pdf")
	require.NoError(t, err)
	assert.True(t, condition.Evaluate(c, "report.pdf"))
	assert.False(t, condition.Evaluate(c, "report.doc"))
}

func TestParseAnd(t *testing.T) {
	c, err := condition.Parse("*.pdf AND *invoice*")
	require.NoError(t, err)
	assert.True(t, condition.Evaluate(c, "invoice_2026.pdf"))
	assert.False(t, condition.Evaluate(c, "report.pdf"))
	assert.False(t, condition.Evaluate(c, "invoice.doc"))
}

func TestParseOr(t *testing.T) {
	c, err := condition.Parse("*.jpg OR *.png OR *.gif")
	require.NoError(t, err)
	assert.True(t, condition.Evaluate(c, "photo.jpg"))
	assert.True(t, condition.Evaluate(c, "icon.png"))
	assert.False(t, condition.Evaluate(c, "doc.pdf"))
}

func TestParseNot(t *testing.T) {
	c, err := condition.Parse("NOT *.tmp")
	require.NoError(t, err)
	assert.True(t, condition.Evaluate(c, "report.pdf"))
	assert.False(t, condition.Evaluate(c, "cache.tmp"))
}

func TestParseGrouped(t *testing.T) {
	c, err := condition.Parse("(*.pdf OR *.docx) AND *report*")
	require.NoError(t, err)
	assert.True(t, condition.Evaluate(c, "annual_report.pdf"))
	assert.True(t, condition.Evaluate(c, "report_q1.docx"))
	assert.False(t, condition.Evaluate(c, "annual_report.xlsx"))
	assert.False(t, condition.Evaluate(c, "invoice.pdf"))
}

func TestParseRegex(t *testing.T) {
	c, err := condition.Parse(`/^IMG_\d+\.jpg$/`)
	require.NoError(t, err)
	assert.True(t, condition.Evaluate(c, "IMG_1234.jpg"))
	assert.False(t, condition.Evaluate(c, "photo.jpg"))
}

func TestRegexUnanchored(t *testing.T) {
	c, err := condition.Parse(`/draft/`)
	require.NoError(t, err)
	assert.True(t, condition.Evaluate(c, "thesis_draft_v3.docx"))
	assert.False(t, condition.Evaluate(c, "thesis_final.docx"))
}

func TestPrecedence(t *testing.T) {
	// AND binds tighter than OR.
	c, err := condition.Parse("*.pdf OR *.docx AND *invoice*")
	require.NoError(t, err)

	want := models.Or(
		models.Glob("*.pdf"),
		models.And(models.Glob("*.docx"), models.Glob("*invoice*")),
	)
	assert.True(t, c.Equal(want), "got %s", condition.Serialize(c))

	assert.True(t, condition.Evaluate(c, "anything.pdf"))
	assert.True(t, condition.Evaluate(c, "invoice.docx"))
	assert.False(t, condition.Evaluate(c, "report.docx"))
}

func TestNotPrecedence(t *testing.T) {
	c, err := condition.Parse("NOT *.tmp AND *.log")
	require.NoError(t, err)

	want := models.And(models.Not(models.Glob("*.tmp")), models.Glob("*.log"))
	assert.True(t, c.Equal(want), "got %s", condition.Serialize(c))
}

func TestAlways(t *testing.T) {
	for _, input := range []string{"*", "", "   "} {
		c, err := condition.Parse(input)
		require.NoError(t, err)
		assert.Equal(t, models.CondAlways, c.Kind, "input %q", input)
		assert.True(t, condition.Evaluate(c, "anything"))
	}
}

func TestCaseInsensitiveKeywords(t *testing.T) {
	c, err := condition.Parse("*.pdf and not *draft*")
	require.NoError(t, err)
	assert.True(t, condition.Evaluate(c, "final.pdf"))
	assert.False(t, condition.Evaluate(c, "draft.pdf"))
}

func TestRoundTrip(t *testing.T) {
	cases := []string{
		"*.pdf",
		"*.pdf AND *invoice*",
		"*.jpg OR *.png",
		"NOT *.tmp",
		"(*.pdf OR *.docx) AND *report*",
		"NOT (*.a OR *.b)",
		`/^IMG_\d+/ AND *.jpg`,
		"*.a OR *.b AND *.c OR *.d",
		"*",
	}
	for _, input := range cases {
		t.Run(input, func(t *testing.T) {
			first, err := condition.Parse(input)
			require.NoError(t, err)

			text := condition.Serialize(first)
			second, err := condition.Parse(text)
			require.NoError(t, err, "serialized form %q did not re-parse", text)

			assert.True(t, first.Equal(second),
				"round trip changed structure: %q -> %q", input, text)
		})
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"unbalanced open", "(*.pdf AND *.docx"},
		{"unbalanced close", "*.pdf)"},
		{"dangling and", "*.pdf AND"},
		{"leading or", "OR *.pdf"},
		{"unterminated regex", "/abc"},
		{"empty parens", "()"},
		{"bare not", "NOT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := condition.Parse(tc.input)
			require.Error(t, err)

			var parseErr *models.ParseError
			assert.True(t, errors.As(err, &parseErr), "want ParseError, got %T", err)
		})
	}
}

func TestValidateTree(t *testing.T) {
	ok := models.And(models.Regex(`^IMG_\d+`), models.Glob("*.jpg"))
	assert.NoError(t, condition.ValidateTree(ok))

	bad := models.Not(models.Regex("(unclosed"))
	assert.Error(t, condition.ValidateTree(bad))
}

func TestEvaluateInvalidRegexIsFalse(t *testing.T) {
	// An invalid regex that slipped past validation fails closed.
	c := models.Regex("(unclosed")
	assert.False(t, condition.Evaluate(c, "anything"))
}
