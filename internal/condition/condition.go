// Package condition implements the rule condition language: a small infix
// boolean expression syntax over glob and regex patterns, its parser and
// serializer, and a pure evaluator.
//
// Syntax (keywords are case-insensitive):
//
//	*.pdf                            glob, matches files ending in .pdf
//	/^IMG_\d+/                       regex, wrapped in slashes
//	*.pdf AND *invoice*              both must match
//	*.jpg OR *.png OR *.gif          any must match
//	NOT *.tmp                        negation
//	(*.pdf OR *.docx) AND *report*   grouping
//	*                                matches everything
//
// Precedence, highest to lowest: NOT, AND, OR.
package condition

import (
	"regexp"
	"strings"

	"github.com/TheMichaelB/dirsort/internal/models"
)

// Evaluate tests a candidate filename (or relative path) against a condition
// tree. It is pure: no side effects, no mutation of the tree.
func Evaluate(cond *models.Condition, candidate string) bool {
	switch cond.Kind {
	case models.CondGlob:
		return globMatch(cond.Pattern, candidate)
	case models.CondRegex:
		re, err := regexp.Compile(cond.Pattern)
		if err != nil {
			return false
		}
		return re.MatchString(candidate)
	case models.CondAnd:
		for _, child := range cond.Children {
			if !Evaluate(child, candidate) {
				return false
			}
		}
		return true
	case models.CondOr:
		for _, child := range cond.Children {
			if Evaluate(child, candidate) {
				return true
			}
		}
		return false
	case models.CondNot:
		return !Evaluate(cond.Child, candidate)
	case models.CondAlways:
		return true
	default:
		return false
	}
}

// ValidateTree checks patterns inside a condition tree, rejecting regexes
// that do not compile.
func ValidateTree(cond *models.Condition) error {
	switch cond.Kind {
	case models.CondRegex:
		if _, err := regexp.Compile(cond.Pattern); err != nil {
			return &models.ParseError{Msg: "invalid regex: " + err.Error()}
		}
	case models.CondAnd, models.CondOr:
		for _, child := range cond.Children {
			if err := ValidateTree(child); err != nil {
				return err
			}
		}
	case models.CondNot:
		return ValidateTree(cond.Child)
	}
	return nil
}

// globMatch matches shell-style wildcards: `*` spans any run of characters,
// `?` matches exactly one. Case-insensitive.
func globMatch(pattern, text string) bool {
	pat := []rune(strings.ToLower(pattern))
	txt := []rune(strings.ToLower(text))

	px, tx := 0, 0
	starPx, starTx := -1, 0

	for tx < len(txt) {
		switch {
		case px < len(pat) && (pat[px] == '?' || pat[px] == txt[tx]):
			px++
			tx++
		case px < len(pat) && pat[px] == '*':
			starPx = px
			starTx = tx
			px++
		case starPx >= 0:
			px = starPx + 1
			starTx++
			tx = starTx
		default:
			return false
		}
	}

	for px < len(pat) && pat[px] == '*' {
		px++
	}
	return px == len(pat)
}

// GlobMatch exposes the matcher for whitelist checks.
func GlobMatch(pattern, text string) bool {
	return globMatch(pattern, text)
}
