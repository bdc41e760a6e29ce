package condition

import (
	"fmt"
	"strings"

	"github.com/TheMichaelB/dirsort/internal/models"
)

// Parse converts condition text into a tree. The empty string and the bare
// `*` parse to Always. Malformed input yields a *models.ParseError.
func Parse(input string) (*models.Condition, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" || trimmed == "*" {
		return models.Always(), nil
	}

	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		tok := p.peek()
		return nil, &models.ParseError{Pos: tok.pos, Msg: fmt.Sprintf("unexpected %s", tok.describe())}
	}
	return cond, nil
}

// Validate checks condition text without building a rule. Regex patterns
// must compile, not just parse.
func Validate(input string) error {
	cond, err := Parse(input)
	if err != nil {
		return err
	}
	return ValidateTree(cond)
}

// Serialize renders a condition tree back to text. The output re-parses to a
// structurally equal tree; whitespace may differ from the original input.
func Serialize(cond *models.Condition) string {
	switch cond.Kind {
	case models.CondAlways:
		return "*"
	case models.CondGlob:
		return cond.Pattern
	case models.CondRegex:
		return "/" + cond.Pattern + "/"
	case models.CondNot:
		inner := Serialize(cond.Child)
		if cond.Child.Kind == models.CondAnd || cond.Child.Kind == models.CondOr {
			return "NOT (" + inner + ")"
		}
		return "NOT " + inner
	case models.CondAnd:
		parts := make([]string, 0, len(cond.Children))
		for _, child := range cond.Children {
			if child.Kind == models.CondOr {
				parts = append(parts, "("+Serialize(child)+")")
			} else {
				parts = append(parts, Serialize(child))
			}
		}
		return strings.Join(parts, " AND ")
	case models.CondOr:
		parts := make([]string, 0, len(cond.Children))
		for _, child := range cond.Children {
			parts = append(parts, Serialize(child))
		}
		return strings.Join(parts, " OR ")
	default:
		return ""
	}
}

// Tokenizer

type tokenKind int

const (
	tokAnd tokenKind = iota
	tokOr
	tokNot
	tokLParen
	tokRParen
	tokGlob
	tokRegex
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) describe() string {
	switch t.kind {
	case tokAnd:
		return "AND"
	case tokOr:
		return "OR"
	case tokNot:
		return "NOT"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokRegex:
		return fmt.Sprintf("regex /%s/", t.text)
	default:
		return fmt.Sprintf("pattern %q", t.text)
	}
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	chars := []rune(input)
	i := 0

	for i < len(chars) {
		c := chars[i]

		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			i++
			continue
		}

		if c == '(' {
			tokens = append(tokens, token{kind: tokLParen, pos: i})
			i++
			continue
		}
		if c == ')' {
			tokens = append(tokens, token{kind: tokRParen, pos: i})
			i++
			continue
		}

		// Regex literal: /pattern/
		if c == '/' {
			start := i
			i++
			patStart := i
			for i < len(chars) && chars[i] != '/' {
				i++
			}
			if i >= len(chars) {
				return nil, &models.ParseError{Pos: start, Msg: "unterminated regex: missing closing /"}
			}
			tokens = append(tokens, token{kind: tokRegex, text: string(chars[patStart:i]), pos: start})
			i++
			continue
		}

		// Keywords must end at whitespace, a paren, or end of input.
		if kw, n := matchKeyword(chars, i); n > 0 {
			tokens = append(tokens, token{kind: kw, pos: i})
			i += n
			continue
		}

		// Glob pattern: everything up to whitespace or a paren.
		start := i
		for i < len(chars) && !isBoundary(chars[i]) {
			i++
		}
		tokens = append(tokens, token{kind: tokGlob, text: string(chars[start:i]), pos: start})
	}

	return tokens, nil
}

func matchKeyword(chars []rune, i int) (tokenKind, int) {
	rest := chars[i:]
	for _, kw := range []struct {
		word string
		kind tokenKind
	}{
		{"AND", tokAnd},
		{"NOT", tokNot},
		{"OR", tokOr},
	} {
		n := len(kw.word)
		if len(rest) < n {
			continue
		}
		if !strings.EqualFold(string(rest[:n]), kw.word) {
			continue
		}
		if len(rest) == n || isBoundary(rest[n]) {
			return kw.kind, n
		}
	}
	return 0, 0
}

func isBoundary(c rune) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '(' || c == ')'
}

// Recursive descent parser.
//
//	expr    = orExpr
//	orExpr  = andExpr ("OR" andExpr)*
//	andExpr = notExpr ("AND" notExpr)*
//	notExpr = "NOT" notExpr | primary
//	primary = "(" orExpr ")" | glob | regex

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) done() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) accept(kind tokenKind) bool {
	if !p.done() && p.tokens[p.pos].kind == kind {
		p.pos++
		return true
	}
	return false
}

func (p *parser) endPos() int {
	if len(p.tokens) == 0 {
		return 0
	}
	last := p.tokens[len(p.tokens)-1]
	return last.pos + len(last.text)
}

func (p *parser) parseOr() (*models.Condition, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	parts := []*models.Condition{first}
	for p.accept(tokOr) {
		next, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		parts = append(parts, next)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return models.Or(parts...), nil
}

func (p *parser) parseAnd() (*models.Condition, error) {
	first, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	parts := []*models.Condition{first}
	for p.accept(tokAnd) {
		next, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		parts = append(parts, next)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return models.And(parts...), nil
}

func (p *parser) parseNot() (*models.Condition, error) {
	if p.accept(tokNot) {
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return models.Not(inner), nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (*models.Condition, error) {
	if p.done() {
		return nil, &models.ParseError{Pos: p.endPos(), Msg: "unexpected end of expression"}
	}

	tok := p.next()
	switch tok.kind {
	case tokLParen:
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.accept(tokRParen) {
			return nil, &models.ParseError{Pos: tok.pos, Msg: "missing closing parenthesis"}
		}
		return inner, nil
	case tokGlob:
		if tok.text == "*" {
			return models.Always(), nil
		}
		return models.Glob(tok.text), nil
	case tokRegex:
		return models.Regex(tok.text), nil
	default:
		return nil, &models.ParseError{Pos: tok.pos, Msg: fmt.Sprintf("unexpected %s", tok.describe())}
	}
}
