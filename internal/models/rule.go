package models

import (
	"fmt"
	"path/filepath"
	"time"
)

// ConditionKind discriminates the variants of a condition tree node.
type ConditionKind string

const (
	CondGlob   ConditionKind = "glob"
	CondRegex  ConditionKind = "regex"
	CondAnd    ConditionKind = "and"
	CondOr     ConditionKind = "or"
	CondNot    ConditionKind = "not"
	CondAlways ConditionKind = "always"
)

// Condition is a boolean expression tree over filename patterns.
// Leaf nodes carry a Pattern; And/Or carry Children; Not carries Child.
// Trees are built by the condition parser and never mutated in place.
type Condition struct {
	Kind     ConditionKind `json:"type"`
	Pattern  string        `json:"pattern,omitempty"`
	Children []*Condition  `json:"conditions,omitempty"`
	Child    *Condition    `json:"condition,omitempty"`
}

// Glob returns a glob leaf condition.
func Glob(pattern string) *Condition {
	return &Condition{Kind: CondGlob, Pattern: pattern}
}

// Regex returns a regex leaf condition.
func Regex(pattern string) *Condition {
	return &Condition{Kind: CondRegex, Pattern: pattern}
}

// And returns a conjunction over the given children.
func And(children ...*Condition) *Condition {
	return &Condition{Kind: CondAnd, Children: children}
}

// Or returns a disjunction over the given children.
func Or(children ...*Condition) *Condition {
	return &Condition{Kind: CondOr, Children: children}
}

// Not returns a negation of the given child.
func Not(child *Condition) *Condition {
	return &Condition{Kind: CondNot, Child: child}
}

// Always returns the match-everything condition.
func Always() *Condition {
	return &Condition{Kind: CondAlways}
}

// Equal reports structural equality of two condition trees.
func (c *Condition) Equal(other *Condition) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.Kind != other.Kind || c.Pattern != other.Pattern {
		return false
	}
	if (c.Child == nil) != (other.Child == nil) {
		return false
	}
	if c.Child != nil && !c.Child.Equal(other.Child) {
		return false
	}
	if len(c.Children) != len(other.Children) {
		return false
	}
	for i, child := range c.Children {
		if !child.Equal(other.Children[i]) {
			return false
		}
	}
	return true
}

// ActionKind discriminates rule actions.
type ActionKind string

const (
	ActionMove   ActionKind = "move"
	ActionDelete ActionKind = "delete"
)

// Action describes what happens to a file once a rule's condition matches.
type Action struct {
	Kind ActionKind `json:"type"`

	// Destination directory for move actions. Must be absolute.
	Destination string `json:"destination,omitempty"`

	// AfterDays delays delete actions. Zero means the file is eligible on
	// the next scheduler pass.
	AfterDays int `json:"after_days,omitempty"`
}

// Validate checks action invariants.
func (a Action) Validate() error {
	switch a.Kind {
	case ActionMove:
		if a.Destination == "" {
			return fmt.Errorf("move action: destination is required")
		}
		if !filepath.IsAbs(a.Destination) {
			return fmt.Errorf("move action: destination must be absolute: %s", a.Destination)
		}
	case ActionDelete:
		if a.AfterDays < 0 {
			return fmt.Errorf("delete action: after_days must not be negative")
		}
	default:
		return fmt.Errorf("unknown action type: %s", a.Kind)
	}
	return nil
}

// Rule pairs a condition tree with an action. Rules live in a folder's
// ordered list; position is priority.
type Rule struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`

	Condition *Condition `json:"condition"`

	// ConditionText is the human-readable form, e.g. "*.pdf AND *invoice*".
	// Re-parsing it must yield a tree structurally equal to Condition.
	ConditionText string `json:"condition_text"`

	Action Action `json:"action"`

	// Whitelist holds glob patterns for files this rule skips.
	Whitelist []string `json:"whitelist,omitempty"`

	// MatchSubdirectories switches condition evaluation from the bare
	// filename to the path relative to the watched folder root.
	MatchSubdirectories bool `json:"match_subdirectories,omitempty"`
}

// WatchedFolder is a monitored directory with its ordered rule list.
type WatchedFolder struct {
	ID      string  `json:"id"`
	Path    string  `json:"path"`
	Enabled bool    `json:"enabled"`
	Rules   []*Rule `json:"rules"`

	// Whitelist holds glob patterns for files never processed in this folder.
	Whitelist []string `json:"whitelist,omitempty"`

	// Recursive extends watching into subdirectories.
	Recursive bool `json:"recursive,omitempty"`
}

// RuleByID returns the rule with the given id, or nil.
func (f *WatchedFolder) RuleByID(id string) *Rule {
	for _, rule := range f.Rules {
		if rule.ID == id {
			return rule
		}
	}
	return nil
}

// RuleMetadata tracks per-rule execution bookkeeping. Informational only.
type RuleMetadata struct {
	RuleID          string     `json:"rule_id"`
	FolderID        string     `json:"folder_id"`
	CreatedAt       time.Time  `json:"created_at"`
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`
}

// RuleStats summarizes recent executions of a rule, derived from the
// activity log.
type RuleStats struct {
	RuleName      string     `json:"rule_name"`
	LastExecuted  *time.Time `json:"last_executed,omitempty"`
	ExecutionsIn7 int        `json:"executions_this_week"`
}
