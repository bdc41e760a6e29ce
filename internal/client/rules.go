package client

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/TheMichaelB/dirsort/internal/condition"
	"github.com/TheMichaelB/dirsort/internal/models"
)

// ListRules returns a folder's rules in application order.
func (c *Client) ListRules(folderID string) ([]*models.Rule, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	folder := c.current.FolderByID(folderID)
	if folder == nil {
		return nil, models.ErrFolderNotFound
	}

	rules := make([]*models.Rule, len(folder.Rules))
	copy(rules, folder.Rules)
	return rules, nil
}

// AddRule validates and appends a rule to a folder. The rule's
// condition tree is built from its text; the rule gets a fresh id.
func (c *Client) AddRule(folderID string, rule *models.Rule) (*models.Rule, error) {
	if err := c.prepareRule(rule); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	folder := c.current.FolderByID(folderID)
	if folder == nil {
		return nil, models.ErrFolderNotFound
	}

	rule.ID = uuid.NewString()
	folder.Rules = append(folder.Rules, rule)

	if err := c.save(); err != nil {
		return nil, err
	}
	if err := c.store.EnsureRuleMetadata(rule.ID, folderID, c.clock.Now()); err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"rule":   rule.Name,
		"folder": folder.Path,
	}).Info("Rule added")
	return rule, nil
}

// UpdateRule replaces an existing rule's definition, keeping its
// position in the order.
func (c *Client) UpdateRule(folderID string, rule *models.Rule) error {
	if rule.ID == "" {
		return models.ErrRuleNotFound
	}
	if err := c.prepareRule(rule); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	folder := c.current.FolderByID(folderID)
	if folder == nil {
		return models.ErrFolderNotFound
	}

	for i, existing := range folder.Rules {
		if existing.ID == rule.ID {
			folder.Rules[i] = rule
			return c.save()
		}
	}
	return models.ErrRuleNotFound
}

// DeleteRule removes a rule and its metadata.
func (c *Client) DeleteRule(folderID, ruleID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	folder := c.current.FolderByID(folderID)
	if folder == nil {
		return models.ErrFolderNotFound
	}

	found := false
	kept := folder.Rules[:0]
	for _, rule := range folder.Rules {
		if rule.ID == ruleID {
			found = true
			continue
		}
		kept = append(kept, rule)
	}
	if !found {
		return models.ErrRuleNotFound
	}
	folder.Rules = kept

	if err := c.save(); err != nil {
		return err
	}
	return c.store.DeleteRuleMetadata(ruleID)
}

// ReorderRules rearranges a folder's rules. orderedIDs must be a
// permutation of the folder's current rule ids.
func (c *Client) ReorderRules(folderID string, orderedIDs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	folder := c.current.FolderByID(folderID)
	if folder == nil {
		return models.ErrFolderNotFound
	}
	if len(orderedIDs) != len(folder.Rules) {
		return fmt.Errorf("reorder needs all %d rule ids, got %d", len(folder.Rules), len(orderedIDs))
	}

	reordered := make([]*models.Rule, 0, len(folder.Rules))
	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if seen[id] {
			return fmt.Errorf("duplicate rule id: %s", id)
		}
		seen[id] = true

		rule := folder.RuleByID(id)
		if rule == nil {
			return models.ErrRuleNotFound
		}
		reordered = append(reordered, rule)
	}
	folder.Rules = reordered

	return c.save()
}

// RuleStats reports per-rule execution counts for the past week.
func (c *Client) RuleStats(folderID string) ([]*models.RuleStats, error) {
	c.mu.Lock()
	folder := c.current.FolderByID(folderID)
	c.mu.Unlock()
	if folder == nil {
		return nil, models.ErrFolderNotFound
	}

	since := c.clock.Now().Add(-7 * 24 * time.Hour)
	return c.store.RuleStats(folderID, since)
}

// prepareRule validates a rule definition and rebuilds its condition
// tree from the text form.
func (c *Client) prepareRule(rule *models.Rule) error {
	if rule.Name == "" {
		return fmt.Errorf("rule name is required")
	}

	cond, err := condition.Parse(rule.ConditionText)
	if err != nil {
		return err
	}
	// A regex that parses but does not compile would otherwise sit in the
	// tree silently matching nothing.
	if err := condition.ValidateTree(cond); err != nil {
		return err
	}
	rule.Condition = cond

	return rule.Action.Validate()
}
