package client

import (
	"github.com/TheMichaelB/dirsort/internal/condition"
	"github.com/TheMichaelB/dirsort/internal/models"
)

// ParseCondition parses condition text into its tree form.
func (c *Client) ParseCondition(text string) (*models.Condition, error) {
	return condition.Parse(text)
}

// SerializeCondition renders a condition tree back to text.
func (c *Client) SerializeCondition(cond *models.Condition) string {
	return condition.Serialize(cond)
}

// ValidateCondition checks condition text without building a tree for
// the caller.
func (c *Client) ValidateCondition(text string) error {
	return condition.Validate(text)
}

// TestCondition evaluates condition text against candidate names and
// returns one verdict per candidate.
func (c *Client) TestCondition(text string, candidates []string) ([]bool, error) {
	cond, err := condition.Parse(text)
	if err != nil {
		return nil, err
	}

	verdicts := make([]bool, len(candidates))
	for i, candidate := range candidates {
		verdicts[i] = condition.Evaluate(cond, candidate)
	}
	return verdicts, nil
}
