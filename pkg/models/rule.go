package models

import (
	"fmt"
	"time"
)

// WorkflowRule is an administrator-defined trigger/condition/action tuple.
// The dispatcher only reads rules.
type WorkflowRule struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"                  validate:"required,min=3"`
	Description string           `json:"description,omitempty"`
	Event       EventName        `json:"event"                 validate:"required"`
	Active      bool             `json:"active"`
	Conditions  map[string]any   `json:"conditions,omitempty"`
	Actions     []ActionDocument `json:"actions"               validate:"dive"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// CompiledRule is a WorkflowRule whose stored documents were converted into
// typed conditions and action variants.
type CompiledRule struct {
	Rule       *WorkflowRule
	Conditions Conditions
	Actions    []Action
}

// CompileRule validates the stored documents of rule and converts them.
func CompileRule(rule *WorkflowRule) (*CompiledRule, error) {
	if rule == nil {
		return nil, fmt.Errorf("%w: rule is nil", ErrInvalidCondition)
	}

	conditions, err := ParseConditions(rule.Conditions)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", rule.ID, err)
	}

	actions := make([]Action, 0, len(rule.Actions))

	for i, doc := range rule.Actions {
		action, err := ParseAction(doc)
		if err != nil {
			return nil, fmt.Errorf("rule %s: action %d: %w", rule.ID, i, err)
		}

		actions = append(actions, action)
	}

	return &CompiledRule{
		Rule:       rule,
		Conditions: conditions,
		Actions:    actions,
	}, nil
}

// Unsupported returns the tags of actions that will fail at run time.
func (c *CompiledRule) Unsupported() []ActionType {
	var tags []ActionType

	for _, a := range c.Actions {
		if u, ok := a.(UnsupportedAction); ok {
			tags = append(tags, u.Tag)
		}
	}

	return tags
}
