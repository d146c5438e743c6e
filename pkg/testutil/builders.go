// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/chantierpro/automation/pkg/models"
	"github.com/google/uuid"
)

// CreateTestRule creates an active WorkflowRule with default values that can be overridden.
func CreateTestRule(overrides ...func(*models.WorkflowRule)) *models.WorkflowRule {
	rule := &models.WorkflowRule{
		ID:         uuid.New().String(),
		Name:       "Test Rule",
		Event:      models.EventStatusChange,
		Active:     true,
		Conditions: map[string]any{},
		Actions: []models.ActionDocument{
			{Type: models.ActionCreateTask, Parameters: map[string]any{"title": "Test task"}},
		},
	}

	for _, override := range overrides {
		override(rule)
	}

	return rule
}

// WithEvent sets the event the rule listens to.
func WithEvent(event models.EventName) func(*models.WorkflowRule) {
	return func(r *models.WorkflowRule) {
		r.Event = event
	}
}

// WithConditions replaces the condition document.
func WithConditions(conditions map[string]any) func(*models.WorkflowRule) {
	return func(r *models.WorkflowRule) {
		r.Conditions = conditions
	}
}

// WithActions replaces the action list.
func WithActions(actions ...models.ActionDocument) func(*models.WorkflowRule) {
	return func(r *models.WorkflowRule) {
		r.Actions = actions
	}
}

// CreateTestExecution creates a running WorkflowExecution with default values that can be overridden.
func CreateTestExecution(overrides ...func(*models.WorkflowExecution)) *models.WorkflowExecution {
	execution := &models.WorkflowExecution{
		ID:        uuid.New().String(),
		RuleID:    "rule-1",
		Event:     models.EventStatusChange,
		Context:   models.EventContext{EntityID: "opp-1"},
		Status:    models.ExecutionStatusRunning,
		Results:   []models.ActionResult{},
		StartedAt: time.Now().UTC(),
	}

	for _, override := range overrides {
		override(execution)
	}

	return execution
}

// StartedAt sets the start time of the execution.
func StartedAt(t time.Time) func(*models.WorkflowExecution) {
	return func(e *models.WorkflowExecution) {
		e.StartedAt = t
	}
}

// ForRule sets the rule the execution belongs to.
func ForRule(ruleID string) func(*models.WorkflowExecution) {
	return func(e *models.WorkflowExecution) {
		e.RuleID = ruleID
	}
}

// Completed moves the execution to status at completedAt.
func Completed(status models.ExecutionStatus, completedAt time.Time) func(*models.WorkflowExecution) {
	return func(e *models.WorkflowExecution) {
		e.Status = status
		e.CompletedAt = &completedAt
	}
}
