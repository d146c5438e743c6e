// Package persistence provides the data storage abstraction for workflow rules,
// executions and the CRM records the automation writes to.
package persistence

import (
	"context"
	"time"

	"github.com/chantierpro/automation/pkg/models"
)

// Persistence groups the repositories used by the automation service.
type Persistence interface {
	RuleRepository() RuleRepository
	ExecutionRepository() ExecutionRepository
	TaskRepository() TaskRepository
	ReminderRepository() ReminderRepository
	OpportunityRepository() OpportunityRepository
	ClientRepository() ClientRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// RuleRepository stores workflow rules.
type RuleRepository interface {
	// ActiveRulesByEvent returns active rules for event ordered by creation time, then id.
	ActiveRulesByEvent(ctx context.Context, event models.EventName) ([]*models.WorkflowRule, error)
	List(ctx context.Context, opts ListRulesOptions) ([]*models.WorkflowRule, error)
	GetByID(ctx context.Context, id string) (*models.WorkflowRule, error)
	Save(ctx context.Context, rule *models.WorkflowRule) error
	SetActive(ctx context.Context, id string, active bool) error
}

// ListRulesOptions filters rule listings. Nil fields do not filter.
type ListRulesOptions struct {
	Event  *models.EventName
	Active *bool
}

// ExecutionRepository stores workflow executions.
type ExecutionRepository interface {
	// Create stores a new execution in the running state.
	Create(ctx context.Context, execution *models.WorkflowExecution) error
	// Complete moves a running execution to a terminal status. It fails with
	// ErrExecutionAlreadyCompleted when the execution is no longer running.
	Complete(ctx context.Context, execution *models.WorkflowExecution) error
	GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error)
	List(ctx context.Context, opts ListExecutionsOptions) ([]*models.WorkflowExecution, error)
	// ListStale returns running executions started before cutoff.
	ListStale(ctx context.Context, cutoff time.Time) ([]*models.WorkflowExecution, error)
}

// ListExecutionsOptions filters execution listings, newest first.
type ListExecutionsOptions struct {
	RuleID string
	Status *models.ExecutionStatus
	Limit  int
}

// TaskRepository stores tasks created by automation.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id string) (*models.Task, error)
}

// ReminderRepository stores follow-up reminders.
type ReminderRepository interface {
	Create(ctx context.Context, reminder *models.Reminder) error
	GetByID(ctx context.Context, id string) (*models.Reminder, error)
}

// OpportunityRepository updates CRM opportunities.
type OpportunityRepository interface {
	UpdatePriority(ctx context.Context, opportunityID, priority string) error
	GetByID(ctx context.Context, id string) (*models.Opportunity, error)
}

// ClientRepository updates CRM clients.
type ClientRepository interface {
	UpdateAssignedSalesperson(ctx context.Context, clientID, salespersonID string) error
	GetByID(ctx context.Context, id string) (*models.Client, error)
}
