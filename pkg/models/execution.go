package models

import "time"

// ExecutionStatus is the lifecycle state of a WorkflowExecution.
type ExecutionStatus string

const (
	ExecutionStatusRunning ExecutionStatus = "running"
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusError   ExecutionStatus = "error"
)

// Terminal reports whether s is a final state.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionStatusSuccess || s == ExecutionStatusError
}

// Valid reports whether s is a known status.
func (s ExecutionStatus) Valid() bool {
	return s == ExecutionStatusRunning || s.Terminal()
}

// WorkflowExecution records one rule's run for one event occurrence.
// It is created running and updated exactly once to a terminal status.
type WorkflowExecution struct {
	ID           string          `json:"id"`
	RuleID       string          `json:"rule_id"`
	Event        EventName       `json:"event"`
	Context      EventContext    `json:"contexte"`
	Status       ExecutionStatus `json:"status"`
	Results      []ActionResult  `json:"results"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// Result types reported by actions.
const (
	ResultTask       = "task"
	ResultEmail      = "email"
	ResultReminder   = "reminder"
	ResultPriority   = "priority"
	ResultAssignment = "assignment"
)

// ActionResult is the outcome of one action. Only the fields relevant to Type are set.
type ActionResult struct {
	Type          string `json:"type"`
	ID            string `json:"id,omitempty"`
	Recipient     string `json:"recipient,omitempty"`
	Subject       string `json:"subject,omitempty"`
	Status        string `json:"status,omitempty"`
	NewPriority   string `json:"newPriority,omitempty"`
	SalespersonID string `json:"salespersonId,omitempty"`
}

// ExecutionSummary is returned to dispatch callers, one per matched rule.
type ExecutionSummary struct {
	RuleID      string          `json:"rule_id"`
	ExecutionID string          `json:"execution_id,omitempty"`
	Status      ExecutionStatus `json:"status"`
	Error       string          `json:"error,omitempty"`
}
