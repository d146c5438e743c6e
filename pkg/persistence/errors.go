// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrRuleNotFound indicates a rule was not found by the given identifier.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrExecutionNotFound indicates an execution was not found.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrExecutionAlreadyCompleted indicates an execution already left the running state.
	ErrExecutionAlreadyCompleted = errors.New("execution already completed")

	// ErrTaskNotFound indicates a task was not found.
	ErrTaskNotFound = errors.New("task not found")

	// ErrReminderNotFound indicates a reminder was not found.
	ErrReminderNotFound = errors.New("reminder not found")

	// ErrOpportunityNotFound indicates the referenced opportunity does not exist.
	ErrOpportunityNotFound = errors.New("opportunity not found")

	// ErrClientNotFound indicates the referenced client does not exist.
	ErrClientNotFound = errors.New("client not found")

	// ErrInvalidID indicates an identifier that cannot be stored safely.
	ErrInvalidID = errors.New("invalid identifier")
)

// RecordError wraps record-related errors with additional context.
type RecordError struct {
	Op   string // Operation being performed (e.g., "GetByID", "Save")
	Kind string // Record kind (rule, execution, task...)
	ID   string // Record ID if applicable
	Err  error  // Underlying error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s operation failed for %s %s: %v", e.Op, e.Kind, e.ID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for record errors.
func (e *RecordError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewRuleError creates a new rule error with context.
func NewRuleError(op, ruleID string, err error) *RecordError {
	return &RecordError{Op: op, Kind: "rule", ID: ruleID, Err: err}
}

// NewExecutionError creates a new execution error with context.
func NewExecutionError(op, executionID string, err error) *RecordError {
	return &RecordError{Op: op, Kind: "execution", ID: executionID, Err: err}
}

// NewRecordError creates an error for any other record kind.
func NewRecordError(op, kind, id string, err error) *RecordError {
	return &RecordError{Op: op, Kind: kind, ID: id, Err: err}
}

// IsRuleNotFound checks if an error indicates a rule was not found.
func IsRuleNotFound(err error) bool {
	return errors.Is(err, ErrRuleNotFound)
}

// IsExecutionNotFound checks if an error indicates an execution was not found.
func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

// IsNotFound checks if an error indicates any missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRuleNotFound) ||
		errors.Is(err, ErrExecutionNotFound) ||
		errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrReminderNotFound) ||
		errors.Is(err, ErrOpportunityNotFound) ||
		errors.Is(err, ErrClientNotFound)
}
