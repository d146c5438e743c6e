// Package services holds the rule and execution use cases behind the API and CLI.
package services

import (
	"errors"
	"fmt"
)

// Sentinels matched by callers with errors.Is.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInvalidRule    = errors.New("invalid rule")
	ErrInvalidEvent   = errors.New("invalid event")
	ErrInvalidStatus  = errors.New("invalid execution status")
	ErrRuleExists     = errors.New("rule already exists")
)

// ErrorCode is a stable machine-readable reason attached to a ServiceError.
type ErrorCode string

const (
	CodeInvalidJSON     ErrorCode = "invalid_json"
	CodeSchemaViolation ErrorCode = "schema_violation"
	CodeInvalidRule     ErrorCode = "invalid_rule"
	CodeInvalidEvent    ErrorCode = "invalid_event"
	CodeInvalidStatus   ErrorCode = "invalid_status"
	CodeInvalidLimit    ErrorCode = "invalid_limit"
	CodeRuleExists      ErrorCode = "rule_exists"
)

// ServiceError carries the failing operation and a client-facing message
// alongside the underlying sentinel.
type ServiceError struct {
	Op      string
	Code    ErrorCode
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Detail returns the message meant for API clients.
func (e *ServiceError) Detail() string {
	if e.Message != "" {
		return e.Message
	}

	return e.Err.Error()
}

func invalid(op string, code ErrorCode, message string, err error) *ServiceError {
	return &ServiceError{Op: op, Code: code, Message: message, Err: err}
}

func conflict(op string, code ErrorCode, message string) *ServiceError {
	return &ServiceError{Op: op, Code: code, Message: message, Err: ErrRuleExists}
}

// IsValidationError reports whether err was caused by bad client input.
func IsValidationError(err error) bool {
	for _, target := range []error{ErrInvalidRequest, ErrInvalidRule, ErrInvalidEvent, ErrInvalidStatus} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

// IsConflictError reports whether err conflicts with stored state.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrRuleExists)
}
