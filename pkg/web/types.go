// Package web provides HTTP request and response types for the automation API.
package web

import (
	"time"

	"github.com/chantierpro/automation/pkg/models"
)

// ListRulesQuery holds the query parameters of GET /rules.
type ListRulesQuery struct {
	Event  string `query:"event"  validate:"omitempty,oneof=STATUS_CHANGE CREATION UPDATE ASSIGNMENT TIME_BASED"`
	Active string `query:"active" validate:"omitempty,boolean"`
}

// ListExecutionsQuery holds the query parameters of GET /executions.
type ListExecutionsQuery struct {
	RuleID string `query:"rule_id"`
	Status string `query:"status"  validate:"omitempty,oneof=running success error"`
	Limit  int    `query:"limit"   validate:"omitempty,min=1,max=500"`
}

// DispatchResponse is returned by POST /events/:event.
type DispatchResponse struct {
	Event      models.EventName          `json:"event"`
	Matched    int                       `json:"matched"`
	Executions []models.ExecutionSummary `json:"executions"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	Checkers  map[string]string `json:"checkers"`
	Timestamp time.Time         `json:"timestamp"`
}
