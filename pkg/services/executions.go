package services

import (
	"context"
	"fmt"

	"github.com/chantierpro/automation/pkg/models"
	"github.com/chantierpro/automation/pkg/persistence"
)

const (
	DefaultExecutionLimit = 50
	MaxExecutionLimit     = 500
)

// Executions reads the audit trail of rule runs.
type Executions struct {
	persistence persistence.Persistence
}

func NewExecutions(p persistence.Persistence) *Executions {
	return &Executions{persistence: p}
}

// ListExecutionsRequest contains options for listing executions.
type ListExecutionsRequest struct {
	RuleID string
	Status string
	Limit  int
}

func (e *Executions) List(ctx context.Context, req ListExecutionsRequest) ([]*models.WorkflowExecution, error) {
	opts := persistence.ListExecutionsOptions{RuleID: req.RuleID, Limit: req.Limit}

	switch {
	case opts.Limit <= 0:
		opts.Limit = DefaultExecutionLimit
	case opts.Limit > MaxExecutionLimit:
		return nil, invalid("executions.List", CodeInvalidLimit, fmt.Sprintf("limit must be at most %d", MaxExecutionLimit), ErrInvalidRequest)
	}

	if req.Status != "" {
		status := models.ExecutionStatus(req.Status)
		if !status.Valid() {
			return nil, invalid("executions.List", CodeInvalidStatus, "unknown execution status "+req.Status, ErrInvalidStatus)
		}

		opts.Status = &status
	}

	executions, err := e.persistence.ExecutionRepository().List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	return executions, nil
}

func (e *Executions) Get(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	execution, err := e.persistence.ExecutionRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}

	return execution, nil
}
