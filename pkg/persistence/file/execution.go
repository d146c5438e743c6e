package file

import (
	"context"
	"sort"
	"time"

	"github.com/chantierpro/automation/pkg/models"
	"github.com/chantierpro/automation/pkg/persistence"
)

// ExecutionRepository handles execution-related file operations.
type ExecutionRepository struct {
	store *store
}

// Create stores a new execution in the running state.
func (er *ExecutionRepository) Create(_ context.Context, execution *models.WorkflowExecution) error {
	er.store.mu.Lock()
	defer er.store.mu.Unlock()

	execution.Status = models.ExecutionStatusRunning
	if execution.Results == nil {
		execution.Results = []models.ActionResult{}
	}

	err := write(er.store, executionsDir, execution.ID, execution)
	if err != nil {
		return persistence.NewExecutionError("Create", execution.ID, err)
	}

	return nil
}

// Complete moves a running execution to its terminal status.
func (er *ExecutionRepository) Complete(_ context.Context, execution *models.WorkflowExecution) error {
	er.store.mu.Lock()
	defer er.store.mu.Unlock()

	stored, found, err := read[models.WorkflowExecution](er.store, executionsDir, execution.ID)
	if err != nil {
		return persistence.NewExecutionError("Complete", execution.ID, err)
	}

	if !found {
		return persistence.NewExecutionError("Complete", execution.ID, persistence.ErrExecutionNotFound)
	}

	if stored.Status != models.ExecutionStatusRunning {
		return persistence.NewExecutionError("Complete", execution.ID, persistence.ErrExecutionAlreadyCompleted)
	}

	stored.Status = execution.Status
	stored.Results = execution.Results
	stored.ErrorMessage = execution.ErrorMessage
	stored.CompletedAt = execution.CompletedAt

	err = write(er.store, executionsDir, execution.ID, stored)
	if err != nil {
		return persistence.NewExecutionError("Complete", execution.ID, err)
	}

	return nil
}

// GetByID retrieves an execution by its ID.
func (er *ExecutionRepository) GetByID(_ context.Context, id string) (*models.WorkflowExecution, error) {
	er.store.mu.RLock()
	defer er.store.mu.RUnlock()

	execution, found, err := read[models.WorkflowExecution](er.store, executionsDir, id)
	if err != nil {
		return nil, persistence.NewExecutionError("GetByID", id, err)
	}

	if !found {
		return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrExecutionNotFound)
	}

	return execution, nil
}

// List returns executions matching opts, newest first.
func (er *ExecutionRepository) List(_ context.Context, opts persistence.ListExecutionsOptions) ([]*models.WorkflowExecution, error) {
	return er.filter(func(e *models.WorkflowExecution) bool {
		if opts.RuleID != "" && e.RuleID != opts.RuleID {
			return false
		}

		return opts.Status == nil || e.Status == *opts.Status
	}, opts.Limit)
}

// ListStale returns running executions started before cutoff.
func (er *ExecutionRepository) ListStale(_ context.Context, cutoff time.Time) ([]*models.WorkflowExecution, error) {
	return er.filter(func(e *models.WorkflowExecution) bool {
		return e.Status == models.ExecutionStatusRunning && e.StartedAt.Before(cutoff)
	}, 0)
}

func (er *ExecutionRepository) filter(keep func(*models.WorkflowExecution) bool, limit int) ([]*models.WorkflowExecution, error) {
	er.store.mu.RLock()
	defer er.store.mu.RUnlock()

	all, err := list[models.WorkflowExecution](er.store, executionsDir)
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.WorkflowExecution, 0, len(all))

	for _, execution := range all {
		if keep(execution) {
			filtered = append(filtered, execution)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].StartedAt.After(filtered[j].StartedAt)
	})

	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}

	return filtered, nil
}
