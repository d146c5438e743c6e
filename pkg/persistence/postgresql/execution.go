package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/chantierpro/automation/pkg/models"
	"github.com/chantierpro/automation/pkg/persistence"
)

const executionColumns = `id, rule_id, event, contexte, status, results, error_message, started_at, completed_at`

// ExecutionRepository handles execution-related database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

// Create stores a new execution in the running state.
func (er *ExecutionRepository) Create(ctx context.Context, execution *models.WorkflowExecution) error {
	contextJSON, err := json.Marshal(execution.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal context snapshot: %w", err)
	}

	execution.Status = models.ExecutionStatusRunning
	if execution.Results == nil {
		execution.Results = []models.ActionResult{}
	}

	_, err = er.db.ExecContext(ctx, `
		INSERT INTO workflow_executions (id, rule_id, event, contexte, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		execution.ID,
		execution.RuleID,
		string(execution.Event),
		contextJSON,
		string(execution.Status),
		execution.StartedAt,
	)
	if err != nil {
		return persistence.NewExecutionError("Create", execution.ID, err)
	}

	return nil
}

// Complete moves a running execution to its terminal status. The status guard
// in the WHERE clause makes the transition happen at most once.
func (er *ExecutionRepository) Complete(ctx context.Context, execution *models.WorkflowExecution) error {
	results := execution.Results
	if results == nil {
		results = []models.ActionResult{}
	}

	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	result, err := er.db.ExecContext(ctx, `
		UPDATE workflow_executions
		SET status = $2, results = $3, error_message = $4, completed_at = $5
		WHERE id = $1 AND status = 'running'
	`,
		execution.ID,
		string(execution.Status),
		resultsJSON,
		execution.ErrorMessage,
		execution.CompletedAt,
	)
	if err != nil {
		return persistence.NewExecutionError("Complete", execution.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 1 {
		return nil
	}

	// Distinguish a missing row from one that already left the running state.
	_, err = er.GetByID(ctx, execution.ID)
	if err != nil {
		return err
	}

	return persistence.NewExecutionError("Complete", execution.ID, persistence.ErrExecutionAlreadyCompleted)
}

// GetByID retrieves an execution by its ID.
func (er *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	row := er.db.QueryRowContext(ctx, "SELECT "+executionColumns+" FROM workflow_executions WHERE id = $1", id)

	execution, err := scanExecution(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("GetByID", id, err)
	}

	return execution, nil
}

// List returns executions matching opts, newest first.
func (er *ExecutionRepository) List(ctx context.Context, opts persistence.ListExecutionsOptions) ([]*models.WorkflowExecution, error) {
	var (
		where []string
		args  []any
	)

	if opts.RuleID != "" {
		args = append(args, opts.RuleID)
		where = append(where, "rule_id = $"+strconv.Itoa(len(args)))
	}

	if opts.Status != nil {
		args = append(args, string(*opts.Status))
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}

	query := "SELECT " + executionColumns + " FROM workflow_executions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	query += " ORDER BY started_at DESC"

	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	return er.query(ctx, query, args...)
}

// ListStale returns running executions started before cutoff.
func (er *ExecutionRepository) ListStale(ctx context.Context, cutoff time.Time) ([]*models.WorkflowExecution, error) {
	return er.query(ctx,
		"SELECT "+executionColumns+" FROM workflow_executions WHERE status = 'running' AND started_at < $1 ORDER BY started_at ASC",
		cutoff,
	)
}

func (er *ExecutionRepository) query(ctx context.Context, query string, args ...any) ([]*models.WorkflowExecution, error) {
	rows, err := er.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer closeRows(ctx, er.logger, rows)

	var executions []*models.WorkflowExecution

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, nil
}

func scanExecution(scanner interface{ Scan(dest ...any) error }) (*models.WorkflowExecution, error) {
	var (
		execution                models.WorkflowExecution
		event, status            string
		contextJSON, resultsJSON []byte
		errorMessage             sql.NullString
		completedAt              sql.NullTime
	)

	err := scanner.Scan(
		&execution.ID,
		&execution.RuleID,
		&event,
		&contextJSON,
		&status,
		&resultsJSON,
		&errorMessage,
		&execution.StartedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	execution.Event = models.EventName(event)
	execution.Status = models.ExecutionStatus(status)

	if errorMessage.Valid {
		execution.ErrorMessage = &errorMessage.String
	}

	if completedAt.Valid {
		execution.CompletedAt = &completedAt.Time
	}

	if contextJSON != nil {
		err := json.Unmarshal(contextJSON, &execution.Context)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal context snapshot: %w", err)
		}
	}

	execution.Results = []models.ActionResult{}

	if resultsJSON != nil {
		err := json.Unmarshal(resultsJSON, &execution.Results)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal results: %w", err)
		}
	}

	return &execution, nil
}
