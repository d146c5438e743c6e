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

const ruleColumns = `id, name, description, event, active, conditions, actions, created_at, updated_at`

// RuleRepository handles rule-related database operations.
type RuleRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRuleRepository creates a new rule repository.
func NewRuleRepository(db *sql.DB, logger *slog.Logger) *RuleRepository {
	return &RuleRepository{db: db, logger: logger}
}

// ActiveRulesByEvent returns active rules for event ordered by creation time, then id.
func (r *RuleRepository) ActiveRulesByEvent(ctx context.Context, event models.EventName) ([]*models.WorkflowRule, error) {
	active := true

	return r.List(ctx, persistence.ListRulesOptions{Event: &event, Active: &active})
}

// List returns rules matching opts ordered by creation time, then id.
func (r *RuleRepository) List(ctx context.Context, opts persistence.ListRulesOptions) ([]*models.WorkflowRule, error) {
	var (
		where []string
		args  []any
	)

	if opts.Event != nil {
		args = append(args, string(*opts.Event))
		where = append(where, "event = $"+strconv.Itoa(len(args)))
	}

	if opts.Active != nil {
		args = append(args, *opts.Active)
		where = append(where, "active = $"+strconv.Itoa(len(args)))
	}

	query := "SELECT " + ruleColumns + " FROM workflow_rules"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	query += " ORDER BY created_at ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	var rules []*models.WorkflowRule

	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}

		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	return rules, nil
}

// GetByID retrieves a rule by its ID.
func (r *RuleRepository) GetByID(ctx context.Context, id string) (*models.WorkflowRule, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+ruleColumns+" FROM workflow_rules WHERE id = $1", id)

	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRuleError("GetByID", id, persistence.ErrRuleNotFound)
		}

		return nil, persistence.NewRuleError("GetByID", id, err)
	}

	return rule, nil
}

// Save inserts or updates a rule.
func (r *RuleRepository) Save(ctx context.Context, rule *models.WorkflowRule) error {
	conditionsJSON, err := json.Marshal(nonNilMap(rule.Conditions))
	if err != nil {
		return fmt.Errorf("failed to marshal conditions: %w", err)
	}

	actions := rule.Actions
	if actions == nil {
		actions = []models.ActionDocument{}
	}

	actionsJSON, err := json.Marshal(actions)
	if err != nil {
		return fmt.Errorf("failed to marshal actions: %w", err)
	}

	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}

	rule.UpdatedAt = now

	query := `
		INSERT INTO workflow_rules (` + ruleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			event = EXCLUDED.event,
			active = EXCLUDED.active,
			conditions = EXCLUDED.conditions,
			actions = EXCLUDED.actions,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		rule.ID,
		rule.Name,
		rule.Description,
		string(rule.Event),
		rule.Active,
		conditionsJSON,
		actionsJSON,
		rule.CreatedAt,
		rule.UpdatedAt,
	)
	if err != nil {
		return persistence.NewRuleError("Save", rule.ID, err)
	}

	return nil
}

// SetActive toggles the active flag of a rule.
func (r *RuleRepository) SetActive(ctx context.Context, id string, active bool) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE workflow_rules SET active = $2, updated_at = $3 WHERE id = $1",
		id, active, time.Now().UTC(),
	)
	if err != nil {
		return persistence.NewRuleError("SetActive", id, err)
	}

	return expectOneRow(result, persistence.NewRuleError("SetActive", id, persistence.ErrRuleNotFound))
}

func scanRule(scanner interface{ Scan(dest ...any) error }) (*models.WorkflowRule, error) {
	var (
		rule                        models.WorkflowRule
		event                       string
		conditionsJSON, actionsJSON []byte
	)

	err := scanner.Scan(
		&rule.ID,
		&rule.Name,
		&rule.Description,
		&event,
		&rule.Active,
		&conditionsJSON,
		&actionsJSON,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.Event = models.EventName(event)

	if conditionsJSON != nil {
		err := json.Unmarshal(conditionsJSON, &rule.Conditions)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal conditions: %w", err)
		}
	}

	if actionsJSON != nil {
		err := json.Unmarshal(actionsJSON, &rule.Actions)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal actions: %w", err)
		}
	}

	return &rule, nil
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}

	return m
}

func expectOneRow(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return notFound
	}

	return nil
}
