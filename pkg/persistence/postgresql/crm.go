package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/chantierpro/automation/pkg/models"
	"github.com/chantierpro/automation/pkg/persistence"
)

// TaskRepository handles task database operations.
type TaskRepository struct {
	db *sql.DB
}

func (tr *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	_, err := tr.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, due_date, priority, assignee_id, opportunity_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8)
	`,
		task.ID, task.Title, task.Description, task.DueDate, task.Priority,
		task.AssigneeID, task.OpportunityID, task.CreatedAt,
	)
	if err != nil {
		return persistence.NewRecordError("Create", "task", task.ID, err)
	}

	return nil
}

func (tr *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task

	err := tr.db.QueryRowContext(ctx, `
		SELECT id, title, description, due_date, priority,
			COALESCE(assignee_id, ''), COALESCE(opportunity_id, ''), created_at
		FROM tasks WHERE id = $1
	`, id).Scan(
		&task.ID, &task.Title, &task.Description, &task.DueDate, &task.Priority,
		&task.AssigneeID, &task.OpportunityID, &task.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRecordError("GetByID", "task", id, persistence.ErrTaskNotFound)
		}

		return nil, persistence.NewRecordError("GetByID", "task", id, err)
	}

	return &task, nil
}

// ReminderRepository handles reminder database operations.
type ReminderRepository struct {
	db *sql.DB
}

func (rr *ReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	_, err := rr.db.ExecContext(ctx, `
		INSERT INTO reminders (id, opportunity_id, due_date, subject, message, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6)
	`,
		reminder.ID, reminder.OpportunityID, reminder.DueDate,
		reminder.Subject, reminder.Message, reminder.CreatedAt,
	)
	if err != nil {
		return persistence.NewRecordError("Create", "reminder", reminder.ID, err)
	}

	return nil
}

func (rr *ReminderRepository) GetByID(ctx context.Context, id string) (*models.Reminder, error) {
	var reminder models.Reminder

	err := rr.db.QueryRowContext(ctx, `
		SELECT id, COALESCE(opportunity_id, ''), due_date, subject, message, created_at
		FROM reminders WHERE id = $1
	`, id).Scan(
		&reminder.ID, &reminder.OpportunityID, &reminder.DueDate,
		&reminder.Subject, &reminder.Message, &reminder.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRecordError("GetByID", "reminder", id, persistence.ErrReminderNotFound)
		}

		return nil, persistence.NewRecordError("GetByID", "reminder", id, err)
	}

	return &reminder, nil
}

// OpportunityRepository updates CRM opportunities.
type OpportunityRepository struct {
	db *sql.DB
}

// Save upserts an opportunity as the CRM would.
func (opr *OpportunityRepository) Save(ctx context.Context, opportunity *models.Opportunity) error {
	_, err := opr.db.ExecContext(ctx, `
		INSERT INTO opportunities (id, priority, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET priority = EXCLUDED.priority, updated_at = EXCLUDED.updated_at
	`, opportunity.ID, opportunity.Priority, time.Now().UTC())
	if err != nil {
		return persistence.NewRecordError("Save", "opportunity", opportunity.ID, err)
	}

	return nil
}

func (opr *OpportunityRepository) UpdatePriority(ctx context.Context, opportunityID, priority string) error {
	result, err := opr.db.ExecContext(ctx,
		"UPDATE opportunities SET priority = $2, updated_at = $3 WHERE id = $1",
		opportunityID, priority, time.Now().UTC(),
	)
	if err != nil {
		return persistence.NewRecordError("UpdatePriority", "opportunity", opportunityID, err)
	}

	return expectOneRow(result,
		persistence.NewRecordError("UpdatePriority", "opportunity", opportunityID, persistence.ErrOpportunityNotFound))
}

func (opr *OpportunityRepository) GetByID(ctx context.Context, id string) (*models.Opportunity, error) {
	var opportunity models.Opportunity

	err := opr.db.QueryRowContext(ctx,
		"SELECT id, priority, updated_at FROM opportunities WHERE id = $1", id,
	).Scan(&opportunity.ID, &opportunity.Priority, &opportunity.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRecordError("GetByID", "opportunity", id, persistence.ErrOpportunityNotFound)
		}

		return nil, persistence.NewRecordError("GetByID", "opportunity", id, err)
	}

	return &opportunity, nil
}

// ClientRepository updates CRM clients.
type ClientRepository struct {
	db *sql.DB
}

// Save upserts a client as the CRM would.
func (cr *ClientRepository) Save(ctx context.Context, client *models.Client) error {
	_, err := cr.db.ExecContext(ctx, `
		INSERT INTO clients (id, assigned_salesperson_id, updated_at) VALUES ($1, NULLIF($2, ''), $3)
		ON CONFLICT (id) DO UPDATE SET
			assigned_salesperson_id = EXCLUDED.assigned_salesperson_id,
			updated_at = EXCLUDED.updated_at
	`, client.ID, client.AssignedSalespersonID, time.Now().UTC())
	if err != nil {
		return persistence.NewRecordError("Save", "client", client.ID, err)
	}

	return nil
}

func (cr *ClientRepository) UpdateAssignedSalesperson(ctx context.Context, clientID, salespersonID string) error {
	result, err := cr.db.ExecContext(ctx,
		"UPDATE clients SET assigned_salesperson_id = $2, updated_at = $3 WHERE id = $1",
		clientID, salespersonID, time.Now().UTC(),
	)
	if err != nil {
		return persistence.NewRecordError("UpdateAssignedSalesperson", "client", clientID, err)
	}

	return expectOneRow(result,
		persistence.NewRecordError("UpdateAssignedSalesperson", "client", clientID, persistence.ErrClientNotFound))
}

func (cr *ClientRepository) GetByID(ctx context.Context, id string) (*models.Client, error) {
	var client models.Client

	err := cr.db.QueryRowContext(ctx,
		"SELECT id, COALESCE(assigned_salesperson_id, ''), updated_at FROM clients WHERE id = $1", id,
	).Scan(&client.ID, &client.AssignedSalespersonID, &client.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewRecordError("GetByID", "client", id, persistence.ErrClientNotFound)
		}

		return nil, persistence.NewRecordError("GetByID", "client", id, err)
	}

	return &client, nil
}
