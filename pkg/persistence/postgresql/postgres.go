// Package postgresql provides PostgreSQL persistence for workflow rules, executions and CRM records.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/chantierpro/automation/pkg/persistence"
	"github.com/chantierpro/automation/pkg/persistence/sqlbase"

	// PostgreSQL driver.
	_ "github.com/lib/pq"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger

	ruleRepo        *RuleRepository
	executionRepo   *ExecutionRepository
	taskRepo        *TaskRepository
	reminderRepo    *ReminderRepository
	opportunityRepo *OpportunityRepository
	clientRepo      *ClientRepository
}

// NewPersistence creates a new PostgreSQL persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	postgres := &Persistence{
		db:              database,
		logger:          logger,
		ruleRepo:        NewRuleRepository(database, logger),
		executionRepo:   NewExecutionRepository(database, logger),
		taskRepo:        &TaskRepository{db: database},
		reminderRepo:    &ReminderRepository{db: database},
		opportunityRepo: &OpportunityRepository{db: database},
		clientRepo:      &ClientRepository{db: database},
	}

	// Run migrations on initialization
	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return postgres, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) RuleRepository() persistence.RuleRepository { return p.ruleRepo }

func (p *Persistence) ExecutionRepository() persistence.ExecutionRepository { return p.executionRepo }

func (p *Persistence) TaskRepository() persistence.TaskRepository { return p.taskRepo }

func (p *Persistence) ReminderRepository() persistence.ReminderRepository { return p.reminderRepo }

func (p *Persistence) OpportunityRepository() persistence.OpportunityRepository {
	return p.opportunityRepo
}

func (p *Persistence) ClientRepository() persistence.ClientRepository { return p.clientRepo }

// closeRows closes rows and logs the failure, if any.
func closeRows(ctx context.Context, logger *slog.Logger, rows *sql.Rows) {
	if closeErr := rows.Close(); closeErr != nil {
		logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
	}
}
