package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Workflow rules, administered outside the dispatcher
			CREATE TABLE workflow_rules (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				event VARCHAR(50) NOT NULL,
				active BOOLEAN NOT NULL DEFAULT false,
				conditions JSONB NOT NULL DEFAULT '{}',
				actions JSONB NOT NULL DEFAULT '[]',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflow_rules_event_active ON workflow_rules(event, active);
			CREATE INDEX idx_workflow_rules_created_at ON workflow_rules(created_at);

			-- One row per rule match attempt
			CREATE TABLE workflow_executions (
				id VARCHAR(255) PRIMARY KEY,
				rule_id VARCHAR(255) NOT NULL REFERENCES workflow_rules(id),
				event VARCHAR(50) NOT NULL,
				contexte JSONB NOT NULL DEFAULT '{}',
				status VARCHAR(20) NOT NULL CHECK (status IN ('running', 'success', 'error')),
				results JSONB NOT NULL DEFAULT '[]',
				error_message TEXT,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflow_executions_rule_id ON workflow_executions(rule_id);
			CREATE INDEX idx_workflow_executions_status ON workflow_executions(status);
			CREATE INDEX idx_workflow_executions_started_at ON workflow_executions(started_at);
		`,
		2: `
			-- CRM records written by automation actions
			CREATE TABLE IF NOT EXISTS opportunities (
				id VARCHAR(255) PRIMARY KEY,
				priority VARCHAR(50) NOT NULL DEFAULT 'MOYENNE',
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS clients (
				id VARCHAR(255) PRIMARY KEY,
				assigned_salesperson_id VARCHAR(255),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE TABLE tasks (
				id VARCHAR(255) PRIMARY KEY,
				title VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				due_date TIMESTAMP WITH TIME ZONE NOT NULL,
				priority VARCHAR(50) NOT NULL,
				assignee_id VARCHAR(255),
				opportunity_id VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_tasks_assignee_id ON tasks(assignee_id);
			CREATE INDEX idx_tasks_due_date ON tasks(due_date);

			CREATE TABLE reminders (
				id VARCHAR(255) PRIMARY KEY,
				opportunity_id VARCHAR(255),
				due_date TIMESTAMP WITH TIME ZONE NOT NULL,
				subject VARCHAR(255) NOT NULL,
				message TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_reminders_opportunity_id ON reminders(opportunity_id);
			CREATE INDEX idx_reminders_due_date ON reminders(due_date);
		`,
	}
}
