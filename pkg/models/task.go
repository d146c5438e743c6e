package models

import "time"

// Task is a to-do item created for a salesperson.
type Task struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	DueDate       time.Time `json:"due_date"`
	Priority      string    `json:"priority"`
	AssigneeID    string    `json:"assignee_id,omitempty"`
	OpportunityID string    `json:"opportunity_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Reminder is a follow-up due on an opportunity.
type Reminder struct {
	ID            string    `json:"id"`
	OpportunityID string    `json:"opportunity_id,omitempty"`
	DueDate       time.Time `json:"due_date"`
	Subject       string    `json:"subject"`
	Message       string    `json:"message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Opportunity is the subset of a CRM opportunity the automation writes to.
type Opportunity struct {
	ID        string    `json:"id"`
	Priority  string    `json:"priority"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Client is the subset of a CRM client the automation writes to.
type Client struct {
	ID                    string    `json:"id"`
	AssignedSalespersonID string    `json:"assigned_salesperson_id,omitempty"`
	UpdatedAt             time.Time `json:"updated_at"`
}
