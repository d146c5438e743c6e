package file

import (
	"context"
	"time"

	"github.com/chantierpro/automation/pkg/models"
	"github.com/chantierpro/automation/pkg/persistence"
)

// TaskRepository handles task file operations.
type TaskRepository struct {
	store *store
}

func (tr *TaskRepository) Create(_ context.Context, task *models.Task) error {
	tr.store.mu.Lock()
	defer tr.store.mu.Unlock()

	err := write(tr.store, tasksDir, task.ID, task)
	if err != nil {
		return persistence.NewRecordError("Create", "task", task.ID, err)
	}

	return nil
}

func (tr *TaskRepository) GetByID(_ context.Context, id string) (*models.Task, error) {
	tr.store.mu.RLock()
	defer tr.store.mu.RUnlock()

	task, found, err := read[models.Task](tr.store, tasksDir, id)
	if err != nil {
		return nil, persistence.NewRecordError("GetByID", "task", id, err)
	}

	if !found {
		return nil, persistence.NewRecordError("GetByID", "task", id, persistence.ErrTaskNotFound)
	}

	return task, nil
}

// ReminderRepository handles reminder file operations.
type ReminderRepository struct {
	store *store
}

func (rr *ReminderRepository) Create(_ context.Context, reminder *models.Reminder) error {
	rr.store.mu.Lock()
	defer rr.store.mu.Unlock()

	err := write(rr.store, remindersDir, reminder.ID, reminder)
	if err != nil {
		return persistence.NewRecordError("Create", "reminder", reminder.ID, err)
	}

	return nil
}

func (rr *ReminderRepository) GetByID(_ context.Context, id string) (*models.Reminder, error) {
	rr.store.mu.RLock()
	defer rr.store.mu.RUnlock()

	reminder, found, err := read[models.Reminder](rr.store, remindersDir, id)
	if err != nil {
		return nil, persistence.NewRecordError("GetByID", "reminder", id, err)
	}

	if !found {
		return nil, persistence.NewRecordError("GetByID", "reminder", id, persistence.ErrReminderNotFound)
	}

	return reminder, nil
}

// OpportunityRepository handles opportunity file operations. Opportunities
// belong to the CRM; automation only changes their priority.
type OpportunityRepository struct {
	store *store
}

// Save stores an opportunity as the CRM would.
func (opr *OpportunityRepository) Save(_ context.Context, opportunity *models.Opportunity) error {
	opr.store.mu.Lock()
	defer opr.store.mu.Unlock()

	return write(opr.store, opportunitiesDir, opportunity.ID, opportunity)
}

func (opr *OpportunityRepository) UpdatePriority(_ context.Context, opportunityID, priority string) error {
	opr.store.mu.Lock()
	defer opr.store.mu.Unlock()

	opportunity, found, err := read[models.Opportunity](opr.store, opportunitiesDir, opportunityID)
	if err != nil {
		return persistence.NewRecordError("UpdatePriority", "opportunity", opportunityID, err)
	}

	if !found {
		return persistence.NewRecordError("UpdatePriority", "opportunity", opportunityID, persistence.ErrOpportunityNotFound)
	}

	opportunity.Priority = priority
	opportunity.UpdatedAt = time.Now().UTC()

	return write(opr.store, opportunitiesDir, opportunityID, opportunity)
}

func (opr *OpportunityRepository) GetByID(_ context.Context, id string) (*models.Opportunity, error) {
	opr.store.mu.RLock()
	defer opr.store.mu.RUnlock()

	opportunity, found, err := read[models.Opportunity](opr.store, opportunitiesDir, id)
	if err != nil {
		return nil, persistence.NewRecordError("GetByID", "opportunity", id, err)
	}

	if !found {
		return nil, persistence.NewRecordError("GetByID", "opportunity", id, persistence.ErrOpportunityNotFound)
	}

	return opportunity, nil
}

// ClientRepository handles client file operations.
type ClientRepository struct {
	store *store
}

// Save stores a client as the CRM would.
func (cr *ClientRepository) Save(_ context.Context, client *models.Client) error {
	cr.store.mu.Lock()
	defer cr.store.mu.Unlock()

	return write(cr.store, clientsDir, client.ID, client)
}

func (cr *ClientRepository) UpdateAssignedSalesperson(_ context.Context, clientID, salespersonID string) error {
	cr.store.mu.Lock()
	defer cr.store.mu.Unlock()

	client, found, err := read[models.Client](cr.store, clientsDir, clientID)
	if err != nil {
		return persistence.NewRecordError("UpdateAssignedSalesperson", "client", clientID, err)
	}

	if !found {
		return persistence.NewRecordError("UpdateAssignedSalesperson", "client", clientID, persistence.ErrClientNotFound)
	}

	client.AssignedSalespersonID = salespersonID
	client.UpdatedAt = time.Now().UTC()

	return write(cr.store, clientsDir, clientID, client)
}

func (cr *ClientRepository) GetByID(_ context.Context, id string) (*models.Client, error) {
	cr.store.mu.RLock()
	defer cr.store.mu.RUnlock()

	client, found, err := read[models.Client](cr.store, clientsDir, id)
	if err != nil {
		return nil, persistence.NewRecordError("GetByID", "client", id, err)
	}

	if !found {
		return nil, persistence.NewRecordError("GetByID", "client", id, persistence.ErrClientNotFound)
	}

	return client, nil
}
