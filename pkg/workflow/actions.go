package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/chantierpro/automation/pkg/email"
	"github.com/chantierpro/automation/pkg/models"
	"github.com/chantierpro/automation/pkg/template"
)

// ResultStatusSkipped marks an action that had nothing to act on.
const ResultStatusSkipped = "skipped"

const day = 24 * time.Hour

// executeAction performs one action against the collaborators.
func (d *Dispatcher) executeAction(ctx context.Context, action models.Action, ectx models.EventContext) (models.ActionResult, error) {
	switch a := action.(type) {
	case models.CreateTask:
		return d.createTask(ctx, a, ectx)
	case models.SendEmail:
		return d.sendEmail(ctx, a, ectx)
	case models.ScheduleReminder:
		return d.scheduleReminder(ctx, a, ectx)
	case models.ChangePriority:
		return d.changePriority(ctx, a, ectx)
	case models.AssignSalesperson:
		return d.assignSalesperson(ctx, a, ectx)
	case models.UnsupportedAction:
		return models.ActionResult{}, fmt.Errorf("%w: %s", ErrUnsupportedAction, a.Tag)
	default:
		return models.ActionResult{}, fmt.Errorf("%w: %s", ErrUnsupportedAction, action.Type())
	}
}

// renderTexts renders each text in place against ectx.
func renderTexts(ectx models.EventContext, now time.Time, texts ...*string) error {
	for _, text := range texts {
		rendered, err := template.RenderContext(*text, ectx, now)
		if err != nil {
			return err
		}

		*text = rendered
	}

	return nil
}

func (d *Dispatcher) createTask(ctx context.Context, a models.CreateTask, ectx models.EventContext) (models.ActionResult, error) {
	now := d.now()

	err := renderTexts(ectx, now, &a.Title, &a.Description)
	if err != nil {
		return models.ActionResult{}, err
	}

	assignee := a.AssigneeID
	if assignee == "" {
		assignee = ectx.UserID
	}

	task := &models.Task{
		ID:            d.newID(),
		Title:         a.Title,
		Description:   a.Description,
		DueDate:       now.Add(time.Duration(a.DelayDays) * day),
		Priority:      a.Priority,
		AssigneeID:    assignee,
		OpportunityID: ectx.OpportunityRef(),
		CreatedAt:     now,
	}

	err = d.persistence.TaskRepository().Create(ctx, task)
	if err != nil {
		return models.ActionResult{}, fmt.Errorf("failed to create task: %w", err)
	}

	return models.ActionResult{Type: models.ResultTask, ID: task.ID}, nil
}

func (d *Dispatcher) sendEmail(ctx context.Context, a models.SendEmail, ectx models.EventContext) (models.ActionResult, error) {
	err := renderTexts(ectx, d.now(), &a.Subject)
	if err != nil {
		return models.ActionResult{}, err
	}

	recipient := a.Recipient
	if recipient == "" && ectx.Client != nil {
		recipient = ectx.Client.Email
	}

	status, err := d.sender.Send(ctx, email.Message{
		Recipient: recipient,
		Subject:   a.Subject,
		Template:  a.Template,
	})
	if err != nil {
		return models.ActionResult{}, fmt.Errorf("failed to send email: %w", err)
	}

	return models.ActionResult{
		Type:      models.ResultEmail,
		Recipient: recipient,
		Subject:   a.Subject,
		Status:    string(status),
	}, nil
}

func (d *Dispatcher) scheduleReminder(ctx context.Context, a models.ScheduleReminder, ectx models.EventContext) (models.ActionResult, error) {
	now := d.now()

	err := renderTexts(ectx, now, &a.Subject, &a.Message)
	if err != nil {
		return models.ActionResult{}, err
	}

	reminder := &models.Reminder{
		ID:            d.newID(),
		OpportunityID: ectx.OpportunityRef(),
		DueDate:       now.Add(time.Duration(a.DelayDays) * day),
		Subject:       a.Subject,
		Message:       a.Message,
		CreatedAt:     now,
	}

	err = d.persistence.ReminderRepository().Create(ctx, reminder)
	if err != nil {
		return models.ActionResult{}, fmt.Errorf("failed to schedule reminder: %w", err)
	}

	return models.ActionResult{Type: models.ResultReminder, ID: reminder.ID}, nil
}

func (d *Dispatcher) changePriority(ctx context.Context, a models.ChangePriority, ectx models.EventContext) (models.ActionResult, error) {
	result := models.ActionResult{Type: models.ResultPriority, NewPriority: a.Priority}

	opportunityID := ectx.OpportunityRef()
	if opportunityID == "" {
		result.Status = ResultStatusSkipped

		return result, nil
	}

	err := d.persistence.OpportunityRepository().UpdatePriority(ctx, opportunityID, a.Priority)
	if err != nil {
		return models.ActionResult{}, fmt.Errorf("failed to change priority: %w", err)
	}

	return result, nil
}

func (d *Dispatcher) assignSalesperson(ctx context.Context, a models.AssignSalesperson, ectx models.EventContext) (models.ActionResult, error) {
	result := models.ActionResult{Type: models.ResultAssignment, SalespersonID: a.SalespersonID}

	clientID := ectx.ClientID()
	if clientID == "" {
		result.Status = ResultStatusSkipped

		return result, nil
	}

	err := d.persistence.ClientRepository().UpdateAssignedSalesperson(ctx, clientID, a.SalespersonID)
	if err != nil {
		return models.ActionResult{}, fmt.Errorf("failed to assign salesperson: %w", err)
	}

	return result, nil
}
