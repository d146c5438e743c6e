package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chantierpro/automation/pkg/models"
	"github.com/chantierpro/automation/pkg/persistence"
	"github.com/chantierpro/automation/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistence_HealthCheck(t *testing.T) {
	root := t.TempDir()
	p := file.NewPersistence("file://" + root)

	require.NoError(t, p.HealthCheck(context.Background()))

	missing := file.NewPersistence(filepath.Join(root, "missing"))
	assert.ErrorIs(t, missing.HealthCheck(context.Background()), os.ErrNotExist)
}

func TestRuleRepository_ActiveRulesByEvent(t *testing.T) {
	ctx := context.Background()
	p := file.NewPersistence(t.TempDir())
	repo := p.RuleRepository()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rules := []*models.WorkflowRule{
		{ID: "r-late", Name: "late", Event: models.EventStatusChange, Active: true, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "r-early", Name: "early", Event: models.EventStatusChange, Active: true, CreatedAt: base},
		{ID: "r-inactive", Name: "inactive", Event: models.EventStatusChange, Active: false, CreatedAt: base},
		{ID: "r-other", Name: "other", Event: models.EventCreation, Active: true, CreatedAt: base},
	}

	for _, rule := range rules {
		require.NoError(t, repo.Save(ctx, rule))
	}

	active, err := repo.ActiveRulesByEvent(ctx, models.EventStatusChange)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "r-early", active[0].ID)
	assert.Equal(t, "r-late", active[1].ID)

	none, err := repo.ActiveRulesByEvent(ctx, models.EventTimeBased)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRuleRepository_SetActive(t *testing.T) {
	ctx := context.Background()
	repo := file.NewPersistence(t.TempDir()).RuleRepository()

	rule := &models.WorkflowRule{
		ID:         "r1",
		Name:       "Relance devis",
		Event:      models.EventStatusChange,
		Conditions: map[string]any{"statut": "ENVOYE"},
		Actions:    []models.ActionDocument{{Type: models.ActionScheduleReminder}},
	}
	require.NoError(t, repo.Save(ctx, rule))

	require.NoError(t, repo.SetActive(ctx, "r1", true))

	stored, err := repo.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, stored.Active)
	assert.Equal(t, "ENVOYE", stored.Conditions["statut"])

	err = repo.SetActive(ctx, "missing", true)
	assert.True(t, persistence.IsRuleNotFound(err))

	_, err = repo.GetByID(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, persistence.ErrInvalidID)
}

func TestExecutionRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := file.NewPersistence(t.TempDir()).ExecutionRepository()

	started := time.Now().UTC()
	execution := &models.WorkflowExecution{
		ID:        "exec-1",
		RuleID:    "r1",
		Event:     models.EventStatusChange,
		Context:   models.EventContext{NewStatus: "GAGNE"},
		StartedAt: started,
	}
	require.NoError(t, repo.Create(ctx, execution))

	stored, err := repo.GetByID(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, stored.Status)
	assert.Equal(t, "GAGNE", stored.Context.NewStatus)

	completed := started.Add(time.Second)
	execution.Status = models.ExecutionStatusSuccess
	execution.Results = []models.ActionResult{{Type: models.ResultTask, ID: "t1"}}
	execution.CompletedAt = &completed
	require.NoError(t, repo.Complete(ctx, execution))

	stored, err = repo.GetByID(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusSuccess, stored.Status)
	assert.Equal(t, "t1", stored.Results[0].ID)
	require.NotNil(t, stored.CompletedAt)

	execution.Status = models.ExecutionStatusError
	err = repo.Complete(ctx, execution)
	assert.ErrorIs(t, err, persistence.ErrExecutionAlreadyCompleted)

	err = repo.Complete(ctx, &models.WorkflowExecution{ID: "missing"})
	assert.True(t, persistence.IsExecutionNotFound(err))
}

func TestExecutionRepository_ListAndStale(t *testing.T) {
	ctx := context.Background()
	repo := file.NewPersistence(t.TempDir()).ExecutionRepository()

	now := time.Now().UTC()
	for i, rule := range []string{"r1", "r1", "r2"} {
		require.NoError(t, repo.Create(ctx, &models.WorkflowExecution{
			ID:        "exec-" + string(rune('a'+i)),
			RuleID:    rule,
			Event:     models.EventCreation,
			StartedAt: now.Add(-time.Duration(i) * time.Hour),
		}))
	}

	byRule, err := repo.List(ctx, persistence.ListExecutionsOptions{RuleID: "r1"})
	require.NoError(t, err)
	require.Len(t, byRule, 2)
	assert.Equal(t, "exec-a", byRule[0].ID, "newest first")

	limited, err := repo.List(ctx, persistence.ListExecutionsOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	stale, err := repo.ListStale(ctx, now.Add(-30*time.Minute))
	require.NoError(t, err)
	assert.Len(t, stale, 2)

	running := models.ExecutionStatusRunning
	all, err := repo.List(ctx, persistence.ListExecutionsOptions{Status: &running})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCRMRepositories(t *testing.T) {
	ctx := context.Background()
	p := file.NewPersistence(t.TempDir())

	require.NoError(t, p.Opportunities().Save(ctx, &models.Opportunity{ID: "opp-1", Priority: "BASSE"}))
	require.NoError(t, p.Clients().Save(ctx, &models.Client{ID: "c-1"}))

	require.NoError(t, p.OpportunityRepository().UpdatePriority(ctx, "opp-1", "HAUTE"))
	opportunity, err := p.OpportunityRepository().GetByID(ctx, "opp-1")
	require.NoError(t, err)
	assert.Equal(t, "HAUTE", opportunity.Priority)

	require.NoError(t, p.ClientRepository().UpdateAssignedSalesperson(ctx, "c-1", "s-1"))
	client, err := p.ClientRepository().GetByID(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, "s-1", client.AssignedSalespersonID)

	err = p.OpportunityRepository().UpdatePriority(ctx, "opp-missing", "HAUTE")
	assert.ErrorIs(t, err, persistence.ErrOpportunityNotFound)

	err = p.ClientRepository().UpdateAssignedSalesperson(ctx, "c-missing", "s-1")
	assert.ErrorIs(t, err, persistence.ErrClientNotFound)

	due := time.Now().UTC().Add(24 * time.Hour)
	require.NoError(t, p.TaskRepository().Create(ctx, &models.Task{ID: "t-1", Title: "Appeler", DueDate: due}))
	task, err := p.TaskRepository().GetByID(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, "Appeler", task.Title)

	require.NoError(t, p.ReminderRepository().Create(ctx, &models.Reminder{ID: "rem-1", Subject: "Relance", DueDate: due}))
	reminder, err := p.ReminderRepository().GetByID(ctx, "rem-1")
	require.NoError(t, err)
	assert.Equal(t, "Relance", reminder.Subject)

	_, err = p.TaskRepository().GetByID(ctx, "t-missing")
	assert.ErrorIs(t, err, persistence.ErrTaskNotFound)
}
