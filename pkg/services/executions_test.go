package services

import (
	"testing"
	"time"

	"github.com/chantierpro/automation/pkg/models"
	"github.com/chantierpro/automation/pkg/persistence"
	"github.com/chantierpro/automation/pkg/persistence/file"
	"github.com/chantierpro/automation/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutions_ListAndGet(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	service := NewExecutions(p)

	started := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

	first := testutil.CreateTestExecution(testutil.ForRule("rule-a"), testutil.StartedAt(started))
	second := testutil.CreateTestExecution(testutil.ForRule("rule-b"), testutil.StartedAt(started.Add(time.Minute)))
	third := testutil.CreateTestExecution(testutil.ForRule("rule-a"), testutil.StartedAt(started.Add(2*time.Minute)))

	for _, execution := range []*models.WorkflowExecution{first, second, third} {
		require.NoError(t, p.ExecutionRepository().Create(t.Context(), execution))
	}

	completed := *first
	testutil.Completed(models.ExecutionStatusSuccess, started.Add(time.Hour))(&completed)
	require.NoError(t, p.ExecutionRepository().Complete(t.Context(), &completed))

	executions, err := service.List(t.Context(), ListExecutionsRequest{RuleID: "rule-a"})
	require.NoError(t, err)
	require.Len(t, executions, 2)
	assert.Equal(t, third.ID, executions[0].ID, "newest first")

	executions, err = service.List(t.Context(), ListExecutionsRequest{Status: "success"})
	require.NoError(t, err)
	require.Len(t, executions, 1)
	assert.Equal(t, first.ID, executions[0].ID)

	executions, err = service.List(t.Context(), ListExecutionsRequest{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, executions, 1)

	_, err = service.List(t.Context(), ListExecutionsRequest{Status: "pending"})
	assert.True(t, IsValidationError(err))

	_, err = service.List(t.Context(), ListExecutionsRequest{Limit: MaxExecutionLimit + 1})
	assert.True(t, IsValidationError(err))

	execution, err := service.Get(t.Context(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusSuccess, execution.Status)

	_, err = service.Get(t.Context(), "exec-404")
	assert.True(t, persistence.IsExecutionNotFound(err))
}
