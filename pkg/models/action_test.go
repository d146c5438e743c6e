package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction_Defaults(t *testing.T) {
	action, err := ParseAction(ActionDocument{Type: ActionCreateTask})
	require.NoError(t, err)

	task, ok := action.(CreateTask)
	require.True(t, ok)
	assert.Equal(t, DefaultTaskDelayDays, task.DelayDays)
	assert.Equal(t, DefaultTaskTitle, task.Title)
	assert.Equal(t, DefaultTaskPriority, task.Priority)

	action, err = ParseAction(ActionDocument{Type: ActionScheduleReminder})
	require.NoError(t, err)

	reminder, ok := action.(ScheduleReminder)
	require.True(t, ok)
	assert.Equal(t, DefaultReminderDelayDays, reminder.DelayDays)
}

func TestParseAction_Variants(t *testing.T) {
	tests := []struct {
		name     string
		doc      ActionDocument
		expected Action
	}{
		{
			name: "create task",
			doc: ActionDocument{Type: ActionCreateTask, Parameters: map[string]any{
				"title": "Appeler le client", "delayDays": float64(2), "assigneeId": "u-1", "priority": "HAUTE",
			}},
			expected: CreateTask{Title: "Appeler le client", DelayDays: 2, AssigneeID: "u-1", Priority: "HAUTE"},
		},
		{
			name: "send email",
			doc: ActionDocument{Type: ActionSendEmail, Parameters: map[string]any{
				"recipient": "client@example.fr", "subject": "Merci", "template": "thanks",
			}},
			expected: SendEmail{Recipient: "client@example.fr", Subject: "Merci", Template: "thanks"},
		},
		{
			name:     "change priority",
			doc:      ActionDocument{Type: ActionChangePriority, Parameters: map[string]any{"priority": "HAUTE"}},
			expected: ChangePriority{Priority: "HAUTE"},
		},
		{
			name:     "assign salesperson",
			doc:      ActionDocument{Type: ActionAssignSalesperson, Parameters: map[string]any{"salespersonId": "s-9"}},
			expected: AssignSalesperson{SalespersonID: "s-9"},
		},
		{
			name:     "unknown type is kept for run time",
			doc:      ActionDocument{Type: "UNKNOWN_TYPE"},
			expected: UnsupportedAction{Tag: "UNKNOWN_TYPE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := ParseAction(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, action)
			assert.Equal(t, tt.doc.Type, action.Type())
		})
	}
}

func TestParseAction_Malformed(t *testing.T) {
	docs := []ActionDocument{
		{},
		{Type: ActionCreateTask, Parameters: map[string]any{"delayDays": "demain"}},
		{Type: ActionCreateTask, Parameters: map[string]any{"delayDays": float64(-1)}},
		{Type: ActionScheduleReminder, Parameters: map[string]any{"subject": 12}},
		{Type: ActionChangePriority},
		{Type: ActionAssignSalesperson, Parameters: map[string]any{"salespersonId": ""}},
	}

	for _, doc := range docs {
		_, err := ParseAction(doc)
		require.Error(t, err, "%+v", doc)
		assert.ErrorIs(t, err, ErrInvalidAction)
	}
}

func TestCompileRule(t *testing.T) {
	rule := &WorkflowRule{
		ID:         "r1",
		Event:      EventStatusChange,
		Conditions: map[string]any{"statut": "GAGNE"},
		Actions: []ActionDocument{
			{Type: ActionCreateTask},
			{Type: "UNKNOWN_TYPE"},
		},
	}

	compiled, err := CompileRule(rule)
	require.NoError(t, err)
	assert.Len(t, compiled.Actions, 2)
	assert.Equal(t, []ActionType{"UNKNOWN_TYPE"}, compiled.Unsupported())
	require.NotNil(t, compiled.Conditions.Status)
	assert.Equal(t, "GAGNE", *compiled.Conditions.Status)

	rule.Conditions = map[string]any{"minimumAgeDays": "old"}
	_, err = CompileRule(rule)
	assert.ErrorIs(t, err, ErrInvalidCondition)
}
