package events

import (
	"encoding/json"
	"testing"

	"github.com/chantierpro/automation/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEvent(t *testing.T) {
	base := NewBaseEvent(ExecutionFailedEvent)

	assert.NotEmpty(t, base.ID)
	assert.Equal(t, ExecutionFailedEvent, base.Type)
	assert.False(t, base.Timestamp.IsZero())
	assert.NotNil(t, base.Metadata)
}

func TestGetType(t *testing.T) {
	assert.Equal(t, BusinessEventReceivedEvent, BusinessEventReceived{}.GetType())
	assert.Equal(t, ExecutionCompletedEvent, ExecutionCompleted{}.GetType())
	assert.Equal(t, ExecutionFailedEvent, ExecutionFailed{}.GetType())
}

func TestBusinessEventReceived_JSON(t *testing.T) {
	payload := []byte(`{
		"id": "evt-1",
		"type": "business_event.received",
		"event": "STATUS_CHANGE",
		"context": {"entityId": "opp-1", "newStatus": "SIGNE", "client": {"type": "PROFESSIONNEL"}}
	}`)

	var received BusinessEventReceived

	require.NoError(t, json.Unmarshal(payload, &received))
	assert.Equal(t, models.EventStatusChange, received.Event)
	assert.Equal(t, "opp-1", received.Context.EntityID)
	assert.Equal(t, "SIGNE", received.Context.NewStatus)
	assert.Equal(t, "PROFESSIONNEL", received.Context.ClientType())
}
