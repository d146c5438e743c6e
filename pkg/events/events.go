// Package events defines the messages exchanged with the CRM over the event bus.
package events

import (
	"time"

	"github.com/chantierpro/automation/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic carries both inbound business events and outbound execution outcomes.
const Topic = "chantierpro.automation.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Inbound, emitted by the CRM when a business entity changes.
	BusinessEventReceivedEvent EventType = "business_event.received"

	// Outbound execution outcomes.
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// BusinessEventReceived asks the automation service to dispatch event with context.
type BusinessEventReceived struct {
	BaseEvent

	Event   models.EventName    `json:"event"`
	Context models.EventContext `json:"context"`
}

func (b BusinessEventReceived) GetType() EventType {
	return BusinessEventReceivedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	RuleID      string                `json:"rule_id"`
	ExecutionID string                `json:"execution_id"`
	Event       models.EventName      `json:"event"`
	EntityID    string                `json:"entity_id,omitempty"`
	Results     []models.ActionResult `json:"results"`
	DurationMs  int64                 `json:"duration_ms"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent

	RuleID      string           `json:"rule_id"`
	ExecutionID string           `json:"execution_id"`
	Event       models.EventName `json:"event"`
	EntityID    string           `json:"entity_id,omitempty"`
	Error       string           `json:"error"`
	DurationMs  int64            `json:"duration_ms"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}

func NewBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Metadata:  make(map[string]any),
	}
}
