// Package models defines the core domain models for CRM workflow automation.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EventName identifies a business occurrence that may trigger workflow rules.
type EventName string

const (
	EventStatusChange EventName = "STATUS_CHANGE" // Opportunity or quote status moved
	EventCreation     EventName = "CREATION"      // Entity created
	EventUpdate       EventName = "UPDATE"        // Entity fields updated
	EventAssignment   EventName = "ASSIGNMENT"    // Salesperson assigned
	EventTimeBased    EventName = "TIME_BASED"    // Periodic check emitted by the host application
)

// EventNames lists every event the dispatcher accepts, in declaration order.
func EventNames() []EventName {
	return []EventName{EventStatusChange, EventCreation, EventUpdate, EventAssignment, EventTimeBased}
}

// Valid reports whether e belongs to the closed event enumeration.
func (e EventName) Valid() bool {
	switch e {
	case EventStatusChange, EventCreation, EventUpdate, EventAssignment, EventTimeBased:
		return true
	default:
		return false
	}
}

// ParseEventName converts s into an EventName, rejecting unknown names.
func ParseEventName(s string) (EventName, error) {
	e := EventName(s)
	if !e.Valid() {
		return "", fmt.Errorf("unknown event name %q", s)
	}

	return e, nil
}

// ClientSnapshot is the denormalized client carried by an event.
type ClientSnapshot struct {
	ID    string `json:"id"`
	Type  string `json:"type,omitempty"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// EventContext describes one occurrence of an event. It is built by the caller,
// passed by value and only persisted as a snapshot inside WorkflowExecution.
type EventContext struct {
	EntityID       string          `json:"entityId,omitempty"`
	EntityType     string          `json:"entityType,omitempty"`
	OpportunityID  string          `json:"opportunityId,omitempty"`
	UserID         string          `json:"userId,omitempty"`
	PreviousStatus string          `json:"previousStatus,omitempty"`
	NewStatus      string          `json:"newStatus,omitempty"`
	Priority       string          `json:"priority,omitempty"`
	CreatedAt      *time.Time      `json:"createdAt,omitempty"`
	Client         *ClientSnapshot `json:"client,omitempty"`

	// Extra holds free-form fields not used by any condition type.
	Extra map[string]any `json:"-"`
}

var eventContextKeys = map[string]struct{}{
	"entityId": {}, "entityType": {}, "opportunityId": {}, "userId": {},
	"previousStatus": {}, "newStatus": {}, "priority": {}, "createdAt": {}, "client": {},
}

type eventContextAlias EventContext

// MarshalJSON flattens Extra next to the known fields.
func (c EventContext) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(eventContextAlias(c))
	if err != nil {
		return nil, err
	}

	if len(c.Extra) == 0 {
		return known, nil
	}

	merged := make(map[string]any, len(c.Extra)+len(eventContextKeys))
	for k, v := range c.Extra {
		if _, reserved := eventContextKeys[k]; !reserved {
			merged[k] = v
		}
	}

	var fields map[string]any
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}

	for k, v := range fields {
		merged[k] = v
	}

	return json.Marshal(merged)
}

// UnmarshalJSON reads the known fields and keeps everything else in Extra.
func (c *EventContext) UnmarshalJSON(data []byte) error {
	var alias eventContextAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	for k := range eventContextKeys {
		delete(raw, k)
	}

	*c = EventContext(alias)
	if len(raw) > 0 {
		c.Extra = raw
	}

	return nil
}

// ClientID returns the id of the client snapshot, or "" when absent.
func (c EventContext) ClientID() string {
	if c.Client == nil {
		return ""
	}

	return c.Client.ID
}

// ClientType returns the type of the client snapshot, or "" when absent.
func (c EventContext) ClientType() string {
	if c.Client == nil {
		return ""
	}

	return c.Client.Type
}

// OpportunityRef returns the opportunity the event concerns: OpportunityID when
// set, otherwise EntityID when the entity is an opportunity.
func (c EventContext) OpportunityRef() string {
	if c.OpportunityID != "" {
		return c.OpportunityID
	}

	if strings.EqualFold(c.EntityType, "opportunity") {
		return c.EntityID
	}

	return ""
}
