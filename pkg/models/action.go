package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ActionType is the stored tag selecting an action variant.
type ActionType string

const (
	ActionCreateTask        ActionType = "CREATE_TASK"
	ActionSendEmail         ActionType = "SEND_EMAIL"
	ActionScheduleReminder  ActionType = "SCHEDULE_REMINDER"
	ActionChangePriority    ActionType = "CHANGE_PRIORITY"
	ActionAssignSalesperson ActionType = "ASSIGN_SALESPERSON"
)

// Defaults applied when a rule omits a parameter.
const (
	DefaultTaskDelayDays     = 1
	DefaultReminderDelayDays = 3
	DefaultTaskTitle         = "Tâche automatique"
	DefaultTaskPriority      = "MOYENNE"
	DefaultReminderSubject   = "Relance automatique"
)

var ErrInvalidAction = errors.New("invalid action")

// ActionDocument is the stored, loosely typed form of an action.
type ActionDocument struct {
	Type       ActionType     `json:"type"                 validate:"required"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Action is one of the closed set of action variants below.
type Action interface {
	Type() ActionType
	isAction()
}

type CreateTask struct {
	Title       string
	Description string
	Priority    string
	AssigneeID  string // empty means the acting user of the event
	DelayDays   int
}

type SendEmail struct {
	Recipient string // empty means the client's email
	Subject   string
	Template  string
}

type ScheduleReminder struct {
	Subject   string
	Message   string
	DelayDays int
}

type ChangePriority struct {
	Priority string
}

type AssignSalesperson struct {
	SalespersonID string
}

// UnsupportedAction keeps an unknown tag so that the failure is reported when
// the rule runs.
type UnsupportedAction struct {
	Tag ActionType
}

func (CreateTask) Type() ActionType          { return ActionCreateTask }
func (SendEmail) Type() ActionType           { return ActionSendEmail }
func (ScheduleReminder) Type() ActionType    { return ActionScheduleReminder }
func (ChangePriority) Type() ActionType      { return ActionChangePriority }
func (AssignSalesperson) Type() ActionType   { return ActionAssignSalesperson }
func (a UnsupportedAction) Type() ActionType { return a.Tag }

func (CreateTask) isAction()        {}
func (SendEmail) isAction()         {}
func (ScheduleReminder) isAction()  {}
func (ChangePriority) isAction()    {}
func (AssignSalesperson) isAction() {}
func (UnsupportedAction) isAction() {}

// ParseAction converts a stored action document into its variant.
func ParseAction(doc ActionDocument) (Action, error) {
	if doc.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrInvalidAction)
	}

	p := params{doc: doc.Parameters, action: doc.Type}

	switch doc.Type {
	case ActionCreateTask:
		a := CreateTask{
			Title:       p.stringParam("title", DefaultTaskTitle),
			Description: p.stringParam("description", ""),
			Priority:    p.stringParam("priority", DefaultTaskPriority),
			AssigneeID:  p.stringParam("assigneeId", ""),
			DelayDays:   p.intParam("delayDays", DefaultTaskDelayDays),
		}

		return a, p.err
	case ActionSendEmail:
		a := SendEmail{
			Recipient: p.stringParam("recipient", ""),
			Subject:   p.stringParam("subject", ""),
			Template:  p.stringParam("template", ""),
		}

		return a, p.err
	case ActionScheduleReminder:
		a := ScheduleReminder{
			Subject:   p.stringParam("subject", DefaultReminderSubject),
			Message:   p.stringParam("message", ""),
			DelayDays: p.intParam("delayDays", DefaultReminderDelayDays),
		}

		return a, p.err
	case ActionChangePriority:
		a := ChangePriority{Priority: p.required("priority")}

		return a, p.err
	case ActionAssignSalesperson:
		a := AssignSalesperson{SalespersonID: p.required("salespersonId")}

		return a, p.err
	default:
		return UnsupportedAction{Tag: doc.Type}, nil
	}
}

// params reads typed values from a parameter document, remembering the first error.
type params struct {
	doc    map[string]any
	action ActionType
	err    error
}

func (p *params) fail(format string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: %s: %s", ErrInvalidAction, p.action, fmt.Sprintf(format, args...))
	}
}

func (p *params) stringParam(key, fallback string) string {
	v, ok := p.doc[key]
	if !ok || v == nil {
		return fallback
	}

	s, ok := v.(string)
	if !ok {
		p.fail("%s must be a string, got %T", key, v)

		return fallback
	}

	return s
}

func (p *params) required(key string) string {
	s := p.stringParam(key, "")
	if s == "" {
		p.fail("%s is required", key)
	}

	return s
}

func (p *params) intParam(key string, fallback int) int {
	v, ok := p.doc[key]
	if !ok || v == nil {
		return fallback
	}

	n, err := toInt(v)
	if err != nil {
		p.fail("%s %v", key, err)

		return fallback
	}

	if n < 0 {
		p.fail("%s must not be negative", key)

		return fallback
	}

	return n
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("must be a whole number, got %v", n)
		}

		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("must be a whole number, got %s", n)
		}

		return int(i), nil
	default:
		return 0, fmt.Errorf("must be a number, got %T", v)
	}
}
