// Package workflow dispatches business events to the workflow rules configured for them.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chantierpro/automation/pkg/email"
	"github.com/chantierpro/automation/pkg/eventbus"
	"github.com/chantierpro/automation/pkg/events"
	"github.com/chantierpro/automation/pkg/models"
	"github.com/chantierpro/automation/pkg/otelhelper"
	"github.com/chantierpro/automation/pkg/persistence"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const DefaultActionTimeout = 10 * time.Second

var (
	ErrInvalidEvent      = errors.New("invalid event")
	ErrUnsupportedAction = errors.New("unsupported action type")
	ErrActionTimeout     = errors.New("action timed out")
)

// Dispatcher runs the active rules of an event against an event context and
// records one WorkflowExecution per matching rule.
type Dispatcher struct {
	persistence   persistence.Persistence
	sender        email.Sender
	publisher     eventbus.EventPublisher
	tracer        trace.Tracer
	logger        *slog.Logger
	now           func() time.Time
	newID         func() string
	actionTimeout time.Duration
}

type Option func(*Dispatcher)

// WithPublisher publishes ExecutionCompleted and ExecutionFailed events after each execution.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(d *Dispatcher) { d.publisher = publisher }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(d *Dispatcher) { d.tracer = tracer }
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(d *Dispatcher) { d.newID = newID }
}

// WithActionTimeout bounds each action. Zero or negative keeps the default.
func WithActionTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.actionTimeout = timeout
		}
	}
}

func NewDispatcher(p persistence.Persistence, sender email.Sender, logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		persistence:   p,
		sender:        sender,
		tracer:        otelhelper.NoopTracer(),
		logger:        logger.With("module", "dispatcher"),
		now:           func() time.Time { return time.Now().UTC() },
		newID:         uuid.NewString,
		actionTimeout: DefaultActionTimeout,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// ExecuteWorkflows runs every active rule registered for event, in store order.
// The returned error is only set when event is invalid or rules cannot be
// loaded; failures of individual rules are recorded on their executions and
// reported in the summaries.
func (d *Dispatcher) ExecuteWorkflows(ctx context.Context, event models.EventName, ectx models.EventContext) ([]models.ExecutionSummary, error) {
	if !event.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEvent, event)
	}

	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "workflow.dispatch",
		attribute.String(otelhelper.EventKey, string(event)),
		attribute.String(otelhelper.EntityIDKey, ectx.EntityID),
	)
	defer span.End()

	logger := d.logger.With("event", event, "entity_id", ectx.EntityID)

	rules, err := d.persistence.RuleRepository().ActiveRulesByEvent(ctx, event)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to load rules for %s: %w", event, err)
	}

	logger.DebugContext(ctx, "loaded active rules", "count", len(rules))

	summaries := make([]models.ExecutionSummary, 0, len(rules))

	for _, rule := range rules {
		summary, matched := d.runRule(ctx, logger, event, rule, ectx)
		if matched {
			summaries = append(summaries, summary)
		}
	}

	span.SetAttributes(attribute.Int(otelhelper.MatchedRulesKey, len(summaries)))
	logger.InfoContext(ctx, "dispatch finished", "rules", len(rules), "matched", len(summaries))

	return summaries, nil
}

// runRule evaluates one rule and, when it matches or cannot be evaluated,
// records its execution. matched is false only when the rule evaluated cleanly
// to no match, in which case nothing is recorded.
func (d *Dispatcher) runRule(ctx context.Context, logger *slog.Logger, event models.EventName, rule *models.WorkflowRule, ectx models.EventContext) (models.ExecutionSummary, bool) {
	logger = logger.With("rule_id", rule.ID)

	ctx, span := otelhelper.StartSpan(ctx, d.tracer, "workflow.rule",
		attribute.String(otelhelper.RuleIDKey, rule.ID),
		attribute.String(otelhelper.RuleNameKey, rule.Name),
	)
	defer span.End()

	now := d.now()

	var (
		compiled *models.CompiledRule
		matched  bool
	)

	evalErr := guard(func() error {
		c, err := models.CompileRule(rule)
		if err != nil {
			return err
		}

		if len(c.Conditions.Unknown) > 0 {
			logger.WarnContext(ctx, "ignoring unknown condition keys", "keys", c.Conditions.Unknown)
		}

		compiled = c
		matched = c.Conditions.Matches(ectx, now)

		return nil
	})

	if evalErr == nil && !matched {
		logger.DebugContext(ctx, "rule did not match")

		return models.ExecutionSummary{}, false
	}

	execution := &models.WorkflowExecution{
		ID:        d.newID(),
		RuleID:    rule.ID,
		Event:     event,
		Context:   ectx,
		Status:    models.ExecutionStatusRunning,
		StartedAt: now,
	}

	span.SetAttributes(attribute.String(otelhelper.ExecutionIDKey, execution.ID))

	err := d.persistence.ExecutionRepository().Create(ctx, execution)
	if err != nil {
		logger.ErrorContext(ctx, "failed to record execution", "error", err)
		otelhelper.SetError(span, err)

		return models.ExecutionSummary{
			RuleID: rule.ID,
			Status: models.ExecutionStatusError,
			Error:  fmt.Sprintf("failed to record execution: %v", err),
		}, true
	}

	logger = logger.With("execution_id", execution.ID)

	runErr := evalErr
	if runErr == nil {
		runErr = guard(func() error {
			results, err := d.runActions(ctx, logger, compiled.Actions, ectx)
			execution.Results = results

			return err
		})
	}

	d.complete(ctx, logger, execution, runErr)

	if runErr != nil {
		otelhelper.SetError(span, runErr)
	}

	summary := models.ExecutionSummary{
		RuleID:      rule.ID,
		ExecutionID: execution.ID,
		Status:      execution.Status,
	}

	if execution.ErrorMessage != nil {
		summary.Error = *execution.ErrorMessage
	}

	return summary, true
}

// runActions executes actions strictly in order and stops at the first failure.
// Results of the actions that succeeded are returned either way.
func (d *Dispatcher) runActions(ctx context.Context, logger *slog.Logger, actions []models.Action, ectx models.EventContext) ([]models.ActionResult, error) {
	results := make([]models.ActionResult, 0, len(actions))

	for i, action := range actions {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("dispatch interrupted before action %d (%s): %w", i, action.Type(), err)
		}

		actionCtx, span := otelhelper.StartSpan(ctx, d.tracer, "workflow.action",
			attribute.String(otelhelper.ActionTypeKey, string(action.Type())),
			attribute.Int(otelhelper.ActionIndexKey, i),
		)

		result, err := d.runWithTimeout(actionCtx, action, ectx)
		if err != nil {
			otelhelper.SetError(span, err)
			span.End()

			logger.WarnContext(ctx, "action failed", "index", i, "action", action.Type(), "error", err)

			return results, fmt.Errorf("action %d (%s): %w", i, action.Type(), err)
		}

		span.End()

		results = append(results, result)
	}

	return results, nil
}

type actionOutcome struct {
	result models.ActionResult
	err    error
}

// runWithTimeout returns when the action finishes or its deadline passes,
// whichever comes first. A collaborator ignoring ctx may keep running after a
// timeout; its outcome is discarded.
func (d *Dispatcher) runWithTimeout(ctx context.Context, action models.Action, ectx models.EventContext) (models.ActionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, d.actionTimeout)
	defer cancel()

	done := make(chan actionOutcome, 1)

	go func() {
		var outcome actionOutcome

		outcome.err = guard(func() error {
			var err error

			outcome.result, err = d.executeAction(ctx, action, ectx)

			return err
		})

		done <- outcome
	}()

	select {
	case outcome := <-done:
		return outcome.result, outcome.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return models.ActionResult{}, fmt.Errorf("%w after %s", ErrActionTimeout, d.actionTimeout)
		}

		return models.ActionResult{}, ctx.Err()
	}
}

// complete moves execution to its terminal status. It runs detached from the
// caller's cancellation so an execution never stays running because the
// request went away.
func (d *Dispatcher) complete(ctx context.Context, logger *slog.Logger, execution *models.WorkflowExecution, runErr error) {
	completedAt := d.now()
	execution.CompletedAt = &completedAt

	if runErr != nil {
		message := runErr.Error()
		execution.Status = models.ExecutionStatusError
		execution.ErrorMessage = &message
	} else {
		execution.Status = models.ExecutionStatusSuccess
	}

	if execution.Results == nil {
		execution.Results = []models.ActionResult{}
	}

	detached := context.WithoutCancel(ctx)

	err := d.persistence.ExecutionRepository().Complete(detached, execution)
	if err != nil {
		logger.ErrorContext(ctx, "failed to complete execution", "status", execution.Status, "error", err)
	} else if runErr != nil {
		logger.WarnContext(ctx, "execution failed", "error", runErr)
	} else {
		logger.InfoContext(ctx, "execution succeeded", "results", len(execution.Results))
	}

	d.publishOutcome(detached, logger, execution)
}

func (d *Dispatcher) publishOutcome(ctx context.Context, logger *slog.Logger, execution *models.WorkflowExecution) {
	if d.publisher == nil {
		return
	}

	duration := execution.CompletedAt.Sub(execution.StartedAt).Milliseconds()

	var event eventbus.Event

	if execution.Status == models.ExecutionStatusSuccess {
		event = events.ExecutionCompleted{
			BaseEvent:   events.NewBaseEvent(events.ExecutionCompletedEvent),
			RuleID:      execution.RuleID,
			ExecutionID: execution.ID,
			Event:       execution.Event,
			EntityID:    execution.Context.EntityID,
			Results:     execution.Results,
			DurationMs:  duration,
		}
	} else {
		event = events.ExecutionFailed{
			BaseEvent:   events.NewBaseEvent(events.ExecutionFailedEvent),
			RuleID:      execution.RuleID,
			ExecutionID: execution.ID,
			Event:       execution.Event,
			EntityID:    execution.Context.EntityID,
			Error:       *execution.ErrorMessage,
			DurationMs:  duration,
		}
	}

	err := d.publisher.Publish(ctx, execution.RuleID, event)
	if err != nil {
		logger.ErrorContext(ctx, "failed to publish execution outcome", "event_type", event.GetType(), "error", err)
	}
}

// guard runs fn and converts a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return fn()
}
