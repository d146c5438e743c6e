package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chantierpro/automation/pkg/eventbus"
	"github.com/chantierpro/automation/pkg/events"
	"github.com/chantierpro/automation/pkg/models"
	"github.com/chantierpro/automation/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

// Dispatcher runs the workflows of one event occurrence.
type Dispatcher interface {
	ExecuteWorkflows(ctx context.Context, event models.EventName, ectx models.EventContext) ([]models.ExecutionSummary, error)
}

var errNoEventBus = errors.New("listen requires an event bus, set --event-bus")

// Listener consumes BusinessEventReceived messages and dispatches them.
type Listener struct {
	subscriber eventbus.EventSubscriber
	dispatcher Dispatcher
	logger     *slog.Logger
}

func NewListener(subscriber eventbus.EventSubscriber, dispatcher Dispatcher, logger *slog.Logger) *Listener {
	return &Listener{
		subscriber: subscriber,
		dispatcher: dispatcher,
		logger:     logger.With("module", "listener"),
	}
}

// Start registers the handler and begins consuming in the background.
func (l *Listener) Start(ctx context.Context) error {
	err := l.subscriber.Handle(events.BusinessEventReceivedEvent, l.handle)
	if err != nil {
		return fmt.Errorf("failed to register business event handler: %w", err)
	}

	err = l.subscriber.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to business events: %w", err)
	}

	l.logger.InfoContext(ctx, "Subscribed to business events", "topic", events.Topic)

	return nil
}

// handle returns an error only for failures worth redelivering. An event the
// dispatcher rejects as invalid would fail again and is dropped.
func (l *Listener) handle(ctx context.Context, event any) error {
	received, ok := event.(*events.BusinessEventReceived)
	if !ok {
		l.logger.WarnContext(ctx, "Unexpected event payload", "type", fmt.Sprintf("%T", event))

		return nil
	}

	logger := l.logger.With("event_id", received.ID, "event", received.Event, "entity_id", received.Context.EntityID)

	summaries, err := l.dispatcher.ExecuteWorkflows(ctx, received.Event, received.Context)
	if err != nil {
		if errors.Is(err, workflow.ErrInvalidEvent) {
			logger.WarnContext(ctx, "Dropping invalid business event", "error", err)

			return nil
		}

		logger.ErrorContext(ctx, "Failed to dispatch business event", "error", err)

		return err
	}

	failed := 0

	for _, s := range summaries {
		if s.Status == models.ExecutionStatusError {
			failed++
		}
	}

	logger.InfoContext(ctx, "Business event dispatched", "matched", len(summaries), "failed", failed)

	return nil
}

func NewListenCommand() *cli.Command {
	return &cli.Command{
		Name:  "listen",
		Usage: "Consume business events from the event bus and run matching rules",
		Flags: reaperFlags(),
		Action: func(ctx context.Context, command *cli.Command) error {
			ctx, stop := signalContext(ctx)
			defer stop()

			rt, err := newRuntime(ctx, command, "listener")
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			if rt.eventBus == nil {
				return errNoEventBus
			}

			err = rt.startReaper(ctx, command)
			if err != nil {
				return err
			}

			err = NewListener(rt.eventBus, rt.dispatcher, rt.logger).Start(ctx)
			if err != nil {
				return err
			}

			<-ctx.Done()
			rt.logger.Info("Listener stopped")

			return nil
		},
	}
}
