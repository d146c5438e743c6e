package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/chantierpro/automation/pkg/cmd"
	"github.com/chantierpro/automation/pkg/email"
	"github.com/chantierpro/automation/pkg/eventbus"
	"github.com/chantierpro/automation/pkg/log"
	"github.com/chantierpro/automation/pkg/otelhelper"
	"github.com/chantierpro/automation/pkg/persistence"
	"github.com/chantierpro/automation/pkg/reaper"
	"github.com/chantierpro/automation/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

// runtime holds the collaborators shared by the long running commands.
type runtime struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	dispatcher  *workflow.Dispatcher
	shutdown    []func(context.Context) error
}

func newRuntime(ctx context.Context, command *cli.Command, module string) (*runtime, error) {
	log.Setup(command.String("log-level"))

	rt := &runtime{logger: log.WithModule(module)}

	tracer := otelhelper.NoopTracer()

	if command.Bool("tracing") {
		t, shutdown, err := otelhelper.NewTracer(ctx, serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}

		tracer = t
		rt.shutdown = append(rt.shutdown, shutdown)
	}

	p, err := cmd.NewPersistence(ctx, rt.logger, command.String("database-url"))
	if err != nil {
		rt.Close(ctx)

		return nil, err
	}

	rt.persistence = p
	rt.shutdown = append(rt.shutdown, p.Close)

	bus, err := cmd.NewEventBus(rt.logger, cmd.EventBusConfig{
		Provider:    command.String("event-bus"),
		Brokers:     command.String("kafka-brokers"),
		ServiceName: serviceName,
	})
	if err != nil {
		rt.Close(ctx)

		return nil, err
	}

	opts := []workflow.Option{
		workflow.WithTracer(tracer),
		workflow.WithActionTimeout(command.Duration("action-timeout")),
	}

	if bus != nil {
		rt.eventBus = bus
		rt.shutdown = append(rt.shutdown, func(context.Context) error { return bus.Close() })
		opts = append(opts, workflow.WithPublisher(bus))
	}

	rt.dispatcher = workflow.NewDispatcher(p, email.NewSimulatedSender(rt.logger), rt.logger, opts...)

	return rt, nil
}

// startReaper schedules the stale execution sweep unless the schedule is empty.
func (rt *runtime) startReaper(ctx context.Context, command *cli.Command) error {
	schedule := command.String("reaper-schedule")
	if schedule == "" {
		return nil
	}

	r, err := reaper.New(rt.persistence.ExecutionRepository(), rt.logger, schedule, command.Duration("reaper-grace"))
	if err != nil {
		return err
	}

	r.Start(ctx)
	rt.shutdown = append(rt.shutdown, func(context.Context) error {
		r.Stop()

		return nil
	})

	return nil
}

// Close releases everything in reverse order of acquisition.
func (rt *runtime) Close(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	for i := len(rt.shutdown) - 1; i >= 0; i-- {
		err := rt.shutdown[i](ctx)
		if err != nil {
			rt.logger.ErrorContext(ctx, "Failed to release resource", "error", err)
		}
	}

	rt.shutdown = nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}
