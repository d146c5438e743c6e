// Package reaper closes executions left running by a process that died mid-dispatch.
package reaper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chantierpro/automation/pkg/models"
	"github.com/chantierpro/automation/pkg/persistence"
	"github.com/robfig/cron/v3"
)

const (
	DefaultSchedule = "@every 5m"
	DefaultGrace    = 15 * time.Minute

	// AbandonedMessage is recorded on executions closed by the reaper.
	AbandonedMessage = "execution abandoned"
)

type Reaper struct {
	executions persistence.ExecutionRepository
	logger     *slog.Logger
	grace      time.Duration
	schedule   cron.Schedule
	now        func() time.Time
	cron       *cron.Cron
}

// New parses schedule (standard cron or descriptor such as "@every 5m").
func New(executions persistence.ExecutionRepository, logger *slog.Logger, schedule string, grace time.Duration) (*Reaper, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

	parsed, err := parser.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("failed to parse reaper schedule %q: %w", schedule, err)
	}

	if grace <= 0 {
		grace = DefaultGrace
	}

	return &Reaper{
		executions: executions,
		logger:     logger.With("module", "reaper"),
		grace:      grace,
		schedule:   parsed,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

// Sweep marks every execution running for longer than the grace period as
// error and returns how many were closed.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	now := r.now()

	stale, err := r.executions.ListStale(ctx, now.Add(-r.grace))
	if err != nil {
		return 0, fmt.Errorf("failed to list stale executions: %w", err)
	}

	closed := 0

	for _, execution := range stale {
		message := AbandonedMessage
		completedAt := now

		execution.Status = models.ExecutionStatusError
		execution.ErrorMessage = &message
		execution.CompletedAt = &completedAt

		err := r.executions.Complete(ctx, execution)
		if errors.Is(err, persistence.ErrExecutionAlreadyCompleted) {
			// Finished by its dispatcher in the meantime.
			continue
		}

		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close stale execution", "execution_id", execution.ID, "error", err)

			continue
		}

		r.logger.WarnContext(ctx, "closed abandoned execution",
			"execution_id", execution.ID,
			"rule_id", execution.RuleID,
			"started_at", execution.StartedAt,
		)

		closed++
	}

	return closed, nil
}

// Start runs Sweep on the schedule until Stop is called or ctx is done.
func (r *Reaper) Start(ctx context.Context) {
	r.cron = cron.New()
	r.cron.Schedule(r.schedule, cron.FuncJob(func() {
		if _, err := r.Sweep(ctx); err != nil {
			r.logger.ErrorContext(ctx, "sweep failed", "error", err)
		}
	}))
	r.cron.Start()

	go func() {
		<-ctx.Done()
		r.Stop()
	}()
}

// Stop halts scheduling and waits for a running sweep to finish.
func (r *Reaper) Stop() {
	if r.cron == nil {
		return
	}

	<-r.cron.Stop().Done()
}
