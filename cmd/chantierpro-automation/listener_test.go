package main

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/chantierpro/automation/pkg/channels/gochannel"
	"github.com/chantierpro/automation/pkg/eventbus"
	"github.com/chantierpro/automation/pkg/events"
	"github.com/chantierpro/automation/pkg/mocks"
	"github.com/chantierpro/automation/pkg/models"
	"github.com/chantierpro/automation/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) ExecuteWorkflows(ctx context.Context, event models.EventName, ectx models.EventContext) ([]models.ExecutionSummary, error) {
	args := m.Called(ctx, event, ectx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.ExecutionSummary), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func businessEvent(event models.EventName, entityID string) *events.BusinessEventReceived {
	return &events.BusinessEventReceived{
		BaseEvent: events.NewBaseEvent(events.BusinessEventReceivedEvent),
		Event:     event,
		Context:   models.EventContext{EntityID: entityID, NewStatus: "SIGNE"},
	}
}

func TestListener_Handle(t *testing.T) {
	dispatcher := &mockDispatcher{}
	listener := NewListener(&mocks.MockEventBus{}, dispatcher, testLogger())

	dispatcher.On("ExecuteWorkflows", mock.Anything, models.EventStatusChange, mock.MatchedBy(func(ectx models.EventContext) bool {
		return ectx.EntityID == "opp-1"
	})).Return([]models.ExecutionSummary{
		{RuleID: "r1", ExecutionID: "e1", Status: models.ExecutionStatusSuccess},
		{RuleID: "r2", ExecutionID: "e2", Status: models.ExecutionStatusError, Error: "boom"},
	}, nil).Once()

	err := listener.handle(t.Context(), businessEvent(models.EventStatusChange, "opp-1"))
	require.NoError(t, err)

	dispatcher.AssertExpectations(t)
}

func TestListener_Handle_InvalidEventIsDropped(t *testing.T) {
	dispatcher := &mockDispatcher{}
	listener := NewListener(&mocks.MockEventBus{}, dispatcher, testLogger())

	dispatcher.On("ExecuteWorkflows", mock.Anything, models.EventName("DELETED"), mock.Anything).
		Return(nil, workflow.ErrInvalidEvent).Once()

	err := listener.handle(t.Context(), businessEvent("DELETED", "opp-1"))
	require.NoError(t, err)

	err = listener.handle(t.Context(), "not an event")
	require.NoError(t, err)

	dispatcher.AssertExpectations(t)
}

func TestListener_Handle_StoreFailureIsRetried(t *testing.T) {
	dispatcher := &mockDispatcher{}
	listener := NewListener(&mocks.MockEventBus{}, dispatcher, testLogger())

	storeErr := errors.New("connection refused")
	dispatcher.On("ExecuteWorkflows", mock.Anything, models.EventCreation, mock.Anything).
		Return(nil, storeErr).Once()

	err := listener.handle(t.Context(), businessEvent(models.EventCreation, "opp-2"))
	require.ErrorIs(t, err, storeErr)
}

func TestListener_Start_RegistersAndSubscribes(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Handle", events.BusinessEventReceivedEvent, mock.Anything).Return(nil).Once()
	bus.On("Subscribe", mock.Anything).Return(errors.New("broker down")).Once()

	listener := NewListener(bus, &mockDispatcher{}, testLogger())

	err := listener.Start(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")

	bus.AssertExpectations(t)
}

func TestListener_Start_DeliversThroughRegisteredHandler(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Handle", events.BusinessEventReceivedEvent, mock.Anything).Return(nil).Once()
	bus.On("Subscribe", mock.Anything).Return(nil).Once()

	dispatcher := &mockDispatcher{}
	dispatcher.On("ExecuteWorkflows", mock.Anything, models.EventUpdate, mock.Anything).
		Return([]models.ExecutionSummary{}, nil).Once()

	require.NoError(t, NewListener(bus, dispatcher, testLogger()).Start(t.Context()))

	err := bus.Deliver(t.Context(), events.BusinessEventReceivedEvent, businessEvent(models.EventUpdate, "opp-3"))
	require.NoError(t, err)

	err = bus.Deliver(t.Context(), events.ExecutionCompletedEvent, nil)
	require.Error(t, err)

	bus.AssertExpectations(t)
	dispatcher.AssertExpectations(t)
}

func TestListener_ConsumesFromBus(t *testing.T) {
	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(testLogger(), pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	dispatched := make(chan models.EventContext, 1)

	dispatcher := &mockDispatcher{}
	dispatcher.On("ExecuteWorkflows", mock.Anything, models.EventAssignment, mock.Anything).
		Run(func(args mock.Arguments) {
			dispatched <- args.Get(2).(models.EventContext)
		}).
		Return([]models.ExecutionSummary{}, nil).Once()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	require.NoError(t, NewListener(bus, dispatcher, testLogger()).Start(ctx))

	require.NoError(t, bus.Publish(ctx, "opp-9", businessEvent(models.EventAssignment, "opp-9")))

	select {
	case ectx := <-dispatched:
		assert.Equal(t, "opp-9", ectx.EntityID)
		assert.Equal(t, "SIGNE", ectx.NewStatus)
	case <-time.After(5 * time.Second):
		t.Fatal("business event was not dispatched")
	}
}
