package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/chantierpro/automation/pkg/eventbus"
	"github.com/chantierpro/automation/pkg/events"
	"github.com/stretchr/testify/mock"
)

// MockEventBus is a testify mock of eventbus.EventBus. Handlers passed to
// Handle are kept so that tests can push payloads through them with Deliver.
type MockEventBus struct {
	mock.Mock

	mu       sync.Mutex
	handlers map[events.EventType]eventbus.EventHandler
}

func (m *MockEventBus) Publish(ctx context.Context, key string, event eventbus.Event) error {
	return m.Called(ctx, key, event).Error(0)
}

func (m *MockEventBus) Handle(eventType events.EventType, handler eventbus.EventHandler) error {
	err := m.Called(eventType, handler).Error(0)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handlers == nil {
		m.handlers = make(map[events.EventType]eventbus.EventHandler)
	}

	m.handlers[eventType] = handler

	return nil
}

func (m *MockEventBus) Subscribe(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockEventBus) Close() error {
	return m.Called().Error(0)
}

func (m *MockEventBus) GenerateID() string {
	return m.Called().String(0)
}

// Deliver calls the handler registered for eventType with payload.
func (m *MockEventBus) Deliver(ctx context.Context, eventType events.EventType, payload any) error {
	m.mu.Lock()
	handler, ok := m.handlers[eventType]
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("no handler registered for %s", eventType)
	}

	return handler(ctx, payload)
}
