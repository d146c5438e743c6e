package mocks

import (
	"context"

	"github.com/chantierpro/automation/pkg/email"
	"github.com/stretchr/testify/mock"
)

// MockSender is a testify mock of email.Sender.
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg email.Message) (email.DeliveryStatus, error) {
	args := m.Called(ctx, msg)

	return args.Get(0).(email.DeliveryStatus), args.Error(1)
}
