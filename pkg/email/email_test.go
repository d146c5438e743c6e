package email

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedSender_Send(t *testing.T) {
	var buf bytes.Buffer

	sender := NewSimulatedSender(slog.New(slog.NewTextHandler(&buf, nil)))

	status, err := sender.Send(context.Background(), Message{
		Recipient: "client@example.com",
		Subject:   "Votre devis",
		Template:  "devis-signe",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusSimulated, status)
	assert.Contains(t, buf.String(), "recipient=client@example.com")
	assert.Contains(t, buf.String(), "module=email")
}

func TestSimulatedSender_EmptyRecipient(t *testing.T) {
	var buf bytes.Buffer

	sender := NewSimulatedSender(slog.New(slog.NewTextHandler(&buf, nil)))

	status, err := sender.Send(context.Background(), Message{Subject: "Merci", Template: "won"})
	require.NoError(t, err)
	assert.Equal(t, StatusSimulated, status)
	assert.Contains(t, buf.String(), "template=won")
}

func TestSimulatedSender_CancelledContext(t *testing.T) {
	sender := NewSimulatedSender(slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sender.Send(ctx, Message{Recipient: "a@b.c"})
	assert.ErrorIs(t, err, context.Canceled)
}
