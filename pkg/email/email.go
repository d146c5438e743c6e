// Package email defines the outbound email collaborator used by SEND_EMAIL actions.
package email

import (
	"context"
	"log/slog"
)

// DeliveryStatus is what a Sender reports for an accepted message.
type DeliveryStatus string

const StatusSimulated DeliveryStatus = "simulated"

// Message is a single outbound email.
type Message struct {
	Recipient string
	Subject   string
	Template  string
	Body      string
}

// Sender delivers email messages.
type Sender interface {
	Send(ctx context.Context, msg Message) (DeliveryStatus, error)
}

// SimulatedSender logs messages instead of delivering them. Every message is
// accepted, including one without a recipient.
type SimulatedSender struct {
	logger *slog.Logger
}

func NewSimulatedSender(logger *slog.Logger) *SimulatedSender {
	return &SimulatedSender{logger: logger.With("module", "email")}
}

func (s *SimulatedSender) Send(ctx context.Context, msg Message) (DeliveryStatus, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "simulated email",
		"recipient", msg.Recipient,
		"subject", msg.Subject,
		"template", msg.Template,
	)

	return StatusSimulated, nil
}
