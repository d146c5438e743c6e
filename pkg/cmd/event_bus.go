// Package cmd builds the infrastructure shared by the command line entry points.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/chantierpro/automation/pkg/channels/gochannel"
	"github.com/chantierpro/automation/pkg/channels/kafka"
	"github.com/chantierpro/automation/pkg/eventbus"
)

const (
	EventBusNone      = "none"
	EventBusGoChannel = "gochannel"
	EventBusKafka     = "kafka"
)

var ErrUnsupportedEventBus = errors.New("unsupported event bus provider")

// EventBusConfig selects and configures the event bus provider.
type EventBusConfig struct {
	Provider    string
	Brokers     string
	ServiceName string
}

// NewEventBus creates the configured event bus. It returns nil without error
// for the "none" provider.
func NewEventBus(logger *slog.Logger, cfg EventBusConfig) (eventbus.EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch cfg.Provider {
	case "", EventBusNone:
		return nil, nil
	case EventBusGoChannel:
		pub, sub, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create gochannel pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(logger, pub, sub), nil
	case EventBusKafka:
		pub, sub, err := kafka.CreateChannel(wmLogger, kafka.ParseBrokers(cfg.Brokers), cfg.ServiceName)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(logger, pub, sub), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEventBus, cfg.Provider)
	}
}
