// Package main provides the chantierpro-automation binary.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chantierpro/automation/pkg/cmd"
	"github.com/chantierpro/automation/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

const (
	serviceName      = "chantierpro-automation"
	defaultPort      = 9091
	defaultDatabase  = "file://./data"
	defaultRateLimit = "100-M"
)

func main() {
	command := &cli.Command{
		Name:                  serviceName,
		Usage:                 "Run ChantierPro workflow automation rules on business events",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL for persistence (file://<dir> or postgres://...)",
				Value:   defaultDatabase,
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka, none)",
				Value:   cmd.EventBusNone,
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Value:   "localhost:9092",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.DurationFlag{
				Name:    "action-timeout",
				Usage:   "Maximum duration of a single action",
				Value:   workflow.DefaultActionTimeout,
				Sources: cli.EnvVars("ACTION_TIMEOUT"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			NewAPICommand(),
			NewListenCommand(),
			NewDispatchCommand(),
			NewRulesCommand(),
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func reaperFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "reaper-schedule",
			Usage:   "Cron schedule of the stale execution sweep, empty disables it",
			Value:   "@every 5m",
			Sources: cli.EnvVars("REAPER_SCHEDULE"),
		},
		&cli.DurationFlag{
			Name:    "reaper-grace",
			Usage:   "Age after which a running execution is considered abandoned",
			Value:   15 * time.Minute,
			Sources: cli.EnvVars("REAPER_GRACE"),
		},
	}
}
