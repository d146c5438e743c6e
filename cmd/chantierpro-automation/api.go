package main

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/chantierpro/automation/pkg/persistence"
	"github.com/chantierpro/automation/pkg/ratelimit"
	"github.com/chantierpro/automation/pkg/services"
	"github.com/chantierpro/automation/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	cli "github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	dispatcher  web.Dispatcher
	limiter     *ratelimit.Limiter
	validate    *validator.Validate
}

// NewAPI wires the HTTP surface. limiter may be nil to disable rate limiting.
func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	dispatcher web.Dispatcher,
	limiter *ratelimit.Limiter,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		dispatcher:  dispatcher,
		limiter:     limiter,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(
		services.NewRules(a.persistence, a.logger),
		services.NewExecutions(a.persistence),
		a.dispatcher,
		a.validate,
		a.logger,
	)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	if a.limiter != nil {
		app.Use(a.limiter.Middleware())
	}

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("ChantierPro Automation API")
	})

	handlers.Register(app)

	return app
}

// Start serves until ctx is done, then shuts the server down.
func (a *API) Start(ctx context.Context, port int) error {
	app := a.App()

	errs := make(chan error, 1)

	go func() {
		errs <- app.Listen(":"+strconv.Itoa(port), fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		a.logger.Info("Shutting down API")

		return app.ShutdownWithTimeout(shutdownTimeout)
	}
}

func NewAPICommand() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Serve the rule administration and event intake API",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "rate-limit",
				Usage:   "Request rate per client IP, e.g. 100-M; empty disables limiting",
				Value:   defaultRateLimit,
				Sources: cli.EnvVars("RATE_LIMIT"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for rate limit counters shared across instances",
				Sources: cli.EnvVars("REDIS_URL"),
			},
		}, reaperFlags()...),
		Action: func(ctx context.Context, command *cli.Command) error {
			ctx, stop := signalContext(ctx)
			defer stop()

			rt, err := newRuntime(ctx, command, "api")
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			rt.logger.InfoContext(ctx, "Initializing ChantierPro automation API")

			err = rt.startReaper(ctx, command)
			if err != nil {
				return err
			}

			var limiter *ratelimit.Limiter

			if rate := command.String("rate-limit"); rate != "" {
				cfg := ratelimit.DefaultConfig()
				cfg.Rate = rate
				cfg.RedisURL = command.String("redis-url")

				limiter, err = ratelimit.New(ctx, rt.logger, cfg)
				if err != nil {
					return err
				}

				rt.shutdown = append(rt.shutdown, func(context.Context) error { return limiter.Close() })
			}

			api := NewAPI(rt.logger, rt.persistence, rt.dispatcher, limiter)

			err = api.Start(ctx, command.Int("port"))
			if err != nil && !errors.Is(err, context.Canceled) {
				rt.logger.ErrorContext(ctx, "API server stopped", "error", err)

				return err
			}

			return nil
		},
	}
}
