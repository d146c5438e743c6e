// Package ratelimit limits API requests per client IP.
//
// The memory store keeps counters in the process and loses them on restart.
// The Redis store shares counters between instances.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const (
	DefaultRate   = "100-M"
	DefaultPrefix = "chantierpro:ratelimit:"
)

type Config struct {
	// Rate in limiter format, e.g. "100-M" or "10-S".
	Rate string
	// RedisURL selects the Redis store when set, otherwise counters stay in memory.
	RedisURL      string
	Prefix        string
	ExcludedPaths []string
}

func DefaultConfig() Config {
	return Config{
		Rate:          DefaultRate,
		Prefix:        DefaultPrefix,
		ExcludedPaths: []string{"/health", "/livez", "/readyz"},
	}
}

// Limiter is a process-wide request limiter. Create one per server and Close it on shutdown.
type Limiter struct {
	limiter  *limiter.Limiter
	excluded []string
	logger   *slog.Logger
	close    func() error
}

// New builds a limiter from cfg, connecting to Redis when cfg.RedisURL is set.
func New(ctx context.Context, logger *slog.Logger, cfg Config) (*Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(cfg.Rate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rate %q: %w", cfg.Rate, err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	if cfg.RedisURL == "" {
		store := memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          prefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		})

		return NewWithStore(logger, store, rate, cfg.ExcludedPaths, nil), nil
	}

	options, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(options)

	err = client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix:   prefix,
		MaxRetry: 3,
	})
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to create redis store: %w", err)
	}

	return NewWithStore(logger, store, rate, cfg.ExcludedPaths, client.Close), nil
}

// NewWithStore builds a limiter over an existing store. closeFn may be nil.
func NewWithStore(logger *slog.Logger, store limiter.Store, rate limiter.Rate, excluded []string, closeFn func() error) *Limiter {
	return &Limiter{
		limiter:  limiter.New(store, rate),
		excluded: excluded,
		logger:   logger.With("module", "ratelimit"),
		close:    closeFn,
	}
}

// Allow consumes one request for key.
func (l *Limiter) Allow(ctx context.Context, key string) (limiter.Context, error) {
	return l.limiter.Get(ctx, key)
}

// Middleware rejects requests over the limit with 429 and sets X-RateLimit-* headers.
// Store failures let the request through.
func (l *Limiter) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		if slices.Contains(l.excluded, c.Path()) {
			return c.Next()
		}

		result, err := l.Allow(c.Context(), c.IP())
		if err != nil {
			l.logger.Error("rate limiter store failed", "error", err)

			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(result.Reset, 10))

		if result.Reached {
			problem := problems.NewStatusProblem(fiber.StatusTooManyRequests).
				WithInstance(c.Path()).
				WithType("rate_limited").
				WithDetail("too many requests")

			return c.Status(fiber.StatusTooManyRequests).JSON(problem)
		}

		return c.Next()
	}
}

func (l *Limiter) Close() error {
	if l.close == nil {
		return nil
	}

	return l.close()
}
