package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"
)

// RetryPolicy bounds connection attempts at startup, when a Cloud SQL socket
// or a local container may not be accepting connections yet.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
	Jitter         bool
}

// DefaultRetryPolicy waits about 15 seconds in total before giving up.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    5,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     8 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         true,
	}
}

// ConnectWithRetry calls Connect until it succeeds, the policy is exhausted
// or ctx ends. A missing URL fails immediately.
func ConnectWithRetry(ctx context.Context, cfg Config, policy RetryPolicy, logger *slog.Logger) (*sql.DB, error) {
	attempts := max(policy.MaxAttempts, 1)

	var lastErr error
	for attempt := range attempts {
		db, err := Connect(ctx, cfg)
		if err == nil {
			return db, nil
		}
		if errors.Is(err, ErrMissingURL) {
			return nil, err
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}

		wait := backoff(policy, attempt)
		logger.Warn("database not ready, retrying",
			"attempt", attempt+1,
			"max_attempts", attempts,
			"backoff", wait.String(),
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect cancelled: %w", ctx.Err())
		case <-time.After(wait):
		}
	}

	return nil, fmt.Errorf("database unavailable after %d attempts: %w", attempts, lastErr)
}

// backoff is InitialBackoff·Factor^attempt capped at MaxBackoff, with up to
// ±10% jitter.
func backoff(policy RetryPolicy, attempt int) time.Duration {
	d := float64(policy.InitialBackoff) * math.Pow(policy.BackoffFactor, float64(attempt))
	if policy.MaxBackoff > 0 && d > float64(policy.MaxBackoff) {
		d = float64(policy.MaxBackoff)
	}
	if policy.Jitter {
		d += d * 0.1 * (2*rand.Float64() - 1)
	}
	return time.Duration(d)
}
