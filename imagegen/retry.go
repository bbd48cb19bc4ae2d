package imagegen

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"bgforge/core"
	"bgforge/logging"
)

// RetryConfig controls retry behavior for generation attempts.
type RetryConfig struct {
	MaxAttempts    int           // total attempts, including the first
	InitialBackoff time.Duration // delay before the second attempt
	MaxBackoff     time.Duration // cap on any single delay
	Multiplier     float64       // exponential growth factor
	Jitter         bool          // randomize each delay up to +25%
}

// DefaultRetryConfig returns the standard policy: three attempts with
// exponential backoff from two seconds, capped at thirty.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		Jitter:         true,
	}
}

// RetryPolicy wraps provider calls with bounded retries, per-attempt
// deadlines, and exponential backoff. Fatal errors short-circuit; transient
// ones are retried until the attempt budget runs out, at which point a
// terminal TimeoutError carrying the last cause is returned.
type RetryPolicy struct {
	config RetryConfig
	logger *logging.Logger

	// sleep is swapped out by tests to avoid real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryPolicy creates a RetryPolicy with the given configuration.
func NewRetryPolicy(config RetryConfig, logger *logging.Logger) *RetryPolicy {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.Multiplier < 1 {
		config.Multiplier = 1
	}
	return &RetryPolicy{
		config: config,
		logger: logger.Named("retry"),
		sleep:  sleepCtx,
	}
}

// Execute runs provider.Generate under the retry policy. Each attempt gets
// its own deadline of provider.Timeout(); the parent context aborts the whole
// sequence when cancelled.
func (r *RetryPolicy) Execute(ctx context.Context, provider Provider, prompt, apiKey string) (*Result, error) {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		attemptCtx, cancel := context.WithTimeout(ctx, provider.Timeout())
		result, err := provider.Generate(attemptCtx, prompt, apiKey)
		cancel()

		if err == nil {
			if attempt > 1 {
				r.logger.Info("attempt succeeded after retries",
					zap.String("service", provider.Name()),
					zap.Int("attempt", attempt))
			}
			return result, nil
		}

		// Parent cancellation aborts immediately; an expired attempt
		// deadline is just a slow provider and counts as transient.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = &core.NetworkError{
				Service: provider.Name(),
				Message: fmt.Sprintf("attempt timed out after %s", provider.Timeout()),
				Err:     err,
			}
		}
		lastErr = err

		if !core.IsTransient(err) {
			r.logger.Warn("fatal error, not retrying",
				zap.String("service", provider.Name()),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return nil, err
		}

		if attempt == r.config.MaxAttempts {
			break
		}

		delay := r.backoffFor(attempt, err)
		r.logger.Warn("transient error, backing off",
			zap.String("service", provider.Name()),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))

		if err := r.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	exhausted := core.ErrRetryExhausted(provider.Name(), r.config.MaxAttempts, lastErr)
	r.logger.Error("retry budget exhausted",
		zap.String("service", provider.Name()),
		zap.Int("attempts", r.config.MaxAttempts),
		zap.Error(lastErr))
	return nil, exhausted
}

// backoffFor computes the delay after a failed attempt. A provider-supplied
// Retry-After hint overrides the computed backoff when it asks for a longer
// wait.
func (r *RetryPolicy) backoffFor(attempt int, err error) time.Duration {
	delay := r.config.InitialBackoff
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * r.config.Multiplier)
		if delay >= r.config.MaxBackoff {
			delay = r.config.MaxBackoff
			break
		}
	}
	if delay > r.config.MaxBackoff {
		delay = r.config.MaxBackoff
	}

	if hint, ok := core.RetryAfterHint(err); ok && hint > delay {
		delay = hint
		if delay > r.config.MaxBackoff {
			delay = r.config.MaxBackoff
		}
		return delay
	}

	if r.config.Jitter && delay > 0 {
		delay += time.Duration(rand.Int63n(int64(delay) / 4))
		if delay > r.config.MaxBackoff {
			delay = r.config.MaxBackoff
		}
	}
	return delay
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
