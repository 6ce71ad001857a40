// Package retry provides the bounded exponential backoff used by the
// request-execution layer. The resolution and discovery core never retries;
// it only classifies. This retryer consumes that classification: it retries
// errors the taxonomy marks retryable and honors any retry-after hint.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/averhold/genaibind/genai"
)

// Policy configures the backoff.
type Policy struct {
	// MaxRetries is the number of attempts after the first. Zero disables
	// retrying.
	MaxRetries int

	InitialDelay time.Duration
	MaxDelay     time.Duration

	// Multiplier is the exponential growth factor.
	Multiplier float64

	// Jitter adds +/-25% randomization to each delay to avoid retry
	// stampedes.
	Jitter bool

	// OnRetry is called before each retry sleep.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultPolicy suits most proxy round trips.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// Retryer runs an operation with retries on retryable taxonomy errors.
type Retryer struct {
	policy *Policy
	log    *zap.Logger
}

// New creates a retryer. A nil policy uses DefaultPolicy; a nil logger is
// replaced with a no-op logger.
func New(policy *Policy, log *zap.Logger) *Retryer {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.InitialDelay <= 0 {
		policy.InitialDelay = 1 * time.Second
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = 30 * time.Second
	}
	if policy.Multiplier < 1.0 {
		policy.Multiplier = 2.0
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Retryer{policy: policy, log: log}
}

// Do runs fn, retrying while the returned error is retryable per
// genai.IsRetryable and attempts remain. A retry-after hint on the error
// replaces the computed backoff delay for that step.
func (r *Retryer) Do(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= r.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.delayFor(attempt, lastErr)

			r.log.Debug("retrying after retryable error",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", r.policy.MaxRetries),
				zap.Duration("delay", delay),
				zap.Error(lastErr))

			if r.policy.OnRetry != nil {
				r.policy.OnRetry(attempt, lastErr, delay)
			}

			select {
			case <-ctx.Done():
				return fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		lastErr = fn()
		if lastErr == nil {
			if attempt > 0 {
				r.log.Info("retry succeeded", zap.Int("attempt", attempt))
			}
			return nil
		}

		if !genai.IsRetryable(lastErr) {
			return lastErr
		}
	}

	r.log.Warn("retries exhausted",
		zap.Int("attempts", r.policy.MaxRetries+1),
		zap.Error(lastErr))
	return fmt.Errorf("failed after %d retries: %w", r.policy.MaxRetries, lastErr)
}

// delayFor computes the backoff delay for the given attempt, preferring an
// upstream retry-after hint when the error carries one.
func (r *Retryer) delayFor(attempt int, err error) time.Duration {
	if hint := genai.RetryAfterHint(err); hint > 0 {
		if hint > r.policy.MaxDelay {
			return r.policy.MaxDelay
		}
		return hint
	}

	delay := float64(r.policy.InitialDelay) * math.Pow(r.policy.Multiplier, float64(attempt-1))
	if delay > float64(r.policy.MaxDelay) {
		delay = float64(r.policy.MaxDelay)
	}
	if r.policy.Jitter {
		jitter := delay * 0.25
		delay += (rand.Float64()*2 - 1) * jitter
	}
	if delay < float64(r.policy.InitialDelay) {
		delay = float64(r.policy.InitialDelay)
	}
	return time.Duration(delay)
}
