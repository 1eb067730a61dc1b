// Package retry wraps fallible external calls (model extraction, FX lookups)
// in a shared rate-limit aware backoff policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	// DefaultAttempts is the total number of calls made before giving up.
	DefaultAttempts = 7
	// DefaultBaseDelay is the delay before the first retry; it doubles per attempt.
	DefaultBaseDelay = 15 * time.Second
	// DefaultMaxJitter bounds the random delay added to every backoff.
	DefaultMaxJitter = 2 * time.Second
)

// ErrExhausted wraps the last error once every attempt has failed.
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy retries an operation while its error is classified as retryable.
// The zero value is not usable; build one with NewPolicy.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxJitter time.Duration
	// Retryable decides whether an error deserves another attempt.
	Retryable func(error) bool

	log    zerolog.Logger
	jitter func(max time.Duration) time.Duration
}

// NewPolicy returns a policy with the default attempts, delays and the
// rate-limit classifier.
func NewPolicy(log zerolog.Logger) *Policy {
	return &Policy{
		Attempts:  DefaultAttempts,
		BaseDelay: DefaultBaseDelay,
		MaxJitter: DefaultMaxJitter,
		Retryable: IsRateLimited,
		log:       log,
		jitter:    randomJitter,
	}
}

// WithDelays returns a copy of the policy using the given attempts and delays.
func (p *Policy) WithDelays(attempts int, base, jitter time.Duration) *Policy {
	cp := *p
	cp.Attempts = attempts
	cp.BaseDelay = base
	cp.MaxJitter = jitter
	return &cp
}

// Do runs op until it succeeds, fails with a non-retryable error, or the
// attempts are used up.
func (p *Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	_, err := Call(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Call is the value-returning form of Policy.Do.
func Call[T any](ctx context.Context, p *Policy, op func(ctx context.Context) (T, error)) (T, error) {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRateLimited
	}

	attempt := 0
	var lastErr error
	operation := func() (T, error) {
		attempt++
		res, err := op(ctx)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !retryable(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	notify := func(err error, wait time.Duration) {
		p.log.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Dur("backoff", wait).
			Msg("Rate limited, retrying")
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(p.newBackOff(), uint64(attempts-1)),
		ctx,
	)

	res, err := backoff.RetryNotifyWithData(operation, b, notify)
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return res, err
	}
	if lastErr != nil && retryable(lastErr) && attempt >= attempts {
		return res, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempt, lastErr)
	}
	return res, err
}

func (p *Policy) newBackOff() backoff.BackOff {
	jitter := p.jitter
	if jitter == nil {
		jitter = randomJitter
	}
	return &exponentialJitter{base: p.BaseDelay, maxJitter: p.MaxJitter, jitter: jitter}
}

// exponentialJitter yields base*2^n + rand[0, maxJitter) for the n-th retry.
type exponentialJitter struct {
	base      time.Duration
	maxJitter time.Duration
	attempt   int
	jitter    func(time.Duration) time.Duration
}

func (e *exponentialJitter) NextBackOff() time.Duration {
	d := Backoff(e.base, e.attempt) + e.jitter(e.maxJitter)
	e.attempt++
	return d
}

func (e *exponentialJitter) Reset() { e.attempt = 0 }

// Backoff returns base*2^attempt without jitter.
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt > 30 {
		attempt = 30
	}
	return base * time.Duration(1<<uint(attempt))
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(max)))
}
