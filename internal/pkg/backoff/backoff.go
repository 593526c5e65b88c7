// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package backoff provides exponential backoff with jitter for retrying operations.
package backoff

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// Policy configures Retry.
type Policy struct {
	// MaxAttempts is the maximum number of calls, including the first one.
	MaxAttempts int
	// InitialDelay is the delay before the second attempt.
	InitialDelay time.Duration
	// MaxDelay caps the exponentially growing delay.
	MaxDelay time.Duration
}

// DefaultPolicy returns the policy used for public HTTP APIs.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  4,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
	}
}

// Permanent wraps err so that Retry returns it immediately without retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent returns true if err was wrapped with Permanent.
func IsPermanent(err error) bool {
	var permanent *permanentError
	return errors.As(err, &permanent)
}

// Retry calls f until it succeeds, returns a permanent error, or the policy's
// maximum number of attempts is reached. Between attempts, it waits with
// exponential backoff and jitter.
//
// Permanent errors are returned unwrapped.
func Retry[T any](
	ctx context.Context,
	policy Policy,
	f func(ctx context.Context, attempt int) (T, error),
) (T, error) {
	var zero T
	maxAttempts := max(policy.MaxAttempts, 1)
	delay := policy.InitialDelay
	var lastErr error
	for attempt := range maxAttempts {
		result, err := f(ctx, attempt)
		if err == nil {
			return result, nil
		}
		var permanent *permanentError
		if errors.As(err, &permanent) {
			return zero, permanent.err
		}
		lastErr = err
		// Don't wait after the last attempt.
		if attempt == maxAttempts-1 {
			break
		}
		// Wait with jitter: random duration between delay/2 and delay.
		jitteredDelay := delay/2 + time.Duration(rand.Int64N(int64(delay/2+1)))
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(jitteredDelay):
		}
		// Exponential backoff, capped at MaxDelay.
		delay *= 2
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}
	return zero, fmt.Errorf("failed after %d attempts: %w", maxAttempts, lastErr)
}

// *** PRIVATE ***

type permanentError struct {
	err error
}

func (e *permanentError) Error() string {
	return e.err.Error()
}

func (e *permanentError) Unwrap() error {
	return e.err
}
