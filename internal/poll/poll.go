// Package poll blocks a goroutine until a condition over some shared state
// holds, a deadline passes, or the wait is cancelled.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout matches any *TimeoutError.
	ErrTimeout = errors.New("condition not met before timeout")

	// ErrInterrupted matches any *InterruptedError.
	ErrInterrupted = errors.New("wait interrupted")

	// ErrInvalidInterval is returned for a poll interval <= 0.
	ErrInvalidInterval = errors.New("poll interval must be positive")

	// ErrInvalidTimeout is returned for a negative timeout.
	ErrInvalidTimeout = errors.New("timeout must not be negative")
)

// Condition reports whether subject has reached the expected state.
// It is evaluated against the current state on every check.
type Condition[T any] func(subject T) bool

// TimeoutError reports that the condition was still false at the deadline.
type TimeoutError struct {
	Timeout time.Duration
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("expected condition was not achieved in timeout of [%d] millis", e.Timeout.Milliseconds())
}

// Is makes errors.Is(err, ErrTimeout) true.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// InterruptedError reports that the wait was cancelled before the condition
// held or the timeout passed. Err is the context's error.
type InterruptedError struct {
	Err     error
	Elapsed time.Duration
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("wait interrupted after %s: %v", e.Elapsed.Round(time.Millisecond), e.Err)
}

func (e *InterruptedError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrInterrupted) true.
func (e *InterruptedError) Is(target error) bool {
	return target == ErrInterrupted
}

// Millis converts an integer number of milliseconds to a time.Duration.
func Millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// ForCondition evaluates cond(subject) until it returns true.
//
// The first check happens immediately. Between checks it sleeps interval,
// clamped to the time left before the deadline, so it returns at or shortly
// after now+timeout. An interval longer than timeout is allowed and results
// in one check at the start and one at the deadline.
//
// It returns nil once the condition holds, a *TimeoutError when the deadline
// passes first, and an *InterruptedError when ctx is done first.
func ForCondition[T any](ctx context.Context, subject T, cond Condition[T], timeout, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}
	if timeout < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, timeout)
	}

	start := time.Now()
	deadline := start.Add(timeout)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		if cond(subject) {
			return nil
		}

		now := time.Now()
		remaining := deadline.Sub(now)
		if remaining <= 0 {
			return &TimeoutError{Timeout: timeout, Elapsed: now.Sub(start)}
		}

		wait := interval
		if remaining < wait {
			wait = remaining
		}
		if timer == nil {
			timer = time.NewTimer(wait)
		} else {
			timer.Reset(wait)
		}

		select {
		case <-timer.C:
		case <-ctx.Done():
			return &InterruptedError{Err: ctx.Err(), Elapsed: time.Since(start)}
		}
	}
}
