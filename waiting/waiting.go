// Package waiting holds the bounded polling loops used to tolerate UI state
// that settles asynchronously.
//
// Every loop evaluates its condition once and then retries up to Attempts
// more times, sleeping WaitTime between evaluations. An exhausted loop has
// therefore made Attempts+1 evaluations and slept Attempts times; there is no
// sleep after the final evaluation.
package waiting

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultAttempts = 50
	DefaultWaitTime = 100 * time.Millisecond
)

// ErrTimeout matches every *TimeoutError via errors.Is.
var ErrTimeout = errors.New("wait exhausted")

// TimeoutError reports an exhausted or cancelled wait.
type TimeoutError struct {
	Message  string
	Attempts int
	// Evaluations is how many times the condition ran before the wait gave up.
	Evaluations int
	// Cancelled is set when the context ended the wait before the attempts
	// ran out.
	Cancelled bool
	// Cause is the last failure seen by Retry, the context cause when the
	// wait was cancelled, or both joined.
	Cause error
}

func (e *TimeoutError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *TimeoutError) Unwrap() error { return e.Cause }

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

type options struct {
	attempts int
	waitTime time.Duration
	message  string
}

// Option configures a single wait.
type Option func(*options)

// WithAttempts sets the number of retries after the first evaluation.
func WithAttempts(n int) Option {
	return func(o *options) { o.attempts = max(n, 0) }
}

// WithWaitTime sets the pause between evaluations.
func WithWaitTime(d time.Duration) Option {
	return func(o *options) { o.waitTime = max(d, 0) }
}

// WithMessage replaces the default failure message. The attempt count is
// appended to it.
func WithMessage(msg string) Option {
	return func(o *options) { o.message = msg }
}

func build(opts []Option) options {
	o := options{attempts: DefaultAttempts, waitTime: DefaultWaitTime}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// outcome is what a loop ended with.
type outcome struct {
	done        bool
	evaluations int
	last        error
	cancelled   error
}

// loop runs try until it reports done, the attempts run out or ctx ends.
func loop(ctx context.Context, o options, try func() (bool, error)) outcome {
	var r outcome
	for i := 0; ; i++ {
		if err := context.Cause(ctx); err != nil {
			r.cancelled = err
			return r
		}
		done, err := try()
		r.evaluations++
		if done {
			r.done = true
			return r
		}
		if err != nil {
			r.last = err
		}
		if i >= o.attempts {
			return r
		}
		if err := sleep(ctx, o.waitTime); err != nil {
			r.cancelled = err
			return r
		}
	}
}

// failure builds the error for a loop that did not finish. verb describes
// the wait, as in "failed waiting".
func (o options) failure(verb string, r outcome) *TimeoutError {
	e := &TimeoutError{
		Attempts:    o.attempts,
		Evaluations: r.evaluations,
		Cancelled:   r.cancelled != nil,
		Cause:       r.last,
	}
	switch {
	case r.cancelled != nil && o.message != "":
		e.Message = fmt.Sprintf("%s (cancelled after %d of %d attempts)", o.message, r.evaluations, o.attempts+1)
	case r.cancelled != nil:
		e.Message = fmt.Sprintf("%s: cancelled after %d of %d attempts", verb, r.evaluations, o.attempts+1)
	case o.message != "":
		e.Message = fmt.Sprintf("%s (%d attempts)", o.message, o.attempts)
	default:
		e.Message = fmt.Sprintf("%s for %d attempts", verb, o.attempts)
	}
	if r.cancelled != nil {
		if e.Cause == nil {
			e.Cause = r.cancelled
		} else {
			e.Cause = errors.Join(r.last, r.cancelled)
		}
	}
	return e
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return context.Cause(ctx)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

func cancelled(ctx context.Context) bool {
	return ctx.Err() != nil
}

// Until waits for cond to return true.
func Until(ctx context.Context, cond func() bool, opts ...Option) error {
	return UntilOr(ctx, cond, nil, opts...)
}

// UntilOr is Until, but on exhaustion returns whatever onFail returns
// instead of a *TimeoutError. A nil onFail behaves like Until.
func UntilOr(ctx context.Context, cond func() bool, onFail func() error, opts ...Option) error {
	o := build(opts)
	r := loop(ctx, o, func() (bool, error) { return cond(), nil })
	if r.done {
		return nil
	}
	if onFail != nil && !cancelled(ctx) {
		return onFail()
	}
	return o.failure("failed waiting", r)
}

// For calls produce until it reports a value and returns that value.
func For[T any](ctx context.Context, produce func() (T, bool), opts ...Option) (T, error) {
	return ForOr(ctx, produce, nil, opts...)
}

// ForOr is For, but on exhaustion delegates to onFail, which may supply a
// fallback value or an error of its own. A nil onFail behaves like For.
func ForOr[T any](ctx context.Context, produce func() (T, bool), onFail func() (T, error), opts ...Option) (T, error) {
	o := build(opts)
	var value T
	r := loop(ctx, o, func() (bool, error) {
		v, ok := produce()
		if ok {
			value = v
		}
		return ok, nil
	})
	if r.done {
		return value, nil
	}
	if onFail != nil && !cancelled(ctx) {
		return onFail()
	}
	var zero T
	return zero, o.failure("failed to produce value", r)
}

// Retry runs block until it returns nil. Errors are treated as retryable;
// when the attempts run out the last one is attached as the cause. A
// cancelled wait keeps the last failure alongside the context cause.
func Retry(ctx context.Context, block func() error, opts ...Option) error {
	o := build(opts)
	r := loop(ctx, o, func() (bool, error) {
		if err := block(); err != nil {
			return false, err
		}
		return true, nil
	})
	if r.done {
		return nil
	}
	return o.failure("failed validation", r)
}

// NonZero adapts a constructor that signals absence with the zero value,
// such as a nil pointer or an empty string, for use with For.
func NonZero[T comparable](produce func() T) func() (T, bool) {
	return func() (T, bool) {
		var zero T
		v := produce()
		return v, v != zero
	}
}
