// Package fallback composes ordered attempts where the first success wins.
package fallback

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrExhausted is wrapped by First when every attempt failed.
var ErrExhausted = errors.New("all attempts failed")

// Attempt is one step of a fallback chain.
type Attempt[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Step is a convenience constructor for Attempt.
func Step[T any](name string, run func(ctx context.Context) (T, error)) Attempt[T] {
	return Attempt[T]{Name: name, Run: run}
}

// First runs attempts in order and returns the first successful result and
// the name of the attempt that produced it. Failures are logged at Warn and
// joined into the returned error when nothing succeeds.
func First[T any](ctx context.Context, logger *zap.Logger, attempts ...Attempt[T]) (T, string, error) {
	var zero T
	var errs []error
	for _, a := range attempts {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		v, err := a.Run(ctx)
		if err == nil {
			return v, a.Name, nil
		}
		if logger != nil {
			logger.Warn("Fallback attempt failed",
				zap.String("attempt", a.Name),
				zap.Error(err))
		}
		errs = append(errs, fmt.Errorf("%s: %w", a.Name, err))
	}
	return zero, "", fmt.Errorf("%w: %w", ErrExhausted, errors.Join(errs...))
}
