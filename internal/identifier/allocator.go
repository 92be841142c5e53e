// Package identifier allocates the 4-digit numbers callers use to refer to
// their orders and reservations over the phone.
package identifier

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"

	apperrors "tableline/internal/errors"

	"github.com/google/uuid"
)

const (
	// MaxAttempts bounds the number of candidates drawn per allocation.
	MaxAttempts = 100

	minNumber = 1000
	maxNumber = 9999
)

// ExistsFunc reports whether number is already used by a record of the
// restaurant. It is expected to be an indexed point lookup.
type ExistsFunc func(ctx context.Context, restaurantID uuid.UUID, number string) (bool, error)

// Allocator draws random candidates until one is unused.
//
// Allocation is read-then-decide: the caller inserts afterwards, so two
// concurrent allocations can pick the same number.
// TODO: close the gap with a unique (restaurant_id, number) index and a
// conditional insert that retries on conflict.
type Allocator struct {
	maxAttempts int
	intn        func(n int) int
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithMaxAttempts overrides MaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(a *Allocator) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

// WithRand replaces the random source. intn must return a value in [0, n).
func WithRand(intn func(n int) int) Option {
	return func(a *Allocator) {
		a.intn = intn
	}
}

// New creates an Allocator.
func New(opts ...Option) *Allocator {
	a := &Allocator{
		maxAttempts: MaxAttempts,
		intn:        rand.IntN,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate returns a number in 1000-9999 for which exists reported false.
// It fails with ErrExhaustedRetries once every attempt collided.
func (a *Allocator) Allocate(ctx context.Context, restaurantID uuid.UUID, exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidate := strconv.Itoa(minNumber + a.intn(maxNumber-minNumber+1))

		taken, err := exists(ctx, restaurantID, candidate)
		if err != nil {
			return "", fmt.Errorf("check identifier %s: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}

	return "", apperrors.New(apperrors.ErrExhaustedRetries, "could not generate unique ID")
}
