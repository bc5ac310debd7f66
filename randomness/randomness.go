// Package randomness retrieves publicly verifiable random values from an
// external beacon, keyed by round number.
package randomness

import (
	"context"
	"errors"
)

// ErrUnavailable means the beacon has not produced a value for the round yet,
// or produced an empty one.
var ErrUnavailable = errors.New("randomness unavailable")

type Provider interface {
	Randomness(ctx context.Context, round uint64) ([]byte, error)
}
