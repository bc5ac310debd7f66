package randomness

import (
	"context"
	"fmt"
	"sync"
)

// TestProvider serves canned values. Rounds missing from Values fall back
// to Default; if that is empty too, the round is unavailable.
type TestProvider struct {
	Values  map[uint64][]byte
	Default []byte
	Err     error

	mu    sync.Mutex
	calls []uint64
}

var _ Provider = (*TestProvider)(nil)

func (p *TestProvider) Randomness(ctx context.Context, round uint64) ([]byte, error) {
	p.mu.Lock()
	p.calls = append(p.calls, round)
	p.mu.Unlock()

	if p.Err != nil {
		return nil, p.Err
	}

	if v, ok := p.Values[round]; ok && len(v) > 0 {
		return v, nil
	}

	if len(p.Default) > 0 {
		return p.Default, nil
	}

	return nil, fmt.Errorf("round %d: %w", round, ErrUnavailable)
}

// Calls returns the rounds requested so far, in order.
func (p *TestProvider) Calls() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uint64(nil), p.calls...)
}
