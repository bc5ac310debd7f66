package trc

import (
	"context"
	"testing"
)

func TestPrefixContextf(t *testing.T) {
	ctx := context.Background()
	ctx = PrefixContextf(ctx, "[%s]", "BlowCandle")
	ctx = PrefixContextf(ctx, "[auction %d]", 7)

	if want, have := "[BlowCandle] [auction 7] ", prefix(ctx); want != have {
		t.Fatalf("want %q, have %q", want, have)
	}
}

func TestNoTrace(t *testing.T) {
	// Must be safe to call without a trace in the context.
	ctx := context.Background()
	Tracef(ctx, "hello %d", 1)
	LazyTracef(ctx, "hello %d", 2)
	Errorf(ctx, "hello %d", 3)
}

func TestCreate(t *testing.T) {
	ctx, finish := Create(context.Background(), "test")
	defer finish()

	Tracef(ctx, "traced line")
	Errorf(ctx, "traced error")
}
