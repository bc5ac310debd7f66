// Package trc is a thin request-tracing layer over golang.org/x/net/trace.
// Traces are visible at /debug/requests on the debug server.
package trc

import (
	"context"
	"fmt"

	"golang.org/x/net/trace"
)

type prefixKey struct{}

// Create starts a new trace and returns a context carrying it, along with a
// finish func that must be called when the traced operation completes.
func Create(ctx context.Context, family string) (context.Context, func()) {
	tr := trace.New(family, family)
	return trace.NewContext(ctx, tr), tr.Finish
}

// PrefixContextf returns a context where every subsequent trace line is
// prefixed with the given string.
func PrefixContextf(ctx context.Context, format string, args ...any) context.Context {
	return context.WithValue(ctx, prefixKey{}, prefix(ctx)+fmt.Sprintf(format, args...)+" ")
}

func Tracef(ctx context.Context, format string, args ...any) {
	tr, ok := trace.FromContext(ctx)
	if !ok {
		return
	}
	tr.LazyPrintf("%s%s", prefix(ctx), fmt.Sprintf(format, args...))
}

// LazyTracef defers formatting until the trace is rendered.
func LazyTracef(ctx context.Context, format string, args ...any) {
	tr, ok := trace.FromContext(ctx)
	if !ok {
		return
	}
	tr.LazyPrintf(prefix(ctx)+format, args...)
}

// Errorf traces the message and marks the whole trace as errored.
func Errorf(ctx context.Context, format string, args ...any) {
	tr, ok := trace.FromContext(ctx)
	if !ok {
		return
	}
	tr.LazyPrintf("%sERROR: %s", prefix(ctx), fmt.Sprintf(format, args...))
	tr.SetError()
}

func prefix(ctx context.Context) string {
	s, _ := ctx.Value(prefixKey{}).(string)
	return s
}
