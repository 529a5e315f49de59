package tracing

import (
	"context"
	"sync"

	"github.com/traicing/traicing/internal/logging"
	"github.com/traicing/traicing/store"
)

// DefaultLogFile is where the global tracer writes when no configuration is
// supplied.
const DefaultLogFile = ".traicing/trace.jsonl"

// Context key for the execution-scoped tracer.
type contextKey string

const tracerKey contextKey = "tracer"

var (
	defaultMu     sync.Mutex
	defaultTracer *Tracer
)

// Default returns the process-wide tracer, constructing it lazily on first
// access with the default log file.
//
// The singleton is shared by every caller that never binds its own tracer.
// Its span stack follows the single-flow contract: genuinely concurrent
// flows pushing and popping it simultaneously will interleave parentage.
// Flows that need isolation bind a tracer per flow with NewContext or inject
// one explicitly.
func Default() *Tracer {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultTracer == nil {
		// DefaultLogFile is non-empty, so store.New cannot fail here.
		sink, _ := store.New(DefaultLogFile)
		defaultTracer = New(sink, WithLogger(logging.NewDefault()))
	}
	return defaultTracer
}

// SetDefault replaces the process-wide tracer. Passing nil resets it so the
// next Default call constructs a fresh one.
func SetDefault(t *Tracer) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultTracer = t
}

// NewContext returns a context carrying t as the tracer for the current
// logical flow. The binding is visible to every call receiving the returned
// context, including goroutines forked with it, and is invisible to flows
// holding independent contexts. Bind nil to clear an inherited tracer, e.g.
// before handing a context to a pooled worker.
func NewContext(ctx context.Context, t *Tracer) context.Context {
	return context.WithValue(ctx, tracerKey, t)
}

// FromContext returns the tracer bound to ctx, if any.
func FromContext(ctx context.Context) (*Tracer, bool) {
	t, ok := ctx.Value(tracerKey).(*Tracer)
	if !ok || t == nil {
		return nil, false
	}
	return t, true
}

// Current resolves the tracer for ctx: the execution-scoped tracer when one
// is bound, else the global singleton. Convenience functions build on this
// fallback so code works under either strategy unchanged.
func Current(ctx context.Context) *Tracer {
	if t, ok := FromContext(ctx); ok {
		return t
	}
	return Default()
}

// TraceCall records a completed call on the resolved tracer for ctx.
func TraceCall(ctx context.Context, name string, input, output any, opts ...SpanOption) error {
	return Current(ctx).LogCall(name, input, output, opts...)
}
