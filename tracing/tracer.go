package tracing

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/traicing/traicing/internal/shared/id"
	"github.com/traicing/traicing/monitoring"
	"github.com/traicing/traicing/store"
)

// Tracer records nested spans for one logical flow and appends each
// finalized span to a log store.
//
// A tracer's span stack belongs to exactly one sequential flow at a time.
// Concurrent flows each construct their own tracer (or bind one per flow via
// NewContext); only the underlying store is shared safely.
type Tracer struct {
	sink    *store.Store
	logger  *zap.Logger
	metrics *monitoring.Metrics
	now     func() time.Time

	traceID string
	stack   []*Span
}

// Option configures a Tracer.
type Option func(*Tracer)

// WithLogger sets the logger for the tracer's own diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(t *Tracer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithMetrics wires a metrics collector into the tracer.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(t *Tracer) { t.metrics = m }
}

// WithClock overrides the tracer's clock. Enables deterministic timestamps
// in tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracer) {
		if now != nil {
			t.now = now
		}
	}
}

// New creates a tracer writing finalized spans to sink.
func New(sink *store.Store, opts ...Option) *Tracer {
	t := &Tracer{
		sink:   sink,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// StartTrace sets the active trace id, generating a fresh one when traceID
// is empty, and returns it. The span stack is left untouched.
func (t *Tracer) StartTrace(traceID string) string {
	if traceID == "" {
		traceID = id.NewTraceID().String()
	}
	t.traceID = traceID
	return traceID
}

// EndTrace clears the active trace id and the span stack. Idempotent; ending
// with no active trace is a no-op. Records already written stay as they are.
func (t *Tracer) EndTrace() {
	t.traceID = ""
	t.stack = nil
}

// TraceID returns the active trace id, or "" when no trace is active.
func (t *Tracer) TraceID() string {
	return t.traceID
}

// SpanOption configures a span at open time (or, for LogCall, before close).
type SpanOption func(*Span)

// WithKind sets the span's kind tag. Defaults to KindLLMCall.
func WithKind(kind string) SpanOption {
	return func(s *Span) { s.rec.Type = kind }
}

// WithMetadata merges the given metadata into the span.
func WithMetadata(metadata map[string]any) SpanOption {
	return func(s *Span) {
		for k, v := range metadata {
			s.rec.Metadata[k] = v
		}
	}
}

// WithModel tags the span with a model name.
func WithModel(model string) SpanOption {
	return func(s *Span) { s.rec.Model = model }
}

// WithProvider tags the span with a provider name.
func WithProvider(provider string) SpanOption {
	return func(s *Span) { s.rec.Provider = provider }
}

// WithError marks the span's outcome as an error before it closes.
func WithError(err error) SpanOption {
	return func(s *Span) { s.failure = err }
}

// StartSpan opens a span whose parent is the currently innermost open span,
// or none when the stack is empty. A trace is started implicitly if none is
// active. The caller must finalize the returned handle with End, innermost
// first.
func (t *Tracer) StartSpan(name string, opts ...SpanOption) *Span {
	if t.traceID == "" {
		t.StartTrace("")
	}

	var parent *string
	if n := len(t.stack); n > 0 {
		pid := t.stack[n-1].rec.SpanID
		parent = &pid
	}

	start := t.now()
	s := &Span{
		tracer: t,
		start:  start,
		rec: Record{
			SpanID:       id.NewSpanID().String(),
			TraceID:      t.traceID,
			ParentSpanID: parent,
			Name:         name,
			Type:         KindLLMCall,
			Metadata:     make(map[string]any),
			StartTime:    start.UTC(),
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	t.stack = append(t.stack, s)
	return s
}

// Run executes fn inside a span, guaranteeing exactly one finalize-and-append
// on every exit path. An error returned by fn (or a panic raised by it) sets
// the record's status to error with the message captured, and is then
// returned (or re-raised) unchanged: tracing never masks the traced failure.
// A persistence failure is surfaced only when fn itself succeeded.
func (t *Tracer) Run(name string, fn func(*Span) error, opts ...SpanOption) error {
	span := t.StartSpan(name, opts...)

	defer func() {
		if r := recover(); r != nil {
			span.Fail(fmt.Errorf("panic: %v", r))
			_ = span.End() // write failures are logged inside End
			panic(r)
		}
	}()

	if err := fn(span); err != nil {
		span.Fail(err)
		_ = span.End()
		return err
	}
	return span.End()
}

// LogCall records a completed call as a single span of kind "llm_call" with
// its input and output attached. Status is success unless WithError is given.
func (t *Tracer) LogCall(name string, input, output any, opts ...SpanOption) error {
	opts = append([]SpanOption{WithKind(KindLLMCall)}, opts...)
	span := t.StartSpan(name, opts...)
	span.SetInput(input)
	span.SetOutput(output)
	return span.End()
}

// write appends a finalized record and reports it to metrics. Persistence
// failures are logged and returned as-is; they are never folded into the
// traced outcome.
func (t *Tracer) write(rec *Record, elapsed time.Duration) error {
	t.metrics.ObserveSpan(rec.Type, string(rec.Status), elapsed.Seconds())

	if err := t.sink.Append(rec); err != nil {
		t.logger.Error("failed to persist span record",
			zap.String("trace_id", rec.TraceID),
			zap.String("span_id", rec.SpanID),
			zap.String("name", rec.Name),
			zap.Error(err),
		)
		return err
	}

	t.logger.Debug("span recorded",
		zap.String("trace_id", rec.TraceID),
		zap.String("span_id", rec.SpanID),
		zap.String("name", rec.Name),
		zap.String("status", string(rec.Status)),
		zap.Float64("duration_ms", rec.DurationMS),
	)
	return nil
}
