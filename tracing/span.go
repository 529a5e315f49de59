package tracing

import (
	"time"
)

// StructuralViolation reports misuse of the span stack: closing a span out of
// LIFO order, closing with no span open, or touching a span after it closed.
// These are programmer errors and are raised as panics rather than silently
// mis-attributing parentage.
type StructuralViolation struct {
	Reason string
}

func (v *StructuralViolation) Error() string {
	return "tracing: structural violation: " + v.Reason
}

// Span is the scoped handle for one open unit of work. It is created by
// Tracer.StartSpan, mutated only by the scope that opened it, and finalized
// exactly once by End. A closed span is immutable.
type Span struct {
	tracer  *Tracer
	rec     Record
	start   time.Time // monotonic, drives duration_ms
	failure error
	closed  bool
}

// ID returns the span id.
func (s *Span) ID() string { return s.rec.SpanID }

// TraceID returns the id of the trace this span belongs to.
func (s *Span) TraceID() string { return s.rec.TraceID }

// SetInput attaches the input payload.
func (s *Span) SetInput(v any) {
	s.mustOpen("set input")
	s.rec.Input = v
}

// SetOutput attaches the output payload.
func (s *Span) SetOutput(v any) {
	s.mustOpen("set output")
	s.rec.Output = v
}

// SetModel tags the span with a model name (e.g. "gpt-4").
func (s *Span) SetModel(model string) {
	s.mustOpen("set model")
	s.rec.Model = model
}

// SetProvider tags the span with a provider name (e.g. "openai").
func (s *Span) SetProvider(provider string) {
	s.mustOpen("set provider")
	s.rec.Provider = provider
}

// SetMeta sets one metadata key.
func (s *Span) SetMeta(key string, value any) {
	s.mustOpen("set metadata")
	s.rec.Metadata[key] = value
}

// Fail marks the span's outcome as an error. The last call wins. The failure
// itself is never swallowed here; callers still propagate it as usual.
func (s *Span) Fail(err error) {
	s.mustOpen("fail")
	s.failure = err
}

// End finalizes the span and appends its record to the log store. It must be
// called exactly once, on the innermost open span. The returned error reports
// a persistence failure only; the span's recorded status is driven solely by
// Fail.
func (s *Span) End() error {
	s.mustOpen("close")

	t := s.tracer
	n := len(t.stack)
	if n == 0 {
		panic(&StructuralViolation{Reason: "closing span " + s.rec.Name + " with no span open"})
	}
	if top := t.stack[n-1]; top != s {
		panic(&StructuralViolation{
			Reason: "out-of-order close: " + s.rec.Name + " closed while " + top.rec.Name + " is innermost",
		})
	}
	t.stack = t.stack[:n-1]
	s.closed = true

	end := t.now()
	if end.Before(s.start) {
		// A clock stepping backwards must not produce end < start.
		end = s.start
	}
	s.rec.EndTime = end.UTC()
	elapsed := end.Sub(s.start)
	s.rec.DurationMS = float64(elapsed) / float64(time.Millisecond)

	if s.failure != nil {
		s.rec.Status = StatusError
		s.rec.Error = s.failure.Error()
	} else {
		s.rec.Status = StatusSuccess
	}

	return t.write(&s.rec, elapsed)
}

func (s *Span) mustOpen(op string) {
	if s.closed {
		panic(&StructuralViolation{Reason: op + " on closed span " + s.rec.Name})
	}
}
