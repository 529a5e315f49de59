/*
Package tracing records nested units of work ("spans") performed by an
application and persists them as an append-only structured log, one JSON
object per line.

# Overview

A Tracer owns one trace's identity and its current nesting stack. Spans open
with the innermost open span as their parent, and on close are finalized
(end time, duration, status) and appended to a store.Store exactly once. The
companion forest package later rebuilds the parent-child tree per trace for
inspection.

# Usage

	sink, err := store.New("traces/app.jsonl")
	if err != nil {
		return err
	}
	tracer := tracing.New(sink)

	err = tracer.Run("answer-question", func(s *tracing.Span) error {
		s.SetInput(question)
		answer, err := callModel(question)
		if err != nil {
			return err // recorded as status=error, then returned unchanged
		}
		s.SetOutput(answer)
		return nil
	})

	// One-shot convenience for completed calls
	tracer.LogCall("q", "2+2", "4", tracing.WithModel("gpt-4"))

# Obtaining a tracer

Three mutually exclusive strategies supply the "current" tracer without
threading it through every signature:

  - Global: Default() returns a lazily constructed process-wide tracer.
    Single sequential flow only; concurrent flows sharing it interleave
    their span stacks.
  - Execution-scoped: NewContext binds a tracer to a context.Context, the
    Go-native per-flow carrier. Forked goroutines inherit it; independent
    flows stay isolated. FromContext reads it back, Current falls back to
    the global tracer when none is bound.
  - Injected: construct a Tracer and pass it to collaborators explicitly.

HTTPMiddleware and GRPCUnaryInterceptor set up the execution-scoped strategy
per inbound request.

# Failure semantics

Run guarantees exactly one finalize-and-append on every exit path. A failure
inside the span is recorded (status "error", message captured) and then
returned or re-panicked unchanged; persistence failures are reported
separately and never replace the traced outcome. Closing spans out of LIFO
order is a StructuralViolation and panics.
*/
package tracing
