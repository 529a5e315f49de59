package tracing

import "time"

// Status is the terminal outcome of a span.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Span kinds. The kind is an open string tag; these cover the common cases.
const (
	KindLLMCall     = "llm_call"
	KindToolCall    = "tool_call"
	KindChain       = "chain"
	KindHTTPRequest = "http_request"
	KindRPC         = "rpc"
)

// Record is one finalized span as persisted to the log, one JSON object per
// line. Fields mirror the on-disk format exactly.
type Record struct {
	SpanID       string         `json:"span_id"`
	TraceID      string         `json:"trace_id"`
	ParentSpanID *string        `json:"parent_span_id"`
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	Metadata     map[string]any `json:"metadata"`
	StartTime    time.Time      `json:"start_time"`
	EndTime      time.Time      `json:"end_time"`
	DurationMS   float64        `json:"duration_ms"`
	Status       Status         `json:"status"`
	Error        string         `json:"error,omitempty"`
	Input        any            `json:"input,omitempty"`
	Output       any            `json:"output,omitempty"`
	Model        string         `json:"model,omitempty"`
	Provider     string         `json:"provider,omitempty"`
}

// Root reports whether the record has no parent span.
func (r *Record) Root() bool {
	return r.ParentSpanID == nil || *r.ParentSpanID == ""
}

// Duration returns the span duration as a time.Duration.
func (r *Record) Duration() time.Duration {
	return time.Duration(r.DurationMS * float64(time.Millisecond))
}
