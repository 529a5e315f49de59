// Package id provides centralized ID generation for the tracing library.
//
// Two ID domains exist:
//   - Trace IDs: opaque UUIDv4 strings, compatible with externally supplied
//     request/correlation IDs
//   - Span IDs: prefixed ULIDs (span_*), lexicographically sortable by creation
//     time so a raw log sorts roughly in span-open order
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// TraceID identifies one logical execution (a trace).
type TraceID string

// SpanID identifies a single span within a trace.
type SpanID string

// SpanPrefix marks span IDs in logs for easy visual identification.
const SpanPrefix = "span"

// Generator generates prefixed ULIDs.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator with cryptographically secure entropy.
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewTraceID generates a new trace ID.
func NewTraceID() TraceID {
	return TraceID(uuid.NewString())
}

// NewSpanID generates a new span ID.
func NewSpanID() SpanID {
	return SpanID(Default().GenerateWithPrefix(SpanPrefix))
}

func (id TraceID) String() string { return string(id) }
func (id SpanID) String() string  { return string(id) }

// SpanTimestamp extracts the creation time embedded in a span ID.
func SpanTimestamp(id SpanID) (time.Time, error) {
	s, ok := strings.CutPrefix(string(id), SpanPrefix+"_")
	if !ok {
		return time.Time{}, fmt.Errorf("span id %q has no %s_ prefix", id, SpanPrefix)
	}
	parsed, err := ulid.Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
