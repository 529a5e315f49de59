package forest

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/traicing/traicing/monitoring"
	"github.com/traicing/traicing/tracing"
)

// MalformedRecordError describes a log line that could not be decoded. Load
// skips such lines and keeps going; the error only surfaces in diagnostics.
type MalformedRecordError struct {
	Path string
	Line int
	Err  error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("forest: malformed record at %s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// Reader loads persisted span records from one log file.
type Reader struct {
	path    string
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithLogger sets the logger used for skip diagnostics.
func WithLogger(logger *zap.Logger) ReaderOption {
	return func(r *Reader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics wires a metrics collector into the reader.
func WithMetrics(m *monitoring.Metrics) ReaderOption {
	return func(r *Reader) { r.metrics = m }
}

// NewReader creates a reader over the log file at path.
func NewReader(path string, opts ...ReaderOption) *Reader {
	r := &Reader{
		path:   path,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load reads all persisted records in file order. A missing or empty file
// yields an empty result, not an error. Malformed lines are skipped with a
// diagnostic; this is a read-for-inspection path, so a bad line never aborts
// the rest of the log.
func (r *Reader) Load() ([]tracing.Record, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("forest: open %s: %w", r.path, err)
	}
	defer f.Close()

	var records []tracing.Record

	scanner := bufio.NewScanner(f)
	// Records carry arbitrary payloads; allow lines well beyond the default.
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var rec tracing.Record
		if err := sonic.Unmarshal(raw, &rec); err != nil {
			r.metrics.ObserveLoad(true)
			r.logger.Warn("skipping malformed trace record",
				zap.Error(&MalformedRecordError{Path: r.path, Line: line, Err: err}),
			)
			continue
		}

		r.metrics.ObserveLoad(false)
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("forest: read %s: %w", r.path, err)
	}

	return records, nil
}

// Trace is one trace's records in insertion order.
type Trace struct {
	ID      string
	Records []tracing.Record
}

// GroupByTrace partitions records strictly by trace id. Each group keeps its
// records in input order; groups appear in order of first appearance.
func GroupByTrace(records []tracing.Record) []Trace {
	index := make(map[string]int)
	var groups []Trace

	for _, rec := range records {
		i, ok := index[rec.TraceID]
		if !ok {
			i = len(groups)
			index[rec.TraceID] = i
			groups = append(groups, Trace{ID: rec.TraceID})
		}
		groups[i].Records = append(groups[i].Records, rec)
	}

	return groups
}

// Node is one span in a reconstructed forest, carrying its ordered children.
type Node struct {
	tracing.Record
	Children []*Node
}

// BuildForest rebuilds the parent-child forest from a flat, possibly
// out-of-order record set. Roots are records with no parent or with a parent
// absent from the set (dangling references degrade to roots rather than
// failing); every other record attaches under its parent in first-seen
// order. Pure and idempotent over a fixed input.
func BuildForest(records []tracing.Record) []*Node {
	nodes := make(map[string]*Node, len(records))
	ordered := make([]*Node, 0, len(records))

	for i := range records {
		n := &Node{Record: records[i]}
		ordered = append(ordered, n)
		if _, dup := nodes[n.SpanID]; !dup {
			nodes[n.SpanID] = n
		}
	}

	var roots []*Node
	for _, n := range ordered {
		if n.Root() {
			roots = append(roots, n)
			continue
		}
		parent, ok := nodes[*n.ParentSpanID]
		if !ok || parent == n {
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	return roots
}

// Walk visits the forest depth-first, emitting each subtree fully before its
// next sibling. This is the render order handed to display collaborators.
func Walk(roots []*Node, visit func(n *Node, depth int)) {
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		visit(n, depth)
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	for _, n := range roots {
		walk(n, 0)
	}
}
