package forest

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traicing/traicing/monitoring"
	"github.com/traicing/traicing/store"
	"github.com/traicing/traicing/tracing"
)

func rec(spanID, traceID, parentID, name string) tracing.Record {
	r := tracing.Record{
		SpanID:   spanID,
		TraceID:  traceID,
		Name:     name,
		Type:     tracing.KindLLMCall,
		Metadata: map[string]any{},
		Status:   tracing.StatusSuccess,
	}
	if parentID != "" {
		r.ParentSpanID = &parentID
	}
	return r
}

func TestLoadMissingFile(t *testing.T) {
	r := NewReader(filepath.Join(t.TempDir(), "absent.jsonl"))

	records, err := r.Load()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jsonl")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	records, err := NewReader(path).Load()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")

	sink, err := store.New(path)
	require.NoError(t, err)
	require.NoError(t, sink.Append(rec("s1", "t1", "", "first")))
	require.NoError(t, sink.Close())

	// Inject garbage and a blank line between valid records.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	sink2, err := store.New(path)
	require.NoError(t, err)
	require.NoError(t, sink2.Append(rec("s2", "t1", "", "second")))
	require.NoError(t, sink2.Close())

	metrics := monitoring.NewMetricsWith(prometheus.NewRegistry())
	records, err := NewReader(path, WithMetrics(metrics)).Load()
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "first", records[0].Name)
	assert.Equal(t, "second", records[1].Name)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MalformedRecords))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RecordsLoaded))
}

func TestGroupByTracePartitionsStrictly(t *testing.T) {
	records := []tracing.Record{
		rec("s1", "trace-a", "", "a1"),
		rec("s2", "trace-b", "", "b1"),
		rec("s3", "trace-a", "s1", "a2"),
		rec("s4", "trace-b", "s2", "b2"),
	}

	groups := GroupByTrace(records)
	require.Len(t, groups, 2)

	assert.Equal(t, "trace-a", groups[0].ID)
	require.Len(t, groups[0].Records, 2)
	assert.Equal(t, "a1", groups[0].Records[0].Name)
	assert.Equal(t, "a2", groups[0].Records[1].Name)

	assert.Equal(t, "trace-b", groups[1].ID)
	require.Len(t, groups[1].Records, 2)
	assert.Equal(t, "b1", groups[1].Records[0].Name)
	assert.Equal(t, "b2", groups[1].Records[1].Name)
}

func TestGroupByTraceEmpty(t *testing.T) {
	assert.Empty(t, GroupByTrace(nil))
}

func TestBuildForestNesting(t *testing.T) {
	records := []tracing.Record{
		rec("root1", "t", "", "root1"),
		rec("c1", "t", "root1", "c1"),
		rec("c2", "t", "root1", "c2"),
		rec("g1", "t", "c1", "g1"),
		rec("root2", "t", "", "root2"),
	}

	roots := BuildForest(records)
	require.Len(t, roots, 2)

	assert.Equal(t, "root1", roots[0].Name)
	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, "c1", roots[0].Children[0].Name)
	assert.Equal(t, "c2", roots[0].Children[1].Name)
	require.Len(t, roots[0].Children[0].Children, 1)
	assert.Equal(t, "g1", roots[0].Children[0].Children[0].Name)

	assert.Equal(t, "root2", roots[1].Name)
	assert.Empty(t, roots[1].Children)
}

func TestBuildForestOutOfOrderRecords(t *testing.T) {
	// The child precedes its parent in the stream; attachment still works.
	records := []tracing.Record{
		rec("child", "t", "parent", "child"),
		rec("parent", "t", "", "parent"),
	}

	roots := BuildForest(records)
	require.Len(t, roots, 1)
	assert.Equal(t, "parent", roots[0].Name)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, "child", roots[0].Children[0].Name)
}

func TestBuildForestDanglingParentBecomesRoot(t *testing.T) {
	records := []tracing.Record{
		rec("orphan", "t", "never-written", "orphan"),
		rec("root", "t", "", "root"),
	}

	roots := BuildForest(records)
	require.Len(t, roots, 2)
	assert.Equal(t, "orphan", roots[0].Name)
	assert.Equal(t, "root", roots[1].Name)
}

func TestBuildForestIdempotent(t *testing.T) {
	records := []tracing.Record{
		rec("r", "t", "", "r"),
		rec("a", "t", "r", "a"),
		rec("b", "t", "a", "b"),
		rec("c", "t", "r", "c"),
	}

	shape := func(roots []*Node) []string {
		var out []string
		Walk(roots, func(n *Node, depth int) {
			out = append(out, fmt.Sprintf("%d:%s", depth, n.Name))
		})
		return out
	}

	first := shape(BuildForest(records))
	second := shape(BuildForest(records))
	assert.Equal(t, first, second)
	assert.Equal(t, []string{"0:r", "1:a", "2:b", "1:c"}, first)
}

func TestWalkDepthFirstOrder(t *testing.T) {
	records := []tracing.Record{
		rec("r1", "t", "", "r1"),
		rec("r1a", "t", "r1", "r1a"),
		rec("r1a1", "t", "r1a", "r1a1"),
		rec("r1b", "t", "r1", "r1b"),
		rec("r2", "t", "", "r2"),
	}

	var order []string
	Walk(BuildForest(records), func(n *Node, depth int) {
		order = append(order, n.Name)
	})

	// Each subtree fully emitted before the next sibling.
	assert.Equal(t, []string{"r1", "r1a", "r1a1", "r1b", "r2"}, order)
}

func TestEndToEndReconstruction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")

	sink, err := store.New(path)
	require.NoError(t, err)
	tracer := tracing.New(sink)

	require.NoError(t, tracer.Run("pipeline", func(*tracing.Span) error {
		if err := tracer.LogCall("embed", "query", "[0.1, 0.2]"); err != nil {
			return err
		}
		return tracer.Run("generate", func(s *tracing.Span) error {
			s.SetModel("gpt-4")
			return nil
		})
	}))
	tracer.EndTrace()

	tracer.StartTrace("second-trace")
	require.NoError(t, tracer.LogCall("solo", "in", "out"))
	require.NoError(t, sink.Close())

	records, err := NewReader(path).Load()
	require.NoError(t, err)
	require.Len(t, records, 4)

	groups := GroupByTrace(records)
	require.Len(t, groups, 2, "two traces in one sink never merge")

	roots := BuildForest(groups[0].Records)
	require.Len(t, roots, 1)
	assert.Equal(t, "pipeline", roots[0].Name)
	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, "embed", roots[0].Children[0].Name)
	assert.Equal(t, "generate", roots[0].Children[1].Name)
	assert.Equal(t, "gpt-4", roots[0].Children[1].Model)

	second := BuildForest(groups[1].Records)
	require.Len(t, second, 1)
	assert.Equal(t, "solo", second[0].Name)
	assert.Equal(t, "second-trace", second[0].TraceID)
}
