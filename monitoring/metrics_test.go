package monitoring

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveSpan(t *testing.T) {
	m := NewMetricsWith(prometheus.NewRegistry())

	m.ObserveSpan("llm_call", "success", 0.25)
	m.ObserveSpan("llm_call", "success", 0.5)
	m.ObserveSpan("llm_call", "error", 1.0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SpansTotal.WithLabelValues("llm_call", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SpansTotal.WithLabelValues("llm_call", "error")))
}

func TestObserveWrite(t *testing.T) {
	m := NewMetricsWith(prometheus.NewRegistry())

	m.ObserveWrite(nil)
	m.ObserveWrite(errors.New("disk full"))
	m.ObserveWrite(nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.WritesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WriteErrors))
}

func TestObserveLoad(t *testing.T) {
	m := NewMetricsWith(prometheus.NewRegistry())

	m.ObserveLoad(false)
	m.ObserveLoad(true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsLoaded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MalformedRecords))
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveSpan("llm_call", "success", 0.1)
		m.ObserveWrite(nil)
		m.ObserveLoad(true)
	})
}
