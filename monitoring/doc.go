/*
Package monitoring provides Prometheus metrics for the tracing library.

# Overview

This package tracks span finalization, log store writes, and record loading
so that applications embedding the tracer can watch its health alongside
their own metrics.

# Features

- Span metrics (count by type/status, duration histogram)
- Store metrics (successful and failed appends)
- Load metrics (records loaded, malformed lines skipped)

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Wire into a tracer and store
	sink, _ := store.New("trace.jsonl", store.WithMetrics(metrics))
	tracer := tracing.New(sink, tracing.WithMetrics(metrics))

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	http.Handle("/metrics", promhttp.Handler())

All metrics use a nil-safe receiver: components constructed without a
collector simply skip observation.
*/
package monitoring
