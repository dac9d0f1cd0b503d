// Package metrics exposes run, stage and content fan-out instrumentation.
// Recorder is always injected; NoopRecorder is the default and the
// PrometheusRecorder writes a node-exporter textfile at the end of a run.
package metrics
