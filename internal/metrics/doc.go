// Package metrics provides observability hooks for sync runs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed anywhere:
//
//	runner := pipeline.NewRunner(cfg) // NoopRecorder
//	runner = pipeline.NewRunner(cfg, pipeline.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// docsync is a one-shot command, so the Prometheus recorder is exported through
// the node exporter textfile collector (WriteTextfile) rather than an HTTP
// endpoint.
package metrics
