// Package metrics provides build observability for tripsite.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never needs nil checks:
//
//	b := site.NewBuilder(cfg) // NoopRecorder
//	b.Recorder = metrics.NewPrometheusRecorder(reg)
//
// PrometheusRecorder registers its collectors on the supplied registry and
// HTTPHandler exposes that registry; `tripsite serve` mounts it at /metrics.
package metrics
