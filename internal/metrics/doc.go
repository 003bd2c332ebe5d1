// Package metrics records resolution and export metrics.
//
// Components take a Recorder and default to NoopRecorder, so metrics stay
// optional without nil checks at call sites. The Prometheus implementation
// registers its collectors on a caller-supplied registry; one-shot commands
// persist it with WriteTextfile for the node_exporter textfile collector,
// while the preview server exposes it over HTTP.
package metrics
