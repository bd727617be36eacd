// Package metrics instruments reductions with Prometheus collectors and reads
// runtime memory statistics.
//
// Each Metrics value owns a private registry, so several instances (one per
// test, for example) never collide on metric names.
package metrics
