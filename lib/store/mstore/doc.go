// Package mstore provides an instrumented store.IStore decorator.
//
// Every operation of the wrapped store is counted, failures are counted separately and
// latencies are recorded in histograms (github.com/VictoriaMetrics/metrics). All series are
// labelled with the shard and the operation name, for example
//
//	hkv_store_operations_total{shard="100",op="get"}
//	hkv_store_errors_total{shard="100",op="set"}
//	hkv_store_operation_duration_seconds_bucket{shard="100",op="del",vmrange="..."}
//
// The metrics are exported in Prometheus text format by the http transport on GET /metrics.
package mstore
