// Package report renders evaluation results and the profile catalog.
//
// Formats: text (the three-line human summary), json, yaml, and prom, the
// Prometheus text exposition format, suitable for the node_exporter textfile
// collector.
package report
