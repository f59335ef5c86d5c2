// Package gate evaluates threshold conditions against a score.Result so a run
// can fail a CI job when an endpoint scores too low.
package gate
