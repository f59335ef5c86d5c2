// Package cli is the command-line boundary of rollupscore.
//
// The root command loads the optional config file, applies flags on top,
// validates the result (including the model key against the catalog), then
// runs one probe-and-score cycle and prints the report on stdout. Logs go to
// stderr as JSON. The profiles subcommand lists the catalog.
//
// Exit status: 0 on success, 1 on any error, 2 when a --fail-if condition
// fires (the report is still printed).
package cli
