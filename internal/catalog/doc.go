// Package catalog holds the hand-curated rollup profiles that feed the scorer.
//
// A Profile carries four quality attributes, each in the range 0–1:
// privacy level, proof soundness, throughput capacity and overhead cost.
// Family is a display label only and never enters the score.
//
// Catalog is an immutable key → Profile table. New validates every profile
// (non-empty unique key, attributes inside [0, 1]) and the result exposes
// read-only accessors: Lookup, Keys, Profiles. Default() returns the
// process-wide built-in table (aztec, zama, soundness), built once at package
// initialisation.
//
// Lookup returns ErrUnknownProfile for keys outside the table. Callers are
// expected to restrict input to Keys() first, but the check is repeated here.
package catalog
