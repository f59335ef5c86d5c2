// Package score combines a catalog.Profile with a measured RPC latency into
// a composite suitability score.
//
// Score(profile, latencyMs) is pure and total:
// privacy(35%) + soundness(40%) + throughput(20%) - overhead(25%) - latency,
// where the latency penalty is latencyMs/2000 clamped to at most 0.20
// (saturated from 400 ms upward). The best reachable score is 0.95.
//
// Breakdown exposes the unrounded terms; Score rounds the latency to 2 and
// the final score to 4 decimal places.
package score
