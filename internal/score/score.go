package score

import (
	"math"
	"strconv"

	"github.com/rollupscore/rollupscore/internal/catalog"
)

// Weight constants for the composite score formula.
// The three positive weights sum to 0.95, so a perfect profile at zero
// latency scores 0.95, never 1.0.
const (
	weightPrivacy    = 0.35
	weightSoundness  = 0.40
	weightThroughput = 0.20
	weightOverhead   = 0.25
)

// Latency penalty parameters: latencyMs / LatencyDivisorMs, capped at MaxLatencyPenalty.
const (
	LatencyDivisorMs  = 2000.0
	MaxLatencyPenalty = 0.20

	// SaturationLatencyMs is the latency at which the penalty reaches its cap.
	SaturationLatencyMs = MaxLatencyPenalty * LatencyDivisorMs
)

// MaxScore is the highest reachable final score.
const MaxScore = weightPrivacy + weightSoundness + weightThroughput

// Output rounding, in decimal places.
const (
	latencyDecimals = 2
	scoreDecimals   = 4
)

// Result is the per-invocation score record handed to the report layer.
type Result struct {
	Rollup     string  `json:"rollup" yaml:"rollup"`
	Family     string  `json:"family" yaml:"family"`
	LatencyMs  float64 `json:"latencyMs" yaml:"latencyMs"`
	FinalScore float64 `json:"finalScore" yaml:"finalScore"`
}

// Terms is the unrounded breakdown of one score computation.
type Terms struct {
	Privacy         float64 `json:"privacy" yaml:"privacy"`
	Soundness       float64 `json:"soundness" yaml:"soundness"`
	Throughput      float64 `json:"throughput" yaml:"throughput"`
	OverheadPenalty float64 `json:"overheadPenalty" yaml:"overhead_penalty"`
	LatencyPenalty  float64 `json:"latencyPenalty" yaml:"latency_penalty"`
	Final           float64 `json:"final" yaml:"final"`
}

// Breakdown computes every term of the formula at full precision:
//
//	final = privacy*0.35 + soundness*0.40 + throughput*0.20
//	      - overhead*0.25 - min(0.20, latencyMs/2000)
//
// Attribute ranges are not checked here; the catalog validates them.
// Negative latency flows through the same linear formula.
func Breakdown(p catalog.Profile, latencyMs float64) Terms {
	t := Terms{
		Privacy:         p.PrivacyLevel * weightPrivacy,
		Soundness:       p.ProofSoundness * weightSoundness,
		Throughput:      p.ThroughputCapacity * weightThroughput,
		OverheadPenalty: p.OverheadCost * weightOverhead,
		LatencyPenalty:  LatencyPenalty(latencyMs),
	}
	t.Final = t.Privacy + t.Soundness + t.Throughput - t.OverheadPenalty - t.LatencyPenalty
	return t
}

// Score combines a profile and a measured latency into a Result.
// LatencyMs is rounded to 2 decimals and FinalScore to 4; rounding happens
// only on the way out.
func Score(p catalog.Profile, latencyMs float64) Result {
	t := Breakdown(p, latencyMs)
	return Result{
		Rollup:     p.Key,
		Family:     p.Family,
		LatencyMs:  round(latencyMs, latencyDecimals),
		FinalScore: round(t.Final, scoreDecimals),
	}
}

// LatencyPenalty returns min(0.20, latencyMs/2000).
func LatencyPenalty(latencyMs float64) float64 {
	return math.Min(MaxLatencyPenalty, latencyMs/LatencyDivisorMs)
}

// round rounds the stored value of v to the given number of decimals, ties
// to even. Scaling by a power of ten first would round twice.
func round(v float64, decimals int) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', decimals, 64), 64)
	return r
}
