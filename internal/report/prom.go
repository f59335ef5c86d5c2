package report

import (
	"io"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/rollupscore/rollupscore/internal/catalog"
)

// Metric names in the prom format.
const (
	metricFinalScore = "rollupscore_final_score"
	metricLatency    = "rollupscore_rpc_latency_ms"
	metricTerm       = "rollupscore_score_term"
	metricAttribute  = "rollupscore_profile_attribute"
)

// encodeProm writes families in the Prometheus text exposition format, as
// read by the node_exporter textfile collector.
func encodeProm(w io.Writer, families []*dto.MetricFamily) error {
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

func resultFamilies(rep Report) []*dto.MetricFamily {
	labels := []*dto.LabelPair{
		label("family", rep.Family),
		label("rollup", rep.Rollup),
	}
	families := []*dto.MetricFamily{
		gaugeFamily(metricFinalScore, "Composite rollup suitability score.",
			gauge(rep.FinalScore, labels...)),
		gaugeFamily(metricLatency, "Observed RPC round-trip latency in milliseconds.",
			gauge(rep.LatencyMs, labels...)),
	}
	if rep.Terms == nil {
		return families
	}

	terms := []struct {
		name string
		v    float64
	}{
		{"privacy", rep.Terms.Privacy},
		{"soundness", rep.Terms.Soundness},
		{"throughput", rep.Terms.Throughput},
		{"overhead_penalty", rep.Terms.OverheadPenalty},
		{"latency_penalty", rep.Terms.LatencyPenalty},
	}
	var metrics []*dto.Metric
	for _, t := range terms {
		metrics = append(metrics, gauge(t.v, label("family", rep.Family), label("rollup", rep.Rollup), label("term", t.name)))
	}
	return append(families, gaugeFamily(metricTerm, "Unrounded score term.", metrics...))
}

func profileFamilies(profiles []catalog.Profile) []*dto.MetricFamily {
	var metrics []*dto.Metric
	for _, p := range profiles {
		attrs := []struct {
			name string
			v    float64
		}{
			{"privacy_level", p.PrivacyLevel},
			{"proof_soundness", p.ProofSoundness},
			{"throughput_capacity", p.ThroughputCapacity},
			{"overhead_cost", p.OverheadCost},
		}
		for _, a := range attrs {
			metrics = append(metrics, gauge(a.v, label("attribute", a.name), label("family", p.Family), label("rollup", p.Key)))
		}
	}
	return []*dto.MetricFamily{
		gaugeFamily(metricAttribute, "Static rollup profile attribute in [0, 1].", metrics...),
	}
}

func gaugeFamily(name, help string, metrics ...*dto.Metric) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: metrics,
	}
}

// gauge builds one sample; labels must already be sorted by name.
func gauge(v float64, labels ...*dto.LabelPair) *dto.Metric {
	return &dto.Metric{
		Label: labels,
		Gauge: &dto.Gauge{Value: proto.Float64(v)},
	}
}

func label(name, value string) *dto.LabelPair {
	return &dto.LabelPair{Name: proto.String(name), Value: proto.String(value)}
}
