package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/rollupscore/rollupscore/internal/catalog"
	"github.com/rollupscore/rollupscore/internal/config"
	"github.com/rollupscore/rollupscore/internal/score"
)

// Report is what one evaluation run prints.
type Report struct {
	score.Result `yaml:",inline"`

	// Terms is the unrounded breakdown, included only when requested.
	Terms *score.Terms `json:"terms,omitempty" yaml:"terms,omitempty"`
}

// Render writes rep to w in the given format.
func Render(w io.Writer, format string, rep Report) error {
	switch format {
	case config.FormatText, "":
		return renderText(w, rep)
	case config.FormatJSON:
		return encodeJSON(w, rep)
	case config.FormatYAML:
		return encodeYAML(w, rep)
	case config.FormatProm:
		return encodeProm(w, resultFamilies(rep))
	default:
		return fmt.Errorf("report: unknown format %q", format)
	}
}

// RenderProfiles writes the catalog listing to w in the given format.
func RenderProfiles(w io.Writer, format string, profiles []catalog.Profile) error {
	switch format {
	case config.FormatText, "":
		return renderProfilesText(w, profiles)
	case config.FormatJSON:
		return encodeJSON(w, profiles)
	case config.FormatYAML:
		return encodeYAML(w, profiles)
	case config.FormatProm:
		return encodeProm(w, profileFamilies(profiles))
	default:
		return fmt.Errorf("report: unknown format %q", format)
	}
}

func renderText(w io.Writer, rep Report) error {
	if _, err := fmt.Fprintf(w, "Rollup Model: %s (%s)\n", rep.Rollup, rep.Family); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Observed RPC Latency: %s ms\n", formatFloat(rep.LatencyMs)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Final Score: %s\n", formatFloat(rep.FinalScore)); err != nil {
		return err
	}
	if rep.Terms == nil {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Breakdown:")
	fmt.Fprintf(tw, "  privacy\t+%s\n", formatFloat(rep.Terms.Privacy))
	fmt.Fprintf(tw, "  soundness\t+%s\n", formatFloat(rep.Terms.Soundness))
	fmt.Fprintf(tw, "  throughput\t+%s\n", formatFloat(rep.Terms.Throughput))
	fmt.Fprintf(tw, "  overhead penalty\t-%s\n", formatFloat(rep.Terms.OverheadPenalty))
	fmt.Fprintf(tw, "  latency penalty\t-%s\n", formatFloat(rep.Terms.LatencyPenalty))
	return tw.Flush()
}

func renderProfilesText(w io.Writer, profiles []catalog.Profile) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tFAMILY\tPRIVACY\tSOUNDNESS\tTHROUGHPUT\tOVERHEAD")
	for _, p := range profiles {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Key, p.Family,
			formatFloat(p.PrivacyLevel),
			formatFloat(p.ProofSoundness),
			formatFloat(p.ThroughputCapacity),
			formatFloat(p.OverheadCost))
	}
	return tw.Flush()
}

func encodeJSON(w io.Writer, v any) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}

func encodeYAML(w io.Writer, v any) error {
	e := yaml.NewEncoder(w)
	e.SetIndent(2)
	if err := e.Encode(v); err != nil {
		return err
	}
	return e.Close()
}

// formatFloat prints the shortest representation that round-trips, keeping
// a ".0" on integral values (9999.0, not 9999).
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if math.IsInf(v, 0) || math.IsNaN(v) || strings.ContainsRune(s, '.') {
		return s
	}
	return s + ".0"
}
