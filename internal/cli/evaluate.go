package cli

import (
	"context"
	"fmt"
	"log/slog"

	urfave "github.com/urfave/cli/v3"

	"github.com/rollupscore/rollupscore/internal/catalog"
	"github.com/rollupscore/rollupscore/internal/gate"
	"github.com/rollupscore/rollupscore/internal/probe"
	"github.com/rollupscore/rollupscore/internal/report"
	"github.com/rollupscore/rollupscore/internal/score"
)

// runEvaluate performs one probe-and-score cycle and prints the report.
// The profile is resolved before the endpoint is touched.
func runEvaluate(ctx context.Context, cmd *urfave.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	initLogging(cmd.Root().ErrWriter, cfg.LogLevel)

	profile, err := catalog.Default().Lookup(cfg.Model)
	if err != nil {
		return err
	}

	p, err := probe.New(cfg.RPC, cfg.Probe)
	if err != nil {
		return err
	}
	m := p.Measure(ctx)
	// An interrupted run is not a slow endpoint.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("probe interrupted: %w", err)
	}

	res := score.Score(profile, m.LatencyMs)
	rep := report.Report{Result: res}
	if cmd.Bool(flagExplain) {
		terms := score.Breakdown(profile, m.LatencyMs)
		rep.Terms = &terms
	}

	slog.Debug("rollupscore: evaluated",
		"rollup", res.Rollup,
		"probe_ok", m.OK(),
		"block_height", m.BlockHeight,
		"latency_ms", res.LatencyMs,
		"final_score", res.FinalScore)

	if err := report.Render(cmd.Root().Writer, cfg.Format, rep); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return gate.Check(cfg.FailIf, res)
}
