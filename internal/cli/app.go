package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	urfave "github.com/urfave/cli/v3"

	"github.com/rollupscore/rollupscore/internal/catalog"
	"github.com/rollupscore/rollupscore/internal/config"
	"github.com/rollupscore/rollupscore/internal/gate"
)

const (
	name = "rollupscore"

	flagConfig         = "config"
	flagRPC            = "rpc"
	flagModel          = "model"
	flagFormat         = "format"
	flagJSON           = "json"
	flagTimeout        = "timeout"
	flagFailureLatency = "failure-latency"
	flagMethod         = "method"
	flagFailIf         = "fail-if"
	flagExplain        = "explain"
	flagLogLevel       = "log-level"
	flagDebug          = "debug"

	exitError     = 1
	exitGateFired = 2
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

// Execute creates and runs the CLI application.
func Execute() {
	initLogging(os.Stderr, config.DefaultLogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := NewCommand().Run(ctx, os.Args); err != nil {
		slog.Error("rollupscore: fatal error", "err", err)
		cancel()
		if errors.Is(err, gate.ErrGateFired) {
			os.Exit(exitGateFired)
		}
		os.Exit(exitError)
	}
}

// NewCommand returns the root command. Flags are built per call so that
// separate runs never share parsed state.
func NewCommand() *urfave.Command {
	return &urfave.Command{
		Name:            name,
		Version:         fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Usage:           "Score a rollup profile against the live latency of an RPC endpoint",
		HideHelpCommand: true,
		Flags:           newFlags(),
		Commands: []*urfave.Command{
			newProfilesCmd(),
		},
		Action: runEvaluate,
	}
}

func newFlags() []urfave.Flag {
	return []urfave.Flag{
		&urfave.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "Path to a YAML config file (optional)",
			Sources: urfave.EnvVars("ROLLUPSCORE_CONFIG"),
		},
		&urfave.StringFlag{
			Name:    flagRPC,
			Usage:   "RPC endpoint URL to probe (http, https, ws or wss)",
			Sources: urfave.EnvVars("ROLLUPSCORE_RPC"),
		},
		&urfave.StringFlag{
			Name:    flagModel,
			Aliases: []string{"m"},
			Usage:   fmt.Sprintf("Rollup profile to score %v", catalog.Default().Keys()),
			Value:   config.DefaultModel,
			Sources: urfave.EnvVars("ROLLUPSCORE_MODEL"),
		},
		&urfave.StringFlag{
			Name:  flagFormat,
			Usage: "Output format [text, json, yaml, prom]",
			Value: config.DefaultFormat,
		},
		&urfave.BoolFlag{
			Name:  flagJSON,
			Usage: "Shorthand for --format json",
		},
		&urfave.DurationFlag{
			Name:  flagTimeout,
			Usage: "Upper bound for the RPC round-trip",
			Value: config.DefaultProbeTimeout,
		},
		&urfave.FloatFlag{
			Name:  flagFailureLatency,
			Usage: "Latency in ms reported when the endpoint cannot be measured",
			Value: config.DefaultFailureLatencyMs,
		},
		&urfave.StringFlag{
			Name:  flagMethod,
			Usage: "JSON-RPC method used as the probe query",
			Value: config.DefaultMethod,
		},
		&urfave.StringSliceFlag{
			Name:  flagFailIf,
			Usage: "Exit with status 2 when a condition fires, e.g. \"final_score < 0.5\" (repeatable)",
		},
		&urfave.BoolFlag{
			Name:  flagExplain,
			Usage: "Include the unrounded score terms in the output",
		},
		&urfave.StringFlag{
			Name:  flagLogLevel,
			Usage: "Log level [debug, info, warn, error]",
			Value: config.DefaultLogLevel,
		},
		&urfave.BoolFlag{
			Name:  flagDebug,
			Usage: "Prints verbose logs (optional, default: false)",
		},
	}
}

// loadConfig reads the optional config file and applies explicitly set flags
// on top of it.
func loadConfig(cmd *urfave.Command) (*config.Config, error) {
	cfg := config.Default()
	if path := cmd.String(flagConfig); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cmd.IsSet(flagRPC) {
		cfg.RPC = cmd.String(flagRPC)
	}
	if cmd.IsSet(flagModel) {
		cfg.Model = cmd.String(flagModel)
	}
	if cmd.IsSet(flagFormat) {
		cfg.Format = cmd.String(flagFormat)
	}
	if cmd.Bool(flagJSON) {
		cfg.Format = config.FormatJSON
	}
	if cmd.IsSet(flagTimeout) {
		cfg.Probe.Timeout = cmd.Duration(flagTimeout)
	}
	if cmd.IsSet(flagFailureLatency) {
		cfg.Probe.FailureLatencyMs = cmd.Float(flagFailureLatency)
	}
	if cmd.IsSet(flagMethod) {
		cfg.Probe.Method = cmd.String(flagMethod)
	}
	if cmd.IsSet(flagFailIf) {
		cfg.FailIf = append(cfg.FailIf, cmd.StringSlice(flagFailIf)...)
	}
	if cmd.IsSet(flagLogLevel) {
		cfg.LogLevel = cmd.String(flagLogLevel)
	}
	if cmd.Bool(flagDebug) {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
