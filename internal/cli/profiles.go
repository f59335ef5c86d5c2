package cli

import (
	"context"
	"fmt"

	urfave "github.com/urfave/cli/v3"

	"github.com/rollupscore/rollupscore/internal/catalog"
	"github.com/rollupscore/rollupscore/internal/config"
	"github.com/rollupscore/rollupscore/internal/report"
)

func newProfilesCmd() *urfave.Command {
	return &urfave.Command{
		Name:   "profiles",
		Usage:  "List the built-in rollup profiles",
		Action: runProfiles,
	}
}

func runProfiles(_ context.Context, cmd *urfave.Command) error {
	format := cmd.String(flagFormat)
	if cmd.Bool(flagJSON) {
		format = config.FormatJSON
	}
	if err := report.RenderProfiles(cmd.Root().Writer, format, catalog.Default().Profiles()); err != nil {
		return fmt.Errorf("render profiles: %w", err)
	}
	return nil
}
