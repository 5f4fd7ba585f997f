// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/gfxapps/gfxlaunch/internal/config"
)

const programName = "gfxlaunch"

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose is set once arguments and configuration are known; the error
	// handler uses it to show error chains.
	verbose bool
)

// newRootCommand builds the root command. Flag parsing is left to
// launch.ParseArgs, which understands single-dash long flags.
func newRootCommand(deps dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   programName + " [options]",
		Short: "Launch the graphical-apps container with X11 display forwarding",
		Args:               cobra.ArbitraryArgs,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(cmd.Context(), deps, args, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs gfxlaunch with the process arguments and exits with the
// container's exit status, or 1 on any launch failure.
func Execute() {
	root := newRootCommand(defaultDependencies())
	err := fang.Execute(
		context.Background(),
		root,
		fang.WithoutVersion(),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithoutManpage(),
		fang.WithoutCompletions(),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			renderError(w, err, verbose)
		}),
	)
	os.Exit(exitCode(err))
}

// loadConfig loads the configuration, honoring GFXLAUNCH_CONFIG.
func loadConfig(ctx context.Context) (*config.Config, error) {
	return config.NewProvider().Load(ctx, config.OptionsFromEnv())
}
