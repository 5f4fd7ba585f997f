// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/gfxapps/gfxlaunch/internal/config"
	"github.com/gfxapps/gfxlaunch/internal/container"
	"github.com/gfxapps/gfxlaunch/internal/issue"
	"github.com/gfxapps/gfxlaunch/internal/launch"
	"github.com/gfxapps/gfxlaunch/internal/netaddr"
	"github.com/gfxapps/gfxlaunch/internal/xauth"
)

// dependencies are the process-level collaborators of a launch. Tests
// replace them with fakes.
type dependencies struct {
	getwd      func() (string, error)
	loadConfig func(ctx context.Context) (*config.Config, error)
	engineOpts []container.BaseCLIEngineOption
	xauthOpts  []xauth.Option
	netOpts    []netaddr.Option
	launchOpts []launch.LauncherOption
}

func defaultDependencies() dependencies {
	return dependencies{
		getwd:      os.Getwd,
		loadConfig: loadConfig,
	}
}

// newLogger returns the stderr logger, at debug level when verboseMode is set.
func newLogger(w io.Writer, verboseMode bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix: programName,
	})
	if verboseMode {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func runLaunch(ctx context.Context, deps dependencies, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cwd, err := deps.getwd()
	if err != nil {
		return issue.WrapWithOperation(err, "determine working directory")
	}

	launchCfg, err := launch.ParseArgs(args, cwd)
	if errors.Is(err, launch.ErrVersionRequested) {
		fmt.Fprintln(stdout, TitleStyle.Render(programName), getVersionString())
		return nil
	}
	if err != nil {
		return err
	}
	verbose = launchCfg.Verbose

	cfg, err := deps.loadConfig(ctx)
	if err != nil {
		return err
	}
	verbose = verbose || cfg.UI.Verbose

	logger := newLogger(stderr, verbose)

	engine, err := selectEngine(cfg.ContainerEngine, launchCfg.DryRun, logger, deps.engineOpts...)
	if err != nil {
		return err
	}
	if verbose && !launchCfg.DryRun {
		logEngineVersion(ctx, engine, logger)
	}

	discoverer, err := netaddr.New(cfg.Network.InterfacePattern, append([]netaddr.Option{netaddr.WithOverride(cfg.Network.Address)}, deps.netOpts...)...)
	if err != nil {
		return issue.WrapWithOperation(err, "configure address discovery")
	}

	xa := xauth.New(append([]xauth.Option{
		xauth.WithXAuthBinary(cfg.Display.XAuthBinary),
		xauth.WithXHostBinary(cfg.Display.XHostBinary),
		xauth.WithLogger(logger),
	}, deps.xauthOpts...)...)

	launcher := launch.NewLauncher(engine, xa, discoverer, append([]launch.LauncherOption{
		launch.WithSettings(settingsFromConfig(cfg)),
		launch.WithLogger(logger),
		launch.WithStdio(stdin, stdout, stderr),
	}, deps.launchOpts...)...)

	code, err := launcher.Run(ctx, launchCfg)
	if err != nil {
		return err
	}
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

func settingsFromConfig(cfg *config.Config) launch.Settings {
	return launch.Settings{
		ImageRepository: cfg.Image.Repository,
		ImageBaseTag:    cfg.Image.BaseTag,
		ContainerHome:   cfg.Container.Home,
		DisplayNumber:   cfg.Display.Number,
		GrantAccess:     cfg.Display.GrantAccess,
	}
}

// selectEngine returns the configured engine, or the other one if only that
// one answers. A dry run never needs a reachable engine, so it settles for
// the configured one.
func selectEngine(preferred config.ContainerEngine, dryRun bool, logger *log.Logger, opts ...container.BaseCLIEngineOption) (container.Engine, error) {
	engine, err := container.NewEngine(container.EngineType(preferred), opts...)
	if err == nil {
		return engine, nil
	}

	if dryRun {
		logger.Debug("container engine not reachable, rendering command anyway", "err", err)
		return unprobedEngine(preferred, opts...), nil
	}

	return nil, issue.NewErrorContext().
		WithOperation("find a container engine").
		WithResource(string(preferred)).
		WithSuggestion("Install Docker or Podman and check that `" + string(preferred) + " version` works").
		WithIssue(issue.ContainerEngineNotFoundId).
		Wrap(err).
		BuildError()
}

func logEngineVersion(ctx context.Context, engine container.Engine, logger *log.Logger) {
	version, err := engine.Version(ctx)
	if err != nil {
		logger.Debug("selected container engine", "engine", engine.Name(), "version_err", err)
		return
	}
	logger.Debug("selected container engine", "engine", engine.Name(), "version", version)
}

func unprobedEngine(preferred config.ContainerEngine, opts ...container.BaseCLIEngineOption) container.Engine {
	name := string(preferred)
	if preferred == config.ContainerEnginePodman {
		if e := container.NewPodmanEngine(opts...); e.BinaryPath() != "" {
			return e
		}
		return container.NewPodmanEngine(append(slices.Clone(opts), container.WithBinaryPath(name))...)
	}
	if e := container.NewDockerEngine(opts...); e.BinaryPath() != "" {
		return e
	}
	return container.NewDockerEngine(append(slices.Clone(opts), container.WithBinaryPath(name))...)
}
