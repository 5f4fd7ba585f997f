// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/user"
	"strconv"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/gfxapps/gfxlaunch/internal/container"
	"github.com/gfxapps/gfxlaunch/internal/issue"
	"github.com/gfxapps/gfxlaunch/internal/xauth"
)

type (
	// XAuthority forwards X11 credentials or access rights.
	XAuthority interface {
		Prepare(ctx context.Context, dir, display string) (*xauth.Artifact, error)
		GrantAccess(ctx context.Context, addr string) error
	}

	// AddressDiscoverer finds the address the container reaches the display on.
	AddressDiscoverer interface {
		Discover() (string, error)
	}

	// Identity is the numeric user and group a container runs as.
	Identity struct {
		UID string
		GID string
	}

	// Settings are the configurable parts of a launch.
	Settings struct {
		ImageRepository string
		ImageBaseTag    string
		// ContainerHome is where MountDir is bound inside the container.
		ContainerHome string
		DisplayNumber int
		// GrantAccess runs xhost for the discovered address when no X
		// authority file is forwarded.
		GrantAccess bool
	}

	// LauncherOption configures a Launcher.
	LauncherOption func(*Launcher)

	// Launcher runs the launch sequence for a parsed Config.
	Launcher struct {
		engine     container.Engine
		xauth      XAuthority
		discoverer AddressDiscoverer
		settings   Settings
		logger     *log.Logger

		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer

		getenv     func(string) string
		homeDir    func() (string, error)
		identity   func() (Identity, error)
		isTerminal func() bool
	}
)

// WithSettings replaces the default Settings.
func WithSettings(s Settings) LauncherOption {
	return func(l *Launcher) {
		l.settings = s
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) LauncherOption {
	return func(l *Launcher) {
		l.logger = logger
	}
}

// WithStdio attaches the engine to the given streams. Dry-run output goes to
// stdout.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) LauncherOption {
	return func(l *Launcher) {
		l.stdin = stdin
		l.stdout = stdout
		l.stderr = stderr
	}
}

// WithGetenv replaces os.Getenv for DISPLAY lookups.
func WithGetenv(fn func(string) string) LauncherOption {
	return func(l *Launcher) {
		l.getenv = fn
	}
}

// WithHomeDir replaces HomeDir.
func WithHomeDir(fn func() (string, error)) LauncherOption {
	return func(l *Launcher) {
		l.homeDir = fn
	}
}

// WithIdentity replaces the current-user lookup.
func WithIdentity(fn func() (Identity, error)) LauncherOption {
	return func(l *Launcher) {
		l.identity = fn
	}
}

// WithTerminal overrides terminal detection on stdin.
func WithTerminal(fn func() bool) LauncherOption {
	return func(l *Launcher) {
		l.isTerminal = fn
	}
}

// DefaultSettings returns the settings used without configuration.
func DefaultSettings() Settings {
	return Settings{
		ImageRepository: "graphical-apps",
		ImageBaseTag:    "latest",
		ContainerHome:   "/home/user",
		GrantAccess:     true,
	}
}

// NewLauncher creates a Launcher attached to the process stdio.
func NewLauncher(engine container.Engine, xa XAuthority, discoverer AddressDiscoverer, opts ...LauncherOption) *Launcher {
	l := &Launcher{
		engine:     engine,
		xauth:      xa,
		discoverer: discoverer,
		settings:   DefaultSettings(),
		logger:     log.New(io.Discard),
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		getenv:     os.Getenv,
		homeDir:    HomeDir,
		identity:   CurrentIdentity,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.isTerminal == nil {
		l.isTerminal = l.stdinIsTerminal
	}
	return l
}

// CurrentIdentity returns the uid and gid of the invoking user.
func CurrentIdentity() (Identity, error) {
	u, err := user.Current()
	if err != nil {
		return Identity{}, err
	}
	if _, err := strconv.Atoi(u.Uid); err != nil {
		return Identity{}, fmt.Errorf("non-numeric uid %q", u.Uid)
	}
	if _, err := strconv.Atoi(u.Gid); err != nil {
		return Identity{}, fmt.Errorf("non-numeric gid %q", u.Gid)
	}
	return Identity{UID: u.Uid, GID: u.Gid}, nil
}

// Run validates cfg, prepares display forwarding and runs the container in
// the foreground. It returns the engine's exit code. Any error before the
// engine starts means nothing was run. The X authority file, when created,
// is removed before Run returns.
func (l *Launcher) Run(ctx context.Context, cfg *Config) (int, error) {
	home, err := l.homeDir()
	if err != nil {
		l.logger.Debug("home directory unknown", "err", err)
		home = ""
	}

	mountDir, err := ValidateMountDir(cfg.MountDir, home)
	if err != nil {
		return 1, err
	}
	cfg.MountDir = mountDir
	cfg.ImageName = ResolveImage(l.settings.ImageRepository, l.settings.ImageBaseTag, cfg.ParaviewVersion)
	l.logger.Info("launching", "image", cfg.ImageName, "mount", cfg.MountDir)

	if cfg.CustomXAuth {
		artifact, err := l.xauth.Prepare(ctx, cfg.MountDir, l.getenv("DISPLAY"))
		if err != nil {
			return 1, err
		}
		defer func() {
			if cerr := artifact.Close(); cerr != nil {
				l.logger.Warn("failed to remove X authority file", "err", cerr)
			}
		}()
		l.logger.Debug("prepared X authority", "path", artifact.Path())
		cfg.DockerOptions = append(cfg.DockerOptions, artifact.RuntimeOptions()...)
	}

	addr, err := l.discoverer.Discover()
	if err != nil {
		return 1, err
	}
	l.logger.Debug("discovered display address", "address", addr)

	id, err := l.identity()
	if err != nil {
		return 1, issue.NewErrorContext().
			WithOperation("determine user identity").
			WithSuggestion("Check that `id -u` and `id -g` print numeric IDs").
			WithIssue(issue.UserIdentityUnavailableId).
			Wrap(err).
			BuildError()
	}

	opts := l.runOptions(cfg, addr, id)

	if cfg.DryRun {
		line, err := container.FormatCommandLine(l.engine.CommandLine(opts))
		if err != nil {
			return 1, issue.WrapWithOperation(err, "render container command")
		}
		fmt.Fprintln(l.stdout, line)
		return 0, nil
	}

	if !cfg.CustomXAuth && l.settings.GrantAccess {
		if err := l.xauth.GrantAccess(ctx, addr); err != nil {
			return 1, err
		}
	}

	if cfg.Upgrade {
		l.logger.Info("pulling image", "image", cfg.ImageName)
		pull := container.PullOptions{Image: cfg.ImageName, Stdout: l.stderr, Stderr: l.stderr}
		if err := l.engine.Pull(ctx, pull); err != nil {
			l.logger.Warn("image pull failed, launching the local image", "image", cfg.ImageName, "err", err)
		}
	}

	l.logger.Debug("running container", "engine", l.engine.Name(), "args", l.engine.CommandLine(opts))
	result, err := l.engine.Run(ctx, opts)
	if err != nil {
		return 1, err
	}
	if result.Error != nil {
		return result.ExitCode, result.Error
	}
	return result.ExitCode, nil
}

func (l *Launcher) runOptions(cfg *Config, addr string, id Identity) container.RunOptions {
	home := l.settings.ContainerHome
	return container.RunOptions{
		Image:       cfg.ImageName,
		Remove:      true,
		Interactive: true,
		TTY:         l.isTerminal(),
		WorkDir:     home,
		Env: map[string]string{
			"DISPLAY": addr + ":" + strconv.Itoa(l.settings.DisplayNumber),
			"HOME":    home,
		},
		Volumes:   []container.VolumeMount{{HostPath: cfg.MountDir, ContainerPath: home}},
		User:      id.UID + ":" + id.GID,
		ExtraArgs: cfg.DockerOptions,
		Stdin:     l.stdin,
		Stdout:    l.stdout,
		Stderr:    l.stderr,
	}
}

func (l *Launcher) stdinIsTerminal() bool {
	f, ok := l.stdin.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
