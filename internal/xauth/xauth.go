// SPDX-License-Identifier: MPL-2.0

package xauth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/gfxapps/gfxlaunch/internal/issue"
)

const (
	// FilePattern is the os.CreateTemp pattern of authority files.
	FilePattern = ".gfxlaunch-xauth-*"

	// familyWild is the X authority family that matches any host address.
	familyWild = "ffff"
)

var (
	// ErrNoDisplay is returned when DISPLAY is unset.
	ErrNoDisplay = errors.New("DISPLAY is not set")

	// ErrNoEntries is returned when xauth reports no entries for the display.
	ErrNoEntries = errors.New("no display authority entries")
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// Option configures a Client.
	Option func(*Client)

	// Client runs xauth and xhost.
	Client struct {
		xauthBinary string
		xhostBinary string
		execCommand ExecCommandFunc
		logger      *log.Logger
	}

	// Artifact is a prepared authority file. Close removes it.
	Artifact struct {
		path   string
		logger *log.Logger
		closed bool
	}
)

// WithXAuthBinary sets the xauth program name or path.
func WithXAuthBinary(name string) Option {
	return func(c *Client) {
		c.xauthBinary = name
	}
}

// WithXHostBinary sets the xhost program name or path.
func WithXHostBinary(name string) Option {
	return func(c *Client) {
		c.xhostBinary = name
	}
}

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) Option {
	return func(c *Client) {
		c.execCommand = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a Client using xauth and xhost from PATH.
func New(opts ...Option) *Client {
	c := &Client{
		xauthBinary: "xauth",
		xhostBinary: "xhost",
		execCommand: exec.CommandContext,
		logger:      log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Prepare writes the authority entries of display into a new file inside
// dir. The file is removed again if any step fails; on success the caller
// owns it and must Close the artifact.
func (c *Client) Prepare(ctx context.Context, dir, display string) (*Artifact, error) {
	if display == "" {
		return nil, issue.NewErrorContext().
			WithOperation("prepare X authority").
			WithSuggestion("Export the display of your X server, e.g. DISPLAY=:0").
			WithIssue(issue.DisplayNotSetId).
			Wrap(ErrNoDisplay).
			BuildError()
	}

	f, err := os.CreateTemp(dir, FilePattern)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("create X authority file").
			WithResource(dir).
			WithSuggestion("Check that the mount directory is writable").
			Wrap(err).
			BuildError()
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("close X authority file: %w", err)
	}

	artifact := &Artifact{path: path, logger: c.logger}
	c.logger.Debug("created X authority file", "path", path)

	if err := c.populate(ctx, path, display); err != nil {
		if cerr := artifact.Close(); cerr != nil {
			c.logger.Warn("failed to remove X authority file", "path", path, "err", cerr)
		}
		return nil, err
	}

	return artifact, nil
}

func (c *Client) populate(ctx context.Context, path, display string) error {
	entries, err := c.output(ctx, nil, "nlist", display)
	if err == nil && strings.TrimSpace(entries) == "" {
		err = ErrNoEntries
	}
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("read X authority").
			WithResource(display).
			WithSuggestion("Check that xauth is installed and `xauth list` shows your display").
			WithIssue(issue.XAuthorityUnavailableId).
			Wrap(err).
			BuildError()
	}

	if _, err := c.output(ctx, strings.NewReader(WildcardFamily(entries)), "-f", path, "nmerge", "-"); err != nil {
		return issue.NewErrorContext().
			WithOperation("write X authority").
			WithResource(path).
			WithIssue(issue.XAuthorityUnavailableId).
			Wrap(err).
			BuildError()
	}
	return nil
}

// GrantAccess allows X connections from addr with xhost +addr.
func (c *Client) GrantAccess(ctx context.Context, addr string) error {
	c.logger.Debug("granting display access", "address", addr)

	cmd := c.execCommand(ctx, c.xhostBinary, "+"+addr)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return issue.NewErrorContext().
			WithOperation("grant display access").
			WithResource(addr).
			WithSuggestion("Check that xhost is installed and your X server accepts access control changes").
			WithSuggestion("Use -xhost to forward an X authority file instead").
			Wrap(withStderr(err, &stderr)).
			BuildError()
	}
	return nil
}

func (c *Client) output(ctx context.Context, stdin io.Reader, args ...string) (string, error) {
	cmd := c.execCommand(ctx, c.xauthBinary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdin = stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", withStderr(err, &stderr)
	}
	return stdout.String(), nil
}

func withStderr(err error, stderr *bytes.Buffer) error {
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return fmt.Errorf("%w: %s", err, msg)
	}
	return err
}

// WildcardFamily replaces the leading 4-hex-digit family field of every
// nlist entry with ffff. Lines shorter than the field are left as they are.
func WildcardFamily(entries string) string {
	lines := strings.Split(entries, "\n")
	for i, line := range lines {
		if len(line) >= len(familyWild) {
			lines[i] = familyWild + line[len(familyWild):]
		}
	}
	return strings.Join(lines, "\n")
}

// Path returns the absolute path of the authority file.
func (a *Artifact) Path() string {
	return a.path
}

// RuntimeOptions returns the container runtime arguments that expose the file
// to the container and switch it to host networking.
func (a *Artifact) RuntimeOptions() []string {
	return []string{
		"-v", a.path + ":" + a.path,
		"-e", "XAUTHORITY=" + a.path,
		"--network", "host",
	}
}

// Close removes the authority file. Calling it more than once is safe.
func (a *Artifact) Close() error {
	if a == nil || a.closed {
		return nil
	}
	a.closed = true

	if err := os.Remove(a.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove X authority file %s: %w", filepath.Base(a.path), err)
	}
	a.logger.Debug("removed X authority file", "path", a.path)
	return nil
}
