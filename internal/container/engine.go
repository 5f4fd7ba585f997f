// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"io"
)

const (
	EngineTypeDocker EngineType = "docker"
	EngineTypePodman EngineType = "podman"
)

type (
	// Engine drives a container runtime through its command line.
	Engine interface {
		// Name returns the engine name (docker or podman).
		Name() string
		// Available reports whether the engine binary exists and answers.
		Available() bool
		// Version returns the engine version.
		Version(ctx context.Context) (string, error)
		// Pull fetches or updates an image.
		Pull(ctx context.Context, opts PullOptions) error
		// Run runs a container in the foreground and waits for it to exit.
		Run(ctx context.Context, opts RunOptions) (*RunResult, error)
		// CommandLine returns the full argv (binary first) Run would execute.
		CommandLine(opts RunOptions) []string
	}

	// EngineType identifies the container engine type.
	EngineType string

	// RunOptions contains options for running a container.
	RunOptions struct {
		// Image is the image to run.
		Image string
		// WorkDir is the working directory inside the container.
		WorkDir string
		// Env holds environment variables; emitted sorted by key.
		Env map[string]string
		// Volumes are bind mounts.
		Volumes []VolumeMount
		// User is the "uid:gid" the container process runs as.
		User string
		// Remove automatically removes the container after exit.
		Remove bool
		// Interactive keeps stdin open.
		Interactive bool
		// TTY allocates a pseudo-TTY.
		TTY bool
		// ExtraArgs are raw runtime options placed just before the image.
		ExtraArgs []string
		// Stdin, Stdout and Stderr are attached to the engine process.
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// PullOptions contains options for pulling an image.
	PullOptions struct {
		Image  string
		Stdout io.Writer
		Stderr io.Writer
	}

	// RunResult contains the result of running a container.
	RunResult struct {
		// ExitCode is the engine process exit status.
		ExitCode int
		// Error is set for infrastructure failures (binary missing, killed
		// before exit status); a non-zero ExitCode alone is not an error.
		Error error
	}

	// ErrEngineNotAvailable is returned when no container engine can be used.
	ErrEngineNotAvailable struct {
		Engine string
		Reason string
	}
)

func (e *ErrEngineNotAvailable) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// NewEngine returns the preferred engine, falling back to the other one when
// the preferred engine is unavailable. opts are applied to whichever engine is
// probed.
func NewEngine(preferredType EngineType, opts ...BaseCLIEngineOption) (Engine, error) {
	switch preferredType {
	case EngineTypeDocker:
		if engine := NewDockerEngine(opts...); engine.Available() {
			return engine, nil
		}
		if engine := NewPodmanEngine(opts...); engine.Available() {
			return engine, nil
		}
		return nil, &ErrEngineNotAvailable{
			Engine: "docker",
			Reason: "docker is not installed or not accessible, and podman fallback is also not available",
		}

	case EngineTypePodman:
		if engine := NewPodmanEngine(opts...); engine.Available() {
			return engine, nil
		}
		if engine := NewDockerEngine(opts...); engine.Available() {
			return engine, nil
		}
		return nil, &ErrEngineNotAvailable{
			Engine: "podman",
			Reason: "podman is not installed or not accessible, and docker fallback is also not available",
		}

	default:
		return nil, fmt.Errorf("unknown container engine type: %s", preferredType)
	}
}
