// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	// ParaviewUnset selects the base image.
	ParaviewUnset ParaviewVersion = ""
	// Paraview56 selects the ParaView 5.6 image.
	Paraview56 ParaviewVersion = "56"
	// Paraview510 selects the ParaView 5.10 image.
	Paraview510 ParaviewVersion = "510"
)

var (
	// ErrHelpRequested is returned by ParseArgs for -h/-help.
	ErrHelpRequested = errors.New("help requested")

	// ErrVersionRequested is returned by ParseArgs for -V/-version.
	ErrVersionRequested = errors.New("version requested")
)

type (
	// ParaviewVersion selects a paraview image variant.
	ParaviewVersion string

	// Config is the launch configuration assembled from the command line.
	Config struct {
		// MountDir is the host directory bound to the container home. ParseArgs
		// stores it as given; ValidateMountDir canonicalizes it.
		MountDir string
		// ParaviewVersion is unset unless -paraview was given.
		ParaviewVersion ParaviewVersion
		// Upgrade pulls the image before launching.
		Upgrade bool
		// CustomXAuth forwards an X authority file and uses host networking.
		CustomXAuth bool
		// DryRun prints the engine command instead of running it.
		DryRun bool
		// Verbose enables debug logging.
		Verbose bool
		// ImageName is resolved from ParaviewVersion.
		ImageName string
		// DockerOptions are extra runtime arguments placed before the image.
		DockerOptions []string
	}

	// UsageError is a malformed command line. The caller prints it together
	// with the usage text.
	UsageError struct {
		Message string
	}
)

// Error implements the error interface.
func (e *UsageError) Error() string {
	return e.Message
}

// Validate returns an error for values other than unset, 56 and 510.
func (v ParaviewVersion) Validate() error {
	switch v {
	case ParaviewUnset, Paraview56, Paraview510:
		return nil
	default:
		return &UsageError{Message: fmt.Sprintf("invalid paraview version: %s (valid: 56, 510)", string(v))}
	}
}

// ParseArgs consumes args left to right. cwd is the mount directory when
// -d is absent. -h/-help anywhere returns ErrHelpRequested; otherwise the
// first malformed token yields a *UsageError.
func ParseArgs(args []string, cwd string) (*Config, error) {
	if slices.ContainsFunc(args, isHelpFlag) {
		return nil, ErrHelpRequested
	}

	cfg := &Config{MountDir: cwd}

	for i := 0; i < len(args); i++ {
		switch arg := args[i]; arg {
		case "-d", "-dir":
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "-") {
				return nil, &UsageError{Message: fmt.Sprintf("option %s requires a directory argument", arg)}
			}
			i++
			cfg.MountDir = args[i]

		case "-p", "-paraview":
			cfg.ParaviewVersion = Paraview510
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
				v := ParaviewVersion(args[i])
				if v == ParaviewUnset {
					return nil, &UsageError{Message: "invalid paraview version: \"\" (valid: 56, 510)"}
				}
				if err := v.Validate(); err != nil {
					return nil, err
				}
				cfg.ParaviewVersion = v
			}

		case "-V", "-version":
			return nil, ErrVersionRequested

		case "-u", "-upgrade":
			cfg.Upgrade = true

		case "-x", "-xhost":
			cfg.CustomXAuth = true

		case "-n", "-dry-run":
			cfg.DryRun = true

		case "-v", "-verbose":
			cfg.Verbose = true

		default:
			return nil, &UsageError{Message: fmt.Sprintf("unknown option: %s", arg)}
		}
	}

	return cfg, nil
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "-help"
}
