// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gfxapps/gfxlaunch/internal/issue"
)

var (
	// ErrMountDirNotFound is returned when the mount directory is missing or
	// not a directory.
	ErrMountDirNotFound = errors.New("No directory exists") //nolint:staticcheck // user-facing message

	// ErrHomeMountDir is returned when the mount directory is the home directory.
	ErrHomeMountDir = errors.New("mounting your home directory is not allowed")
)

// HomeDir returns $HOME, falling back to the operating system's record of
// the current user's home.
func HomeDir() (string, error) {
	if home := os.Getenv("HOME"); home != "" {
		return home, nil
	}
	return os.UserHomeDir()
}

// ValidateMountDir checks that path is an existing directory other than home
// and returns its absolute, symlink-resolved form. The home comparison is
// made on canonical paths so that relative paths and links cannot bypass it.
func ValidateMountDir(path, home string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", issue.NewErrorContext().
			WithOperation("validate mount directory").
			WithSuggestion("Create the directory first or pass an existing one with -d").
			WithIssue(issue.MountDirNotFoundId).
			Wrap(fmt.Errorf("%w: %s", ErrMountDirNotFound, path)).
			BuildError()
	}

	dir, err := canonical(path)
	if err != nil {
		return "", issue.WrapWithOperation(err, "resolve mount directory")
	}

	if home != "" {
		canonicalHome, err := canonical(home)
		if err == nil && canonicalHome == dir {
			return "", issue.NewErrorContext().
				WithOperation("validate mount directory").
				WithResource(dir).
				WithSuggestion("Mount a subdirectory instead, e.g. -d " + filepath.Join(canonicalHome, "work")).
				WithIssue(issue.MountDirIsHomeId).
				Wrap(ErrHomeMountDir).
				BuildError()
		}
	}

	return dir, nil
}

func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
