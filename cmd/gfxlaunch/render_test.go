// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/gfxapps/gfxlaunch/internal/issue"
	"github.com/gfxapps/gfxlaunch/internal/launch"
)

var errTest = errors.New("boom")

func TestRenderError(t *testing.T) {
	t.Parallel()

	actionable := issue.NewErrorContext().
		WithOperation("validate mount directory").
		WithSuggestion("Create the directory first").
		WithIssue(issue.MountDirNotFoundId).
		Wrap(errors.New("No directory exists: /nonexistent")).
		BuildError()

	tests := []struct {
		name    string
		err     error
		verbose bool
		want    []string
		notWant []string
	}{
		{
			name: "help",
			err:  launch.ErrHelpRequested,
			want: []string{"Usage: gfxlaunch [options]"},
		},
		{
			name: "usage error",
			err:  &launch.UsageError{Message: "unknown option: -z"},
			want: []string{"unknown option: -z", "Usage: gfxlaunch [options]"},
		},
		{
			name: "actionable error with catalog entry",
			err:  actionable,
			want: []string{
				"No directory exists: /nonexistent",
				"Create the directory first",
				"Mount directory not found",
			},
			notWant: []string{"Usage:", "Error chain:"},
		},
		{
			name:    "actionable error verbose",
			err:     actionable,
			verbose: true,
			want:    []string{"Error chain:"},
		},
		{
			name:    "container exit status",
			err:     &ExitError{Code: 3},
			notWant: []string{"Error", "status"},
		},
		{
			name:    "container exit status verbose",
			err:     &ExitError{Code: 3},
			verbose: true,
			want:    []string{"container exited with status 3"},
		},
		{
			name: "plain error",
			err:  errTest,
			want: []string{"boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			renderError(&buf, tt.err, tt.verbose)
			out := buf.String()

			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(out, notWant) {
					t.Errorf("output unexpectedly contains %q:\n%s", notWant, out)
				}
			}
		})
	}
}

func TestRenderIssue(t *testing.T) {
	t.Parallel()

	if got := renderIssue(0, "notty"); got != "" {
		t.Errorf("renderIssue(0) = %q, want empty", got)
	}
	if got := renderIssue(issue.Id(999), "notty"); got != "" {
		t.Errorf("renderIssue(999) = %q, want empty", got)
	}
	if got := renderIssue(issue.ContainerEngineNotFoundId, "notty"); !strings.Contains(got, "No container engine") {
		t.Errorf("renderIssue() = %q", got)
	}
}
