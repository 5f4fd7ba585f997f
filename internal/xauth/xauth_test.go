// SPDX-License-Identifier: MPL-2.0

package xauth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/gfxapps/gfxlaunch/internal/issue"
	"github.com/gfxapps/gfxlaunch/internal/testutil"
)

const nlistEntry = "0100 0004 7f000001 0001 30 0012 4d49542d4d414749432d434f4f4b49452d31 0010 00112233445566778899aabbccddeeff\n"

func TestHelperProcess(t *testing.T) { testutil.RunHelperProcess() }

func authorityFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, FilePattern))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	return matches
}

func TestWildcardFamily(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"0100 0004 7f000001\n", "ffff 0004 7f000001\n"},
		{"0000 0004 x\n0100 0004 y\n", "ffff 0004 x\nffff 0004 y\n"},
		{"01\n", "01\n"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := WildcardFamily(tt.in); got != tt.want {
			t.Errorf("WildcardFamily(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrepare(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	captured := filepath.Join(t.TempDir(), "nmerge-stdin")

	rec := testutil.NewCommandRecorder()
	rec.Respond("xauth", "nlist", testutil.Response{Stdout: nlistEntry})
	rec.Respond("xauth", "nmerge", testutil.Response{StdinTo: captured})

	client := New(WithExecCommand(rec.CommandFunc(t)))
	artifact, err := client.Prepare(context.Background(), dir, ":0")
	if err != nil {
		t.Fatalf("Prepare() returned error: %v", err)
	}

	if filepath.Dir(artifact.Path()) != dir {
		t.Errorf("Path() = %s, want a file inside %s", artifact.Path(), dir)
	}
	if _, err := os.Stat(artifact.Path()); err != nil {
		t.Fatalf("authority file missing after Prepare: %v", err)
	}

	stdin, err := os.ReadFile(captured)
	if err != nil {
		t.Fatalf("read captured stdin: %v", err)
	}
	if !strings.HasPrefix(string(stdin), "ffff 0004 7f000001") {
		t.Errorf("nmerge stdin = %q, want FamilyWild entry", stdin)
	}

	inv := rec.Invocations()
	if len(inv) != 2 {
		t.Fatalf("invocations = %+v, want nlist then nmerge", inv)
	}
	if !slices.Equal(inv[0].Args, []string{"nlist", ":0"}) {
		t.Errorf("first call args = %v", inv[0].Args)
	}
	if !slices.Equal(inv[1].Args, []string{"-f", artifact.Path(), "nmerge", "-"}) {
		t.Errorf("second call args = %v", inv[1].Args)
	}

	wantOpts := []string{
		"-v", artifact.Path() + ":" + artifact.Path(),
		"-e", "XAUTHORITY=" + artifact.Path(),
		"--network", "host",
	}
	if !slices.Equal(artifact.RuntimeOptions(), wantOpts) {
		t.Errorf("RuntimeOptions() = %v, want %v", artifact.RuntimeOptions(), wantOpts)
	}

	if err := artifact.Close(); err != nil {
		t.Fatalf("Close() returned error: %v", err)
	}
	if _, err := os.Stat(artifact.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("authority file still present after Close: %v", err)
	}
	if err := artifact.Close(); err != nil {
		t.Errorf("second Close() returned error: %v", err)
	}
}

func TestPrepare_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		display   string
		responses map[string]testutil.Response
		wantErr   error
		wantIssue issue.Id
	}{
		{
			name:      "no display",
			display:   "",
			wantErr:   ErrNoDisplay,
			wantIssue: issue.DisplayNotSetId,
		},
		{
			name:      "empty nlist",
			display:   ":0",
			responses: map[string]testutil.Response{"nlist": {Stdout: "  \n"}},
			wantErr:   ErrNoEntries,
			wantIssue: issue.XAuthorityUnavailableId,
		},
		{
			name:      "nlist fails",
			display:   ":0",
			responses: map[string]testutil.Response{"nlist": {ExitCode: 1, Stderr: "xauth: unable to open display"}},
			wantIssue: issue.XAuthorityUnavailableId,
		},
		{
			name:    "nmerge fails",
			display: ":1",
			responses: map[string]testutil.Response{
				"nlist":  {Stdout: nlistEntry},
				"nmerge": {ExitCode: 2},
			},
			wantIssue: issue.XAuthorityUnavailableId,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			rec := testutil.NewCommandRecorder()
			for sub, resp := range tt.responses {
				rec.Respond("xauth", sub, resp)
			}

			artifact, err := New(WithExecCommand(rec.CommandFunc(t))).Prepare(context.Background(), dir, tt.display)
			if err == nil {
				t.Fatalf("Prepare() = %v, want error", artifact)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Prepare() error = %v, want %v", err, tt.wantErr)
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) || ae.IssueID != tt.wantIssue {
				t.Errorf("Prepare() error = %#v, want issue %d", err, tt.wantIssue)
			}
			if files := authorityFiles(t, dir); len(files) != 0 {
				t.Errorf("authority files left behind: %v", files)
			}
		})
	}
}

func TestPrepare_UnwritableDir(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "gone")
	rec := testutil.NewCommandRecorder()
	if _, err := New(WithExecCommand(rec.CommandFunc(t))).Prepare(context.Background(), missing, ":0"); err == nil {
		t.Fatal("expected error for missing directory")
	}
	if len(rec.Invocations()) != 0 {
		t.Error("xauth must not run when the file cannot be created")
	}
}

func TestGrantAccess(t *testing.T) {
	t.Parallel()

	rec := testutil.NewCommandRecorder()
	client := New(WithXHostBinary("/usr/bin/xhost"), WithExecCommand(rec.CommandFunc(t)))
	if err := client.GrantAccess(context.Background(), "10.0.0.5"); err != nil {
		t.Fatalf("GrantAccess() returned error: %v", err)
	}
	inv := rec.Invocations()
	if len(inv) != 1 || inv[0].Name != "xhost" || !slices.Equal(inv[0].Args, []string{"+10.0.0.5"}) {
		t.Errorf("invocations = %+v, want xhost +10.0.0.5", inv)
	}

	failing := testutil.NewCommandRecorder()
	failing.Respond("xhost", "", testutil.Response{ExitCode: 1, Stderr: "unable to open display"})
	err := New(WithExecCommand(failing.CommandFunc(t))).GrantAccess(context.Background(), "10.0.0.5")
	if err == nil || !strings.Contains(err.Error(), "unable to open display") {
		t.Errorf("GrantAccess() error = %v, want xhost stderr", err)
	}
}

func TestArtifact_CloseNil(t *testing.T) {
	t.Parallel()

	var a *Artifact
	if err := a.Close(); err != nil {
		t.Errorf("nil Close() = %v", err)
	}
}
