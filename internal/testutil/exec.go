// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"
)

const (
	helperWantEnv      = "GO_WANT_HELPER_PROCESS"
	helperExitEnv      = "GO_HELPER_EXIT_CODE"
	helperStdoutEnv    = "GO_HELPER_STDOUT"
	helperStderrEnv    = "GO_HELPER_STDERR"
	helperStdinToEnv   = "GO_HELPER_STDIN_TO"
	helperRequireEnv   = "GO_HELPER_REQUIRE_FILE"
	helperInterruptEnv = "GO_HELPER_INTERRUPT_EXIT_CODE"
	helperReadyEnv     = "GO_HELPER_READY_FILE"
	helperMissingExit  = 97
	helperTimeoutExit  = 99

	helperInterruptTimeout = 30 * time.Second
)

type (
	// Response describes how a faked program behaves.
	Response struct {
		// ExitCode is the exit status (0 = success).
		ExitCode int
		// Stdout is written to standard output.
		Stdout string
		// Stderr is written to standard error.
		Stderr string
		// StdinTo, if set, receives everything the program reads on stdin.
		StdinTo string
		// RequireFile, if set, is a filepath.Glob pattern; the program exits 97
		// unless at least one file matches when it runs.
		RequireFile string
		// InterruptExitCode, if non-zero, makes the program block until it
		// receives os.Interrupt and then exit with this status. It exits 99 if
		// no interrupt arrives in time.
		InterruptExitCode int
		// ReadyFile, if set, is created once the program is ready for an
		// interrupt.
		ReadyFile string
	}

	// Invocation records one faked program call.
	Invocation struct {
		// Name is the program base name (e.g. "docker", "xauth").
		Name string
		// Args are the arguments passed to the program.
		Args []string
	}

	// CommandRecorder fakes external programs. Use CommandFunc as an injected
	// exec.CommandContext replacement; the returned commands re-execute the
	// test binary, whose TestHelperProcess must call RunHelperProcess.
	CommandRecorder struct {
		mu          sync.Mutex
		invocations []Invocation
		responses   map[string]Response
	}
)

// NewCommandRecorder creates a recorder where every program succeeds silently.
func NewCommandRecorder() *CommandRecorder {
	return &CommandRecorder{responses: make(map[string]Response)}
}

// Respond registers the behavior of program, optionally narrowed to calls
// containing the argument sub (e.g. Respond("xauth", "nlist", ...)).
func (r *CommandRecorder) Respond(program, sub string, resp Response) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[responseKey(program, sub)] = resp
}

// Invocations returns a copy of the recorded calls.
func (r *CommandRecorder) Invocations() []Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Invocation, len(r.invocations))
	copy(out, r.invocations)
	return out
}

// Called reports whether program was invoked with sub among its arguments
// (any call of program when sub is empty).
func (r *CommandRecorder) Called(program, sub string) bool {
	for _, inv := range r.Invocations() {
		if inv.Name != program {
			continue
		}
		if sub == "" {
			return true
		}
		for _, a := range inv.Args {
			if a == sub {
				return true
			}
		}
	}
	return false
}

// CommandFunc returns an exec.CommandContext replacement bound to t.
func (r *CommandRecorder) CommandFunc(t testing.TB) func(ctx context.Context, name string, args ...string) *exec.Cmd {
	t.Helper()
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		program := filepath.Base(name)

		r.mu.Lock()
		r.invocations = append(r.invocations, Invocation{Name: program, Args: append([]string(nil), args...)})
		resp := r.lookup(program, args)
		r.mu.Unlock()

		cs := []string{"-test.run=TestHelperProcess", "--", program}
		cs = append(cs, args...)
		//nolint:gosec // TestHelperProcess is a test-only pattern
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = []string{
			helperWantEnv + "=1",
			helperExitEnv + "=" + strconv.Itoa(resp.ExitCode),
			helperStdoutEnv + "=" + resp.Stdout,
			helperStderrEnv + "=" + resp.Stderr,
			helperStdinToEnv + "=" + resp.StdinTo,
			helperRequireEnv + "=" + resp.RequireFile,
			helperInterruptEnv + "=" + strconv.Itoa(resp.InterruptExitCode),
			helperReadyEnv + "=" + resp.ReadyFile,
		}
		return cmd
	}
}

// lookup must be called with r.mu held.
func (r *CommandRecorder) lookup(program string, args []string) Response {
	for _, a := range args {
		if resp, ok := r.responses[responseKey(program, a)]; ok {
			return resp
		}
	}
	return r.responses[responseKey(program, "")]
}

func responseKey(program, sub string) string {
	return program + "\x00" + sub
}

// RunHelperProcess is the body of a package's TestHelperProcess. It is a no-op
// unless the process was started by a CommandRecorder.
//
//	func TestHelperProcess(t *testing.T) { testutil.RunHelperProcess() }
func RunHelperProcess() {
	if os.Getenv(helperWantEnv) != "1" {
		return
	}

	if path := os.Getenv(helperStdinToEnv); path != "" {
		data, err := io.ReadAll(os.Stdin)
		if err == nil {
			err = os.WriteFile(path, data, 0o600)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "helper: capture stdin: %v\n", err)
			os.Exit(1)
		}
	}

	if path := os.Getenv(helperRequireEnv); path != "" {
		if matches, err := filepath.Glob(path); err != nil || len(matches) == 0 {
			fmt.Fprintf(os.Stderr, "helper: required file missing: %s\n", path)
			os.Exit(helperMissingExit)
		}
	}

	fmt.Fprint(os.Stdout, os.Getenv(helperStdoutEnv))
	fmt.Fprint(os.Stderr, os.Getenv(helperStderrEnv))

	if code, _ := strconv.Atoi(os.Getenv(helperInterruptEnv)); code != 0 {
		os.Exit(waitForInterrupt(code, os.Getenv(helperReadyEnv)))
	}

	code, _ := strconv.Atoi(os.Getenv(helperExitEnv))
	os.Exit(code)
}

func waitForInterrupt(code int, readyFile string) int {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)

	if readyFile != "" {
		if err := os.WriteFile(readyFile, nil, 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "helper: write ready file: %v\n", err)
			return 1
		}
	}

	select {
	case <-sigs:
		return code
	case <-time.After(helperInterruptTimeout):
		return helperTimeoutExit
	}
}
