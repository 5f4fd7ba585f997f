// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour/styles"
	"golang.org/x/term"

	"github.com/gfxapps/gfxlaunch/internal/issue"
	"github.com/gfxapps/gfxlaunch/internal/launch"
)

// renderError writes err to w the way the user should see it:
//   - help requests print the usage text,
//   - usage errors print the message followed by the usage text,
//   - actionable errors print their suggestions and catalog notes,
//   - a bare container exit status prints nothing.
func renderError(w io.Writer, err error, verboseMode bool) {
	var (
		usageErr *launch.UsageError
		exitErr  *ExitError
		ae       *issue.ActionableError
	)

	switch {
	case errors.Is(err, launch.ErrHelpRequested):
		fmt.Fprint(w, launch.Usage(programName))

	case errors.As(err, &usageErr):
		fmt.Fprintln(w, ErrorStyle.Render("Error: ")+usageErr.Message)
		fmt.Fprintln(w)
		fmt.Fprint(w, launch.Usage(programName))

	case errors.As(err, &exitErr) && exitErr.Err == nil:
		if verboseMode {
			fmt.Fprintln(w, SubtitleStyle.Render(fmt.Sprintf("container exited with status %d", exitErr.Code)))
		}

	case errors.As(err, &ae):
		fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatActionable(ae, verboseMode))
		if notes := renderIssue(ae.IssueID, glamourStyle()); notes != "" {
			fmt.Fprint(w, notes)
		}

	default:
		fmt.Fprintln(w, ErrorStyle.Render("Error: ")+err.Error())
	}
}

func formatActionable(ae *issue.ActionableError, verboseMode bool) string {
	text := ae.Format(verboseMode)
	if !ae.HasSuggestions() {
		return text
	}
	head, rest, _ := strings.Cut(text, "\n")
	return head + WarningStyle.Render("\n"+rest)
}

// renderIssue renders the catalog entry for id, or "" if there is none or
// rendering fails.
func renderIssue(id issue.Id, stylePath string) string {
	if id == 0 {
		return ""
	}
	entry := issue.Get(id)
	if entry == nil {
		return ""
	}
	out, err := entry.Render(stylePath)
	if err != nil {
		return ""
	}
	return out
}

// glamourStyle picks a colored style when stderr is a terminal and plain
// text otherwise.
func glamourStyle() string {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return styles.AutoStyle
	}
	return styles.NoTTYStyle
}
