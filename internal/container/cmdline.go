// SPDX-License-Identifier: MPL-2.0

package container

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// FormatCommandLine renders argv as a single line that bash parses
// back into the same words.
func FormatCommandLine(argv []string) (string, error) {
	quoted := make([]string, 0, len(argv))
	for _, arg := range argv {
		q, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			return "", fmt.Errorf("quote %q: %w", arg, err)
		}
		quoted = append(quoted, q)
	}
	return strings.Join(quoted, " "), nil
}
