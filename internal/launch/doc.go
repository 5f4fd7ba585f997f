// SPDX-License-Identifier: MPL-2.0

// Package launch turns gfxlaunch command-line arguments into a container run.
//
// ParseArgs builds a Config from raw arguments, ValidateMountDir checks the
// directory shared with the container, and Launcher drives the steps from
// X authority preparation to the foreground engine invocation.
package launch
