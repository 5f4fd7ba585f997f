// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the gfxlaunch command line.
//
// The root command hands its raw arguments to the launch parser, which
// understands single-dash long flags such as -dir and -paraview. Errors are
// rendered by the fang error handler: usage errors with the help text,
// actionable errors with their suggestions and remediation notes.
package cmd
