// SPDX-License-Identifier: MPL-2.0

// Package container drives Docker or Podman through their command lines.
//
// DockerEngine and PodmanEngine embed BaseCLIEngine, which builds run/pull
// arguments and executes them through an injectable ExecCommandFunc.
// NewEngine picks the preferred engine and falls back to the other one.
package container
