// SPDX-License-Identifier: MPL-2.0

// Package testutil provides test helpers: environment and working-directory
// management that fails the test on error, and a CommandRecorder that fakes
// external programs (docker, xauth, xhost) with the TestHelperProcess pattern.
package testutil
