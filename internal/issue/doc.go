// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and
// remediation suggestions. The catalog maps issue IDs to longer markdown help
// that the CLI renders with glamour for precondition failures.
package issue
