// SPDX-License-Identifier: MPL-2.0

// Package xauth forwards X11 credentials to a container.
//
// Prepare copies the display's authority entries into a private file under
// the mount directory with the family field rewritten to FamilyWild, so the
// cookie is accepted whatever hostname the container reports. GrantAccess is
// the address-based alternative that opens the display to one host with xhost.
package xauth
