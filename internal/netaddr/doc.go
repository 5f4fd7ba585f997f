// SPDX-License-Identifier: MPL-2.0

// Package netaddr finds the host IPv4 address a container uses to reach the
// local X server.
//
// Interfaces are read from the operating system's interface table and filtered
// by name; loopback, bridges and virtual Ethernet pairs are excluded by the
// default pattern.
package netaddr
