// SPDX-License-Identifier: MPL-2.0

package netaddr

import (
	"errors"
	"fmt"
	"net"
	"regexp"

	"github.com/gfxapps/gfxlaunch/internal/issue"
)

var (
	// ErrNoInterfaces is returned when no interface name matches the pattern.
	ErrNoInterfaces = errors.New("no matching network interfaces")

	// ErrNoAddress is returned when matching interfaces carry no IPv4 address.
	ErrNoAddress = errors.New("no IPv4 address on matching network interfaces")
)

type (
	// Interface is one entry of the host interface table.
	Interface struct {
		Name  string
		Up    bool
		Addrs []net.Addr
	}

	// Lister returns the host interfaces in table order.
	Lister func() ([]Interface, error)

	// Discoverer resolves the display-forwarding address.
	Discoverer struct {
		pattern  *regexp.Regexp
		override string
		list     Lister
	}

	// Option configures a Discoverer.
	Option func(*Discoverer)
)

// WithOverride makes Discover return addr without looking at interfaces.
func WithOverride(addr string) Option {
	return func(d *Discoverer) {
		d.override = addr
	}
}

// WithLister replaces the system interface table.
func WithLister(list Lister) Option {
	return func(d *Discoverer) {
		d.list = list
	}
}

// New creates a Discoverer for interfaces whose names match pattern.
func New(pattern string, opts ...Option) (*Discoverer, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid interface pattern %q: %w", pattern, err)
	}
	d := &Discoverer{pattern: re, list: SystemInterfaces}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Discover returns the first IPv4 address of the first matching interface
// that is up, in interface-table order.
func (d *Discoverer) Discover() (string, error) {
	if d.override != "" {
		return d.override, nil
	}

	ifaces, err := d.list()
	if err != nil {
		return "", issue.NewErrorContext().
			WithOperation("list network interfaces").
			WithIssue(issue.NetworkAddressNotFoundId).
			Wrap(err).
			BuildError()
	}

	matched := 0
	for _, iface := range ifaces {
		if !d.pattern.MatchString(iface.Name) {
			continue
		}
		matched++
		if !iface.Up {
			continue
		}
		if ip := firstIPv4(iface.Addrs); ip != nil {
			return ip.String(), nil
		}
	}

	if matched == 0 {
		return "", d.discoveryError(ErrNoInterfaces,
			"Connect a wired or wireless network interface",
			"Set network.interface_pattern (or GFXLAUNCH_NETWORK_INTERFACE_PATTERN) to match your interface name",
		)
	}
	return "", d.discoveryError(ErrNoAddress,
		"Check that the interface is up and has an IPv4 address (ip addr)",
		"Set network.address (or GFXLAUNCH_NETWORK_ADDRESS) to the address of your X server",
	)
}

func (d *Discoverer) discoveryError(cause error, suggestions ...string) error {
	return issue.NewErrorContext().
		WithOperation("discover network address").
		WithResource("interfaces matching " + d.pattern.String()).
		WithSuggestions(suggestions...).
		WithIssue(issue.NetworkAddressNotFoundId).
		Wrap(cause).
		BuildError()
}

func firstIPv4(addrs []net.Addr) net.IP {
	for _, addr := range addrs {
		var ip net.IP
		switch v := addr.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip4 := ip.To4(); ip4 != nil {
			return ip4
		}
	}
	return nil
}

// SystemInterfaces reads the operating system's interface table.
func SystemInterfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	result := make([]Interface, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			return nil, fmt.Errorf("read addresses of %s: %w", iface.Name, err)
		}
		result = append(result, Interface{
			Name:  iface.Name,
			Up:    iface.Flags&net.FlagUp != 0,
			Addrs: addrs,
		})
	}
	return result, nil
}
