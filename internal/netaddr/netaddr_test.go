// SPDX-License-Identifier: MPL-2.0

package netaddr

import (
	"errors"
	"net"
	"testing"

	"github.com/gfxapps/gfxlaunch/internal/issue"
)

const defaultPattern = `^(en|eth|wl)[0-9a-z]*$`

func ipNet(s string) net.Addr {
	ip, n, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	n.IP = ip
	return n
}

func staticLister(ifaces ...Interface) Lister {
	return func() ([]Interface, error) { return ifaces, nil }
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ifaces  []Interface
		want    string
		wantErr error
	}{
		{
			name: "first matching interface wins",
			ifaces: []Interface{
				{Name: "lo", Up: true, Addrs: []net.Addr{ipNet("127.0.0.1/8")}},
				{Name: "docker0", Up: true, Addrs: []net.Addr{ipNet("172.17.0.1/16")}},
				{Name: "eth0", Up: true, Addrs: []net.Addr{ipNet("10.0.0.5/24")}},
				{Name: "wlan0", Up: true, Addrs: []net.Addr{ipNet("192.168.1.20/24")}},
			},
			want: "10.0.0.5",
		},
		{
			name: "ipv6 addresses are skipped",
			ifaces: []Interface{
				{Name: "enp3s0", Up: true, Addrs: []net.Addr{ipNet("fe80::1/64"), ipNet("192.168.1.7/24")}},
			},
			want: "192.168.1.7",
		},
		{
			name: "down interfaces are skipped",
			ifaces: []Interface{
				{Name: "en0", Up: false, Addrs: []net.Addr{ipNet("10.1.1.1/24")}},
				{Name: "wlp2s0", Up: true, Addrs: []net.Addr{&net.IPAddr{IP: net.ParseIP("10.2.2.2")}}},
			},
			want: "10.2.2.2",
		},
		{
			name: "virtual interfaces never match",
			ifaces: []Interface{
				{Name: "lo", Up: true, Addrs: []net.Addr{ipNet("127.0.0.1/8")}},
				{Name: "veth12ab", Up: true, Addrs: []net.Addr{ipNet("172.18.0.1/16")}},
			},
			wantErr: ErrNoInterfaces,
		},
		{
			name:    "no interfaces at all",
			wantErr: ErrNoInterfaces,
		},
		{
			name: "matching interface without ipv4",
			ifaces: []Interface{
				{Name: "eth0", Up: true, Addrs: []net.Addr{ipNet("fe80::2/64")}},
			},
			wantErr: ErrNoAddress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d, err := New(defaultPattern, WithLister(staticLister(tt.ifaces...)))
			if err != nil {
				t.Fatalf("New() returned error: %v", err)
			}

			got, err := d.Discover()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Discover() error = %v, want %v", err, tt.wantErr)
				}
				var ae *issue.ActionableError
				if !errors.As(err, &ae) || !ae.HasSuggestions() {
					t.Errorf("expected actionable error with remediation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Discover() returned error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Discover() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDiscover_Override(t *testing.T) {
	t.Parallel()

	called := false
	lister := func() ([]Interface, error) {
		called = true
		return nil, nil
	}

	d, err := New(defaultPattern, WithLister(lister), WithOverride("192.0.2.10"))
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	got, err := d.Discover()
	if err != nil {
		t.Fatalf("Discover() returned error: %v", err)
	}
	if got != "192.0.2.10" {
		t.Errorf("Discover() = %q, want override", got)
	}
	if called {
		t.Error("override must bypass the interface table")
	}
}

func TestDiscover_ListerFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("netlink unavailable")
	d, err := New(defaultPattern, WithLister(func() ([]Interface, error) { return nil, boom }))
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	if _, err := d.Discover(); !errors.Is(err, boom) {
		t.Errorf("Discover() error = %v, want wrapped lister error", err)
	}
}

func TestNew_InvalidPattern(t *testing.T) {
	t.Parallel()

	if _, err := New("("); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestSystemInterfaces(t *testing.T) {
	t.Parallel()

	ifaces, err := SystemInterfaces()
	if err != nil {
		t.Skipf("interface table unavailable: %v", err)
	}
	for _, iface := range ifaces {
		if iface.Name == "" {
			t.Error("interface with empty name")
		}
	}
}
