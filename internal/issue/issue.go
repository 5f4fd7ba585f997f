// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Id identifies a catalog entry.
type Id int

const (
	MountDirNotFoundId Id = iota + 1
	MountDirIsHomeId
	DisplayNotSetId
	XAuthorityUnavailableId
	NetworkAddressNotFoundId
	ContainerEngineNotFoundId
	UserIdentityUnavailableId
	ConfigLoadFailedId
)

type (
	MarkdownMsg string

	HttpLink string

	// Issue is a catalog entry: markdown remediation text plus reference links.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		extLinks []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the markdown message with the given glamour style
// ("dark", "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	mountDirNotFoundIssue = &Issue{
		id: MountDirNotFoundId,
		mdMsg: `
# Mount directory not found

The directory passed with ` + "`-d`" + ` does not exist, so there is nothing to share
with the container.

## Things you can try
- Create it first:
~~~
$ mkdir -p ~/work
$ gfxlaunch -d ~/work
~~~
- Omit ` + "`-d`" + ` to mount the current directory.`,
	}

	mountDirIsHomeIssue = &Issue{
		id: MountDirIsHomeId,
		mdMsg: `
# Your home directory cannot be mounted

The container runs as your user and would see (and could modify) every dotfile in
your home directory. Mount a dedicated subdirectory instead.

## Things you can try
~~~
$ mkdir -p ~/work
$ gfxlaunch -d ~/work
~~~`,
	}

	displayNotSetIssue = &Issue{
		id: DisplayNotSetId,
		mdMsg: `
# No X display

` + "`DISPLAY`" + ` is not set, so there is no display whose credentials could be
forwarded with ` + "`-xhost`" + `.

## Things you can try
- Start an X server (XQuartz on macOS, an X session on Linux).
- Export the display, e.g. ` + "`export DISPLAY=:0`" + `.`,
		extLinks: []HttpLink{"https://www.x.org/releases/current/doc/man/man1/xauth.1.xhtml"},
	}

	xauthorityUnavailableIssue = &Issue{
		id: XAuthorityUnavailableId,
		mdMsg: `
# No X authority entries

` + "`xauth nlist $DISPLAY`" + ` returned nothing, so there is no cookie to
hand to the container.

## Things you can try
- Check that ` + "`xauth`" + ` is installed and on your PATH.
- Verify ` + "`xauth list`" + ` shows an entry for your display.
- Drop ` + "`-xhost`" + ` to fall back to address-based access control.`,
		extLinks: []HttpLink{"https://www.x.org/releases/current/doc/man/man1/xauth.1.xhtml"},
	}

	networkAddressNotFoundIssue = &Issue{
		id: NetworkAddressNotFoundId,
		mdMsg: `
# No network address for display forwarding

The container reaches your X server over the host's network address, but no
matching interface has an IPv4 address.

## Things you can try
- Connect to a network (wired or wireless).
- List interfaces with ` + "`ip addr`" + ` or ` + "`ifconfig`" + ` and set a matching
  pattern: ` + "`GFXLAUNCH_NETWORK_INTERFACE_PATTERN='^wlp'`" + `.
- Set the address directly: ` + "`GFXLAUNCH_NETWORK_ADDRESS=192.168.1.10`" + `.`,
	}

	containerEngineNotFoundIssue = &Issue{
		id: ContainerEngineNotFoundId,
		mdMsg: `
# No container engine

Neither docker nor podman could be reached.

## Things you can try
- Install Docker or Podman and make sure the daemon/socket is running.
- Check ` + "`docker version`" + ` works without sudo.`,
		extLinks: []HttpLink{"https://docs.docker.com/engine/install/", "https://podman.io/docs/installation"},
	}

	userIdentityUnavailableIssue = &Issue{
		id: UserIdentityUnavailableId,
		mdMsg: `
# Unknown user identity

The numeric user and group IDs used to run the container as you could not be
determined.

## Things you can try
- Run ` + "`id`" + ` and check it prints numeric uid/gid values.`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded

## Things you can try
- Check the CUE syntax of ` + "`~/.config/gfxlaunch/config.cue`" + `.
- Move the file away to fall back to built-in defaults.`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	issues = map[Id]*Issue{
		mountDirNotFoundIssue.Id():        mountDirNotFoundIssue,
		mountDirIsHomeIssue.Id():          mountDirIsHomeIssue,
		displayNotSetIssue.Id():           displayNotSetIssue,
		xauthorityUnavailableIssue.Id():   xauthorityUnavailableIssue,
		networkAddressNotFoundIssue.Id():  networkAddressNotFoundIssue,
		containerEngineNotFoundIssue.Id(): containerEngineNotFoundIssue,
		userIdentityUnavailableIssue.Id(): userIdentityUnavailableIssue,
		configLoadFailedIssue.Id():        configLoadFailedIssue,
	}
)

// Values returns every catalog entry in unspecified order.
func Values() []*Issue {
	return maps.Values(issues)
}

// Get returns the entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
