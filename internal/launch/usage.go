// SPDX-License-Identifier: MPL-2.0

package launch

import "strings"

const usageText = `Usage: {{.}} [options]

Launch the graphical-apps container with a host directory mounted as its home.

Options:
  -d, -dir <path>          Directory to mount (default: current directory).
                           Must exist and must not be your home directory.
  -p, -paraview [56|510]   Run a ParaView image (default version: 510).
  -u, -upgrade             Pull the latest image before launching.
  -x, -xhost               Forward an X authority file and use host networking
                           instead of granting access with xhost.
  -n, -dry-run             Print the container command instead of running it.
  -v, -verbose             Enable debug logging.
  -V, -version             Print version information and exit.
  -h, -help                Show this help and exit.

Environment:
  DISPLAY                  X display to forward.
  GFXLAUNCH_CONFIG         Path to a config.cue file.
  GFXLAUNCH_*              Override any configuration key, e.g.
                           GFXLAUNCH_IMAGE_REPOSITORY, GFXLAUNCH_NETWORK_ADDRESS.
`

// Usage returns the help text for program.
func Usage(program string) string {
	return strings.ReplaceAll(usageText, "{{.}}", program)
}
