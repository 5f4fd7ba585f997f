// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/gfxapps/gfxlaunch/cmd/gfxlaunch"

func main() {
	cmd.Execute()
}
