// SPDX-License-Identifier: MPL-2.0

// Package config handles gfxlaunch configuration using Viper with CUE as the file format.
//
// Values are layered: built-in defaults, then ~/.config/gfxlaunch/config.cue (or the
// XDG equivalent), then GFXLAUNCH_* environment variables. The file is validated
// against the embedded config_schema.cue before it is merged.
package config
