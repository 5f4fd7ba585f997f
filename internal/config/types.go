// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"regexp"
)

const (
	// ContainerEngineDocker uses Docker as the container runtime.
	ContainerEngineDocker ContainerEngine = "docker"
	// ContainerEnginePodman uses Podman as the container runtime.
	ContainerEnginePodman ContainerEngine = "podman"

	// DefaultImageRepository is the graphical-apps image repository.
	DefaultImageRepository = "graphical-apps"
	// DefaultImageBaseTag is the tag used when no paraview variant is requested.
	DefaultImageBaseTag = "latest"
	// DefaultContainerHome is where the mount directory appears inside the container.
	DefaultContainerHome = "/home/user"
	// DefaultInterfacePattern matches wired and wireless host interfaces
	// (en0, eth0, enp3s0, wlan0, wlp2s0) and never lo, docker0 or veth*.
	DefaultInterfacePattern = `^(en|eth|wl)[0-9a-z]*$`
)

// ErrInvalidContainerEngine is returned when a ContainerEngine value is not recognized.
var ErrInvalidContainerEngine = errors.New("invalid container engine")

type (
	// ContainerEngine specifies which container runtime to use.
	ContainerEngine string

	// InvalidContainerEngineError is returned when a ContainerEngine value is not recognized.
	InvalidContainerEngineError struct {
		Value ContainerEngine
	}

	// Config is the complete gfxlaunch configuration.
	Config struct {
		// ContainerEngine is the preferred runtime; the other one is used as a fallback.
		ContainerEngine ContainerEngine `json:"container_engine" mapstructure:"container_engine"`
		// Image selects the image repository and base tag.
		Image ImageConfig `json:"image" mapstructure:"image"`
		// Container holds in-container layout settings.
		Container ContainerConfig `json:"container" mapstructure:"container"`
		// Network controls display-forwarding address discovery.
		Network NetworkConfig `json:"network" mapstructure:"network"`
		// Display controls X11 forwarding helpers.
		Display DisplayConfig `json:"display" mapstructure:"display"`
		// UI holds output settings.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// ImageConfig names the images to launch.
	ImageConfig struct {
		Repository string `json:"repository" mapstructure:"repository"`
		BaseTag    string `json:"base_tag" mapstructure:"base_tag"`
	}

	// ContainerConfig describes the in-container layout.
	ContainerConfig struct {
		// Home is the in-container path the mount directory is bound to.
		Home string `json:"home" mapstructure:"home"`
	}

	// NetworkConfig controls address discovery.
	NetworkConfig struct {
		// InterfacePattern is a regular expression matched against interface names.
		InterfacePattern string `json:"interface_pattern" mapstructure:"interface_pattern"`
		// Address bypasses discovery when non-empty.
		Address string `json:"address" mapstructure:"address"`
	}

	// DisplayConfig controls X11 forwarding.
	DisplayConfig struct {
		// Number is the display number appended to the forwarded address (addr:N).
		Number int `json:"number" mapstructure:"number"`
		// GrantAccess runs xhost +<addr> when no custom X authority is used.
		GrantAccess bool   `json:"grant_access" mapstructure:"grant_access"`
		XAuthBinary string `json:"xauth_binary" mapstructure:"xauth_binary"`
		XHostBinary string `json:"xhost_binary" mapstructure:"xhost_binary"`
	}

	// UIConfig holds output settings.
	UIConfig struct {
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// Error implements the error interface.
func (e *InvalidContainerEngineError) Error() string {
	return fmt.Sprintf("invalid container engine %q (valid: docker, podman)", e.Value)
}

// Unwrap returns ErrInvalidContainerEngine for errors.Is() compatibility.
func (e *InvalidContainerEngineError) Unwrap() error { return ErrInvalidContainerEngine }

// Validate returns an error if the engine is not docker or podman.
func (ce ContainerEngine) Validate() error {
	switch ce {
	case ContainerEngineDocker, ContainerEnginePodman:
		return nil
	default:
		return &InvalidContainerEngineError{Value: ce}
	}
}

// String returns the string representation of the ContainerEngine.
func (ce ContainerEngine) String() string { return string(ce) }

// Validate checks constraints that survive environment overrides, which bypass
// the CUE schema.
func (c *Config) Validate() error {
	var errs []error
	if err := c.ContainerEngine.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Image.Repository == "" {
		errs = append(errs, errors.New("image.repository must not be empty"))
	}
	if c.Image.BaseTag == "" {
		errs = append(errs, errors.New("image.base_tag must not be empty"))
	}
	if c.Container.Home == "" || c.Container.Home[0] != '/' {
		errs = append(errs, fmt.Errorf("container.home %q must be an absolute path", c.Container.Home))
	}
	if _, err := regexp.Compile(c.Network.InterfacePattern); err != nil {
		errs = append(errs, fmt.Errorf("network.interface_pattern: %w", err))
	}
	if c.Display.Number < 0 {
		errs = append(errs, fmt.Errorf("display.number %d must not be negative", c.Display.Number))
	}
	return errors.Join(errs...)
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		ContainerEngine: ContainerEngineDocker,
		Image: ImageConfig{
			Repository: DefaultImageRepository,
			BaseTag:    DefaultImageBaseTag,
		},
		Container: ContainerConfig{
			Home: DefaultContainerHome,
		},
		Network: NetworkConfig{
			InterfacePattern: DefaultInterfacePattern,
		},
		Display: DisplayConfig{
			Number:      0,
			GrantAccess: true,
			XAuthBinary: "xauth",
			XHostBinary: "xhost",
		},
	}
}
