// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gfxapps/gfxlaunch/internal/issue"
	"github.com/gfxapps/gfxlaunch/internal/testutil"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.ContainerEngine != ContainerEngineDocker {
		t.Errorf("expected default container engine to be docker, got %s", cfg.ContainerEngine)
	}
	if cfg.Image.Repository != "graphical-apps" || cfg.Image.BaseTag != "latest" {
		t.Errorf("unexpected default image %+v", cfg.Image)
	}
	if cfg.Container.Home != "/home/user" {
		t.Errorf("expected default container home /home/user, got %s", cfg.Container.Home)
	}
	if !cfg.Display.GrantAccess {
		t.Error("expected grant_access to default to true")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad engine", func(c *Config) { c.ContainerEngine = "lxc" }, "invalid container engine"},
		{"empty repository", func(c *Config) { c.Image.Repository = "" }, "image.repository"},
		{"relative home", func(c *Config) { c.Container.Home = "home" }, "container.home"},
		{"bad pattern", func(c *Config) { c.Network.InterfacePattern = "(" }, "network.interface_pattern"},
		{"negative display", func(c *Config) { c.Display.Number = -1 }, "display.number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}

	cfg := DefaultConfig()
	cfg.ContainerEngine = "lxc"
	if !errors.Is(cfg.Validate(), ErrInvalidContainerEngine) {
		t.Error("expected errors.Is(err, ErrInvalidContainerEngine)")
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("loadWithOptions() returned error: %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want empty", path)
	}
	if cfg.Image.Repository != DefaultImageRepository {
		t.Errorf("repository = %q, want default", cfg.Image.Repository)
	}
}

func TestLoad_CUEFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
container_engine: "podman"
image: repository: "registry.example.com/gfx/apps"
display: {
	number: 1
	grant_access: false
}
`)

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("loadWithOptions() returned error: %v", err)
	}
	if path == "" {
		t.Error("expected a resolved config path")
	}
	if cfg.ContainerEngine != ContainerEnginePodman {
		t.Errorf("engine = %s, want podman", cfg.ContainerEngine)
	}
	if cfg.Image.Repository != "registry.example.com/gfx/apps" {
		t.Errorf("repository = %q", cfg.Image.Repository)
	}
	if cfg.Image.BaseTag != DefaultImageBaseTag {
		t.Errorf("base tag = %q, want default to survive a partial file", cfg.Image.BaseTag)
	}
	if cfg.Display.Number != 1 || cfg.Display.GrantAccess {
		t.Errorf("display = %+v", cfg.Display)
	}
}

func TestLoad_SchemaViolation(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `container_engine: "lxc"`)

	_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err == nil {
		t.Fatal("expected schema violation error")
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("expected ActionableError, got %T", err)
	}
	if ae.IssueID != issue.ConfigLoadFailedId {
		t.Errorf("IssueID = %d, want ConfigLoadFailedId", ae.IssueID)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.cue")

	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: missing})
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("Load() = %v, want config file not found", err)
	}
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	defer testutil.MustSetenv(t, "GFXLAUNCH_IMAGE_BASE_TAG", "nightly")()
	defer testutil.MustSetenv(t, "GFXLAUNCH_DISPLAY_NUMBER", "2")()

	dir := t.TempDir()
	writeConfig(t, dir, `image: base_tag: "stable"`)

	cfg, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("loadWithOptions() returned error: %v", err)
	}
	if cfg.Image.BaseTag != "nightly" {
		t.Errorf("base tag = %q, want env override nightly", cfg.Image.BaseTag)
	}
	if cfg.Display.Number != 2 {
		t.Errorf("display number = %d, want 2", cfg.Display.Number)
	}
}

func TestLoad_InvalidEnvironmentOverride(t *testing.T) {
	defer testutil.MustSetenv(t, "GFXLAUNCH_CONTAINER_ENGINE", "lxc")()

	_, _, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, ErrInvalidContainerEngine) {
		t.Errorf("expected ErrInvalidContainerEngine, got %v", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := loadWithOptions(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestConfigDir(t *testing.T) {
	defer testutil.MustSetenv(t, "XDG_CONFIG_HOME", "/tmp/test-xdg-config")()

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if want := filepath.Join("/tmp/test-xdg-config", AppName); dir != want {
		t.Errorf("ConfigDir() = %s, want %s", dir, want)
	}

	SetConfigDirOverride("/override")
	defer Reset()
	if dir, _ := ConfigDir(); dir != "/override" {
		t.Errorf("ConfigDir() with override = %s", dir)
	}
}

func TestOptionsFromEnv(t *testing.T) {
	defer testutil.MustSetenv(t, ConfigPathEnv, "/etc/gfxlaunch.cue")()

	if got := OptionsFromEnv().ConfigFilePath; got != "/etc/gfxlaunch.cue" {
		t.Errorf("OptionsFromEnv().ConfigFilePath = %q", got)
	}
}
