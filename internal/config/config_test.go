package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.Workspaces != 16 {
		t.Fatalf("expected 16 workspaces, got %d", cfg.Workspaces)
	}
	if cfg.FallbackDisplay != ":1" {
		t.Fatalf("expected fallback display :1, got %q", cfg.FallbackDisplay)
	}
	if cfg.FrameDelay() != 25*time.Millisecond {
		t.Fatalf("expected 25ms frame delay, got %v", cfg.FrameDelay())
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.File != "" {
		t.Fatalf("expected no file, got %q", res.File)
	}
	if len(res.Config.Keybinds) != len(DefaultConfig().Keybinds) {
		t.Fatalf("expected default keybinds, got %d", len(res.Config.Keybinds))
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, "# empty")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Terminal != "ghostty" {
		t.Fatalf("expected default terminal, got %q", res.Config.Terminal)
	}
}

func TestLoadFromPath_OverridesAndReplacesKeybinds(t *testing.T) {
	path := writeConfig(t,
		"debug: true",
		"workspaces: 4",
		"gap: 8",
		"flexible_last_row: true",
		"terminal: alacritty -e tmux",
		"keybinds:",
		"  - key: Mod1-Return",
		"    action: spawn",
		"    command: [xterm, -fa, Monospace]",
		"  - key: Mod1-3",
		"    action: workspace",
		"    workspace: 2",
	)

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if !cfg.Debug || cfg.SlogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug logging")
	}
	if cfg.Workspaces != 4 || cfg.Gap != 8 || !cfg.FlexibleLastRow {
		t.Fatalf("unexpected workspaces=%d gap=%d flexible=%v", cfg.Workspaces, cfg.Gap, cfg.FlexibleLastRow)
	}
	if got := cfg.TerminalCommand(); len(got) != 3 || got[0] != "alacritty" {
		t.Fatalf("unexpected terminal command %v", got)
	}
	if len(cfg.Keybinds) != 2 {
		t.Fatalf("expected keybinds to be replaced, got %d", len(cfg.Keybinds))
	}
	if cfg.Keybinds[0].Command[2] != "Monospace" {
		t.Fatalf("unexpected command %v", cfg.Keybinds[0].Command)
	}
	if cfg.Keybinds[1].Workspace != 2 {
		t.Fatalf("expected workspace 2, got %d", cfg.Keybinds[1].Workspace)
	}
}

func TestLoadFromPath_StrictUnknownKeyErrors(t *testing.T) {
	path := writeConfig(t, "unknown_key: 1")

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error to include file path, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorCarriesPosition(t *testing.T) {
	path := writeConfig(t,
		"keybinds:",
		"  - key: Mod4-Return",
		"    action: spawn",
	)

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Path != "keybinds[0].command" {
		t.Fatalf("unexpected path %q", verr.Path)
	}
	if verr.Source.File != path || verr.Source.Line != 2 {
		t.Fatalf("expected source %s:2, got %+v", path, verr.Source)
	}
}

func TestLoadFromPath_EnvOverrides(t *testing.T) {
	t.Setenv(EnvDebug, "true")
	t.Setenv(EnvDisplay, ":7")
	t.Setenv(EnvFallbackDisplay, ":9")
	path := writeConfig(t, "display: \":2\"")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !res.Config.Debug {
		t.Fatalf("expected debug from env")
	}
	if res.Config.Display != ":7" || res.Config.FallbackDisplay != ":9" {
		t.Fatalf("unexpected displays %q %q", res.Config.Display, res.Config.FallbackDisplay)
	}
}

func TestLoadFromPath_BadEnvBool(t *testing.T) {
	t.Setenv(EnvDebug, "sometimes")

	_, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path != EnvDebug {
		t.Fatalf("expected env validation error, got %v", err)
	}
}

func TestLoad_UsesEnvPath(t *testing.T) {
	path := writeConfig(t, "workspaces: 3")
	t.Setenv(EnvConfig, path)

	res, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.File != path || res.Config.Workspaces != 3 {
		t.Fatalf("expected config from %s, got file=%q workspaces=%d", path, res.File, res.Config.Workspaces)
	}
}

func TestDefaultConfigPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if path != "/tmp/xdg/nylawm/config.yaml" {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"zero workspaces", func(c *Config) { c.Workspaces = 0 }, "workspaces"},
		{"too many workspaces", func(c *Config) { c.Workspaces = MaxWorkspaces + 1 }, "workspaces"},
		{"frame delay", func(c *Config) { c.FrameDelayMS = 0 }, "frame_delay_ms"},
		{"gap", func(c *Config) { c.Gap = -1 }, "gap"},
		{"bad chord", func(c *Config) { c.Keybinds[0].Key = "Hyper-x" }, "keybinds[0].key"},
		{"unknown action", func(c *Config) { c.Keybinds[1].Action = "dance" }, "keybinds[1].action"},
		{"workspace range", func(c *Config) {
			c.Keybinds = append(c.Keybinds, Keybind{Key: "Mod4-1", Action: ActionWorkspace, Workspace: 16})
		}, "keybinds[5].workspace"},
		{"terminal", func(c *Config) { c.Terminal = "  " }, "terminal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q", tt.path, verr.Path)
			}
		})
	}
}
