package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ihorzashchelkin/nylawm/internal/keys"
)

// Action names a window manager command a key chord can trigger.
type Action string

const (
	ActionSpawn           Action = "spawn"
	ActionSpawnTerminal   Action = "spawn-terminal"
	ActionQuit            Action = "quit"
	ActionKill            Action = "kill"
	ActionWorkspaceNext   Action = "workspace-next"
	ActionWorkspacePrev   Action = "workspace-prev"
	ActionWorkspace       Action = "workspace"
	ActionSendToWorkspace Action = "send-to-workspace"
)

// Keybind maps a key chord to an action.
type Keybind struct {
	Key     string   `yaml:"key"`               // e.g. "Mod4-Shift-q"
	Action  Action   `yaml:"action"`            // see Action constants
	Command []string `yaml:"command,omitempty"` // argv for "spawn"
	// Zero-based target for "workspace" and "send-to-workspace".
	Workspace int `yaml:"workspace,omitempty"`
}

// Config is the immutable startup configuration.
type Config struct {
	Debug           bool   `yaml:"debug"`
	LogLevel        string `yaml:"log_level"`
	Display         string `yaml:"display"`          // empty means $DISPLAY
	FallbackDisplay string `yaml:"fallback_display"` // tried when Display fails
	Workspaces      int    `yaml:"workspaces"`
	FrameDelayMS    int    `yaml:"frame_delay_ms"`
	Compositor      bool   `yaml:"compositor"`
	Gap             int    `yaml:"gap"`
	FlexibleLastRow bool   `yaml:"flexible_last_row"` // stretch a short last row
	Terminal        string `yaml:"terminal"`

	Keybinds []Keybind `yaml:"keybinds"`
}

const (
	MaxWorkspaces = 32
	MaxFrameDelay = 1000
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Debug:           false,
		LogLevel:        "info",
		FallbackDisplay: ":1",
		Workspaces:      16,
		FrameDelayMS:    25,
		Compositor:      true,
		Gap:             0,
		Terminal:        "ghostty",
		Keybinds: []Keybind{
			{Key: "Mod4-Return", Action: ActionSpawnTerminal},
			{Key: "Mod4-Shift-q", Action: ActionQuit},
			{Key: "Mod4-Shift-c", Action: ActionKill},
			{Key: "Mod4-Right", Action: ActionWorkspaceNext},
			{Key: "Mod4-Left", Action: ActionWorkspacePrev},
		},
	}
}

// FrameDelay is the pacing delay between render ticks.
func (c *Config) FrameDelay() time.Duration {
	return time.Duration(c.FrameDelayMS) * time.Millisecond
}

// SlogLevel maps Debug and LogLevel to a slog level. Debug wins.
func (c *Config) SlogLevel() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// TerminalCommand splits Terminal into an argument vector.
func (c *Config) TerminalCommand() []string {
	return strings.Fields(c.Terminal)
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	if c.Workspaces < 1 || c.Workspaces > MaxWorkspaces {
		return &ValidationError{Path: "workspaces", Err: fmt.Errorf("workspaces must be between 1 and %d", MaxWorkspaces)}
	}
	if c.FrameDelayMS < 1 || c.FrameDelayMS > MaxFrameDelay {
		return &ValidationError{Path: "frame_delay_ms", Err: fmt.Errorf("frame_delay_ms must be between 1 and %d", MaxFrameDelay)}
	}
	if c.Gap < 0 {
		return &ValidationError{Path: "gap", Err: fmt.Errorf("gap must be >= 0")}
	}

	usesTerminal := false
	for i, kb := range c.Keybinds {
		path := fmt.Sprintf("keybinds[%d]", i)
		if _, err := keys.ParseChord(kb.Key); err != nil {
			return &ValidationError{Path: path + ".key", Err: err}
		}
		switch kb.Action {
		case ActionSpawn:
			if len(kb.Command) == 0 || strings.TrimSpace(kb.Command[0]) == "" {
				return &ValidationError{Path: path + ".command", Err: fmt.Errorf("spawn requires a non-empty command")}
			}
		case ActionSpawnTerminal:
			usesTerminal = true
		case ActionWorkspace, ActionSendToWorkspace:
			if kb.Workspace < 0 || kb.Workspace >= c.Workspaces {
				return &ValidationError{Path: path + ".workspace", Err: fmt.Errorf("workspace must be between 0 and %d", c.Workspaces-1)}
			}
		case ActionQuit, ActionKill, ActionWorkspaceNext, ActionWorkspacePrev:
		default:
			return &ValidationError{Path: path + ".action", Err: fmt.Errorf("unknown action %q", kb.Action)}
		}
	}
	if usesTerminal && len(c.TerminalCommand()) == 0 {
		return &ValidationError{Path: "terminal", Err: fmt.Errorf("terminal is required by a spawn-terminal keybind")}
	}

	return nil
}

// ValidationError points at the offending configuration path, and at the
// file position when the value came from a config file.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
