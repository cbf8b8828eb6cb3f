package wm

import (
	"fmt"
	"slices"

	"github.com/ihorzashchelkin/nylawm/internal/config"
	"github.com/ihorzashchelkin/nylawm/internal/keys"
)

// Action is what a key binding runs. It receives the window manager it
// runs against.
type Action func(w *WM)

// Bindings turns the configured keybinds into actions.
func Bindings(cfg *config.Config) ([]keys.Binding[Action], error) {
	out := make([]keys.Binding[Action], 0, len(cfg.Keybinds))
	for i, kb := range cfg.Keybinds {
		chord, err := keys.ParseChord(kb.Key)
		if err != nil {
			return nil, fmt.Errorf("keybinds[%d]: %w", i, err)
		}

		var action Action
		switch kb.Action {
		case config.ActionSpawn:
			action = Spawn(kb.Command)
		case config.ActionSpawnTerminal:
			action = Spawn(cfg.TerminalCommand())
		case config.ActionQuit:
			action = Quit
		case config.ActionKill:
			action = Kill
		case config.ActionWorkspaceNext:
			action = NextWorkspace
		case config.ActionWorkspacePrev:
			action = PrevWorkspace
		case config.ActionWorkspace:
			action = GoToWorkspace(kb.Workspace)
		case config.ActionSendToWorkspace:
			action = SendToWorkspace(kb.Workspace)
		default:
			return nil, fmt.Errorf("keybinds[%d]: unknown action %q", i, kb.Action)
		}
		out = append(out, keys.Binding[Action]{Chord: chord, Action: action})
	}
	return out, nil
}

// Spawn starts argv detached from the window manager.
func Spawn(argv []string) Action {
	argv = slices.Clone(argv)
	return func(w *WM) {
		if err := w.spawn(argv); err != nil {
			w.logger.Error("spawn failed", "command", argv, "error", err)
			return
		}
		w.logger.Debug("spawned", "command", argv)
	}
}

func Quit(w *WM) {
	w.logger.Info("quit requested")
	w.Quit()
}

// Kill closes the active client of the current workspace.
func Kill(w *WM) {
	win := w.ActiveWindow()
	if win == 0 || w.clients.Lookup(win) == nil {
		return
	}
	w.check("close window", w.srv.CloseWindow(win))
}

func NextWorkspace(w *WM) { w.SwitchWorkspace(w.current + 1) }
func PrevWorkspace(w *WM) { w.SwitchWorkspace(w.current - 1) }

func GoToWorkspace(i int) Action {
	return func(w *WM) { w.SwitchWorkspace(i) }
}

// SendToWorkspace moves the active client of the current workspace to
// workspace i.
func SendToWorkspace(i int) Action {
	return func(w *WM) {
		w.MoveClient(w.clients.Lookup(w.ActiveWindow()), i)
	}
}
