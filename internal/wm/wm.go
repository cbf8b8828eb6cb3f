// Package wm is the window manager state machine: it consumes protocol
// events, keeps the client registry current, runs key bindings and drives
// layout and compositing ticks.
package wm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/ihorzashchelkin/nylawm/internal/client"
	"github.com/ihorzashchelkin/nylawm/internal/compositor"
	"github.com/ihorzashchelkin/nylawm/internal/config"
	"github.com/ihorzashchelkin/nylawm/internal/keys"
	"github.com/ihorzashchelkin/nylawm/internal/tiling"
	"github.com/ihorzashchelkin/nylawm/internal/x11"
)

// ErrConnectionLost is returned by Run when the server connection goes away.
var ErrConnectionLost = errors.New("connection to X server lost")

// Server is the subset of the X connection the window manager drives.
// *x11.Connection implements it.
type Server interface {
	keys.KeycodeLookup
	keys.Grabber
	UngrabKeys() error
	RefreshKeyboard() error
	LockMasks() []uint16

	Configure(win xproto.Window, mask uint16, values []uint32) error
	SendConfigureNotify(win xproto.Window, x, y, width, height, border int) error
	MapWindow(win xproto.Window) error
	Focus(win xproto.Window) error
	TrackPointer(win xproto.Window) error
	CloseWindow(win xproto.Window) error
	IsNormalWindow(win xproto.Window) bool
	AtomName(atom xproto.Atom) (string, error)

	SetCurrentDesktop(desktop int) error
	SetClientList(wins []xproto.Window) error
	SetActiveWindow(win xproto.Window) error
	SetWindowDesktop(win xproto.Window, desktop int) error
	SetWindowHidden(win xproto.Window, hidden bool) error
}

// Spawner starts a detached program.
type Spawner func(argv []string) error

// Options configure a window manager.
type Options struct {
	Config *config.Config
	Screen tiling.Rect
	Spawn  Spawner
	Logger *slog.Logger
}

// Workspace is one virtual desktop.
type Workspace struct {
	// Active is the client last under the pointer here, or zero. It is a
	// registry key and may name a window that has since gone away.
	Active xproto.Window
}

// WM holds all window manager state. It is owned by the goroutine running
// Run; nothing in it is safe for concurrent use.
type WM struct {
	cfg    *config.Config
	srv    Server
	comp   *compositor.Bridge
	spawn  Spawner
	logger *slog.Logger

	clients *client.Registry
	// popups are override-redirect windows: never managed, only drawn.
	popups *client.Registry

	bindings []keys.Binding[Action]
	resolved []keys.Resolved[Action]
	ignore   []uint16

	workspaces []Workspace
	current    int
	pointerX   int
	pointerY   int
	screen     tiling.Rect
	layout     tiling.Options

	running bool
}

// New builds a stopped window manager. comp may be nil when compositing is
// disabled.
func New(srv Server, comp *compositor.Bridge, opts Options) (*WM, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	spawn := opts.Spawn
	if spawn == nil {
		spawn = func([]string) error { return errors.New("spawning is not available") }
	}

	bindings, err := Bindings(cfg)
	if err != nil {
		return nil, err
	}

	return &WM{
		cfg:        cfg,
		srv:        srv,
		comp:       comp,
		spawn:      spawn,
		logger:     logger,
		clients:    client.NewRegistry(),
		popups:     client.NewRegistry(),
		bindings:   bindings,
		workspaces: make([]Workspace, cfg.Workspaces),
		screen:     opts.Screen,
		layout:     tiling.Options{Gap: cfg.Gap, FlexibleLastRow: cfg.FlexibleLastRow},
	}, nil
}

// Start grabs the key bindings, adopts the windows that already exist and
// publishes the initial desktop state.
func (w *WM) Start(existing []x11.Existing) error {
	if err := w.grabKeys(); err != nil {
		return fmt.Errorf("grab keys: %w", err)
	}
	w.adopt(existing)
	w.check("set current desktop", w.srv.SetCurrentDesktop(w.current))
	w.publishClientList()
	return nil
}

// Run processes events until ctx is done, a quit binding fires or the
// connection is lost. Every pass drains the queued events and then runs one
// tick. With a compositor the loop is paced by the frame delay; without one
// it blocks on the next event.
func (w *WM) Run(ctx context.Context, events <-chan x11.Event) error {
	w.running = true
	defer w.shutdown()

	var frame <-chan time.Time
	if w.comp != nil {
		ticker := time.NewTicker(w.cfg.FrameDelay())
		defer ticker.Stop()
		frame = ticker.C
	}

	w.logger.Info("window manager running", "workspaces", len(w.workspaces), "compositor", w.comp != nil)
	for w.running {
		if err := w.drain(events); err != nil {
			if ctx.Err() != nil {
				break
			}
			return err
		}
		if !w.running {
			break
		}
		w.Tick()

		if frame != nil {
			select {
			case <-ctx.Done():
				w.running = false
			case <-frame:
			}
			continue
		}

		select {
		case <-ctx.Done():
			w.running = false
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					w.running = false
					continue
				}
				return ErrConnectionLost
			}
			w.Dispatch(ev)
		}
	}
	w.logger.Info("window manager stopped")
	return nil
}

// drain dispatches every event already queued without blocking.
func (w *WM) drain(events <-chan x11.Event) error {
	for w.running {
		select {
		case ev, ok := <-events:
			if !ok {
				return ErrConnectionLost
			}
			w.Dispatch(ev)
		default:
			return nil
		}
	}
	return nil
}

// Tick lays out the current workspace, follows the pointer and renders a
// frame when compositing.
func (w *WM) Tick() {
	if err := w.Arrange(); err != nil {
		w.logger.Warn("layout", "error", err)
	}
	if w.comp != nil {
		if err := w.comp.Tick(w.drawable(), w.current); err != nil {
			w.logger.Warn("present frame", "error", err)
		}
	}
}

// Arrange plans and applies the layout of the current workspace and makes
// the client under the pointer active.
func (w *WM) Arrange() error {
	all := w.clients.All()
	tiling.Plan(all, w.current, w.screen, w.layout)
	sent, err := tiling.Apply(all, w.srv)
	if sent > 0 {
		w.logger.Debug("layout applied", "workspace", w.current, "requests", sent)
	}
	w.followPointer()
	return err
}

// Quit stops the loop after the current event.
func (w *WM) Quit() {
	w.running = false
}

// Running reports whether the loop is (or would keep) running.
func (w *WM) Running() bool { return w.running }

// Current returns the index of the visible workspace.
func (w *WM) Current() int { return w.current }

// Clients exposes the registry of managed windows.
func (w *WM) Clients() *client.Registry { return w.clients }

// ActiveWindow returns the active client of the current workspace, or zero.
func (w *WM) ActiveWindow() xproto.Window {
	return w.workspaces[w.current].Active
}

// SwitchWorkspace makes workspace i current, wrapping modulo the workspace
// count in both directions.
func (w *WM) SwitchWorkspace(i int) {
	n := len(w.workspaces)
	i = ((i % n) + n) % n
	if i == w.current {
		return
	}
	w.logger.Debug("switch workspace", "from", w.current, "to", i)
	w.current = i
	w.check("set current desktop", w.srv.SetCurrentDesktop(i))
	w.dropWithdrawn(i)

	active := w.workspaces[i].Active
	if c := w.clients.Lookup(active); c == nil || !c.Visible(i) {
		active = 0
		w.workspaces[i].Active = 0
	}
	w.activate(active)
}

// dropWithdrawn gives up the slots that unmapped members of workspace i
// kept while it was hidden. A later map request assigns them afresh.
func (w *WM) dropWithdrawn(i int) {
	withdrawn := w.clients.Select(func(c *client.Client) bool {
		return !c.Mapped && c.Member(i)
	})
	if len(withdrawn) == 0 {
		return
	}
	for _, c := range withdrawn {
		c.Assigned = false
		w.logger.Debug("slot dropped", "client", c.String(), "workspace", i)
	}
	w.publishClientList()
}

// MoveClient assigns c to workspace i. Out of range targets are ignored.
func (w *WM) MoveClient(c *client.Client, i int) {
	if c == nil || i < 0 || i >= len(w.workspaces) || c.Floating {
		return
	}
	if c.Assigned && c.Workspace == i {
		return
	}
	if c.Assigned && w.workspaces[c.Workspace].Active == c.Window {
		w.workspaces[c.Workspace].Active = 0
		if c.Workspace == w.current {
			w.activate(0)
		}
	}
	c.Workspace = i
	c.Assigned = true
	w.check("set window desktop", w.srv.SetWindowDesktop(c.Window, i))
}

// followPointer makes the tiled client under the last known pointer
// position the active one of the current workspace.
func (w *WM) followPointer() {
	visible := w.clients.Select(func(c *client.Client) bool { return c.Visible(w.current) })
	c := tiling.At(visible, w.pointerX, w.pointerY)
	if c == nil || w.workspaces[w.current].Active == c.Window {
		return
	}
	w.workspaces[w.current].Active = c.Window
	w.activate(c.Window)
}

// activate focuses win and publishes it as the active window. Zero clears
// the published value.
func (w *WM) activate(win xproto.Window) {
	if win != 0 {
		w.check("focus", w.srv.Focus(win))
	}
	w.check("set active window", w.srv.SetActiveWindow(win))
}

// grabKeys resolves and grabs every binding. A binding whose grab fails is
// logged and the rest are still installed; it is an error only when bindings
// resolved but none could be grabbed.
func (w *WM) grabKeys() error {
	w.check("ungrab keys", w.srv.UngrabKeys())
	w.ignore = keys.IgnoreMasks(w.srv.LockMasks()...)
	w.resolved = w.resolved[:0]

	var failed []error
	grabbed := 0
	for _, b := range w.bindings {
		resolved := keys.Resolve(w.srv, []keys.Binding[Action]{b}, w.logger)
		if len(resolved) == 0 {
			continue
		}
		w.resolved = append(w.resolved, resolved...)
		if err := keys.Grab(w.srv, resolved, w.ignore); err != nil {
			w.logger.Warn("key grab failed", "key", b.Chord.String(), "error", err)
			failed = append(failed, err)
			continue
		}
		grabbed++
	}
	w.logger.Debug("keys resolved", "bindings", len(w.bindings), "grabs", len(w.resolved), "ignore", w.ignore)

	if grabbed == 0 && len(failed) > 0 {
		return errors.Join(failed...)
	}
	return nil
}

// adopt manages the windows that existed before startup.
func (w *WM) adopt(existing []x11.Existing) {
	for _, e := range existing {
		g := client.Geometry{X: e.X, Y: e.Y, Width: e.Width, Height: e.Height, BorderWidth: e.BorderWidth}
		if e.OverrideRedirect {
			p, _ := w.popups.Manage(e.Window, 0)
			p.Floating = true
			p.Mapped = e.Viewable
			p.Current, p.Target = g, g
			continue
		}

		c, _ := w.clients.Manage(e.Window, w.current)
		c.Current, c.Target = g, g
		if !e.Viewable {
			continue
		}
		c.Mapped = true
		if !e.Normal {
			c.Floating = true
		} else {
			ws := w.current
			if e.Desktop >= 0 && e.Desktop < len(w.workspaces) {
				ws = e.Desktop
			}
			c.Assigned = true
			c.Workspace = ws
			w.check("set window desktop", w.srv.SetWindowDesktop(c.Window, ws))
		}
		w.check("track pointer", w.srv.TrackPointer(c.Window))
		w.logger.Debug("adopted window", "client", c.String())
	}
}

func (w *WM) publishClientList() {
	wins := make([]xproto.Window, 0, w.clients.Len())
	for _, c := range w.clients.All() {
		if c.Assigned || c.Floating {
			wins = append(wins, c.Window)
		}
	}
	w.check("set client list", w.srv.SetClientList(wins))
}

// drawable lists everything the compositor may draw, managed clients first
// so popups end up on top.
func (w *WM) drawable() []*client.Client {
	return slices.Concat(w.clients.All(), w.popups.All())
}

// release frees the compositor surface of c, if any.
func (w *WM) release(c *client.Client) {
	if w.comp != nil {
		w.comp.Release(c)
	}
}

func (w *WM) shutdown() {
	if w.comp != nil {
		w.comp.ReleaseAll(w.drawable())
	}
}

// check logs a failed request. Requests that fail here usually raced a
// window being destroyed.
func (w *WM) check(what string, err error) {
	if err != nil {
		w.logger.Debug(what, "error", err)
	}
}
