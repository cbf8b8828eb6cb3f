package wm

import (
	"context"
	"log/slog"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/k0kubun/pp"

	"github.com/ihorzashchelkin/nylawm/internal/client"
	"github.com/ihorzashchelkin/nylawm/internal/keys"
	"github.com/ihorzashchelkin/nylawm/internal/x11"
)

// Dispatch routes one event or protocol error to its handler.
func (w *WM) Dispatch(ev x11.Event) {
	if ev.Err != nil {
		w.onError(ev.Err)
		return
	}

	switch e := ev.Event.(type) {
	case xproto.CreateNotifyEvent:
		w.onCreate(e)
	case xproto.ConfigureRequestEvent:
		w.onConfigureRequest(e)
	case xproto.ConfigureNotifyEvent:
		w.onConfigureNotify(e)
	case xproto.MapRequestEvent:
		w.onMapRequest(e)
	case xproto.MapNotifyEvent:
		w.onMapNotify(e)
	case xproto.UnmapNotifyEvent:
		w.onUnmapNotify(e)
	case xproto.DestroyNotifyEvent:
		w.onDestroyNotify(e)
	case xproto.KeyPressEvent:
		w.onKeyPress(e)
	case xproto.MappingNotifyEvent:
		w.onMappingNotify(e)
	case xproto.ClientMessageEvent:
		w.onClientMessage(e)
	case xproto.MotionNotifyEvent:
		w.pointerX, w.pointerY = int(e.RootX), int(e.RootY)
	case xproto.EnterNotifyEvent:
		w.pointerX, w.pointerY = int(e.RootX), int(e.RootY)
	default:
		if w.logger.Enabled(context.Background(), slog.LevelDebug) {
			w.logger.Debug("unhandled event", "event", pp.Sprint(e))
		}
	}
}

func (w *WM) onError(err xgb.Error) {
	code := x11.ErrorCode(err)
	w.logger.Warn("protocol error",
		"name", x11.ErrorName(code),
		"code", code,
		"resource", err.BadId(),
		"sequence", err.SequenceId(),
		"error", err.Error())
}

func (w *WM) onCreate(e xproto.CreateNotifyEvent) {
	g := client.Geometry{
		X:           int(e.X),
		Y:           int(e.Y),
		Width:       int(e.Width),
		Height:      int(e.Height),
		BorderWidth: int(e.BorderWidth),
	}
	if e.OverrideRedirect {
		p, _ := w.popups.Manage(e.Window, 0)
		p.Floating = true
		p.Current, p.Target = g, g
		return
	}

	c, created := w.clients.Manage(e.Window, w.current)
	if created {
		c.Current, c.Target = g, g
	}
}

// onConfigureRequest grants windows that have never been tiled exactly the
// fields they asked for. Tiled windows keep their geometry and are told so.
func (w *WM) onConfigureRequest(e xproto.ConfigureRequestEvent) {
	c, _ := w.clients.Manage(e.Window, w.current)
	if c.Assigned && !c.Floating {
		g := c.Current
		w.check("send configure notify",
			w.srv.SendConfigureNotify(c.Window, g.X, g.Y, g.Width, g.Height, g.BorderWidth))
		return
	}

	mask, values := grantedValues(e)
	if mask == 0 {
		return
	}
	w.check("configure", w.srv.Configure(e.Window, mask, values))
	c.Current = grantedGeometry(c.Current, e)
	c.Target = c.Current
}

// grantedValues returns the value list of a configure request, one value per
// bit present in its mask, in protocol order.
func grantedValues(e xproto.ConfigureRequestEvent) (uint16, []uint32) {
	fields := []struct {
		bit   uint16
		value uint32
	}{
		{xproto.ConfigWindowX, uint32(int32(e.X))},
		{xproto.ConfigWindowY, uint32(int32(e.Y))},
		{xproto.ConfigWindowWidth, uint32(e.Width)},
		{xproto.ConfigWindowHeight, uint32(e.Height)},
		{xproto.ConfigWindowBorderWidth, uint32(e.BorderWidth)},
		{xproto.ConfigWindowSibling, uint32(e.Sibling)},
		{xproto.ConfigWindowStackMode, uint32(e.StackMode)},
	}

	var mask uint16
	var values []uint32
	for _, f := range fields {
		if e.ValueMask&f.bit != 0 {
			mask |= f.bit
			values = append(values, f.value)
		}
	}
	return mask, values
}

func grantedGeometry(g client.Geometry, e xproto.ConfigureRequestEvent) client.Geometry {
	if e.ValueMask&xproto.ConfigWindowX != 0 {
		g.X = int(e.X)
	}
	if e.ValueMask&xproto.ConfigWindowY != 0 {
		g.Y = int(e.Y)
	}
	if e.ValueMask&xproto.ConfigWindowWidth != 0 {
		g.Width = int(e.Width)
	}
	if e.ValueMask&xproto.ConfigWindowHeight != 0 {
		g.Height = int(e.Height)
	}
	if e.ValueMask&xproto.ConfigWindowBorderWidth != 0 {
		g.BorderWidth = int(e.BorderWidth)
	}
	return g
}

// onConfigureNotify tracks popup geometry. Managed clients only move when
// the layout moves them.
func (w *WM) onConfigureNotify(e xproto.ConfigureNotifyEvent) {
	p := w.popups.Lookup(e.Window)
	if p == nil {
		return
	}
	p.Current = client.Geometry{
		X:           int(e.X),
		Y:           int(e.Y),
		Width:       int(e.Width),
		Height:      int(e.Height),
		BorderWidth: int(e.BorderWidth),
	}
	p.Target = p.Current
}

func (w *WM) onMapRequest(e xproto.MapRequestEvent) {
	c, _ := w.clients.Manage(e.Window, w.current)
	if !c.Assigned && !c.Floating {
		if w.srv.IsNormalWindow(c.Window) {
			c.Assigned = true
			c.Workspace = w.current
			w.check("set window desktop", w.srv.SetWindowDesktop(c.Window, c.Workspace))
		} else {
			c.Floating = true
		}
	}
	if c.Hidden {
		c.Hidden = false
		w.check("clear hidden state", w.srv.SetWindowHidden(c.Window, false))
	}

	c.Mapped = true
	w.check("map window", w.srv.MapWindow(c.Window))
	w.check("track pointer", w.srv.TrackPointer(c.Window))
	w.publishClientList()
	w.logger.Debug("mapped", "client", c.String(), "floating", c.Floating)
}

func (w *WM) onMapNotify(e xproto.MapNotifyEvent) {
	if p := w.popups.Lookup(e.Window); p != nil {
		p.Mapped = true
		return
	}
	if c := w.clients.Lookup(e.Window); c != nil {
		c.Mapped = true
	}
}

// onUnmapNotify releases the surface before clearing the mapped flag so a
// later map starts from a fresh pixmap.
func (w *WM) onUnmapNotify(e xproto.UnmapNotifyEvent) {
	if p := w.popups.Lookup(e.Window); p != nil {
		w.release(p)
		p.Mapped = false
		return
	}
	c := w.clients.Lookup(e.Window)
	if c == nil {
		return
	}
	w.release(c)
	c.Mapped = false
}

func (w *WM) onDestroyNotify(e xproto.DestroyNotifyEvent) {
	if p := w.popups.Lookup(e.Window); p != nil {
		w.release(p)
		w.popups.Forget(e.Window)
		return
	}
	c := w.clients.Lookup(e.Window)
	if c == nil {
		return
	}
	w.release(c)
	w.clients.Forget(e.Window)

	for i := range w.workspaces {
		if w.workspaces[i].Active != e.Window {
			continue
		}
		w.workspaces[i].Active = 0
		if i == w.current {
			w.activate(0)
		}
	}
	w.publishClientList()
}

func (w *WM) onKeyPress(e xproto.KeyPressEvent) {
	action, ok := keys.Match(w.resolved, e.State, e.Detail, w.ignore)
	if !ok {
		return
	}
	action(w)
}

// onMappingNotify re-resolves and re-grabs every binding after the keyboard
// mapping changed.
func (w *WM) onMappingNotify(e xproto.MappingNotifyEvent) {
	if e.Request == xproto.MappingPointer {
		return
	}
	if err := w.srv.RefreshKeyboard(); err != nil {
		w.logger.Warn("keyboard mapping", "error", err)
		return
	}
	if err := w.grabKeys(); err != nil {
		w.logger.Warn("regrab keys", "error", err)
	}
}

// EWMH _NET_WM_STATE actions.
const (
	stateRemove = 0
	stateAdd    = 1
	stateToggle = 2
)

func (w *WM) onClientMessage(e xproto.ClientMessageEvent) {
	name, err := w.srv.AtomName(e.Type)
	if err != nil {
		w.logger.Debug("client message with unknown type", "atom", e.Type, "error", err)
		return
	}
	data := make([]uint32, 5)
	copy(data, e.Data.Data32)

	switch name {
	case "_NET_CURRENT_DESKTOP":
		if i := int(data[0]); i < len(w.workspaces) {
			w.SwitchWorkspace(i)
		}
	case "_NET_ACTIVE_WINDOW":
		c := w.clients.Lookup(e.Window)
		if c == nil || c.Floating {
			return
		}
		if c.Assigned {
			w.SwitchWorkspace(c.Workspace)
			w.workspaces[c.Workspace].Active = c.Window
		}
		w.activate(c.Window)
	case "_NET_CLOSE_WINDOW":
		if w.clients.Lookup(e.Window) != nil {
			w.check("close window", w.srv.CloseWindow(e.Window))
		}
	case "_NET_WM_DESKTOP":
		w.MoveClient(w.clients.Lookup(e.Window), int(data[0]))
	case "_NET_WM_STATE":
		c := w.clients.Lookup(e.Window)
		if c == nil {
			return
		}
		for _, atom := range data[1:3] {
			if atom == 0 {
				continue
			}
			if state, _ := w.srv.AtomName(xproto.Atom(atom)); state == "_NET_WM_STATE_HIDDEN" {
				w.setHidden(c, data[0])
			}
		}
	default:
		w.logger.Debug("ignored client message", "type", name, "window", e.Window)
	}
}

func (w *WM) setHidden(c *client.Client, action uint32) {
	hidden := c.Hidden
	switch action {
	case stateRemove:
		hidden = false
	case stateAdd:
		hidden = true
	case stateToggle:
		hidden = !hidden
	}
	if hidden == c.Hidden {
		return
	}
	c.Hidden = hidden
	w.check("set hidden state", w.srv.SetWindowHidden(c.Window, hidden))
	if hidden {
		w.release(c)
	}
}
