package x11

import (
	"fmt"
	"slices"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xprop"
)

// Configure sends a ConfigureWindow request. Errors arrive asynchronously
// on the event stream.
func (c *Connection) Configure(win xproto.Window, mask uint16, values []uint32) error {
	xproto.ConfigureWindow(c.XUtil.Conn(), win, mask, values)
	return nil
}

// SendConfigureNotify tells a client its window geometry did not change in
// response to its request, per ICCCM 4.1.5.
func (c *Connection) SendConfigureNotify(win xproto.Window, x, y, width, height, border int) error {
	ev := xproto.ConfigureNotifyEvent{
		Event:       win,
		Window:      win,
		X:           int16(x),
		Y:           int16(y),
		Width:       uint16(max(width, 1)),
		Height:      uint16(max(height, 1)),
		BorderWidth: uint16(border),
	}
	xproto.SendEvent(c.XUtil.Conn(), false, win, xproto.EventMaskStructureNotify, string(ev.Bytes()))
	return nil
}

// MapWindow maps win.
func (c *Connection) MapWindow(win xproto.Window) error {
	xproto.MapWindow(c.XUtil.Conn(), win)
	return nil
}

// Focus gives win the keyboard focus.
func (c *Connection) Focus(win xproto.Window) error {
	return xproto.SetInputFocusChecked(c.XUtil.Conn(), xproto.InputFocusPointerRoot,
		win, xproto.TimeCurrentTime).Check()
}

// TrackPointer asks for EnterNotify on win so the window under the pointer
// can be followed while the pointer is over clients rather than the root.
func (c *Connection) TrackPointer(win xproto.Window) error {
	return xproto.ChangeWindowAttributesChecked(c.XUtil.Conn(), win,
		xproto.CwEventMask, []uint32{xproto.EventMaskEnterWindow}).Check()
}

// CloseWindow asks win to close through WM_DELETE_WINDOW when it takes part
// in that protocol, and disconnects its client otherwise.
func (c *Connection) CloseWindow(win xproto.Window) error {
	protocols, _ := icccm.WmProtocolsGet(c.XUtil, win)
	if !slices.Contains(protocols, "WM_DELETE_WINDOW") {
		return xproto.KillClientChecked(c.XUtil.Conn(), uint32(win)).Check()
	}

	wmProtocols, err := xprop.Atm(c.XUtil, "WM_PROTOCOLS")
	if err != nil {
		return fmt.Errorf("failed to intern WM_PROTOCOLS: %w", err)
	}
	wmDelete, err := xprop.Atm(c.XUtil, "WM_DELETE_WINDOW")
	if err != nil {
		return fmt.Errorf("failed to intern WM_DELETE_WINDOW: %w", err)
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   wmProtocols,
		Data: xproto.ClientMessageDataUnionData32New([]uint32{
			uint32(wmDelete), uint32(xproto.TimeCurrentTime), 0, 0, 0,
		}),
	}
	return xproto.SendEventChecked(c.XUtil.Conn(), false, win,
		xproto.EventMaskNoEvent, string(ev.Bytes())).Check()
}

// AtomName resolves an atom, caching through xgbutil.
func (c *Connection) AtomName(atom xproto.Atom) (string, error) {
	return xprop.AtomName(c.XUtil, atom)
}

// IsNormalWindow checks if a window is a normal application window.
// Desktops, docks, splash screens and notifications are not tiled.
func (c *Connection) IsNormalWindow(win xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, win)
	if err != nil {
		// If we can't determine type, assume it's normal
		return true
	}
	return isNormalType(types)
}

func isNormalType(types []string) bool {
	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_NORMAL", "_NET_WM_WINDOW_TYPE_DIALOG":
			return true
		case "_NET_WM_WINDOW_TYPE_DESKTOP",
			"_NET_WM_WINDOW_TYPE_DOCK",
			"_NET_WM_WINDOW_TYPE_SPLASH",
			"_NET_WM_WINDOW_TYPE_NOTIFICATION":
			return false
		}
	}
	// If no specific type is set, assume it's normal
	return true
}

// Existing describes a window that was already a child of the root when
// the window manager started.
type Existing struct {
	Window           xproto.Window
	X, Y             int
	Width, Height    int
	BorderWidth      int
	OverrideRedirect bool
	Viewable         bool
	Normal           bool
	// Desktop is the _NET_WM_DESKTOP left by a previous window manager,
	// or -1.
	Desktop int
}

// ExistingWindows lists the children of the root window in stacking order.
// Windows that vanish while being queried are skipped.
func (c *Connection) ExistingWindows() ([]Existing, error) {
	conn := c.XUtil.Conn()
	tree, err := xproto.QueryTree(conn, c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("query tree: %w", err)
	}

	var out []Existing
	for _, win := range tree.Children {
		attrs, err := xproto.GetWindowAttributes(conn, win).Reply()
		if err != nil {
			continue
		}
		geom, err := xproto.GetGeometry(conn, xproto.Drawable(win)).Reply()
		if err != nil {
			continue
		}
		e := Existing{
			Window:           win,
			X:                int(geom.X),
			Y:                int(geom.Y),
			Width:            int(geom.Width),
			Height:           int(geom.Height),
			BorderWidth:      int(geom.BorderWidth),
			OverrideRedirect: attrs.OverrideRedirect,
			Viewable:         attrs.MapState == xproto.MapStateViewable,
			Desktop:          -1,
		}
		if !e.OverrideRedirect {
			e.Normal = c.IsNormalWindow(win)
			if d, err := ewmh.WmDesktopGet(c.XUtil, win); err == nil && d != 0xFFFFFFFF {
				e.Desktop = int(d)
			}
		}
		out = append(out, e)
	}
	return out, nil
}
