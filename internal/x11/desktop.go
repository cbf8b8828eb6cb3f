package x11

import (
	"fmt"
	"strconv"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Supported lists the EWMH hints the window manager publishes or answers.
var Supported = []string{
	"_NET_SUPPORTED",
	"_NET_SUPPORTING_WM_CHECK",
	"_NET_WM_NAME",
	"_NET_NUMBER_OF_DESKTOPS",
	"_NET_DESKTOP_NAMES",
	"_NET_CURRENT_DESKTOP",
	"_NET_CLIENT_LIST",
	"_NET_ACTIVE_WINDOW",
	"_NET_CLOSE_WINDOW",
	"_NET_WM_DESKTOP",
	"_NET_WM_STATE",
	"_NET_WM_STATE_HIDDEN",
	"_NET_WM_WINDOW_TYPE",
}

// Announce creates the supporting check window and publishes the static
// EWMH root properties for a window manager called name with desktops
// virtual desktops.
func (c *Connection) Announce(name string, desktops int) error {
	conn := c.XUtil.Conn()
	check, err := xproto.NewWindowId(conn)
	if err != nil {
		return fmt.Errorf("allocate check window: %w", err)
	}
	err = xproto.CreateWindowChecked(conn, 0, check, c.Root, -1, -1, 1, 1, 0,
		xproto.WindowClassInputOnly, 0,
		xproto.CwOverrideRedirect, []uint32{1}).Check()
	if err != nil {
		return fmt.Errorf("create check window: %w", err)
	}

	names := make([]string, desktops)
	for i := range names {
		names[i] = strconv.Itoa(i + 1)
	}

	steps := []struct {
		what string
		fn   func() error
	}{
		{"_NET_SUPPORTING_WM_CHECK", func() error { return ewmh.SupportingWmCheckSet(c.XUtil, c.Root, check) }},
		{"_NET_SUPPORTING_WM_CHECK", func() error { return ewmh.SupportingWmCheckSet(c.XUtil, check, check) }},
		{"_NET_WM_NAME", func() error { return ewmh.WmNameSet(c.XUtil, check, name) }},
		{"_NET_SUPPORTED", func() error { return ewmh.SupportedSet(c.XUtil, Supported) }},
		{"_NET_NUMBER_OF_DESKTOPS", func() error { return ewmh.NumberOfDesktopsSet(c.XUtil, uint(desktops)) }},
		{"_NET_DESKTOP_NAMES", func() error { return ewmh.DesktopNamesSet(c.XUtil, names) }},
		{"_NET_CURRENT_DESKTOP", func() error { return ewmh.CurrentDesktopSet(c.XUtil, 0) }},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			return fmt.Errorf("failed to set %s: %w", s.what, err)
		}
	}
	return nil
}

// SetCurrentDesktop publishes _NET_CURRENT_DESKTOP.
func (c *Connection) SetCurrentDesktop(desktop int) error {
	return ewmh.CurrentDesktopSet(c.XUtil, uint(desktop))
}

// SetClientList publishes _NET_CLIENT_LIST in mapping order.
func (c *Connection) SetClientList(wins []xproto.Window) error {
	return ewmh.ClientListSet(c.XUtil, wins)
}

// SetActiveWindow publishes _NET_ACTIVE_WINDOW. Zero means none.
func (c *Connection) SetActiveWindow(win xproto.Window) error {
	return ewmh.ActiveWindowSet(c.XUtil, win)
}

// SetWindowDesktop publishes _NET_WM_DESKTOP on a client window.
func (c *Connection) SetWindowDesktop(win xproto.Window, desktop int) error {
	return ewmh.WmDesktopSet(c.XUtil, win, uint(desktop))
}

// SetWindowHidden adds or removes _NET_WM_STATE_HIDDEN on win, keeping the
// other states the client set.
func (c *Connection) SetWindowHidden(win xproto.Window, hidden bool) error {
	states, _ := ewmh.WmStateGet(c.XUtil, win)
	states = withState(states, "_NET_WM_STATE_HIDDEN", hidden)
	return ewmh.WmStateSet(c.XUtil, win, states)
}

func withState(states []string, state string, on bool) []string {
	out := make([]string, 0, len(states)+1)
	for _, s := range states {
		if s != state {
			out = append(out, s)
		}
	}
	if on {
		out = append(out, state)
	}
	return out
}
