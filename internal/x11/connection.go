package x11

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
)

// ErrAnotherWM is returned by BecomeWM when substructure redirection on the
// root window is already held by another client.
var ErrAnotherWM = errors.New("another window manager is already running")

// RootEventMask is selected on the root window when taking over as the
// window manager.
const RootEventMask = xproto.EventMaskSubstructureRedirect |
	xproto.EventMaskSubstructureNotify |
	xproto.EventMaskPointerMotion

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil  *xgbutil.XUtil
	Root   xproto.Window
	Screen *xproto.ScreenInfo

	// Display is the name the connection was opened with.
	Display string
}

// Connect opens display (empty means $DISPLAY) and initializes keyboard
// lookups.
func Connect(display string) (*Connection, error) {
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("connect to %q: %w", display, err)
	}

	// Loads the keyboard and modifier maps used to translate keysyms.
	keybind.Initialize(xu)

	return &Connection{
		XUtil:   xu,
		Root:    xu.RootWin(),
		Screen:  xu.Screen(),
		Display: display,
	}, nil
}

// ConnectWithFallback tries primary first and, if that fails and fallback
// is set, fallback.
func ConnectWithFallback(primary, fallback string, log *slog.Logger) (*Connection, error) {
	conn, err := Connect(primary)
	if err == nil || fallback == "" || fallback == primary {
		return conn, err
	}
	log.Warn("primary display unavailable, trying fallback", "display", primary, "fallback", fallback, "error", err)
	conn, ferr := Connect(fallback)
	if ferr != nil {
		return nil, errors.Join(err, ferr)
	}
	return conn, nil
}

// BecomeWM selects substructure redirection on the root window. Only one
// client may hold it at a time.
func (c *Connection) BecomeWM() error {
	err := xproto.ChangeWindowAttributesChecked(c.XUtil.Conn(), c.Root,
		xproto.CwEventMask, []uint32{RootEventMask}).Check()
	if err != nil {
		if _, ok := err.(xproto.AccessError); ok {
			return ErrAnotherWM
		}
		return fmt.Errorf("select root events: %w", err)
	}
	return nil
}

// ScreenSize returns the root window dimensions from the connection setup.
func (c *Connection) ScreenSize() (int, int) {
	return int(c.Screen.WidthInPixels), int(c.Screen.HeightInPixels)
}

// Close cleanly disconnects from the X11 server. Blocked WaitForEvent calls
// return (nil, nil) afterwards.
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
