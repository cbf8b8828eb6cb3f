// Package client holds the per-window state the window manager tracks and
// the registry that owns it.
package client

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
)

// Geometry is a window rectangle plus its border width, in root coordinates.
type Geometry struct {
	X, Y          int
	Width, Height int
	BorderWidth   int
}

// Contains reports whether the point lies inside the window including its border.
func (g Geometry) Contains(x, y int) bool {
	return x >= g.X && y >= g.Y &&
		x < g.X+g.Width+2*g.BorderWidth &&
		y < g.Y+g.Height+2*g.BorderWidth
}

// OuterWidth and OuterHeight include the border on both sides.
func (g Geometry) OuterWidth() int  { return g.Width + 2*g.BorderWidth }
func (g Geometry) OuterHeight() int { return g.Height + 2*g.BorderWidth }

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d+%d+%d/%d", g.Width, g.Height, g.X, g.Y, g.BorderWidth)
}

// ConfigureMask covers every geometry field ConfigureValues emits.
const ConfigureMask = xproto.ConfigWindowX | xproto.ConfigWindowY |
	xproto.ConfigWindowWidth | xproto.ConfigWindowHeight |
	xproto.ConfigWindowBorderWidth

// ConfigureValues returns the mask and value list for a ConfigureWindow
// request that applies g in full.
func (g Geometry) ConfigureValues() (uint16, []uint32) {
	return ConfigureMask, []uint32{
		uint32(int32(g.X)),
		uint32(int32(g.Y)),
		uint32(max(g.Width, 1)),
		uint32(max(g.Height, 1)),
		uint32(g.BorderWidth),
	}
}

// Texture is a GPU texture name.
type Texture uint32

// Surface pairs the off-screen pixmap naming a window's contents with the
// texture bound to it. A client either has both or neither.
type Surface struct {
	Pixmap        xproto.Pixmap
	Texture       Texture
	Width, Height int
}

// Client is the managed state of one top-level window.
type Client struct {
	Window xproto.Window

	// Current is the geometry last sent to (or reported by) the server;
	// Target is what the layout engine wants.
	Current Geometry
	Target  Geometry

	Mapped bool
	Hidden bool // _NET_WM_STATE_HIDDEN

	// Workspace is valid once Assigned is set by the first map request or
	// an explicit move.
	Workspace int
	Assigned  bool

	// Floating windows (docks, desktops, override-redirect popups) keep
	// their own geometry and are drawn on every workspace.
	Floating bool

	Surface *Surface
}

// Visible reports whether the client is tiled on the given workspace right now.
func (c *Client) Visible(workspace int) bool {
	return c.Mapped && c.Member(workspace)
}

// Member reports whether the client holds a slot in the workspace grid.
// Unmapped members keep their slot until they are destroyed or hidden.
func (c *Client) Member(workspace int) bool {
	return c.Assigned && !c.Hidden && !c.Floating && c.Workspace == workspace
}

// Drawn reports whether the compositor should show the client while
// workspace is current.
func (c *Client) Drawn(workspace int) bool {
	if !c.Mapped || c.Hidden {
		return false
	}
	return c.Floating || c.Assigned && c.Workspace == workspace
}

func (c *Client) String() string {
	return fmt.Sprintf("client(0x%x ws=%d mapped=%v %s)", uint32(c.Window), c.Workspace, c.Mapped, c.Current)
}
