package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/composite"
	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"
)

// RedirectSubwindows initializes the composite extension, redirects every
// child of the root window off-screen with manual updates and returns the
// composite overlay window. Input passes through the overlay.
func (c *Connection) RedirectSubwindows() (xproto.Window, error) {
	conn := c.XUtil.Conn()
	if err := composite.Init(conn); err != nil {
		return 0, fmt.Errorf("composite extension: %w", err)
	}
	if _, err := composite.QueryVersion(conn, 0, 4).Reply(); err != nil {
		return 0, fmt.Errorf("composite version: %w", err)
	}
	if err := composite.RedirectSubwindowsChecked(conn, c.Root, composite.RedirectManual).Check(); err != nil {
		if _, ok := err.(xproto.AccessError); ok {
			return 0, fmt.Errorf("another compositor is running: %w", err)
		}
		return 0, fmt.Errorf("redirect subwindows: %w", err)
	}

	reply, err := composite.GetOverlayWindow(conn, c.Root).Reply()
	if err != nil {
		return 0, fmt.Errorf("get overlay window: %w", err)
	}
	if err := c.passInput(reply.OverlayWin); err != nil {
		return 0, err
	}
	return reply.OverlayWin, nil
}

// passInput gives win an empty input shape so pointer events reach the
// windows underneath.
func (c *Connection) passInput(win xproto.Window) error {
	conn := c.XUtil.Conn()
	if err := xfixes.Init(conn); err != nil {
		return fmt.Errorf("xfixes extension: %w", err)
	}
	if _, err := xfixes.QueryVersion(conn, 5, 0).Reply(); err != nil {
		return fmt.Errorf("xfixes version: %w", err)
	}
	region, err := xfixes.NewRegionId(conn)
	if err != nil {
		return fmt.Errorf("allocate region: %w", err)
	}
	xfixes.CreateRegion(conn, region, nil)
	err = xfixes.SetWindowShapeRegionChecked(conn, win, shape.SkInput, 0, 0, region).Check()
	xfixes.DestroyRegion(conn, region)
	if err != nil {
		return fmt.Errorf("clear input shape of 0x%x: %w", uint32(win), err)
	}
	return nil
}

// CreateCanvas creates and maps a window inside parent using visual, for a
// GL context to present into. The canvas covers width by height at the
// origin and ignores input.
func (c *Connection) CreateCanvas(parent xproto.Window, visual xproto.Visualid, width, height int) (xproto.Window, error) {
	conn := c.XUtil.Conn()
	depth, ok := visualDepth(c.Screen, visual)
	if !ok {
		return 0, fmt.Errorf("visual 0x%x not offered by screen", uint32(visual))
	}

	cmap, err := xproto.NewColormapId(conn)
	if err != nil {
		return 0, fmt.Errorf("allocate colormap: %w", err)
	}
	if err := xproto.CreateColormapChecked(conn, xproto.ColormapAllocNone, cmap, c.Root, visual).Check(); err != nil {
		return 0, fmt.Errorf("create colormap: %w", err)
	}

	win, err := xproto.NewWindowId(conn)
	if err != nil {
		return 0, fmt.Errorf("allocate window: %w", err)
	}
	err = xproto.CreateWindowChecked(conn, depth, win, parent,
		0, 0, uint16(width), uint16(height), 0,
		xproto.WindowClassInputOutput, visual,
		xproto.CwBackPixel|xproto.CwBorderPixel|xproto.CwColormap,
		[]uint32{0, 0, uint32(cmap)}).Check()
	if err != nil {
		return 0, fmt.Errorf("create canvas: %w", err)
	}
	if err := c.passInput(win); err != nil {
		return 0, err
	}
	if err := xproto.MapWindowChecked(conn, win).Check(); err != nil {
		return 0, fmt.Errorf("map canvas: %w", err)
	}
	return win, nil
}

// ReleaseOverlay hands the overlay window back to the server.
func (c *Connection) ReleaseOverlay() {
	composite.ReleaseOverlayWindow(c.XUtil.Conn(), c.Root)
}

// NameWindowPixmap names the off-screen storage of a redirected window. The
// window must be viewable.
func (c *Connection) NameWindowPixmap(win xproto.Window) (xproto.Pixmap, byte, error) {
	conn := c.XUtil.Conn()
	geom, err := xproto.GetGeometry(conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return 0, 0, fmt.Errorf("geometry of 0x%x: %w", uint32(win), err)
	}
	pixmap, err := xproto.NewPixmapId(conn)
	if err != nil {
		return 0, 0, fmt.Errorf("allocate pixmap: %w", err)
	}
	if err := composite.NameWindowPixmapChecked(conn, win, pixmap).Check(); err != nil {
		return 0, 0, fmt.Errorf("name pixmap of 0x%x: %w", uint32(win), err)
	}
	return pixmap, geom.Depth, nil
}

// FreePixmap releases a pixmap named by NameWindowPixmap.
func (c *Connection) FreePixmap(p xproto.Pixmap) error {
	return xproto.FreePixmapChecked(c.XUtil.Conn(), p).Check()
}

func visualDepth(screen *xproto.ScreenInfo, visual xproto.Visualid) (byte, bool) {
	for _, d := range screen.AllowedDepths {
		for _, v := range d.Visuals {
			if v.VisualId == visual {
				return d.Depth, true
			}
		}
	}
	return 0, false
}
