// Package compositor keeps each visible client's window pixmap bound to a GPU
// texture and draws the bound textures once per frame.
package compositor

import (
	"fmt"
	"log/slog"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/ihorzashchelkin/nylawm/internal/client"
)

// PixmapSource names and frees the off-screen pixmaps of redirected windows.
type PixmapSource interface {
	NameWindowPixmap(win xproto.Window) (pixmap xproto.Pixmap, depth byte, err error)
	FreePixmap(pixmap xproto.Pixmap) error
}

// Renderer turns pixmaps into textures and draws them.
type Renderer interface {
	BindPixmap(pixmap xproto.Pixmap, depth byte, width, height int) (client.Texture, error)
	ReleaseTexture(tex client.Texture)
	BeginFrame()
	DrawQuad(tex client.Texture, x, y, width, height int)
	EndFrame() error
}

// Bridge owns the pixmap/texture pairs stored on clients.
type Bridge struct {
	pixmaps  PixmapSource
	renderer Renderer
	log      *slog.Logger
}

func NewBridge(pixmaps PixmapSource, renderer Renderer, log *slog.Logger) *Bridge {
	return &Bridge{pixmaps: pixmaps, renderer: renderer, log: log}
}

// Acquire gives c a surface unless it already has one.
func (b *Bridge) Acquire(c *client.Client) error {
	if c.Surface != nil {
		return nil
	}

	pixmap, depth, err := b.pixmaps.NameWindowPixmap(c.Window)
	if err != nil {
		return fmt.Errorf("name pixmap for 0x%x: %w", uint32(c.Window), err)
	}

	width, height := c.Current.OuterWidth(), c.Current.OuterHeight()
	tex, err := b.renderer.BindPixmap(pixmap, depth, width, height)
	if err != nil {
		if ferr := b.pixmaps.FreePixmap(pixmap); ferr != nil {
			b.log.Debug("free pixmap after failed bind", "pixmap", pixmap, "error", ferr)
		}
		return fmt.Errorf("bind pixmap for 0x%x: %w", uint32(c.Window), err)
	}

	c.Surface = &client.Surface{Pixmap: pixmap, Texture: tex, Width: width, Height: height}
	b.log.Debug("surface bound", "window", c.Window, "pixmap", pixmap, "texture", tex, "depth", depth)
	return nil
}

// Release frees c's surface, if any. The texture goes first so it never
// outlives the pixmap backing it.
func (b *Bridge) Release(c *client.Client) {
	s := c.Surface
	if s == nil {
		return
	}
	c.Surface = nil

	b.renderer.ReleaseTexture(s.Texture)
	if err := b.pixmaps.FreePixmap(s.Pixmap); err != nil {
		b.log.Debug("free pixmap", "window", c.Window, "pixmap", s.Pixmap, "error", err)
	}
}

// Sync releases the surfaces of clients that are no longer drawn on
// workspace or were resized since binding, then acquires surfaces for the
// drawn clients lacking one. Acquire failures are retried next frame.
func (b *Bridge) Sync(clients []*client.Client, workspace int) {
	for _, c := range clients {
		if c.Surface == nil {
			continue
		}
		if !c.Drawn(workspace) ||
			c.Surface.Width != c.Current.OuterWidth() ||
			c.Surface.Height != c.Current.OuterHeight() {
			b.Release(c)
		}
	}

	for _, c := range clients {
		if c.Surface != nil || !c.Drawn(workspace) {
			continue
		}
		if err := b.Acquire(c); err != nil {
			b.log.Debug("surface not ready", "error", err)
		}
	}
}

// Frame draws every client with a surface at its current geometry and
// presents. An empty frame is still cleared and presented.
func (b *Bridge) Frame(clients []*client.Client) error {
	b.renderer.BeginFrame()
	for _, c := range clients {
		if c.Surface == nil {
			continue
		}
		g := c.Current
		b.renderer.DrawQuad(c.Surface.Texture, g.X, g.Y, g.OuterWidth(), g.OuterHeight())
	}
	return b.renderer.EndFrame()
}

// Tick runs Sync and Frame for the active workspace.
func (b *Bridge) Tick(clients []*client.Client, workspace int) error {
	b.Sync(clients, workspace)
	return b.Frame(clients)
}

// ReleaseAll frees every surface, for shutdown.
func (b *Bridge) ReleaseAll(clients []*client.Client) {
	for _, c := range clients {
		b.Release(c)
	}
}
