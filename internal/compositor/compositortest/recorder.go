// Package compositortest provides an in-memory PixmapSource and Renderer.
package compositortest

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/ihorzashchelkin/nylawm/internal/client"
)

// ErrNotViewable is returned by NameWindowPixmap for windows in Unviewable.
var ErrNotViewable = errors.New("BadMatch")

// Recorder implements compositor.PixmapSource and compositor.Renderer and
// logs every call in order.
type Recorder struct {
	Ops        []string
	Unviewable map[xproto.Window]bool
	Depth      byte
	FailBind   bool

	nextPixmap  xproto.Pixmap
	nextTexture client.Texture
	live        map[client.Texture]xproto.Pixmap
	frames      int
	drawn       []client.Texture
}

func New() *Recorder {
	return &Recorder{
		Unviewable:  map[xproto.Window]bool{},
		Depth:       24,
		nextPixmap:  0x100,
		nextTexture: 1,
		live:        map[client.Texture]xproto.Pixmap{},
	}
}

func (r *Recorder) record(format string, args ...any) {
	r.Ops = append(r.Ops, fmt.Sprintf(format, args...))
}

func (r *Recorder) NameWindowPixmap(win xproto.Window) (xproto.Pixmap, byte, error) {
	if r.Unviewable[win] {
		return 0, 0, ErrNotViewable
	}
	p := r.nextPixmap
	r.nextPixmap++
	r.record("name %d -> pixmap %d", win, p)
	return p, r.Depth, nil
}

func (r *Recorder) FreePixmap(p xproto.Pixmap) error {
	r.record("free pixmap %d", p)
	return nil
}

func (r *Recorder) BindPixmap(p xproto.Pixmap, depth byte, width, height int) (client.Texture, error) {
	if r.FailBind {
		return 0, errors.New("no fbconfig")
	}
	t := r.nextTexture
	r.nextTexture++
	r.live[t] = p
	r.record("bind pixmap %d %dx%d -> texture %d", p, width, height, t)
	return t, nil
}

func (r *Recorder) ReleaseTexture(t client.Texture) {
	delete(r.live, t)
	r.record("release texture %d", t)
}

func (r *Recorder) BeginFrame() {
	r.drawn = r.drawn[:0]
}

func (r *Recorder) DrawQuad(t client.Texture, x, y, width, height int) {
	r.drawn = append(r.drawn, t)
	r.record("draw texture %d at %d,%d %dx%d", t, x, y, width, height)
}

func (r *Recorder) EndFrame() error {
	r.frames++
	return nil
}

// Frames is the number of presented frames.
func (r *Recorder) Frames() int { return r.frames }

// Drawn lists the textures drawn in the last frame.
func (r *Recorder) Drawn() []client.Texture { return r.drawn }

// Live is the number of textures bound and not yet released.
func (r *Recorder) Live() int { return len(r.live) }

// Reset clears the op log.
func (r *Recorder) Reset() { r.Ops = nil }
