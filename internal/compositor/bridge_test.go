package compositor

import (
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/ihorzashchelkin/nylawm/internal/client"
	"github.com/ihorzashchelkin/nylawm/internal/compositor/compositortest"
)

func newBridge() (*Bridge, *compositortest.Recorder) {
	rec := compositortest.New()
	return NewBridge(rec, rec, slog.New(slog.NewTextHandler(io.Discard, nil))), rec
}

func visibleClient() *client.Client {
	return &client.Client{
		Window:    5,
		Mapped:    true,
		Assigned:  true,
		Current:   client.Geometry{X: 10, Y: 20, Width: 300, Height: 200},
		Workspace: 0,
	}
}

func TestAcquireRelease_PairingAndOrder(t *testing.T) {
	b, rec := newBridge()
	c := visibleClient()

	if err := b.Acquire(c); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if c.Surface == nil || c.Surface.Pixmap == 0 || c.Surface.Texture == 0 {
		t.Fatalf("expected a bound surface, got %+v", c.Surface)
	}
	first := c.Surface
	if err := b.Acquire(c); err != nil || c.Surface != first {
		t.Fatalf("second Acquire must keep the existing surface")
	}

	rec.Reset()
	b.Release(c)
	if c.Surface != nil {
		t.Fatalf("expected surface cleared")
	}
	want := []string{"release texture 1", "free pixmap 256"}
	if !slices.Equal(rec.Ops, want) {
		t.Fatalf("expected %v, got %v", want, rec.Ops)
	}

	rec.Reset()
	b.Release(c)
	if len(rec.Ops) != 0 {
		t.Fatalf("releasing twice must be a no-op, got %v", rec.Ops)
	}
}

func TestAcquire_BindFailureFreesPixmap(t *testing.T) {
	b, rec := newBridge()
	rec.FailBind = true
	c := visibleClient()

	if err := b.Acquire(c); err == nil {
		t.Fatalf("expected bind error")
	}
	if c.Surface != nil {
		t.Fatalf("no half-bound surface may remain")
	}
	if rec.Ops[len(rec.Ops)-1] != "free pixmap 256" {
		t.Fatalf("expected the pixmap to be freed, got %v", rec.Ops)
	}
}

func TestSync_FollowsVisibilityAndSize(t *testing.T) {
	b, rec := newBridge()
	c := visibleClient()
	other := visibleClient()
	other.Window = 6
	other.Workspace = 1
	pending := visibleClient()
	pending.Window = 7
	rec.Unviewable[7] = true

	clients := []*client.Client{c, other, pending}
	b.Sync(clients, 0)
	if c.Surface == nil || other.Surface != nil || pending.Surface != nil {
		t.Fatalf("only the viewable client on workspace 0 gets a surface")
	}

	old := c.Surface.Texture
	c.Current.Width = 400
	b.Sync(clients, 0)
	if c.Surface == nil || c.Surface.Texture == old || c.Surface.Width != 400 {
		t.Fatalf("expected a rebind after resize, got %+v", c.Surface)
	}

	delete(rec.Unviewable, 7)
	b.Sync(clients, 0)
	if pending.Surface == nil {
		t.Fatalf("expected retry to succeed once viewable")
	}

	b.Sync(clients, 1)
	if c.Surface != nil || pending.Surface != nil || other.Surface == nil {
		t.Fatalf("switching workspace moves surfaces")
	}
	if rec.Live() != 1 {
		t.Fatalf("expected exactly one live texture, got %d", rec.Live())
	}
}

func TestFrame_DrawsBoundClientsAndPresentsEmpty(t *testing.T) {
	b, rec := newBridge()

	if err := b.Frame(nil); err != nil {
		t.Fatalf("frame: %v", err)
	}
	if rec.Frames() != 1 || len(rec.Drawn()) != 0 {
		t.Fatalf("expected an empty presented frame")
	}

	c := visibleClient()
	c.Current.BorderWidth = 1
	if err := b.Tick([]*client.Client{c}, 0); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if rec.Frames() != 2 || len(rec.Drawn()) != 1 {
		t.Fatalf("expected one quad, got %v", rec.Drawn())
	}
	if got := rec.Ops[len(rec.Ops)-1]; got != "draw texture 1 at 10,20 302x202" {
		t.Fatalf("unexpected draw %q", got)
	}

	b.ReleaseAll([]*client.Client{c})
	if rec.Live() != 0 || c.Surface != nil {
		t.Fatalf("expected everything released")
	}
}
