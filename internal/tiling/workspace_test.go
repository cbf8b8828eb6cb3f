package tiling

import (
	"errors"
	"testing"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/ihorzashchelkin/nylawm/internal/client"
)

type configureCall struct {
	win    xproto.Window
	values []uint32
}

type recordingConfigurer struct {
	calls []configureCall
	fail  xproto.Window
}

func (r *recordingConfigurer) Configure(win xproto.Window, mask uint16, values []uint32) error {
	if win == r.fail {
		return errors.New("BadWindow")
	}
	r.calls = append(r.calls, configureCall{win: win, values: values})
	return nil
}

func (r *recordingConfigurer) count(win xproto.Window) int {
	n := 0
	for _, c := range r.calls {
		if c.win == win {
			n++
		}
	}
	return n
}

func mappedClient(win xproto.Window, ws int) *client.Client {
	return &client.Client{Window: win, Workspace: ws, Assigned: true, Mapped: true}
}

func geometry(r Rect) client.Geometry {
	return client.Geometry{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

func TestPlanApply_ThreeWindowsThenUnmap(t *testing.T) {
	screen := Rect{Width: 1200, Height: 800}
	w1, w2, w3 := mappedClient(1, 0), mappedClient(2, 0), mappedClient(3, 0)
	clients := []*client.Client{w1, w2, w3}
	conf := &recordingConfigurer{}

	Plan(clients, 0, screen, Options{})
	if n, err := Apply(clients, conf); err != nil || n != 3 {
		t.Fatalf("expected 3 configures, got %d (%v)", n, err)
	}
	if w1.Current != geometry(Rect{0, 0, 600, 400}) ||
		w2.Current != geometry(Rect{600, 0, 600, 400}) ||
		w3.Current != geometry(Rect{0, 400, 600, 400}) {
		t.Fatalf("unexpected layout %v %v %v", w1, w2, w3)
	}

	w2.Mapped = false
	conf.calls = nil
	Plan(clients, 0, screen, Options{})
	if n, err := Apply(clients, conf); err != nil || n != 1 {
		t.Fatalf("expected exactly 1 configure, got %d (%v)", n, err)
	}
	if conf.count(3) != 1 || conf.count(1) != 0 || conf.count(2) != 0 {
		t.Fatalf("expected only W3 to move, got %+v", conf.calls)
	}
	if w3.Current != geometry(Rect{600, 0, 600, 400}) {
		t.Fatalf("unexpected W3 geometry %v", w3.Current)
	}
}

func TestApply_NoChangeNoTraffic(t *testing.T) {
	screen := Rect{Width: 1920, Height: 1080}
	clients := []*client.Client{mappedClient(1, 0), mappedClient(2, 0), mappedClient(3, 0), mappedClient(4, 0), mappedClient(5, 0)}
	conf := &recordingConfigurer{}

	Plan(clients, 0, screen, Options{Gap: 4})
	if _, err := Apply(clients, conf); err != nil {
		t.Fatalf("apply: %v", err)
	}

	conf.calls = nil
	for i := 0; i < 3; i++ {
		Plan(clients, 0, screen, Options{Gap: 4})
		if n, _ := Apply(clients, conf); n != 0 {
			t.Fatalf("pass %d issued %d requests", i, n)
		}
	}
	if len(conf.calls) != 0 {
		t.Fatalf("expected no traffic, got %d calls", len(conf.calls))
	}
}

func TestPlan_ParksOtherWorkspacesAndKeepsUnassigned(t *testing.T) {
	screen := Rect{Width: 1000, Height: 500}
	here := mappedClient(1, 0)
	there := mappedClient(2, 1)
	there.Current = client.Geometry{X: 10, Y: 10, Width: 300, Height: 200, BorderWidth: 1}
	pending := &client.Client{Window: 3, Current: client.Geometry{X: 5, Y: 5, Width: 50, Height: 50}}

	Plan([]*client.Client{here, there, pending}, 0, screen, Options{})

	if here.Target != geometry(Rect{0, 0, 1000, 500}) {
		t.Fatalf("expected full screen, got %v", here.Target)
	}
	if there.Target.X != -302 || there.Target.Y != 10 || there.Target.Width != 300 {
		t.Fatalf("expected parked off-screen, got %v", there.Target)
	}
	if pending.Target != pending.Current {
		t.Fatalf("unassigned clients keep their geometry")
	}
}

func TestPlan_BorderShrinksWindowToCell(t *testing.T) {
	c := mappedClient(1, 0)
	c.Current.BorderWidth = 2
	Plan([]*client.Client{c}, 0, Rect{Width: 100, Height: 50}, Options{})
	want := client.Geometry{X: 0, Y: 0, Width: 96, Height: 46, BorderWidth: 2}
	if c.Target != want {
		t.Fatalf("expected %v, got %v", want, c.Target)
	}
}

func TestApply_ErrorKeepsCurrent(t *testing.T) {
	c := mappedClient(7, 0)
	c.Target = client.Geometry{Width: 10, Height: 10}
	conf := &recordingConfigurer{fail: 7}

	n, err := Apply([]*client.Client{c}, conf)
	if err == nil || n != 0 {
		t.Fatalf("expected failure, got n=%d err=%v", n, err)
	}
	if c.Current == c.Target {
		t.Fatalf("current must not change when the request fails")
	}
}

func TestAt(t *testing.T) {
	a := mappedClient(1, 0)
	a.Current = geometry(Rect{0, 0, 100, 100})
	b := mappedClient(2, 0)
	b.Current = geometry(Rect{100, 0, 100, 100})

	if got := At([]*client.Client{a, b}, 150, 50); got != b {
		t.Fatalf("expected b, got %v", got)
	}
	if got := At([]*client.Client{a, b}, 250, 50); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestPlan_FloatingKeepsGeometry(t *testing.T) {
	dock := &client.Client{Window: 9, Mapped: true, Floating: true,
		Current: client.Geometry{X: 0, Y: 0, Width: 1920, Height: 30}}
	w := &client.Client{Window: 1, Mapped: true, Assigned: true,
		Current: client.Geometry{Width: 100, Height: 100}}
	clients := []*client.Client{dock, w}

	Plan(clients, 3, Rect{Width: 1920, Height: 1080}, Options{})
	if dock.Target != dock.Current {
		t.Fatalf("floating client moved to %v", dock.Target)
	}
	if w.Target.X >= 0 {
		t.Fatalf("tiled client on another workspace should be parked, got %v", w.Target)
	}
}
