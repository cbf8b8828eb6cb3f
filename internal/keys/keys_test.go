package keys

import (
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
)

type fakeKeymap map[string][]xproto.Keycode

func (f fakeKeymap) Keycodes(keysym string) []xproto.Keycode {
	return f[keysym]
}

type recordingGrabber struct {
	grabs []Resolved[string]
	fail  xproto.Keycode
}

func (g *recordingGrabber) GrabKey(mods uint16, code xproto.Keycode) error {
	if code == g.fail {
		return errors.New("BadAccess")
	}
	g.grabs = append(g.grabs, Resolved[string]{Mods: mods, Code: code})
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseChord(t *testing.T) {
	tests := []struct {
		in      string
		want    Chord
		wantErr bool
	}{
		{in: "Mod4-Return", want: Chord{Mods: xproto.ModMask4, Keysym: "Return"}},
		{in: "Mod4-Shift-q", want: Chord{Mods: xproto.ModMask4 | xproto.ModMaskShift, Keysym: "q"}},
		{in: "ctrl-alt-Delete", want: Chord{Mods: xproto.ModMaskControl | xproto.ModMask1, Keysym: "Delete"}},
		{in: "F1", want: Chord{Keysym: "F1"}},
		{in: "", wantErr: true},
		{in: "Mod4-", wantErr: true},
		{in: "Hyper-x", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseChord(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseChord(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseChord(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseChord(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestChordString(t *testing.T) {
	c := Chord{Mods: xproto.ModMask4 | xproto.ModMaskShift, Keysym: "q"}
	if got := c.String(); got != "Shift-Mod4-q" {
		t.Fatalf("unexpected chord string %q", got)
	}
}

func TestResolve_ExpandsEveryKeycodeAndSkipsMissing(t *testing.T) {
	keymap := fakeKeymap{
		"Return": {36, 104},
		"q":      {24, 24},
	}
	bindings := []Binding[string]{
		{Chord: Chord{Mods: xproto.ModMask4, Keysym: "Return"}, Action: "spawn"},
		{Chord: Chord{Mods: xproto.ModMask4, Keysym: "XF86NotHere"}, Action: "missing"},
		{Chord: Chord{Mods: xproto.ModMask4 | xproto.ModMaskShift, Keysym: "q"}, Action: "quit"},
	}

	got := Resolve(keymap, bindings, discardLogger())
	want := []Resolved[string]{
		{Mods: xproto.ModMask4, Code: 36, Action: "spawn"},
		{Mods: xproto.ModMask4, Code: 104, Action: "spawn"},
		{Mods: xproto.ModMask4 | xproto.ModMaskShift, Code: 24, Action: "quit"},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("Resolve() = %+v, want %+v", got, want)
	}
}

func TestGrab_InstallsEveryIgnoredCombination(t *testing.T) {
	g := &recordingGrabber{}
	resolved := []Resolved[string]{{Mods: xproto.ModMask4, Code: 36}}
	ignore := IgnoreMasks(xproto.ModMaskLock, xproto.ModMask2)

	if err := Grab(g, resolved, ignore); err != nil {
		t.Fatalf("Grab: %v", err)
	}
	if len(g.grabs) != 4 {
		t.Fatalf("expected 4 grabs, got %d", len(g.grabs))
	}
	for _, grab := range g.grabs {
		if grab.Mods&xproto.ModMask4 == 0 || grab.Code != 36 {
			t.Fatalf("unexpected grab %+v", grab)
		}
	}
}

func TestGrab_ContinuesAfterFailure(t *testing.T) {
	g := &recordingGrabber{fail: 10}
	resolved := []Resolved[string]{
		{Mods: xproto.ModMask4, Code: 10},
		{Mods: xproto.ModMask4, Code: 11},
	}

	if err := Grab(g, resolved, nil); err == nil {
		t.Fatalf("expected error for failed grab")
	}
	if len(g.grabs) != 1 || g.grabs[0].Code != 11 {
		t.Fatalf("expected the second grab to be installed, got %+v", g.grabs)
	}
}

func TestMatch_ExactModifiersAndKeycode(t *testing.T) {
	resolved := []Resolved[string]{
		{Mods: xproto.ModMask4, Code: 36, Action: "spawn"},
		{Mods: xproto.ModMask4, Code: 36, Action: "shadowed"},
		{Mods: xproto.ModMask4 | xproto.ModMaskShift, Code: 24, Action: "quit"},
	}
	ignore := IgnoreMasks(xproto.ModMaskLock, xproto.ModMask2)

	if action, ok := Match(resolved, xproto.ModMask4, 36, ignore); !ok || action != "spawn" {
		t.Fatalf("expected spawn, got %q ok=%v", action, ok)
	}
	if _, ok := Match(resolved, xproto.ModMask4, 37, ignore); ok {
		t.Fatalf("expected no match for a different keycode")
	}
	if _, ok := Match(resolved, xproto.ModMask4|xproto.ModMaskControl, 36, ignore); ok {
		t.Fatalf("expected no match with an extra modifier")
	}
	if action, ok := Match(resolved, xproto.ModMask4|xproto.ModMaskLock|xproto.ModMask2, 36, ignore); !ok || action != "spawn" {
		t.Fatalf("expected lock modifiers to be ignored, got %q ok=%v", action, ok)
	}
	if action, ok := Match(resolved, xproto.ModMask4|xproto.ModMaskShift|xproto.KeyButMaskButton1, 24, ignore); !ok || action != "quit" {
		t.Fatalf("expected button bits to be ignored, got %q ok=%v", action, ok)
	}
}

func TestIgnoreMasks(t *testing.T) {
	got := IgnoreMasks(xproto.ModMaskLock, 0, xproto.ModMask2, xproto.ModMaskLock)
	want := []uint16{0, xproto.ModMaskLock, xproto.ModMask2, xproto.ModMaskLock | xproto.ModMask2}
	slices.Sort(want)
	if !slices.Equal(got, want) {
		t.Fatalf("IgnoreMasks() = %v, want %v", got, want)
	}
}
