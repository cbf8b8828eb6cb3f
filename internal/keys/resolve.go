package keys

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/BurntSushi/xgb/xproto"
)

// modifierBits covers Shift..Mod5; pointer button bits above it never take
// part in a match.
const modifierBits = 0xff

// KeycodeLookup reports every key-code the current keyboard mapping assigns
// to a key-symbol.
type KeycodeLookup interface {
	Keycodes(keysym string) []xproto.Keycode
}

// Grabber installs a passive key grab on the root window.
type Grabber interface {
	GrabKey(mods uint16, code xproto.Keycode) error
}

// Binding ties a chord to an action.
type Binding[A any] struct {
	Chord  Chord
	Action A
}

// Resolved is a binding made concrete for the live keyboard mapping.
type Resolved[A any] struct {
	Mods   uint16
	Code   xproto.Keycode
	Action A
}

// Resolve expands every binding into one Resolved entry per key-code that
// produces its key-symbol. Bindings whose key-symbol is not on the keyboard
// are logged and skipped.
func Resolve[A any](lookup KeycodeLookup, bindings []Binding[A], log *slog.Logger) []Resolved[A] {
	var resolved []Resolved[A]
	for _, b := range bindings {
		codes := lookup.Keycodes(b.Chord.Keysym)
		if len(codes) == 0 {
			log.Warn("no keycode for keysym, binding skipped", "key", b.Chord.String())
			continue
		}

		seen := make([]xproto.Keycode, 0, len(codes))
		for _, code := range codes {
			if slices.Contains(seen, code) {
				continue
			}
			seen = append(seen, code)
			resolved = append(resolved, Resolved[A]{Mods: b.Chord.Mods, Code: code, Action: b.Action})
		}
	}
	return resolved
}

// Grab installs one grab per resolved binding and ignored-modifier
// combination. A failed grab does not stop the remaining ones.
func Grab[A any](g Grabber, resolved []Resolved[A], ignore []uint16) error {
	if len(ignore) == 0 {
		ignore = []uint16{0}
	}

	var errs []error
	for _, r := range resolved {
		for _, extra := range ignore {
			if err := g.GrabKey(r.Mods|extra, r.Code); err != nil {
				errs = append(errs, fmt.Errorf("grab mods=%#x code=%d: %w", r.Mods|extra, r.Code, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Match returns the action of the first binding whose modifiers and key-code
// equal the key press exactly, after lock modifiers in ignore are cleared.
func Match[A any](resolved []Resolved[A], state uint16, code xproto.Keycode, ignore []uint16) (A, bool) {
	state = Clean(state, ignore)
	for _, r := range resolved {
		if r.Mods == state && r.Code == code {
			return r.Action, true
		}
	}
	var zero A
	return zero, false
}

// Clean strips pointer button bits and every ignored lock modifier from a
// key event state.
func Clean(state uint16, ignore []uint16) uint16 {
	var locks uint16
	for _, m := range ignore {
		locks |= m
	}
	return state & modifierBits &^ locks
}

// IgnoreMasks returns every combination of the given lock modifier masks,
// including the empty one. Zero and repeated masks are dropped first.
func IgnoreMasks(locks ...uint16) []uint16 {
	var base []uint16
	for _, m := range locks {
		if m != 0 && !slices.Contains(base, m) {
			base = append(base, m)
		}
	}

	masks := []uint16{0}
	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		if !slices.Contains(masks, mask) {
			masks = append(masks, mask)
		}
	}
	slices.Sort(masks)
	return masks
}
