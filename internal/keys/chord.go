package keys

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
)

// Chord is a symbolic key combination: a modifier mask plus a key-symbol name.
type Chord struct {
	Mods   uint16
	Keysym string
}

var modifierNames = map[string]uint16{
	"shift":   xproto.ModMaskShift,
	"lock":    xproto.ModMaskLock,
	"control": xproto.ModMaskControl,
	"ctrl":    xproto.ModMaskControl,
	"mod1":    xproto.ModMask1,
	"alt":     xproto.ModMask1,
	"mod2":    xproto.ModMask2,
	"mod3":    xproto.ModMask3,
	"mod4":    xproto.ModMask4,
	"super":   xproto.ModMask4,
	"mod5":    xproto.ModMask5,
}

// ParseChord parses strings in the xgbutil keybind format, e.g. "Mod4-Shift-q".
// Modifier names are case-insensitive; the key-symbol is kept verbatim.
func ParseChord(s string) (Chord, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Chord{}, fmt.Errorf("empty key chord")
	}

	parts := strings.Split(s, "-")
	keysym := strings.TrimSpace(parts[len(parts)-1])
	if keysym == "" {
		return Chord{}, fmt.Errorf("key chord %q has no key", s)
	}

	var mods uint16
	for _, part := range parts[:len(parts)-1] {
		name := strings.ToLower(strings.TrimSpace(part))
		mask, ok := modifierNames[name]
		if !ok {
			return Chord{}, fmt.Errorf("key chord %q: unknown modifier %q", s, part)
		}
		mods |= mask
	}

	return Chord{Mods: mods, Keysym: keysym}, nil
}

var modifierOrder = []struct {
	mask uint16
	name string
}{
	{xproto.ModMaskShift, "Shift"},
	{xproto.ModMaskLock, "Lock"},
	{xproto.ModMaskControl, "Control"},
	{xproto.ModMask1, "Mod1"},
	{xproto.ModMask2, "Mod2"},
	{xproto.ModMask3, "Mod3"},
	{xproto.ModMask4, "Mod4"},
	{xproto.ModMask5, "Mod5"},
}

func (c Chord) String() string {
	var b strings.Builder
	for _, m := range modifierOrder {
		if c.Mods&m.mask != 0 {
			b.WriteString(m.name)
			b.WriteByte('-')
		}
	}
	b.WriteString(c.Keysym)
	return b.String()
}
