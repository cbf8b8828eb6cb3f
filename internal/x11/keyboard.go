package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/keybind"
)

// Keycodes returns every keycode producing keysym under the current
// keyboard mapping.
func (c *Connection) Keycodes(keysym string) []xproto.Keycode {
	return keybind.StrToKeycodes(c.XUtil, keysym)
}

// RefreshKeyboard reloads the keyboard and modifier maps after a
// MappingNotify.
func (c *Connection) RefreshKeyboard() (err error) {
	// MapsGet panics when the server refuses the mapping requests.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reload keyboard mapping: %v", r)
		}
	}()
	keyMap, modMap := keybind.MapsGet(c.XUtil)
	keybind.KeyMapSet(c.XUtil, keyMap)
	keybind.ModMapSet(c.XUtil, modMap)
	return nil
}

// LockMasks returns the modifier masks of the lock keys that should not
// affect bindings: CapsLock always, plus whatever Num_Lock and Scroll_Lock
// are mapped to.
func (c *Connection) LockMasks() []uint16 {
	// Always ignore CapsLock.
	locks := []uint16{xproto.ModMaskLock}
	for _, sym := range []string{"Num_Lock", "Scroll_Lock"} {
		mask := c.modMaskForKeysym(sym)
		if mask == 0 {
			continue
		}
		dup := false
		for _, l := range locks {
			dup = dup || l == mask
		}
		if !dup {
			locks = append(locks, mask)
		}
	}
	return locks
}

func (c *Connection) modMaskForKeysym(keysym string) uint16 {
	for _, keycode := range c.Keycodes(keysym) {
		if mask := keybind.ModGet(c.XUtil, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}

// GrabKey grabs one exact modifier and keycode combination on the root
// window.
func (c *Connection) GrabKey(mods uint16, code xproto.Keycode) error {
	return xproto.GrabKeyChecked(c.XUtil.Conn(), true, c.Root, mods, code,
		xproto.GrabModeAsync, xproto.GrabModeAsync).Check()
}

// UngrabKeys releases every key grab on the root window.
func (c *Connection) UngrabKeys() error {
	return xproto.UngrabKeyChecked(c.XUtil.Conn(), xproto.GrabAny, c.Root, xproto.ModMaskAny).Check()
}
