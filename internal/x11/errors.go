package x11

import (
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

var errorNames = [...]string{
	1:  "BadRequest",
	2:  "BadValue",
	3:  "BadWindow",
	4:  "BadPixmap",
	5:  "BadAtom",
	6:  "BadCursor",
	7:  "BadFont",
	8:  "BadMatch",
	9:  "BadDrawable",
	10: "BadAccess",
	11: "BadAlloc",
	12: "BadColormap",
	13: "BadGC",
	14: "BadIDChoice",
	15: "BadName",
	16: "BadLength",
	17: "BadImplementation",
}

// ErrorCode returns the core protocol error code for err, or 0 for
// extension errors.
func ErrorCode(err xgb.Error) uint8 {
	switch err.(type) {
	case xproto.RequestError:
		return 1
	case xproto.ValueError:
		return 2
	case xproto.WindowError:
		return 3
	case xproto.PixmapError:
		return 4
	case xproto.AtomError:
		return 5
	case xproto.CursorError:
		return 6
	case xproto.FontError:
		return 7
	case xproto.MatchError:
		return 8
	case xproto.DrawableError:
		return 9
	case xproto.AccessError:
		return 10
	case xproto.AllocError:
		return 11
	case xproto.ColormapError:
		return 12
	case xproto.GContextError:
		return 13
	case xproto.IDChoiceError:
		return 14
	case xproto.NameError:
		return 15
	case xproto.LengthError:
		return 16
	case xproto.ImplementationError:
		return 17
	}
	return 0
}

// ErrorName returns the symbolic name for a core error code.
func ErrorName(code uint8) string {
	if int(code) < len(errorNames) && errorNames[code] != "" {
		return errorNames[code]
	}
	return "Unknown"
}
