package tiling

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/ihorzashchelkin/nylawm/internal/client"
)

// Configurer issues ConfigureWindow requests.
type Configurer interface {
	Configure(win xproto.Window, mask uint16, values []uint32) error
}

// Options tune how a workspace is laid out.
type Options struct {
	Gap             int
	FlexibleLastRow bool
}

// Plan computes Target for every client. The grid is sized by the members of
// workspace; its cells go to the mapped members in registry order. Mapped
// tiled clients elsewhere are parked left of the screen. Floating and
// unmapped clients keep their current geometry.
func Plan(clients []*client.Client, workspace int, screen Rect, opts Options) {
	members := 0
	for _, c := range clients {
		if c.Member(workspace) {
			members++
		}
	}
	cells := CalculatePositions(members, screen, opts.Gap, opts.FlexibleLastRow)

	next := 0
	for _, c := range clients {
		c.Target = c.Current
		switch {
		case c.Visible(workspace):
			cell := cells[next]
			next++
			b := c.Current.BorderWidth
			c.Target = client.Geometry{
				X:           cell.X,
				Y:           cell.Y,
				Width:       max(cell.Width-2*b, 1),
				Height:      max(cell.Height-2*b, 1),
				BorderWidth: b,
			}
		case c.Mapped && !c.Floating && !c.Member(workspace):
			c.Target.X = screen.X - c.Current.OuterWidth()
		}
	}
}

// Apply sends a configure request for every client whose target differs from
// its current geometry and then records the target as current. It returns
// the number of requests issued.
func Apply(clients []*client.Client, conf Configurer) (int, error) {
	var errs []error
	sent := 0
	for _, c := range clients {
		if c.Target == c.Current {
			continue
		}
		mask, values := c.Target.ConfigureValues()
		if err := conf.Configure(c.Window, mask, values); err != nil {
			errs = append(errs, fmt.Errorf("configure 0x%x: %w", uint32(c.Window), err))
			continue
		}
		c.Current = c.Target
		sent++
	}
	return sent, errors.Join(errs...)
}

// At returns the first client whose current geometry contains the point.
func At(clients []*client.Client, x, y int) *client.Client {
	for _, c := range clients {
		if c.Current.Contains(x, y) {
			return c
		}
	}
	return nil
}
