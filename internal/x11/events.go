package x11

import (
	"context"

	"github.com/BurntSushi/xgb"
)

// Event is one item read from the server. Exactly one of Event and Err is set.
type Event struct {
	Event xgb.Event
	Err   xgb.Error
}

// EventSource is the blocking read side of a connection.
type EventSource interface {
	WaitForEvent() (xgb.Event, xgb.Error)
}

// Pump reads from src on its own goroutine and delivers everything on the
// returned channel. The channel is closed when the connection goes away,
// which WaitForEvent signals by returning two nils.
func Pump(ctx context.Context, src EventSource) <-chan Event {
	out := make(chan Event, 256)
	go func() {
		defer close(out)
		for {
			ev, err := src.WaitForEvent()
			if ev == nil && err == nil {
				return
			}
			select {
			case out <- Event{Event: ev, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Events starts a pump over this connection.
func (c *Connection) Events(ctx context.Context) <-chan Event {
	return Pump(ctx, c.XUtil.Conn())
}
