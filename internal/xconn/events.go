package xconn

import (
	"context"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xprop"
)

// Events streams notifications in batches: one blocking read followed by
// everything already queued. The channel is closed when ctx ends or the
// connection is lost.
func (c *Conn) Events(ctx context.Context) <-chan []Event {
	out := make(chan []Event)
	go c.receive(ctx, out)
	return out
}

func (c *Conn) receive(ctx context.Context, out chan<- []Event) {
	defer close(out)

	x := c.xu.Conn()
	for {
		ev, xerr := x.WaitForEvent()
		if ev == nil && xerr == nil {
			if ctx.Err() == nil {
				c.log.Error().Msg("Connection to X server lost")
			}
			return
		}

		batch := c.appendEvent(nil, ev, xerr)
		for {
			ev, xerr = x.PollForEvent()
			if ev == nil && xerr == nil {
				break
			}
			batch = c.appendEvent(batch, ev, xerr)
		}

		if len(batch) == 0 {
			continue
		}

		select {
		case out <- batch:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Conn) appendEvent(batch []Event, ev xgb.Event, xerr xgb.Error) []Event {
	if xerr != nil {
		// Windows routinely vanish between a notification and our query.
		if _, ok := xerr.(xproto.WindowError); ok {
			c.log.Debug().Err(xerr).Msg("X error")
		} else {
			c.log.Warn().Err(xerr).Msg("X error")
		}
		return batch
	}

	switch e := ev.(type) {
	case xproto.PropertyNotifyEvent:
		name, err := xprop.AtomName(c.xu, e.Atom)
		if err != nil {
			c.log.Debug().Err(err).Uint32("atom", uint32(e.Atom)).Msg("Unknown atom")
			return batch
		}
		return append(batch, PropertyEvent{Window: e.Window, Prop: name})
	case xproto.ButtonPressEvent:
		return append(batch, ButtonEvent{
			Window: e.Event,
			X:      int(e.EventX),
			Y:      int(e.EventY),
			Button: int(e.Detail),
		})
	case xproto.FocusInEvent:
		return append(batch, FocusEvent{Window: e.Event})
	case xproto.ExposeEvent:
		if e.Count == 0 {
			return append(batch, ExposeEvent{Window: e.Window})
		}
	}
	return batch
}
