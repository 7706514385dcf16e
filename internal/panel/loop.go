package panel

import (
	"context"
	"time"

	"github.com/gopanel/gopanel/internal/render"
	"github.com/gopanel/gopanel/internal/xconn"
)

// Run starts the panel and serves events until ctx ends or the event
// channel closes. A closed channel means the X connection is gone and is
// reported as xconn.ErrConnectionLost. The registries are released on return.
func (p *Panel) Run(ctx context.Context, events <-chan []xconn.Event) error {
	p.Start()
	defer p.Close()

	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case batch, ok := <-events:
			if !ok {
				return xconn.ErrConnectionLost
			}
			for _, ev := range batch {
				p.Handle(ev)
			}
			p.redraw()

		case now := <-ticker.C:
			switch p.renderer.Tick(now) {
			case render.ClockRedrawn:
				p.present = true
				p.redraw()
			case render.ClockResized:
				p.needLayout = true
				p.dirty.panel = true
				p.redraw()
			}

		case q := <-p.queries:
			q(p)
		}
	}
}

// do runs fn on the loop goroutine and waits for it.
func (p *Panel) do(ctx context.Context, fn func(*Panel)) error {
	done := make(chan struct{})
	q := func(p *Panel) {
		fn(p)
		close(done)
	}

	select {
	case p.queries <- q:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
