package panel

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/thejerf/suture/v4"

	"github.com/gopanel/gopanel/internal/xconn"
)

// EventSource is the X connection as seen by the service.
type EventSource interface {
	Events(ctx context.Context) <-chan []xconn.Event
}

// Service runs a panel under a suture supervisor.
type Service struct {
	panel  *Panel
	events EventSource
}

func NewService(p *Panel, events EventSource) *Service {
	return &Service{panel: p, events: events}
}

func (s *Service) String() string {
	return "panel"
}

// Serve runs the loop. The event stream cannot be reopened once the loop
// stops, so any failure, panics included, takes the whole tree down
// instead of letting the supervisor restart the service.
func (s *Service) Serve(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.panel.log.Error().
				Interface("panic", r).
				Str("stacktrace", string(debug.Stack())).
				Msg("Panel loop panicked")
			err = fmt.Errorf("%w: panel loop panicked: %v", suture.ErrTerminateSupervisorTree, r)
		}
	}()

	err = s.panel.Run(ctx, s.events.Events(ctx))
	if err == nil || ctx.Err() != nil {
		return err
	}
	return fmt.Errorf("%w: %w", suture.ErrTerminateSupervisorTree, err)
}
