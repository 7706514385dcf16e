// Package sutureext wires suture supervisors into the panel's logging.
package sutureext

import (
	"context"
	"errors"

	"github.com/thejerf/suture/v4"

	"github.com/gopanel/gopanel/internal/logger"
)

func New(name string) *suture.Supervisor {
	return suture.New(name, suture.Spec{
		EventHook: EventHook(),
	})
}

func EventHook() suture.EventHook {
	return func(ei suture.Event) {
		log := logger.WithComponent("supervisor")
		switch e := ei.(type) {
		case suture.EventStopTimeout:
			log.Info().
				Str("supervisor", e.SupervisorName).
				Str("service", e.ServiceName).
				Msg("Service failed to terminate in a timely manner")
		case suture.EventServicePanic:
			log.Error().
				Str("service", e.ServiceName).
				Str("panic", e.PanicMsg).
				Str("stacktrace", e.Stacktrace).
				Msg("Caught a service panic")
		case suture.EventServiceTerminate:
			log.Error().
				Interface("error", e.Err).
				Str("supervisor", e.SupervisorName).
				Str("service", e.ServiceName).
				Bool("restarting", e.Restarting).
				Msg("Service failed")
		case suture.EventBackoff:
			log.Debug().
				Str("supervisor", e.SupervisorName).
				Msg("Too many service failures - entering the backoff state")
		case suture.EventResume:
			log.Debug().
				Str("supervisor", e.SupervisorName).
				Msg("Exiting backoff state")
		default:
			log.Warn().
				Int("type", int(e.Type())).
				Msg("Unknown suture supervisor event type")
		}
	}
}

// Service forces the use of the String method
type Service interface {
	String() string
	suture.Service
}

func Add(super *suture.Supervisor, service Service) suture.ServiceToken {
	return super.Add(sanitizeService{Service: service})
}

type sanitizeService struct {
	Service
}

func (s sanitizeService) Serve(ctx context.Context) error {
	return SanitizeError(ctx, s.Service.Serve(ctx))
}

// SanitizeError prevents the error from being interpreted as a context error unless it
// really is a context error because suture kills the service when it sees a context error.
func SanitizeError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !(errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return err
	}

	var newErrs [3]error

	if errors.Is(err, suture.ErrDoNotRestart) {
		newErrs[0] = suture.ErrDoNotRestart
	}

	if errors.Is(err, suture.ErrTerminateSupervisorTree) {
		newErrs[1] = suture.ErrTerminateSupervisorTree
	}

	newErrs[2] = errors.New(err.Error())

	return errors.Join(newErrs[:]...)
}

type ServiceFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func NewServiceFunc(name string, fn func(ctx context.Context) error) ServiceFunc {
	return ServiceFunc{
		name: name,
		fn:   fn,
	}
}

func (s ServiceFunc) String() string {
	return s.name
}

func (s ServiceFunc) Serve(ctx context.Context) error {
	return s.fn(ctx)
}
