// Package lifecycle bridges registry change events into the lifecycle event model.
package lifecycle

import (
	"context"
	"log/slog"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/koremd/pkg/core"
)

type registrySource struct {
	events <-chan core.Event
	out    chan lifecycle.Event
	logger *slog.Logger
}

// NewSource creates a lifecycle.Source that re-emits the events of
// core.Registry.Watch. The output channel closes when the input does.
func NewSource(events <-chan core.Event, logger *slog.Logger) lifecycle.Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &registrySource{
		events: events,
		out:    make(chan lifecycle.Event),
		logger: logger,
	}
}

func (s *registrySource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *registrySource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("event source panic", "error", err)
	}))
	return nil
}
