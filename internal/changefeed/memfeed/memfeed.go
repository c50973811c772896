// Package memfeed es un feed en proceso. Sirve para tests y para el modo de
// un solo nodo, donde los servicios publican sus propios cambios.
package memfeed

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"youtrait/internal/changefeed"
)

const defaultQueue = 64

type subscriber struct {
	sub    changefeed.Subscription
	queue  chan changefeed.Event
	closed chan struct{}
}

type Feed struct {
	logger *zap.Logger
	mu     sync.RWMutex
	subs   map[*subscriber]struct{}
}

func New(logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{logger: logger, subs: make(map[*subscriber]struct{})}
}

func (f *Feed) Subscribe(ctx context.Context, sub changefeed.Subscription) (changefeed.Stream, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &subscriber{
		sub:    sub,
		queue:  make(chan changefeed.Event, defaultQueue),
		closed: make(chan struct{}),
	}
	f.mu.Lock()
	f.subs[s] = struct{}{}
	f.mu.Unlock()

	pipe := changefeed.StartPipe(ctx, func(ctx context.Context, send changefeed.SendFunc) error {
		defer f.remove(s)
		defer close(s.closed)
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev := <-s.queue:
				if !send(ev) {
					return nil
				}
			}
		}
	})
	return pipe, nil
}

// Publish encola ev en cada suscriptor que lo acepta, en orden de llegada.
// Bloquea si la cola de un suscriptor está llena hasta que haya lugar, el
// suscriptor se cierre o ctx se cancele.
func (f *Feed) Publish(ctx context.Context, ev changefeed.Event) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for s := range f.subs {
		if !s.sub.Matches(ev) {
			continue
		}
		select {
		case s.queue <- ev:
		case <-s.closed:
			f.logger.Debug("change event skipped; stream closed", zap.String("table", ev.Table))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Subscribers devuelve cuántos streams siguen abiertos.
func (f *Feed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

func (f *Feed) remove(s *subscriber) {
	f.mu.Lock()
	delete(f.subs, s)
	f.mu.Unlock()
}
