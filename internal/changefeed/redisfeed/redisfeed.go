// Package redisfeed transporta el change feed por Redis pub/sub: un canal por
// tabla, con los mismos payloads que publican los triggers de Postgres.
package redisfeed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"youtrait/internal/changefeed"
)

const DefaultPrefix = "youtrait:changes"

var errSubscriptionClosed = errors.New("redisfeed: subscription channel closed")

type Feed struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

func New(client *redis.Client, prefix string, logger *zap.Logger) *Feed {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{client: client, prefix: prefix, logger: logger}
}

// Channel devuelve el canal Redis de una tabla.
func (f *Feed) Channel(table string) string {
	return f.prefix + ":" + table
}

func (f *Feed) Subscribe(ctx context.Context, sub changefeed.Subscription) (changefeed.Stream, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	if f.client == nil {
		return nil, fmt.Errorf("redisfeed: client not initialized")
	}

	channel := f.Channel(sub.Table)
	ps := f.client.Subscribe(ctx, channel)
	// confirma que la suscripción quedó activa
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", channel, err)
	}

	logger := f.logger.With(zap.String("channel", channel))
	return changefeed.StartPipe(ctx, func(ctx context.Context, send changefeed.SendFunc) error {
		defer ps.Close()
		ch := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return nil
			case m, ok := <-ch:
				if !ok || m == nil {
					logger.Warn("redis change feed subscription ended")
					return errSubscriptionClosed
				}
				if !changefeed.Deliver([]byte(m.Payload), sub, send, logger) {
					return nil
				}
			}
		}
	}), nil
}

// Publish envía ev al canal de su tabla.
func (f *Feed) Publish(ctx context.Context, ev changefeed.Event) error {
	raw, err := changefeed.Encode(ev)
	if err != nil {
		return err
	}
	if f.client == nil {
		return fmt.Errorf("redisfeed: client not initialized")
	}
	return f.client.Publish(ctx, f.Channel(ev.Table), raw).Err()
}
