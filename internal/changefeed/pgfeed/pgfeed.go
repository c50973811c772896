// Package pgfeed consume el change feed desde Postgres LISTEN/NOTIFY. Los
// triggers de internal/db publican cada cambio en un canal; cada stream abre
// su propia conexión y filtra del lado del cliente.
package pgfeed

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"youtrait/internal/changefeed"
)

const DefaultChannel = "row_changes"

// Connector abre una conexión dedicada; pgx.Connect en producción.
type Connector func(ctx context.Context) (*pgx.Conn, error)

type Feed struct {
	connect Connector
	channel string
	logger  *zap.Logger
}

func New(databaseURL, channel string, logger *zap.Logger) *Feed {
	return NewWithConnector(func(ctx context.Context) (*pgx.Conn, error) {
		return pgx.Connect(ctx, databaseURL)
	}, channel, logger)
}

func NewWithConnector(connect Connector, channel string, logger *zap.Logger) *Feed {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{connect: connect, channel: channel, logger: logger}
}

// ListenStatement devuelve el LISTEN con el canal escapado.
func ListenStatement(channel string) string {
	return "LISTEN " + pgx.Identifier{channel}.Sanitize()
}

func (f *Feed) Subscribe(ctx context.Context, sub changefeed.Subscription) (changefeed.Stream, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	conn, err := f.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("pgfeed connect: %w", err)
	}
	if _, err := conn.Exec(ctx, ListenStatement(f.channel)); err != nil {
		closeConn(conn)
		return nil, fmt.Errorf("pgfeed listen %s: %w", f.channel, err)
	}

	logger := f.logger.With(zap.String("table", sub.Table), zap.String("channel", f.channel))
	return changefeed.StartPipe(ctx, func(ctx context.Context, send changefeed.SendFunc) error {
		defer closeConn(conn)
		for {
			n, err := conn.WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logger.Error("change feed connection lost", zap.Error(err))
				return err
			}
			if !changefeed.Deliver([]byte(n.Payload), sub, send, logger) {
				return nil
			}
		}
	}), nil
}

func closeConn(conn *pgx.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = conn.Close(ctx)
}
