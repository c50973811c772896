package pgfeed

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"youtrait/internal/changefeed"
)

func TestListenStatement_QuotesChannel(t *testing.T) {
	if got := ListenStatement("row_changes"); got != `LISTEN "row_changes"` {
		t.Fatalf("unexpected statement %q", got)
	}
	if got := ListenStatement(`evil"; DROP TABLE traits; --`); got != `LISTEN "evil""; DROP TABLE traits; --"` {
		t.Fatalf("expected quoted identifier, got %q", got)
	}
}

func TestSubscribe_ConnectFailure(t *testing.T) {
	boom := errors.New("no route to host")
	f := NewWithConnector(func(ctx context.Context) (*pgx.Conn, error) {
		return nil, boom
	}, "", nil)

	if _, err := f.Subscribe(context.Background(), changefeed.Subscription{Table: "traits"}); !errors.Is(err, boom) {
		t.Fatalf("expected connect error, got %v", err)
	}
	if f.channel != DefaultChannel {
		t.Fatalf("expected default channel, got %q", f.channel)
	}
}
