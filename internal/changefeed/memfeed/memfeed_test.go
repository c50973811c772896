package memfeed

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"

	"youtrait/internal/changefeed"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func mustEvent(t *testing.T, table string, op changefeed.Op, rec any) changefeed.Event {
	t.Helper()
	ev, err := changefeed.NewEvent(table, op, rec, nil)
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	return ev
}

func recv(t *testing.T, s changefeed.Stream) changefeed.Event {
	t.Helper()
	select {
	case ev, ok := <-s.Events():
		if !ok {
			t.Fatalf("stream closed unexpectedly")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for event")
	}
	return changefeed.Event{}
}

func TestFeed_FiltersByTableOpAndColumn(t *testing.T) {
	ctx := context.Background()
	f := New(nil)
	s, err := f.Subscribe(ctx, changefeed.Subscription{
		Table:  "notifications",
		Ops:    []changefeed.Op{changefeed.OpCreated},
		Filter: &changefeed.Filter{Column: "user_id", Value: "u1"},
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer s.Close()

	events := []changefeed.Event{
		mustEvent(t, "traits", changefeed.OpCreated, map[string]any{"user_id": "u1"}),
		mustEvent(t, "notifications", changefeed.OpUpdated, map[string]any{"user_id": "u1"}),
		mustEvent(t, "notifications", changefeed.OpCreated, map[string]any{"user_id": "u2"}),
		mustEvent(t, "notifications", changefeed.OpCreated, map[string]any{"id": "n1", "user_id": "u1"}),
	}
	for _, ev := range events {
		if err := f.Publish(ctx, ev); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}

	got := recv(t, s)
	if string(got.New) != `{"id":"n1","user_id":"u1"}` {
		t.Fatalf("unexpected event %s", got.New)
	}
	select {
	case ev := <-s.Events():
		t.Fatalf("unexpected extra event %+v", ev)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestFeed_PreservesOrderPerStream(t *testing.T) {
	ctx := context.Background()
	f := New(nil)
	s, err := f.Subscribe(ctx, changefeed.Subscription{Table: "traits"})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer s.Close()

	for i := 0; i < 10; i++ {
		if err := f.Publish(ctx, mustEvent(t, "traits", changefeed.OpUpdated, map[string]any{"upvotes": i})); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}
	for i := 0; i < 10; i++ {
		ev := recv(t, s)
		want := `{"upvotes":` + string(rune('0'+i)) + `}`
		if string(ev.New) != want {
			t.Fatalf("position %d: got %s want %s", i, ev.New, want)
		}
	}
}

func TestFeed_CloseStopsDeliveryAndUnsubscribes(t *testing.T) {
	ctx := context.Background()
	f := New(nil)
	s, err := f.Subscribe(ctx, changefeed.Subscription{Table: "traits"})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, ok := <-s.Events(); ok {
		t.Fatalf("expected closed events channel")
	}
	if n := f.Subscribers(); n != 0 {
		t.Fatalf("expected no subscribers, got %d", n)
	}
	if err := f.Publish(ctx, mustEvent(t, "traits", changefeed.OpCreated, map[string]any{"id": "x"})); err != nil {
		t.Fatalf("Publish after close: %v", err)
	}
}

func TestFeed_CloseUnblocksPendingPublish(t *testing.T) {
	ctx := context.Background()
	f := New(nil)
	s, err := f.Subscribe(ctx, changefeed.Subscription{Table: "traits"})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		var err error
		for i := 0; i < defaultQueue+5 && err == nil; i++ {
			ev, _ := changefeed.NewEvent("traits", changefeed.OpCreated, map[string]any{"i": i}, nil)
			err = f.Publish(ctx, ev)
		}
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	s.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Publish: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("publisher stayed blocked after close")
	}
}

func TestFeed_SubscribeValidates(t *testing.T) {
	f := New(nil)
	if _, err := f.Subscribe(context.Background(), changefeed.Subscription{}); err == nil {
		t.Fatalf("expected error for empty table")
	}
}
