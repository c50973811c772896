package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"youtrait/internal/changefeed"
	"youtrait/internal/changefeed/memfeed"
	"youtrait/internal/domain"
	"youtrait/internal/events"
	"youtrait/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeWriter struct {
	mu        sync.Mutex
	reactions []domain.Reaction
	requests  []domain.BestieRequest
	responses []string
	err       error
}

func (w *fakeWriter) CreateReaction(ctx context.Context, r domain.Reaction) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reactions = append(w.reactions, r)
	return w.err
}

func (w *fakeWriter) CreateBestieRequest(ctx context.Context, req domain.BestieRequest) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.requests = append(w.requests, req)
	return w.err
}

func (w *fakeWriter) RespondBestieRequest(ctx context.Context, id, userID, status string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.responses = append(w.responses, id+":"+userID+":"+status)
	return w.err
}

type harness struct {
	feed    *memfeed.Feed
	stores  *store.Stores
	bus     *events.Bus
	ui      *events.Subscription
	writer  *fakeWriter
	adapter *Adapter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		feed:   memfeed.New(nil),
		stores: store.New(),
		bus:    events.NewBus(nil),
		writer: &fakeWriter{},
	}
	h.ui = h.bus.Subscribe(16)
	h.adapter = NewAdapter(h.feed, h.stores, h.bus, h.writer, nil)
	t.Cleanup(func() {
		h.adapter.Disconnect()
		h.ui.Close()
	})
	return h
}

func (h *harness) publish(t *testing.T, table string, op changefeed.Op, newRec, oldRec any) {
	t.Helper()
	ev, err := changefeed.NewEvent(table, op, newRec, oldRec)
	if err != nil {
		t.Fatalf("NewEvent: %v", err)
	}
	if err := h.feed.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish: %v", err)
	}
}

func (h *harness) nextUI(t *testing.T) events.Event {
	t.Helper()
	select {
	case ev := <-h.ui.C():
		return ev
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for ui event")
	}
	return events.Event{}
}

func (h *harness) noUI(t *testing.T) {
	t.Helper()
	select {
	case ev := <-h.ui.C():
		t.Fatalf("unexpected ui event %+v", ev)
	case <-time.After(30 * time.Millisecond):
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestConnect_IsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.adapter.Connect(ctx, "u1"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := h.adapter.Connect(ctx, "u1"); err != nil {
		t.Fatalf("second Connect: %v", err)
	}
	if err := h.adapter.Connect(ctx, "u2"); err != nil {
		t.Fatalf("Connect for other user: %v", err)
	}
	if n := h.feed.Subscribers(); n != 4 {
		t.Fatalf("expected 4 subscriptions, got %d", n)
	}

	h.publish(t, TableTraits, changefeed.OpCreated, domain.Trait{ID: "t1", Word: "kind", Status: domain.TraitStatusPending, TargetUserID: "u1"}, nil)
	h.nextUI(t)
	h.noUI(t)
	if got := h.stores.Traits.Traits(); len(got) != 1 {
		t.Fatalf("expected a single trait, got %+v", got)
	}
}

func TestConnect_EmptyUserIsNoop(t *testing.T) {
	h := newHarness(t)
	if err := h.adapter.Connect(context.Background(), ""); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if h.adapter.IsConnected() || h.feed.Subscribers() != 0 {
		t.Fatalf("expected no connection for empty user")
	}
}

type failingFeed struct {
	inner   changefeed.Feed
	failAt  int
	calls   int
	streams []changefeed.Stream
}

func (f *failingFeed) Subscribe(ctx context.Context, sub changefeed.Subscription) (changefeed.Stream, error) {
	f.calls++
	if f.calls == f.failAt {
		return nil, errors.New("channel error")
	}
	s, err := f.inner.Subscribe(ctx, sub)
	if err == nil {
		f.streams = append(f.streams, s)
	}
	return s, err
}

func TestConnect_PartialFailureClosesOpened(t *testing.T) {
	inner := memfeed.New(nil)
	feed := &failingFeed{inner: inner, failAt: 3}
	a := NewAdapter(feed, store.New(), events.NewBus(nil), &fakeWriter{}, nil)

	if err := a.Connect(context.Background(), "u1"); err == nil {
		t.Fatalf("expected error")
	}
	if a.IsConnected() {
		t.Fatalf("expected adapter to stay disconnected")
	}
	if inner.Subscribers() != 0 {
		t.Fatalf("expected opened streams closed, %d still open", inner.Subscribers())
	}

	feed.failAt = 0
	if err := a.Connect(context.Background(), "u1"); err != nil {
		t.Fatalf("retry Connect: %v", err)
	}
	a.Disconnect()
}

func TestDisconnect_SafeWhenIdle(t *testing.T) {
	h := newHarness(t)
	h.adapter.Disconnect()
	h.adapter.Disconnect()
	if h.adapter.IsConnected() {
		t.Fatalf("expected disconnected")
	}
}

func TestDisconnect_DropsLateEvents(t *testing.T) {
	h := newHarness(t)
	if err := h.adapter.Connect(context.Background(), "u1"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	stale := h.adapter.current.Load()

	h.adapter.Disconnect()
	if h.feed.Subscribers() != 0 {
		t.Fatalf("expected streams closed on disconnect")
	}

	// entrega tardía de un evento en vuelo de la conexión anterior
	ev, _ := changefeed.NewEvent(TableTraits, changefeed.OpCreated, domain.Trait{ID: "late", Word: "late"}, nil)
	h.adapter.apply(stale, ev)
	h.publish(t, TableTraits, changefeed.OpCreated, domain.Trait{ID: "after", TargetUserID: "u1"}, nil)

	if got := h.stores.Traits.Traits(); len(got) != 0 {
		t.Fatalf("expected no mutation after disconnect, got %+v", got)
	}
	h.noUI(t)

	if err := h.adapter.Connect(context.Background(), "u1"); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	h.adapter.apply(stale, ev)
	if got := h.stores.Traits.Traits(); len(got) != 0 {
		t.Fatalf("expected stale connection events dropped after reconnect, got %+v", got)
	}
}

func TestListener_CanQueryConnection(t *testing.T) {
	h := newHarness(t)
	if err := h.adapter.Connect(context.Background(), "u1"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	seen := make(chan bool, 1)
	unsubscribe := h.stores.Traits.Subscribe(func() {
		select {
		case seen <- h.adapter.IsConnected():
		default:
		}
	})
	defer unsubscribe()

	h.publish(t, TableTraits, changefeed.OpCreated, domain.Trait{ID: "t1", Word: "kind", Status: domain.TraitStatusPending, TargetUserID: "u1"}, nil)
	select {
	case connected := <-seen:
		if !connected {
			t.Fatalf("expected IsConnected true inside listener")
		}
	case <-time.After(time.Second):
		t.Fatalf("listener blocked")
	}

	done := make(chan struct{})
	go func() {
		h.adapter.Disconnect()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Disconnect blocked")
	}
}

func TestListener_CanDisconnect(t *testing.T) {
	h := newHarness(t)
	if err := h.adapter.Connect(context.Background(), "u1"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	returned := make(chan struct{})
	var once sync.Once
	unsubscribe := h.stores.Traits.Subscribe(func() {
		once.Do(func() {
			h.adapter.Disconnect()
			close(returned)
		})
	})
	defer unsubscribe()

	h.publish(t, TableTraits, changefeed.OpCreated, domain.Trait{ID: "t1", Word: "kind", Status: domain.TraitStatusPending, TargetUserID: "u1"}, nil)
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatalf("Disconnect from listener blocked")
	}
	if h.adapter.IsConnected() {
		t.Fatalf("expected disconnected")
	}
	eventually(t, func() bool { return h.feed.Subscribers() == 0 })

	h.publish(t, TableTraits, changefeed.OpCreated, domain.Trait{ID: "t2", TargetUserID: "u1"}, nil)
	if got := h.stores.Traits.Traits(); len(got) != 1 {
		t.Fatalf("expected only the first trait, got %+v", got)
	}
}

func TestDispatch_Traits(t *testing.T) {
	h := newHarness(t)
	if err := h.adapter.Connect(context.Background(), "u1"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	pending := domain.Trait{ID: "t1", Word: "brave", Status: domain.TraitStatusPending, TargetUserID: "u1", Upvotes: 0}
	h.publish(t, TableTraits, changefeed.OpCreated, pending, nil)
	ui := h.nextUI(t)
	if ui.Kind != events.KindFloatingNotification || ui.Notification.Message != "New trait: brave" || ui.Notification.Type != events.NotificationSuccess {
		t.Fatalf("unexpected ui event %+v", ui.Notification)
	}
	if got := h.stores.Approval.PendingEndorsements(); len(got) != 1 {
		t.Fatalf("expected pending endorsement, got %+v", got)
	}

	approved := pending
	approved.Status = domain.TraitStatusApproved
	approved.Upvotes = 3
	h.publish(t, TableTraits, changefeed.OpUpdated, approved, pending)
	ui = h.nextUI(t)
	if ui.Notification.Message != `Trait "brave" approved!` {
		t.Fatalf("unexpected approval message %q", ui.Notification.Message)
	}
	tr, ok := h.stores.Traits.Get("t1")
	if !ok || tr.Status != domain.TraitStatusApproved || tr.Upvotes != 3 {
		t.Fatalf("expected merged trait, got %+v", tr)
	}
	if got := h.stores.Approval.PendingEndorsements(); len(got) != 0 {
		t.Fatalf("expected inbox cleared, got %+v", got)
	}

	upvoted := approved
	upvoted.Upvotes = 4
	h.publish(t, TableTraits, changefeed.OpUpdated, upvoted, approved)
	eventually(t, func() bool {
		tr, _ := h.stores.Traits.Get("t1")
		return tr.Upvotes == 4
	})
	h.noUI(t)

	h.publish(t, TableTraits, changefeed.OpDeleted, nil, upvoted)
	eventually(t, func() bool { return len(h.stores.Traits.Traits()) == 0 })

	h.publish(t, TableTraits, changefeed.OpCreated, domain.Trait{ID: "x", TargetUserID: "u2"}, nil)
	h.noUI(t)
}

func TestDispatch_UpdateForUnknownTraitIsNoop(t *testing.T) {
	h := newHarness(t)
	if err := h.adapter.Connect(context.Background(), "u1"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	h.publish(t, TableTraits, changefeed.OpUpdated, domain.Trait{ID: "ghost", Status: domain.TraitStatusRejected, TargetUserID: "u1"}, nil)
	h.noUI(t)
	if got := h.stores.Traits.Traits(); len(got) != 0 {
		t.Fatalf("expected no trait created from update, got %+v", got)
	}
}

func TestDispatch_Notifications(t *testing.T) {
	h := newHarness(t)
	if err := h.adapter.Connect(context.Background(), "u1"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	h.publish(t, TableNotifications, changefeed.OpCreated, domain.Notification{ID: "n1", UserID: "u1", Title: "Someone endorsed you"}, nil)
	ui := h.nextUI(t)
	if ui.Notification.Message != "Someone endorsed you" || ui.Notification.Type != events.NotificationInfo {
		t.Fatalf("unexpected ui event %+v", ui.Notification)
	}
	if h.stores.Notifications.UnreadCount() != 1 {
		t.Fatalf("expected one unread notification")
	}

	h.publish(t, TableNotifications, changefeed.OpCreated, domain.Notification{ID: "n2", UserID: "u2", Title: "not yours"}, nil)
	h.noUI(t)
}

func TestDispatch_ReactionsTouchNoStore(t *testing.T) {
	h := newHarness(t)
	if err := h.adapter.Connect(context.Background(), "u1"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	calls := 0
	unsubscribe := h.stores.Traits.Subscribe(func() { calls++ })
	defer unsubscribe()

	h.publish(t, TableReactions, changefeed.OpCreated, domain.Reaction{
		ID: "r1", TraitID: "t9", UserID: "u7", Emoji: "🎉", AnimationType: domain.AnimationFloat, PositionX: 12.5, PositionY: 40,
	}, nil)
	ui := h.nextUI(t)
	if ui.Kind != events.KindTraitReaction {
		t.Fatalf("expected trait reaction, got %+v", ui)
	}
	want := events.TraitReaction{TraitID: "t9", Emoji: "🎉", AnimationType: domain.AnimationFloat, Position: events.Position{X: 12.5, Y: 40}}
	if *ui.Reaction != want {
		t.Fatalf("unexpected reaction %+v", *ui.Reaction)
	}
	if calls != 0 || len(h.stores.Traits.Traits()) != 0 || len(h.stores.Notifications.Notifications()) != 0 {
		t.Fatalf("expected stores untouched")
	}
}

func TestDispatch_BestieRequests(t *testing.T) {
	h := newHarness(t)
	if err := h.adapter.Connect(context.Background(), "u1"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	req := domain.BestieRequest{ID: "b1", RequesterID: "u5", RequestedID: "u1", Status: domain.BestieStatusPending}
	h.publish(t, TableBestieRequests, changefeed.OpCreated, req, nil)
	if ui := h.nextUI(t); ui.Notification.Message != "New bestie request!" || ui.Notification.Type != events.NotificationInfo {
		t.Fatalf("unexpected ui event %+v", ui.Notification)
	}
	if got := h.stores.Besties.PendingRequests(); len(got) != 1 {
		t.Fatalf("expected pending request, got %+v", got)
	}

	accepted := req
	accepted.Status = domain.BestieStatusAccepted
	h.publish(t, TableBestieRequests, changefeed.OpUpdated, accepted, req)
	if ui := h.nextUI(t); ui.Notification.Message != "Bestie request accepted!" || ui.Notification.Type != events.NotificationSuccess {
		t.Fatalf("unexpected ui event %+v", ui.Notification)
	}
	if got := h.stores.Besties.Besties(); len(got) != 1 || got[0].ID != "b1" {
		t.Fatalf("expected b1 as bestie, got %+v", got)
	}

	rejected := domain.BestieRequest{ID: "b2", RequesterID: "u6", RequestedID: "u1", Status: domain.BestieStatusRejected}
	h.publish(t, TableBestieRequests, changefeed.OpUpdated, rejected, nil)
	h.noUI(t)
}

func TestDispatch_MalformedRecordIsDropped(t *testing.T) {
	h := newHarness(t)
	if err := h.adapter.Connect(context.Background(), "u1"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	conn := h.adapter.current.Load()

	h.adapter.apply(conn, changefeed.Event{Table: TableTraits, Op: changefeed.OpCreated})
	h.adapter.apply(conn, changefeed.Event{Table: TableTraits, Op: changefeed.OpCreated, New: []byte(`{"id":`)})
	if len(h.stores.Traits.Traits()) != 0 {
		t.Fatalf("expected malformed events ignored")
	}
	h.noUI(t)
}

func TestOutbound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.adapter.SendReaction(ctx, "t1", "🔥", events.Position{X: 1, Y: 2})
	h.adapter.SendBestieRequest(ctx, "u2", "hi")
	h.adapter.RespondToBestieRequest(ctx, "b1", domain.BestieStatusAccepted)
	if len(h.writer.reactions)+len(h.writer.requests)+len(h.writer.responses) != 0 {
		t.Fatalf("expected no writes without a session user")
	}

	h.stores.Auth.SetUser(&domain.User{ID: "u1"})
	h.writer.err = errors.New("network down")
	h.adapter.SendReaction(ctx, "t1", "🔥", events.Position{X: 1, Y: 2})
	h.adapter.SendBestieRequest(ctx, "u2", "hi")
	h.adapter.RespondToBestieRequest(ctx, "b1", domain.BestieStatusAccepted)

	if len(h.writer.reactions) != 1 || h.writer.reactions[0].UserID != "u1" || h.writer.reactions[0].AnimationType != domain.AnimationFloat || h.writer.reactions[0].PositionY != 2 {
		t.Fatalf("unexpected reaction %+v", h.writer.reactions)
	}
	if len(h.writer.requests) != 1 || h.writer.requests[0].RequesterID != "u1" || h.writer.requests[0].Status != domain.BestieStatusPending {
		t.Fatalf("unexpected bestie request %+v", h.writer.requests)
	}
	if len(h.writer.responses) != 1 || h.writer.responses[0] != "b1:u1:accepted" {
		t.Fatalf("unexpected responses %+v", h.writer.responses)
	}
	if len(h.stores.Besties.PendingRequests()) != 0 || len(h.stores.Traits.Traits()) != 0 {
		t.Fatalf("expected no optimistic local mutation")
	}
	h.noUI(t)
}
