// Package realtime traduce el change feed a mutaciones de los stores de una
// sesión y a eventos de interfaz en su bus.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"youtrait/internal/changefeed"
	"youtrait/internal/domain"
	"youtrait/internal/events"
	"youtrait/internal/metrics"
	"youtrait/internal/store"
)

const (
	TableTraits         = "traits"
	TableNotifications  = "notifications"
	TableReactions      = "trait_reactions_enhanced"
	TableBestieRequests = "bestie_requests"
)

// Writer reenvía las escrituras salientes al backend.
type Writer interface {
	CreateReaction(ctx context.Context, reaction domain.Reaction) error
	CreateBestieRequest(ctx context.Context, req domain.BestieRequest) error
	RespondBestieRequest(ctx context.Context, id, userID, status string) error
}

// connection agrupa los streams de un Connect. Cada Connect crea una nueva,
// así los eventos de una conexión anterior se reconocen y se descartan.
type connection struct {
	userID  string
	streams []changefeed.Stream
	wg      sync.WaitGroup

	// dispatchMu serializa los despachos de los cuatro streams. Los listeners
	// de los stores corren mientras está tomado.
	dispatchMu sync.Mutex
}

// Adapter mantiene a lo sumo un conjunto de suscripciones. mu solo serializa
// Connect y Disconnect; la conexión actual se lee sin lock, así un listener
// de store puede llamar a IsConnected o Disconnect durante un despacho.
type Adapter struct {
	feed   changefeed.Feed
	stores *store.Stores
	bus    *events.Bus
	writer Writer
	logger *zap.Logger

	mu      sync.Mutex
	current atomic.Pointer[connection]
}

func NewAdapter(feed changefeed.Feed, stores *store.Stores, bus *events.Bus, writer Writer, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		feed:   feed,
		stores: stores,
		bus:    bus,
		writer: writer,
		logger: logger,
	}
}

// Subscriptions devuelve las cuatro suscripciones que abre Connect para userID.
func Subscriptions(userID string) []changefeed.Subscription {
	return []changefeed.Subscription{
		{
			Table:  TableTraits,
			Filter: &changefeed.Filter{Column: "target_user", Value: userID},
		},
		{
			Table:  TableNotifications,
			Ops:    []changefeed.Op{changefeed.OpCreated},
			Filter: &changefeed.Filter{Column: "user_id", Value: userID},
		},
		{
			Table: TableReactions,
			Ops:   []changefeed.Op{changefeed.OpCreated},
		},
		{
			Table:  TableBestieRequests,
			Filter: &changefeed.Filter{Column: "requested_id", Value: userID},
		},
	}
}

// Connect abre las suscripciones. Si ya hay una conexión, para cualquier
// usuario, no hace nada. Si alguna suscripción falla se cierran las abiertas
// y el adaptador queda desconectado.
func (a *Adapter) Connect(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current.Load() != nil {
		return nil
	}

	subs := Subscriptions(userID)
	conn := &connection{userID: userID}
	for _, sub := range subs {
		stream, err := a.feed.Subscribe(ctx, sub)
		if err != nil {
			for _, s := range conn.streams {
				_ = s.Close()
			}
			a.logger.Error("realtime connect failed",
				zap.String("user_id", userID),
				zap.String("table", sub.Table),
				zap.Error(err),
			)
			return fmt.Errorf("subscribe %s: %w", sub.Table, err)
		}
		conn.streams = append(conn.streams, stream)
	}

	a.current.Store(conn)
	for i, stream := range conn.streams {
		conn.wg.Add(1)
		go a.drain(conn, subs[i].Table, stream)
	}
	a.logger.Info("realtime connected", zap.String("user_id", userID))
	return nil
}

// Disconnect cierra los streams y espera a que terminen sus goroutines. Un
// evento que llegue después de que retorne no toca ningún store.
//
// Si hay un despacho en curso (por ejemplo, Disconnect llamado desde un
// listener de store) no espera: ese despacho es el último de la conexión y
// las goroutines salen solas al cerrarse sus streams.
func (a *Adapter) Disconnect() {
	a.mu.Lock()
	conn := a.current.Swap(nil)
	a.mu.Unlock()

	if conn == nil {
		return
	}
	for _, s := range conn.streams {
		if err := s.Close(); err != nil {
			a.logger.Warn("realtime stream close", zap.Error(err))
		}
	}
	if conn.dispatchMu.TryLock() {
		conn.dispatchMu.Unlock()
		conn.wg.Wait()
	}
	a.logger.Info("realtime disconnected", zap.String("user_id", conn.userID))
}

func (a *Adapter) IsConnected() bool {
	return a.current.Load() != nil
}

func (a *Adapter) drain(conn *connection, table string, stream changefeed.Stream) {
	defer conn.wg.Done()
	for ev := range stream.Events() {
		a.apply(conn, ev)
	}

	if a.current.Load() == conn {
		// sin reintentos: el próximo Connect tras Disconnect vuelve a suscribir
		a.logger.Warn("realtime stream ended", zap.String("table", table), zap.String("user_id", conn.userID))
	}
}

func (a *Adapter) apply(conn *connection, ev changefeed.Event) {
	conn.dispatchMu.Lock()
	defer conn.dispatchMu.Unlock()
	if a.current.Load() != conn {
		metrics.RealtimeEventsDropped.WithLabelValues("disconnected").Inc()
		return
	}
	if err := a.dispatch(ev); err != nil {
		metrics.RealtimeEventsDropped.WithLabelValues("malformed").Inc()
		a.logger.Warn("realtime event dropped",
			zap.String("table", ev.Table),
			zap.String("op", string(ev.Op)),
			zap.Error(err),
		)
		return
	}
	metrics.RealtimeEventsApplied.WithLabelValues(ev.Table, string(ev.Op)).Inc()
}

func (a *Adapter) dispatch(ev changefeed.Event) error {
	switch ev.Table {
	case TableTraits:
		return a.onTrait(ev)
	case TableNotifications:
		return a.onNotification(ev)
	case TableReactions:
		return a.onReaction(ev)
	case TableBestieRequests:
		return a.onBestieRequest(ev)
	default:
		return fmt.Errorf("unexpected table %q", ev.Table)
	}
}

func (a *Adapter) onTrait(ev changefeed.Event) error {
	switch ev.Op {
	case changefeed.OpCreated:
		var t domain.Trait
		if err := decode(ev.New, &t); err != nil {
			return err
		}
		a.stores.Traits.Add(t)
		if t.Status == domain.TraitStatusPending {
			a.stores.Approval.AddEndorsement(t)
		}
		a.bus.Notify(fmt.Sprintf("New trait: %s", t.Word), events.NotificationSuccess)

	case changefeed.OpUpdated:
		var next domain.Trait
		if err := decode(ev.New, &next); err != nil {
			return err
		}
		var prev domain.Trait
		if len(ev.Old) > 0 {
			_ = json.Unmarshal(ev.Old, &prev)
		}
		a.stores.Traits.Update(next.ID, store.PatchFromJSON(ev.New))
		a.stores.Approval.UpdateEndorsementStatus(next.ID, next.Status)
		if prev.Status == domain.TraitStatusPending && next.Status == domain.TraitStatusApproved {
			a.bus.Notify(fmt.Sprintf("Trait %q approved!", next.Word), events.NotificationSuccess)
		}

	case changefeed.OpDeleted:
		var old domain.Trait
		if err := decode(ev.Old, &old); err != nil {
			return err
		}
		a.stores.Traits.Remove(old.ID)
		a.stores.Approval.RemoveEndorsement(old.ID)
	}
	return nil
}

func (a *Adapter) onNotification(ev changefeed.Event) error {
	if ev.Op != changefeed.OpCreated {
		return nil
	}
	var n domain.Notification
	if err := decode(ev.New, &n); err != nil {
		return err
	}
	a.stores.Notifications.Add(n)
	a.bus.Notify(n.Title, events.NotificationInfo)
	return nil
}

// onReaction solo anima; ningún store guarda reacciones.
func (a *Adapter) onReaction(ev changefeed.Event) error {
	if ev.Op != changefeed.OpCreated {
		return nil
	}
	var r domain.Reaction
	if err := decode(ev.New, &r); err != nil {
		return err
	}
	a.bus.React(events.TraitReaction{
		TraitID:       r.TraitID,
		Emoji:         r.Emoji,
		AnimationType: r.AnimationType,
		Position:      events.Position{X: r.PositionX, Y: r.PositionY},
	})
	return nil
}

func (a *Adapter) onBestieRequest(ev changefeed.Event) error {
	switch ev.Op {
	case changefeed.OpCreated:
		var req domain.BestieRequest
		if err := decode(ev.New, &req); err != nil {
			return err
		}
		a.stores.Besties.AddPendingRequest(req)
		a.bus.Notify("New bestie request!", events.NotificationInfo)

	case changefeed.OpUpdated:
		var req domain.BestieRequest
		if err := decode(ev.New, &req); err != nil {
			return err
		}
		a.stores.Besties.UpdatePendingRequest(req.ID, store.PatchFromJSON(ev.New))
		if req.Status == domain.BestieStatusAccepted {
			a.bus.Notify("Bestie request accepted!", events.NotificationSuccess)
		}

	case changefeed.OpDeleted:
		var old domain.BestieRequest
		if err := decode(ev.Old, &old); err != nil {
			return err
		}
		a.stores.Besties.RemovePendingRequest(old.ID)
	}
	return nil
}

func decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing record")
	}
	return json.Unmarshal(raw, dst)
}
