package events

import (
	"sync"

	"go.uber.org/zap"

	"youtrait/internal/metrics"
)

// Kind identifica el tipo de evento de interfaz.
type Kind string

const (
	KindFloatingNotification Kind = "floatingNotification"
	KindTraitReaction        Kind = "traitReaction"
)

const (
	NotificationSuccess = "success"
	NotificationInfo    = "info"
)

type FloatingNotification struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type TraitReaction struct {
	TraitID       string   `json:"traitId"`
	Emoji         string   `json:"emoji"`
	AnimationType string   `json:"animationType,omitempty"`
	Position      Position `json:"position"`
}

// Event lleva exactamente uno de los dos payloads según Kind.
type Event struct {
	Kind         Kind                  `json:"kind"`
	Notification *FloatingNotification `json:"notification,omitempty"`
	Reaction     *TraitReaction        `json:"reaction,omitempty"`
}

// Payload devuelve el cuerpo que corresponde a Kind.
func (e Event) Payload() any {
	switch e.Kind {
	case KindFloatingNotification:
		return e.Notification
	case KindTraitReaction:
		return e.Reaction
	default:
		return nil
	}
}

// Bus reparte eventos de interfaz dentro del proceso. La entrega es de tipo
// fire-and-forget: sin suscriptores el evento se pierde, y un suscriptor con
// el buffer lleno lo pierde también. No hay reintentos ni historial.
type Bus struct {
	logger *zap.Logger
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
}

func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		logger: logger,
		subs:   make(map[*Subscription]struct{}),
	}
}

// Subscription recibe eventos desde que se crea hasta que se cierra.
type Subscription struct {
	bus  *Bus
	ch   chan Event
	once sync.Once
}

// Subscribe registra un suscriptor con un buffer de tamaño buffer (mínimo 1).
func (b *Bus) Subscribe(buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	sub := &Subscription{bus: b, ch: make(chan Event, buffer)}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// C es el canal de recepción; se cierra con Close.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Close da de baja al suscriptor. Es seguro llamarlo varias veces.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s)
		s.bus.mu.Unlock()
		close(s.ch)
	})
}

// Subscribers devuelve cuántos suscriptores vivos hay.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish entrega ev a cada suscriptor sin bloquear y devuelve cuántos lo recibieron.
func (b *Bus) Publish(ev Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for sub := range b.subs {
		select {
		case sub.ch <- ev:
			delivered++
		default:
			metrics.UIEvents.WithLabelValues(string(ev.Kind), "dropped_full").Inc()
			b.logger.Debug("dropping ui event; subscriber buffer full", zap.String("kind", string(ev.Kind)))
		}
	}
	if len(b.subs) == 0 {
		metrics.UIEvents.WithLabelValues(string(ev.Kind), "dropped_no_listener").Inc()
	}
	if delivered > 0 {
		metrics.UIEvents.WithLabelValues(string(ev.Kind), "delivered").Add(float64(delivered))
	}
	return delivered
}

// Notify publica una notificación flotante.
func (b *Bus) Notify(message, typ string) int {
	return b.Publish(Event{
		Kind:         KindFloatingNotification,
		Notification: &FloatingNotification{Message: message, Type: typ},
	})
}

// React publica una animación de reacción.
func (b *Bus) React(r TraitReaction) int {
	return b.Publish(Event{Kind: KindTraitReaction, Reaction: &r})
}
