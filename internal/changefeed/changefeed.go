// Package changefeed modela el flujo de cambios por fila que emite el backend
// (created/updated/deleted) como streams que el consumidor posee y cierra.
package changefeed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

var (
	ErrUnknownOp = errors.New("changefeed: unknown operation")
	ErrNoTable   = errors.New("changefeed: table required")
)

// Event es un cambio de fila. New y Old son el registro en JSON tal cual lo
// serializa la base; cualquiera de los dos puede venir vacío según Op.
type Event struct {
	Table string
	Op    Op
	New   json.RawMessage
	Old   json.RawMessage
}

// Filter restringe una suscripción a filas cuya columna vale Value.
type Filter struct {
	Column string
	Value  string
}

type Subscription struct {
	Table  string
	Ops    []Op
	Filter *Filter
}

// Stream entrega eventos hasta que se cierra. Cuando Close retorna, el canal
// de Events está cerrado y no se entrega ningún valor más.
type Stream interface {
	Events() <-chan Event
	Close() error
}

type Feed interface {
	Subscribe(ctx context.Context, sub Subscription) (Stream, error)
}

// Publisher emite eventos en feeds que no los generan por sí mismos.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

func (s Subscription) Validate() error {
	if strings.TrimSpace(s.Table) == "" {
		return ErrNoTable
	}
	return nil
}

// Matches indica si ev pertenece a la suscripción. El filtro se evalúa sobre
// New y, si no hay, sobre Old.
func (s Subscription) Matches(ev Event) bool {
	if ev.Table != s.Table {
		return false
	}
	if len(s.Ops) > 0 {
		found := false
		for _, op := range s.Ops {
			if op == ev.Op {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if s.Filter == nil {
		return true
	}
	record := ev.Record()
	if record == nil {
		return false
	}
	var row map[string]any
	if err := json.Unmarshal(record, &row); err != nil {
		return false
	}
	v, ok := row[s.Filter.Column]
	if !ok || v == nil {
		return false
	}
	switch val := v.(type) {
	case string:
		return val == s.Filter.Value
	default:
		return fmt.Sprint(val) == s.Filter.Value
	}
}

// Record devuelve New o, si falta, Old.
func (e Event) Record() json.RawMessage {
	if !isEmpty(e.New) {
		return e.New
	}
	if !isEmpty(e.Old) {
		return e.Old
	}
	return nil
}

func isEmpty(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

type wireEvent struct {
	Table string          `json:"table"`
	Op    string          `json:"op"`
	New   json.RawMessage `json:"new,omitempty"`
	Old   json.RawMessage `json:"old,omitempty"`
}

// ParseOp acepta el vocabulario de los triggers (INSERT/UPDATE/DELETE) y el propio.
func ParseOp(s string) (Op, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INSERT", "CREATED":
		return OpCreated, nil
	case "UPDATE", "UPDATED":
		return OpUpdated, nil
	case "DELETE", "DELETED":
		return OpDeleted, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOp, s)
	}
}

func (o Op) wire() (string, error) {
	switch o {
	case OpCreated:
		return "INSERT", nil
	case OpUpdated:
		return "UPDATE", nil
	case OpDeleted:
		return "DELETE", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOp, string(o))
	}
}

// Decode interpreta un payload {"table","op","new","old"}.
func Decode(payload []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(payload, &w); err != nil {
		return Event{}, fmt.Errorf("decode change event: %w", err)
	}
	if strings.TrimSpace(w.Table) == "" {
		return Event{}, ErrNoTable
	}
	op, err := ParseOp(w.Op)
	if err != nil {
		return Event{}, err
	}
	ev := Event{Table: w.Table, Op: op}
	if !isEmpty(w.New) {
		ev.New = w.New
	}
	if !isEmpty(w.Old) {
		ev.Old = w.Old
	}
	return ev, nil
}

func Encode(ev Event) ([]byte, error) {
	if strings.TrimSpace(ev.Table) == "" {
		return nil, ErrNoTable
	}
	op, err := ev.Op.wire()
	if err != nil {
		return nil, err
	}
	w := wireEvent{Table: ev.Table, Op: op}
	if !isEmpty(ev.New) {
		w.New = ev.New
	}
	if !isEmpty(ev.Old) {
		w.Old = ev.Old
	}
	return json.Marshal(w)
}

// NewEvent arma un evento serializando los registros dados; nil se omite.
func NewEvent(table string, op Op, newRecord, oldRecord any) (Event, error) {
	ev := Event{Table: table, Op: op}
	if newRecord != nil {
		raw, err := json.Marshal(newRecord)
		if err != nil {
			return Event{}, err
		}
		ev.New = raw
	}
	if oldRecord != nil {
		raw, err := json.Marshal(oldRecord)
		if err != nil {
			return Event{}, err
		}
		ev.Old = raw
	}
	return ev, nil
}

// Deliver decodifica payload y lo entrega si pertenece a sub. Devuelve false
// solo si el stream se cerró; los payloads inválidos se descartan con un aviso.
func Deliver(payload []byte, sub Subscription, send SendFunc, logger *zap.Logger) bool {
	ev, err := Decode(payload)
	if err != nil {
		logger.Warn("bad change feed payload", zap.Error(err))
		return true
	}
	if !sub.Matches(ev) {
		return true
	}
	return send(ev)
}
