// Package metrics declara los contadores Prometheus del servicio.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RealtimeEventsApplied cuenta eventos del change feed aplicados a un store.
	RealtimeEventsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "youtrait",
		Subsystem: "realtime",
		Name:      "events_applied_total",
		Help:      "Change feed events applied to session stores.",
	}, []string{"table", "op"})

	// RealtimeEventsDropped cuenta eventos descartados por el adaptador.
	RealtimeEventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "youtrait",
		Subsystem: "realtime",
		Name:      "events_dropped_total",
		Help:      "Change feed events dropped by the adapter.",
	}, []string{"reason"})

	UIEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "youtrait",
		Subsystem: "ui",
		Name:      "events_total",
		Help:      "In-process UI events by outcome.",
	}, []string{"kind", "outcome"})

	FilterChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "youtrait",
		Subsystem: "filter",
		Name:      "checks_total",
		Help:      "Content filter checks by text type and result.",
	}, []string{"type", "result"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "youtrait",
		Name:      "active_sessions",
		Help:      "Application contexts currently held by the session registry.",
	})
)
