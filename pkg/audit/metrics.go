package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	dropReasonInvalid    = "invalid"
	dropReasonBufferFull = "buffer_full"
	dropReasonClosed     = "closed"
)

var (
	eventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "authengine",
		Subsystem: "audit",
		Name:      "events_dropped_total",
		Help:      "Audit events discarded before reaching storage.",
	}, []string{"reason"})

	eventsStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "authengine",
		Subsystem: "audit",
		Name:      "events_stored_total",
		Help:      "Audit events handed to storage, by write outcome.",
	}, []string{"result"})
)
