package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

var attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "authengine",
	Subsystem: "auth",
	Name:      "attempts_total",
	Help:      "Authentication attempts by strategy and result.",
}, []string{"strategy", "result"})
