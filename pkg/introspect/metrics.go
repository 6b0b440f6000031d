package introspect

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels of the introspection counter.
const (
	OutcomeActive         = "active"
	OutcomeInvalidToken   = "invalid_token"
	OutcomeExpiredToken   = "expired_token"
	OutcomeBlacklisted    = "blacklisted"
	OutcomeSessionRevoked = "session_revoked"
	OutcomeUserNotFound   = "user_not_found"
	OutcomeUserInactive   = "user_inactive"
	OutcomeBackendError   = "backend_error"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "authengine",
	Subsystem: "introspect",
	Name:      "requests_total",
	Help:      "Token introspections by outcome.",
}, []string{"outcome"})
