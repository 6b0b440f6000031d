package rbac

import (
	"log/slog"

	"github.com/dmitrymomot/authengine/pkg/audit"
)

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithAuditSink sets where role and tenant changes are reported.
func WithAuditSink(sink audit.Sink) ServiceOption {
	return func(s *Service) {
		if sink != nil {
			s.audit = sink
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
