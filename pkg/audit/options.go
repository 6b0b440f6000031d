package audit

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Option configures an AsyncSink.
type Option func(*AsyncSink)

// WithBufferSize sets the queue capacity. Non-positive values are ignored.
func WithBufferSize(n int) Option {
	return func(s *AsyncSink) {
		if n > 0 {
			s.bufferSize = n
		}
	}
}

// WithBatchSize sets the target number of events per storage write.
func WithBatchSize(n int) Option {
	return func(s *AsyncSink) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithBatchTimeout sets how long a partial batch may wait before it is flushed.
func WithBatchTimeout(d time.Duration) Option {
	return func(s *AsyncSink) {
		if d > 0 {
			s.batchTimeout = d
		}
	}
}

// WithStorageTimeout bounds every StoreBatch call.
func WithStorageTimeout(d time.Duration) Option {
	return func(s *AsyncSink) {
		if d > 0 {
			s.storageTimeout = d
		}
	}
}

// WithLogger sets the logger used to report dropped events and storage failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *AsyncSink) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetadataFilter replaces the default metadata filter.
func WithMetadataFilter(f *MetadataFilter) Option {
	return func(s *AsyncSink) {
		s.filter = f
	}
}

// WithIDGenerator overrides how event ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(s *AsyncSink) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithClock overrides the time source used for CreatedAt.
func WithClock(fn func() time.Time) Option {
	return func(s *AsyncSink) {
		if fn != nil {
			s.now = fn
		}
	}
}

// FromConfig applies all Config values at once.
func FromConfig(cfg Config) Option {
	return func(s *AsyncSink) {
		WithBufferSize(cfg.BufferSize)(s)
		WithBatchSize(cfg.BatchSize)(s)
		WithBatchTimeout(cfg.BatchTimeout)(s)
		WithStorageTimeout(cfg.StorageTimeout)(s)
	}
}

func defaultID() string {
	return uuid.NewString()
}
