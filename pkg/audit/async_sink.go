package audit

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

// AsyncSink is a Sink backed by a bounded queue and a single worker goroutine
// that writes events to Storage in batches.
type AsyncSink struct {
	storage Storage
	filter  *MetadataFilter
	logger  *slog.Logger
	newID   func() string
	now     func() time.Time

	bufferSize     int
	batchSize      int
	batchTimeout   time.Duration
	storageTimeout time.Duration

	queue  chan Event
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

// NewAsyncSink starts the worker and returns the sink.
// Call Close during shutdown to flush queued events.
func NewAsyncSink(storage Storage, opts ...Option) *AsyncSink {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}

	s := &AsyncSink{
		storage:        storage,
		filter:         NewMetadataFilter(),
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:          defaultID,
		now:            time.Now,
		bufferSize:     1000,
		batchSize:      100,
		batchTimeout:   100 * time.Millisecond,
		storageTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.queue = make(chan Event, s.bufferSize)
	s.done = make(chan struct{})

	go s.worker()

	return s
}

// Log implements Sink. Failures are counted and logged, never returned.
func (s *AsyncSink) Log(ctx context.Context, event Event) {
	_ = s.Enqueue(ctx, event)
}

// Enqueue is Log with the drop reason exposed.
// It never blocks: a full queue drops the event with ErrBufferFull.
func (s *AsyncSink) Enqueue(ctx context.Context, event Event) error {
	if err := event.Validate(); err != nil {
		eventsDropped.WithLabelValues(dropReasonInvalid).Inc()
		s.logger.WarnContext(ctx, "audit event rejected", slog.Any("error", err))
		return err
	}

	if event.ID == "" {
		event.ID = s.newID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now().UTC()
	}
	if event.Result == "" {
		event.Result = ResultSuccess
	}
	if s.filter != nil {
		event.Metadata = s.filter.Filter(event.Metadata)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		eventsDropped.WithLabelValues(dropReasonClosed).Inc()
		return ErrSinkClosed
	}

	select {
	case s.queue <- event:
		return nil
	default:
		eventsDropped.WithLabelValues(dropReasonBufferFull).Inc()
		s.logger.WarnContext(ctx, "audit queue full, event dropped",
			slog.String("action", event.Action),
			slog.String("event_id", event.ID),
		)
		return ErrBufferFull
	}
}

func (s *AsyncSink) worker() {
	defer close(s.done)

	batch := make([]Event, 0, s.batchSize)
	ticker := time.NewTicker(s.batchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		// Storage writes are detached from request contexts; the request that
		// produced the event has usually finished by now.
		ctx, cancel := context.WithTimeout(context.Background(), s.storageTimeout)
		defer cancel()

		if err := s.storage.StoreBatch(ctx, batch); err != nil {
			eventsStored.WithLabelValues("error").Add(float64(len(batch)))
			s.logger.ErrorContext(ctx, "failed to store audit batch",
				slog.Int("size", len(batch)),
				slog.Any("error", err),
			)
		} else {
			eventsStored.WithLabelValues("ok").Add(float64(len(batch)))
		}

		batch = make([]Event, 0, s.batchSize)
	}

	for {
		select {
		case ev, ok := <-s.queue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, ev)
			if len(batch) >= s.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// Close stops accepting events and waits for the queue to drain.
// The context bounds the wait; events still queued when it expires may be lost.
func (s *AsyncSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
