package audit_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authengine/pkg/audit"
)

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) StoreBatch(ctx context.Context, events []audit.Event) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

type recordingStorage struct {
	mu     sync.Mutex
	events []audit.Event
	calls  int
}

func (r *recordingStorage) StoreBatch(_ context.Context, events []audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.events = append(r.events, events...)
	return nil
}

func (r *recordingStorage) snapshot() []audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]audit.Event, len(r.events))
	copy(out, r.events)
	return out
}

func validEvent(action string) audit.Event {
	return audit.Event{
		ActorID:  "actor-1",
		TenantID: "tenant-1",
		Action:   action,
		Resource: "UserRole",
	}
}

func TestAsyncSink_FlushesOnClose(t *testing.T) {
	t.Parallel()

	storage := &recordingStorage{}
	sink := audit.NewAsyncSink(storage, audit.WithBatchTimeout(time.Hour), audit.WithBatchSize(1000))

	ctx := context.Background()
	for range 25 {
		sink.Log(ctx, validEvent("ROLE_ASSIGNED"))
	}

	require.NoError(t, sink.Close(ctx))
	assert.Len(t, storage.snapshot(), 25)
}

func TestAsyncSink_FlushesFullBatch(t *testing.T) {
	t.Parallel()

	storage := &recordingStorage{}
	sink := audit.NewAsyncSink(storage, audit.WithBatchSize(2), audit.WithBatchTimeout(time.Hour))
	t.Cleanup(func() { _ = sink.Close(context.Background()) })

	ctx := context.Background()
	require.NoError(t, sink.Enqueue(ctx, validEvent("ROLE_ASSIGNED")))
	require.NoError(t, sink.Enqueue(ctx, validEvent("ROLE_REMOVED")))

	assert.Eventually(t, func() bool {
		return len(storage.snapshot()) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestAsyncSink_FlushesOnTimeout(t *testing.T) {
	t.Parallel()

	storage := &recordingStorage{}
	sink := audit.NewAsyncSink(storage, audit.WithBatchSize(100), audit.WithBatchTimeout(20*time.Millisecond))
	t.Cleanup(func() { _ = sink.Close(context.Background()) })

	require.NoError(t, sink.Enqueue(context.Background(), validEvent("TENANT_CREATED")))

	assert.Eventually(t, func() bool {
		return len(storage.snapshot()) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestAsyncSink_FillsDefaults(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	storage := &recordingStorage{}
	sink := audit.NewAsyncSink(storage,
		audit.WithIDGenerator(func() string { return "evt-1" }),
		audit.WithClock(func() time.Time { return fixed }),
	)

	sink.Log(context.Background(), validEvent("ROLE_ASSIGNED"))
	require.NoError(t, sink.Close(context.Background()))

	events := storage.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, "evt-1", events[0].ID)
	assert.Equal(t, fixed, events[0].CreatedAt)
	assert.Equal(t, audit.ResultSuccess, events[0].Result)
}

func TestAsyncSink_RejectsInvalidEvent(t *testing.T) {
	t.Parallel()

	storage := &recordingStorage{}
	sink := audit.NewAsyncSink(storage)

	err := sink.Enqueue(context.Background(), audit.Event{Resource: "UserRole"})
	assert.ErrorIs(t, err, audit.ErrEventValidation)

	err = sink.Enqueue(context.Background(), audit.Event{Action: "ROLE_ASSIGNED"})
	assert.ErrorIs(t, err, audit.ErrEventValidation)

	require.NoError(t, sink.Close(context.Background()))
	assert.Empty(t, storage.snapshot())
}

func TestAsyncSink_DropsWhenQueueFull(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	storage := new(MockStorage)
	storage.On("StoreBatch", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			once.Do(func() { close(started) })
			<-release
		}).
		Return(nil)

	sink := audit.NewAsyncSink(storage, audit.WithBufferSize(1), audit.WithBatchSize(1))
	ctx := context.Background()

	// First event is picked up by the worker, which then blocks in storage.
	require.NoError(t, sink.Enqueue(ctx, validEvent("ROLE_ASSIGNED")))
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("worker did not start storing")
	}

	// Second event fills the one-slot queue, third has nowhere to go.
	require.NoError(t, sink.Enqueue(ctx, validEvent("ROLE_ASSIGNED")))
	err := sink.Enqueue(ctx, validEvent("ROLE_ASSIGNED"))
	assert.ErrorIs(t, err, audit.ErrBufferFull)

	close(release)
	require.NoError(t, sink.Close(ctx))
	storage.AssertNumberOfCalls(t, "StoreBatch", 2)
}

func TestAsyncSink_SwallowsStorageErrors(t *testing.T) {
	t.Parallel()

	storage := new(MockStorage)
	storage.On("StoreBatch", mock.Anything, mock.Anything).Return(errors.New("mongo down"))

	sink := audit.NewAsyncSink(storage, audit.WithBatchSize(1))
	ctx := context.Background()

	assert.NotPanics(t, func() {
		sink.Log(ctx, validEvent("ROLE_ASSIGNED"))
	})
	require.NoError(t, sink.Close(ctx))
	storage.AssertCalled(t, "StoreBatch", mock.Anything, mock.Anything)
}

func TestAsyncSink_RejectsAfterClose(t *testing.T) {
	t.Parallel()

	sink := audit.NewAsyncSink(&recordingStorage{})
	ctx := context.Background()
	require.NoError(t, sink.Close(ctx))

	err := sink.Enqueue(ctx, validEvent("ROLE_ASSIGNED"))
	assert.ErrorIs(t, err, audit.ErrSinkClosed)

	// Close is idempotent.
	require.NoError(t, sink.Close(ctx))
}

func TestAsyncSink_FiltersMetadata(t *testing.T) {
	t.Parallel()

	storage := &recordingStorage{}
	sink := audit.NewAsyncSink(storage)

	ev := validEvent("USER_STATUS_CHANGED")
	ev.Metadata = map[string]any{
		"password":  "hunter2",
		"role_name": "TENANT_ADMIN",
	}
	sink.Log(context.Background(), ev)
	require.NoError(t, sink.Close(context.Background()))

	events := storage.snapshot()
	require.Len(t, events, 1)
	assert.NotContains(t, events[0].Metadata, "password")
	assert.Equal(t, "TENANT_ADMIN", events[0].Metadata["role_name"])
	// The caller's map is left untouched.
	assert.Equal(t, "hunter2", ev.Metadata["password"])
}

func TestAsyncSink_ConcurrentLog(t *testing.T) {
	t.Parallel()

	storage := &recordingStorage{}
	sink := audit.NewAsyncSink(storage, audit.WithBufferSize(1000), audit.WithBatchSize(10))
	ctx := context.Background()

	const goroutines = 10
	const perGoroutine = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for range goroutines {
		go func() {
			defer wg.Done()
			for range perGoroutine {
				sink.Log(ctx, validEvent("ROLE_ASSIGNED"))
			}
		}()
	}
	wg.Wait()

	require.NoError(t, sink.Close(ctx))
	assert.Len(t, storage.snapshot(), goroutines*perGoroutine)
}

func TestAsyncSink_CloseHonoursContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	storage := new(MockStorage)
	storage.On("StoreBatch", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(nil)

	sink := audit.NewAsyncSink(storage, audit.WithBatchSize(1))
	sink.Log(context.Background(), validEvent("ROLE_ASSIGNED"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := sink.Close(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}
