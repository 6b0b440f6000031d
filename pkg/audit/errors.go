package audit

import "errors"

var (
	// ErrStorageNotAvailable indicates the storage backend is unavailable
	ErrStorageNotAvailable = errors.New("audit.storage_not_available")

	// ErrEventValidation indicates event validation failed
	ErrEventValidation = errors.New("audit.event_validation")

	// ErrBufferFull indicates the async queue is full and the event was dropped
	ErrBufferFull = errors.New("audit.buffer_full")

	// ErrSinkClosed is returned when an event arrives after Close
	ErrSinkClosed = errors.New("audit.sink_closed")
)
