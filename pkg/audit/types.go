package audit

import (
	"context"
	"fmt"
	"time"
)

// Result represents the outcome of an audited action
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
)

// Event represents a single audit log entry.
// Identifiers are kept as strings so storages don't depend on an id type.
type Event struct {
	ID           string         `json:"id" bson:"_id"`
	ActorID      string         `json:"actor_id,omitempty" bson:"actor_id,omitempty"`
	TargetUserID string         `json:"target_user_id,omitempty" bson:"target_user_id,omitempty"`
	TenantID     string         `json:"tenant_id,omitempty" bson:"tenant_id,omitempty"`
	SessionID    string         `json:"session_id,omitempty" bson:"session_id,omitempty"`
	Action       string         `json:"action" bson:"action"`
	Resource     string         `json:"resource" bson:"resource"`
	ResourceID   string         `json:"resource_id,omitempty" bson:"resource_id,omitempty"`
	Result       Result         `json:"result" bson:"status"`
	Error        string         `json:"error,omitempty" bson:"error,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty" bson:"metadata"`
	CreatedAt    time.Time      `json:"created_at" bson:"created_at"`
}

// Validate checks if the event has all required fields
func (e *Event) Validate() error {
	if e.Action == "" {
		return fmt.Errorf("%w: action is required", ErrEventValidation)
	}
	if e.Resource == "" {
		return fmt.Errorf("%w: resource is required", ErrEventValidation)
	}
	return nil
}

// Sink accepts audit events. Implementations must not block the caller on
// storage I/O and must not surface storage failures.
type Sink interface {
	Log(ctx context.Context, event Event)
}

// Storage persists batches of events.
// A batch is written atomically where the backend supports it.
type Storage interface {
	StoreBatch(ctx context.Context, events []Event) error
}

// Criteria narrows a Query over stored events.
type Criteria struct {
	TenantID     string
	ActorID      string
	TargetUserID string
	Action       string
	Resource     string
	StartTime    time.Time
	EndTime      time.Time
	Limit        int
	Offset       int
}

// Querier is implemented by storages that can read events back.
type Querier interface {
	Query(ctx context.Context, criteria Criteria) ([]Event, error)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Log(context.Context, Event) {}
