// Package audit records security-relevant actions (role grants, tenant and
// user lifecycle changes) as structured events.
//
// Producers talk to a Sink. The Sink contract is fire-and-forget: Log never
// blocks the caller on I/O and never reports a failure back, so an audit
// outage cannot turn a successful operation into an error.
//
// # Architecture
//
//	┌────────────┐  Log   ┌────────────┐  batch  ┌─────────────┐
//	│  producer  │ ─────► │ AsyncSink  │ ──────► │   Storage   │
//	└────────────┘        └────────────┘         └─────────────┘
//	                       bounded queue          MongoStorage
//	                       single worker          LogStorage
//
// AsyncSink owns a bounded channel consumed by one worker goroutine. Events
// are grouped into batches by size or timeout and written with a per-batch
// storage timeout. When the queue is full the event is dropped and counted in
// the authengine_audit_events_dropped_total metric.
//
// Metadata is scrubbed by a MetadataFilter before it is queued, so secrets
// that slip into metadata (passwords, tokens, TOTP codes) never reach storage.
//
// # Usage
//
//	storage := audit.NewMongoStorage(db.Collection(cfg.Collection))
//	sink := audit.NewAsyncSink(storage,
//	    audit.WithBufferSize(cfg.BufferSize),
//	    audit.WithLogger(log),
//	)
//	defer sink.Close(ctx)
//
//	sink.Log(ctx, audit.Event{
//	    ActorID:  actor.ID.String(),
//	    TenantID: tenantID.String(),
//	    Action:   "ROLE_ASSIGNED",
//	    Resource: "UserRole",
//	})
package audit
