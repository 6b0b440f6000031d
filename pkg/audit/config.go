package audit

import "time"

// Config holds the async sink and storage settings.
type Config struct {
	BufferSize     int           `env:"AUDIT_BUFFER_SIZE" envDefault:"1000"`      // Max events queued in memory before new ones are dropped.
	BatchSize      int           `env:"AUDIT_BATCH_SIZE" envDefault:"100"`        // Target events per storage write.
	BatchTimeout   time.Duration `env:"AUDIT_BATCH_TIMEOUT" envDefault:"100ms"`   // Max time a partial batch waits before flushing.
	StorageTimeout time.Duration `env:"AUDIT_STORAGE_TIMEOUT" envDefault:"5s"`    // Per-batch storage deadline.
	Collection     string        `env:"AUDIT_COLLECTION" envDefault:"audit_logs"` // MongoDB collection for audit events.
}
