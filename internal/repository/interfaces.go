package repository

import (
	"context"
	"time"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/domain"
)

// DeadLetterCount is the number of archived dead letters of one event type
type DeadLetterCount struct {
	EventType string    `json:"event_type"`
	Count     uint64    `json:"count"`
	LastSeen  time.Time `json:"last_seen"`
}

// AuditRepository stores the registry audit trail and evicted stats windows
type AuditRepository interface {
	// InsertSchemaChanges appends registry mutation records
	InsertSchemaChanges(ctx context.Context, records []domain.SchemaChangeRecord) error

	// InsertValidationErrors appends rejected events with their payload snapshot
	InsertValidationErrors(ctx context.Context, records []domain.ValidationError) error

	// InsertStatsWindows appends windows that left the in-memory retention horizon
	InsertStatsWindows(ctx context.Context, windows []domain.StatsWindow) error
}

// DeadLetterRepository stores dead-lettered events drained from the dead-letter queue
type DeadLetterRepository interface {
	// InsertDeadLetters inserts a batch and returns how many rows were written
	InsertDeadLetters(ctx context.Context, letters []*domain.DeadLetter) (int, error)

	// CountDeadLetters groups dead letters archived since the given time by event type
	CountDeadLetters(ctx context.Context, since time.Time) ([]DeadLetterCount, error)
}

// Repository is the full storage surface of the telemetry archive
type Repository interface {
	AuditRepository
	DeadLetterRepository

	// InitSchema initializes the database schema (creates tables if they don't exist)
	InitSchema(ctx context.Context) error

	// Ping checks if the database connection is alive
	Ping(ctx context.Context) error

	// Close closes the repository and releases resources
	Close() error
}
