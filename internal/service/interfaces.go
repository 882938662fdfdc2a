package service

import (
	"context"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/archive"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/domain"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/dto"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/registry"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/stats"
)

// EventServicer defines the interface for event ingestion and traffic reads
type EventServicer interface {
	Ingest(ctx context.Context, events []domain.Event) (*dto.PublishEventsResponse, error)
	EventStats() stats.Snapshot
	Health() domain.HealthStatus
	ArchiveStats() (archive.Stats, error)
}

// ArchiveStatsSource reports the audit archive counters
type ArchiveStatsSource interface {
	Stats() archive.Stats
}

// SchemaServicer defines the interface for schema registry reads and administration
type SchemaServicer interface {
	SchemaStats() dto.SchemaStatsResponse
	Changes(query dto.ListQuery) dto.SchemaChangesResponse
	ValidationStats() dto.ValidationStatsResponse
	ValidationErrors(query dto.ListQuery) dto.ValidationErrorsResponse
	SchemaType(eventType string) (*dto.SchemaTypeResponse, error)
	Register(eventType string, fields domain.FieldSpec) (domain.SchemaVersion, error)
	Evolve(eventType string, fields domain.FieldSpec) (domain.SchemaVersion, error)
	Deactivate(eventType string) (domain.SchemaVersion, error)
}

// SchemaRegistry is the registry surface the services depend on
type SchemaRegistry interface {
	Validate(event domain.Event) error
	Register(eventType string, fields domain.FieldSpec) (domain.SchemaVersion, error)
	Evolve(eventType string, fields domain.FieldSpec) (domain.SchemaVersion, error)
	Deactivate(eventType string) (domain.SchemaVersion, error)
	Active(eventType string) (domain.SchemaVersion, bool)
	Versions(eventType string) ([]domain.SchemaVersion, error)
	Changes() []domain.SchemaChangeRecord
	RecentErrors() []domain.ValidationError
	Stats() registry.Stats
}

// Aggregator is the stats surface the services depend on
type Aggregator interface {
	RecordAccepted(eventType string)
	RecordRejected(eventType string)
	Stats() stats.Snapshot
	Health() domain.HealthStatus
	Hourly() []domain.StatsWindow
}
