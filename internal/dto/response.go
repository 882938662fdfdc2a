package dto

import (
	"time"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/domain"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message,omitempty" example:"batch exceeds the maximum batch size"`
}

// RejectedEvent is an event that failed validation and must not be retried
type RejectedEvent struct {
	ID     string `json:"id" example:"2b1e0c3a-6f0e-4f5e-9b8e-3f7c2f1a9d10"`
	Reason string `json:"reason" example:"schema v1: missing required field \"amount\""`
}

// PublishEventsResponse reports the per-event outcome of a batch.
// Duplicates are also listed in Accepted.
type PublishEventsResponse struct {
	Accepted   []string        `json:"accepted"`
	Rejected   []RejectedEvent `json:"rejected"`
	Duplicates []string        `json:"duplicates,omitempty"`
}

// SchemaStatsResponse is returned by GET /api/schema/stats
type SchemaStatsResponse struct {
	TotalEventTypes     int `json:"total_event_types" example:"12"`
	TotalSchemaVersions int `json:"total_schema_versions" example:"15"`
	EvolvedSchemas      int `json:"evolved_schemas" example:"2"`
	RecentChanges24h    int `json:"recent_changes_24h" example:"1"`
}

// SchemaChangesResponse lists registry mutations in the order they were applied
type SchemaChangesResponse struct {
	Changes []domain.SchemaChangeRecord `json:"changes"`
	Count   int                         `json:"count"`
}

// HourlyValidationStats is one hour bucket of validation outcomes
type HourlyValidationStats struct {
	Hour      time.Time `json:"hour"`
	Total     int64     `json:"total"`
	Failed    int64     `json:"failed"`
	ErrorRate float64   `json:"error_rate"`
}

// ValidationStatsResponse is returned by GET /api/schema/validation/stats
type ValidationStatsResponse struct {
	TotalValidations  int64                   `json:"total_validations" example:"1500"`
	FailedValidations int64                   `json:"failed_validations" example:"12"`
	ErrorRate         float64                 `json:"error_rate" example:"0.008"`
	HourlyStats       []HourlyValidationStats `json:"hourly_stats"`
}

// ValidationErrorsResponse lists recent validation errors, newest first
type ValidationErrorsResponse struct {
	Errors []domain.ValidationError `json:"errors"`
	Count  int                      `json:"count"`
}

// SchemaTypeResponse is the version history of one event type
type SchemaTypeResponse struct {
	EventType string                 `json:"event_type" example:"ledger.refund"`
	Active    *domain.SchemaVersion  `json:"active,omitempty"`
	Versions  []domain.SchemaVersion `json:"versions"`
}
