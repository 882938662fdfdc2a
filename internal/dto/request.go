package dto

import (
	"github.com/DentaMind/SmartDentalAI-sub016/internal/domain"
)

// PublishEventsRequest is the body of POST /api/events: an ordered batch of events
type PublishEventsRequest []domain.Event

// SchemaFieldsRequest carries the field spec for registering or evolving a type
type SchemaFieldsRequest struct {
	Fields domain.FieldSpec `json:"fields" binding:"required"`
}

// ListQuery bounds list endpoints and optionally filters them by event type
type ListQuery struct {
	EventType string `form:"event_type" example:"appointment.scheduled"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=1000" example:"100"`
}
