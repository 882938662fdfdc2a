package domain

import "time"

// Metadata is the fixed envelope every produced event carries
type Metadata struct {
	ProducedAt  time.Time `json:"produced_at" msgpack:"produced_at"`
	SessionID   string    `json:"session_id" msgpack:"session_id"`
	ActorID     string    `json:"actor_id,omitempty" msgpack:"actor_id,omitempty"`
	Environment string    `json:"environment" msgpack:"environment" example:"production"`
	Source      string    `json:"source" msgpack:"source" example:"front-desk"`
}

// Event is a structured domain occurrence. It is treated as immutable once produced.
type Event struct {
	ID       string         `json:"id" msgpack:"id" example:"2b1e0c3a-6f0e-4f5e-9b8e-3f7c2f1a9d10"`
	Type     string         `json:"type" msgpack:"type" example:"appointment.scheduled"`
	Payload  map[string]any `json:"payload" msgpack:"payload" swaggertype:"object"`
	Metadata Metadata       `json:"metadata" msgpack:"metadata"`
}

// QueuedEvent is an Event owned by the client queue until the transport acknowledges it
type QueuedEvent struct {
	Event         Event     `json:"event"`
	EnqueuedAt    time.Time `json:"enqueued_at"`
	AttemptCount  int       `json:"attempt_count"`
	LastAttemptAt time.Time `json:"last_attempt_at,omitempty"`
}

// DeadLetter is the terminal record of an event whose delivery attempts were exhausted
type DeadLetter struct {
	Event          Event     `json:"event"`
	Attempts       int       `json:"attempts"`
	LastError      string    `json:"last_error"`
	DeadLetteredAt time.Time `json:"dead_lettered_at"`
}
