// Package producer is the surface application code uses to emit domain events.
//
// Each event type has a payload struct; the Emitter wraps it in the metadata
// envelope and hands it to the queue. Emitting never blocks and never returns
// telemetry errors to the caller.
package producer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/domain"
)

// Enqueuer accepts events for delivery
type Enqueuer interface {
	Enqueue(event domain.Event)
}

// Config holds the envelope values shared by every event of a process
type Config struct {
	Environment string
	Source      string
	SessionID   string
}

// Emitter builds events and enqueues them
type Emitter struct {
	queue   Enqueuer
	config  Config
	actorID string
	clock   func() time.Time
	newID   func() string
	log     *zap.Logger
}

// Option customizes an Emitter
type Option func(*Emitter)

// WithClock overrides the time source of ProducedAt
func WithClock(clock func() time.Time) Option {
	return func(e *Emitter) {
		e.clock = clock
	}
}

// WithIDGenerator overrides event ID generation
func WithIDGenerator(newID func() string) Option {
	return func(e *Emitter) {
		e.newID = newID
	}
}

// NewEmitter creates an emitter. A missing session ID is generated.
func NewEmitter(queue Enqueuer, config Config, log *zap.Logger, opts ...Option) *Emitter {
	if config.SessionID == "" {
		config.SessionID = uuid.NewString()
	}

	e := &Emitter{
		queue:  queue,
		config: config,
		clock:  time.Now,
		newID:  uuid.NewString,
		log:    log,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// ForActor returns an emitter that stamps actorID on every event
func (e *Emitter) ForActor(actorID string) *Emitter {
	clone := *e
	clone.actorID = actorID
	return &clone
}

// Emit enqueues p and returns the event ID, or an empty string if p could not be encoded
func (e *Emitter) Emit(p Payload) string {
	payload, err := toMap(p)
	if err != nil {
		e.log.Error("Failed to encode event payload",
			zap.String("event_type", p.EventType()),
			zap.Error(err))
		return ""
	}

	event := domain.Event{
		ID:      e.newID(),
		Type:    p.EventType(),
		Payload: payload,
		Metadata: domain.Metadata{
			ProducedAt:  e.clock().UTC(),
			SessionID:   e.config.SessionID,
			ActorID:     e.actorID,
			Environment: e.config.Environment,
			Source:      e.config.Source,
		},
	}

	e.queue.Enqueue(event)
	return event.ID
}

func (e *Emitter) AppointmentScheduled(p AppointmentScheduled) string { return e.Emit(p) }
func (e *Emitter) AppointmentCancelled(p AppointmentCancelled) string { return e.Emit(p) }
func (e *Emitter) AppointmentCompleted(p AppointmentCompleted) string { return e.Emit(p) }
func (e *Emitter) LedgerAdjustment(p LedgerAdjustment) string         { return e.Emit(p) }
func (e *Emitter) LedgerRefund(p LedgerRefund) string                 { return e.Emit(p) }
func (e *Emitter) DiagnosisCreated(p DiagnosisCreated) string         { return e.Emit(p) }
func (e *Emitter) AdminRoleChanged(p AdminRoleChanged) string         { return e.Emit(p) }
func (e *Emitter) AdminSettingChanged(p AdminSettingChanged) string   { return e.Emit(p) }

// toMap converts a payload struct to its wire mapping
func toMap(p Payload) (map[string]any, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
