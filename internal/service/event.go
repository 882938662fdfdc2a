package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/archive"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/domain"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/dto"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/idempotency"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/stats"
)

// ErrUnavailable means the batch could not be processed and must be retried as a whole
var ErrUnavailable = errors.New("ingestion temporarily unavailable")

// ErrArchiveDisabled is returned by ArchiveStats when no audit archive is configured
var ErrArchiveDisabled = errors.New("audit archive disabled")

const reasonMissingID = "event id is required"

// EventService validates incoming batches and feeds the aggregator
type EventService struct {
	registry   SchemaRegistry
	aggregator Aggregator
	store      idempotency.Store
	failOpen   bool
	archive    ArchiveStatsSource
	log        *zap.Logger
}

// EventServiceOption customizes an EventService
type EventServiceOption func(*EventService)

// WithIdempotency drops events whose ID was already ingested. With failOpen,
// store errors let the event through instead of failing the batch.
func WithIdempotency(store idempotency.Store, failOpen bool) EventServiceOption {
	return func(s *EventService) {
		s.store = store
		s.failOpen = failOpen
	}
}

// WithArchiveStats exposes the audit archive counters through ArchiveStats
func WithArchiveStats(src ArchiveStatsSource) EventServiceOption {
	return func(s *EventService) {
		s.archive = src
	}
}

// NewEventService creates a new event service
func NewEventService(reg SchemaRegistry, aggregator Aggregator, log *zap.Logger, opts ...EventServiceOption) *EventService {
	s := &EventService{
		registry:   reg,
		aggregator: aggregator,
		log:        log,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Ingest processes a batch in order. Every event ends up either accepted or
// rejected; duplicates are acknowledged as accepted without being validated or
// counted again. An error means nothing after the failing event was processed
// and the caller should answer with a retryable status.
func (s *EventService) Ingest(ctx context.Context, events []domain.Event) (*dto.PublishEventsResponse, error) {
	resp := &dto.PublishEventsResponse{
		Accepted: make([]string, 0, len(events)),
		Rejected: make([]dto.RejectedEvent, 0),
	}

	for i := range events {
		event := &events[i]

		if event.ID == "" {
			s.aggregator.RecordRejected(event.Type)
			resp.Rejected = append(resp.Rejected, dto.RejectedEvent{ID: event.ID, Reason: reasonMissingID})
			continue
		}

		duplicate, err := s.seen(ctx, event.ID)
		if err != nil {
			return nil, err
		}
		if duplicate {
			resp.Accepted = append(resp.Accepted, event.ID)
			resp.Duplicates = append(resp.Duplicates, event.ID)
			continue
		}

		if err := s.registry.Validate(*event); err != nil {
			s.aggregator.RecordRejected(event.Type)
			resp.Rejected = append(resp.Rejected, dto.RejectedEvent{ID: event.ID, Reason: err.Error()})
			continue
		}

		s.aggregator.RecordAccepted(event.Type)
		resp.Accepted = append(resp.Accepted, event.ID)
	}

	s.log.Info("Batch ingested",
		zap.Int("event_count", len(events)),
		zap.Int("accepted", len(resp.Accepted)),
		zap.Int("rejected", len(resp.Rejected)),
		zap.Int("duplicates", len(resp.Duplicates)))

	return resp, nil
}

func (s *EventService) seen(ctx context.Context, id string) (bool, error) {
	if s.store == nil {
		return false, nil
	}

	seen, err := s.store.Seen(ctx, id)
	if err == nil {
		return seen, nil
	}

	if s.failOpen {
		s.log.Warn("Idempotency check failed, treating event as new",
			zap.String("event_id", id),
			zap.Error(err))
		return false, nil
	}
	return false, fmt.Errorf("%w: idempotency check failed: %w", ErrUnavailable, err)
}

// EventStats returns hourly volumes, the per-type distribution and the live rate
func (s *EventService) EventStats() stats.Snapshot {
	return s.aggregator.Stats()
}

// Health returns the derived health classification
func (s *EventService) Health() domain.HealthStatus {
	return s.aggregator.Health()
}

// ArchiveStats returns the audit archive counters
func (s *EventService) ArchiveStats() (archive.Stats, error) {
	if s.archive == nil {
		return archive.Stats{}, ErrArchiveDisabled
	}
	return s.archive.Stats(), nil
}
