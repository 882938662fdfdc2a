// Package registry is the single source of truth for the shape of every event type.
//
// Each type owns an append-only history of schema versions of which at most one is
// active. Validation, first-seen registration and evolution of a type all run inside
// that type's critical section, so no caller ever observes a half-applied transition.
// Distinct types never contend on a shared lock once their history exists.
package registry

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/domain"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrTypeRetired       = errors.New("event type retired")
	ErrTypeNotRegistered = errors.New("event type not registered")
	ErrTypeExists        = errors.New("event type already registered")
	ErrInvalidTypeName   = errors.New("invalid event type name")
	ErrInvalidFieldSpec  = errors.New("invalid field spec")

	nameRegex = regexp.MustCompile(`^[\w-]+(\.[\w-]+)*$`)
)

func validateTypeName(n string) error {
	if n == "" {
		return fmt.Errorf("%w: missing type", ErrInvalidTypeName)
	}
	if !nameRegex.MatchString(n) {
		return fmt.Errorf("%w: %q has invalid characters", ErrInvalidTypeName, n)
	}
	return nil
}

// Archiver receives registry audit records. Implementations must not block.
type Archiver interface {
	ArchiveSchemaChange(record domain.SchemaChangeRecord)
	ArchiveValidationError(record domain.ValidationError)
}

// Config bounds the recent validation error log
type Config struct {
	MaxRecentErrors int
	ErrorRetention  time.Duration
}

// Stats summarizes the registry for GET /api/schema/stats
type Stats struct {
	TotalEventTypes     int `json:"total_event_types"`
	TotalSchemaVersions int `json:"total_schema_versions"`
	EvolvedSchemas      int `json:"evolved_schemas"`
	RecentChanges24h    int `json:"recent_changes_24h"`
}

type history struct {
	mu       sync.Mutex
	versions []domain.SchemaVersion
	// index of the active version in versions, -1 once retired
	active int
}

// Registry holds the schema history of every event type seen or declared
type Registry struct {
	mu    sync.RWMutex
	types map[string]*history

	changesMu sync.Mutex
	changes   []domain.SchemaChangeRecord

	errorsMu     sync.Mutex
	recentErrors []domain.ValidationError

	config   Config
	archiver Archiver
	clock    func() time.Time
	log      *zap.Logger
}

// Option customizes a Registry
type Option func(*Registry)

// WithArchiver forwards change records and validation errors to a
func WithArchiver(a Archiver) Option {
	return func(r *Registry) {
		r.archiver = a
	}
}

// WithClock overrides the time source
func WithClock(clock func() time.Time) Option {
	return func(r *Registry) {
		r.clock = clock
	}
}

// New creates an empty registry
func New(config Config, log *zap.Logger, opts ...Option) *Registry {
	if config.MaxRecentErrors <= 0 {
		config.MaxRecentErrors = 200
	}
	if config.ErrorRetention <= 0 {
		config.ErrorRetention = 24 * time.Hour
	}

	r := &Registry{
		types:  make(map[string]*history),
		config: config,
		clock:  time.Now,
		log:    log,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Registry) now() time.Time {
	return r.clock().UTC()
}

// lookup returns the history of a type, creating an empty one when create is set
func (r *Registry) lookup(eventType string, create bool) *history {
	r.mu.RLock()
	h, ok := r.types[eventType]
	r.mu.RUnlock()
	if ok || !create {
		return h
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok = r.types[eventType]; !ok {
		h = &history{active: -1}
		r.types[eventType] = h
	}
	return h
}

// Validate checks event against the active schema of its type.
//
// A type with no history is registered from the event's observed shape as version 1.
// Failures are recorded as ValidationErrors and returned wrapping ErrValidation;
// retired types additionally wrap ErrTypeRetired.
func (r *Registry) Validate(event domain.Event) error {
	if err := validateTypeName(event.Type); err != nil {
		return r.reject(event, err)
	}

	h := r.lookup(event.Type, true)

	var (
		registered *domain.SchemaChangeRecord
		failure    error
	)

	h.mu.Lock()
	switch {
	case len(h.versions) == 0:
		v := domain.SchemaVersion{
			EventType: event.Type,
			Version:   1,
			Fields:    ObservedSpec(event.Payload),
			Active:    true,
			CreatedAt: r.now(),
		}
		h.versions = append(h.versions, v)
		h.active = 0
		registered = r.recordChange(v.EventType, v.Version, domain.ChangeNew)
	case h.active < 0:
		failure = fmt.Errorf("%w: %s no longer accepts events", ErrTypeRetired, event.Type)
	default:
		active := h.versions[h.active]
		if err := Check(active.Fields, event.Payload); err != nil {
			failure = fmt.Errorf("schema v%d: %w", active.Version, err)
		}
	}
	h.mu.Unlock()

	if registered != nil {
		r.log.Info("Auto-registered event type",
			zap.String("event_type", event.Type),
			zap.Int("field_count", len(event.Payload)))
		r.archiveChange(*registered)
	}

	if failure != nil {
		return r.reject(event, failure)
	}
	return nil
}

func (r *Registry) reject(event domain.Event, cause error) error {
	payload := make(map[string]any, len(event.Payload))
	for k, v := range event.Payload {
		payload[k] = v
	}

	record := domain.ValidationError{
		EventID:          event.ID,
		EventType:        event.Type,
		Timestamp:        r.now(),
		ErrorMessage:     cause.Error(),
		OffendingPayload: payload,
	}

	r.errorsMu.Lock()
	r.recentErrors = append(r.recentErrors, record)
	if over := len(r.recentErrors) - r.config.MaxRecentErrors; over > 0 {
		r.recentErrors = append([]domain.ValidationError(nil), r.recentErrors[over:]...)
	}
	r.errorsMu.Unlock()

	if r.archiver != nil {
		r.archiver.ArchiveValidationError(record)
	}

	r.log.Debug("Event failed validation",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.Error(cause))

	return fmt.Errorf("%w: %w", ErrValidation, cause)
}

// recordChange appends to the audit trail. Callers hold the type's lock so that
// records of a single type are appended in mutation order.
func (r *Registry) recordChange(eventType string, version int, change domain.ChangeType) *domain.SchemaChangeRecord {
	record := domain.SchemaChangeRecord{
		EventType:  eventType,
		Version:    version,
		ChangeType: change,
		Timestamp:  r.now(),
	}

	r.changesMu.Lock()
	r.changes = append(r.changes, record)
	r.changesMu.Unlock()

	return &record
}

func (r *Registry) archiveChange(record domain.SchemaChangeRecord) {
	if r.archiver != nil {
		r.archiver.ArchiveSchemaChange(record)
	}
}

// Register declares version 1 of a type that has no history yet
func (r *Registry) Register(eventType string, fields domain.FieldSpec) (domain.SchemaVersion, error) {
	if err := validateTypeName(eventType); err != nil {
		return domain.SchemaVersion{}, err
	}
	if err := fields.Validate(); err != nil {
		return domain.SchemaVersion{}, fmt.Errorf("%w: %w", ErrInvalidFieldSpec, err)
	}

	h := r.lookup(eventType, true)

	h.mu.Lock()
	if len(h.versions) > 0 {
		h.mu.Unlock()
		return domain.SchemaVersion{}, fmt.Errorf("%w: %s", ErrTypeExists, eventType)
	}
	v := domain.SchemaVersion{
		EventType: eventType,
		Version:   1,
		Fields:    fields.Clone(),
		Active:    true,
		CreatedAt: r.now(),
	}
	h.versions = append(h.versions, v)
	h.active = 0
	record := r.recordChange(eventType, 1, domain.ChangeNew)
	h.mu.Unlock()

	r.archiveChange(*record)
	r.log.Info("Registered event type",
		zap.String("event_type", eventType),
		zap.Int("field_count", len(fields)))

	return cloneVersion(v), nil
}

// Evolve replaces the active schema of a type with a new version.
// Deactivating the prior version and activating the next happen as one step.
// Evolving a retired type brings it back with a fresh version number.
func (r *Registry) Evolve(eventType string, fields domain.FieldSpec) (domain.SchemaVersion, error) {
	if err := validateTypeName(eventType); err != nil {
		return domain.SchemaVersion{}, err
	}
	if err := fields.Validate(); err != nil {
		return domain.SchemaVersion{}, fmt.Errorf("%w: %w", ErrInvalidFieldSpec, err)
	}

	h := r.lookup(eventType, false)
	if h == nil {
		return domain.SchemaVersion{}, fmt.Errorf("%w: %s", ErrTypeNotRegistered, eventType)
	}

	h.mu.Lock()
	if len(h.versions) == 0 {
		h.mu.Unlock()
		return domain.SchemaVersion{}, fmt.Errorf("%w: %s", ErrTypeNotRegistered, eventType)
	}

	prior := 0
	if h.active >= 0 {
		prior = h.versions[h.active].Version
		h.versions[h.active].Active = false
	}

	next := domain.SchemaVersion{
		EventType: eventType,
		Version:   h.versions[len(h.versions)-1].Version + 1,
		Fields:    fields.Clone(),
		Active:    true,
		CreatedAt: r.now(),
	}
	h.versions = append(h.versions, next)
	h.active = len(h.versions) - 1
	record := r.recordChange(eventType, next.Version, domain.ChangeUpdate)
	h.mu.Unlock()

	r.archiveChange(*record)
	r.log.Info("Evolved event schema",
		zap.String("event_type", eventType),
		zap.Int("from_version", prior),
		zap.Int("to_version", next.Version))

	return cloneVersion(next), nil
}

// Deactivate retires the active schema of a type without a replacement.
// Subsequent events of the type are rejected instead of being auto-registered.
func (r *Registry) Deactivate(eventType string) (domain.SchemaVersion, error) {
	h := r.lookup(eventType, false)
	if h == nil {
		return domain.SchemaVersion{}, fmt.Errorf("%w: %s", ErrTypeNotRegistered, eventType)
	}

	h.mu.Lock()
	if len(h.versions) == 0 {
		h.mu.Unlock()
		return domain.SchemaVersion{}, fmt.Errorf("%w: %s", ErrTypeNotRegistered, eventType)
	}
	if h.active < 0 {
		h.mu.Unlock()
		return domain.SchemaVersion{}, fmt.Errorf("%w: %s", ErrTypeRetired, eventType)
	}

	h.versions[h.active].Active = false
	retired := h.versions[h.active]
	h.active = -1
	record := r.recordChange(eventType, retired.Version, domain.ChangeDeactivate)
	h.mu.Unlock()

	r.archiveChange(*record)
	r.log.Info("Deactivated event type",
		zap.String("event_type", eventType),
		zap.Int("version", retired.Version))

	return cloneVersion(retired), nil
}

// Active returns the active schema of a type
func (r *Registry) Active(eventType string) (domain.SchemaVersion, bool) {
	h := r.lookup(eventType, false)
	if h == nil {
		return domain.SchemaVersion{}, false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active < 0 {
		return domain.SchemaVersion{}, false
	}
	return cloneVersion(h.versions[h.active]), true
}

// Versions returns the full history of a type, oldest first
func (r *Registry) Versions(eventType string) ([]domain.SchemaVersion, error) {
	h := r.lookup(eventType, false)
	if h == nil {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotRegistered, eventType)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.versions) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotRegistered, eventType)
	}

	out := make([]domain.SchemaVersion, len(h.versions))
	for i, v := range h.versions {
		out[i] = cloneVersion(v)
	}
	return out, nil
}

// Changes returns the audit trail in the order mutations were applied
func (r *Registry) Changes() []domain.SchemaChangeRecord {
	r.changesMu.Lock()
	defer r.changesMu.Unlock()

	out := make([]domain.SchemaChangeRecord, len(r.changes))
	copy(out, r.changes)
	return out
}

// RecentErrors returns retained validation errors, newest first
func (r *Registry) RecentErrors() []domain.ValidationError {
	cutoff := r.now().Add(-r.config.ErrorRetention)

	r.errorsMu.Lock()
	defer r.errorsMu.Unlock()

	out := make([]domain.ValidationError, 0, len(r.recentErrors))
	for i := len(r.recentErrors) - 1; i >= 0; i-- {
		e := r.recentErrors[i]
		if e.Timestamp.Before(cutoff) {
			break
		}
		out = append(out, e)
	}
	return out
}

// Stats summarizes registered types and recent schema activity
func (r *Registry) Stats() Stats {
	var s Stats

	r.mu.RLock()
	for _, h := range r.types {
		h.mu.Lock()
		n := len(h.versions)
		h.mu.Unlock()

		if n == 0 {
			continue
		}
		s.TotalEventTypes++
		s.TotalSchemaVersions += n
		if n > 1 {
			s.EvolvedSchemas++
		}
	}
	r.mu.RUnlock()

	cutoff := r.now().Add(-24 * time.Hour)
	r.changesMu.Lock()
	for i := len(r.changes) - 1; i >= 0; i-- {
		if r.changes[i].Timestamp.Before(cutoff) {
			break
		}
		s.RecentChanges24h++
	}
	r.changesMu.Unlock()

	return s
}

func cloneVersion(v domain.SchemaVersion) domain.SchemaVersion {
	v.Fields = v.Fields.Clone()
	return v
}
