// Package stats rolls accepted and rejected events into minute and hour buckets
// and derives the health classification read by the monitoring surface.
package stats

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/domain"
)

// Archiver receives windows that fell past the retention horizon. Implementations must not block.
type Archiver interface {
	ArchiveStatsWindow(window domain.StatsWindow)
}

// Config holds retention and the health thresholds
type Config struct {
	MinuteRetention time.Duration
	HourRetention   time.Duration
	// WarningErrorRate is the highest last-hour error ratio still classified as warning
	WarningErrorRate float64
	// ExpectTraffic classifies a silent hour as error instead of idle
	ExpectTraffic bool
}

// TypeShare is the volume of one event type across the retained hours
type TypeShare struct {
	EventType  string  `json:"event_type"`
	TotalCount int64   `json:"total_count"`
	ErrorCount int64   `json:"error_count"`
	Percentage float64 `json:"percentage"`
}

// Snapshot is the payload of GET /api/events/stats
type Snapshot struct {
	GeneratedAt     time.Time            `json:"generated_at"`
	EventsPerMinute int64                `json:"events_per_minute"`
	TotalEvents     int64                `json:"total_events"`
	TotalErrors     int64                `json:"total_errors"`
	HourlyVolumes   []domain.StatsWindow `json:"hourly_volumes"`
	Distribution    []TypeShare          `json:"distribution"`
}

// Aggregator maintains the rolling counters
type Aggregator struct {
	minutes  *series
	hours    *series
	config   Config
	archiver Archiver
	clock    func() time.Time
	log      *zap.Logger
}

// Option customizes an Aggregator
type Option func(*Aggregator)

// WithArchiver forwards evicted windows to a
func WithArchiver(a Archiver) Option {
	return func(agg *Aggregator) {
		agg.archiver = a
	}
}

// WithClock overrides the time source
func WithClock(clock func() time.Time) Option {
	return func(agg *Aggregator) {
		agg.clock = clock
	}
}

// NewAggregator creates an aggregator with empty series
func NewAggregator(config Config, log *zap.Logger, opts ...Option) *Aggregator {
	if config.MinuteRetention < time.Hour {
		config.MinuteRetention = time.Hour
	}
	if config.HourRetention < time.Hour {
		config.HourRetention = 24 * time.Hour
	}

	a := &Aggregator{
		minutes: newSeries(domain.GranularityMinute, config.MinuteRetention),
		hours:   newSeries(domain.GranularityHour, config.HourRetention),
		config:  config,
		clock:   time.Now,
		log:     log,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

func (a *Aggregator) now() time.Time {
	return a.clock().UTC()
}

// RecordAccepted counts an event that passed validation
func (a *Aggregator) RecordAccepted(eventType string) {
	a.record(eventType, false)
}

// RecordRejected counts an event that failed validation. It adds to both the
// total and the error counters of its buckets.
func (a *Aggregator) RecordRejected(eventType string) {
	a.record(eventType, true)
}

func (a *Aggregator) record(eventType string, failed bool) {
	now := a.now()
	for _, s := range []*series{a.minutes, a.hours} {
		w, evicted := s.at(now)
		if w != nil {
			w.record(eventType, failed)
		}
		a.archive(evicted)
	}
}

// refresh applies lazy eviction before a read
func (a *Aggregator) refresh(now time.Time) {
	a.archive(a.minutes.expire(now))
	a.archive(a.hours.expire(now))
}

func (a *Aggregator) archive(windows []domain.StatsWindow) {
	if len(windows) == 0 {
		return
	}

	a.log.Debug("Evicted stats windows",
		zap.String("granularity", string(windows[0].Granularity)),
		zap.Int("count", len(windows)))

	if a.archiver == nil {
		return
	}
	for _, w := range windows {
		a.archiver.ArchiveStatsWindow(w)
	}
}

// Hourly returns the retained hour windows, oldest first
func (a *Aggregator) Hourly() []domain.StatsWindow {
	now := a.now()
	a.refresh(now)
	return a.hours.since(time.Time{}, now)
}

// Stats returns hourly volumes, the per-type distribution and the live rate
func (a *Aggregator) Stats() Snapshot {
	now := a.now()
	a.refresh(now)

	snap := Snapshot{
		GeneratedAt:     now,
		EventsPerMinute: a.eventsPerMinute(now),
		HourlyVolumes:   a.hours.since(time.Time{}, now),
	}

	byType := make(map[string]*TypeShare)
	for _, w := range snap.HourlyVolumes {
		snap.TotalEvents += w.TotalCount
		snap.TotalErrors += w.ErrorCount
		for t, c := range w.PerType {
			share, ok := byType[t]
			if !ok {
				share = &TypeShare{EventType: t}
				byType[t] = share
			}
			share.TotalCount += c.TotalCount
			share.ErrorCount += c.ErrorCount
		}
	}

	snap.Distribution = make([]TypeShare, 0, len(byType))
	for _, share := range byType {
		if snap.TotalEvents > 0 {
			share.Percentage = float64(share.TotalCount) / float64(snap.TotalEvents) * 100
		}
		snap.Distribution = append(snap.Distribution, *share)
	}
	sort.Slice(snap.Distribution, func(i, j int) bool {
		if snap.Distribution[i].TotalCount != snap.Distribution[j].TotalCount {
			return snap.Distribution[i].TotalCount > snap.Distribution[j].TotalCount
		}
		return snap.Distribution[i].EventType < snap.Distribution[j].EventType
	})

	return snap
}

func (a *Aggregator) eventsPerMinute(now time.Time) int64 {
	current := a.minutes.bucket(now)
	windows := a.minutes.since(current, now)
	if len(windows) == 0 {
		return 0
	}
	return windows[0].TotalCount
}

// Health classifies the trailing sixty minute windows
func (a *Aggregator) Health() domain.HealthStatus {
	now := a.now()
	a.refresh(now)

	from := a.minutes.bucket(now).Add(-59 * time.Minute)

	status := domain.HealthStatus{
		EventsPerMinute: a.eventsPerMinute(now),
	}
	for _, w := range a.minutes.since(from, now) {
		status.LastHourEvents += w.TotalCount
		status.LastHourErrors += w.ErrorCount
	}
	if status.LastHourEvents > 0 {
		status.ErrorRate = float64(status.LastHourErrors) / float64(status.LastHourEvents)
	}

	status.Status = a.classify(status)
	status.IsHealthy = status.Status == domain.HealthHealthy

	return status
}

func (a *Aggregator) classify(s domain.HealthStatus) domain.HealthState {
	switch {
	case s.LastHourEvents == 0 && a.config.ExpectTraffic:
		return domain.HealthError
	case s.LastHourEvents == 0:
		return domain.HealthIdle
	case s.LastHourErrors == 0:
		return domain.HealthHealthy
	case s.ErrorRate <= a.config.WarningErrorRate:
		return domain.HealthWarning
	default:
		return domain.HealthError
	}
}
