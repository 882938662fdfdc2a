package domain

import "time"

// Granularity is the width of an aggregation bucket
type Granularity string

const (
	GranularityMinute Granularity = "minute"
	GranularityHour   Granularity = "hour"
)

// Duration returns the bucket width
func (g Granularity) Duration() time.Duration {
	if g == GranularityHour {
		return time.Hour
	}
	return time.Minute
}

// WindowState is the lifecycle stage of a StatsWindow
type WindowState string

const (
	WindowOpen    WindowState = "open"
	WindowClosed  WindowState = "closed"
	WindowEvicted WindowState = "evicted"
)

// TypeCounts holds the counters of one event type inside a window
type TypeCounts struct {
	TotalCount int64 `json:"total_count"`
	ErrorCount int64 `json:"error_count"`
}

// StatsWindow is a point-in-time snapshot of one aggregation bucket
type StatsWindow struct {
	Granularity Granularity           `json:"granularity"`
	BucketStart time.Time             `json:"bucket_start"`
	TotalCount  int64                 `json:"total_count"`
	ErrorCount  int64                 `json:"error_count"`
	PerType     map[string]TypeCounts `json:"per_type,omitempty"`
	State       WindowState           `json:"state"`
}

// HealthState is the derived classification of recent traffic
type HealthState string

const (
	HealthHealthy HealthState = "healthy"
	HealthIdle    HealthState = "idle"
	HealthWarning HealthState = "warning"
	HealthError   HealthState = "error"
)

// HealthStatus is computed on read and never stored
type HealthStatus struct {
	Status          HealthState `json:"status"`
	IsHealthy       bool        `json:"is_healthy"`
	EventsPerMinute int64       `json:"events_per_minute"`
	LastHourEvents  int64       `json:"last_hour_events"`
	LastHourErrors  int64       `json:"last_hour_errors"`
	ErrorRate       float64     `json:"error_rate"`
}
