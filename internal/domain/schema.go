package domain

import (
	"fmt"
	"time"
)

// FieldKind is the JSON-level kind of a payload field
type FieldKind string

const (
	KindString  FieldKind = "string"
	KindNumber  FieldKind = "number"
	KindBoolean FieldKind = "boolean"
	KindObject  FieldKind = "object"
	KindArray   FieldKind = "array"
	KindAny     FieldKind = "any"
)

// Valid reports whether k is one of the declared kinds
func (k FieldKind) Valid() bool {
	switch k {
	case KindString, KindNumber, KindBoolean, KindObject, KindArray, KindAny:
		return true
	}
	return false
}

// KindOf classifies a decoded payload value. A nil value has no kind and ok is false.
func KindOf(v any) (kind FieldKind, ok bool) {
	switch v.(type) {
	case nil:
		return "", false
	case string:
		return KindString, true
	case bool:
		return KindBoolean, true
	case float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, interface{ Float64() (float64, error) }:
		return KindNumber, true
	case map[string]any:
		return KindObject, true
	case []any:
		return KindArray, true
	default:
		return KindAny, true
	}
}

// FieldRule constrains one payload field
type FieldRule struct {
	Required bool      `json:"required"`
	Kind     FieldKind `json:"kind"`
}

// FieldSpec maps field names to their rules
type FieldSpec map[string]FieldRule

// Validate checks that every rule declares a known kind
func (s FieldSpec) Validate() error {
	for name, rule := range s {
		if name == "" {
			return fmt.Errorf("field name must not be empty")
		}
		if !rule.Kind.Valid() {
			return fmt.Errorf("field %q has unknown kind %q", name, rule.Kind)
		}
	}
	return nil
}

// Clone returns an independent copy of the field spec
func (s FieldSpec) Clone() FieldSpec {
	out := make(FieldSpec, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// SchemaVersion is one entry of a type's append-only version history
type SchemaVersion struct {
	EventType string    `json:"event_type"`
	Version   int       `json:"version"`
	Fields    FieldSpec `json:"fields"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// ChangeType classifies a registry mutation
type ChangeType string

const (
	ChangeNew        ChangeType = "new"
	ChangeUpdate     ChangeType = "update"
	ChangeDeactivate ChangeType = "deactivate"
)

// SchemaChangeRecord is the audit entry written for every registry mutation
type SchemaChangeRecord struct {
	EventType  string     `json:"event_type"`
	Version    int        `json:"version"`
	ChangeType ChangeType `json:"change_type"`
	Timestamp  time.Time  `json:"timestamp"`
}

// ValidationError records an event that failed validation against its active schema
type ValidationError struct {
	EventID          string         `json:"event_id"`
	EventType        string         `json:"event_type"`
	Timestamp        time.Time      `json:"timestamp"`
	ErrorMessage     string         `json:"error_message"`
	OffendingPayload map[string]any `json:"offending_payload"`
}
