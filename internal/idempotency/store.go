// Package idempotency remembers event IDs the ingestion service has already
// counted so that retried batches are acknowledged without being re-applied.
package idempotency

import "context"

// Store marks event IDs as seen
type Store interface {
	// Seen records id and reports whether it had already been recorded within the TTL
	Seen(ctx context.Context, id string) (bool, error)
	Close()
}
