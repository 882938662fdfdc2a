package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/domain"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/repository"
)

var schema = []struct {
	table string
	ddl   string
}{
	{
		table: "schema_changes",
		ddl: `
	CREATE TABLE IF NOT EXISTS schema_changes (
		event_type LowCardinality(String),
		version UInt32,
		change_type LowCardinality(String),
		timestamp DateTime64(3)
	) ENGINE = MergeTree
	ORDER BY (event_type, timestamp)
	`,
	},
	{
		table: "validation_errors",
		ddl: `
	CREATE TABLE IF NOT EXISTS validation_errors (
		event_id String,
		event_type LowCardinality(String),
		timestamp DateTime64(3),
		error_message String,
		offending_payload String
	) ENGINE = MergeTree
	ORDER BY (event_type, timestamp)
	PARTITION BY toYYYYMM(timestamp)
	TTL toDateTime(timestamp) + INTERVAL 90 DAY
	`,
	},
	{
		table: "stats_windows",
		ddl: `
	CREATE TABLE IF NOT EXISTS stats_windows (
		granularity LowCardinality(String),
		bucket_start DateTime,
		total_count Int64,
		error_count Int64,
		per_type String,
		archived_at DateTime64(3) DEFAULT now64(3)
	) ENGINE = ReplacingMergeTree(archived_at)
	ORDER BY (granularity, bucket_start)
	`,
	},
	{
		table: "dead_letters",
		ddl: `
	CREATE TABLE IF NOT EXISTS dead_letters (
		event_id String,
		event_type LowCardinality(String),
		payload String,
		metadata String,
		attempts UInt32,
		last_error String,
		dead_lettered_at DateTime64(3),
		archived_at DateTime64(3) DEFAULT now64(3),
		version UInt64
	) ENGINE = ReplacingMergeTree(version)
	PRIMARY KEY (event_id)
	ORDER BY (event_id)
	SETTINGS index_granularity = 8192
	`,
	},
}

// Repository implements repository.Repository for ClickHouse
type Repository struct {
	client *Client
	log    *zap.Logger
}

var _ repository.Repository = (*Repository)(nil)

// NewRepository creates a new ClickHouse repository
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

// InitSchema creates the archive tables
func (r *Repository) InitSchema(ctx context.Context) error {
	for _, t := range schema {
		if err := r.client.Conn().Exec(ctx, t.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.table, err)
		}
	}

	r.log.Info("ClickHouse schema initialized successfully", zap.Int("tables", len(schema)))
	return nil
}

// insert appends n rows to one prepared batch and sends it
func (r *Repository) insert(ctx context.Context, query string, n int, row func(batch driver.Batch, i int) error) error {
	if n == 0 {
		return nil
	}

	batch, err := r.client.Conn().PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for i := 0; i < n; i++ {
		if err := row(batch, i); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("failed to append row %d to batch: %w", i, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	return nil
}

// InsertSchemaChanges appends registry mutation records
func (r *Repository) InsertSchemaChanges(ctx context.Context, records []domain.SchemaChangeRecord) error {
	return r.insert(ctx, "INSERT INTO schema_changes", len(records), func(batch driver.Batch, i int) error {
		rec := records[i]
		return batch.Append(
			rec.EventType,
			uint32(rec.Version),
			string(rec.ChangeType),
			rec.Timestamp,
		)
	})
}

// InsertValidationErrors appends rejected events with their payload snapshot
func (r *Repository) InsertValidationErrors(ctx context.Context, records []domain.ValidationError) error {
	return r.insert(ctx, "INSERT INTO validation_errors", len(records), func(batch driver.Batch, i int) error {
		rec := records[i]
		payload, err := jsonString(rec.OffendingPayload)
		if err != nil {
			return err
		}
		return batch.Append(
			rec.EventID,
			rec.EventType,
			rec.Timestamp,
			rec.ErrorMessage,
			payload,
		)
	})
}

// InsertStatsWindows appends evicted aggregation windows
func (r *Repository) InsertStatsWindows(ctx context.Context, windows []domain.StatsWindow) error {
	query := "INSERT INTO stats_windows (granularity, bucket_start, total_count, error_count, per_type)"
	return r.insert(ctx, query, len(windows), func(batch driver.Batch, i int) error {
		w := windows[i]
		perType, err := jsonString(w.PerType)
		if err != nil {
			return err
		}
		return batch.Append(
			string(w.Granularity),
			w.BucketStart,
			w.TotalCount,
			w.ErrorCount,
			perType,
		)
	})
}

// InsertDeadLetters inserts drained dead letters. Redelivered messages collapse on event_id.
func (r *Repository) InsertDeadLetters(ctx context.Context, letters []*domain.DeadLetter) (int, error) {
	query := "INSERT INTO dead_letters (event_id, event_type, payload, metadata, attempts, last_error, dead_lettered_at, version)"
	err := r.insert(ctx, query, len(letters), func(batch driver.Batch, i int) error {
		letter := letters[i]

		payload, err := jsonString(letter.Event.Payload)
		if err != nil {
			return err
		}
		metadata, err := jsonString(letter.Event.Metadata)
		if err != nil {
			return err
		}

		return batch.Append(
			letter.Event.ID,
			letter.Event.Type,
			payload,
			metadata,
			uint32(letter.Attempts),
			letter.LastError,
			letter.DeadLetteredAt,
			uint64(time.Now().UnixNano()),
		)
	})
	if err != nil {
		return 0, err
	}
	return len(letters), nil
}

// CountDeadLetters groups dead letters archived since the given time by event type
func (r *Repository) CountDeadLetters(ctx context.Context, since time.Time) ([]repository.DeadLetterCount, error) {
	query := `
		SELECT
			event_type,
			count() AS total,
			max(dead_lettered_at) AS last_seen
		FROM dead_letters FINAL
		WHERE dead_lettered_at >= ?
		GROUP BY event_type
		ORDER BY total DESC
	`

	rows, err := r.client.Conn().Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query dead letter counts: %w", err)
	}
	defer func(rows driver.Rows) {
		if err := rows.Close(); err != nil {
			r.log.Error("Failed to close dead letter count rows", zap.Error(err))
		}
	}(rows)

	counts := []repository.DeadLetterCount{}
	for rows.Next() {
		var c repository.DeadLetterCount
		if err := rows.Scan(&c.EventType, &c.Count, &c.LastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan dead letter count row: %w", err)
		}
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dead letter count rows: %w", err)
	}

	return counts, nil
}

// Ping checks if the ClickHouse connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Conn().Ping(ctx)
}

// Close closes the ClickHouse connection
func (r *Repository) Close() error {
	return r.client.Close()
}

func jsonString(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode column: %w", err)
	}
	return string(b), nil
}
