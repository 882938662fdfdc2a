// Package archive batches registry audit records and evicted stats windows into
// the audit repository without blocking the ingestion path.
package archive

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/domain"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/repository"
)

const shutdownFlushTimeout = 10 * time.Second

// Config configures the archiver buffer and batching
type Config struct {
	BufferSize   int
	MaxBatchSize int
	FlushTimeout time.Duration
}

// Stats are the lifetime counters of an archiver
type Stats struct {
	Written int64 `json:"written"`
	Dropped int64 `json:"dropped"`
	Failed  int64 `json:"failed"`
}

type record struct {
	change *domain.SchemaChangeRecord
	error  *domain.ValidationError
	window *domain.StatsWindow
}

// Archiver buffers records and writes them in batches. When the buffer is full
// new records are dropped and counted.
type Archiver struct {
	repository repository.AuditRepository
	config     Config
	in         chan record
	log        *zap.Logger

	written atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewArchiver creates a new archiver
func NewArchiver(repo repository.AuditRepository, config Config, log *zap.Logger) *Archiver {
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}
	if config.MaxBatchSize <= 0 {
		config.MaxBatchSize = 200
	}
	if config.FlushTimeout <= 0 {
		config.FlushTimeout = 5 * time.Second
	}

	return &Archiver{
		repository: repo,
		config:     config,
		in:         make(chan record, config.BufferSize),
		log:        log,
	}
}

// ArchiveSchemaChange buffers a registry mutation record
func (a *Archiver) ArchiveSchemaChange(rec domain.SchemaChangeRecord) {
	a.offer(record{change: &rec})
}

// ArchiveValidationError buffers a rejected event
func (a *Archiver) ArchiveValidationError(rec domain.ValidationError) {
	a.offer(record{error: &rec})
}

// ArchiveStatsWindow buffers an evicted aggregation window
func (a *Archiver) ArchiveStatsWindow(w domain.StatsWindow) {
	a.offer(record{window: &w})
}

func (a *Archiver) offer(rec record) {
	select {
	case a.in <- rec:
	default:
		if n := a.dropped.Add(1); n == 1 || n%1000 == 0 {
			a.log.Warn("Archive buffer full, dropping records",
				zap.Int64("dropped_total", n),
				zap.Int("buffer_size", a.config.BufferSize))
		}
	}
}

// Start batches buffered records until ctx is cancelled, then writes what is left
func (a *Archiver) Start(ctx context.Context) {
	ticker := time.NewTicker(a.config.FlushTimeout)
	defer ticker.Stop()

	batch := make([]record, 0, a.config.MaxBatchSize)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("Archiver shutting down")
			batch = a.drainBuffered(batch)
			if len(batch) > 0 {
				a.log.Info("Flushing final archive batch", zap.Int("record_count", len(batch)))
				flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownFlushTimeout)
				a.processBatch(flushCtx, batch)
				cancel()
			}
			return

		case rec := <-a.in:
			batch = append(batch, rec)

			if len(batch) >= a.config.MaxBatchSize {
				a.processBatch(ctx, batch)
				batch = make([]record, 0, a.config.MaxBatchSize)
				ticker.Reset(a.config.FlushTimeout)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				a.log.Debug("Archive batch timeout reached", zap.Int("record_count", len(batch)))
				a.processBatch(ctx, batch)
				batch = make([]record, 0, a.config.MaxBatchSize)
			}
		}
	}
}

func (a *Archiver) drainBuffered(batch []record) []record {
	for {
		select {
		case rec := <-a.in:
			batch = append(batch, rec)
		default:
			return batch
		}
	}
}

// processBatch writes each record kind with its own insert. A failed insert
// drops that kind from the batch; the audit trail is best effort.
func (a *Archiver) processBatch(ctx context.Context, batch []record) {
	var (
		changes []domain.SchemaChangeRecord
		errs    []domain.ValidationError
		windows []domain.StatsWindow
	)
	for _, rec := range batch {
		switch {
		case rec.change != nil:
			changes = append(changes, *rec.change)
		case rec.error != nil:
			errs = append(errs, *rec.error)
		case rec.window != nil:
			windows = append(windows, *rec.window)
		}
	}

	a.write("schema_changes", len(changes), func() error {
		return a.repository.InsertSchemaChanges(ctx, changes)
	})
	a.write("validation_errors", len(errs), func() error {
		return a.repository.InsertValidationErrors(ctx, errs)
	})
	a.write("stats_windows", len(windows), func() error {
		return a.repository.InsertStatsWindows(ctx, windows)
	})
}

func (a *Archiver) write(table string, n int, insert func() error) {
	if n == 0 {
		return
	}

	if err := insert(); err != nil {
		a.failed.Add(int64(n))
		a.log.Error("Failed to archive records",
			zap.String("table", table),
			zap.Int("record_count", n),
			zap.Error(err))
		return
	}

	a.written.Add(int64(n))
	a.log.Debug("Archived records",
		zap.String("table", table),
		zap.Int("record_count", n))
}

// Stats returns the archiver counters
func (a *Archiver) Stats() Stats {
	return Stats{
		Written: a.written.Load(),
		Dropped: a.dropped.Load(),
		Failed:  a.failed.Load(),
	}
}
