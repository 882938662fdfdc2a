package consumer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/domain"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/repository"
)

// BatchWriterConfig configures the batch writer
type BatchWriterConfig struct {
	MaxBatchSize int
	FlushTimeout time.Duration
}

// BatchWriter batches dead letters and writes them to the repository
type BatchWriter struct {
	repository repository.DeadLetterRepository
	config     BatchWriterConfig
	log        *zap.Logger
}

// NewBatchWriter creates a new batch writer
func NewBatchWriter(repo repository.DeadLetterRepository, config BatchWriterConfig, log *zap.Logger) *BatchWriter {
	if config.MaxBatchSize <= 0 {
		config.MaxBatchSize = 500
	}
	if config.FlushTimeout <= 0 {
		config.FlushTimeout = 10 * time.Second
	}
	return &BatchWriter{
		repository: repo,
		config:     config,
		log:        log,
	}
}

// Start begins processing envelopes, batching, and writing to the repository.
// The pending batch is flushed on shutdown with a fresh deadline.
func (w *BatchWriter) Start(ctx context.Context, in <-chan *Envelope) {
	ticker := time.NewTicker(w.config.FlushTimeout)
	defer ticker.Stop()

	batch := make([]*Envelope, 0, w.config.MaxBatchSize)

	flushFinal := func() {
		if len(batch) == 0 {
			return
		}
		w.log.Info("Flushing final batch", zap.Int("envelope_count", len(batch)))
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		w.processBatch(shutdownCtx, batch)
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Batch writer shutting down")
			flushFinal()
			return

		case envelope, ok := <-in:
			if !ok {
				w.log.Info("Batch writer input channel closed")
				flushFinal()
				return
			}

			batch = append(batch, envelope)

			if len(batch) >= w.config.MaxBatchSize {
				w.log.Info("Batch size threshold reached", zap.Int("batch_size", len(batch)))
				w.processBatch(ctx, batch)
				batch = make([]*Envelope, 0, w.config.MaxBatchSize)
				ticker.Reset(w.config.FlushTimeout)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.log.Info("Batch timeout reached", zap.Int("envelope_count", len(batch)))
				w.processBatch(ctx, batch)
				batch = make([]*Envelope, 0, w.config.MaxBatchSize)
			}
		}
	}
}

// processBatch inserts the batch and acks it only if every letter was written
func (w *BatchWriter) processBatch(ctx context.Context, envelopes []*Envelope) {
	if len(envelopes) == 0 {
		return
	}

	letters := make([]*domain.DeadLetter, len(envelopes))
	for i, env := range envelopes {
		letters[i] = env.Letter
	}

	insertedCount, err := w.repository.InsertDeadLetters(ctx, letters)
	if err != nil {
		w.log.Error("Failed to insert dead letters",
			zap.Error(err),
			zap.Int("letter_count", len(letters)))
		w.nackAll(ctx, envelopes)
		return
	}

	if insertedCount != len(letters) {
		w.log.Warn("Partial insert success",
			zap.Int("inserted", insertedCount),
			zap.Int("expected", len(letters)))
		w.nackAll(ctx, envelopes)
		return
	}

	w.log.Info("Archived dead letters", zap.Int("count", insertedCount))
	w.ackAll(ctx, envelopes)
}

// ackAll acknowledges all envelopes (deletes from SQS)
func (w *BatchWriter) ackAll(ctx context.Context, envelopes []*Envelope) {
	for _, env := range envelopes {
		if err := env.Ack(ctx); err != nil {
			w.log.Error("Failed to ack envelope",
				zap.String("event_id", env.Letter.Event.ID),
				zap.Error(err))
		}
	}
}

// nackAll negatively acknowledges all envelopes (leaves them in SQS for retry)
func (w *BatchWriter) nackAll(ctx context.Context, envelopes []*Envelope) {
	for _, env := range envelopes {
		if err := env.Nack(ctx); err != nil {
			w.log.Error("Failed to nack envelope",
				zap.String("event_id", env.Letter.Event.ID),
				zap.Error(err))
		}
	}
}
