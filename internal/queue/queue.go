// Package queue buffers produced events on the client and delivers them in
// batches through a Sender.
//
// Events stay in the queue until the Sender reports an outcome for them.
// Accepted and rejected events are removed; events that failed to deliver or
// were not acknowledged stay at the front and are retried with exponential
// backoff until MaxAttempts, after which they are dead-lettered. When the
// queue is full the oldest event is evicted so producers never block.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/domain"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/dto"
)

const (
	deadLetterPublishTimeout = 5 * time.Second
	drainPollInterval        = 10 * time.Millisecond

	reasonNotAcknowledged = "event not acknowledged by server"
)

// Config configures batching, capacity and retry
type Config struct {
	BatchSize       int
	Capacity        int
	MaxAttempts     int
	FlushInterval   time.Duration
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
	DeadLetterLimit int
}

func (c *Config) setDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.Capacity <= 0 {
		c.Capacity = 1000
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 5 * time.Second
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 500 * time.Millisecond
	}
	if c.MaxBackoff < c.InitialBackoff {
		c.MaxBackoff = 30 * time.Second
	}
	if c.DeadLetterLimit <= 0 {
		c.DeadLetterLimit = 500
	}
}

// Stats are the lifetime counters of a queue. Once no flush is in flight,
// Accepted+Rejected+DeadLettered+Queued+Evicted+Cleared equals Enqueued.
type Stats struct {
	Enqueued      int64 `json:"enqueued"`
	Accepted      int64 `json:"accepted"`
	Duplicates    int64 `json:"duplicates"`
	Rejected      int64 `json:"rejected"`
	DeadLettered  int64 `json:"dead_lettered"`
	Evicted       int64 `json:"evicted"`
	Cleared       int64 `json:"cleared"`
	Queued        int64 `json:"queued"`
	Flushes       int64 `json:"flushes"`
	FailedFlushes int64 `json:"failed_flushes"`
	Coalesced     int64 `json:"coalesced"`
}

// Queue is the client-side event buffer
type Queue struct {
	config Config
	sender Sender
	sink   DeadLetterSink
	clock  func() time.Time
	log    *zap.Logger

	mu          sync.Mutex
	pending     []*domain.QueuedEvent
	deadLetters []domain.DeadLetter
	flushing    bool
	rerun       bool
	retryAt     time.Time
	backoff     *backoff.ExponentialBackOff
	stats       Stats

	trigger chan struct{}
}

// Option customizes a Queue
type Option func(*Queue)

// WithDeadLetterSink forwards dead letters to sink in addition to the in-memory log
func WithDeadLetterSink(sink DeadLetterSink) Option {
	return func(q *Queue) {
		q.sink = sink
	}
}

// WithClock overrides the time source
func WithClock(clock func() time.Time) Option {
	return func(q *Queue) {
		q.clock = clock
	}
}

// New creates a queue delivering through sender
func New(sender Sender, config Config, log *zap.Logger, opts ...Option) *Queue {
	config.setDefaults()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = config.InitialBackoff
	b.MaxInterval = config.MaxBackoff
	b.Reset()

	q := &Queue{
		config:  config,
		sender:  sender,
		clock:   time.Now,
		log:     log,
		backoff: b,
		trigger: make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(q)
	}

	return q
}

func (q *Queue) now() time.Time {
	return q.clock().UTC()
}

// Enqueue appends an event. It never blocks and never fails; over capacity the
// oldest queued event is evicted and counted.
func (q *Queue) Enqueue(event domain.Event) {
	now := q.now()

	q.mu.Lock()
	q.stats.Enqueued++
	for len(q.pending) >= q.config.Capacity {
		evicted := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.stats.Evicted++

		q.log.Warn("Queue full, evicted oldest event",
			zap.String("event_id", evicted.Event.ID),
			zap.String("event_type", evicted.Event.Type),
			zap.Int("capacity", q.config.Capacity))
	}
	q.pending = append(q.pending, &domain.QueuedEvent{
		Event:      event,
		EnqueuedAt: now,
	})
	full := len(q.pending) >= q.config.BatchSize
	q.mu.Unlock()

	if full {
		q.Flush()
	}
}

// Flush requests an asynchronous flush from the loop run by Start.
// Requests made while one is already pending are merged.
func (q *Queue) Flush() {
	select {
	case q.trigger <- struct{}{}:
	default:
	}
}

// Start runs the flush loop until ctx is cancelled. Besides the flush
// interval, a failed delivery arms a timer for the backoff deadline.
func (q *Queue) Start(ctx context.Context) {
	ticker := time.NewTicker(q.config.FlushInterval)
	defer ticker.Stop()

	retry := time.NewTimer(time.Hour)
	retry.Stop()
	defer retry.Stop()

	run := func() {
		_ = q.flush(ctx, false)
		if wait, ok := q.retryDelay(); ok {
			retry.Reset(wait)
		}
	}

	q.log.Info("Event queue started",
		zap.Int("batch_size", q.config.BatchSize),
		zap.Int("capacity", q.config.Capacity),
		zap.Duration("flush_interval", q.config.FlushInterval))

	for {
		select {
		case <-ctx.Done():
			q.log.Info("Event queue loop stopping", zap.Int("queued", q.Len()))
			return
		case <-ticker.C:
			run()
		case <-q.trigger:
			run()
		case <-retry.C:
			run()
		}
	}
}

// retryDelay reports how long until a backed-off batch is due
func (q *Queue) retryDelay() (time.Duration, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 || q.retryAt.IsZero() {
		return 0, false
	}
	return max(q.retryAt.Sub(q.now()), drainPollInterval), true
}

// FlushNow performs one flush attempt synchronously. It returns immediately if a
// flush is already in flight or the queue is backing off after a failure.
func (q *Queue) FlushNow(ctx context.Context) error {
	return q.flush(ctx, false)
}

// Drain flushes until the queue is empty or ctx is done, honoring backoff
// between failed attempts. It is meant for graceful shutdown.
func (q *Queue) Drain(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("drain interrupted with %d events queued: %w", q.Len(), err)
		}

		q.mu.Lock()
		queued := len(q.pending)
		busy := q.flushing
		wait := q.retryAt.Sub(q.now())
		q.mu.Unlock()

		if queued == 0 && !busy {
			return nil
		}
		if busy {
			wait = drainPollInterval
		}
		if wait > 0 {
			if err := sleep(ctx, wait); err != nil {
				continue
			}
			if busy {
				continue
			}
		}

		_ = q.flush(ctx, true)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// flush sends the oldest batch and applies the outcome. Only one flush runs at a
// time; a request arriving meanwhile is coalesced into a follow-up trigger.
func (q *Queue) flush(ctx context.Context, ignoreBackoff bool) error {
	q.mu.Lock()
	if q.flushing {
		q.rerun = true
		q.stats.Coalesced++
		q.mu.Unlock()
		return nil
	}
	if len(q.pending) == 0 {
		q.mu.Unlock()
		return nil
	}
	now := q.now()
	if !ignoreBackoff && now.Before(q.retryAt) {
		q.mu.Unlock()
		return nil
	}

	n := min(q.config.BatchSize, len(q.pending))
	batch := make([]domain.Event, n)
	sent := make(map[*domain.QueuedEvent]struct{}, n)
	for i, qe := range q.pending[:n] {
		qe.AttemptCount++
		qe.LastAttemptAt = now
		batch[i] = qe.Event
		sent[qe] = struct{}{}
	}
	q.flushing = true
	q.stats.Flushes++
	q.mu.Unlock()

	result, err := q.sender.Send(ctx, batch)

	q.mu.Lock()
	q.flushing = false
	var (
		letters   []domain.DeadLetter
		discarded bool
	)
	switch {
	case errors.Is(err, ErrUndeliverable):
		q.stats.FailedFlushes++
		letters = q.discardLocked(sent, err.Error())
		discarded = true
	case err != nil:
		q.stats.FailedFlushes++
		letters = q.retryLocked(sent, err.Error())
	default:
		letters = q.settleLocked(sent, result)
	}
	rerun := (q.rerun || discarded) && len(q.pending) > 0
	q.rerun = false
	retryAt := q.retryAt
	q.mu.Unlock()

	q.publish(ctx, letters)

	if rerun {
		q.Flush()
	}

	if err != nil {
		q.log.Warn("Failed to deliver batch",
			zap.Error(err),
			zap.Int("event_count", n),
			zap.Int("dead_lettered", len(letters)),
			zap.Time("retry_at", retryAt))
		return fmt.Errorf("failed to deliver batch: %w", err)
	}
	return nil
}

// settleLocked removes accepted and rejected events of the sent batch. Sent events
// the server did not mention count as a failed attempt.
func (q *Queue) settleLocked(sent map[*domain.QueuedEvent]struct{}, result *dto.PublishEventsResponse) []domain.DeadLetter {
	if result == nil {
		result = &dto.PublishEventsResponse{}
	}

	accepted := make(map[string]struct{}, len(result.Accepted))
	for _, id := range result.Accepted {
		accepted[id] = struct{}{}
	}
	duplicates := make(map[string]struct{}, len(result.Duplicates))
	for _, id := range result.Duplicates {
		accepted[id] = struct{}{}
		duplicates[id] = struct{}{}
	}
	rejected := make(map[string]string, len(result.Rejected))
	for _, r := range result.Rejected {
		rejected[r.ID] = r.Reason
	}

	var (
		letters []domain.DeadLetter
		unacked int
	)
	kept := make([]*domain.QueuedEvent, 0, len(q.pending))
	for _, qe := range q.pending {
		if _, ok := sent[qe]; !ok {
			kept = append(kept, qe)
			continue
		}

		id := qe.Event.ID
		if _, ok := accepted[id]; ok {
			q.stats.Accepted++
			if _, dup := duplicates[id]; dup {
				q.stats.Duplicates++
			}
			continue
		}
		if reason, ok := rejected[id]; ok {
			q.stats.Rejected++
			q.log.Warn("Event rejected by server",
				zap.String("event_id", id),
				zap.String("event_type", qe.Event.Type),
				zap.String("reason", reason))
			continue
		}

		unacked++
		if letter, dead := q.exhaustedLocked(qe, reasonNotAcknowledged); dead {
			letters = append(letters, letter)
			continue
		}
		kept = append(kept, qe)
	}
	q.pending = kept

	if unacked > 0 {
		q.scheduleRetryLocked()
	} else {
		q.backoff.Reset()
		q.retryAt = time.Time{}
	}

	return letters
}

// retryLocked keeps the failed batch at the front of the queue and dead-letters
// the events that used up their attempts
func (q *Queue) retryLocked(sent map[*domain.QueuedEvent]struct{}, reason string) []domain.DeadLetter {
	var letters []domain.DeadLetter

	kept := make([]*domain.QueuedEvent, 0, len(q.pending))
	for _, qe := range q.pending {
		if _, ok := sent[qe]; ok {
			if letter, dead := q.exhaustedLocked(qe, reason); dead {
				letters = append(letters, letter)
				continue
			}
		}
		kept = append(kept, qe)
	}
	q.pending = kept
	q.scheduleRetryLocked()

	return letters
}

// discardLocked dead-letters the whole batch at once. Retrying a batch the
// server refused outright cannot succeed.
func (q *Queue) discardLocked(sent map[*domain.QueuedEvent]struct{}, reason string) []domain.DeadLetter {
	letters := make([]domain.DeadLetter, 0, len(sent))

	kept := make([]*domain.QueuedEvent, 0, len(q.pending))
	for _, qe := range q.pending {
		if _, ok := sent[qe]; ok {
			letters = append(letters, q.deadLetterLocked(qe, reason))
			continue
		}
		kept = append(kept, qe)
	}
	q.pending = kept
	q.backoff.Reset()
	q.retryAt = time.Time{}

	return letters
}

func (q *Queue) exhaustedLocked(qe *domain.QueuedEvent, reason string) (domain.DeadLetter, bool) {
	if qe.AttemptCount < q.config.MaxAttempts {
		return domain.DeadLetter{}, false
	}
	return q.deadLetterLocked(qe, reason), true
}

func (q *Queue) deadLetterLocked(qe *domain.QueuedEvent, reason string) domain.DeadLetter {
	letter := domain.DeadLetter{
		Event:          qe.Event,
		Attempts:       qe.AttemptCount,
		LastError:      reason,
		DeadLetteredAt: q.now(),
	}

	q.deadLetters = append(q.deadLetters, letter)
	if over := len(q.deadLetters) - q.config.DeadLetterLimit; over > 0 {
		q.deadLetters = append([]domain.DeadLetter(nil), q.deadLetters[over:]...)
	}
	q.stats.DeadLettered++

	q.log.Error("Event dead-lettered",
		zap.String("event_id", qe.Event.ID),
		zap.String("event_type", qe.Event.Type),
		zap.Int("attempts", qe.AttemptCount),
		zap.String("last_error", reason))

	return letter
}

func (q *Queue) scheduleRetryLocked() {
	q.retryAt = q.now().Add(q.backoff.NextBackOff())
}

func (q *Queue) publish(ctx context.Context, letters []domain.DeadLetter) {
	if q.sink == nil || len(letters) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deadLetterPublishTimeout)
	defer cancel()

	for _, letter := range letters {
		if err := q.sink.PublishDeadLetter(ctx, letter); err != nil {
			q.log.Error("Failed to publish dead letter",
				zap.String("event_id", letter.Event.ID),
				zap.Error(err))
		}
	}
}

// QueuedEvents returns a snapshot of the queued events, oldest first
func (q *Queue) QueuedEvents() []domain.QueuedEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]domain.QueuedEvent, len(q.pending))
	for i, qe := range q.pending {
		out[i] = *qe
	}
	return out
}

// Len returns the number of queued events
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Clear drops every queued event and returns how many were dropped
func (q *Queue) Clear() int {
	q.mu.Lock()
	n := len(q.pending)
	q.pending = nil
	q.stats.Cleared += int64(n)
	q.mu.Unlock()

	q.log.Info("Event queue cleared", zap.Int("cleared", n))
	return n
}

// DeadLetters returns the retained dead letters, oldest first
func (q *Queue) DeadLetters() []domain.DeadLetter {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]domain.DeadLetter, len(q.deadLetters))
	copy(out, q.deadLetters)
	return out
}

// Stats returns a snapshot of the queue counters
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := q.stats
	s.Queued = int64(len(q.pending))
	return s
}
