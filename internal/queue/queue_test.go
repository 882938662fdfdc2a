package queue

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/domain"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/dto"
)

// MockSender is a mock implementation of Sender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, events []domain.Event) (*dto.PublishEventsResponse, error) {
	args := m.Called(ctx, events)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PublishEventsResponse), args.Error(1)
}

// MockDeadLetterSink is a mock implementation of DeadLetterSink
type MockDeadLetterSink struct {
	mock.Mock
}

func (m *MockDeadLetterSink) PublishDeadLetter(ctx context.Context, letter domain.DeadLetter) error {
	args := m.Called(ctx, letter)
	return args.Error(0)
}

// senderFunc adapts a function to Sender
type senderFunc func(ctx context.Context, events []domain.Event) (*dto.PublishEventsResponse, error)

func (f senderFunc) Send(ctx context.Context, events []domain.Event) (*dto.PublishEventsResponse, error) {
	return f(ctx, events)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func ev(id string) domain.Event {
	return domain.Event{ID: id, Type: "x", Payload: map[string]any{"a": "s"}}
}

func ids(events []domain.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func assertConserved(t *testing.T, s Stats) {
	t.Helper()
	assert.Equal(t, s.Enqueued, s.Accepted+s.Rejected+s.DeadLettered+s.Queued+s.Evicted+s.Cleared,
		"counters do not add up: %+v", s)
}

func TestQueue_Enqueue_EvictsOldestOverCapacity(t *testing.T) {
	sender := new(MockSender)
	q := New(sender, Config{Capacity: 1, BatchSize: 10}, zap.NewNop())

	q.Enqueue(ev("1"))
	q.Enqueue(ev("2"))

	assert.Equal(t, 1, q.Len())
	queued := q.QueuedEvents()
	require.Len(t, queued, 1)
	assert.Equal(t, "2", queued[0].Event.ID)

	stats := q.Stats()
	assert.Equal(t, int64(1), stats.Evicted)
	assertConserved(t, stats)
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestQueue_FlushNow_PartialRejection(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", mock.Anything, mock.MatchedBy(func(events []domain.Event) bool {
		return assert.ObjectsAreEqual([]string{"1", "2", "3"}, ids(events))
	})).Return(&dto.PublishEventsResponse{
		Accepted: []string{"1", "3"},
		Rejected: []dto.RejectedEvent{{ID: "2", Reason: `missing required field "b"`}},
	}, nil).Once()

	q := New(sender, Config{BatchSize: 10}, zap.NewNop())
	q.Enqueue(ev("1"))
	q.Enqueue(ev("2"))
	q.Enqueue(ev("3"))

	require.NoError(t, q.FlushNow(context.Background()))

	assert.Equal(t, 0, q.Len())
	stats := q.Stats()
	assert.Equal(t, int64(2), stats.Accepted)
	assert.Equal(t, int64(1), stats.Rejected)
	assertConserved(t, stats)

	// nothing left to retry
	require.NoError(t, q.FlushNow(context.Background()))
	sender.AssertExpectations(t)
}

func TestQueue_FlushNow_BatchSizeLimit(t *testing.T) {
	var batches [][]string
	sender := senderFunc(func(ctx context.Context, events []domain.Event) (*dto.PublishEventsResponse, error) {
		batches = append(batches, ids(events))
		return &dto.PublishEventsResponse{Accepted: ids(events)}, nil
	})

	q := New(sender, Config{BatchSize: 2}, zap.NewNop())
	for i := 1; i <= 5; i++ {
		q.Enqueue(ev(fmt.Sprint(i)))
	}

	for q.Len() > 0 {
		require.NoError(t, q.FlushNow(context.Background()))
	}

	assert.Equal(t, [][]string{{"1", "2"}, {"3", "4"}, {"5"}}, batches)
}

func TestQueue_TransportFailure_RetriesThenDeadLetters(t *testing.T) {
	clock := newClock()
	sendErr := errors.New("transport failure: unexpected status 503")

	sender := new(MockSender)
	sender.On("Send", mock.Anything, mock.Anything).Return(nil, sendErr)

	sink := new(MockDeadLetterSink)
	sink.On("PublishDeadLetter", mock.Anything, mock.MatchedBy(func(l domain.DeadLetter) bool {
		return l.Attempts == 3 && l.LastError == sendErr.Error()
	})).Return(nil).Twice()

	q := New(sender, Config{MaxAttempts: 3, InitialBackoff: time.Second, MaxBackoff: 10 * time.Second},
		zap.NewNop(), WithClock(clock.Now), WithDeadLetterSink(sink))
	q.Enqueue(ev("1"))
	q.Enqueue(ev("2"))

	err := q.FlushNow(context.Background())
	assert.ErrorIs(t, err, sendErr)

	queued := q.QueuedEvents()
	require.Len(t, queued, 2)
	assert.Equal(t, "1", queued[0].Event.ID, "failed batch stays at the front")
	assert.Equal(t, 1, queued[0].AttemptCount)
	assert.Equal(t, clock.Now(), queued[0].LastAttemptAt)

	// backing off: no attempt until the retry time passes
	require.NoError(t, q.FlushNow(context.Background()))
	sender.AssertNumberOfCalls(t, "Send", 1)

	for attempt := 2; attempt <= 3; attempt++ {
		clock.Advance(time.Minute)
		assert.Error(t, q.FlushNow(context.Background()))
	}

	assert.Equal(t, 0, q.Len())
	letters := q.DeadLetters()
	require.Len(t, letters, 2)
	assert.Equal(t, "1", letters[0].Event.ID)
	assert.Equal(t, 3, letters[0].Attempts)

	stats := q.Stats()
	assert.Equal(t, int64(2), stats.DeadLettered)
	assert.Equal(t, int64(3), stats.FailedFlushes)
	assertConserved(t, stats)
	sink.AssertExpectations(t)
}

func TestQueue_UndeliverableBatchIsDeadLetteredAtOnce(t *testing.T) {
	clock := newClock()
	refused := fmt.Errorf("transport failure: %w: status 413", ErrUndeliverable)

	sender := new(MockSender)
	sender.On("Send", mock.Anything, mock.MatchedBy(func(events []domain.Event) bool {
		return assert.ObjectsAreEqual([]string{"1", "2"}, ids(events))
	})).Return(nil, refused).Once()
	sender.On("Send", mock.Anything, mock.MatchedBy(func(events []domain.Event) bool {
		return assert.ObjectsAreEqual([]string{"3"}, ids(events))
	})).Return(&dto.PublishEventsResponse{Accepted: []string{"3"}}, nil).Once()

	sink := new(MockDeadLetterSink)
	sink.On("PublishDeadLetter", mock.Anything, mock.MatchedBy(func(l domain.DeadLetter) bool {
		return l.Attempts == 1 && l.LastError == refused.Error()
	})).Return(nil).Twice()

	q := New(sender, Config{BatchSize: 2, MaxAttempts: 5, InitialBackoff: time.Minute},
		zap.NewNop(), WithClock(clock.Now), WithDeadLetterSink(sink))
	q.Enqueue(ev("1"))
	q.Enqueue(ev("2"))
	q.Enqueue(ev("3"))

	err := q.FlushNow(context.Background())
	assert.ErrorIs(t, err, ErrUndeliverable)

	letters := q.DeadLetters()
	require.Len(t, letters, 2)
	assert.Equal(t, "1", letters[0].Event.ID)
	assert.Equal(t, 1, letters[0].Attempts)

	// no backoff after a refused batch, the next one goes out right away
	require.NoError(t, q.FlushNow(context.Background()))
	assert.Equal(t, 0, q.Len())

	stats := q.Stats()
	assert.Equal(t, int64(2), stats.DeadLettered)
	assert.Equal(t, int64(1), stats.FailedFlushes)
	assert.Equal(t, int64(1), stats.Accepted)
	assertConserved(t, stats)
	sender.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestQueue_UnacknowledgedEventsAreRetried(t *testing.T) {
	clock := newClock()

	sender := new(MockSender)
	sender.On("Send", mock.Anything, mock.Anything).Return(&dto.PublishEventsResponse{
		Accepted: []string{"1"},
	}, nil).Once()
	sender.On("Send", mock.Anything, mock.MatchedBy(func(events []domain.Event) bool {
		return assert.ObjectsAreEqual([]string{"2"}, ids(events))
	})).Return(&dto.PublishEventsResponse{
		Accepted:   []string{"2"},
		Duplicates: []string{"2"},
	}, nil).Once()

	q := New(sender, Config{}, zap.NewNop(), WithClock(clock.Now))
	q.Enqueue(ev("1"))
	q.Enqueue(ev("2"))

	require.NoError(t, q.FlushNow(context.Background()))

	queued := q.QueuedEvents()
	require.Len(t, queued, 1)
	assert.Equal(t, "2", queued[0].Event.ID)
	assert.Equal(t, 1, queued[0].AttemptCount)

	clock.Advance(time.Minute)
	require.NoError(t, q.FlushNow(context.Background()))

	assert.Equal(t, 0, q.Len())
	stats := q.Stats()
	assert.Equal(t, int64(2), stats.Accepted)
	assert.Equal(t, int64(1), stats.Duplicates)
	assertConserved(t, stats)
	sender.AssertExpectations(t)
}

func TestQueue_FlushCoalescesWhileInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	sender := new(MockSender)
	sender.On("Send", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			close(started)
			<-release
		}).
		Return(&dto.PublishEventsResponse{Accepted: []string{"1"}}, nil).Once()

	q := New(sender, Config{}, zap.NewNop())
	q.Enqueue(ev("1"))

	done := make(chan error, 1)
	go func() {
		done <- q.FlushNow(context.Background())
	}()

	<-started
	require.NoError(t, q.FlushNow(context.Background()))
	assert.Equal(t, int64(1), q.Stats().Coalesced)

	close(release)
	require.NoError(t, <-done)

	sender.AssertNumberOfCalls(t, "Send", 1)
	assert.Equal(t, 0, q.Len())
}

func TestQueue_EvictionDuringFlush(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	sender := senderFunc(func(ctx context.Context, events []domain.Event) (*dto.PublishEventsResponse, error) {
		close(started)
		<-release
		return &dto.PublishEventsResponse{Accepted: ids(events)}, nil
	})

	q := New(sender, Config{Capacity: 2}, zap.NewNop())
	q.Enqueue(ev("1"))
	q.Enqueue(ev("2"))

	done := make(chan error, 1)
	go func() {
		done <- q.FlushNow(context.Background())
	}()

	<-started
	q.Enqueue(ev("3"))
	close(release)
	require.NoError(t, <-done)

	queued := q.QueuedEvents()
	require.Len(t, queued, 1)
	assert.Equal(t, "3", queued[0].Event.ID)

	stats := q.Stats()
	assert.Equal(t, int64(1), stats.Evicted)
	assert.Equal(t, int64(1), stats.Accepted)
	assertConserved(t, stats)
}

func TestQueue_Conservation(t *testing.T) {
	clock := newClock()
	rng := rand.New(rand.NewSource(42))

	sender := senderFunc(func(ctx context.Context, events []domain.Event) (*dto.PublishEventsResponse, error) {
		if rng.Intn(4) == 0 {
			return nil, errors.New("connection reset")
		}
		result := &dto.PublishEventsResponse{}
		for _, e := range events {
			switch rng.Intn(5) {
			case 0:
				result.Rejected = append(result.Rejected, dto.RejectedEvent{ID: e.ID, Reason: "invalid"})
			case 1:
				// left unacknowledged
			default:
				result.Accepted = append(result.Accepted, e.ID)
			}
		}
		return result, nil
	})

	q := New(sender, Config{BatchSize: 7, Capacity: 20, MaxAttempts: 3}, zap.NewNop(), WithClock(clock.Now))

	next := 0
	for step := 0; step < 500; step++ {
		switch rng.Intn(10) {
		case 0:
			_ = q.FlushNow(context.Background())
		case 1:
			clock.Advance(time.Minute)
		case 2:
			if rng.Intn(10) == 0 {
				q.Clear()
			}
		default:
			next++
			q.Enqueue(ev(fmt.Sprint(next)))
		}
		assertConserved(t, q.Stats())
	}

	stats := q.Stats()
	assert.Equal(t, int64(next), stats.Enqueued)
	assert.LessOrEqual(t, stats.Queued, int64(20))
}

func TestQueue_Drain(t *testing.T) {
	var calls int
	sender := senderFunc(func(ctx context.Context, events []domain.Event) (*dto.PublishEventsResponse, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("timeout")
		}
		return &dto.PublishEventsResponse{Accepted: ids(events)}, nil
	})

	q := New(sender, Config{BatchSize: 2, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}, zap.NewNop())
	for i := 1; i <= 5; i++ {
		q.Enqueue(ev(fmt.Sprint(i)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, q.Drain(ctx))
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, int64(5), q.Stats().Accepted)
	assert.Equal(t, 4, calls)
}

func TestQueue_DrainStopsWithContext(t *testing.T) {
	sender := senderFunc(func(ctx context.Context, events []domain.Event) (*dto.PublishEventsResponse, error) {
		return nil, errors.New("unreachable")
	})

	q := New(sender, Config{MaxAttempts: 1000, InitialBackoff: 5 * time.Millisecond, MaxBackoff: 10 * time.Millisecond}, zap.NewNop())
	q.Enqueue(ev("1"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := q.Drain(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, q.Len())
}

func TestQueue_Start_FlushesOnSizeThreshold(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", mock.Anything, mock.Anything).
		Return(&dto.PublishEventsResponse{Accepted: []string{"1", "2"}}, nil).Once()

	q := New(sender, Config{BatchSize: 2, FlushInterval: time.Hour}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Start(ctx)

	q.Enqueue(ev("1"))
	q.Enqueue(ev("2"))

	assert.Eventually(t, func() bool { return q.Len() == 0 }, time.Second, 5*time.Millisecond)
	sender.AssertExpectations(t)
}

func TestQueue_Start_FlushesOnTimer(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", mock.Anything, mock.Anything).
		Return(&dto.PublishEventsResponse{Accepted: []string{"1"}}, nil).Once()

	q := New(sender, Config{FlushInterval: 10 * time.Millisecond}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Start(ctx)

	q.Enqueue(ev("1"))

	assert.Eventually(t, func() bool { return q.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestQueue_Start_RetriesWithGrowingBackoff(t *testing.T) {
	var (
		mu    sync.Mutex
		sends []time.Time
	)
	sender := senderFunc(func(ctx context.Context, events []domain.Event) (*dto.PublishEventsResponse, error) {
		mu.Lock()
		sends = append(sends, time.Now())
		mu.Unlock()
		return nil, errors.New("transport failure: unexpected status 503")
	})

	q := New(sender, Config{
		BatchSize:      1,
		MaxAttempts:    6,
		FlushInterval:  time.Hour,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     time.Second,
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Start(ctx)

	q.Enqueue(ev("1"))

	// the flush interval never elapses, so every retry comes from the backoff timer
	assert.Eventually(t, func() bool { return q.Stats().DeadLettered == 1 }, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, sends, 6)

	first := sends[1].Sub(sends[0])
	last := sends[5].Sub(sends[4])
	assert.Greater(t, last, first, "gaps between attempts should grow")
	assert.Equal(t, 0, q.Len())
}

func TestQueue_Clear(t *testing.T) {
	q := New(new(MockSender), Config{}, zap.NewNop())
	q.Enqueue(ev("1"))
	q.Enqueue(ev("2"))

	assert.Equal(t, 2, q.Clear())
	assert.Equal(t, 0, q.Len())

	stats := q.Stats()
	assert.Equal(t, int64(2), stats.Cleared)
	assertConserved(t, stats)
}
