package stats

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/domain"
)

type counter struct {
	total  atomic.Int64
	errors atomic.Int64
}

// window is one bucket of a series. Its counters are updated without holding the
// series lock; only rotation and eviction change the set of windows.
type window struct {
	start time.Time
	counter
	perType sync.Map // event type -> *counter
}

func (w *window) forType(eventType string) *counter {
	if c, ok := w.perType.Load(eventType); ok {
		return c.(*counter)
	}
	c, _ := w.perType.LoadOrStore(eventType, &counter{})
	return c.(*counter)
}

func (w *window) record(eventType string, failed bool) {
	c := w.forType(eventType)
	w.total.Add(1)
	c.total.Add(1)
	if failed {
		w.errors.Add(1)
		c.errors.Add(1)
	}
}

func (w *window) snapshot(g domain.Granularity, state domain.WindowState) domain.StatsWindow {
	s := domain.StatsWindow{
		Granularity: g,
		BucketStart: w.start,
		TotalCount:  w.total.Load(),
		ErrorCount:  w.errors.Load(),
		PerType:     make(map[string]domain.TypeCounts),
		State:       state,
	}
	w.perType.Range(func(k, v any) bool {
		c := v.(*counter)
		s.PerType[k.(string)] = domain.TypeCounts{
			TotalCount: c.total.Load(),
			ErrorCount: c.errors.Load(),
		}
		return true
	})
	return s
}

// series is the ordered list of retained windows of one granularity, oldest first
type series struct {
	granularity domain.Granularity
	retention   time.Duration

	mu      sync.RWMutex
	windows []*window
}

func newSeries(g domain.Granularity, retention time.Duration) *series {
	if retention < g.Duration() {
		retention = g.Duration()
	}
	return &series{granularity: g, retention: retention}
}

func (s *series) bucket(now time.Time) time.Time {
	return now.Truncate(s.granularity.Duration())
}

// at returns the window covering now, opening a new one when the boundary was
// crossed. Windows past the retention horizon are removed and returned.
func (s *series) at(now time.Time) (*window, []domain.StatsWindow) {
	start := s.bucket(now)

	s.mu.RLock()
	if n := len(s.windows); n > 0 && s.windows[n-1].start.Equal(start) {
		w := s.windows[n-1]
		s.mu.RUnlock()
		return w, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.windows)
	if n == 0 || s.windows[n-1].start.Before(start) {
		s.windows = append(s.windows, &window{start: start})
		return s.windows[len(s.windows)-1], s.evictLocked(now)
	}

	// now lies behind the newest window; count into its own bucket if still retained
	for i := n - 1; i >= 0; i-- {
		if s.windows[i].start.Equal(start) {
			return s.windows[i], nil
		}
	}
	return nil, nil
}

// expire removes windows past the retention horizon without opening a new one
func (s *series) expire(now time.Time) []domain.StatsWindow {
	horizon := s.horizon(now)

	s.mu.RLock()
	stale := len(s.windows) > 0 && s.windows[0].start.Before(horizon)
	s.mu.RUnlock()
	if !stale {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictLocked(now)
}

func (s *series) horizon(now time.Time) time.Time {
	return s.bucket(now).Add(-s.retention + s.granularity.Duration())
}

func (s *series) evictLocked(now time.Time) []domain.StatsWindow {
	horizon := s.horizon(now)

	cut := 0
	for cut < len(s.windows) && s.windows[cut].start.Before(horizon) {
		cut++
	}
	if cut == 0 {
		return nil
	}

	evicted := make([]domain.StatsWindow, 0, cut)
	for _, w := range s.windows[:cut] {
		evicted = append(evicted, w.snapshot(s.granularity, domain.WindowEvicted))
	}
	s.windows = append([]*window(nil), s.windows[cut:]...)
	return evicted
}

// since returns snapshots of the retained windows starting at or after from, oldest first
func (s *series) since(from, now time.Time) []domain.StatsWindow {
	current := s.bucket(now)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.StatsWindow, 0, len(s.windows))
	for _, w := range s.windows {
		if w.start.Before(from) {
			continue
		}
		state := domain.WindowClosed
		if w.start.Equal(current) {
			state = domain.WindowOpen
		}
		out = append(out, w.snapshot(s.granularity, state))
	}
	return out
}
