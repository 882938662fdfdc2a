package idempotency

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type entry struct {
	id      string
	expires time.Time
}

// MemoryStore is a bounded in-process Store. The oldest IDs are forgotten first
// once capacity is reached.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	order    *list.List
	index    map[string]*list.Element
	clock    func() time.Time
}

// NewMemoryStore creates a store holding at most capacity IDs for ttl each
func NewMemoryStore(ttl time.Duration, capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 100000
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryStore{
		ttl:      ttl,
		capacity: capacity,
		order:    list.New(),
		index:    make(map[string]*list.Element),
		clock:    time.Now,
	}
}

func (s *MemoryStore) Seen(_ context.Context, id string) (bool, error) {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked(now)

	if _, ok := s.index[id]; ok {
		return true, nil
	}

	for s.order.Len() >= s.capacity {
		s.removeLocked(s.order.Front())
	}
	s.index[id] = s.order.PushBack(&entry{id: id, expires: now.Add(s.ttl)})
	return false, nil
}

// expireLocked drops expired entries. Entries are kept in insertion order with a
// fixed TTL, so the front always expires first.
func (s *MemoryStore) expireLocked(now time.Time) {
	for e := s.order.Front(); e != nil; e = s.order.Front() {
		if now.Before(e.Value.(*entry).expires) {
			return
		}
		s.removeLocked(e)
	}
}

func (s *MemoryStore) removeLocked(e *list.Element) {
	delete(s.index, e.Value.(*entry).id)
	s.order.Remove(e)
}

// Len returns the number of remembered IDs
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

func (s *MemoryStore) Close() {}
