package flash

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const ttlDefault = 10 * time.Minute

type entry[T any] struct {
	value   T
	expires time.Time
}

// Store hands a value from one request to the next. Every value can be
// taken exactly once and is dropped after its TTL.
type Store[T any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]entry[T]
	now   func() time.Time
}

// New creates a store; a non-positive ttl falls back to 10 minutes.
func New[T any](ttl time.Duration) *Store[T] {
	if ttl <= 0 {
		ttl = ttlDefault
	}
	return &Store[T]{
		ttl:   ttl,
		items: make(map[string]entry[T]),
		now:   time.Now,
	}
}

// TTL returns how long a value stays available.
func (s *Store[T]) TTL() time.Duration {
	return s.ttl
}

// Put saves the value and returns its key.
func (s *Store[T]) Put(v T) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep()
	id := uuid.NewString()
	s.items[id] = entry[T]{value: v, expires: s.now().Add(s.ttl)}
	return id
}

// Take returns the value for the key and removes it.
func (s *Store[T]) Take(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if _, err := uuid.Parse(id); err != nil {
		return zero, false
	}

	e, ok := s.items[id]
	if !ok {
		return zero, false
	}
	delete(s.items, id)

	if !s.now().Before(e.expires) {
		return zero, false
	}
	return e.value, true
}

// Len returns the number of values not yet taken, expired ones excluded.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep()
	return len(s.items)
}

func (s *Store[T]) sweep() {
	now := s.now()
	for k, e := range s.items {
		if !now.Before(e.expires) {
			delete(s.items, k)
		}
	}
}
