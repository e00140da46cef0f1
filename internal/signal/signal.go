// Package signal is a minimal observable value: the scroll-progress and
// viewport-size collaborators the background subscribes to.
package signal

import "sync"

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Signal holds the latest value and calls subscribers synchronously, in
// subscription order, on the goroutine that calls Set.
type Signal[T comparable] struct {
	mu    sync.Mutex
	value T
	subs  []subscriber[T]
	next  int
}

func New[T comparable](initial T) *Signal[T] {
	return &Signal[T]{value: initial}
}

func (s *Signal[T]) Value() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set stores v and notifies subscribers when it differs from the previous value.
func (s *Signal[T]) Set(v T) {
	s.mu.Lock()
	if v == s.value {
		s.mu.Unlock()
		return
	}
	s.value = v
	subs := append([]subscriber[T](nil), s.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(v)
	}
}

// Subscribe registers fn for future changes and returns its cancel function.
// Cancel is idempotent.
func (s *Signal[T]) Subscribe(fn func(T)) func() {
	s.mu.Lock()
	s.next++
	id := s.next
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Subscribers returns the number of live subscriptions.
func (s *Signal[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
