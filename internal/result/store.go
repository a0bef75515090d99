package result

import (
	"errors"
	"fmt"
	"sync"

	"surveyforge/internal/model"
)

var (
	ErrStoreClosed       = errors.New("result store closed")
	ErrNoGenerationEntry = errors.New("component has no generation state")
	ErrStaleTransition   = errors.New("generation state cannot move backwards")
)

// Update is delivered to subscribers after every successful Set
type Update struct {
	ComponentID string
	State       model.GenerationState
	Done        bool
}

// Store holds the generation state of one presentation session. Only
// components that require generation have an entry; the rest render from
// config alone.
type Store struct {
	mu         sync.RWMutex
	components []Component
	states     map[string]model.GenerationState
	listeners  map[int]func(Update)
	nextSub    int
	closed     bool
}

// NewStore creates a store with an Idle entry for every generating component.
// components must already be ordered (see Prepare).
func NewStore(components []Component) *Store {
	s := &Store{
		components: components,
		states:     make(map[string]model.GenerationState),
		listeners:  make(map[int]func(Update)),
	}
	for _, c := range components {
		if c.RequiresGeneration() {
			s.states[c.ID] = model.Idle()
		}
	}
	return s
}

// Components returns the ordered component list
func (s *Store) Components() []Component {
	return s.components
}

// Get returns the state for id. ok is false for components rendered from
// config only.
func (s *Store) Get(id string) (model.GenerationState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[id]
	return st, ok
}

// Set applies a forward transition and notifies subscribers
func (s *Store) Set(id string, next model.GenerationState) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStoreClosed
	}
	cur, ok := s.states[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoGenerationEntry, id)
	}
	if !cur.Status.CanTransitionTo(next.Status) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s %s -> %s", ErrStaleTransition, id, cur.Status, next.Status)
	}
	s.states[id] = next
	done := s.doneLocked()

	listeners := make([]func(Update), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	u := Update{ComponentID: id, State: next, Done: done}
	for _, fn := range listeners {
		fn(u)
	}
	return nil
}

// Subscribe registers fn for state changes and returns its cancel func.
// fn runs on the writer's goroutine and must not block.
func (s *Store) Subscribe(fn func(Update)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// States returns a copy of every generation state
func (s *Store) States() map[string]model.GenerationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.GenerationState, len(s.states))
	for k, v := range s.states {
		out[k] = v
	}
	return out
}

// Done reports whether every generating component has reached a terminal state
func (s *Store) Done() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doneLocked()
}

func (s *Store) doneLocked() bool {
	for _, st := range s.states {
		if !st.Status.IsTerminal() {
			return false
		}
	}
	return true
}

// Snapshot renders every component in order
func (s *Store) Snapshot() []model.ViewModel {
	return RenderAll(s.components, s.States())
}

// Closed reports whether Close was called
func (s *Store) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Close discards the session. Later Sets fail with ErrStoreClosed and
// subscribers are dropped.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.listeners = make(map[int]func(Update))
	s.mu.Unlock()
}
