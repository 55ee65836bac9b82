// Package memory is the in-process store: a mutex-guarded map of room
// aggregates plus a watcher fanout. It backs the poll transport in tests
// and single-node deployments, and doubles as the shared replica for the
// peer transport.
package memory

import (
	"context"
	"sync"

	"github.com/scythe504/partydeck-backend/internal"
	"github.com/scythe504/partydeck-backend/internal/store"
)

type watcher struct {
	id int
	fn func(*internal.GameState)
}

type event struct {
	code  string
	state *internal.GameState
}

type Store struct {
	mu       sync.RWMutex
	states   map[string]*internal.GameState
	watchers map[string][]watcher
	nextID   int

	// Watcher callbacks run on a single dispatcher goroutine, in commit
	// order, so a Put never invokes subscriber code while the writer
	// still holds its own locks.
	events chan event
	done   chan struct{}
}

func New() *Store {
	s := &Store{
		states:   make(map[string]*internal.GameState),
		watchers: make(map[string][]watcher),
		events:   make(chan event, 256),
		done:     make(chan struct{}),
	}
	go s.dispatchLoop()
	return s
}

// Close stops the watcher dispatcher. Pending events are dropped.
func (s *Store) Close() {
	close(s.done)
}

func (s *Store) dispatchLoop() {
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.events:
			s.mu.RLock()
			subs := append([]watcher(nil), s.watchers[ev.code]...)
			s.mu.RUnlock()
			for _, w := range subs {
				w.fn(ev.state.Clone())
			}
		}
	}
}

func (s *Store) Get(_ context.Context, code string) (*internal.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[code]
	if !ok {
		return nil, store.ErrNotFound
	}
	return st.Clone(), nil
}

func (s *Store) Put(_ context.Context, code string, state *internal.GameState) error {
	cp := state.Clone()
	s.mu.Lock()
	s.states[code] = cp
	s.mu.Unlock()

	select {
	case s.events <- event{code: code, state: cp}:
	case <-s.done:
	}
	return nil
}

func (s *Store) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, code)
	return nil
}

func (s *Store) Codes(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	codes := make([]string, 0, len(s.states))
	for code := range s.states {
		codes = append(codes, code)
	}
	return codes, nil
}

func (s *Store) Watch(code string, fn func(*internal.GameState)) (func(), error) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.watchers[code] = append(s.watchers[code], watcher{id: id, fn: fn})
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		subs := s.watchers[code]
		for i, w := range subs {
			if w.id == id {
				s.watchers[code] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(s.watchers[code]) == 0 {
			delete(s.watchers, code)
		}
	}
	return cancel, nil
}
