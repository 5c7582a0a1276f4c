package state

import "sync"

// Store coordinates concurrent access to a ListState.
type Store[T Identifier] struct {
	mu    sync.RWMutex
	state ListState[T]
}

// Dispatch applies ev and returns a snapshot of the resulting state.
func (s *Store[T]) Dispatch(ev Event[T]) ListState[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Reduce(s.state, ev)
	return snapshot(s.state)
}

// DispatchIf applies ev only when ok reports true for the current state. The
// check and the transition happen under the same lock.
func (s *Store[T]) DispatchIf(ok func(ListState[T]) bool, ev Event[T]) (ListState[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !ok(s.state) {
		return snapshot(s.state), false
	}
	s.state = Reduce(s.state, ev)
	return snapshot(s.state), true
}

// Mutate edits every item with the given id in place. It returns false when
// no such item is loaded.
func (s *Store[T]) Mutate(id string, fn func(*T)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if indexOf(s.state.Items, id) < 0 {
		return false
	}
	s.state = Reduce[T](s.state, Mutated[T]{ID: id, Apply: fn})
	return true
}

// Lookup returns the first loaded item with the given id.
func (s *Store[T]) Lookup(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := indexOf(s.state.Items, id); i >= 0 {
		return s.state.Items[i], true
	}
	var zero T
	return zero, false
}

// Snapshot returns a copy of the current state.
func (s *Store[T]) Snapshot() ListState[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return snapshot(s.state)
}

func snapshot[T any](st ListState[T]) ListState[T] {
	st.Items = cloneItems(st.Items)
	return st
}
