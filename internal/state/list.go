package state

import "time"

// ListState is the complete, renderable state of one paginated list.
type ListState[T any] struct {
	Items         []T
	Cursor        string
	HasMore       bool
	IsLoading     bool
	IsLoadingMore bool
	IsRefreshing  bool
	Err           error

	// Generation increases with every Initial or Refresh load.
	Generation uint64

	LastUpdated         time.Time
	ConsecutiveFailures int
}

// Busy reports whether an initial load or refresh is in flight.
func (s ListState[T]) Busy() bool {
	return s.IsLoading || s.IsRefreshing
}

// CanLoadMore reports whether LoadMore would issue a request.
func (s ListState[T]) CanLoadMore() bool {
	return !s.IsLoadingMore && s.HasMore && s.Cursor != ""
}

// IsOffline returns true when loads have failed several times in a row.
func (s ListState[T]) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Event is a state transition understood by Reduce.
type Event[T any] interface {
	reduce(ListState[T]) ListState[T]
}

// Reduce returns the state that results from applying ev to s. It never
// modifies s.
func Reduce[T any](s ListState[T], ev Event[T]) ListState[T] {
	if ev == nil {
		return s
	}
	return ev.reduce(s)
}

// Started marks the beginning of a load.
type Started[T any] struct {
	Kind LoadKind
}

func (e Started[T]) reduce(s ListState[T]) ListState[T] {
	switch e.Kind {
	case LoadInitial:
		s.Generation++
		s.IsLoading = true
		s.IsLoadingMore = false
	case LoadRefresh:
		s.Generation++
		s.IsRefreshing = true
		s.IsLoadingMore = false
	case LoadMore:
		s.IsLoadingMore = true
	}
	return s
}

// Loaded applies a page fetched for Generation.
type Loaded[T any] struct {
	Kind       LoadKind
	Generation uint64
	Page       Page[T]
	At         time.Time
}

func (e Loaded[T]) reduce(s ListState[T]) ListState[T] {
	if e.Generation != s.Generation {
		return s
	}
	switch e.Kind {
	case LoadMore:
		if !s.IsLoadingMore {
			return s
		}
		items := make([]T, 0, len(s.Items)+len(e.Page.Items))
		items = append(items, s.Items...)
		s.Items = append(items, e.Page.Items...)
		s.IsLoadingMore = false
	case LoadInitial, LoadRefresh:
		s.Items = cloneItems(e.Page.Items)
		s.IsLoading = false
		s.IsRefreshing = false
	}
	s.Cursor = e.Page.Cursor
	s.HasMore = e.Page.HasMore
	s.Err = nil
	s.ConsecutiveFailures = 0
	s.LastUpdated = e.At
	return s
}

// Failed records a failed load for Generation. Items are left untouched.
type Failed[T any] struct {
	Kind       LoadKind
	Generation uint64
	Err        error
	At         time.Time
}

func (e Failed[T]) reduce(s ListState[T]) ListState[T] {
	if e.Generation != s.Generation {
		return s
	}
	switch e.Kind {
	case LoadMore:
		if !s.IsLoadingMore {
			return s
		}
		s.IsLoadingMore = false
	case LoadInitial, LoadRefresh:
		s.IsLoading = false
		s.IsRefreshing = false
	}
	s.Err = e.Err
	s.ConsecutiveFailures++
	s.LastUpdated = e.At
	return s
}

// Mutated applies Apply to every item whose EntityID equals ID. Duplicate ids
// are all edited so the same entity never renders two different values.
type Mutated[T Identifier] struct {
	ID    string
	Apply func(*T)
}

func (e Mutated[T]) reduce(s ListState[T]) ListState[T] {
	if e.Apply == nil || indexOf(s.Items, e.ID) < 0 {
		return s
	}
	items := cloneItems(s.Items)
	for i := range items {
		if items[i].EntityID() == e.ID {
			e.Apply(&items[i])
		}
	}
	s.Items = items
	return s
}

// Cleared resets the list to empty and invalidates in-flight loads.
type Cleared[T any] struct{}

func (Cleared[T]) reduce(s ListState[T]) ListState[T] {
	return ListState[T]{Generation: s.Generation + 1}
}

func indexOf[T Identifier](items []T, id string) int {
	for i := range items {
		if items[i].EntityID() == id {
			return i
		}
	}
	return -1
}

func cloneItems[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
