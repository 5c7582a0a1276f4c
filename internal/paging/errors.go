package paging

import (
	"errors"
	"fmt"

	"github.com/five82/potluck/internal/state"
)

var (
	// ErrBusy is returned by LoadInitial and Refresh while either is running.
	ErrBusy = errors.New("list is already loading")
	// ErrClosed is returned once the owning screen has torn the list down.
	ErrClosed = errors.New("list closed")
)

// InitialLoadError is a failed initial load or refresh. Screens show it as a
// full-screen error with a retry action.
type InitialLoadError struct {
	Kind state.LoadKind
	Err  error
}

func (e *InitialLoadError) Error() string {
	return fmt.Sprintf("%s load failed: %v", e.Kind, e.Err)
}

func (e *InitialLoadError) Unwrap() error { return e.Err }

// LoadMoreError is a failed continuation. It is not fatal: the loaded items
// stay and the next scroll trigger retries.
type LoadMoreError struct {
	Cursor string
	Err    error
}

func (e *LoadMoreError) Error() string {
	return fmt.Sprintf("load more after %q failed: %v", e.Cursor, e.Err)
}

func (e *LoadMoreError) Unwrap() error { return e.Err }
