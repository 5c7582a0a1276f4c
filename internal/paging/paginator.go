package paging

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/five82/potluck/internal/state"
)

const (
	DefaultPageSize  = 20
	DefaultLookahead = 3
)

// FetchFunc requests the page that follows cursor. An empty cursor asks for
// the first page.
type FetchFunc[T any] func(ctx context.Context, cursor string, size int) (state.Page[T], error)

// Options tune a Paginator. The zero value is usable.
type Options[T any] struct {
	PageSize  int
	Lookahead int

	// OnPage is called, in application order, for every page that made it
	// into the list. replaced is true for initial loads and refreshes.
	OnPage func(items []T, replaced bool)

	Logger *log.Logger
}

// Paginator owns the state of one cursor-paginated list.
type Paginator[T state.Identifier] struct {
	fetch     FetchFunc[T]
	pageSize  int
	lookahead int
	onPage    func([]T, bool)
	logger    *log.Logger

	store   state.Store[T]
	applyMu sync.Mutex
	closed  atomic.Bool
}

// New builds a Paginator around fetch.
func New[T state.Identifier](fetch FetchFunc[T], opts Options[T]) *Paginator[T] {
	p := &Paginator[T]{
		fetch:     fetch,
		pageSize:  opts.PageSize,
		lookahead: opts.Lookahead,
		onPage:    opts.OnPage,
		logger:    opts.Logger,
	}
	if p.pageSize <= 0 {
		p.pageSize = DefaultPageSize
	}
	if p.lookahead <= 0 {
		p.lookahead = DefaultLookahead
	}
	if p.logger == nil {
		p.logger = log.Default()
	}
	return p
}

// LoadInitial fetches the first page and replaces the items. It fails fast
// with ErrBusy if an initial load or refresh is already running.
func (p *Paginator[T]) LoadInitial(ctx context.Context) error {
	return p.reload(ctx, state.LoadInitial)
}

// Refresh behaves like LoadInitial but raises IsRefreshing instead of
// IsLoading.
func (p *Paginator[T]) Refresh(ctx context.Context) error {
	return p.reload(ctx, state.LoadRefresh)
}

func (p *Paginator[T]) reload(ctx context.Context, kind state.LoadKind) error {
	if p.closed.Load() {
		return ErrClosed
	}
	started, ok := p.store.DispatchIf(func(s state.ListState[T]) bool {
		return !s.Busy()
	}, state.Started[T]{Kind: kind})
	if !ok {
		return ErrBusy
	}
	gen := started.Generation

	page, err := p.fetch(ctx, "", p.pageSize)
	if err != nil {
		loadErr := &InitialLoadError{Kind: kind, Err: err}
		if p.apply(gen, state.Failed[T]{Kind: kind, Generation: gen, Err: loadErr, At: time.Now()}, nil) {
			return loadErr
		}
		return nil
	}
	p.apply(gen, state.Loaded[T]{Kind: kind, Generation: gen, Page: page, At: time.Now()}, p.pageHook(page.Items, true))
	return nil
}

// LoadMore fetches the page after the stored cursor and appends it. It is a
// no-op when a load is running or the list has no continuation.
func (p *Paginator[T]) LoadMore(ctx context.Context) error {
	if p.closed.Load() {
		return ErrClosed
	}
	started, ok := p.store.DispatchIf(func(s state.ListState[T]) bool {
		return !s.Busy() && s.CanLoadMore()
	}, state.Started[T]{Kind: state.LoadMore})
	if !ok {
		return nil
	}
	gen, cursor := started.Generation, started.Cursor

	page, err := p.fetch(ctx, cursor, p.pageSize)
	if err != nil {
		moreErr := &LoadMoreError{Cursor: cursor, Err: err}
		if p.apply(gen, state.Failed[T]{Kind: state.LoadMore, Generation: gen, Err: moreErr, At: time.Now()}, nil) {
			p.logger.Printf("load more failed: %v", moreErr)
			return moreErr
		}
		return nil
	}
	p.apply(gen, state.Loaded[T]{Kind: state.LoadMore, Generation: gen, Page: page, At: time.Now()}, p.pageHook(page.Items, false))
	return nil
}

// apply dispatches ev if gen is still current and the list is open. after
// runs under the same lock so OnPage sees pages in application order.
func (p *Paginator[T]) apply(gen uint64, ev state.Event[T], after func()) bool {
	p.applyMu.Lock()
	defer p.applyMu.Unlock()

	if p.closed.Load() {
		return false
	}
	_, ok := p.store.DispatchIf(func(s state.ListState[T]) bool {
		return s.Generation == gen
	}, ev)
	if ok && after != nil {
		after()
	}
	return ok
}

func (p *Paginator[T]) pageHook(items []T, replaced bool) func() {
	if p.onPage == nil {
		return nil
	}
	return func() { p.onPage(items, replaced) }
}

// ShouldLoadMore reports whether the row at visibleIndex is within the
// lookahead window of the end and a continuation is possible.
func (p *Paginator[T]) ShouldLoadMore(visibleIndex int) bool {
	s := p.store.Snapshot()
	if s.Busy() || !s.CanLoadMore() || len(s.Items) == 0 {
		return false
	}
	return visibleIndex >= len(s.Items)-p.lookahead
}

// MaybeLoadMore calls LoadMore when ShouldLoadMore holds for visibleIndex.
func (p *Paginator[T]) MaybeLoadMore(ctx context.Context, visibleIndex int) error {
	if !p.ShouldLoadMore(visibleIndex) {
		return nil
	}
	return p.LoadMore(ctx)
}

// State returns a snapshot of the list.
func (p *Paginator[T]) State() state.ListState[T] {
	return p.store.Snapshot()
}

// Mutate edits the loaded item(s) with id. It returns false when the entity
// is not loaded.
func (p *Paginator[T]) Mutate(id string, fn func(*T)) bool {
	if p.closed.Load() {
		return false
	}
	return p.store.Mutate(id, fn)
}

// Lookup returns the loaded item with id.
func (p *Paginator[T]) Lookup(id string) (T, bool) {
	return p.store.Lookup(id)
}

// PageSize returns the configured page size.
func (p *Paginator[T]) PageSize() int { return p.pageSize }

// Close detaches the list from its screen. Responses that arrive later are
// ignored and further loads return ErrClosed.
func (p *Paginator[T]) Close() {
	p.closed.Store(true)
}

// Closed reports whether Close was called.
func (p *Paginator[T]) Closed() bool {
	return p.closed.Load()
}
