// Package search debounces a changing query and keeps only the newest
// response.
//
// Each SetQuery bumps a generation and restarts a fixed delay (300ms by
// default). When the delay expires without another change, a fresh
// paging.Paginator bound to the query runs its initial load. A response is
// installed as the current results only if its generation is still the
// latest, so a slow earlier request can never overwrite a newer one. The
// superseded request's context is cancelled, but correctness does not depend
// on the transport honouring it.
//
// An empty query clears the results at once and sends nothing.
package search

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/five82/potluck/internal/paging"
	"github.com/five82/potluck/internal/state"
)

// DefaultWindow is the debounce delay.
const DefaultWindow = 300 * time.Millisecond

// QueryFetchFunc requests one page of results for query.
type QueryFetchFunc[T any] func(ctx context.Context, query, cursor string, size int) (state.Page[T], error)

// Session identifies the query the current results belong to.
type Session struct {
	Query      string
	Generation uint64
	Cancelled  bool
}

// Options tune a Debouncer. The zero value is usable.
type Options[T any] struct {
	Window    time.Duration
	PageSize  int
	Lookahead int
	History   *History
	Logger    *log.Logger

	// OnChange fires after results were installed, cleared or extended.
	OnChange func(Session, state.ListState[T])
}

type stopper interface {
	Stop() bool
}

func realAfterFunc(d time.Duration, f func()) stopper {
	return time.AfterFunc(d, f)
}

// Debouncer owns the search box of one screen.
type Debouncer[T state.Identifier] struct {
	ctx       context.Context
	fetch     QueryFetchFunc[T]
	window    time.Duration
	pageSize  int
	lookahead int
	history   *History
	logger    *log.Logger
	onChange  func(Session, state.ListState[T])
	afterFunc func(time.Duration, func()) stopper

	mu         sync.Mutex
	query      string
	generation uint64
	timer      stopper
	cancel     context.CancelFunc
	results    *paging.Paginator[T]
	resultsGen uint64
	closed     bool
}

// New builds a Debouncer. Requests run under ctx.
func New[T state.Identifier](ctx context.Context, fetch QueryFetchFunc[T], opts Options[T]) *Debouncer[T] {
	d := &Debouncer[T]{
		ctx:       ctx,
		fetch:     fetch,
		window:    opts.Window,
		pageSize:  opts.PageSize,
		lookahead: opts.Lookahead,
		history:   opts.History,
		logger:    opts.Logger,
		onChange:  opts.OnChange,
		afterFunc: realAfterFunc,
	}
	if d.ctx == nil {
		d.ctx = context.Background()
	}
	if d.window <= 0 {
		d.window = DefaultWindow
	}
	if d.history == nil {
		d.history = NewHistory(DefaultHistoryCap)
	}
	return d
}

// SetQuery records a new query and schedules the request.
func (d *Debouncer[T]) SetQuery(query string) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.generation++
	gen := d.generation
	d.query = query
	d.stopLocked()

	if strings.TrimSpace(query) == "" {
		old := d.results
		d.results = nil
		d.resultsGen = gen
		d.mu.Unlock()
		if old != nil {
			old.Close()
		}
		d.notify(Session{Query: query, Generation: gen}, state.ListState[T]{})
		return
	}

	d.timer = d.afterFunc(d.window, func() { d.fire(gen) })
	d.mu.Unlock()
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if d.closed || gen != d.generation {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	ctx, cancel := context.WithCancel(d.ctx)
	d.cancel = cancel
	query := strings.TrimSpace(d.query)
	p := paging.New(func(ctx context.Context, cursor string, size int) (state.Page[T], error) {
		return d.fetch(ctx, query, cursor, size)
	}, paging.Options[T]{PageSize: d.pageSize, Lookahead: d.lookahead, Logger: d.logger})
	d.mu.Unlock()

	err := p.LoadInitial(ctx)

	d.mu.Lock()
	if d.closed || gen != d.generation {
		d.mu.Unlock()
		p.Close()
		return
	}
	old := d.results
	d.results = p
	d.resultsGen = gen
	d.mu.Unlock()

	if old != nil {
		old.Close()
	}
	if err == nil {
		d.history.Add(query)
	}
	d.notify(Session{Query: query, Generation: gen}, p.State())
}

// LoadMore continues the current results.
func (d *Debouncer[T]) LoadMore(ctx context.Context) error {
	d.mu.Lock()
	p, gen, query := d.results, d.resultsGen, d.query
	d.mu.Unlock()
	if p == nil {
		return nil
	}
	err := p.LoadMore(ctx)
	if p.Closed() {
		// A newer query replaced these results.
		if errors.Is(err, paging.ErrClosed) {
			return nil
		}
		return err
	}
	d.notify(Session{Query: query, Generation: gen}, p.State())
	return err
}

// ShouldLoadMore applies the results list's lookahead policy.
func (d *Debouncer[T]) ShouldLoadMore(visibleIndex int) bool {
	if p := d.Paginator(); p != nil {
		return p.ShouldLoadMore(visibleIndex)
	}
	return false
}

// Results returns the current results. It is empty for an empty query or
// before the first response.
func (d *Debouncer[T]) Results() state.ListState[T] {
	if p := d.Paginator(); p != nil {
		return p.State()
	}
	return state.ListState[T]{}
}

// Paginator returns the list holding the current results, or nil.
func (d *Debouncer[T]) Paginator() *paging.Paginator[T] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.results
}

// Query returns the latest query passed to SetQuery.
func (d *Debouncer[T]) Query() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.query
}

// Session describes the latest query.
func (d *Debouncer[T]) Session() Session {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Session{Query: d.query, Generation: d.generation, Cancelled: d.closed}
}

// History returns the recent-search history.
func (d *Debouncer[T]) History() *History {
	return d.history
}

// Close stops the timer, cancels any request and ignores later responses.
func (d *Debouncer[T]) Close() {
	d.mu.Lock()
	d.closed = true
	d.stopLocked()
	p := d.results
	d.mu.Unlock()
	if p != nil {
		p.Close()
	}
}

func (d *Debouncer[T]) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *Debouncer[T]) notify(s Session, st state.ListState[T]) {
	if d.onChange != nil {
		d.onChange(s, st)
	}
}
