// Package lists assembles the screens of the client from the core
// components: each screen owns a paginator, an optimistic mutator over its
// items and a subscription to the shared change bus. Admin tables pair a
// paginator with a bulk edit tracker that follows its pages.
package lists

import (
	"context"
	"log"
	"time"

	"github.com/five82/potluck/internal/api"
	"github.com/five82/potluck/internal/notify"
	"github.com/five82/potluck/internal/optimistic"
	"github.com/five82/potluck/internal/paging"
	"github.com/five82/potluck/internal/search"
	"github.com/five82/potluck/internal/state"
)

// Options are shared by every screen constructor.
type Options struct {
	PageSize  int
	Lookahead int
	Bus       *notify.Bus
	Logger    *log.Logger

	// OnSettle observes the net outcome of every toggle.
	OnSettle func(optimistic.Intent, optimistic.Outcome)

	// Search only.
	Window  time.Duration
	History *search.History
}

func pagingOptions[T any](o Options) paging.Options[T] {
	return paging.Options[T]{PageSize: o.PageSize, Lookahead: o.Lookahead, Logger: o.Logger}
}

// Screen is one cursor-paginated list whose rows can be toggled.
type Screen[T state.Identifier] struct {
	pager       *paging.Paginator[T]
	mutator     *optimistic.Mutator[T]
	unsubscribe func()
}

func newScreen[T state.Identifier](fetch paging.FetchFunc[T], submit optimistic.Submitter, fields []optimistic.Field[T], opts Options) *Screen[T] {
	pager := paging.New(fetch, pagingOptions[T](opts))
	mutator := optimistic.New[T](pager, submit, optimistic.Options[T]{
		Fields:   fields,
		Bus:      opts.Bus,
		OnSettle: opts.OnSettle,
	})
	s := &Screen[T]{pager: pager, mutator: mutator, unsubscribe: func() {}}
	if opts.Bus != nil {
		s.unsubscribe = opts.Bus.SubscribeAll(func(c notify.Change) { mutator.Mirror(c) })
	}
	return s
}

// NewFeed builds the home feed screen.
func NewFeed(svc api.Service, opts Options) *Screen[api.Recipe] {
	return newScreen[api.Recipe](svc.FetchFeed, api.NewActionSubmitter(svc, api.KindRecipes), RecipeFields(), opts)
}

// NewUserRecipes builds the recipe list of one profile.
func NewUserRecipes(svc api.Service, userID string, opts Options) *Screen[api.Recipe] {
	fetch := func(ctx context.Context, cursor string, size int) (state.Page[api.Recipe], error) {
		return svc.FetchUserRecipes(ctx, userID, cursor, size)
	}
	return newScreen[api.Recipe](fetch, api.NewActionSubmitter(svc, api.KindRecipes), RecipeFields(), opts)
}

// NewComments builds the comment thread of one recipe.
func NewComments(svc api.Service, recipeID string, opts Options) *Screen[api.Comment] {
	fetch := func(ctx context.Context, cursor string, size int) (state.Page[api.Comment], error) {
		return svc.FetchComments(ctx, recipeID, cursor, size)
	}
	return newScreen[api.Comment](fetch, api.NewActionSubmitter(svc, api.KindComments), CommentFields(), opts)
}

// NewCookingLogs builds the cooking log list of one profile.
func NewCookingLogs(svc api.Service, userID string, opts Options) *Screen[api.CookingLog] {
	fetch := func(ctx context.Context, cursor string, size int) (state.Page[api.CookingLog], error) {
		return svc.FetchCookingLogs(ctx, userID, cursor, size)
	}
	return newScreen[api.CookingLog](fetch, api.NewActionSubmitter(svc, api.KindCookingLogs), CookingLogFields(), opts)
}

// Paginator exposes the underlying list.
func (s *Screen[T]) Paginator() *paging.Paginator[T] { return s.pager }

// Mutator exposes the underlying optimistic mutator.
func (s *Screen[T]) Mutator() *optimistic.Mutator[T] { return s.mutator }

func (s *Screen[T]) LoadInitial(ctx context.Context) error { return s.pager.LoadInitial(ctx) }
func (s *Screen[T]) Refresh(ctx context.Context) error     { return s.pager.Refresh(ctx) }
func (s *Screen[T]) LoadMore(ctx context.Context) error    { return s.pager.LoadMore(ctx) }
func (s *Screen[T]) State() state.ListState[T]             { return s.pager.State() }

// MaybeLoadMore continues the list when the cursor is near the end.
func (s *Screen[T]) MaybeLoadMore(ctx context.Context, visibleIndex int) error {
	return s.pager.MaybeLoadMore(ctx, visibleIndex)
}

// Toggle flips field on the row with id and waits for the server.
func (s *Screen[T]) Toggle(ctx context.Context, id, field string) (optimistic.Outcome, error) {
	return s.mutator.Trigger(ctx, id, field)
}

// Close drops the bus subscription and ignores late responses.
func (s *Screen[T]) Close() {
	s.unsubscribe()
	s.pager.Close()
}
