package lists

import (
	"context"

	"github.com/five82/potluck/internal/api"
	"github.com/five82/potluck/internal/notify"
	"github.com/five82/potluck/internal/optimistic"
	"github.com/five82/potluck/internal/search"
	"github.com/five82/potluck/internal/state"
)

// Search is the recipe search screen. A toggle applies to the result set
// that was current when it began; if the results change before the server
// answers, the answer is dropped.
type Search struct {
	debouncer   *search.Debouncer[api.Recipe]
	mutator     *optimistic.Mutator[api.Recipe]
	unsubscribe func()
}

// NewSearch builds the search screen. onChange fires whenever results were
// installed, cleared or extended.
func NewSearch(ctx context.Context, svc api.Service, opts Options, onChange func(search.Session, state.ListState[api.Recipe])) *Search {
	d := search.New[api.Recipe](ctx, svc.SearchRecipes, search.Options[api.Recipe]{
		Window:    opts.Window,
		PageSize:  opts.PageSize,
		Lookahead: opts.Lookahead,
		History:   opts.History,
		Logger:    opts.Logger,
		OnChange:  onChange,
	})
	m := optimistic.New[api.Recipe](currentResults{d}, api.NewActionSubmitter(svc, api.KindRecipes), optimistic.Options[api.Recipe]{
		Fields:   RecipeFields(),
		Bus:      opts.Bus,
		OnSettle: opts.OnSettle,
	})
	s := &Search{debouncer: d, mutator: m, unsubscribe: func() {}}
	if opts.Bus != nil {
		s.unsubscribe = opts.Bus.SubscribeAll(func(c notify.Change) { m.Mirror(c) })
	}
	return s
}

func (s *Search) SetQuery(q string)                        { s.debouncer.SetQuery(q) }
func (s *Search) Query() string                            { return s.debouncer.Query() }
func (s *Search) Results() state.ListState[api.Recipe]     { return s.debouncer.Results() }
func (s *Search) LoadMore(ctx context.Context) error       { return s.debouncer.LoadMore(ctx) }
func (s *Search) ShouldLoadMore(visibleIndex int) bool     { return s.debouncer.ShouldLoadMore(visibleIndex) }
func (s *Search) History() []string                        { return s.debouncer.History().Entries() }
func (s *Search) Debouncer() *search.Debouncer[api.Recipe] { return s.debouncer }

// Mutator exposes the optimistic mutator over the result rows.
func (s *Search) Mutator() *optimistic.Mutator[api.Recipe] { return s.mutator }

// Toggle flips field on a result row and waits for the server.
func (s *Search) Toggle(ctx context.Context, id, field string) (optimistic.Outcome, error) {
	return s.mutator.Trigger(ctx, id, field)
}

// Close stops the debouncer and drops the bus subscription.
func (s *Search) Close() {
	s.unsubscribe()
	s.debouncer.Close()
}

type currentResults struct {
	d *search.Debouncer[api.Recipe]
}

// Bind returns the current result list, or nil before the first response.
func (c currentResults) Bind() optimistic.Target[api.Recipe] {
	if p := c.d.Paginator(); p != nil {
		return p
	}
	return nil
}

func (c currentResults) Lookup(id string) (api.Recipe, bool) {
	if p := c.d.Paginator(); p != nil {
		return p.Lookup(id)
	}
	return api.Recipe{}, false
}

func (c currentResults) Mutate(id string, fn func(*api.Recipe)) bool {
	if p := c.d.Paginator(); p != nil {
		return p.Mutate(id, fn)
	}
	return false
}
