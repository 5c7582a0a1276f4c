package lists

import (
	"context"
	"fmt"
	"slices"

	"github.com/five82/potluck/internal/api"
	"github.com/five82/potluck/internal/bulkedit"
	"github.com/five82/potluck/internal/paging"
	"github.com/five82/potluck/internal/state"
)

// Table is an admin list with one editable column committed in bulk.
type Table[T state.Identifier] struct {
	pager   *paging.Paginator[T]
	edits   *bulkedit.Tracker[string]
	choices []string
	get     func(T) string
	set     func(*T, string)
}

func newTable[T state.Identifier](fetch paging.FetchFunc[T], submit bulkedit.SubmitFunc[string], choices []string, get func(T) string, set func(*T, string), opts Options) *Table[T] {
	edits := bulkedit.New(submit)
	popts := pagingOptions[T](opts)
	popts.OnPage = bulkedit.Follow(edits, func(item T) (string, string) {
		return item.EntityID(), get(item)
	})
	return &Table[T]{
		pager:   paging.New(fetch, popts),
		edits:   edits,
		choices: choices,
		get:     get,
		set:     set,
	}
}

// NewModeration builds the recipe moderation table; the editable column is
// the recipe status.
func NewModeration(svc api.Service, opts Options) *Table[api.Recipe] {
	submit := func(ctx context.Context, id, status string) (string, error) {
		r, err := api.UpdateField[api.Recipe](ctx, svc, api.KindRecipes, id, "status", status)
		return r.Status, err
	}
	return newTable[api.Recipe](svc.FetchAdminRecipes, submit, api.ModerationStatuses,
		func(r api.Recipe) string { return r.Status },
		func(r *api.Recipe, v string) { r.Status = v },
		opts)
}

// NewUserAdmin builds the user administration table; the editable column is
// the user role.
func NewUserAdmin(svc api.Service, opts Options) *Table[api.User] {
	submit := func(ctx context.Context, id, role string) (string, error) {
		u, err := api.UpdateField[api.User](ctx, svc, api.KindUsers, id, "role", role)
		return u.Role, err
	}
	return newTable[api.User](svc.FetchAdminUsers, submit, api.Roles,
		func(u api.User) string { return u.Role },
		func(u *api.User, v string) { u.Role = v },
		opts)
}

func (t *Table[T]) Paginator() *paging.Paginator[T]       { return t.pager }
func (t *Table[T]) Edits() *bulkedit.Tracker[string]      { return t.edits }
func (t *Table[T]) Choices() []string                     { return slices.Clone(t.choices) }
func (t *Table[T]) LoadInitial(ctx context.Context) error { return t.pager.LoadInitial(ctx) }
func (t *Table[T]) Refresh(ctx context.Context) error     { return t.pager.Refresh(ctx) }
func (t *Table[T]) LoadMore(ctx context.Context) error    { return t.pager.LoadMore(ctx) }
func (t *Table[T]) State() state.ListState[T]             { return t.pager.State() }
func (t *Table[T]) PendingCount() int                     { return t.edits.PendingCount() }
func (t *Table[T]) IsDirty(id string) bool                { return t.edits.IsDirty(id) }
func (t *Table[T]) Discard()                              { t.edits.Discard() }

// Value returns the row's displayed value: the pending edit or the stored
// value.
func (t *Table[T]) Value(id string) (string, bool) {
	return t.edits.Value(id)
}

// Set records an edit for row id.
func (t *Table[T]) Set(id, value string) error {
	if !slices.Contains(t.choices, value) {
		return fmt.Errorf("invalid value %q", value)
	}
	return t.edits.Set(id, value)
}

// Cycle moves row id to the next choice and returns it.
func (t *Table[T]) Cycle(id string) (string, error) {
	cur, ok := t.edits.Value(id)
	if !ok {
		return "", bulkedit.ErrUnknownRow
	}
	next := t.choices[(slices.Index(t.choices, cur)+1)%len(t.choices)]
	return next, t.edits.Set(id, next)
}

// Save commits every pending edit, then writes the stored values back into
// the list rows.
func (t *Table[T]) Save(ctx context.Context) (bulkedit.Result, error) {
	res, err := t.edits.Commit(ctx)
	for _, item := range t.pager.State().Items {
		id := item.EntityID()
		stored, ok := t.edits.Baseline(id)
		if ok && t.get(item) != stored {
			t.pager.Mutate(id, func(row *T) { t.set(row, stored) })
		}
	}
	return res, err
}

// Close ignores late page responses.
func (t *Table[T]) Close() { t.pager.Close() }
