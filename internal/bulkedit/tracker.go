// Package bulkedit tracks uncommitted field edits across the rows of an admin
// table and commits them with one explicit save.
//
// Every row has a baseline value, the last value the server returned for it.
// Set records an edit; setting a row back to its baseline removes the edit
// instead of storing a no-op. Commit sends the edits one at a time, in the
// order they were first made, so a slow or failing row never races the
// others. Rows that fail stay pending and can be saved again.
//
// Any full reload of the table (Rebase) drops all pending edits and abandons a
// commit that is still running; its remaining edits are not sent.
package bulkedit

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnknownRow is returned by Set for an id with no baseline.
	ErrUnknownRow = errors.New("row not loaded")
	// ErrCommitInProgress is returned when Commit is called while another
	// commit is running.
	ErrCommitInProgress = errors.New("commit already in progress")
)

// SubmitFunc stores value for row id and returns the value the server kept.
type SubmitFunc[V comparable] func(ctx context.Context, id string, value V) (V, error)

// Result counts the outcome of a Commit.
type Result struct {
	Succeeded int
	Failed    int
	// Abandoned counts edits that were not sent because the table was
	// reloaded mid-commit.
	Abandoned int
	Failures  map[string]error
}

// PartialFailure is returned by Commit when at least one row failed. The
// failed rows remain pending.
type PartialFailure struct {
	Result Result
}

func (e *PartialFailure) Error() string {
	total := e.Result.Succeeded + e.Result.Failed
	return fmt.Sprintf("bulk commit: %d of %d updates failed", e.Result.Failed, total)
}

// Tracker holds baselines and pending edits for one table.
type Tracker[V comparable] struct {
	submit SubmitFunc[V]

	mu         sync.Mutex
	epoch      uint64
	baseline   map[string]V
	pending    map[string]V
	order      []string
	committing bool
}

// New builds a Tracker that commits through submit.
func New[V comparable](submit SubmitFunc[V]) *Tracker[V] {
	return &Tracker[V]{
		submit:   submit,
		baseline: make(map[string]V),
		pending:  make(map[string]V),
	}
}

// Rebase replaces all baselines after a full reload and clears every pending
// edit.
func (t *Tracker[V]) Rebase(rows map[string]V) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.epoch++
	t.baseline = make(map[string]V, len(rows))
	for id, v := range rows {
		t.baseline[id] = v
	}
	t.pending = make(map[string]V)
	t.order = nil
}

// Extend adds baselines for rows appended to the table. Pending edits that
// now match their baseline are dropped.
func (t *Tracker[V]) Extend(rows map[string]V) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, v := range rows {
		t.baseline[id] = v
		if p, ok := t.pending[id]; ok && p == v {
			t.dropLocked(id)
		}
	}
}

// Set records value for row id.
func (t *Tracker[V]) Set(id string, value V) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	base, ok := t.baseline[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRow, id)
	}
	if value == base {
		t.dropLocked(id)
		return nil
	}
	if _, exists := t.pending[id]; !exists {
		t.order = append(t.order, id)
	}
	t.pending[id] = value
	return nil
}

// Commit sends every pending edit sequentially. The error is a
// *PartialFailure when some rows failed.
func (t *Tracker[V]) Commit(ctx context.Context) (Result, error) {
	t.mu.Lock()
	if t.committing {
		t.mu.Unlock()
		return Result{}, ErrCommitInProgress
	}
	t.committing = true
	epoch := t.epoch
	type edit struct {
		id    string
		value V
	}
	edits := make([]edit, 0, len(t.order))
	for _, id := range t.order {
		edits = append(edits, edit{id: id, value: t.pending[id]})
	}
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.committing = false
		t.mu.Unlock()
	}()

	var res Result
	for i, e := range edits {
		if err := ctx.Err(); err != nil {
			for _, rest := range edits[i:] {
				res.fail(rest.id, err)
			}
			break
		}

		t.mu.Lock()
		if t.epoch != epoch {
			t.mu.Unlock()
			res.Abandoned = len(edits) - i
			break
		}
		current, still := t.pending[e.id]
		t.mu.Unlock()
		if !still {
			continue
		}
		e.value = current

		stored, err := t.submit(ctx, e.id, e.value)

		t.mu.Lock()
		if t.epoch != epoch {
			t.mu.Unlock()
			if err != nil {
				res.fail(e.id, err)
			} else {
				res.Succeeded++
			}
			res.Abandoned = len(edits) - i - 1
			break
		}
		if err != nil {
			t.mu.Unlock()
			res.fail(e.id, err)
			continue
		}
		t.baseline[e.id] = stored
		if p, ok := t.pending[e.id]; ok && (p == e.value || p == stored) {
			t.dropLocked(e.id)
		}
		t.mu.Unlock()
		res.Succeeded++
	}

	if res.Failed > 0 {
		return res, &PartialFailure{Result: res}
	}
	return res, nil
}

func (r *Result) fail(id string, err error) {
	r.Failed++
	if r.Failures == nil {
		r.Failures = make(map[string]error)
	}
	r.Failures[id] = err
}

// Discard drops every pending edit without touching baselines.
func (t *Tracker[V]) Discard() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = make(map[string]V)
	t.order = nil
}

// PendingCount is the number of unsaved edits.
func (t *Tracker[V]) PendingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// IsDirty reports whether row id has an unsaved edit.
func (t *Tracker[V]) IsDirty(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[id]
	return ok
}

// Value returns the value to display for row id: the pending edit if there is
// one, otherwise the baseline.
func (t *Tracker[V]) Value(id string) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.pending[id]; ok {
		return v, true
	}
	v, ok := t.baseline[id]
	return v, ok
}

// Baseline returns the last server value for row id.
func (t *Tracker[V]) Baseline(id string) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.baseline[id]
	return v, ok
}

// Pending returns a copy of the unsaved edits.
func (t *Tracker[V]) Pending() map[string]V {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]V, len(t.pending))
	for id, v := range t.pending {
		out[id] = v
	}
	return out
}

// Committing reports whether a Commit is running.
func (t *Tracker[V]) Committing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.committing
}

func (t *Tracker[V]) dropLocked(id string) {
	if _, ok := t.pending[id]; !ok {
		return
	}
	delete(t.pending, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Follow returns a page hook that keeps t's baselines in step with a
// paginated table: replaced pages rebase, appended pages extend.
func Follow[T any, V comparable](t *Tracker[V], row func(T) (string, V)) func(items []T, replaced bool) {
	return func(items []T, replaced bool) {
		rows := make(map[string]V, len(items))
		for _, it := range items {
			id, v := row(it)
			rows[id] = v
		}
		if replaced {
			t.Rebase(rows)
			return
		}
		t.Extend(rows)
	}
}
