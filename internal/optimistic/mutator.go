package optimistic

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/five82/potluck/internal/notify"
)

var (
	// ErrUnknownField is returned for a field name the mutator was not
	// configured with.
	ErrUnknownField = errors.New("unknown field")
	// ErrNotLoaded is returned when the entity is not in the list.
	ErrNotLoaded = errors.New("entity not loaded")
)

// Field describes a boolean field that can be toggled optimistically.
type Field[T any] struct {
	Name string
	Get  func(T) bool
	Set  func(*T, bool)

	// Counter adjusts a dependent count (likeCount, followerCount) by delta.
	// Optional.
	Counter func(*T, int)

	// Action names the server action for the desired value, e.g. "like" or
	// "unlike".
	Action func(desired bool) string

	// Broadcast publishes confirmed changes on the notify bus.
	Broadcast bool
}

// Target is the list holding the entities, usually a *paging.Paginator.
// A target that also has a Closed method refuses results once it reports
// true.
type Target[T any] interface {
	Lookup(id string) (T, bool)
	Mutate(id string, fn func(*T)) bool
}

// Binder is implemented by targets whose backing list is replaced over
// time, such as search results. Begin binds each intent to the list that is
// current at that moment, and the intent settles against that list only.
type Binder[T any] interface {
	Bind() Target[T]
}

type closer interface {
	Closed() bool
}

// Submitter sends an action to the server.
type Submitter interface {
	SubmitMutation(ctx context.Context, entityID, action string) error
}

// SubmitFunc adapts a function to Submitter.
type SubmitFunc func(ctx context.Context, entityID, action string) error

// SubmitMutation calls f.
func (f SubmitFunc) SubmitMutation(ctx context.Context, entityID, action string) error {
	return f(ctx, entityID, action)
}

// Status is the lifecycle state of an Intent.
type Status int

const (
	StatusPending Status = iota
	StatusConfirmed
	StatusReverted
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusConfirmed:
		return "confirmed"
	case StatusReverted:
		return "reverted"
	default:
		return "unknown"
	}
}

// Outcome is what Settle did with a result.
type Outcome int

const (
	OutcomeConfirmed Outcome = iota + 1
	OutcomeReverted
	OutcomeSuperseded
	OutcomeDropped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeReverted:
		return "reverted"
	case OutcomeSuperseded:
		return "superseded"
	case OutcomeDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Intent is one user-triggered toggle.
type Intent struct {
	ID       string
	EntityID string
	Field    string
	Action   string
	Previous bool
	Desired  bool
	Delta    int
	Status   Status

	seq uint64
}

// MutationError is returned by Trigger when the server rejected the action
// and the entity was reverted.
type MutationError struct {
	EntityID string
	Field    string
	Action   string
	Err      error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Action, e.EntityID, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// Options configure a Mutator.
type Options[T any] struct {
	Fields []Field[T]
	Bus    *notify.Bus

	// OnSettle fires once for every intent that was confirmed or reverted.
	// Superseded and dropped results are not reported.
	OnSettle func(Intent, Outcome)
}

type key struct {
	entityID string
	field    string
}

// entry is the latest intent for a key. base is the value a failure
// restores: the value before the first of a run of overlapping toggles,
// moved forward whenever one of the older toggles is confirmed.
type entry[T any] struct {
	intent  Intent
	target  Target[T]
	base    bool
	baseSeq uint64
}

// Mutator applies optimistic toggles to the entities of one list.
type Mutator[T any] struct {
	target   Target[T]
	submit   Submitter
	fields   map[string]Field[T]
	bus      *notify.Bus
	onSettle func(Intent, Outcome)

	mu      sync.Mutex
	seq     uint64
	pending map[key]entry[T]
}

// New builds a Mutator over target.
func New[T any](target Target[T], submit Submitter, opts Options[T]) *Mutator[T] {
	fields := make(map[string]Field[T], len(opts.Fields))
	for _, f := range opts.Fields {
		fields[f.Name] = f
	}
	return &Mutator[T]{
		target:   target,
		submit:   submit,
		fields:   fields,
		bus:      opts.Bus,
		onSettle: opts.OnSettle,
		pending:  make(map[key]entry[T]),
	}
}

// Begin flips field on entity id and records a pending intent. The returned
// intent must be passed to Settle once the server answered.
func (m *Mutator[T]) Begin(id, field string) (Intent, error) {
	f, ok := m.fields[field]
	if !ok {
		return Intent{}, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	target := m.target
	if b, ok := target.(Binder[T]); ok {
		if target = b.Bind(); target == nil {
			return Intent{}, ErrNotLoaded
		}
	}

	cur, ok := target.Lookup(id)
	if !ok {
		return Intent{}, ErrNotLoaded
	}
	previous := f.Get(cur)
	desired := !previous
	delta := -1
	if desired {
		delta = 1
	}

	applied := target.Mutate(id, func(item *T) {
		f.Set(item, desired)
		if f.Counter != nil {
			f.Counter(item, delta)
		}
	})
	if !applied {
		return Intent{}, ErrNotLoaded
	}

	m.seq++
	intent := Intent{
		ID:       uuid.NewString(),
		EntityID: id,
		Field:    field,
		Previous: previous,
		Desired:  desired,
		Delta:    delta,
		Status:   StatusPending,
		seq:      m.seq,
	}
	if f.Action != nil {
		intent.Action = f.Action(desired)
	}

	k := key{id, field}
	e := entry[T]{intent: intent, target: target, base: previous, baseSeq: intent.seq - 1}
	if older, ok := m.pending[k]; ok && older.target == target {
		e.base, e.baseSeq = older.base, older.baseSeq
	}
	m.pending[k] = e
	return intent, nil
}

// Settle applies the server result err (nil on success) for intent. Only
// the latest intent for an entity field settles; a failure restores the
// last value the server is known to hold.
func (m *Mutator[T]) Settle(intent Intent, err error) Outcome {
	f, ok := m.fields[intent.Field]
	if !ok {
		return OutcomeDropped
	}

	m.mu.Lock()
	k := key{intent.EntityID, intent.Field}
	e, ok := m.pending[k]
	if !ok || e.intent.seq != intent.seq {
		if ok && err == nil && intent.seq < e.intent.seq && intent.seq > e.baseSeq {
			e.base, e.baseSeq = intent.Desired, intent.seq
			m.pending[k] = e
		}
		m.mu.Unlock()
		return OutcomeSuperseded
	}
	delete(m.pending, k)

	target := e.target
	if c, ok := target.(closer); ok && c.Closed() {
		m.mu.Unlock()
		return OutcomeDropped
	}
	cur, ok := target.Lookup(intent.EntityID)
	if !ok {
		m.mu.Unlock()
		return OutcomeDropped
	}
	if f.Get(cur) != intent.Desired {
		m.mu.Unlock()
		return OutcomeSuperseded
	}

	outcome := OutcomeConfirmed
	intent.Status = StatusConfirmed
	if err != nil {
		reverted := target.Mutate(intent.EntityID, func(item *T) {
			if f.Get(*item) == e.base {
				return
			}
			f.Set(item, e.base)
			if f.Counter != nil {
				f.Counter(item, -intent.Delta)
			}
		})
		if !reverted {
			m.mu.Unlock()
			return OutcomeDropped
		}
		outcome = OutcomeReverted
		intent.Status = StatusReverted
	}
	m.mu.Unlock()

	if outcome == OutcomeConfirmed && f.Broadcast && m.bus != nil {
		m.bus.Publish(notify.Change{EntityID: intent.EntityID, Field: intent.Field, Value: intent.Desired})
	}
	if m.onSettle != nil {
		m.onSettle(intent, outcome)
	}
	return outcome
}

// Trigger toggles field on entity id, submits the action and settles it. It
// blocks on the network call.
func (m *Mutator[T]) Trigger(ctx context.Context, id, field string) (Outcome, error) {
	intent, err := m.Begin(id, field)
	if err != nil {
		return 0, err
	}
	return m.Submit(ctx, intent)
}

// Submit sends a begun intent and settles it.
func (m *Mutator[T]) Submit(ctx context.Context, intent Intent) (Outcome, error) {
	submitErr := m.submit.SubmitMutation(ctx, intent.EntityID, intent.Action)
	outcome := m.Settle(intent, submitErr)
	if outcome == OutcomeReverted {
		return outcome, &MutationError{
			EntityID: intent.EntityID,
			Field:    intent.Field,
			Action:   intent.Action,
			Err:      submitErr,
		}
	}
	return outcome, nil
}

// Mirror applies a change confirmed elsewhere. The counter moves with the
// value; nothing is reverted later. It reports whether the entity changed.
func (m *Mutator[T]) Mirror(c notify.Change) bool {
	f, ok := m.fields[c.Field]
	if !ok {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, busy := m.pending[key{c.EntityID, c.Field}]; busy {
		return false
	}
	cur, ok := m.target.Lookup(c.EntityID)
	if !ok || f.Get(cur) == c.Value {
		return false
	}
	delta := -1
	if c.Value {
		delta = 1
	}
	return m.target.Mutate(c.EntityID, func(item *T) {
		if f.Get(*item) == c.Value {
			return
		}
		f.Set(item, c.Value)
		if f.Counter != nil {
			f.Counter(item, delta)
		}
	})
}

// Pending reports whether a request for entity id and field is in flight.
func (m *Mutator[T]) Pending(id, field string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[key{id, field}]
	return ok
}

// PendingCount returns the number of in-flight intents.
func (m *Mutator[T]) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}
