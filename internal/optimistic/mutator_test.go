package optimistic

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/five82/potluck/internal/notify"
)

type recipe struct {
	id        string
	liked     bool
	likeCount int
	saved     bool
}

// list is a minimal Target.
type list struct {
	mu     sync.Mutex
	items  []recipe
	closed bool
}

func (l *list) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

func (l *list) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *list) Lookup(id string) (recipe, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.items {
		if r.id == id {
			return r, true
		}
	}
	return recipe{}, false
}

func (l *list) Mutate(id string, fn func(*recipe)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	found := false
	for i := range l.items {
		if l.items[i].id == id {
			fn(&l.items[i])
			found = true
		}
	}
	return found
}

func (l *list) get(t *testing.T, id string) recipe {
	t.Helper()
	r, ok := l.Lookup(id)
	require.True(t, ok, "recipe %s not loaded", id)
	return r
}

var liked = Field[recipe]{
	Name:    "isLiked",
	Get:     func(r recipe) bool { return r.liked },
	Set:     func(r *recipe, v bool) { r.liked = v },
	Counter: func(r *recipe, d int) { r.likeCount += d },
	Action: func(v bool) string {
		if v {
			return "like"
		}
		return "unlike"
	},
}

var saved = Field[recipe]{
	Name: "isSaved",
	Get:  func(r recipe) bool { return r.saved },
	Set:  func(r *recipe, v bool) { r.saved = v },
	Action: func(v bool) string {
		if v {
			return "save"
		}
		return "unsave"
	},
	Broadcast: true,
}

type settled struct {
	intent  Intent
	outcome Outcome
}

func newMutator(l *list, submit Submitter, bus *notify.Bus) (*Mutator[recipe], *[]settled) {
	var got []settled
	var mu sync.Mutex
	m := New[recipe](l, submit, Options[recipe]{
		Fields: []Field[recipe]{liked, saved},
		Bus:    bus,
		OnSettle: func(i Intent, o Outcome) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, settled{i, o})
		},
	})
	return m, &got
}

func noSubmit(context.Context, string, string) error { return nil }

func TestMutator_BeginAppliesImmediately(t *testing.T) {
	l := &list{items: []recipe{{id: "r1", likeCount: 10}}}
	m, _ := newMutator(l, SubmitFunc(noSubmit), nil)

	intent, err := m.Begin("r1", "isLiked")
	require.NoError(t, err)
	require.Equal(t, "like", intent.Action)
	require.False(t, intent.Previous)
	require.True(t, intent.Desired)
	require.Equal(t, StatusPending, intent.Status)
	require.NotEmpty(t, intent.ID)

	r := l.get(t, "r1")
	require.True(t, r.liked)
	require.Equal(t, 11, r.likeCount)
	require.True(t, m.Pending("r1", "isLiked"))
}

func TestMutator_SuccessConfirms(t *testing.T) {
	l := &list{items: []recipe{{id: "r1", likeCount: 10}}}
	var actions []string
	m, got := newMutator(l, SubmitFunc(func(_ context.Context, id, action string) error {
		actions = append(actions, id+":"+action)
		return nil
	}), nil)

	outcome, err := m.Trigger(context.Background(), "r1", "isLiked")
	require.NoError(t, err)
	require.Equal(t, OutcomeConfirmed, outcome)
	require.Equal(t, []string{"r1:like"}, actions)

	r := l.get(t, "r1")
	require.True(t, r.liked)
	require.Equal(t, 11, r.likeCount)
	require.False(t, m.Pending("r1", "isLiked"))
	require.Len(t, *got, 1)
	require.Equal(t, StatusConfirmed, (*got)[0].intent.Status)
}

func TestMutator_FailureRevertsExactly(t *testing.T) {
	l := &list{items: []recipe{{id: "r1", liked: true, likeCount: 7}}}
	boom := errors.New("500")
	m, got := newMutator(l, SubmitFunc(func(context.Context, string, string) error { return boom }), nil)

	outcome, err := m.Trigger(context.Background(), "r1", "isLiked")
	require.Equal(t, OutcomeReverted, outcome)

	var mutErr *MutationError
	require.ErrorAs(t, err, &mutErr)
	require.ErrorIs(t, err, boom)
	require.Equal(t, "unlike", mutErr.Action)

	r := l.get(t, "r1")
	require.True(t, r.liked)
	require.Equal(t, 7, r.likeCount)
	require.Len(t, *got, 1)
	require.Equal(t, StatusReverted, (*got)[0].intent.Status)
}

func TestMutator_RevertInvertsDeltaInsteadOfResetting(t *testing.T) {
	l := &list{items: []recipe{{id: "r1", likeCount: 10}}}
	m, _ := newMutator(l, SubmitFunc(noSubmit), nil)

	intent, err := m.Begin("r1", "isLiked")
	require.NoError(t, err)
	require.Equal(t, 11, l.get(t, "r1").likeCount)

	// Someone else's like lands while ours is in flight.
	l.Mutate("r1", func(r *recipe) { r.likeCount += 4 })

	require.Equal(t, OutcomeReverted, m.Settle(intent, errors.New("rejected")))
	r := l.get(t, "r1")
	require.False(t, r.liked)
	require.Equal(t, 14, r.likeCount)
}

func TestMutator_DoubleToggleIsIdempotent(t *testing.T) {
	l := &list{items: []recipe{{id: "r1", likeCount: 3}}}
	m, got := newMutator(l, SubmitFunc(noSubmit), nil)

	first, err := m.Begin("r1", "isLiked")
	require.NoError(t, err)
	second, err := m.Begin("r1", "isLiked")
	require.NoError(t, err)
	require.Equal(t, "unlike", second.Action)

	require.Equal(t, OutcomeSuperseded, m.Settle(first, nil))
	require.Equal(t, OutcomeConfirmed, m.Settle(second, nil))

	r := l.get(t, "r1")
	require.False(t, r.liked)
	require.Equal(t, 3, r.likeCount)
	require.Len(t, *got, 1, "exactly one net outcome")
	require.Equal(t, second.ID, (*got)[0].intent.ID)
}

func TestMutator_SupersededFailureDoesNotRevert(t *testing.T) {
	l := &list{items: []recipe{{id: "r1", likeCount: 3}}}
	m, got := newMutator(l, SubmitFunc(noSubmit), nil)

	first, err := m.Begin("r1", "isLiked")
	require.NoError(t, err)
	second, err := m.Begin("r1", "isLiked")
	require.NoError(t, err)
	third, err := m.Begin("r1", "isLiked")
	require.NoError(t, err)
	require.True(t, l.get(t, "r1").liked)

	// The first intent wanted liked=true, which is also the current value,
	// but it is no longer the latest and must not revert anything.
	require.Equal(t, OutcomeSuperseded, m.Settle(first, errors.New("late failure")))
	require.Equal(t, OutcomeSuperseded, m.Settle(second, nil))
	require.True(t, l.get(t, "r1").liked)
	require.Equal(t, 4, l.get(t, "r1").likeCount)

	require.Equal(t, OutcomeConfirmed, m.Settle(third, nil))
	require.Len(t, *got, 1)
}

func TestMutator_OverlappingFailuresRestoreServerValue(t *testing.T) {
	l := &list{items: []recipe{{id: "r1", likeCount: 3}}}
	m, got := newMutator(l, SubmitFunc(noSubmit), nil)

	first, err := m.Begin("r1", "isLiked")
	require.NoError(t, err)
	second, err := m.Begin("r1", "isLiked")
	require.NoError(t, err)
	third, err := m.Begin("r1", "isLiked")
	require.NoError(t, err)
	require.True(t, l.get(t, "r1").liked)
	require.Equal(t, 4, l.get(t, "r1").likeCount)

	// None of the requests reached the server, so the row goes back to what
	// it held before the first toggle.
	require.Equal(t, OutcomeSuperseded, m.Settle(first, errors.New("500")))
	require.Equal(t, OutcomeSuperseded, m.Settle(second, errors.New("500")))
	require.Equal(t, OutcomeReverted, m.Settle(third, errors.New("500")))

	r := l.get(t, "r1")
	require.False(t, r.liked)
	require.Equal(t, 3, r.likeCount)
	require.Len(t, *got, 1)
	require.Equal(t, third.ID, (*got)[0].intent.ID)
}

func TestMutator_OverlappingFailureRevertsToConfirmedValue(t *testing.T) {
	l := &list{items: []recipe{{id: "r1", likeCount: 3}}}
	m, _ := newMutator(l, SubmitFunc(noSubmit), nil)

	first, err := m.Begin("r1", "isLiked")
	require.NoError(t, err)
	second, err := m.Begin("r1", "isLiked")
	require.NoError(t, err)
	require.False(t, l.get(t, "r1").liked)

	// The like went through, the unlike did not: the server holds a like.
	require.Equal(t, OutcomeSuperseded, m.Settle(first, nil))
	require.Equal(t, OutcomeReverted, m.Settle(second, errors.New("500")))

	r := l.get(t, "r1")
	require.True(t, r.liked)
	require.Equal(t, 4, r.likeCount)
}

func TestMutator_ClosedTargetDropsResult(t *testing.T) {
	var bus notify.Bus
	var published []notify.Change
	cancel := bus.SubscribeAll(func(c notify.Change) { published = append(published, c) })
	defer cancel()

	l := &list{items: []recipe{{id: "r1", likeCount: 2}, {id: "r2"}}}
	boom := errors.New("500")
	m, got := newMutator(l, SubmitFunc(func(_ context.Context, id, _ string) error {
		if id == "r1" {
			return boom
		}
		return nil
	}), &bus)

	failing, err := m.Begin("r1", "isLiked")
	require.NoError(t, err)
	succeeding, err := m.Begin("r2", "isSaved")
	require.NoError(t, err)
	l.Close()

	outcome, err := m.Submit(context.Background(), failing)
	require.NoError(t, err)
	require.Equal(t, OutcomeDropped, outcome)
	outcome, err = m.Submit(context.Background(), succeeding)
	require.NoError(t, err)
	require.Equal(t, OutcomeDropped, outcome)

	require.Empty(t, *got)
	require.Empty(t, published)
	require.Zero(t, m.PendingCount())
	require.True(t, l.get(t, "r1").liked)
}

func TestMutator_ConcurrentTriggersLastWins(t *testing.T) {
	l := &list{items: []recipe{{id: "r1", likeCount: 0}}}
	release := map[string]chan error{
		"like":   make(chan error),
		"unlike": make(chan error),
	}
	m, got := newMutator(l, SubmitFunc(func(_ context.Context, _ string, action string) error {
		return <-release[action]
	}), nil)

	ctx := context.Background()
	first, err := m.Begin("r1", "isLiked")
	require.NoError(t, err)
	firstDone := make(chan Outcome, 1)
	go func() {
		o, _ := m.Submit(ctx, first)
		firstDone <- o
	}()

	second, err := m.Begin("r1", "isLiked")
	require.NoError(t, err)
	secondDone := make(chan Outcome, 1)
	go func() {
		o, _ := m.Submit(ctx, second)
		secondDone <- o
	}()

	// The newer request resolves first, then the older one fails late.
	release["unlike"] <- nil
	require.Equal(t, OutcomeConfirmed, <-secondDone)
	release["like"] <- errors.New("late")
	require.Equal(t, OutcomeSuperseded, <-firstDone)

	r := l.get(t, "r1")
	require.False(t, r.liked)
	require.Equal(t, 0, r.likeCount)
	require.Len(t, *got, 1)
}

func TestMutator_EntityRemovedDuringFlight(t *testing.T) {
	l := &list{items: []recipe{{id: "r1"}}}
	m, got := newMutator(l, SubmitFunc(noSubmit), nil)

	intent, err := m.Begin("r1", "isLiked")
	require.NoError(t, err)

	l.mu.Lock()
	l.items = nil
	l.mu.Unlock()

	require.Equal(t, OutcomeDropped, m.Settle(intent, errors.New("whatever")))
	require.Empty(t, *got)
	require.Zero(t, m.PendingCount())
}

func TestMutator_Errors(t *testing.T) {
	l := &list{items: []recipe{{id: "r1"}}}
	m, _ := newMutator(l, SubmitFunc(noSubmit), nil)

	_, err := m.Begin("r1", "isPinned")
	require.ErrorIs(t, err, ErrUnknownField)

	_, err = m.Trigger(context.Background(), "missing", "isLiked")
	require.ErrorIs(t, err, ErrNotLoaded)
}

func TestMutator_BroadcastAndMirror(t *testing.T) {
	var bus notify.Bus

	feed := &list{items: []recipe{{id: "r1"}, {id: "r2"}}}
	detail := &list{items: []recipe{{id: "r1"}}}

	feedMutator, _ := newMutator(feed, SubmitFunc(noSubmit), &bus)
	detailMutator, _ := newMutator(detail, SubmitFunc(noSubmit), &bus)

	var mirrored []notify.Change
	cancel := bus.Subscribe("r1", func(c notify.Change) {
		if feedMutator.Mirror(c) {
			mirrored = append(mirrored, c)
		}
	})
	defer cancel()

	outcome, err := detailMutator.Trigger(context.Background(), "r1", "isSaved")
	require.NoError(t, err)
	require.Equal(t, OutcomeConfirmed, outcome)

	require.True(t, feed.get(t, "r1").saved)
	require.Equal(t, []notify.Change{{EntityID: "r1", Field: "isSaved", Value: true}}, mirrored)

	// Likes are not broadcast.
	_, err = detailMutator.Trigger(context.Background(), "r1", "isLiked")
	require.NoError(t, err)
	require.False(t, feed.get(t, "r1").liked)
}

func TestMutator_MirrorSkipsPendingAndNoOps(t *testing.T) {
	l := &list{items: []recipe{{id: "r1", likeCount: 5}}}
	m, _ := newMutator(l, SubmitFunc(noSubmit), nil)

	require.False(t, m.Mirror(notify.Change{EntityID: "r1", Field: "isLiked", Value: false}))
	require.True(t, m.Mirror(notify.Change{EntityID: "r1", Field: "isLiked", Value: true}))
	require.Equal(t, 6, l.get(t, "r1").likeCount)

	_, err := m.Begin("r1", "isLiked")
	require.NoError(t, err)
	require.False(t, m.Mirror(notify.Change{EntityID: "r1", Field: "isLiked", Value: true}))
	require.False(t, m.Mirror(notify.Change{EntityID: "gone", Field: "isLiked", Value: true}))
	require.False(t, m.Mirror(notify.Change{EntityID: "r1", Field: "isPinned", Value: true}))
}
