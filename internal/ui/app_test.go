package ui

import (
	"context"
	"io"
	"log"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/potluck/internal/api"
	"github.com/five82/potluck/internal/devserver"
	"github.com/five82/potluck/internal/lists"
	"github.com/five82/potluck/internal/notify"
	"github.com/five82/potluck/internal/prefs"
)

type harness struct {
	srv   *devserver.Server
	model Model
}

func newHarness(t *testing.T, p prefs.Prefs) *harness {
	t.Helper()
	quiet := log.New(io.Discard, "", 0)
	srv := devserver.New(devserver.Seed(45), devserver.Options{Logger: quiet})
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	client, err := api.NewClient(ts.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ctx := context.Background()
	opts := lists.Options{PageSize: 10, Lookahead: 3, Bus: &notify.Bus{}, Logger: quiet, Window: time.Hour}
	feed := lists.NewFeed(client, opts)
	results := lists.NewSearch(ctx, client, opts, nil)
	moderation := lists.NewModeration(client, opts)
	t.Cleanup(func() {
		feed.Close()
		results.Close()
		moderation.Close()
	})

	if err := feed.LoadInitial(ctx); err != nil {
		t.Fatalf("feed LoadInitial: %v", err)
	}
	if err := moderation.LoadInitial(ctx); err != nil {
		t.Fatalf("moderation LoadInitial: %v", err)
	}

	m := New(Options{
		Context:    ctx,
		Feed:       feed,
		Search:     results,
		Moderation: moderation,
		Prefs:      p,
		PrefsPath:  filepath.Join(t.TempDir(), "prefs.toml"),
		APIBind:    ts.URL,
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m = update(t, m, tickMsg(time.Now()))
	return &harness{srv: srv, model: m}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

// press sends one key and returns the model and any command it produced.
func press(t *testing.T, m Model, k string) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(keyMsg(k))
	return next.(Model), cmd
}

// settle runs cmd synchronously and feeds its message back.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	return update(t, m, cmd())
}

func TestStartTabFromPrefs(t *testing.T) {
	h := newHarness(t, prefs.Prefs{StartTab: prefs.TabModeration})
	if h.model.tab != TabModeration {
		t.Fatalf("tab = %v, want Moderation", h.model.tab)
	}

	h = newHarness(t, prefs.Prefs{StartTab: prefs.TabSearch})
	if h.model.tab != TabSearch || !h.model.input.Focused() {
		t.Fatalf("search start tab should focus the input")
	}
}

func TestTabSwitching(t *testing.T) {
	m := newHarness(t, prefs.Default()).model

	m, _ = press(t, m, "tab")
	if m.tab != TabSearch {
		t.Fatalf("tab = %v, want Search", m.tab)
	}
	if !m.input.Focused() {
		t.Fatalf("empty search should focus the input")
	}
	m, _ = press(t, m, "tab")
	if m.tab != TabModeration {
		t.Fatalf("tab = %v, want Moderation", m.tab)
	}
	m, _ = press(t, m, "1")
	if m.tab != TabFeed {
		t.Fatalf("tab = %v, want Feed", m.tab)
	}
}

func TestFeedScrollLoadsMore(t *testing.T) {
	m := newHarness(t, prefs.Default()).model
	if got := len(m.feedState.Items); got != 10 {
		t.Fatalf("feed items = %d, want 10", got)
	}

	m, cmd := press(t, m, "j")
	if m.feedSel != 1 || cmd != nil {
		t.Fatalf("j: sel = %d, cmd = %v; want 1, nil", m.feedSel, cmd)
	}

	m, cmd = press(t, m, "G")
	if m.feedSel != 9 {
		t.Fatalf("G: sel = %d, want 9", m.feedSel)
	}
	m = settle(t, m, cmd)
	if got := len(m.feedState.Items); got != 20 {
		t.Fatalf("after load more items = %d, want 20", got)
	}
	if m.statusErr {
		t.Fatalf("unexpected error status %q", m.status)
	}
}

func TestFeedLikeToggle(t *testing.T) {
	h := newHarness(t, prefs.Default())
	m := h.model

	m, _ = press(t, m, "j")
	target := m.feedState.Items[1]
	m, cmd := press(t, m, "l")
	m = settle(t, m, cmd)

	if !strings.Contains(m.status, "like "+target.ID+" confirmed") {
		t.Fatalf("status = %q", m.status)
	}
	got := m.feedState.Items[1]
	if got.IsLiked == target.IsLiked {
		t.Fatalf("IsLiked not toggled")
	}
	stored, _ := h.srv.Recipe(target.ID)
	if stored.IsLiked != got.IsLiked || stored.LikeCount != got.LikeCount {
		t.Fatalf("server = %+v, client = %+v", stored, got)
	}
}

func TestFeedLikeShowsBeforeServerAnswers(t *testing.T) {
	h := newHarness(t, prefs.Default())
	m := h.model

	before := m.feedState.Items[0]
	m, cmd := press(t, m, "l")
	if cmd == nil {
		t.Fatalf("like should send a request")
	}
	got := m.feedState.Items[0]
	if got.IsLiked == before.IsLiked {
		t.Fatalf("row not toggled on keypress: %+v", got)
	}
	want := before.LikeCount + 1
	if before.IsLiked {
		want = before.LikeCount - 1
	}
	if got.LikeCount != want {
		t.Fatalf("like count = %d, want %d", got.LikeCount, want)
	}

	m = settle(t, m, cmd)
	if m.feedState.Items[0] != got {
		t.Fatalf("confirmed row changed: %+v, want %+v", m.feedState.Items[0], got)
	}
}

func TestFeedLikeRejectedShowsError(t *testing.T) {
	h := newHarness(t, prefs.Default())
	m := h.model
	h.srv.SetFailEvery(1)

	before := m.feedState.Items[0]
	m, cmd := press(t, m, "l")
	m = settle(t, m, cmd)

	if !m.statusErr || !strings.Contains(m.status, "reverted") {
		t.Fatalf("status = %q (err=%v)", m.status, m.statusErr)
	}
	after := m.feedState.Items[0]
	if after.IsLiked != before.IsLiked || after.LikeCount != before.LikeCount {
		t.Fatalf("row not restored: before %+v after %+v", before, after)
	}
}

func TestSearchTypingUpdatesQuery(t *testing.T) {
	m := newHarness(t, prefs.Default()).model

	m, _ = press(t, m, "2")
	for _, r := range "dal" {
		m, _ = press(t, m, string(r))
	}
	if m.search.Query() != "dal" {
		t.Fatalf("debouncer query = %q, want dal", m.search.Query())
	}
	if !strings.Contains(m.View(), "searching") {
		t.Fatalf("pending search should show a searching hint")
	}

	m, _ = press(t, m, "esc")
	if m.input.Focused() {
		t.Fatalf("esc should blur the input")
	}
	m, _ = press(t, m, "x")
	if m.search.Query() != "" || m.input.Value() != "" {
		t.Fatalf("x should clear the query")
	}
}

func TestModerationCycleAndSave(t *testing.T) {
	h := newHarness(t, prefs.Prefs{StartTab: prefs.TabModeration})
	m := h.model

	id := m.modState.Items[0].ID
	m, _ = press(t, m, "enter")
	if m.moderation.PendingCount() != 1 || !m.moderation.IsDirty(id) {
		t.Fatalf("enter should stage one edit")
	}
	want, _ := m.moderation.Value(id)
	if !strings.Contains(m.View(), "1 unsaved edits") {
		t.Fatalf("view should show the pending count")
	}

	m, cmd := press(t, m, "S")
	m = settle(t, m, cmd)
	if m.status != "saved 1 edits" {
		t.Fatalf("status = %q", m.status)
	}
	if m.moderation.PendingCount() != 0 {
		t.Fatalf("pending = %d after save", m.moderation.PendingCount())
	}
	stored, _ := h.srv.Recipe(id)
	if stored.Status != want {
		t.Fatalf("server status = %q, want %q", stored.Status, want)
	}
	if m.modState.Items[0].Status != want {
		t.Fatalf("row status = %q, want %q", m.modState.Items[0].Status, want)
	}
}

func TestModerationDiscard(t *testing.T) {
	m := newHarness(t, prefs.Prefs{StartTab: prefs.TabModeration}).model

	m, _ = press(t, m, "enter")
	m, _ = press(t, m, "j")
	m, _ = press(t, m, "enter")
	if m.moderation.PendingCount() != 2 {
		t.Fatalf("pending = %d, want 2", m.moderation.PendingCount())
	}
	m, _ = press(t, m, "u")
	if m.moderation.PendingCount() != 0 || m.status != "discarded 2 edits" {
		t.Fatalf("discard: pending = %d, status = %q", m.moderation.PendingCount(), m.status)
	}
	m, cmd := press(t, m, "S")
	if cmd != nil || m.status != "nothing to save" {
		t.Fatalf("S with nothing pending: cmd = %v, status = %q", cmd, m.status)
	}
}

func TestThemeCyclePersists(t *testing.T) {
	m := newHarness(t, prefs.Default()).model

	m, _ = press(t, m, "T")
	if m.theme.Name != "Nightfox" {
		t.Fatalf("theme = %q, want Nightfox", m.theme.Name)
	}
	if got := prefs.Load(m.prefsPath); got.Theme != "Nightfox" {
		t.Fatalf("saved theme = %q, want Nightfox", got.Theme)
	}
}

func TestHelpOverlay(t *testing.T) {
	m := newHarness(t, prefs.Default()).model

	m, _ = press(t, m, "?")
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Fatalf("help overlay not shown")
	}
	m, _ = press(t, m, "j")
	if m.showHelp || m.feedSel != 0 {
		t.Fatalf("any key should only close help")
	}
}
