package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/potluck/internal/api"
	"github.com/five82/potluck/internal/bulkedit"
	"github.com/five82/potluck/internal/lists"
	"github.com/five82/potluck/internal/optimistic"
	"github.com/five82/potluck/internal/paging"
	"github.com/five82/potluck/internal/prefs"
	"github.com/five82/potluck/internal/state"
)

// Tab is one of the top-level screens.
type Tab int

const (
	TabFeed Tab = iota
	TabSearch
	TabModeration
)

var tabNames = []string{"Feed", "Search", "Moderation"}

func (t Tab) String() string {
	if int(t) < len(tabNames) {
		return tabNames[t]
	}
	return "?"
}

func tabFromPref(name string) Tab {
	switch name {
	case prefs.TabSearch:
		return TabSearch
	case prefs.TabModeration:
		return TabModeration
	default:
		return TabFeed
	}
}

// Options configures the UI.
type Options struct {
	Context    context.Context
	Feed       *lists.Screen[api.Recipe]
	Search     *lists.Search
	Moderation *lists.Table[api.Recipe]
	Prefs      prefs.Prefs
	PrefsPath  string
	APIBind    string
	PollTick   time.Duration
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx        context.Context
	feed       *lists.Screen[api.Recipe]
	search     *lists.Search
	moderation *lists.Table[api.Recipe]
	prefs      prefs.Prefs
	prefsPath  string
	apiBind    string
	pollTick   time.Duration

	// UI state
	theme    Theme
	tab      Tab
	width    int
	height   int
	ready    bool
	showHelp bool
	spinner  spinner.Model
	inFlight int

	// Snapshots re-read on every tick
	feedState   state.ListState[api.Recipe]
	searchState state.ListState[api.Recipe]
	modState    state.ListState[api.Recipe]

	feedSel   int
	searchSel int
	modSel    int

	input      textinput.Model
	query      string
	historyIdx int

	status    string
	statusErr bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = 250 * time.Millisecond
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	input := textinput.New()
	input.Placeholder = "search recipes"
	input.Prompt = "/ "
	input.CharLimit = 120

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := Model{
		ctx:        ctx,
		feed:       opts.Feed,
		search:     opts.Search,
		moderation: opts.Moderation,
		prefs:      opts.Prefs,
		prefsPath:  prefsPath,
		apiBind:    opts.APIBind,
		pollTick:   pollTick,
		theme:      GetTheme(opts.Prefs.Theme),
		tab:        tabFromPref(opts.Prefs.StartTab),
		spinner:    sp,
		input:      input,
		historyIdx: -1,
	}
	if m.tab == TabSearch {
		m.input.Focus()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(m.pollTick),
		m.spinner.Tick,
		loadCmd(m.ctx, "feed", m.feed.LoadInitial),
		loadCmd(m.ctx, "moderation", m.moderation.LoadInitial),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-6, 10)
		m.ready = true
		return m, nil

	case tickMsg:
		m.refreshSnapshots()
		return m, tickCmd(m.pollTick)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadMsg:
		m.inFlight = max(m.inFlight-1, 0)
		m.refreshSnapshots()
		if msg.err != nil && !errors.Is(msg.err, paging.ErrBusy) {
			m.setError(fmt.Sprintf("%s: %v", msg.label, msg.err))
		}
		return m, nil

	case toggleMsg:
		m.inFlight = max(m.inFlight-1, 0)
		m.refreshSnapshots()
		m.handleToggleResult(msg)
		return m, nil

	case saveMsg:
		m.inFlight = max(m.inFlight-1, 0)
		m.refreshSnapshots()
		m.handleSaveResult(msg)
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.tab == TabSearch && m.input.Focused() {
		return m.handleInputKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "?":
		m.showHelp = true
		return m, nil

	case "T":
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		if m.prefsPath != "" {
			_ = prefs.Save(m.prefsPath, m.prefs)
		}
		return m, nil

	case "tab":
		return m.switchTab((m.tab + 1) % Tab(len(tabNames)))

	case "shift+tab":
		return m.switchTab((m.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames)))

	case "1":
		return m.switchTab(TabFeed)
	case "2":
		return m.switchTab(TabSearch)
	case "3":
		return m.switchTab(TabModeration)
	}

	switch m.tab {
	case TabFeed:
		return m.handleFeedKey(msg)
	case TabSearch:
		return m.handleSearchKey(msg)
	case TabModeration:
		return m.handleModerationKey(msg)
	}
	return m, nil
}

func (m Model) switchTab(t Tab) (tea.Model, tea.Cmd) {
	m.tab = t
	m.refreshSnapshots()
	if t == TabSearch && strings.TrimSpace(m.input.Value()) == "" {
		cmd := m.input.Focus()
		return m, cmd
	}
	return m, nil
}

// refreshSnapshots re-reads every list and keeps selections in range.
func (m *Model) refreshSnapshots() {
	m.feedState = m.feed.State()
	m.searchState = m.search.Results()
	m.modState = m.moderation.State()

	m.feedSel = clamp(m.feedSel, len(m.feedState.Items))
	m.searchSel = clamp(m.searchSel, len(m.searchState.Items))
	m.modSel = clamp(m.modSel, len(m.modState.Items))
}

// busy reports whether anything is loading, for the header spinner.
func (m Model) busy() bool {
	if m.inFlight > 0 {
		return true
	}
	for _, st := range []state.ListState[api.Recipe]{m.feedState, m.searchState, m.modState} {
		if st.Busy() || st.IsLoadingMore {
			return true
		}
	}
	return false
}

func (m *Model) setStatus(text string) {
	m.status = text
	m.statusErr = false
}

func (m *Model) setError(text string) {
	m.status = text
	m.statusErr = true
}

// moveSelection applies a navigation key to sel and reports whether it was
// one.
func (m Model) moveSelection(key string, sel *int, n int) bool {
	if n == 0 {
		return false
	}
	half := max((m.height-6)/2, 1)
	switch key {
	case "j", "down":
		*sel = clamp(*sel+1, n)
	case "k", "up":
		*sel = clamp(*sel-1, n)
	case "g", "home":
		*sel = 0
	case "G", "end":
		*sel = n - 1
	case "ctrl+d", "pgdown":
		*sel = clamp(*sel+half, n)
	case "ctrl+u", "pgup":
		*sel = clamp(*sel-half, n)
	default:
		return false
	}
	return true
}

// Messages

type tickMsg time.Time

type loadMsg struct {
	label string
	err   error
}

type toggleMsg struct {
	id      string
	field   string
	outcome optimistic.Outcome
	err     error
}

type saveMsg struct {
	result bulkedit.Result
	err    error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func loadCmd(ctx context.Context, label string, load func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return loadMsg{label: label, err: load(ctx)}
	}
}

func toggleCmd(ctx context.Context, intent optimistic.Intent, submit func(context.Context, optimistic.Intent) (optimistic.Outcome, error)) tea.Cmd {
	return func() tea.Msg {
		outcome, err := submit(ctx, intent)
		return toggleMsg{id: intent.EntityID, field: intent.Field, outcome: outcome, err: err}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	if opts.Feed == nil || opts.Search == nil || opts.Moderation == nil {
		return fmt.Errorf("ui requires feed, search and moderation screens")
	}
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
