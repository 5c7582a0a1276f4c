package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/potluck/internal/lists"
)

// handleInputKey processes keys while the search box has focus. Every edit
// goes to the debouncer; it decides when a request is sent.
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "enter", "down":
		m.input.Blur()
		return m, nil
	case "tab":
		m.input.Blur()
		return m.switchTab(TabModeration)
	case "shift+tab":
		m.input.Blur()
		return m.switchTab(TabFeed)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.setQuery(m.input.Value())
	return m, cmd
}

func (m *Model) setQuery(q string) {
	if q == m.query {
		return
	}
	m.query = q
	m.searchSel = 0
	m.search.SetQuery(q)
	if strings.TrimSpace(q) == "" {
		m.historyIdx = -1
	}
}

// handleSearchKey processes keys for the search results list.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	items := m.searchState.Items

	if m.moveSelection(key, &m.searchSel, len(items)) {
		if m.search.ShouldLoadMore(m.searchSel) {
			m.inFlight++
			return m, loadCmd(m.ctx, "load more", m.search.LoadMore)
		}
		return m, nil
	}

	switch key {
	case "/", "i":
		cmd := m.input.Focus()
		return m, tea.Batch(cmd, textinput.Blink)

	case "H":
		history := m.search.History()
		if len(history) == 0 {
			m.setStatus("no recent searches")
			return m, nil
		}
		m.historyIdx = (m.historyIdx + 1) % len(history)
		m.input.SetValue(history[m.historyIdx])
		m.input.CursorEnd()
		m.setQuery(history[m.historyIdx])
		return m, nil

	case "x":
		m.input.SetValue("")
		m.setQuery("")
		m.refreshSnapshots()
		return m, nil

	case "l", "s":
		if len(items) == 0 {
			return m, nil
		}
		field := lists.FieldLiked
		if key == "s" {
			field = lists.FieldSaved
		}
		return m.beginToggle(m.search.Mutator(), items[m.searchSel].ID, field)
	}
	return m, nil
}

func (m Model) renderSearch(height int) string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteString("\n")

	if strings.TrimSpace(m.query) == "" {
		history := m.search.History()
		if len(history) == 0 {
			b.WriteString(styles.MutedText.Render("type to search recipes"))
			return b.String()
		}
		b.WriteString(styles.AccentText.Render("Recent searches"))
		b.WriteString(styles.FaintText.Render("  (H to recall)"))
		b.WriteString("\n")
		for _, q := range history {
			b.WriteString("  ")
			b.WriteString(styles.Text.Render(q))
			b.WriteString("\n")
		}
		return b.String()
	}

	empty := "no recipes match " + `"` + strings.TrimSpace(m.query) + `"`
	if m.searchState.Generation == 0 && m.searchState.Err == nil {
		empty = m.spinner.View() + " searching..."
	}
	b.WriteString(m.renderRecipeList(m.searchState, m.searchSel, height-1, empty))
	return b.String()
}
