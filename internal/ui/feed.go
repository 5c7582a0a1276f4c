package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/potluck/internal/api"
	"github.com/five82/potluck/internal/lists"
	"github.com/five82/potluck/internal/optimistic"
	"github.com/five82/potluck/internal/state"
)

// handleFeedKey processes keyboard input for the feed tab.
func (m Model) handleFeedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	items := m.feedState.Items

	if m.moveSelection(key, &m.feedSel, len(items)) {
		if m.feed.Paginator().ShouldLoadMore(m.feedSel) {
			sel := m.feedSel
			m.inFlight++
			return m, loadCmd(m.ctx, "load more", func(ctx context.Context) error {
				return m.feed.MaybeLoadMore(ctx, sel)
			})
		}
		return m, nil
	}

	switch key {
	case "r":
		m.setStatus("refreshing feed")
		m.inFlight++
		return m, loadCmd(m.ctx, "refresh", m.feed.Refresh)

	case "R":
		if m.feedState.Err != nil && len(items) == 0 {
			m.inFlight++
			return m, loadCmd(m.ctx, "feed", m.feed.LoadInitial)
		}

	case "l", "s":
		if len(items) == 0 {
			return m, nil
		}
		field := lists.FieldLiked
		if key == "s" {
			field = lists.FieldSaved
		}
		return m.beginToggle(m.feed.Mutator(), items[m.feedSel].ID, field)
	}
	return m, nil
}

// beginToggle flips the row before this update returns so the next render
// shows it. Only the request runs in the background.
func (m Model) beginToggle(mut *optimistic.Mutator[api.Recipe], id, field string) (tea.Model, tea.Cmd) {
	intent, err := mut.Begin(id, field)
	if err != nil {
		m.setError(fmt.Sprintf("%s %s: %v", toggleVerb(field), id, err))
		return m, nil
	}
	m.refreshSnapshots()
	m.inFlight++
	return m, toggleCmd(m.ctx, intent, mut.Submit)
}

func toggleVerb(field string) string {
	if field == lists.FieldSaved {
		return "save"
	}
	return "like"
}

func (m *Model) handleToggleResult(msg toggleMsg) {
	verb := toggleVerb(msg.field)
	switch msg.outcome {
	case optimistic.OutcomeConfirmed:
		m.setStatus(fmt.Sprintf("%s %s confirmed", verb, msg.id))
	case optimistic.OutcomeReverted:
		m.setError(fmt.Sprintf("%s %s failed, reverted: %v", verb, msg.id, msg.err))
	default:
		if msg.err != nil {
			m.setError(fmt.Sprintf("%s %s: %v", verb, msg.id, msg.err))
		}
	}
}

// renderRecipeList renders a window of recipe rows around sel.
func (m Model) renderRecipeList(st state.ListState[api.Recipe], sel, height int, empty string) string {
	styles := m.theme.Styles()

	if len(st.Items) == 0 {
		switch {
		case st.IsLoading:
			return styles.MutedText.Render(m.spinner.View() + " loading...")
		case st.Err != nil:
			return styles.DangerText.Render("error: "+st.Err.Error()) + "\n" +
				styles.MutedText.Render("press R to retry")
		default:
			return styles.MutedText.Render(empty)
		}
	}

	rows := max(height-1, 1)
	start, end := visibleWindow(sel, len(st.Items), rows)
	titleWidth := max(m.width-36, 16)

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(m.renderRecipeRow(st.Items[i], i == sel, titleWidth))
		b.WriteString("\n")
	}
	b.WriteString(m.renderListFooter(st, len(st.Items)))
	return b.String()
}

func (m Model) renderRecipeRow(r api.Recipe, selected bool, titleWidth int) string {
	styles := m.theme.Styles()

	like := styles.MutedText.Render("♡ " + padRight(compactCount(r.LikeCount), 5))
	if r.IsLiked {
		like = styles.DangerText.Render("♥ " + padRight(compactCount(r.LikeCount), 5))
	}
	save := styles.MutedText.Render("☆ " + padRight(compactCount(r.SaveCount), 5))
	if r.IsSaved {
		save = styles.WarningText.Render("★ " + padRight(compactCount(r.SaveCount), 5))
	}

	title := padRight(truncate(r.Title, titleWidth), titleWidth)
	author := padRight(truncate(r.Author.Label(), 14), 14)
	marker := ternary(selected, "▸ ", "  ")

	if selected {
		return styles.Selected.Render(marker+title+" "+author) + " " + like + save
	}
	return marker + styles.Text.Render(title) + " " + styles.MutedText.Render(author) + " " + like + save
}

// renderListFooter shows the paging status below a list.
func (m Model) renderListFooter(st state.ListState[api.Recipe], count int) string {
	styles := m.theme.Styles()
	switch {
	case st.IsLoadingMore:
		return styles.MutedText.Render(m.spinner.View() + " loading more...")
	case st.IsRefreshing:
		return styles.MutedText.Render(m.spinner.View() + " refreshing...")
	case st.Err != nil:
		return styles.DangerText.Render("error: " + st.Err.Error())
	case !st.HasMore:
		return styles.FaintText.Render(fmt.Sprintf("%d items, end of list", count))
	default:
		return styles.FaintText.Render(fmt.Sprintf("%d items", count))
	}
}

// visibleWindow returns the [start, end) slice of n rows that keeps sel in a
// viewport of height rows.
func visibleWindow(sel, n, height int) (int, int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start := sel - height/2
	start = max(start, 0)
	start = min(start, n-height)
	return start, start + height
}
