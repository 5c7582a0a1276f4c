package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/potluck/internal/api"
	"github.com/five82/potluck/internal/bulkedit"
)

// handleModerationKey processes keys for the moderation table. Status
// changes stay local until S commits them as one batch.
func (m Model) handleModerationKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	items := m.modState.Items

	if m.moveSelection(key, &m.modSel, len(items)) {
		if m.moderation.Paginator().ShouldLoadMore(m.modSel) {
			m.inFlight++
			return m, loadCmd(m.ctx, "load more", m.moderation.LoadMore)
		}
		return m, nil
	}

	switch key {
	case "enter", "c", " ":
		if len(items) == 0 {
			return m, nil
		}
		id := items[m.modSel].ID
		next, err := m.moderation.Cycle(id)
		if err != nil {
			m.setError(fmt.Sprintf("%s: %v", id, err))
			return m, nil
		}
		m.setStatus(fmt.Sprintf("%s → %s", id, next))

	case "S":
		if m.moderation.PendingCount() == 0 {
			m.setStatus("nothing to save")
			return m, nil
		}
		m.setStatus(fmt.Sprintf("saving %d edits", m.moderation.PendingCount()))
		m.inFlight++
		return m, saveCmd(m.ctx, m.moderation.Save)

	case "u":
		if n := m.moderation.PendingCount(); n > 0 {
			m.moderation.Discard()
			m.setStatus(fmt.Sprintf("discarded %d edits", n))
		}

	case "r":
		if n := m.moderation.PendingCount(); n > 0 {
			m.setStatus(fmt.Sprintf("reloading, %d unsaved edits dropped", n))
		}
		m.inFlight++
		return m, loadCmd(m.ctx, "refresh", m.moderation.Refresh)
	}
	return m, nil
}

func saveCmd(ctx context.Context, save func(context.Context) (bulkedit.Result, error)) tea.Cmd {
	return func() tea.Msg {
		res, err := save(ctx)
		return saveMsg{result: res, err: err}
	}
}

func (m *Model) handleSaveResult(msg saveMsg) {
	res := msg.result
	var partial *bulkedit.PartialFailure
	switch {
	case errors.As(msg.err, &partial):
		m.setError(fmt.Sprintf("%s; failed rows stay pending (S to retry)", partial.Error()))
	case msg.err != nil:
		m.setError("save: " + msg.err.Error())
	case res.Abandoned > 0:
		m.setStatus(fmt.Sprintf("saved %d, %d dropped by reload", res.Succeeded, res.Abandoned))
	default:
		m.setStatus(fmt.Sprintf("saved %d edits", res.Succeeded))
	}
}

func (m Model) renderModeration(height int) string {
	styles := m.theme.Styles()
	st := m.modState

	if len(st.Items) == 0 {
		switch {
		case st.IsLoading:
			return styles.MutedText.Render(m.spinner.View() + " loading...")
		case st.Err != nil:
			return styles.DangerText.Render("error: " + st.Err.Error())
		default:
			return styles.MutedText.Render("no recipes to moderate")
		}
	}

	rows := max(height-2, 1)
	start, end := visibleWindow(m.modSel, len(st.Items), rows)
	titleWidth := max(m.width-40, 16)

	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(m.renderModerationRow(st.Items[i], i == m.modSel, titleWidth))
		b.WriteString("\n")
	}
	b.WriteString(m.renderListFooter(st, len(st.Items)))
	if n := m.moderation.PendingCount(); n > 0 {
		b.WriteString("\n")
		b.WriteString(styles.WarningText.Render(fmt.Sprintf("%d unsaved edits", n)))
		b.WriteString(styles.FaintText.Render("  S save  u discard"))
	}
	return b.String()
}

func (m Model) renderModerationRow(r api.Recipe, selected bool, titleWidth int) string {
	styles := m.theme.Styles()

	status, ok := m.moderation.Value(r.ID)
	if !ok {
		status = r.Status
	}
	dirty := m.moderation.IsDirty(r.ID)

	marker := ternary(selected, "▸ ", "  ")
	line := marker + padRight(r.ID, 6) + " " + padRight(truncate(r.Title, titleWidth), titleWidth) + " " +
		padRight(truncate(r.Author.Label(), 14), 14)
	if selected {
		line = styles.Selected.Render(line)
	} else {
		line = styles.Text.Render(line)
	}

	badge := styles.StatusStyle(status).Render(padRight(status, 9))
	mark := ternary(dirty, styles.WarningText.Render(" *"), "")
	return line + " " + badge + mark
}
