package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	body := max(m.height-5, 3)
	switch m.tab {
	case TabFeed:
		b.WriteString(m.renderRecipeList(m.feedState, m.feedSel, body, "the feed is empty"))
	case TabSearch:
		b.WriteString(m.renderSearch(body))
	case TabModeration:
		b.WriteString(m.renderModeration(body))
	}

	content := b.String()
	if pad := m.height - lipgloss.Height(content) - 1; pad > 0 {
		content += strings.Repeat("\n", pad)
	}
	return content + "\n" + m.renderStatusBar()
}

// renderHeader renders the logo, API address and activity indicator.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()

	parts := []string{styles.Logo.Render("potluck")}
	if m.apiBind != "" {
		parts = append(parts, styles.MutedText.Render(m.apiBind))
	}
	if m.offline() {
		parts = append(parts, styles.DangerText.Render("offline"))
	}
	if m.busy() {
		parts = append(parts, styles.AccentText.Render(m.spinner.View()))
	}
	return styles.Header.Width(max(m.width, 1)).Render(strings.Join(parts, "  "))
}

func (m Model) offline() bool {
	return m.feedState.IsOffline() || m.modState.IsOffline()
}

func (m Model) renderTabs() string {
	styles := m.theme.Styles()
	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if Tab(i) == TabModeration {
			if n := m.moderation.PendingCount(); n > 0 {
				label += fmt.Sprintf(" (%d)", n)
			}
		}
		if Tab(i) == m.tab {
			tabs[i] = styles.ActiveTab.Render(label)
		} else {
			tabs[i] = styles.Tab.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderStatusBar shows the last status message and the tab's key hints.
func (m Model) renderStatusBar() string {
	styles := m.theme.Styles()

	hints := map[Tab]string{
		TabFeed:       "j/k move  l like  s save  r refresh  ? help",
		TabSearch:     "/ edit  H history  x clear  l like  s save  ? help",
		TabModeration: "j/k move  enter status  S save  u discard  ? help",
	}[m.tab]

	left := styles.FaintText.Render(hints)
	if m.status != "" {
		style := styles.MutedText
		if m.statusErr {
			style = styles.DangerText
		}
		left = style.Render(truncate(m.status, max(m.width-4, 10)))
	}
	return styles.Footer.Width(max(m.width, 1)).Render(left)
}
