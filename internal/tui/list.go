package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// linesPerItem is the number of terminal lines each row occupies.
const linesPerItem = 2

// renderList renders the left panel with scrolling.
func (m model) renderList(width, height int) string {
	if len(m.items) == 0 {
		return lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No matches")
	}

	var lines []string
	for i, it := range m.items {
		if i < m.listOffset {
			continue
		}
		if len(lines)+linesPerItem > height {
			break
		}
		lines = append(lines, formatItem(it, width, i == m.cursor)...)
	}

	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}

	return strings.Join(lines, "\n")
}

// formatItem formats a row as two lines:
//
//	line 1: [>] title
//	line 2:    detail (dimmed)
func formatItem(it item, width int, selected bool) []string {
	title := strings.ReplaceAll(it.title, "\n", " ")
	titleMax := width - 2
	if titleMax < 0 {
		titleMax = 0
	}
	if runewidth.StringWidth(title) > titleMax {
		title = runewidth.Truncate(title, titleMax, "")
	}

	line1 := "  " + title
	if selected {
		line1 = styleListSelected.Render("> " + title)
	}

	detail := it.detail
	detailMax := width - 4 // indent
	if detailMax < 0 {
		detailMax = 0
	}
	if runewidth.StringWidth(detail) > detailMax {
		detail = runewidth.Truncate(detail, detailMax, "")
	}
	line2 := "    " + styleListDetail.Render(detail)

	return []string{line1, line2}
}

// adjustListScroll keeps the cursor visible within the list viewport.
func (m *model) adjustListScroll(listHeight int) {
	visibleItems := listHeight / linesPerItem
	if visibleItems < 1 {
		visibleItems = 1
	}
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visibleItems {
		m.listOffset = m.cursor - visibleItems + 1
	}
}

func (m model) tabs() string {
	names := []string{fmt.Sprintf("People (%d)", len(m.report.Users)), fmt.Sprintf("Awards (%d)", len(m.report.Leaderboards))}
	for i, n := range names {
		if tab(i) == m.tab {
			names[i] = styleTabActive.Render(n)
		} else {
			names[i] = styleTab.Render(n)
		}
	}
	return strings.Join(names, "  ")
}
