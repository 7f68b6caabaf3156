package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/chatlyze/internal/engine"
	"github.com/Zuo-Peng/chatlyze/internal/report"
)

const chat = "01/01/24, 23:30 - Alice: anyone up?\n" +
	"01/01/24, 23:35 - Bob: yes, awesome night\n" +
	"01/01/24, 23:40 - Carol: me too\n"

func newTestModel(t *testing.T) (model, *[]string) {
	t.Helper()
	r, err := engine.Analyze(context.Background(), chat, engine.DefaultOptions())
	require.NoError(t, err)
	m := initialModel(r, "chat.txt")
	var copied []string
	m.copy = func(s string) error {
		copied = append(copied, s)
		return nil
	}
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(model), &copied
}

func press(t *testing.T, m model, msgs ...tea.KeyMsg) model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(model)
	}
	return m
}

func titles(items []item) []string {
	var out []string
	for _, it := range items {
		out = append(out, it.title)
	}
	return out
}

func TestPeopleListAndNavigation(t *testing.T) {
	m, _ := newTestModel(t)
	assert.Equal(t, []string{"Overview", "Alice", "Bob", "Carol"}, titles(m.items))
	assert.Contains(t, m.preview.View(), "Chat overview")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, m.cursor)
	assert.Contains(t, m.preview.View(), "Bob")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyUp}, tea.KeyMsg{Type: tea.KeyUp}, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.cursor)
}

func TestSwitchToAwards(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, tabAwards, m.tab)
	require.Len(t, m.items, len(m.report.Leaderboards))
	assert.Equal(t, "Chatterbox", m.items[0].title)
	assert.Equal(t, "won by Alice", m.items[0].detail)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, tabPeople, m.tab)
}

func TestFilter(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("car")})
	assert.Equal(t, []string{"Carol"}, titles(m.items))
	assert.Contains(t, m.preview.View(), "Carol")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("zz")})
	assert.Empty(t, m.items)
	assert.Contains(t, m.renderList(30, 4), "No matches")
}

func TestCopyUsesPlainText(t *testing.T) {
	m, copied := newTestModel(t)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, *copied, 1)
	assert.True(t, strings.HasPrefix((*copied)[0], "Alice\n"))
	assert.NotContains(t, (*copied)[0], "\033[")
	assert.Equal(t, "copied Alice", m.status)

	m.copy = func(string) error { return errors.New("no display") }
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, m.status, "no display")
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, next.(model).quitting)
	require.NotNil(t, cmd)
	assert.Equal(t, "", next.(model).View())
}

func TestEmptyLeaderboardsStillRender(t *testing.T) {
	m := initialModel(&report.Report{}, "empty")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	m = next.(model)
	assert.NotEmpty(t, m.View())
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Empty(t, m.items)
}
