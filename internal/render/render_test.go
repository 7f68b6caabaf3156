package render

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/chatlyze/internal/engine"
	"github.com/Zuo-Peng/chatlyze/internal/index"
	"github.com/Zuo-Peng/chatlyze/internal/report"
	"github.com/Zuo-Peng/chatlyze/internal/score"
)

const chat = "01/01/24, 23:30 - Alice: anyone up? \U0001F319\n" +
	"01/01/24, 23:35 - Bob: yes, awesome night\n" +
	"01/01/24, 23:36 - Bob: look https://example.com\n" +
	"02/01/24, 08:00 - Alice: morning\n"

func analyze(t *testing.T) *report.Report {
	t.Helper()
	r, err := engine.Analyze(context.Background(), chat, engine.DefaultOptions())
	require.NoError(t, err)
	return r
}

func TestReportPlain(t *testing.T) {
	out := Report(analyze(t), Options{})

	assert.NotContains(t, out, "\033[")
	assert.Contains(t, out, "Messages      4 from 2 people")
	assert.Contains(t, out, "Reply time    4h 14m median")
	assert.Contains(t, out, "format dash_24h, dmy")
	assert.Contains(t, out, "Busiest hour 23:00")
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "Night Owl")
}

func TestReportColor(t *testing.T) {
	out := Report(analyze(t), Options{Color: true})
	assert.Contains(t, out, colorHeading+"Chat overview"+colorReset)
}

func TestUserCard(t *testing.T) {
	r := analyze(t)
	out := UserCard(r.User("Bob"), Options{})
	assert.Contains(t, out, "Replies        1, avg 5m 0s, median 5m 0s")
	assert.Contains(t, out, "Media/links    0 / 1")
	assert.Contains(t, out, "night owl")
	assert.Contains(t, out, "Best lines")

	alice := UserCard(r.User("Alice"), Options{})
	assert.Contains(t, alice, "avg 8h 24m")
	assert.Contains(t, alice, "Sentiment      +0.00")
}

func TestLeaderboard(t *testing.T) {
	r := analyze(t)
	lb, ok := score.Find(r.Leaderboards, "message_volume")
	require.True(t, ok)
	out := Leaderboard(*lb, Options{})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], " 1. Alice")
	assert.Contains(t, lines[2], " 2. Bob")

	empty := Leaderboard(score.Leaderboard{Title: "Links", Category: "links"}, Options{})
	assert.Contains(t, empty, "no data")
}

func TestHistory(t *testing.T) {
	now := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	out := History([]index.Run{{
		ID:        "0123456789abcdef",
		CreatedAt: now.Add(-2 * time.Hour),
		FilePath:  "/chats/trip.txt",
		Summary:   report.Summary{Format: "dash_24h", TotalMessages: 1200, UniqueUsers: 2, Participants: []string{"A", "B"}},
	}}, now, Options{})
	assert.Contains(t, out, "01234567  2 hours ago")
	assert.Contains(t, out, "1,200 messages, 2 people: A, B")

	assert.Contains(t, History(nil, now, Options{}), "no saved runs")
}

func TestSeconds(t *testing.T) {
	v := func(f float64) *float64 { return &f }
	assert.Equal(t, "n/a", Seconds(nil))
	assert.Equal(t, "45s", Seconds(v(45)))
	assert.Equal(t, "2m 5s", Seconds(v(125)))
	assert.Equal(t, "3h 20m", Seconds(v(12000)))
	assert.Equal(t, "2d 1h", Seconds(v(176400)))
}

func TestWrapLineSkipsEscapes(t *testing.T) {
	lines := wrapLine(colorDim+"abcdef"+colorReset, 4)
	require.Len(t, lines, 2)
	assert.Equal(t, colorDim+"abcd", lines[0])
	assert.Equal(t, "ef"+colorReset, lines[1])

	wide := wrapLine("日本語テキスト", 6)
	for _, l := range wide {
		assert.LessOrEqual(t, runewidth.StringWidth(l), 6)
	}
}

func TestCell(t *testing.T) {
	assert.Equal(t, "ab   ", cell("ab", 5))
	assert.Equal(t, 5, runewidth.StringWidth(cell("abcdefgh", 5)))
	assert.Equal(t, "   ab", rcell("ab", 5))
}
