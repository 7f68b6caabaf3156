package score

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/chatlyze/internal/stats"
)

func f64(v float64) *float64 { return &v }

func user(name string, firstMinute, index int) stats.UserMetrics {
	return stats.UserMetrics{
		Author:         name,
		FirstMessageAt: time.Date(2024, 1, 1, 9, firstMinute, 0, 0, time.UTC),
		FirstIndex:     index,
		MessageCount:   1,
		Achievements:   []string{},
	}
}

func TestHighestWinsAndLeaderboardIsFull(t *testing.T) {
	a, b, c := user("a", 0, 0), user("b", 1, 1), user("c", 2, 2)
	a.MessageCount, b.MessageCount, c.MessageCount = 3, 10, 5
	users := []stats.UserMetrics{a, b, c}

	boards := Evaluate(users, DefaultCategories())
	lb, ok := Find(boards, "message_volume")
	require.True(t, ok)

	assert.Equal(t, "b", lb.Winner)
	require.Len(t, lb.Entries, 3)
	assert.Equal(t, []string{"b", "c", "a"}, []string{lb.Entries[0].Author, lb.Entries[1].Author, lb.Entries[2].Author})
	assert.Equal(t, 1, lb.Entries[0].Rank)
	assert.Contains(t, users[1].Achievements, "message_volume")
	assert.NotContains(t, users[0].Achievements, "message_volume")
}

func TestTieBreakByFirstMessage(t *testing.T) {
	// listed second but wrote first
	wroteFirst, listedFirst := user("wrote-first", 0, 1), user("listed-first", 5, 0)
	wroteFirst.QuestionCount, listedFirst.QuestionCount = 2, 2
	users := []stats.UserMetrics{listedFirst, wroteFirst}

	boards := Evaluate(users, DefaultCategories())
	lb, _ := Find(boards, "questions")
	assert.Equal(t, "wrote-first", lb.Winner)

	// identical timestamps fall back to first appearance
	x, y := user("x", 0, 4), user("y", 0, 2)
	x.LinkCount, y.LinkCount = 1, 1
	boards = Evaluate([]stats.UserMetrics{x, y}, DefaultCategories())
	lb, _ = Find(boards, "links")
	assert.Equal(t, "y", lb.Winner)
}

func TestZeroCountsAreNotAwarded(t *testing.T) {
	users := []stats.UserMetrics{user("a", 0, 0), user("b", 1, 1)}
	boards := Evaluate(users, DefaultCategories())

	lb, _ := Find(boards, "media")
	assert.Empty(t, lb.Winner)
	require.Len(t, lb.Entries, 2)
	assert.False(t, lb.Entries[0].Eligible)
	assert.NotContains(t, users[0].Achievements, "media")
}

func TestFastestResponderUsesLowest(t *testing.T) {
	a, b, c := user("a", 0, 0), user("b", 1, 1), user("c", 2, 2)
	a.AvgResponseSeconds = f64(300)
	b.AvgResponseSeconds = f64(45)
	users := []stats.UserMetrics{a, b, c}

	boards := Evaluate(users, DefaultCategories())
	lb, _ := Find(boards, "fastest_responder")
	assert.Equal(t, "b", lb.Winner)
	// c never replied and is not ranked
	require.Len(t, lb.Entries, 2)
	assert.Equal(t, "lowest", lb.Direction.String())
}

func TestThresholds(t *testing.T) {
	a, b := user("a", 0, 0), user("b", 1, 1)
	a.AvgResponseSeconds = f64(600)
	b.AvgResponseSeconds = f64(900)
	a.EmojiCount = 3

	cats, err := Configure(DefaultCategories(), map[string]float64{"fastest_responder": 300, "emoji": 5}, nil)
	require.NoError(t, err)
	boards := Evaluate([]stats.UserMetrics{a, b}, cats)

	lb, _ := Find(boards, "fastest_responder")
	assert.Empty(t, lb.Winner)
	lb, _ = Find(boards, "emoji")
	assert.Empty(t, lb.Winner)
}

func TestConfigure(t *testing.T) {
	cats, err := Configure(DefaultCategories(), nil, []string{"media", "links"})
	require.NoError(t, err)
	assert.Len(t, cats, len(DefaultCategories())-2)
	_, ok := Find(Evaluate(nil, cats), "media")
	assert.False(t, ok)

	_, err = Configure(DefaultCategories(), nil, []string{"nope"})
	assert.Error(t, err)
	_, err = Configure(DefaultCategories(), map[string]float64{"nope": 1}, nil)
	assert.Error(t, err)
}

func TestPositiveVibesSkipsUndefined(t *testing.T) {
	a, b := user("a", 0, 0), user("b", 1, 1)
	b.SentimentAvg = f64(0.2)
	users := []stats.UserMetrics{a, b}
	boards := Evaluate(users, DefaultCategories())

	lb, _ := Find(boards, "positive_vibes")
	assert.Equal(t, "b", lb.Winner)
	assert.Len(t, lb.Entries, 1)
	assert.Contains(t, users[1].Achievements, "positive_vibes")
}

func TestAchievementsFollowCategoryOrder(t *testing.T) {
	a := user("a", 0, 0)
	a.MessageCount, a.WordCount, a.QuestionCount, a.AvgQuality = 5, 10, 1, 0.4
	users := []stats.UserMetrics{a}
	Evaluate(users, DefaultCategories())

	assert.Equal(t, []string{"message_volume", "word_count", "questions", "top_quality"}, users[0].Achievements)
}

func TestNightOwlFollowsShareAndFlag(t *testing.T) {
	// busy has more night messages but a small share of its own traffic
	busy, owl := user("busy", 0, 0), user("owl", 1, 1)
	busy.MessageCount, busy.NightCount, busy.NightShare = 40, 8, 0.2
	owl.MessageCount, owl.NightCount, owl.NightShare, owl.NightOwl = 4, 3, 0.75, true
	users := []stats.UserMetrics{busy, owl}

	boards := Evaluate(users, DefaultCategories())
	lb, ok := Find(boards, "night_owl")
	require.True(t, ok)
	assert.Equal(t, "owl", lb.Winner)
	assert.Equal(t, 0.75, lb.Entries[0].Value)
	assert.False(t, lb.Entries[1].Eligible)

	// nobody above the share threshold, nobody wins
	users[1].NightOwl, users[1].Achievements = false, nil
	boards = Evaluate(users, DefaultCategories())
	lb, _ = Find(boards, "night_owl")
	assert.Empty(t, lb.Winner)
	assert.NotContains(t, users[1].Achievements, "night_owl")
}
