package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/chatlyze/internal/content"
	"github.com/Zuo-Peng/chatlyze/internal/parse"
	"github.com/Zuo-Peng/chatlyze/internal/temporal"
)

func aggregate(t *testing.T, text string, opts Options) []UserMetrics {
	t.Helper()
	conv, err := parse.Parse(text, parse.DefaultOptions())
	require.NoError(t, err)
	feats, err := content.NewAnalyzer(content.DefaultOptions()).AnalyzeAll(context.Background(), conv.Messages, 2)
	require.NoError(t, err)
	profile := temporal.Aggregate(conv.Messages, temporal.DefaultOptions())
	return Aggregate(conv.Messages, feats, &profile, opts)
}

func TestTwoPartyResponseTime(t *testing.T) {
	users := aggregate(t, "[01/01/24, 09:00:00 AM] Alice: Hello!\n[01/01/24, 09:02:00 AM] Bob: Hi back!", DefaultOptions())

	require.Len(t, users, 2)
	alice, bob := users[0], users[1]
	assert.Equal(t, "Alice", alice.Author)
	assert.Nil(t, alice.AvgResponseSeconds)
	assert.Nil(t, alice.MedianResponseSeconds)

	require.NotNil(t, bob.AvgResponseSeconds)
	assert.Equal(t, 120.0, *bob.AvgResponseSeconds)
	d, ok := bob.AvgResponseTime()
	assert.True(t, ok)
	assert.Equal(t, 2*time.Minute, d)
	assert.Equal(t, 1, bob.ResponseCount)

	assert.InDelta(t, 0.5, alice.MessageShare, 1e-9)
	assert.Equal(t, 1, alice.ConversationStarters)
	assert.Equal(t, 0, bob.ConversationStarters)
}

func TestSoloAuthorHasNoResponseTime(t *testing.T) {
	users := aggregate(t, "01/01/24, 09:00 - Solo: one\n01/01/24, 09:05 - Solo: two\n01/01/24, 09:07 - Solo: three", DefaultOptions())

	require.Len(t, users, 1)
	assert.Nil(t, users[0].AvgResponseSeconds)
	assert.Equal(t, 0, users[0].ResponseCount)
	assert.Equal(t, 1.0, users[0].MessageShare)
}

func TestResponsesSkipSystemMessagesAndSameAuthor(t *testing.T) {
	text := "01/01/24, 09:00 - A: q\n" +
		"01/01/24, 09:01 - A: still me\n" +
		"01/01/24, 09:02 - A added C\n" +
		"01/01/24, 09:04 - B: reply\n" +
		"01/01/24, 09:10 - A: back\n"
	users := aggregate(t, text, DefaultOptions())

	require.Len(t, users, 2)
	a, b := users[0], users[1]
	require.NotNil(t, b.AvgResponseSeconds)
	assert.Equal(t, 180.0, *b.AvgResponseSeconds)
	require.NotNil(t, a.AvgResponseSeconds)
	assert.Equal(t, 360.0, *a.AvgResponseSeconds)
	assert.Equal(t, 1, a.ResponseCount)
}

func TestMedianAndMaxResponseGap(t *testing.T) {
	text := "01/01/24, 09:00 - A: x\n" +
		"01/01/24, 09:01 - B: x\n" +
		"01/01/24, 09:02 - A: x\n" +
		"01/01/24, 09:05 - B: x\n" +
		"01/01/24, 09:06 - A: x\n" +
		"01/01/24, 15:06 - B: x\n"
	users := aggregate(t, text, DefaultOptions())
	b := users[1]
	require.NotNil(t, b.MedianResponseSeconds)
	assert.Equal(t, 180.0, *b.MedianResponseSeconds)
	assert.InDelta(t, (60.0+180+21600)/3, *b.AvgResponseSeconds, 1e-9)
	// the 6h silence also opens a new conversation
	assert.Equal(t, 1, b.ConversationStarters)

	opts := DefaultOptions()
	opts.MaxResponseGap = time.Hour
	users = aggregate(t, text, opts)
	b = users[1]
	assert.Equal(t, 2, b.ResponseCount)
	assert.Equal(t, 120.0, *b.AvgResponseSeconds)
}

func TestInvertedTimestampsAreNotResponses(t *testing.T) {
	users := aggregate(t, "01/01/24, 10:00 - A: later\n01/01/24, 09:00 - B: earlier", DefaultOptions())
	assert.Nil(t, users[1].AvgResponseSeconds)
}

func TestCountsAndSentiment(t *testing.T) {
	text := "01/01/24, 09:00 - A: ???\n" +
		"01/01/24, 09:01 - A: This message was deleted\n" +
		"01/01/24, 09:02 - A: <Media omitted>\n" +
		"01/01/24, 09:03 - A: great day https://go.dev \U0001F600\n" +
		"01/01/24, 09:04 - B: bad\n"
	users := aggregate(t, text, DefaultOptions())

	a := users[0]
	assert.Equal(t, 4, a.MessageCount)
	assert.Equal(t, 1, a.QuestionCount)
	assert.Equal(t, 1, a.DeletedCount)
	assert.Equal(t, 1, a.MediaCount)
	assert.Equal(t, 1, a.LinkCount)
	assert.Equal(t, 1, a.EmojiCount)
	assert.Equal(t, 5, a.WordCount)
	assert.InDelta(t, 5.0/4.0, a.AvgMessageLength, 1e-9)
	// "???" and "great day ..." carry words; deleted and media do not count
	require.NotNil(t, a.SentimentAvg)
	assert.InDelta(t, (0+1.0/4.0)/2, *a.SentimentAvg, 1e-9)
	assert.Equal(t, []EmojiCount{{Emoji: "\U0001F600", Count: 1}}, a.TopEmojis)

	b := users[1]
	require.NotNil(t, b.SentimentAvg)
	assert.Equal(t, -1.0, *b.SentimentAvg)

	total := 0
	for _, u := range users {
		total += u.MessageCount
	}
	assert.Equal(t, 5, total)
}

func TestBestLines(t *testing.T) {
	text := "01/01/24, 09:00 - A: short\n" +
		"01/01/24, 09:01 - A: a much longer line that carries more characters?\n" +
		"01/01/24, 09:02 - A: short\n" +
		"01/01/24, 09:03 - A: <Media omitted>\n"
	opts := DefaultOptions()
	opts.BestLines = 2
	users := aggregate(t, text, opts)

	lines := users[0].BestLines
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0].Content, "much longer")
	assert.Equal(t, "short", lines[1].Content)
	assert.Equal(t, 0, lines[1].Timestamp.Minute())
}

func TestTemporalFlagsAreCopied(t *testing.T) {
	text := "01/01/24, 23:30 - Owl: hoot\n01/01/24, 23:40 - Owl: hoot\n02/01/24, 02:00 - Owl: hoot\n"
	users := aggregate(t, text, DefaultOptions())

	owl := users[0]
	assert.True(t, owl.NightOwl)
	assert.Equal(t, 3, owl.NightCount)
	assert.Equal(t, 2, owl.ActiveDays)
	assert.NotNil(t, owl.Consistency)
}

func TestRankEmojis(t *testing.T) {
	ranked := RankEmojis(map[string]int{"b": 2, "a": 2, "c": 5, "d": 1}, 3)
	assert.Equal(t, []EmojiCount{{"c", 5}, {"a", 2}, {"b", 2}}, ranked)
	assert.Len(t, RankEmojis(map[string]int{"a": 1, "b": 1}, 0), 2)
}
