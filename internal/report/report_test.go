package report

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/chatlyze/internal/content"
	"github.com/Zuo-Peng/chatlyze/internal/parse"
	"github.com/Zuo-Peng/chatlyze/internal/score"
	"github.com/Zuo-Peng/chatlyze/internal/stats"
	"github.com/Zuo-Peng/chatlyze/internal/temporal"
)

const sample = "01/01/24, 09:00 - Alice: morning \U0001F600\U0001F600\n" +
	"01/01/24, 09:00 - Alice added Carol\n" +
	"01/01/24, 09:05 - Bob: see https://go.dev \U0001F44D\n" +
	"01/01/24, 09:06 - Carol: <Media omitted>\n" +
	"02/01/24, 10:00 - Alice: This message was deleted\n"

func build(t *testing.T) *Report {
	t.Helper()
	conv, err := parse.Parse(sample, parse.DefaultOptions())
	require.NoError(t, err)
	feats, err := content.NewAnalyzer(content.DefaultOptions()).AnalyzeAll(context.Background(), conv.Messages, 1)
	require.NoError(t, err)
	profile := temporal.Aggregate(conv.Messages, temporal.DefaultOptions())
	users := stats.Aggregate(conv.Messages, feats, &profile, stats.DefaultOptions())
	boards := score.Evaluate(users, score.DefaultCategories())
	return Build(Inputs{
		Conversation: conv,
		Features:     feats,
		Temporal:     profile,
		Users:        users,
		Leaderboards: boards,
		TopEmojis:    50,
	})
}

func TestBuildTotals(t *testing.T) {
	r := build(t)

	assert.Equal(t, 4, r.TotalMessages)
	assert.Equal(t, 3, r.UniqueUsers)
	assert.Equal(t, 1, r.SystemEvents)
	assert.Equal(t, 3, r.TotalEmojis)
	assert.Equal(t, 2, r.DistinctEmojis)
	require.NotNil(t, r.EmojiDiversity)
	assert.InDelta(t, 2.0/3.0, *r.EmojiDiversity, 1e-9)
	assert.InDelta(t, 0.25, r.MediaShareRate, 1e-9)
	assert.InDelta(t, 0.25, r.LinkShareRate, 1e-9)
	assert.InDelta(t, 0.25, r.DeletedMessageRate, 1e-9)
	assert.Equal(t, 2, r.DurationDays)
	assert.Equal(t, "\U0001F600", r.TopEmojis[0].Emoji)
	require.NotNil(t, r.MedianResponseTime)

	sum := 0
	for _, u := range r.Users {
		sum += u.MessageCount
	}
	assert.Equal(t, r.TotalMessages, sum)
	assert.NotNil(t, r.User("Bob"))
	assert.Nil(t, r.User("Dave"))
}

func TestNoEmojisLeavesDiversityUndefined(t *testing.T) {
	conv, err := parse.Parse("01/01/24, 09:00 - A: plain", parse.DefaultOptions())
	require.NoError(t, err)
	feats, err := content.NewAnalyzer(content.DefaultOptions()).AnalyzeAll(context.Background(), conv.Messages, 1)
	require.NoError(t, err)
	profile := temporal.Aggregate(conv.Messages, temporal.DefaultOptions())
	users := stats.Aggregate(conv.Messages, feats, &profile, stats.DefaultOptions())

	r := Build(Inputs{Conversation: conv, Features: feats, Temporal: profile, Users: users})
	assert.Nil(t, r.EmojiDiversity)
	assert.Nil(t, r.MedianResponseTime)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, r, false))
	assert.Contains(t, buf.String(), `"emoji_diversity":null`)
	assert.Contains(t, buf.String(), `"avg_response_time":null`)
}

func TestEncodeIsDeterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, Encode(&a, build(t), true))
	require.NoError(t, Encode(&b, build(t), true))
	assert.Equal(t, a.Bytes(), b.Bytes())

	decoded, err := Decode(&a)
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.TotalMessages)
	assert.Equal(t, "dash_24h", decoded.Provenance.Format)
}

func TestSummarizeCarriesNoContent(t *testing.T) {
	s := Summarize(build(t))

	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, s.Participants)
	assert.NotEmpty(t, s.Awards)
	assert.Equal(t, "message_volume", s.Awards[0].Category)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, s, false))
	assert.False(t, strings.Contains(buf.String(), "morning"))
	assert.False(t, strings.Contains(buf.String(), "go.dev"))
}
