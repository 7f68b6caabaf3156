package engine

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zuo-Peng/chatlyze/internal/parse"
	"github.com/Zuo-Peng/chatlyze/internal/report"
	"github.com/Zuo-Peng/chatlyze/internal/score"
)

const groupChat = "[12/30/23, 11:58:01 PM] Road Trip: Messages and calls are end-to-end encrypted.\n" +
	"[12/30/23, 11:58:01 PM] Alice created group \"Road Trip\"\n" +
	"[12/30/23, 11:59:10 PM] Alice: who's driving tomorrow?\n" +
	"[12/31/23, 12:01:00 AM] Bob: me! I love driving \U0001F697\n" +
	"[12/31/23, 12:01:30 AM] Bob: https://maps.example.com/route\n" +
	"[12/31/23, 6:30:00 AM] Carol: good morning \u2600\ufe0f\n" +
	"ready at 7\n" +
	"[12/31/23, 6:31:00 AM] Alice: image omitted\n" +
	"[12/31/23, 6:40:00 AM] Bob: This message was deleted\n" +
	"[01/02/24, 9:00:00 AM] Carol: that was a great trip, thanks all\n"

func TestAnalyzeScenario(t *testing.T) {
	r, err := Analyze(context.Background(), "[01/01/24, 09:00:00 AM] Alice: Hello!\n[01/01/24, 09:02:00 AM] Bob: Hi back!", DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, r.TotalMessages)
	assert.Equal(t, 2, r.UniqueUsers)
	alice, bob := r.User("Alice"), r.User("Bob")
	require.NotNil(t, alice)
	require.NotNil(t, bob)
	assert.Nil(t, alice.AvgResponseSeconds)
	require.NotNil(t, bob.AvgResponseSeconds)
	assert.Equal(t, 120.0, *bob.AvgResponseSeconds)
}

func TestAnalyzeKeepsChatAboutGroups(t *testing.T) {
	text := "01/01/24, 09:00 - Alice: the login fix was added to main\n" +
		"01/01/24, 09:01 - Bob: great, I left the group chat muted lol\n" +
		"01/01/24, 09:02 - Alice: ok\n"
	r, err := Analyze(context.Background(), text, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 3, r.TotalMessages)
	assert.Equal(t, 0, r.SystemEvents)
	assert.Equal(t, 2, r.UniqueUsers)
	require.NotNil(t, r.User("Bob"))
}

func TestAnalyzeGroupChat(t *testing.T) {
	r, err := Analyze(context.Background(), groupChat, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "bracketed_12h", r.Provenance.Format)
	assert.Equal(t, 7, r.TotalMessages)
	assert.Equal(t, 2, r.SystemEvents)
	assert.Equal(t, 3, r.UniqueUsers)
	assert.Equal(t, 1, r.MediaCount)
	assert.Equal(t, 1, r.Provenance.ContinuationLines)

	sum := 0
	for _, u := range r.Users {
		sum += u.MessageCount
	}
	assert.Equal(t, r.TotalMessages, sum)

	carol := r.User("Carol")
	require.NotNil(t, carol)
	assert.Equal(t, 2, carol.MessageCount)
	assert.Equal(t, 1, carol.EmojiCount)
	assert.Equal(t, "\u2600", carol.TopEmojis[0].Emoji)
	assert.Contains(t, carol.Achievements, "positive_vibes")

	bob := r.User("Bob")
	assert.Equal(t, 1, bob.DeletedCount)
	assert.Equal(t, 1, bob.LinkCount)
	assert.Contains(t, bob.Achievements, "message_volume")
	assert.True(t, bob.NightOwl)

	lb, ok := score.Find(r.Leaderboards, "fastest_responder")
	require.True(t, ok)
	assert.NotEmpty(t, lb.Winner)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	opts := DefaultOptions()
	opts.Workers = 4
	var first []byte
	for i := 0; i < 3; i++ {
		r, err := Analyze(context.Background(), groupChat, opts)
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, report.Encode(&buf, r, false))
		if first == nil {
			first = buf.Bytes()
			continue
		}
		assert.Equal(t, first, buf.Bytes())
	}
}

func TestAnalyzeErrors(t *testing.T) {
	_, err := Analyze(context.Background(), "image omitted", DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, KindUnrecognizedFormat, KindOf(err))
	assert.ErrorIs(t, err, parse.ErrUnrecognizedFormat)
	assert.Equal(t, "Could not parse file - check format", UserMessage(err))

	_, err = Analyze(context.Background(), "   \n", DefaultOptions())
	assert.Equal(t, KindEmptyInput, KindOf(err))
	assert.ErrorIs(t, err, parse.ErrEmptyInput)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, err := Analyze(ctx, groupChat, DefaultOptions())
	assert.Nil(t, r)
	assert.Equal(t, KindCanceled, KindOf(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Parse.Formats = []parse.FormatSpec{{ID: "broken", Prefix: "(?P<date>"}}
	_, err := Analyze(context.Background(), groupChat, opts)
	assert.Equal(t, KindInvalidOptions, KindOf(err))
	assert.True(t, strings.HasPrefix(UserMessage(err), "Invalid analysis settings"))

	opts = DefaultOptions()
	opts.Temporal.NightThreshold = 2
	assert.Error(t, opts.Validate())

	opts = DefaultOptions()
	opts.Categories = append(opts.Categories, opts.Categories[0])
	assert.ErrorContains(t, opts.Validate(), "listed twice")
}

func TestAnalyzeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.txt")
	require.NoError(t, os.WriteFile(path, []byte(groupChat), 0o644))

	r, err := AnalyzeFile(context.Background(), path, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 7, r.TotalMessages)

	_, err = AnalyzeFile(context.Background(), filepath.Join(t.TempDir(), "missing.txt"), DefaultOptions())
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Empty(t, KindOf(err))
}
