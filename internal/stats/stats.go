package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/Zuo-Peng/chatlyze/internal/content"
	"github.com/Zuo-Peng/chatlyze/internal/parse"
	"github.com/Zuo-Peng/chatlyze/internal/temporal"
)

type Options struct {
	// ConversationGap is the silence after which a message opens a new
	// conversation. Zero counts only the very first message.
	ConversationGap time.Duration
	// MaxResponseGap drops longer replies from response times. Zero keeps all.
	MaxResponseGap time.Duration
	BestLines      int
	TopEmojis      int
}

func DefaultOptions() Options {
	return Options{
		ConversationGap: 2 * time.Hour,
		BestLines:       3,
		TopEmojis:       10,
	}
}

type EmojiCount struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

type BestLine struct {
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`
	Quality   float64   `json:"quality"`
}

// UserMetrics is the per-author rollup. Optional metrics are nil when there
// is no data for them.
type UserMetrics struct {
	Author                string       `json:"author"`
	FirstMessageAt        time.Time    `json:"first_message_at"`
	FirstIndex            int          `json:"first_index"`
	MessageCount          int          `json:"message_count"`
	MessageShare          float64      `json:"message_share"`
	AvgMessageLength      float64      `json:"avg_message_length"`
	WordCount             int          `json:"word_count_total"`
	CharCount             int          `json:"char_count_total"`
	EmojiCount            int          `json:"emoji_count_total"`
	MediaCount            int          `json:"media_count"`
	LinkCount             int          `json:"link_count"`
	QuestionCount         int          `json:"question_count"`
	DeletedCount          int          `json:"deleted_count"`
	ResponseCount         int          `json:"response_count"`
	AvgResponseSeconds    *float64     `json:"avg_response_time"`
	MedianResponseSeconds *float64     `json:"median_response_time"`
	SentimentAvg          *float64     `json:"sentiment_avg"`
	AvgQuality            float64      `json:"avg_quality"`
	Consistency           *float64     `json:"engagement_consistency"`
	ActiveDays            int          `json:"active_days"`
	NightCount            int          `json:"night_count"`
	EarlyCount            int          `json:"early_count"`
	NightShare            float64      `json:"night_share"`
	EarlyShare            float64      `json:"early_share"`
	NightOwl              bool         `json:"night_owl"`
	EarlyBird             bool         `json:"early_bird"`
	ConversationStarters  int          `json:"conversation_starters"`
	TopEmojis             []EmojiCount `json:"top_emojis"`
	BestLines             []BestLine   `json:"best_lines"`
	Achievements          []string     `json:"achievements"`

	// ResponseSeconds are the individual reply delays in message order.
	ResponseSeconds []float64 `json:"-"`
}

// AvgResponseTime returns the mean reply delay, if any.
func (u *UserMetrics) AvgResponseTime() (time.Duration, bool) {
	if u.AvgResponseSeconds == nil {
		return 0, false
	}
	return time.Duration(*u.AvgResponseSeconds * float64(time.Second)), true
}

func (u *UserMetrics) String() string {
	return fmt.Sprintf("%s: %d messages, %d words, %d emojis", u.Author, u.MessageCount, u.WordCount, u.EmojiCount)
}

type accumulator struct {
	m         *UserMetrics
	responses []float64
	sentiment float64
	scored    int
	quality   float64
	emojis    map[string]int
	best      []BestLine
}

func ensureUser(index map[string]int, accs *[]*accumulator, m *parse.Message) *accumulator {
	if i, ok := index[m.Author]; ok {
		return (*accs)[i]
	}
	acc := &accumulator{
		m: &UserMetrics{
			Author:         m.Author,
			FirstMessageAt: m.Timestamp,
			FirstIndex:     m.Index,
			Achievements:   []string{},
		},
		emojis: make(map[string]int),
	}
	index[m.Author] = len(*accs)
	*accs = append(*accs, acc)
	return acc
}

// Aggregate folds the ordered message stream into per-author metrics, in
// order of first appearance. feats must be aligned with msgs.
func Aggregate(msgs []parse.Message, feats []content.Features, profile *temporal.Profile, opts Options) []UserMetrics {
	index := make(map[string]int)
	var accs []*accumulator
	total := 0

	var prev *parse.Message
	for i := range msgs {
		msg := &msgs[i]
		if msg.IsSystem {
			continue
		}
		f := feats[i]
		acc := ensureUser(index, &accs, msg)
		u := acc.m
		total++

		u.MessageCount++
		u.WordCount += f.WordCount
		u.CharCount += f.CharCount
		u.EmojiCount += f.EmojiCount
		u.LinkCount += f.LinkCount
		if msg.IsMedia {
			u.MediaCount++
		}
		if msg.IsDeleted {
			u.DeletedCount++
		}
		if f.HasQuestion {
			u.QuestionCount++
		}
		if f.WordCount > 0 {
			acc.sentiment += f.SentimentScore
			acc.scored++
		}
		acc.quality += f.QualityScore
		for _, e := range f.Emojis {
			acc.emojis[e]++
		}
		if msg.HasText() {
			acc.best = append(acc.best, BestLine{Timestamp: msg.Timestamp, Content: msg.Content, Quality: f.QualityScore})
		}

		if prev == nil {
			u.ConversationStarters++
		} else {
			delta := msg.Timestamp.Sub(prev.Timestamp)
			if opts.ConversationGap > 0 && delta >= opts.ConversationGap {
				u.ConversationStarters++
			}
			if prev.Author != msg.Author && delta >= 0 && (opts.MaxResponseGap <= 0 || delta <= opts.MaxResponseGap) {
				acc.responses = append(acc.responses, delta.Seconds())
			}
		}
		prev = msg
	}

	out := make([]UserMetrics, len(accs))
	for i, acc := range accs {
		u := acc.m
		if total > 0 {
			u.MessageShare = float64(u.MessageCount) / float64(total)
		}
		u.AvgMessageLength = float64(u.WordCount) / float64(u.MessageCount)
		u.AvgQuality = acc.quality / float64(u.MessageCount)
		if acc.scored > 0 {
			u.SentimentAvg = ptr(acc.sentiment / float64(acc.scored))
		}
		u.ResponseCount = len(acc.responses)
		u.ResponseSeconds = acc.responses
		if len(acc.responses) > 0 {
			u.AvgResponseSeconds = ptr(mean(acc.responses))
			u.MedianResponseSeconds = ptr(Median(acc.responses))
		}
		u.TopEmojis = RankEmojis(acc.emojis, opts.TopEmojis)
		u.BestLines = bestLines(acc.best, opts.BestLines)

		if profile != nil {
			if up := profile.User(u.Author); up != nil {
				u.Consistency = up.Consistency
				u.ActiveDays = up.ActiveDays
				u.NightCount = up.NightCount
				u.EarlyCount = up.EarlyCount
				u.NightShare = up.NightShare
				u.EarlyShare = up.EarlyShare
				u.NightOwl = up.NightOwl
				u.EarlyBird = up.EarlyBird
			}
		}
		out[i] = *u
	}
	return out
}

// RankEmojis orders counts by frequency, then by emoji, and keeps limit
// entries (all when limit <= 0).
func RankEmojis(counts map[string]int, limit int) []EmojiCount {
	out := make([]EmojiCount, 0, len(counts))
	for e, n := range counts {
		out = append(out, EmojiCount{Emoji: e, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Emoji < out[j].Emoji
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func bestLines(lines []BestLine, n int) []BestLine {
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Quality > lines[j].Quality
	})
	if n >= 0 && len(lines) > n {
		lines = lines[:n]
	}
	if lines == nil {
		return []BestLine{}
	}
	return lines
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Median returns the middle value of xs, averaging the two middle values for
// even lengths. xs is not modified and must not be empty.
func Median(xs []float64) float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}

func ptr(v float64) *float64 {
	return &v
}
