package report

import (
	"io"
	"time"

	"github.com/goccy/go-json"

	"github.com/Zuo-Peng/chatlyze/internal/content"
	"github.com/Zuo-Peng/chatlyze/internal/parse"
	"github.com/Zuo-Peng/chatlyze/internal/score"
	"github.com/Zuo-Peng/chatlyze/internal/stats"
	"github.com/Zuo-Peng/chatlyze/internal/temporal"
)

// Report is the complete result of one analysis run. It holds no reference
// to the raw export.
type Report struct {
	TotalMessages      int                 `json:"total_messages"`
	UniqueUsers        int                 `json:"unique_users"`
	TotalWords         int                 `json:"total_words"`
	AvgMessageLength   float64             `json:"avg_message_length"`
	AvgMessagesPerUser float64             `json:"avg_messages_per_user"`
	TotalEmojis        int                 `json:"total_emojis"`
	DistinctEmojis     int                 `json:"distinct_emojis"`
	EmojiDiversity     *float64            `json:"emoji_diversity"`
	MediaCount         int                 `json:"media_count"`
	MediaShareRate     float64             `json:"media_share_rate"`
	LinkCount          int                 `json:"link_count"`
	LinkShareRate      float64             `json:"link_share_rate"`
	DeletedCount       int                 `json:"deleted_count"`
	DeletedMessageRate float64             `json:"deleted_message_rate"`
	SystemEvents       int                 `json:"system_events"`
	MedianResponseTime *float64            `json:"median_response_time"`
	FirstMessageAt     time.Time           `json:"first_message_at"`
	LastMessageAt      time.Time           `json:"last_message_at"`
	DurationDays       int                 `json:"duration_days"`
	TopEmojis          []stats.EmojiCount  `json:"top_emojis"`
	Provenance         parse.Provenance    `json:"provenance"`
	Users              []stats.UserMetrics `json:"users"`
	Temporal           temporal.Profile    `json:"temporal"`
	Leaderboards       []score.Leaderboard `json:"leaderboards"`
}

// Inputs are the stage outputs a Report is assembled from.
type Inputs struct {
	Conversation *parse.Conversation
	Features     []content.Features
	Temporal     temporal.Profile
	Users        []stats.UserMetrics
	Leaderboards []score.Leaderboard
	TopEmojis    int
}

// Build computes the conversation-wide totals. Users must already carry
// their achievements.
func Build(in Inputs) *Report {
	r := &Report{
		UniqueUsers:  len(in.Users),
		Provenance:   in.Conversation.Provenance,
		Users:        in.Users,
		Temporal:     in.Temporal,
		Leaderboards: in.Leaderboards,
		DurationDays: in.Temporal.SpanDays,
	}

	emojis := make(map[string]int)
	var responses []float64
	for i := range in.Conversation.Messages {
		m := &in.Conversation.Messages[i]
		if m.IsSystem {
			r.SystemEvents++
			continue
		}
		f := in.Features[i]
		r.TotalMessages++
		r.TotalWords += f.WordCount
		r.TotalEmojis += f.EmojiCount
		for _, e := range f.Emojis {
			emojis[e]++
		}
		if m.IsMedia {
			r.MediaCount++
		}
		if m.IsDeleted {
			r.DeletedCount++
		}
		if f.ContainsLink {
			r.LinkCount++
		}
		if r.FirstMessageAt.IsZero() || m.Timestamp.Before(r.FirstMessageAt) {
			r.FirstMessageAt = m.Timestamp
		}
		if m.Timestamp.After(r.LastMessageAt) {
			r.LastMessageAt = m.Timestamp
		}
	}
	for i := range in.Users {
		responses = append(responses, in.Users[i].ResponseSeconds...)
	}

	r.DistinctEmojis = len(emojis)
	r.TopEmojis = stats.RankEmojis(emojis, in.TopEmojis)
	if r.TotalEmojis > 0 {
		d := float64(r.DistinctEmojis) / float64(r.TotalEmojis)
		r.EmojiDiversity = &d
	}
	if r.TotalMessages > 0 {
		n := float64(r.TotalMessages)
		r.AvgMessageLength = float64(r.TotalWords) / n
		r.MediaShareRate = float64(r.MediaCount) / n
		r.LinkShareRate = float64(r.LinkCount) / n
		r.DeletedMessageRate = float64(r.DeletedCount) / n
	}
	if r.UniqueUsers > 0 {
		r.AvgMessagesPerUser = float64(r.TotalMessages) / float64(r.UniqueUsers)
	}
	if len(responses) > 0 {
		m := stats.Median(responses)
		r.MedianResponseTime = &m
	}
	return r
}

// User returns the metrics of author, or nil.
func (r *Report) User(author string) *stats.UserMetrics {
	for i := range r.Users {
		if r.Users[i].Author == author {
			return &r.Users[i]
		}
	}
	return nil
}

// Encode writes r as JSON. Output is byte-identical for identical reports.
func Encode(w io.Writer, r any, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(r)
}

// Decode reads a report written by Encode.
func Decode(rd io.Reader) (*Report, error) {
	var r Report
	if err := json.NewDecoder(rd).Decode(&r); err != nil {
		return nil, err
	}
	return &r, nil
}
