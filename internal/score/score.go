// Package score ranks participants per achievement category and awards one
// badge per category.
package score

import (
	"fmt"
	"sort"

	"github.com/Zuo-Peng/chatlyze/internal/stats"
)

type Direction int

const (
	Highest Direction = iota
	Lowest
)

func (d Direction) String() string {
	if d == Lowest {
		return "lowest"
	}
	return "highest"
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	switch string(text) {
	case "highest":
		*d = Highest
	case "lowest":
		*d = Lowest
	default:
		return fmt.Errorf("unknown direction %q", text)
	}
	return nil
}

// Metric reads a category value; ok is false when the metric is undefined
// for the user.
type Metric func(u *stats.UserMetrics) (value float64, ok bool)

// Category is one row of the achievement table.
type Category struct {
	ID        string
	Title     string
	Metric    Metric
	Direction Direction
	// Threshold bounds eligibility: Highest needs value > Threshold, Lowest
	// needs value <= Threshold when Threshold > 0.
	Threshold float64
	// Flag, when set, must also hold for a user to be eligible.
	Flag func(u *stats.UserMetrics) bool
}

func count(f func(u *stats.UserMetrics) int) Metric {
	return func(u *stats.UserMetrics) (float64, bool) {
		return float64(f(u)), true
	}
}

func share(f func(u *stats.UserMetrics) float64) Metric {
	return func(u *stats.UserMetrics) (float64, bool) {
		return f(u), true
	}
}

func optional(f func(u *stats.UserMetrics) *float64) Metric {
	return func(u *stats.UserMetrics) (float64, bool) {
		v := f(u)
		if v == nil {
			return 0, false
		}
		return *v, true
	}
}

// DefaultCategories returns the achievement table in award order.
func DefaultCategories() []Category {
	return []Category{
		{ID: "message_volume", Title: "Chatterbox", Metric: count(func(u *stats.UserMetrics) int { return u.MessageCount })},
		{ID: "word_count", Title: "Wordsmith", Metric: count(func(u *stats.UserMetrics) int { return u.WordCount })},
		{ID: "emoji", Title: "Emoji Enthusiast", Metric: count(func(u *stats.UserMetrics) int { return u.EmojiCount })},
		{ID: "media", Title: "Media Mogul", Metric: count(func(u *stats.UserMetrics) int { return u.MediaCount })},
		{ID: "links", Title: "Link Sharer", Metric: count(func(u *stats.UserMetrics) int { return u.LinkCount })},
		{ID: "questions", Title: "Curious Mind", Metric: count(func(u *stats.UserMetrics) int { return u.QuestionCount })},
		{ID: "night_owl", Title: "Night Owl",
			Metric: share(func(u *stats.UserMetrics) float64 { return u.NightShare }),
			Flag:   func(u *stats.UserMetrics) bool { return u.NightOwl }},
		{ID: "early_bird", Title: "Early Bird",
			Metric: share(func(u *stats.UserMetrics) float64 { return u.EarlyShare }),
			Flag:   func(u *stats.UserMetrics) bool { return u.EarlyBird }},
		{ID: "fastest_responder", Title: "Speed Demon", Direction: Lowest,
			Metric: optional(func(u *stats.UserMetrics) *float64 { return u.AvgResponseSeconds })},
		{ID: "positive_vibes", Title: "Positive Vibes",
			Metric: optional(func(u *stats.UserMetrics) *float64 { return u.SentimentAvg })},
		{ID: "conversation_starter", Title: "Conversation Starter", Metric: count(func(u *stats.UserMetrics) int { return u.ConversationStarters })},
		{ID: "top_quality", Title: "Quality Contributor", Metric: func(u *stats.UserMetrics) (float64, bool) { return u.AvgQuality, true }},
	}
}

// Configure applies per-category thresholds and drops disabled categories.
// Unknown ids are an error.
func Configure(cats []Category, thresholds map[string]float64, disabled []string) ([]Category, error) {
	known := make(map[string]bool, len(cats))
	for _, c := range cats {
		known[c.ID] = true
	}
	off := make(map[string]bool, len(disabled))
	for _, id := range disabled {
		if !known[id] {
			return nil, fmt.Errorf("unknown score category %q", id)
		}
		off[id] = true
	}
	for id := range thresholds {
		if !known[id] {
			return nil, fmt.Errorf("unknown score category %q", id)
		}
	}

	out := make([]Category, 0, len(cats))
	for _, c := range cats {
		if off[c.ID] {
			continue
		}
		if th, ok := thresholds[c.ID]; ok {
			c.Threshold = th
		}
		out = append(out, c)
	}
	return out, nil
}

type Entry struct {
	Rank     int     `json:"rank"`
	Author   string  `json:"author"`
	Value    float64 `json:"value"`
	Eligible bool    `json:"eligible"`
}

// Leaderboard is the full ranking of one category. Winner is empty when no
// user is eligible.
type Leaderboard struct {
	Category  string    `json:"category"`
	Title     string    `json:"title"`
	Direction Direction `json:"direction"`
	Winner    string    `json:"winner,omitempty"`
	Entries   []Entry   `json:"entries"`
}

func (c *Category) eligible(u *stats.UserMetrics, v float64) bool {
	if c.Flag != nil && !c.Flag(u) {
		return false
	}
	if c.Direction == Lowest {
		return c.Threshold <= 0 || v <= c.Threshold
	}
	return v > c.Threshold
}

// Evaluate ranks users per category and appends each category winner's badge
// id to its Achievements, in category order. Ties go to the earliest first
// message, then to the earliest first appearance.
func Evaluate(users []stats.UserMetrics, cats []Category) []Leaderboard {
	boards := make([]Leaderboard, 0, len(cats))
	for ci := range cats {
		c := &cats[ci]
		type row struct {
			user  int
			value float64
		}
		var rows []row
		for i := range users {
			if users[i].MessageCount == 0 {
				continue
			}
			if v, ok := c.Metric(&users[i]); ok {
				rows = append(rows, row{user: i, value: v})
			}
		}
		sort.SliceStable(rows, func(a, b int) bool {
			ra, rb := rows[a], rows[b]
			if ra.value != rb.value {
				if c.Direction == Lowest {
					return ra.value < rb.value
				}
				return ra.value > rb.value
			}
			ua, ub := &users[ra.user], &users[rb.user]
			if !ua.FirstMessageAt.Equal(ub.FirstMessageAt) {
				return ua.FirstMessageAt.Before(ub.FirstMessageAt)
			}
			return ua.FirstIndex < ub.FirstIndex
		})

		lb := Leaderboard{Category: c.ID, Title: c.Title, Direction: c.Direction, Entries: make([]Entry, len(rows))}
		winner := -1
		for i, r := range rows {
			ok := c.eligible(&users[r.user], r.value)
			lb.Entries[i] = Entry{Rank: i + 1, Author: users[r.user].Author, Value: r.value, Eligible: ok}
			if ok && winner < 0 {
				winner = r.user
			}
		}
		if winner >= 0 {
			lb.Winner = users[winner].Author
			users[winner].Achievements = append(users[winner].Achievements, c.ID)
		}
		boards = append(boards, lb)
	}
	return boards
}

// Find returns the leaderboard for a category id.
func Find(boards []Leaderboard, id string) (*Leaderboard, bool) {
	for i := range boards {
		if boards[i].Category == id {
			return &boards[i], true
		}
	}
	return nil, false
}
