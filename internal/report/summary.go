package report

import (
	"time"
)

type Award struct {
	Category string `json:"category"`
	Winner   string `json:"winner"`
}

// Summary is the part of a report kept in run history. It carries
// participant names and numbers only, never message text.
type Summary struct {
	Format         string    `json:"format"`
	TotalMessages  int       `json:"total_messages"`
	UniqueUsers    int       `json:"unique_users"`
	TotalWords     int       `json:"total_words"`
	TotalEmojis    int       `json:"total_emojis"`
	SystemEvents   int       `json:"system_events"`
	SkippedLines   int       `json:"skipped_lines"`
	FirstMessageAt time.Time `json:"first_message_at"`
	LastMessageAt  time.Time `json:"last_message_at"`
	Participants   []string  `json:"participants"`
	Awards         []Award   `json:"awards"`
}

func Summarize(r *Report) Summary {
	s := Summary{
		Format:         r.Provenance.Format,
		TotalMessages:  r.TotalMessages,
		UniqueUsers:    r.UniqueUsers,
		TotalWords:     r.TotalWords,
		TotalEmojis:    r.TotalEmojis,
		SystemEvents:   r.SystemEvents,
		SkippedLines:   r.Provenance.SkippedLines,
		FirstMessageAt: r.FirstMessageAt,
		LastMessageAt:  r.LastMessageAt,
		Participants:   make([]string, 0, len(r.Users)),
		Awards:         []Award{},
	}
	for _, u := range r.Users {
		s.Participants = append(s.Participants, u.Author)
	}
	for _, lb := range r.Leaderboards {
		if lb.Winner != "" {
			s.Awards = append(s.Awards, Award{Category: lb.Category, Winner: lb.Winner})
		}
	}
	return s
}
