// Package temporal buckets authored messages by clock hour, weekday and
// calendar day.
package temporal

import (
	"fmt"
	"math"
	"time"

	"github.com/Zuo-Peng/chatlyze/internal/parse"
)

const dayLayout = "2006-01-02"

// DefaultDailyWindow is how many trailing days the Daily series keeps.
const DefaultDailyWindow = 30

// Window is a half-open range of clock hours. Start > End wraps midnight.
type Window struct {
	Start int `toml:"start" validate:"min=0,max=23"`
	End   int `toml:"end" validate:"min=0,max=24"`
}

func (w Window) Contains(hour int) bool {
	if w.Start <= w.End {
		return hour >= w.Start && hour < w.End
	}
	return hour >= w.Start || hour < w.End
}

func (w Window) String() string {
	return fmt.Sprintf("%02d:00-%02d:00", w.Start, w.End)
}

type Options struct {
	Night          Window
	Early          Window
	NightThreshold float64
	EarlyThreshold float64
	// DailyWindow caps Daily to the last N days of the span. Zero means
	// DefaultDailyWindow.
	DailyWindow int
}

func DefaultOptions() Options {
	return Options{
		Night:          Window{Start: 23, End: 5},
		Early:          Window{Start: 5, End: 8},
		NightThreshold: 0.25,
		EarlyThreshold: 0.25,
		DailyWindow:    DefaultDailyWindow,
	}
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type UserProfile struct {
	Author      string   `json:"author"`
	Hourly      [24]int  `json:"hourly"`
	Weekday     [7]int   `json:"weekday"`
	PeakHour    int      `json:"peak_hour"`
	PeakWeekday int      `json:"peak_weekday"`
	NightCount  int      `json:"night_count"`
	EarlyCount  int      `json:"early_count"`
	NightShare  float64  `json:"night_share"`
	EarlyShare  float64  `json:"early_share"`
	NightOwl    bool     `json:"night_owl"`
	EarlyBird   bool     `json:"early_bird"`
	ActiveDays  int      `json:"active_days"`
	Consistency *float64 `json:"consistency"`

	total int
	days  map[string]int
}

// Profile is the whole-conversation activity picture. Weekdays are
// Sunday-first. Daily only covers the trailing window of the span; SpanDays,
// BusiestDay and Consistency cover all of it.
type Profile struct {
	Hourly      [24]int       `json:"hourly"`
	Weekday     [7]int        `json:"weekday"`
	PeakHour    int           `json:"peak_hour"`
	PeakWeekday int           `json:"peak_weekday"`
	Daily       []DayCount    `json:"daily"`
	SpanDays    int           `json:"span_days"`
	BusiestDay  *DayCount     `json:"busiest_day"`
	ActiveDays  int           `json:"active_days"`
	Consistency *float64      `json:"consistency"`
	Users       []UserProfile `json:"users"`
}

// User returns the profile of author, or nil.
func (p *Profile) User(author string) *UserProfile {
	for i := range p.Users {
		if p.Users[i].Author == author {
			return &p.Users[i]
		}
	}
	return nil
}

// PeakWeekdayName is the English name of the peak weekday.
func (p *Profile) PeakWeekdayName() string {
	return time.Weekday(p.PeakWeekday).String()
}

// Aggregate buckets every authored message. System messages are ignored.
func Aggregate(msgs []parse.Message, opts Options) Profile {
	var p Profile
	index := make(map[string]int)
	days := make(map[string]int)
	var first, last time.Time

	for i := range msgs {
		m := &msgs[i]
		if m.IsSystem {
			continue
		}
		ts := m.Timestamp
		h, wd, day := ts.Hour(), int(ts.Weekday()), ts.Format(dayLayout)

		p.Hourly[h]++
		p.Weekday[wd]++
		days[day]++
		if first.IsZero() || ts.Before(first) {
			first = ts
		}
		if ts.After(last) {
			last = ts
		}

		idx, ok := index[m.Author]
		if !ok {
			idx = len(p.Users)
			index[m.Author] = idx
			p.Users = append(p.Users, UserProfile{Author: m.Author, days: make(map[string]int)})
		}
		u := &p.Users[idx]
		u.total++
		u.Hourly[h]++
		u.Weekday[wd]++
		u.days[day]++
		if opts.Night.Contains(h) {
			u.NightCount++
		}
		if opts.Early.Contains(h) {
			u.EarlyCount++
		}
	}
	if len(days) == 0 {
		return p
	}

	spanDays := int(dayNumber(last) - dayNumber(first) + 1)
	p.PeakHour = argmax(p.Hourly[:])
	p.PeakWeekday = argmax(p.Weekday[:])
	p.ActiveDays = len(days)
	p.SpanDays = spanDays
	p.Daily = trailingDays(days, last, min(spanDays, dailyWindow(opts)))
	p.BusiestDay = busiest(days)
	p.Consistency = consistency(days, spanDays)

	for i := range p.Users {
		u := &p.Users[i]
		u.PeakHour = argmax(u.Hourly[:])
		u.PeakWeekday = argmax(u.Weekday[:])
		u.NightShare = float64(u.NightCount) / float64(u.total)
		u.EarlyShare = float64(u.EarlyCount) / float64(u.total)
		u.NightOwl = u.NightShare > opts.NightThreshold
		u.EarlyBird = u.EarlyShare > opts.EarlyThreshold
		u.ActiveDays = len(u.days)
		u.Consistency = consistency(u.days, spanDays)
		u.days = nil
	}
	return p
}

func dailyWindow(opts Options) int {
	if opts.DailyWindow <= 0 {
		return DefaultDailyWindow
	}
	return opts.DailyWindow
}

// argmax returns the first bucket holding the maximum.
func argmax(buckets []int) int {
	best := 0
	for i, v := range buckets {
		if v > buckets[best] {
			best = i
		}
	}
	return best
}

// dayNumber counts calendar days since the Unix epoch.
func dayNumber(t time.Time) int64 {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.Unix() / 86400
}

// trailingDays lists the n calendar days ending at last, zero-filled.
func trailingDays(days map[string]int, last time.Time, n int) []DayCount {
	end := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]DayCount, n)
	for i := 0; i < n; i++ {
		d := end.AddDate(0, 0, i-n+1).Format(dayLayout)
		out[i] = DayCount{Date: d, Count: days[d]}
	}
	return out
}

// busiest picks the active day with the most messages, earliest on ties.
func busiest(days map[string]int) *DayCount {
	var best *DayCount
	for d, n := range days {
		if best == nil || n > best.Count || (n == best.Count && d < best.Date) {
			best = &DayCount{Date: d, Count: n}
		}
	}
	return best
}

// consistency is 1/(1+CV) of per-day counts across a span of spanDays
// days, where CV is the population coefficient of variation. Days missing
// from the map count as zero. Nil below two active days.
func consistency(days map[string]int, spanDays int) *float64 {
	if len(days) < 2 || spanDays <= 0 {
		return nil
	}
	n := float64(spanDays)
	var sum float64
	for _, c := range days {
		sum += float64(c)
	}
	mean := sum / n
	var sq float64
	for _, c := range days {
		diff := float64(c) - mean
		sq += diff * diff
	}
	sq += float64(spanDays-len(days)) * mean * mean
	cv := math.Sqrt(sq/n) / mean
	v := 1 / (1 + cv)
	return &v
}
