package render

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/chatlyze/internal/index"
	"github.com/Zuo-Peng/chatlyze/internal/report"
	"github.com/Zuo-Peng/chatlyze/internal/score"
	"github.com/Zuo-Peng/chatlyze/internal/stats"
	"github.com/Zuo-Peng/chatlyze/internal/temporal"
)

const (
	colorReset   = "\033[0m"
	colorHeading = "\033[1;34m" // bold blue
	colorWinner  = "\033[1;32m" // bold green
	colorDim     = "\033[2m"
	colorWarn    = "\033[1;33m" // bold yellow for partial parses
	colorBar     = "\033[36m"
)

type Options struct {
	Width int  // wrap width (0 = no wrap)
	Color bool // emit ANSI escapes
}

type printer struct {
	b     strings.Builder
	opts  Options
	lines int
}

func (p *printer) paint(color, s string) string {
	if !p.opts.Color || s == "" {
		return s
	}
	return color + s + colorReset
}

// line writes s, wrapping long lines if Width is set.
func (p *printer) line(s string) {
	for _, wl := range wrapLine(s, p.opts.Width) {
		p.b.WriteString(wl)
		p.b.WriteString("\n")
		p.lines++
	}
}

func (p *printer) heading(s string) {
	if p.lines > 0 {
		p.line("")
	}
	p.line(p.paint(colorHeading, s))
}

// indentLines prepends each line of text with the given prefix.
func indentLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// wrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, correctly skipping ANSI escape sequences when measuring width.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		// ANSI escape sequence: ESC[ ... m
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}

	if len(result) == 0 {
		return []string{""}
	}
	return result
}

// cell pads or truncates s to exactly w display columns.
func cell(s string, w int) string {
	return runewidth.FillRight(runewidth.Truncate(s, w, "…"), w)
}

func rcell(s string, w int) string {
	return runewidth.FillLeft(runewidth.Truncate(s, w, "…"), w)
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func optFloat(v *float64, format string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *v)
}

// Seconds renders a reply delay like "2m 5s"; nil is "n/a".
func Seconds(v *float64) string {
	if v == nil {
		return "n/a"
	}
	d := time.Duration(math.Round(*v)) * time.Second
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		return fmt.Sprintf("%dd %dh", int(d.Hours())/24, int(d.Hours())%24)
	}
}

func emojiList(list []stats.EmojiCount, n int) string {
	var parts []string
	for i, e := range list {
		if i == n {
			break
		}
		parts = append(parts, fmt.Sprintf("%s×%d", e.Emoji, e.Count))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

// Report renders the whole report as plain text.
func Report(r *report.Report, opts Options) string {
	p := &printer{opts: opts}

	p.line(p.paint(colorHeading, "Chat overview"))
	p.line(fmt.Sprintf("  Messages      %s from %d people", humanize.Comma(int64(r.TotalMessages)), r.UniqueUsers))
	p.line(fmt.Sprintf("  Period        %s - %s (%d days)",
		r.FirstMessageAt.Format("2006-01-02"), r.LastMessageAt.Format("2006-01-02"), r.DurationDays))
	p.line(fmt.Sprintf("  Words         %s (%.1f per message)", humanize.Comma(int64(r.TotalWords)), r.AvgMessageLength))
	p.line(fmt.Sprintf("  Emojis        %s, %d distinct", humanize.Comma(int64(r.TotalEmojis)), r.DistinctEmojis))
	p.line(fmt.Sprintf("  Media         %d (%s)", r.MediaCount, pct(r.MediaShareRate)))
	p.line(fmt.Sprintf("  Links         %d (%s)", r.LinkCount, pct(r.LinkShareRate)))
	p.line(fmt.Sprintf("  Deleted       %d (%s)", r.DeletedCount, pct(r.DeletedMessageRate)))
	p.line(fmt.Sprintf("  Reply time    %s median", Seconds(r.MedianResponseTime)))
	p.line(fmt.Sprintf("  Top emojis    %s", emojiList(r.TopEmojis, 10)))
	p.line(p.paint(colorDim, fmt.Sprintf("  format %s, %s", r.Provenance.Format, r.Provenance.DateOrder)))
	if r.Provenance.PartialLoss() {
		p.line(p.paint(colorWarn, fmt.Sprintf("  %d lines could not be parsed (first at line %d)",
			r.Provenance.SkippedLines, r.Provenance.SkippedLineNumbers[0])))
	}

	activity(p, &r.Temporal)

	p.heading("Awards")
	for _, lb := range r.Leaderboards {
		winner := p.paint(colorDim, "-")
		if lb.Winner != "" {
			winner = p.paint(colorWinner, lb.Winner)
		}
		p.line(fmt.Sprintf("  %s %s", cell(lb.Title, 24), winner))
	}

	p.heading("People")
	p.line(p.paint(colorDim, fmt.Sprintf("  %s %s %s %s %s %s",
		cell("name", 20), rcell("msgs", 7), rcell("share", 7), rcell("words", 8), rcell("reply", 9), rcell("quality", 7))))
	for i := range r.Users {
		u := &r.Users[i]
		p.line(fmt.Sprintf("  %s %s %s %s %s %s",
			cell(u.Author, 20),
			rcell(humanize.Comma(int64(u.MessageCount)), 7),
			rcell(pct(u.MessageShare), 7),
			rcell(humanize.Comma(int64(u.WordCount)), 8),
			rcell(Seconds(u.AvgResponseSeconds), 9),
			rcell(fmt.Sprintf("%.2f", u.AvgQuality), 7)))
	}
	return p.b.String()
}

const barWidth = 30

func bar(n, max int) string {
	if max == 0 {
		return ""
	}
	w := int(math.Round(float64(n) / float64(max) * barWidth))
	if w == 0 && n > 0 {
		w = 1
	}
	return strings.Repeat("█", w)
}

func activity(p *printer, t *temporal.Profile) {
	p.heading("Activity")
	peak := t.Hourly[t.PeakHour]
	for h, n := range t.Hourly {
		if n == 0 {
			continue
		}
		p.line(fmt.Sprintf("  %02d:00 %s %s", h, rcell(humanize.Comma(int64(n)), 6), p.paint(colorBar, bar(n, peak))))
	}
	p.line(fmt.Sprintf("  Busiest hour %02d:00, busiest weekday %s", t.PeakHour, t.PeakWeekdayName()))
	if t.BusiestDay != nil {
		p.line(fmt.Sprintf("  Busiest day %s with %d messages", t.BusiestDay.Date, t.BusiestDay.Count))
	}
	p.line(fmt.Sprintf("  Active on %d days, consistency %s", t.ActiveDays, optFloat(t.Consistency, "%.2f")))
}

// UserCard renders one participant in detail.
func UserCard(u *stats.UserMetrics, opts Options) string {
	p := &printer{opts: opts}
	p.line(p.paint(colorHeading, u.Author))
	p.line(fmt.Sprintf("  Messages       %s (%s of chat)", humanize.Comma(int64(u.MessageCount)), pct(u.MessageShare)))
	p.line(fmt.Sprintf("  First seen     %s", u.FirstMessageAt.Format("2006-01-02 15:04")))
	p.line(fmt.Sprintf("  Words          %s (%.1f per message)", humanize.Comma(int64(u.WordCount)), u.AvgMessageLength))
	p.line(fmt.Sprintf("  Emojis         %d  %s", u.EmojiCount, emojiList(u.TopEmojis, 5)))
	p.line(fmt.Sprintf("  Media/links    %d / %d", u.MediaCount, u.LinkCount))
	p.line(fmt.Sprintf("  Questions      %d", u.QuestionCount))
	p.line(fmt.Sprintf("  Deleted        %d", u.DeletedCount))
	p.line(fmt.Sprintf("  Replies        %d, avg %s, median %s",
		u.ResponseCount, Seconds(u.AvgResponseSeconds), Seconds(u.MedianResponseSeconds)))
	p.line(fmt.Sprintf("  Started        %d conversations", u.ConversationStarters))
	p.line(fmt.Sprintf("  Sentiment      %s", optFloat(u.SentimentAvg, "%+.2f")))
	p.line(fmt.Sprintf("  Quality        %.2f", u.AvgQuality))
	p.line(fmt.Sprintf("  Active days    %d, consistency %s", u.ActiveDays, optFloat(u.Consistency, "%.2f")))

	var habits []string
	if u.NightOwl {
		habits = append(habits, "night owl")
	}
	if u.EarlyBird {
		habits = append(habits, "early bird")
	}
	if len(habits) == 0 {
		habits = append(habits, "-")
	}
	p.line(fmt.Sprintf("  Habits         %s (night %d, early %d)", strings.Join(habits, ", "), u.NightCount, u.EarlyCount))
	if len(u.Achievements) > 0 {
		p.line(fmt.Sprintf("  Badges         %s", p.paint(colorWinner, strings.Join(u.Achievements, ", "))))
	}

	if len(u.BestLines) > 0 {
		p.heading("  Best lines")
		for _, bl := range u.BestLines {
			p.line(p.paint(colorDim, fmt.Sprintf("  %s  q=%.2f", bl.Timestamp.Format("2006-01-02 15:04"), bl.Quality)))
			p.line(indentLines(bl.Content, "    "))
		}
	}
	return p.b.String()
}

// Leaderboard renders the full ranking of one category.
func Leaderboard(lb score.Leaderboard, opts Options) string {
	p := &printer{opts: opts}
	p.line(p.paint(colorHeading, fmt.Sprintf("%s (%s, %s)", lb.Title, lb.Category, lb.Direction)))
	if len(lb.Entries) == 0 {
		p.line(p.paint(colorDim, "  no data"))
		return p.b.String()
	}
	for _, e := range lb.Entries {
		row := fmt.Sprintf("  %2d. %s %s", e.Rank, cell(e.Author, 20), rcell(formatValue(e.Value), 10))
		switch {
		case e.Author == lb.Winner:
			row = p.paint(colorWinner, row)
		case !e.Eligible:
			row = p.paint(colorDim, row+"  (not eligible)")
		}
		p.line(row)
	}
	return p.b.String()
}

func formatValue(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return humanize.Comma(int64(v))
	}
	return fmt.Sprintf("%.3f", v)
}

// History renders saved runs, newest first, with times relative to now.
func History(runs []index.Run, now time.Time, opts Options) string {
	p := &printer{opts: opts}
	if len(runs) == 0 {
		p.line(p.paint(colorDim, "no saved runs"))
		return p.b.String()
	}
	for _, r := range runs {
		s := r.Summary
		p.line(fmt.Sprintf("%s  %s  %s",
			p.paint(colorDim, r.ID[:min(8, len(r.ID))]),
			cell(humanize.RelTime(r.CreatedAt, now, "ago", "from now"), 16),
			r.FilePath))
		p.line(fmt.Sprintf("    %s, %s messages, %d people: %s",
			s.Format, humanize.Comma(int64(s.TotalMessages)), s.UniqueUsers, strings.Join(s.Participants, ", ")))
	}
	return p.b.String()
}
