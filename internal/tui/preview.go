package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"

	"github.com/Zuo-Peng/chatlyze/internal/render"
	"github.com/Zuo-Peng/chatlyze/internal/report"
)

// item is one row of the left panel and the detail it opens.
type item struct {
	title  string
	detail string
	body   func(opts render.Options) string
}

// text renders the item without escapes, for the clipboard.
func (it item) text() string {
	return it.body(render.Options{})
}

func userItems(r *report.Report) []item {
	items := []item{{
		title:  "Overview",
		detail: fmt.Sprintf("%d messages, %d people", r.TotalMessages, r.UniqueUsers),
		body:   func(o render.Options) string { return render.Report(r, o) },
	}}
	for i := range r.Users {
		u := &r.Users[i]
		detail := fmt.Sprintf("%d msgs", u.MessageCount)
		if len(u.Achievements) > 0 {
			detail += ", " + strings.Join(u.Achievements, " ")
		}
		items = append(items, item{
			title:  u.Author,
			detail: detail,
			body:   func(o render.Options) string { return render.UserCard(u, o) },
		})
	}
	return items
}

func boardItems(r *report.Report) []item {
	var items []item
	for i := range r.Leaderboards {
		lb := r.Leaderboards[i]
		detail := "no winner"
		if lb.Winner != "" {
			detail = "won by " + lb.Winner
		}
		items = append(items, item{
			title:  lb.Title,
			detail: detail,
			body:   func(o render.Options) string { return render.Leaderboard(lb, o) },
		})
	}
	return items
}

// filterItems keeps items whose title contains query, case-insensitively.
func filterItems(items []item, query string) []item {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}
	var out []item
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.title), q) {
			out = append(out, it)
		}
	}
	return out
}

// newViewport creates a new viewport model with the given dimensions.
func newViewport(width, height int) viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = stylePanelBorder
	return vp
}
