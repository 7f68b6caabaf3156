package parse

import (
	"strconv"
	"strings"
	"time"
)

// Vocabulary holds the case-insensitive phrase lists used to flag system
// notices, media placeholders and deletion markers. Media and deletion
// phrases match anywhere in the content. System phrases must open the
// notice; see Classifier.Classify.
type Vocabulary struct {
	System   []string `toml:"system_phrases"`
	Media    []string `toml:"media_phrases"`
	Deletion []string `toml:"deletion_phrases"`
}

// DefaultVocabulary returns the built-in phrase lists.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		System: []string{
			"messages and calls are end-to-end encrypted",
			"messages to this group are now secured",
			"created group",
			"created this group",
			"joined using this group's invite link",
			"changed the subject",
			"changed this group's icon",
			"changed the group description",
			"deleted this group's icon",
			"changed their phone number",
			"security code with",
			"security code changed",
			"you're now an admin",
			"is now an admin",
			"pinned a message",
			"turned on disappearing messages",
			"turned off disappearing messages",
			"missed voice call",
			"missed video call",
			"you were added",
			"you were removed",
			"added you to the group",
			"removed you from the group",
		},
		Media: []string{
			"<media omitted>",
			"image omitted",
			"video omitted",
			"audio omitted",
			"document omitted",
			"sticker omitted",
			"gif omitted",
			"contact card omitted",
			"<attached:",
		},
		Deletion: []string{
			"this message was deleted",
			"you deleted this message",
		},
	}
}

func (v Vocabulary) lowered() Vocabulary {
	return Vocabulary{
		System:   lowerAll(v.System),
		Media:    lowerAll(v.Media),
		Deletion: lowerAll(v.Deletion),
	}
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func containsAny(lowered string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(lowered string, phrases []string) bool {
	for _, p := range phrases {
		if strings.HasPrefix(lowered, p) {
			return true
		}
	}
	return false
}

// Line is a classified raw line. Timestamp, Author and Content are set for
// NewMessageStart and SystemEvent lines.
type Line struct {
	Kind      LineKind
	Timestamp time.Time
	Author    string
	Content   string
}

// Classifier assigns a LineKind to raw lines against one locked format.
type Classifier struct {
	format *Format
	order  DateOrder
	vocab  Vocabulary
}

func NewClassifier(f *Format, order DateOrder, vocab Vocabulary) *Classifier {
	if order == DateOrderAuto || order == "" {
		order = f.DefaultDate
	}
	return &Classifier{format: f, order: order, vocab: vocab.lowered()}
}

// Classify looks at one line with marks already stripped. open reports
// whether a message is currently accepting continuation lines.
func (c *Classifier) Classify(line string, open bool) Line {
	h, ok := c.format.split(line)
	if !ok {
		if open {
			return Line{Kind: ContinuationOfPrevious, Content: line}
		}
		return Line{Kind: Unparseable}
	}

	ts, ok := parseTimestamp(h.Date, h.Time, c.order)
	if !ok {
		return Line{Kind: Unparseable}
	}

	if !h.HasAuth {
		return Line{Kind: SystemEvent, Timestamp: ts, Content: strings.TrimSpace(h.Content)}
	}
	author := trimAuthor(h.Author)
	if author == "" || c.notice(author, h.Content) {
		rest := h.Author + ": " + h.Content
		return Line{Kind: SystemEvent, Timestamp: ts, Content: strings.TrimSpace(rest)}
	}
	return Line{Kind: NewMessageStart, Timestamp: ts, Author: author, Content: h.Content}
}

// notice reports whether an authored-looking line is a system notice.
// Notices such as `X changed the subject to "a: b"` split on the colon
// inside the quote, leaving the phrase in the author field. Otherwise the
// content has to open with a phrase, optionally after the sender's name.
func (c *Classifier) notice(author, content string) bool {
	name := strings.ToLower(author)
	if containsAny(name, c.vocab.System) {
		return true
	}
	body := strings.ToLower(strings.TrimLeft(content, " \u200e"))
	if rest, ok := strings.CutPrefix(body, name+" "); ok {
		body = rest
	}
	return hasAnyPrefix(body, c.vocab.System)
}

func trimAuthor(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "~\u00a0\u202f\u200e"))
}

// parseTimestamp validates and assembles a wall-clock time from the raw date
// and time fields. Calendar overflow (month 13, 31 February) is rejected
// rather than normalized.
func parseTimestamp(date, clock string, order DateOrder) (time.Time, bool) {
	parts := dateFields(date)
	if len(parts) != 3 {
		return time.Time{}, false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, false
		}
		nums[i] = n
	}

	var year, month, day int
	switch order {
	case MonthFirst:
		month, day, year = nums[0], nums[1], nums[2]
	case YearFirst:
		year, month, day = nums[0], nums[1], nums[2]
	default:
		day, month, year = nums[0], nums[1], nums[2]
	}
	if year < 100 {
		year += 2000
	}

	hour, min, sec, ok := parseClock(clock)
	if !ok {
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

func parseClock(s string) (hour, min, sec int, ok bool) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '.', '\t':
			return -1
		}
		return r
	}, strings.ToLower(s))

	meridiem := ""
	if strings.HasSuffix(s, "am") || strings.HasSuffix(s, "pm") {
		meridiem = s[len(s)-2:]
		s = s[:len(s)-2]
	}

	fields := strings.Split(s, ":")
	if len(fields) < 2 || len(fields) > 3 {
		return 0, 0, 0, false
	}
	vals := make([]int, 3)
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return 0, 0, 0, false
		}
		vals[i] = n
	}
	hour, min, sec = vals[0], vals[1], vals[2]
	if min > 59 || sec > 59 {
		return 0, 0, 0, false
	}

	switch meridiem {
	case "":
		if hour > 23 {
			return 0, 0, 0, false
		}
	default:
		if hour < 1 || hour > 12 {
			return 0, 0, 0, false
		}
		if hour == 12 {
			hour = 0
		}
		if meridiem == "pm" {
			hour += 12
		}
	}
	return hour, min, sec, true
}
