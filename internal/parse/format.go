package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DateOrder tells how the three numeric date fields of an export are arranged.
type DateOrder string

const (
	DateOrderAuto DateOrder = "auto"
	DayFirst      DateOrder = "dmy"
	MonthFirst    DateOrder = "mdy"
	YearFirst     DateOrder = "ymd"
)

// FormatSpec describes an export format before compilation. Prefix is a
// regular expression for the timestamp header of a line and must define the
// named groups "date" and "time". It is anchored at the start of the line.
type FormatSpec struct {
	ID          string    `toml:"id" validate:"required"`
	Prefix      string    `toml:"prefix" validate:"required"`
	Example     string    `toml:"example"`
	DateOrder   DateOrder `toml:"date_order" validate:"omitempty,oneof=auto dmy mdy ymd"`
	DefaultDate DateOrder `toml:"default_date_order" validate:"omitempty,oneof=dmy mdy ymd"`
}

// sp matches the separators seen between time fields, including the narrow
// no-break space newer exports put before AM/PM.
const sp = `[\s\x{00A0}\x{202F}]`

const (
	slashDate = `(?P<date>\d{1,2}/\d{1,2}/\d{2,4})`
	dotDate   = `(?P<date>\d{1,2}\.\d{1,2}\.\d{2,4})`
	time12    = `(?P<time>\d{1,2}:\d{2}(?::\d{2})?` + sp + `*(?i:[ap]\.?` + sp + `?m\.?))`
	time24    = `(?P<time>\d{1,2}:\d{2}(?::\d{2})?)`
)

// DefaultFormats returns the built-in formats in detection priority order.
func DefaultFormats() []FormatSpec {
	return []FormatSpec{
		{
			ID:          "bracketed_12h",
			Prefix:      `\[` + slashDate + `,?` + sp + `+` + time12 + `\]`,
			Example:     "[MM/DD/YY, HH:MM:SS AM] Name: text",
			DateOrder:   DateOrderAuto,
			DefaultDate: MonthFirst,
		},
		{
			ID:          "bracketed_24h",
			Prefix:      `\[` + slashDate + `,?` + sp + `+` + time24 + `\]`,
			Example:     "[DD/MM/YYYY, HH:MM:SS] Name: text",
			DateOrder:   DateOrderAuto,
			DefaultDate: DayFirst,
		},
		{
			ID:          "dash_12h",
			Prefix:      slashDate + `,?` + sp + `+` + time12 + sp + `+-`,
			Example:     "MM/DD/YY, HH:MM AM - Name: text",
			DateOrder:   DateOrderAuto,
			DefaultDate: MonthFirst,
		},
		{
			ID:          "dash_24h",
			Prefix:      slashDate + `,?` + sp + `+` + time24 + sp + `+-`,
			Example:     "MM/DD/YY, HH:MM - Name: text",
			DateOrder:   DateOrderAuto,
			DefaultDate: DayFirst,
		},
		{
			ID:          "dotted_24h",
			Prefix:      dotDate + `,?` + sp + `+` + time24 + sp + `+-`,
			Example:     "DD.MM.YY, HH:MM - Name: text",
			DateOrder:   DateOrderAuto,
			DefaultDate: DayFirst,
		},
	}
}

// Format is a compiled pattern-matcher + extractor pair.
type Format struct {
	ID          string
	Example     string
	DateOrder   DateOrder
	DefaultDate DateOrder

	message *regexp.Regexp
	header  *regexp.Regexp
}

// header holds the raw capture groups of a timestamped line.
type header struct {
	Date    string
	Time    string
	Author  string
	Content string
	HasAuth bool
}

// Compile validates a spec and builds its message and header expressions.
func Compile(spec FormatSpec) (*Format, error) {
	if spec.ID == "" {
		return nil, fmt.Errorf("format: empty id")
	}
	prefix := strings.TrimPrefix(spec.Prefix, "^")
	msgRe, err := regexp.Compile(`^` + prefix + sp + `*(?P<author>[^:]+?):` + sp + `?(?P<content>.*)$`)
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", spec.ID, err)
	}
	hdrRe, err := regexp.Compile(`^` + prefix + sp + `*(?P<content>.*)$`)
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", spec.ID, err)
	}
	for _, group := range []string{"date", "time"} {
		if hdrRe.SubexpIndex(group) < 0 {
			return nil, fmt.Errorf("format %s: prefix is missing named group %q", spec.ID, group)
		}
	}

	order := spec.DateOrder
	if order == "" {
		order = DateOrderAuto
	}
	def := spec.DefaultDate
	if def == "" {
		def = DayFirst
	}
	return &Format{
		ID:          spec.ID,
		Example:     spec.Example,
		DateOrder:   order,
		DefaultDate: def,
		message:     msgRe,
		header:      hdrRe,
	}, nil
}

// CompileAll compiles specs preserving their priority order.
func CompileAll(specs []FormatSpec) ([]*Format, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("no export formats registered")
	}
	seen := make(map[string]bool, len(specs))
	formats := make([]*Format, 0, len(specs))
	for _, s := range specs {
		if seen[s.ID] {
			return nil, fmt.Errorf("format %s: duplicate id", s.ID)
		}
		seen[s.ID] = true
		f, err := Compile(s)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}

// Matches reports whether the line carries this format's timestamp header.
func (f *Format) Matches(line string) bool {
	return f.header.MatchString(line)
}

func (f *Format) split(line string) (header, bool) {
	if m := f.message.FindStringSubmatch(line); m != nil {
		return header{
			Date:    m[f.message.SubexpIndex("date")],
			Time:    m[f.message.SubexpIndex("time")],
			Author:  m[f.message.SubexpIndex("author")],
			Content: m[f.message.SubexpIndex("content")],
			HasAuth: true,
		}, true
	}
	if m := f.header.FindStringSubmatch(line); m != nil {
		return header{
			Date:    m[f.header.SubexpIndex("date")],
			Time:    m[f.header.SubexpIndex("time")],
			Content: m[f.header.SubexpIndex("content")],
		}, true
	}
	return header{}, false
}

// Detection is the outcome of format detection over a sample of lines.
type Detection struct {
	Format     *Format
	SampleSize int
	Scores     []int // per registered format, same order
}

// DetectFormat locks the export format for a whole run. A format matches the
// sample when it covers at least half of the sample lines any format
// recognises; the first such format in priority order wins. When none does,
// the format with the most matches wins, earlier formats breaking ties.
func DetectFormat(lines []string, formats []*Format, sampleSize int) (Detection, error) {
	if sampleSize <= 0 {
		sampleSize = 50
	}
	var sample []string
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		sample = append(sample, l)
		if len(sample) == sampleSize {
			break
		}
	}

	det := Detection{SampleSize: len(sample), Scores: make([]int, len(formats))}
	recognised := 0
	for _, l := range sample {
		hit := false
		for i, f := range formats {
			if f.Matches(l) {
				det.Scores[i]++
				hit = true
			}
		}
		if hit {
			recognised++
		}
	}
	if recognised == 0 {
		return det, ErrUnrecognizedFormat
	}

	for i, f := range formats {
		if det.Scores[i]*2 >= recognised {
			det.Format = f
			return det, nil
		}
	}
	best := 0
	for i := range formats {
		if det.Scores[i] > det.Scores[best] {
			best = i
		}
	}
	det.Format = formats[best]
	return det, nil
}

// inferDateOrder picks one date order for the whole export from the date
// fields of every timestamped line.
func inferDateOrder(f *Format, lines []string) DateOrder {
	if f.DateOrder != DateOrderAuto {
		return f.DateOrder
	}
	firstBig, secondBig := false, false
	for _, l := range lines {
		h, ok := f.split(l)
		if !ok {
			continue
		}
		parts := dateFields(h.Date)
		if len(parts) != 3 {
			continue
		}
		a, _ := strconv.Atoi(parts[0])
		b, _ := strconv.Atoi(parts[1])
		if len(parts[0]) == 4 {
			return YearFirst
		}
		if a > 12 {
			firstBig = true
		}
		if b > 12 {
			secondBig = true
		}
	}
	switch {
	case firstBig:
		return DayFirst
	case secondBig:
		return MonthFirst
	default:
		return f.DefaultDate
	}
}

func dateFields(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == '.' || r == '-'
	})
}
