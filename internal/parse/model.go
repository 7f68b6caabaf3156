package parse

import (
	"fmt"
	"time"
)

// LineKind is the classification of a single raw export line.
type LineKind int

const (
	NewMessageStart LineKind = iota
	ContinuationOfPrevious
	SystemEvent
	Unparseable
)

func (k LineKind) String() string {
	switch k {
	case NewMessageStart:
		return "new_message"
	case ContinuationOfPrevious:
		return "continuation"
	case SystemEvent:
		return "system_event"
	case Unparseable:
		return "unparseable"
	default:
		return fmt.Sprintf("line_kind(%d)", int(k))
	}
}

// Message is one entry of the parsed export. Timestamps carry the wall clock
// exactly as written in the export; the UTC location is only a container.
type Message struct {
	Index     int       `json:"index"`
	Line      int       `json:"line"` // 1-based line of the message header
	Timestamp time.Time `json:"timestamp"`
	Author    string    `json:"author,omitempty"`
	Content   string    `json:"content"`
	IsMedia   bool      `json:"is_media"`
	IsDeleted bool      `json:"is_deleted"`
	IsSystem  bool      `json:"is_system"`
}

// Authored reports whether the message belongs to a participant.
func (m *Message) Authored() bool {
	return !m.IsSystem
}

// HasText reports whether the message carries analyzable text.
func (m *Message) HasText() bool {
	return !m.IsSystem && !m.IsMedia && !m.IsDeleted && m.Content != ""
}

// maxSkippedSample bounds how many skipped line numbers are remembered.
const maxSkippedSample = 20

// Provenance records how much of the raw export was interpreted.
type Provenance struct {
	Format              string    `json:"format"`
	DateOrder           DateOrder `json:"date_order"`
	LineBreak           string    `json:"-"`
	TotalLines          int       `json:"total_lines"`
	BlankLines          int       `json:"blank_lines"`
	MessageLines        int       `json:"message_lines"`
	ContinuationLines   int       `json:"continuation_lines"`
	SystemEvents        int       `json:"system_events"`
	SkippedLines        int       `json:"skipped_lines"`
	SkippedLineNumbers  []int     `json:"skipped_line_numbers,omitempty"`
	TimestampInversions int       `json:"timestamp_inversions"`
}

func (p *Provenance) skip(lineNum int) {
	p.SkippedLines++
	if len(p.SkippedLineNumbers) < maxSkippedSample {
		p.SkippedLineNumbers = append(p.SkippedLineNumbers, lineNum)
	}
}

// PartialLoss reports whether some lines could not be interpreted.
func (p Provenance) PartialLoss() bool {
	return p.SkippedLines > 0
}

func (p Provenance) String() string {
	return fmt.Sprintf("format=%s lines=%d messages=%d continuations=%d system=%d skipped=%d inversions=%d",
		p.Format, p.TotalLines, p.MessageLines, p.ContinuationLines, p.SystemEvents, p.SkippedLines, p.TimestampInversions)
}

// Conversation is the ordered message stream of one export plus provenance.
type Conversation struct {
	Messages   []Message
	Provenance Provenance
}

// AuthoredCount returns the number of non-system messages.
func (c *Conversation) AuthoredCount() int {
	n := 0
	for i := range c.Messages {
		if c.Messages[i].Authored() {
			n++
		}
	}
	return n
}
