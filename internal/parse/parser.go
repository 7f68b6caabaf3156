package parse

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrUnrecognizedFormat means no authored message could be parsed from
	// non-empty input.
	ErrUnrecognizedFormat = errors.New("unrecognized export format")
	// ErrEmptyInput means the input is empty or whitespace only.
	ErrEmptyInput = errors.New("empty input")
)

const DefaultSampleSize = 50

type Options struct {
	Formats    []FormatSpec
	SampleSize int
	Vocabulary Vocabulary
}

func DefaultOptions() Options {
	return Options{
		Formats:    DefaultFormats(),
		SampleSize: DefaultSampleSize,
		Vocabulary: DefaultVocabulary(),
	}
}

// Parser turns export text into a Conversation. A Parser holds only compiled
// configuration and may be shared between goroutines.
type Parser struct {
	formats    []*Format
	sampleSize int
	vocab      Vocabulary
}

func NewParser(opts Options) (*Parser, error) {
	specs := opts.Formats
	if len(specs) == 0 {
		specs = DefaultFormats()
	}
	formats, err := CompileAll(specs)
	if err != nil {
		return nil, err
	}
	size := opts.SampleSize
	if size <= 0 {
		size = DefaultSampleSize
	}
	return &Parser{formats: formats, sampleSize: size, vocab: withDefaults(opts.Vocabulary).lowered()}, nil
}

// withDefaults fills every empty phrase list from the built-in vocabulary.
func withDefaults(v Vocabulary) Vocabulary {
	def := DefaultVocabulary()
	if len(v.System) == 0 {
		v.System = def.System
	}
	if len(v.Media) == 0 {
		v.Media = def.Media
	}
	if len(v.Deletion) == 0 {
		v.Deletion = def.Deletion
	}
	return v
}

// Formats returns the compiled formats in priority order.
func (p *Parser) Formats() []*Format {
	return p.formats
}

// Parse is a convenience wrapper around NewParser(opts).Parse(text).
func Parse(text string, opts Options) (*Conversation, error) {
	p, err := NewParser(opts)
	if err != nil {
		return nil, err
	}
	return p.Parse(text)
}

// SplitLines splits export text into lines with trailing carriage returns and
// invisible direction marks removed. It also reports the native line break.
func SplitLines(text string) (lines []string, lineBreak string) {
	lineBreak = "\n"
	if strings.Contains(text, "\r\n") {
		lineBreak = "\r\n"
	}
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.TrimSuffix(text, "\n")
	raw := strings.Split(text, "\n")
	lines = make([]string, len(raw))
	for i, l := range raw {
		l = strings.TrimSuffix(l, "\r")
		l = strings.ReplaceAll(l, "\u200e", "")
		l = strings.ReplaceAll(l, "\u200f", "")
		lines[i] = strings.TrimPrefix(l, "\ufeff")
	}
	return lines, lineBreak
}

// Detect runs format detection only.
func (p *Parser) Detect(text string) (Detection, error) {
	if strings.TrimSpace(text) == "" {
		return Detection{}, ErrEmptyInput
	}
	lines, _ := SplitLines(text)
	return DetectFormat(lines, p.formats, p.sampleSize)
}

func (p *Parser) Parse(text string) (*Conversation, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	lines, lineBreak := SplitLines(text)

	det, err := DetectFormat(lines, p.formats, p.sampleSize)
	if err != nil {
		return nil, err
	}
	order := inferDateOrder(det.Format, lines)
	cls := &Classifier{format: det.Format, order: order, vocab: p.vocab}

	conv := &Conversation{
		Provenance: Provenance{
			Format:     det.Format.ID,
			DateOrder:  order,
			LineBreak:  lineBreak,
			TotalLines: len(lines),
		},
	}
	prov := &conv.Provenance

	open := -1
	var content strings.Builder
	closeOpen := func() {
		if open < 0 {
			return
		}
		m := &conv.Messages[open]
		text := strings.TrimRight(content.String(), "\r\n")
		if !m.IsSystem {
			p.finishMessage(m, text)
		} else {
			m.Content = strings.TrimSpace(text)
		}
		content.Reset()
		open = -1
	}

	var prevTS time.Time

	for i, line := range lines {
		lineNum := i + 1
		if strings.TrimSpace(line) == "" {
			prov.BlankLines++
			if open >= 0 {
				content.WriteString(lineBreak)
			}
			continue
		}

		cl := cls.Classify(line, open >= 0)
		switch cl.Kind {
		case ContinuationOfPrevious:
			prov.ContinuationLines++
			content.WriteString(lineBreak)
			content.WriteString(cl.Content)
			continue
		case Unparseable:
			prov.skip(lineNum)
			continue
		}

		closeOpen()
		msg := Message{
			Index:     len(conv.Messages),
			Line:      lineNum,
			Timestamp: cl.Timestamp,
			Author:    cl.Author,
			IsSystem:  cl.Kind == SystemEvent,
		}
		if msg.IsSystem {
			prov.SystemEvents++
		} else {
			prov.MessageLines++
		}
		if !prevTS.IsZero() && msg.Timestamp.Before(prevTS) {
			prov.TimestampInversions++
		}
		prevTS = msg.Timestamp

		conv.Messages = append(conv.Messages, msg)
		open = len(conv.Messages) - 1
		content.WriteString(cl.Content)
	}
	closeOpen()

	if conv.AuthoredCount() == 0 {
		return nil, ErrUnrecognizedFormat
	}
	return conv, nil
}

// finishMessage applies the deletion and media vocabularies to a completed
// message. Deleted and media-only messages carry no content.
func (p *Parser) finishMessage(m *Message, text string) {
	lowered := strings.ToLower(text)
	switch {
	case containsAny(lowered, p.vocab.Deletion):
		m.IsDeleted = true
		m.Content = ""
	case containsAny(lowered, p.vocab.Media):
		m.IsMedia = true
		m.Content = ""
	default:
		m.Content = text
	}
}
