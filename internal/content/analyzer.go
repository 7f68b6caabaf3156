package content

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"

	"github.com/Zuo-Peng/chatlyze/internal/parse"
)

// Features are the order-independent properties of one message. EmojiCount
// counts emoji code points; Emojis holds one key per emoji grapheme.
type Features struct {
	WordCount      int      `json:"word_count"`
	CharCount      int      `json:"char_count"`
	EmojiCount     int      `json:"emoji_count"`
	Emojis         []string `json:"emojis,omitempty"`
	ContainsLink   bool     `json:"contains_link"`
	LinkCount      int      `json:"link_count"`
	HasQuestion    bool     `json:"has_question"`
	SentimentScore float64  `json:"sentiment_score"`
	SentimentHits  int      `json:"sentiment_hits"`
	QualityScore   float64  `json:"quality_score"`
}

// Options configure the analyzer. Zero values fall back to the defaults.
type Options struct {
	EmojiRanges    []Range
	Positive       map[string]float64
	Negative       map[string]float64
	LengthWeight   float64
	QuestionWeight float64
	ContentWeight  float64
	LengthTarget   int
}

// Keyword sets are plain counters, not a language model. Negation and
// sarcasm are not handled.
var (
	defaultPositive = []string{
		"love", "great", "good", "awesome", "amazing", "wonderful", "excellent",
		"happy", "thanks", "thank", "best", "perfect", "nice", "beautiful",
		"fantastic", "cool", "yes", "lol", "haha", "congratulations", "congrats",
	}
	defaultNegative = []string{
		"hate", "bad", "terrible", "awful", "horrible", "worst", "sad",
		"angry", "no", "never", "sorry", "problem", "issue", "wrong",
		"error", "sucks", "difficult", "hard", "pain", "annoying",
	}
)

func weighted(words []string) map[string]float64 {
	m := make(map[string]float64, len(words))
	for _, w := range words {
		m[w] = 1
	}
	return m
}

func DefaultOptions() Options {
	return Options{
		EmojiRanges:    DefaultEmojiRanges(),
		Positive:       weighted(defaultPositive),
		Negative:       weighted(defaultNegative),
		LengthWeight:   0.5,
		QuestionWeight: 0.2,
		ContentWeight:  0.3,
		LengthTarget:   100,
	}
}

func (o Options) Validate() error {
	for _, w := range []float64{o.LengthWeight, o.QuestionWeight, o.ContentWeight} {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("quality weights must be finite and non-negative")
		}
	}
	if o.LengthTarget < 0 {
		return fmt.Errorf("length target must not be negative")
	}
	for _, r := range o.EmojiRanges {
		if r.Hi < r.Lo {
			return fmt.Errorf("emoji range %s is inverted", r)
		}
	}
	return nil
}

var linkPattern = regexp.MustCompile(`(?i)(?:\b(?:https?|ftp)://|\bwww\.)[^\s<>"]+` +
	`|\b(?:[a-z0-9-]+\.)+(?:com|org|net|io|dev|app|co|me|ly|gg|tv|edu|gov|info|biz|uk|de|fr|in|br|es|it|nl|ru|jp|au|ca)\b(?:/[^\s<>"]*)?`)

// Analyzer extracts Features. It keeps no per-run state and is safe for
// concurrent use.
type Analyzer struct {
	emoji          emojiTable
	positive       map[string]float64
	negative       map[string]float64
	lengthWeight   float64
	questionWeight float64
	contentWeight  float64
	lengthTarget   float64
}

func NewAnalyzer(opts Options) *Analyzer {
	def := DefaultOptions()
	if len(opts.EmojiRanges) == 0 {
		opts.EmojiRanges = def.EmojiRanges
	}
	if len(opts.Positive) == 0 {
		opts.Positive = def.Positive
	}
	if len(opts.Negative) == 0 {
		opts.Negative = def.Negative
	}
	if opts.LengthTarget <= 0 {
		opts.LengthTarget = def.LengthTarget
	}
	return &Analyzer{
		emoji:          emojiTable(opts.EmojiRanges),
		positive:       foldKeys(opts.Positive),
		negative:       foldKeys(opts.Negative),
		lengthWeight:   opts.LengthWeight,
		questionWeight: opts.QuestionWeight,
		contentWeight:  opts.ContentWeight,
		lengthTarget:   float64(opts.LengthTarget),
	}
}

func foldKeys(in map[string]float64) map[string]float64 {
	fold := cases.Fold()
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[fold.String(strings.TrimSpace(k))] = v
	}
	return out
}

// Analyze is a pure function of one message.
func (a *Analyzer) Analyze(m *parse.Message) Features {
	if m.IsSystem {
		return Features{}
	}
	var f Features
	text := m.Content
	f.CharCount = utf8.RuneCountInString(text)

	if m.HasText() {
		f.WordCount = len(strings.Fields(text))
		f.Emojis, f.EmojiCount = a.emoji.extract(text)
		f.LinkCount = len(linkPattern.FindAllStringIndex(text, -1))
		f.ContainsLink = f.LinkCount > 0
		f.HasQuestion = strings.Contains(text, "?")
		f.SentimentScore, f.SentimentHits = a.sentiment(text, f.WordCount)
	}
	f.QualityScore = a.quality(m, f)
	return f
}

func (a *Analyzer) sentiment(text string, words int) (float64, int) {
	tokens := strings.FieldsFunc(cases.Fold().String(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	var score float64
	hits := 0
	for _, tok := range tokens {
		tok = strings.Trim(tok, "'")
		if w, ok := a.positive[tok]; ok {
			score += w
			hits++
		}
		if w, ok := a.negative[tok]; ok {
			score -= w
			hits++
		}
	}
	if hits == 0 || words == 0 {
		return 0, hits
	}
	return score / float64(words), hits
}

func (a *Analyzer) quality(m *parse.Message, f Features) float64 {
	length := math.Min(float64(f.CharCount)/a.lengthTarget, 1)
	q := a.lengthWeight * length
	if f.HasQuestion {
		q += a.questionWeight
	}
	if m.HasText() {
		q += a.contentWeight
	}
	return q
}

const chunkSize = 512

// AnalyzeAll runs Analyze over msgs with up to workers goroutines and returns
// features in input order. A canceled context yields no features.
func (a *Analyzer) AnalyzeAll(ctx context.Context, msgs []parse.Message, workers int) ([]Features, error) {
	if workers < 1 {
		workers = 1
	}
	out := make([]Features, len(msgs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(msgs); start += chunkSize {
		end := min(start+chunkSize, len(msgs))
		start := start
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				out[i] = a.Analyze(&msgs[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
