// Package engine runs one export through the analysis pipeline:
// parse, per-message content features, temporal and per-user aggregation,
// scoring, report assembly.
package engine

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/Zuo-Peng/chatlyze/internal/content"
	"github.com/Zuo-Peng/chatlyze/internal/logging"
	"github.com/Zuo-Peng/chatlyze/internal/parse"
	"github.com/Zuo-Peng/chatlyze/internal/report"
	"github.com/Zuo-Peng/chatlyze/internal/score"
	"github.com/Zuo-Peng/chatlyze/internal/stats"
	"github.com/Zuo-Peng/chatlyze/internal/temporal"
)

const DefaultTopEmojis = 50

type Options struct {
	Parse      parse.Options
	Content    content.Options
	Temporal   temporal.Options
	Stats      stats.Options
	Categories []score.Category
	// Workers bounds the content stage fan-out. Zero uses GOMAXPROCS.
	Workers   int
	TopEmojis int
}

func DefaultOptions() Options {
	return Options{
		Parse:      parse.DefaultOptions(),
		Content:    content.DefaultOptions(),
		Temporal:   temporal.DefaultOptions(),
		Stats:      stats.DefaultOptions(),
		Categories: score.DefaultCategories(),
		TopEmojis:  DefaultTopEmojis,
	}
}

func (o Options) Validate() error {
	if len(o.Parse.Formats) > 0 {
		if _, err := parse.CompileAll(o.Parse.Formats); err != nil {
			return err
		}
	}
	if err := o.Content.Validate(); err != nil {
		return err
	}
	for _, th := range []float64{o.Temporal.NightThreshold, o.Temporal.EarlyThreshold} {
		if th < 0 || th > 1 {
			return fmt.Errorf("share thresholds must be within [0, 1]")
		}
	}
	for _, w := range []temporal.Window{o.Temporal.Night, o.Temporal.Early} {
		if w.Start < 0 || w.Start > 23 || w.End < 0 || w.End > 24 {
			return fmt.Errorf("window %s is out of range", w)
		}
	}
	if o.Temporal.DailyWindow < 0 {
		return fmt.Errorf("daily window must not be negative")
	}
	if o.Stats.ConversationGap < 0 || o.Stats.MaxResponseGap < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if o.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	seen := make(map[string]bool, len(o.Categories))
	for _, c := range o.Categories {
		if c.ID == "" || c.Metric == nil {
			return fmt.Errorf("score category %q is incomplete", c.ID)
		}
		if seen[c.ID] {
			return fmt.Errorf("score category %q listed twice", c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}

// Engine holds compiled options and can analyze many exports, also
// concurrently. Runs share no mutable state.
type Engine struct {
	opts     Options
	parser   *parse.Parser
	analyzer *content.Analyzer
}

func New(opts Options) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, &Error{Kind: KindInvalidOptions, Err: err}
	}
	p, err := parse.NewParser(opts.Parse)
	if err != nil {
		return nil, &Error{Kind: KindInvalidOptions, Err: err}
	}
	if opts.Workers == 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{opts: opts, parser: p, analyzer: content.NewAnalyzer(opts.Content)}, nil
}

// Parser exposes the compiled parser for format inspection.
func (e *Engine) Parser() *parse.Parser {
	return e.parser
}

// Analyze runs the whole pipeline on one export held in memory. Failures are
// always *Error; no partial report is returned.
func (e *Engine) Analyze(ctx context.Context, text string) (*report.Report, error) {
	r, err := e.analyze(ctx, text)
	if err != nil {
		return nil, wrap(err)
	}
	return r, nil
}

func (e *Engine) analyze(ctx context.Context, text string) (*report.Report, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conv, err := e.parser.Parse(text)
	if err != nil {
		return nil, err
	}
	prov := conv.Provenance
	logging.Debug().
		Str("format", prov.Format).
		Str("date_order", string(prov.DateOrder)).
		Int("lines", prov.TotalLines).
		Int("messages", prov.MessageLines).
		Int("system", prov.SystemEvents).
		Dur("took", time.Since(start)).
		Msg("parsed export")
	if prov.PartialLoss() {
		logging.Warn().Int("skipped", prov.SkippedLines).Ints("sample", prov.SkippedLineNumbers).Msg("some lines could not be parsed")
	}
	if prov.TimestampInversions > 0 {
		logging.Warn().Int("inversions", prov.TimestampInversions).Msg("timestamps go backwards")
	}

	stage := time.Now()
	feats, err := e.analyzer.AnalyzeAll(ctx, conv.Messages, e.opts.Workers)
	if err != nil {
		return nil, err
	}
	logging.Debug().Int("workers", e.opts.Workers).Dur("took", time.Since(stage)).Msg("content features")

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stage = time.Now()
	profile := temporal.Aggregate(conv.Messages, e.opts.Temporal)
	users := stats.Aggregate(conv.Messages, feats, &profile, e.opts.Stats)
	boards := score.Evaluate(users, e.opts.Categories)
	logging.Debug().Int("users", len(users)).Int("categories", len(boards)).Dur("took", time.Since(stage)).Msg("aggregated")

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := report.Build(report.Inputs{
		Conversation: conv,
		Features:     feats,
		Temporal:     profile,
		Users:        users,
		Leaderboards: boards,
		TopEmojis:    e.opts.TopEmojis,
	})
	logging.Debug().Int("total_messages", r.TotalMessages).Dur("took", time.Since(start)).Msg("analysis done")
	return r, nil
}

// AnalyzeFile reads the whole export before parsing.
func (e *Engine) AnalyzeFile(ctx context.Context, path string) (*report.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	return e.Analyze(ctx, string(data))
}

func Analyze(ctx context.Context, text string, opts Options) (*report.Report, error) {
	e, err := New(opts)
	if err != nil {
		return nil, err
	}
	return e.Analyze(ctx, text)
}

func AnalyzeFile(ctx context.Context, path string, opts Options) (*report.Report, error) {
	e, err := New(opts)
	if err != nil {
		return nil, err
	}
	return e.AnalyzeFile(ctx, path)
}
