package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/Zuo-Peng/chatlyze/internal/content"
	"github.com/Zuo-Peng/chatlyze/internal/engine"
	"github.com/Zuo-Peng/chatlyze/internal/parse"
	"github.com/Zuo-Peng/chatlyze/internal/score"
	"github.com/Zuo-Peng/chatlyze/internal/stats"
	"github.com/Zuo-Peng/chatlyze/internal/temporal"
)

// Duration is a time.Duration written as "90s" or "2h" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	DBPath    string `toml:"db_path"`
	LogLevel  string `toml:"log_level" validate:"oneof=trace debug info warn error disabled"`
	LogFormat string `toml:"log_format" validate:"oneof=console json"`
	Workers   int    `toml:"workers" validate:"min=0,max=256"`
	TopEmojis int    `toml:"top_emojis" validate:"min=0,max=1000"`

	Parse    ParseConfig    `toml:"parse"`
	Content  ContentConfig  `toml:"content"`
	Temporal TemporalConfig `toml:"temporal"`
	Stats    StatsConfig    `toml:"stats"`
	Score    ScoreConfig    `toml:"score"`

	// Path is the file the config was read from, empty for built-in defaults.
	Path string `toml:"-"`
}

type ParseConfig struct {
	SampleSize      int                `toml:"sample_size" validate:"min=1,max=100000"`
	Formats         []parse.FormatSpec `toml:"formats" validate:"dive"`
	SystemPhrases   []string           `toml:"system_phrases" validate:"dive,required"`
	MediaPhrases    []string           `toml:"media_phrases" validate:"dive,required"`
	DeletionPhrases []string           `toml:"deletion_phrases" validate:"dive,required"`
}

type ContentConfig struct {
	EmojiRanges    []content.Range    `toml:"emoji_ranges"`
	Positive       map[string]float64 `toml:"positive" validate:"dive,keys,required,endkeys,gt=0"`
	Negative       map[string]float64 `toml:"negative" validate:"dive,keys,required,endkeys,gt=0"`
	LengthWeight   float64            `toml:"length_weight" validate:"min=0"`
	QuestionWeight float64            `toml:"question_weight" validate:"min=0"`
	ContentWeight  float64            `toml:"content_weight" validate:"min=0"`
	LengthTarget   int                `toml:"length_target" validate:"min=1"`
}

type TemporalConfig struct {
	Night          temporal.Window `toml:"night"`
	Early          temporal.Window `toml:"early"`
	NightThreshold float64         `toml:"night_threshold" validate:"min=0,max=1"`
	EarlyThreshold float64         `toml:"early_threshold" validate:"min=0,max=1"`
	DailyWindow    int             `toml:"daily_window" validate:"min=1,max=3660"`
}

type StatsConfig struct {
	ConversationGap Duration `toml:"conversation_gap"`
	MaxResponseGap  Duration `toml:"max_response_gap"`
	BestLines       int      `toml:"best_lines" validate:"min=0,max=100"`
	TopEmojis       int      `toml:"top_emojis" validate:"min=0,max=1000"`
}

type ScoreConfig struct {
	Thresholds map[string]float64 `toml:"thresholds"`
	Disabled   []string           `toml:"disabled"`
}

func home() string {
	h, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return h
}

// DefaultPath is ~/.config/chatlyze/config.toml.
func DefaultPath() string {
	return filepath.Join(home(), ".config", "chatlyze", "config.toml")
}

// base holds scalar defaults only; lists and maps are filled after decoding
// so that a list in the file replaces the built-in one instead of merging.
func base() *Config {
	st := stats.DefaultOptions()
	ct := content.DefaultOptions()
	tp := temporal.DefaultOptions()
	return &Config{
		DBPath:    filepath.Join(home(), ".config", "chatlyze", "history.db"),
		LogLevel:  "warn",
		LogFormat: "console",
		TopEmojis: engine.DefaultTopEmojis,
		Parse:     ParseConfig{SampleSize: parse.DefaultSampleSize},
		Content: ContentConfig{
			LengthWeight:   ct.LengthWeight,
			QuestionWeight: ct.QuestionWeight,
			ContentWeight:  ct.ContentWeight,
			LengthTarget:   ct.LengthTarget,
		},
		Temporal: TemporalConfig{
			Night:          tp.Night,
			Early:          tp.Early,
			NightThreshold: tp.NightThreshold,
			EarlyThreshold: tp.EarlyThreshold,
			DailyWindow:    tp.DailyWindow,
		},
		Stats: StatsConfig{
			ConversationGap: Duration{st.ConversationGap},
			MaxResponseGap:  Duration{st.MaxResponseGap},
			BestLines:       st.BestLines,
			TopEmojis:       st.TopEmojis,
		},
	}
}

func (c *Config) fillDefaults() {
	vocab := parse.DefaultVocabulary()
	ct := content.DefaultOptions()
	if len(c.Parse.Formats) == 0 {
		c.Parse.Formats = parse.DefaultFormats()
	}
	if len(c.Parse.SystemPhrases) == 0 {
		c.Parse.SystemPhrases = vocab.System
	}
	if len(c.Parse.MediaPhrases) == 0 {
		c.Parse.MediaPhrases = vocab.Media
	}
	if len(c.Parse.DeletionPhrases) == 0 {
		c.Parse.DeletionPhrases = vocab.Deletion
	}
	if len(c.Content.EmojiRanges) == 0 {
		c.Content.EmojiRanges = ct.EmojiRanges
	}
	if len(c.Content.Positive) == 0 {
		c.Content.Positive = ct.Positive
	}
	if len(c.Content.Negative) == 0 {
		c.Content.Negative = ct.Negative
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	c := base()
	c.fillDefaults()
	return c
}

// Load reads path over the defaults. An empty path means DefaultPath, which
// may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	h := home()
	cfg := base()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.Path = path
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg.fillDefaults()

	// expand ~ in paths
	cfg.DBPath = expandHome(cfg.DBPath, h)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks struct constraints and that the analysis options compile.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := c.EngineOptions(); err != nil {
		return err
	}
	return nil
}

// EngineOptions converts the file settings to analysis options.
func (c *Config) EngineOptions() (engine.Options, error) {
	cats, err := score.Configure(score.DefaultCategories(), c.Score.Thresholds, c.Score.Disabled)
	if err != nil {
		return engine.Options{}, err
	}
	opts := engine.Options{
		Parse: parse.Options{
			Formats:    c.Parse.Formats,
			SampleSize: c.Parse.SampleSize,
			Vocabulary: parse.Vocabulary{
				System:   c.Parse.SystemPhrases,
				Media:    c.Parse.MediaPhrases,
				Deletion: c.Parse.DeletionPhrases,
			},
		},
		Content: content.Options{
			EmojiRanges:    c.Content.EmojiRanges,
			Positive:       c.Content.Positive,
			Negative:       c.Content.Negative,
			LengthWeight:   c.Content.LengthWeight,
			QuestionWeight: c.Content.QuestionWeight,
			ContentWeight:  c.Content.ContentWeight,
			LengthTarget:   c.Content.LengthTarget,
		},
		Temporal: temporal.Options{
			Night:          c.Temporal.Night,
			Early:          c.Temporal.Early,
			NightThreshold: c.Temporal.NightThreshold,
			EarlyThreshold: c.Temporal.EarlyThreshold,
			DailyWindow:    c.Temporal.DailyWindow,
		},
		Stats: stats.Options{
			ConversationGap: c.Stats.ConversationGap.Duration,
			MaxResponseGap:  c.Stats.MaxResponseGap.Duration,
			BestLines:       c.Stats.BestLines,
			TopEmojis:       c.Stats.TopEmojis,
		},
		Categories: cats,
		Workers:    c.Workers,
		TopEmojis:  c.TopEmojis,
	}
	if err := opts.Validate(); err != nil {
		return engine.Options{}, err
	}
	return opts, nil
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
