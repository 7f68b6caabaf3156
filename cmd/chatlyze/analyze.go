package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Zuo-Peng/chatlyze/internal/engine"
	"github.com/Zuo-Peng/chatlyze/internal/index"
	"github.com/Zuo-Peng/chatlyze/internal/logging"
	"github.com/Zuo-Peng/chatlyze/internal/render"
	"github.com/Zuo-Peng/chatlyze/internal/report"
	"github.com/Zuo-Peng/chatlyze/internal/scan"
)

// result is one export's outcome; err is set instead of report on failure.
type result struct {
	path   string
	data   []byte
	report *report.Report
	err    error
}

// analyzeAll runs one independent analysis per export. Failures of single
// exports are kept in their result rather than stopping the others.
func analyzeAll(ctx context.Context, eng *engine.Engine, files []scan.FileInfo, parallel int) ([]result, error) {
	results := make([]result, len(files))
	g, ctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			data, err := os.ReadFile(f.Path)
			if err != nil {
				results[i] = result{path: f.Path, err: fmt.Errorf("read export: %w", err)}
				return nil
			}
			r, err := eng.Analyze(ctx, string(data))
			if engine.KindOf(err) == engine.KindCanceled {
				return err
			}
			results[i] = result{path: f.Path, data: data, report: r, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func analyzeCmd() *cobra.Command {
	var asJSON, save bool
	var workers, parallel int

	cmd := &cobra.Command{
		Use:   "analyze <file|dir>...",
		Short: "Analyze chat exports and print a report",
		Long: `Analyze one or more exported chats. Directories are scanned for *.txt exports.
Each export is analyzed on its own; with --json one report object is printed per export.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			opts, err := cfg.EngineOptions()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				opts.Workers = workers
			}
			eng, err := engine.New(opts)
			if err != nil {
				return fmt.Errorf("%s", engine.UserMessage(err))
			}

			files, err := scan.Exports(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no exports found in %v", args)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			results, err := analyzeAll(ctx, eng, files, parallel)
			if err != nil {
				return fmt.Errorf("%s", engine.UserMessage(err))
			}

			var db *index.DB
			var stats index.Stats
			if save {
				db, err = index.OpenDB(cfg.DBPath)
				if err != nil {
					return err
				}
				defer db.Close()
			}

			failed := 0
			width := terminalWidth()
			for _, res := range results {
				if res.err != nil {
					failed++
					fmt.Fprintf(os.Stderr, "%s: %s\n", res.path, engine.UserMessage(res.err))
					logging.Debug().Err(res.err).Str("file", res.path).Msg("analysis failed")
					continue
				}
				if asJSON {
					if err := report.Encode(os.Stdout, res.report, true); err != nil {
						return err
					}
				} else {
					if len(results) > 1 {
						fmt.Printf("=== %s ===\n", res.path)
					}
					fmt.Print(render.Report(res.report, render.Options{Width: width, Color: width > 0}))
					fmt.Println()
				}
				if db != nil {
					run, err := index.Record(db, res.path, res.data, res.report, &stats)
					if err != nil {
						fmt.Fprintf(os.Stderr, "  WARN: save %s: %v\n", res.path, err)
						continue
					}
					fmt.Fprintf(os.Stderr, "saved run %s\n", run.ID)
				}
			}
			if db != nil {
				logging.Info().Str("stats", stats.String()).Msg("history updated")
			}
			if failed == len(results) {
				return fmt.Errorf("no export could be analyzed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full report as JSON")
	cmd.Flags().BoolVar(&save, "save", false, "Record the run in history")
	cmd.Flags().IntVar(&workers, "workers", 0, "Content analysis workers per export (0 = all CPUs)")
	cmd.Flags().IntVar(&parallel, "parallel", 4, "Exports analyzed at the same time")

	return cmd
}

// analyzeFile loads the config and analyzes a single export.
func analyzeFile(ctx context.Context, path string) (*report.Report, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, err
	}
	r, err := engine.AnalyzeFile(ctx, path, opts)
	if err != nil {
		if engine.KindOf(err) == "" {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %s", path, engine.UserMessage(err))
	}
	return r, nil
}
