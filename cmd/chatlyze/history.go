package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatlyze/internal/index"
	"github.com/Zuo-Peng/chatlyze/internal/render"
	"github.com/Zuo-Peng/chatlyze/internal/report"
	"github.com/Zuo-Peng/chatlyze/internal/search"
)

func historyCmd() *cobra.Command {
	var format, since, del string
	var limit int
	var prune, asJSON bool

	cmd := &cobra.Command{
		Use:   "history [query]",
		Short: "List saved analysis runs",
		Long:  "List runs saved with 'analyze --save'. The query matches file paths and participant names.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			if del != "" {
				ok, err := db.DeleteRun(del)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("run not found: %s", del)
				}
				fmt.Printf("deleted %s\n", del)
				return nil
			}

			if prune {
				var stats index.Stats
				if err := index.Prune(db, &stats); err != nil {
					return fmt.Errorf("prune: %w", err)
				}
				fmt.Fprintf(os.Stderr, "%s\n", stats)
			}

			opts := search.Options{Format: format, Since: since, Limit: limit}
			if len(args) == 1 {
				opts.Query = args[0]
			}
			runs, err := search.Search(db, opts)
			if err != nil {
				return err
			}

			if asJSON {
				type entry struct {
					ID        string         `json:"id"`
					CreatedAt time.Time      `json:"created_at"`
					FilePath  string         `json:"file_path"`
					SHA256    string         `json:"sha256"`
					Summary   report.Summary `json:"summary"`
				}
				out := make([]entry, 0, len(runs))
				for _, r := range runs {
					out = append(out, entry{r.ID, r.CreatedAt, r.FilePath, r.SHA256, r.Summary})
				}
				return report.Encode(os.Stdout, out, true)
			}

			width := terminalWidth()
			fmt.Print(render.History(runs, time.Now(), render.Options{Width: width, Color: width > 0}))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Filter by detected format id")
	cmd.Flags().StringVar(&since, "since", "", "Runs saved since date (YYYY-MM-DD) or duration (72h)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Max runs")
	cmd.Flags().StringVar(&del, "delete", "", "Delete the run with this id")
	cmd.Flags().BoolVar(&prune, "prune", false, "Drop runs whose export file is gone")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print runs as JSON")

	return cmd
}
