package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatlyze/internal/config"
	"github.com/Zuo-Peng/chatlyze/internal/engine"
	"github.com/Zuo-Peng/chatlyze/internal/index"
	"github.com/Zuo-Peng/chatlyze/internal/parse"
)

const doctorSample = "01/01/24, 09:00 - Alice: hello\n01/01/24, 09:01 - Bob: hi there\n"

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify config, formats and history database",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("=== Config ===")
			cfg, err := loadConfig()
			if err != nil {
				fmt.Printf("  Status: INVALID\n  %v\n", err)
				return err
			}
			if cfg.Path == "" {
				fmt.Printf("  Path: %s (not found, using defaults)\n", config.DefaultPath())
			} else {
				fmt.Printf("  Path: %s (OK)\n", cfg.Path)
			}
			fmt.Printf("  Log: %s/%s\n", cfg.LogLevel, cfg.LogFormat)

			fmt.Println("\n=== Formats ===")
			opts, err := cfg.EngineOptions()
			if err != nil {
				return fmt.Errorf("engine options: %w", err)
			}
			p, err := parse.NewParser(opts.Parse)
			if err != nil {
				return err
			}
			for _, f := range p.Formats() {
				fmt.Printf("  %-16s %-4s %s\n", f.ID, f.DateOrder, f.Example)
			}
			fmt.Printf("  Score categories: %d\n", len(opts.Categories))

			// smoke run through the whole pipeline
			if _, err := engine.Analyze(cmd.Context(), doctorSample, opts); err != nil {
				fmt.Printf("  Pipeline: FAILED (%s)\n", engine.UserMessage(err))
			} else {
				fmt.Println("  Pipeline: OK")
			}

			fmt.Println("\n=== Database ===")
			fmt.Printf("  Path: %s\n", cfg.DBPath)
			if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
				fmt.Println("  Status: NOT FOUND (run 'chatlyze analyze --save' first)")
				return nil
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			ver, err := db.SchemaVersion()
			if err != nil {
				return fmt.Errorf("schema version: %w", err)
			}
			runCount, err := db.RunCount()
			if err != nil {
				return fmt.Errorf("count runs: %w", err)
			}
			fmt.Printf("  Schema: v%s\n", ver)
			fmt.Printf("  Runs:   %d\n", runCount)

			if info, err := os.Stat(cfg.DBPath); err == nil {
				fmt.Printf("\n=== DB Size: %s ===\n", humanize.Bytes(uint64(info.Size())))
			}
			return nil
		},
	}
}
