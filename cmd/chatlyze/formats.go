package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatlyze/internal/parse"
)

func formatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats [file]",
		Short: "List export formats, or show which one a file is detected as",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			opts, err := cfg.EngineOptions()
			if err != nil {
				return err
			}
			p, err := parse.NewParser(opts.Parse)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				for i, f := range p.Formats() {
					fmt.Printf("%d. %-16s %-4s %s\n", i+1, f.ID, f.DateOrder, f.Example)
				}
				return nil
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read export: %w", err)
			}
			det, err := p.Detect(string(data))
			if err != nil {
				return err
			}
			fmt.Printf("Sampled %d lines\n", det.SampleSize)
			for i, f := range p.Formats() {
				mark := " "
				if f == det.Format {
					mark = "*"
				}
				fmt.Printf("%s %-16s %d\n", mark, f.ID, det.Scores[i])
			}

			conv, err := p.Parse(string(data))
			if err != nil {
				return err
			}
			fmt.Println(conv.Provenance.String())
			fmt.Printf("date order: %s\n", conv.Provenance.DateOrder)
			if conv.Provenance.PartialLoss() {
				fmt.Printf("skipped lines: %v\n", conv.Provenance.SkippedLineNumbers)
			}
			return nil
		},
	}
}
