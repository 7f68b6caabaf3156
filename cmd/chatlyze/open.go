package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatlyze/internal/open"
	"github.com/Zuo-Peng/chatlyze/internal/parse"
)

func openCmd() *cobra.Command {
	var line int

	cmd := &cobra.Command{
		Use:   "open <file>",
		Short: "Open an export in $EDITOR at the first line that could not be parsed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if line <= 0 {
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
				data, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read export: %w", err)
				}
				line, err = open.TargetLine(p, string(data))
				if err != nil {
					// nothing parsed, start at the top
					line = 1
				}
			}
			return open.Export(args[0], line)
		},
	}

	cmd.Flags().IntVar(&line, "line", 0, "Line to jump to")

	return cmd
}
