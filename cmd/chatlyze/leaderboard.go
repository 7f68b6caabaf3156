package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatlyze/internal/render"
	"github.com/Zuo-Peng/chatlyze/internal/score"
)

func leaderboardCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "leaderboard <file>",
		Short: "Show award rankings for an export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := analyzeFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			width := terminalWidth()
			opts := render.Options{Width: width, Color: width > 0}
			if category != "" {
				lb, ok := score.Find(r.Leaderboards, category)
				if !ok {
					return fmt.Errorf("unknown or disabled category %q", category)
				}
				fmt.Print(render.Leaderboard(*lb, opts))
				return nil
			}
			for i, lb := range r.Leaderboards {
				if i > 0 {
					fmt.Println()
				}
				fmt.Print(render.Leaderboard(lb, opts))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only this category id (e.g. fastest_responder)")

	return cmd
}
