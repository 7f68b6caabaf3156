package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chatlyze/internal/render"
	"github.com/Zuo-Peng/chatlyze/internal/tui"
)

func browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse <file>",
		Short: "Explore a report interactively",
		Long:  "Browse people and awards of an export. When stdout is not a terminal the plain report is printed instead.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := analyzeFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if !isTerminal() {
				fmt.Print(render.Report(r, render.Options{}))
				for i := range r.Users {
					fmt.Println()
					fmt.Print(render.UserCard(&r.Users[i], render.Options{}))
				}
				return nil
			}
			return tui.Run(r, filepath.Base(args[0]))
		},
	}
}
