package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/chatlyze/internal/config"
	"github.com/Zuo-Peng/chatlyze/internal/logging"
)

var version = "dev"

var (
	configPath string
	logLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "chatlyze",
		Short:         "Chatlyze - statistics and awards for exported chat conversations",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/chatlyze/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (trace/debug/info/warn/error)")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(leaderboardCmd())
	rootCmd.AddCommand(browseCmd())
	rootCmd.AddCommand(formatsCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(openCmd())
	rootCmd.AddCommand(doctorCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and sets up logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})
	logging.Debug().Str("config", cfg.Path).Str("db", cfg.DBPath).Msg("config loaded")
	return cfg, nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// terminalWidth is the stdout width, or 0 when it is not a terminal.
func terminalWidth() int {
	if !isTerminal() {
		return 0
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}
