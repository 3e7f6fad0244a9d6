// Package cli holds the bogglefinder cobra commands.
package cli

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/bogglefinder/internal/config"
)

// cfg is loaded once before any command runs.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "bogglefinder",
	Short: "Boggle word finder",
	Long: `bogglefinder - find every word on a 4x4 Boggle board
  - serve: HTTP API with accounts, credits and solve sessions (default)
  - solve: solve a board locally and print the words
  - credits: operator tools for user balances`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runServe,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(solveCmd)
	rootCmd.AddCommand(creditsCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	cfg = config.Load()
	configureLogging(cfg)
	return nil
}

// configureLogging sets the global zerolog level and, outside production,
// a human-readable console writer.
func configureLogging(c config.Config) {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339
	if !c.Production() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
