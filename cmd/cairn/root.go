package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/BiAffectBridge/cairn/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "cairn",
	Short: "Cairn is an assessment navigation engine",
	Long:  `Cairn runs structured assessments (surveys, cognitive tasks) defined as YAML or JSON node trees, tracking answers and navigation history.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Directory containing assessment definitions")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
}

func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	raw, _ := cmd.Flags().GetString("log-level")
	level, err := logging.ParseLevel(raw)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}
