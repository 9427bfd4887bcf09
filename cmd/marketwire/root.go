package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"marketwire/internal/config"
)

func newRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "marketwire",
		Short: "Generic client for cursor-paginated REST APIs and websocket market streams",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing config.yaml")

	rootCmd.AddCommand(newStreamCommand(&configPath))
	rootCmd.AddCommand(newFetchCommand(&configPath))

	return rootCmd
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, nil))
}

func loadConfig(path string) (config.Config, error) {
	return config.LoadConfig(path)
}
