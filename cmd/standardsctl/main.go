// Package main provides the standardsctl binary for managing a versioned
// standards repository: recording versions, activating and rolling back,
// comparing revisions and serving the management HTTP API.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/solaius/standards-registry/pkg/registry"
)

var (
	version = "dev"

	// Global flags
	repoFlag    string
	userFlag    string
	outputFlag  string
	verboseFlag bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "standardsctl",
		Short: "CLI for the versioned standards registry",
		Long: `standardsctl manages a repository of versioned standards documents.

It records immutable versions of tracked documents, activates and rolls
back versions with integrity verification, compares revisions, renders
changelogs and serves the management HTTP API.

Commands operate directly on the repository given by --repo.`,
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verboseFlag {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			}))
			slog.SetDefault(logger)
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", ".", "Repository root holding the standards documents")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "Operator identity recorded in history (default: OS user)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")

	// Register subcommands
	rootCmd.AddCommand(newCreateCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newActivateCmd())
	rootCmd.AddCommand(newRollbackCmd())
	rootCmd.AddCommand(newStableCmd())
	rootCmd.AddCommand(newCompareCmd())
	rootCmd.AddCommand(newChangelogCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newServeCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newController opens the store rooted at --repo, attributing operations
// to --user when set.
func newController() (*registry.Controller, error) {
	var opts []registry.Option
	if userFlag != "" {
		opts = append(opts, registry.WithActor(userFlag))
	}
	return registry.New(repoFlag, opts...)
}
