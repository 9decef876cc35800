package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Schwartz-Lab-NU/arborStats/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "arborstats",
	Short: "Batch flattening and arbor statistics for neuron segments",
	Long: `arborstats runs the two-stage reconstruction pipeline over a batch of
neuron segment IDs: flatten each segment with the flatone tool, then compute
arbor statistics from the resulting skeleton.

Segment IDs come from an explicit list, a Google Sheet, or a local CSV.
Progress lives entirely on disk: a segment whose outputs already exist is
skipped, so an interrupted run can simply be re-run.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBatch,
}

// Execute runs the root command with signal handling
func Execute(ctx context.Context) error {
	// Create context with signal handling
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	RegisterRunFlags(rootCmd)

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.String())
	},
}
