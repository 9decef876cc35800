package main

import (
	"github.com/spf13/cobra"

	"github.com/Schwartz-Lab-NU/arborStats/internal/plan"
)

// RunFlags holds every flag of the batch command. Exactly one segment ID
// source flag must be set; cobra enforces the mutual exclusions at parse
// time.
type RunFlags struct {
	// Segment ID sources (mutually exclusive, one required).
	SegIDs  []string
	SheetID string
	CSVPath string

	// Column schema overrides for tabular sources.
	CSVColumn    string
	StatusFilter []string
	ReviewFilter []string

	// Output root for all artifacts.
	OutputDir string

	// Stage selection (mutually exclusive; default runs both stages).
	Both        bool
	StatsOnly   bool
	FlattenOnly bool

	// Overwrite policy (mutually exclusive; default is new-only).
	OverwriteAll bool
	NewOnly      bool

	Jobs        int
	FlatoneBin  string
	FlatoneArgs []string

	ConfigFile  string
	MetricsAddr string
	Verbose     bool
	Quiet       bool
}

var runFlags = &RunFlags{}

// RegisterRunFlags registers the batch flags on the root command.
func RegisterRunFlags(cmd *cobra.Command) {
	f := cmd.Flags()

	f.StringSliceVar(&runFlags.SegIDs, "segids", nil, "Segment IDs to process, comma-separated or repeated")
	f.StringVar(&runFlags.SheetID, "google-sheet-id", "", "Google Sheet ID to read segment IDs from")
	f.StringVar(&runFlags.CSVPath, "csv", "", "Local CSV file to read segment IDs from")
	cmd.MarkFlagsOneRequired("segids", "google-sheet-id", "csv")
	cmd.MarkFlagsMutuallyExclusive("segids", "google-sheet-id", "csv")

	f.StringVar(&runFlags.CSVColumn, "csv-col", "", "Segment ID column name (overrides the config default)")
	f.StringSliceVar(&runFlags.StatusFilter, "status-filter", nil, "Status values that allow a row (overrides the config default)")
	f.StringSliceVar(&runFlags.ReviewFilter, "cell-review-filter", nil, "Review values that allow a row (overrides the config default)")

	f.StringVar(&runFlags.OutputDir, "output-dir", "", "Root directory for per-segment output (required unless set in config)")

	f.BoolVar(&runFlags.Both, "flatone-arbor-stats-both", false, "Run flattening then arbor statistics (default)")
	f.BoolVar(&runFlags.StatsOnly, "arbor-stats-only", false, "Only compute arbor statistics from existing skeletons")
	f.BoolVar(&runFlags.FlattenOnly, "flatone-only", false, "Only run flattening, skip arbor statistics")
	cmd.MarkFlagsMutuallyExclusive("flatone-arbor-stats-both", "arbor-stats-only", "flatone-only")

	f.BoolVar(&runFlags.OverwriteAll, "overwrite-all", false, "Recompute every stage even when outputs already exist")
	f.BoolVar(&runFlags.NewOnly, "new-only", false, "Skip stages whose outputs already exist (default)")
	cmd.MarkFlagsMutuallyExclusive("overwrite-all", "new-only")

	f.IntVarP(&runFlags.Jobs, "jobs", "j", 0, "Number of segments processed concurrently (default from config)")
	f.StringVar(&runFlags.FlatoneBin, "flatone-bin", "", "Path to the flatone executable (overrides the config default)")
	f.StringSliceVar(&runFlags.FlatoneArgs, "flatone-arg", nil, "Extra argument passed through to every flatone invocation")

	f.StringVar(&runFlags.ConfigFile, "config", "", "Path to config file")
	f.StringVar(&runFlags.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address for the duration of the run")
	f.BoolVarP(&runFlags.Verbose, "verbose", "v", false, "Enable verbose output")
	f.BoolVarP(&runFlags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// Mode returns the stage selection derived from the flags.
func (f *RunFlags) Mode() plan.Mode {
	switch {
	case f.FlattenOnly:
		return plan.ModeFlattenOnly
	case f.StatsOnly:
		return plan.ModeStatsOnly
	default:
		return plan.ModeBoth
	}
}

// Policy returns the overwrite policy derived from the flags.
func (f *RunFlags) Policy() plan.OverwritePolicy {
	if f.OverwriteAll {
		return plan.PolicyForceAll
	}
	return plan.PolicyNewOnly
}

// LogLevel maps the verbosity flags onto a log level, or returns the empty
// string when neither flag is set.
func (f *RunFlags) LogLevel() string {
	switch {
	case f.Verbose:
		return "debug"
	case f.Quiet:
		return "warn"
	default:
		return ""
	}
}
