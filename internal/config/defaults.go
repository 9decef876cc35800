package config

import "time"

// Default column names and filters match the lab's tracking sheet.
const (
	DefaultSheetIDColumn = "Updated Seg ID (Sept 2)"
	DefaultCSVIDColumn   = "Final SegID"
	DefaultStatusColumn  = "Status"
	DefaultReviewColumn  = "Cell Requires Review (DO NOT use Updated IDs for those cells)"
)

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			SheetIDColumn: DefaultSheetIDColumn,
			CSVIDColumn:   DefaultCSVIDColumn,
			StatusColumn:  DefaultStatusColumn,
			StatusAllow:   []string{"Complete", "Complete (cut off)"},
			ReviewColumn:  DefaultReviewColumn,
			ReviewAllow:   []string{"FALSE"},
		},
		Flatone: FlatoneConfig{
			Binary:  "flatone",
			Timeout: 2 * time.Hour,
		},
		Run: RunConfig{
			Jobs: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
	}
}
