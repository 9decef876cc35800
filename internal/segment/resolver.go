// Package segment resolves a heterogeneous set of input sources (explicit ID
// list, Google Sheet export, local CSV) into a deduplicated, order-preserving
// sequence of segment IDs.
package segment

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"slices"

	"github.com/Schwartz-Lab-NU/arborStats/internal/tabular"
	"github.com/Schwartz-Lab-NU/arborStats/internal/types"
)

// Source produces the segment IDs to process. Exactly one source is resolved
// per run; the caller enforces mutual exclusion of source flags.
type Source interface {
	Resolve(ctx context.Context) ([]types.SegmentID, error)
}

// ExplicitSource wraps segment IDs passed directly on the command line.
// No filtering is applied beyond deduplication.
type ExplicitSource struct {
	IDs []string
}

// Resolve parses and deduplicates the explicit ID list. A malformed ID here
// is user input error, so it is fatal rather than dropped.
func (s *ExplicitSource) Resolve(_ context.Context) ([]types.SegmentID, error) {
	ids := make([]types.SegmentID, 0, len(s.IDs))
	for _, raw := range s.IDs {
		id, err := types.ParseSegmentID(raw)
		if err != nil {
			return nil, types.WrapFatalError(types.SOURCE_SCHEMA_INVALID,
				fmt.Sprintf("invalid segment ID %q", raw), err)
		}
		ids = append(ids, id)
	}
	return Dedup(ids), nil
}

// CSVSource reads segment IDs from a local CSV file.
type CSVSource struct {
	Path   string
	Schema Schema
	Logger *slog.Logger
}

// Resolve loads the file and applies the schema's filters. A missing or
// unreadable file is a fatal source error, not retried.
func (s *CSVSource) Resolve(_ context.Context) ([]types.SegmentID, error) {
	if err := s.Schema.Validate(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, types.WrapFatalError(types.SOURCE_UNAVAILABLE,
			fmt.Sprintf("opening CSV %s", s.Path), err)
	}
	defer f.Close()

	return resolveTable(f, s.Schema, s.Logger)
}

// SheetSource reads segment IDs from a Google Sheet via its CSV export URL.
type SheetSource struct {
	SheetID string
	Schema  Schema
	Client  *http.Client
	Logger  *slog.Logger
}

// ExportURL returns the CSV export endpoint for the sheet.
func (s *SheetSource) ExportURL() string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv", s.SheetID)
}

// Resolve fetches the sheet export and applies the schema's filters. Network
// failures and non-200 responses are fatal source errors, not retried.
func (s *SheetSource) Resolve(ctx context.Context) ([]types.SegmentID, error) {
	if err := s.Schema.Validate(); err != nil {
		return nil, err
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.ExportURL(), nil)
	if err != nil {
		return nil, types.WrapFatalError(types.SOURCE_UNAVAILABLE, "building sheet request", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, types.WrapFatalError(types.SOURCE_UNAVAILABLE,
			fmt.Sprintf("fetching sheet %s", s.SheetID), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, types.NewFatalError(types.SOURCE_UNAVAILABLE,
			fmt.Sprintf("sheet %s returned HTTP %d", s.SheetID, resp.StatusCode))
	}

	return resolveTable(resp.Body, s.Schema, s.Logger)
}

// resolveTable loads the requested columns and retains rows passing both
// allow-list filters, then extracts and deduplicates IDs. Rows whose ID cell
// is missing or unparseable are dropped.
func resolveTable(r io.Reader, schema Schema, logger *slog.Logger) ([]types.SegmentID, error) {
	if logger == nil {
		logger = slog.Default()
	}

	table, err := tabular.Load(r, schema.columnSpecs())
	if err != nil {
		return nil, err
	}

	idCol := table.Column(schema.IDColumn)
	var statusCol, reviewCol *tabular.Column
	if schema.filtersStatus() {
		statusCol = table.Column(schema.StatusColumn)
	}
	if schema.filtersReview() {
		reviewCol = table.Column(schema.ReviewColumn)
	}

	var (
		ids     []types.SegmentID
		dropped int
	)
	for i := 0; i < table.Len(); i++ {
		if statusCol != nil && !slices.Contains(schema.StatusAllow, statusCol.StringAt(i)) {
			continue
		}
		if reviewCol != nil && !slices.Contains(schema.ReviewAllow, reviewCol.StringAt(i)) {
			continue
		}
		v, ok := idCol.Int64At(i)
		if !ok {
			dropped++
			continue
		}
		ids = append(ids, types.SegmentID(v))
	}

	if dropped > 0 {
		logger.Warn("dropped rows with missing or unparseable segment IDs",
			"column", schema.IDColumn, "dropped", dropped)
	}

	return Dedup(ids), nil
}

// Dedup collapses duplicate IDs while preserving first-seen order.
func Dedup(ids []types.SegmentID) []types.SegmentID {
	seen := make(map[types.SegmentID]struct{}, len(ids))
	out := make([]types.SegmentID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
