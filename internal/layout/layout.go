// Package layout owns the on-disk output structure: one directory per
// segment under the output root, fixed artifact filenames inside it, and two
// run-level summary files at the root. Artifact presence is the only durable
// state the pipeline keeps; every skip/run/retry decision derives from the
// inventory function here.
package layout

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/Schwartz-Lab-NU/arborStats/internal/types"
)

// ArtifactKind is the fixed filename of one expected per-segment artifact.
type ArtifactKind string

const (
	// ArtifactMesh is the downloaded segment mesh.
	ArtifactMesh ArtifactKind = "mesh.obj"
	// ArtifactSkeleton is the raw skeleton produced by the flatten stage.
	ArtifactSkeleton ArtifactKind = "skeleton.swc"
	// ArtifactWarpedSkeleton is the depth-flattened skeleton.
	ArtifactWarpedSkeleton ArtifactKind = "skeleton_warped.swc"
	// ArtifactStats is the serialized arbor statistics payload.
	ArtifactStats ArtifactKind = "arbor_stats.pkl"
	// ArtifactStatsError marks the last stats attempt as failed and holds the
	// error text. Its presence means "last attempt failed", not "done".
	ArtifactStatsError ArtifactKind = "arbor_stats_error.txt"
)

// Run-root summary filenames, overwritten on every run.
const (
	StatsErrorListFile   = "arbor_stats_error_seg_ids.txt"
	NotProcessedListFile = "not_processed_seg_ids.txt"
)

// expectedArtifacts is the set inspected by Inventory.
var expectedArtifacts = []ArtifactKind{
	ArtifactMesh,
	ArtifactSkeleton,
	ArtifactWarpedSkeleton,
	ArtifactStats,
	ArtifactStatsError,
}

// Inventory is the set of expected artifacts present in a segment directory
// at one point in time.
type Inventory map[ArtifactKind]bool

// Has reports whether the artifact was present at inspection time.
func (inv Inventory) Has(kind ArtifactKind) bool {
	return inv[kind]
}

// FlattenComplete reports whether the flatten stage finished: both skeleton
// artifacts present.
func (inv Inventory) FlattenComplete() bool {
	return inv.Has(ArtifactSkeleton) && inv.Has(ArtifactWarpedSkeleton)
}

// StatsComplete reports whether the stats stage finished. Absence of the
// stats file overrides presence of the error marker, so a previously failed
// segment is retried under the new-only policy.
func (inv Inventory) StatsComplete() bool {
	return inv.Has(ArtifactStats)
}

// StatsInput returns the skeleton artifact to feed the stats stage, preferring
// the warped skeleton over the raw one. ok is false when neither is present.
func (inv Inventory) StatsInput() (ArtifactKind, bool) {
	switch {
	case inv.Has(ArtifactWarpedSkeleton):
		return ArtifactWarpedSkeleton, true
	case inv.Has(ArtifactSkeleton):
		return ArtifactSkeleton, true
	default:
		return "", false
	}
}

// Manager maps segment IDs to their output directories and inspects artifact
// presence. Reads are side-effect free; the only mutation is idempotent
// directory creation.
type Manager struct {
	root string
}

// NewManager creates a Manager rooted at the given output directory.
func NewManager(root string) *Manager {
	return &Manager{root: root}
}

// Root returns the output root directory.
func (m *Manager) Root() string {
	return m.root
}

// SegmentDir returns the per-segment output directory without creating it.
func (m *Manager) SegmentDir(id types.SegmentID) string {
	return filepath.Join(m.root, id.String())
}

// ArtifactPath returns the fixed path of one artifact for a segment.
func (m *Manager) ArtifactPath(id types.SegmentID, kind ArtifactKind) string {
	return filepath.Join(m.SegmentDir(id), string(kind))
}

// SummaryPath returns the path of a run-root summary file.
func (m *Manager) SummaryPath(name string) string {
	return filepath.Join(m.root, name)
}

// EnsureSegmentDir creates the segment directory if it does not exist.
// Concurrent creation by multiple workers is safe: the second creator
// observes "already exists" and proceeds.
func (m *Manager) EnsureSegmentDir(id types.SegmentID) (string, error) {
	dir := m.SegmentDir(id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", types.WrapError(types.LAYOUT_CREATE_FAILED,
			fmt.Sprintf("creating segment directory for %s", id), err)
	}
	return dir, nil
}

// Inventory inspects which expected artifacts are present for a segment.
// A missing segment directory yields an empty inventory, not an error.
func (m *Manager) Inventory(id types.SegmentID) (Inventory, error) {
	inv := make(Inventory, len(expectedArtifacts))
	for _, kind := range expectedArtifacts {
		_, err := os.Stat(m.ArtifactPath(id, kind))
		switch {
		case err == nil:
			inv[kind] = true
		case errors.Is(err, fs.ErrNotExist):
			// absent
		default:
			return nil, types.WrapError(types.LAYOUT_READ_FAILED,
				fmt.Sprintf("inspecting %s for segment %s", kind, id), err)
		}
	}
	return inv, nil
}
