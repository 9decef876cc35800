package arbor

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Schwartz-Lab-NU/arborStats/internal/swc"
)

// A simple Y-shaped arbor: soma at origin, trunk along x, two branches.
//
//	1 --10--> 2 --10--> 3
//	           \--20--> 4
const ySkeleton = `1 1 0 0 0 5 -1
2 3 10 0 0 1 1
3 3 10 10 0 1 2
4 3 30 0 0 1 2
`

func TestFromSkeleton(t *testing.T) {
	sk, err := swc.Parse(strings.NewReader(ySkeleton))
	require.NoError(t, err)

	report, err := FromSkeleton(sk)
	require.NoError(t, err)
	m := report.Metrics

	assert.Equal(t, 4, m.NodeCount)
	assert.Equal(t, 1, m.BranchPointCount)
	assert.Equal(t, 2, m.TipCount)
	assert.InDelta(t, 40.0, m.TotalCableLength, 1e-9)

	// Longest path from soma: 1 -> 2 -> 4 = 10 + 20.
	assert.InDelta(t, 30.0, m.MaxPathDistance, 1e-9)

	assert.Equal(t, [3]float64{0, 0, 0}, m.BoundingBoxMin)
	assert.Equal(t, [3]float64{30, 10, 0}, m.BoundingBoxMax)
	assert.InDelta(t, 2.0, m.MeanRadius, 1e-9)
	assert.Equal(t, 5.0, m.MaxRadius)

	assert.Equal(t, "um", report.Units["length"])
}

func TestFromSkeletonSingleNode(t *testing.T) {
	sk, err := swc.Parse(strings.NewReader("1 1 3 4 5 2 -1\n"))
	require.NoError(t, err)

	report, err := FromSkeleton(sk)
	require.NoError(t, err)
	m := report.Metrics

	assert.Equal(t, 1, m.NodeCount)
	assert.Equal(t, 0, m.BranchPointCount)
	assert.Equal(t, 0, m.TipCount)
	assert.Equal(t, 0.0, m.TotalCableLength)
	assert.Equal(t, 0.0, m.MaxPathDistance)
}

func TestFromSkeletonDiagonalEdge(t *testing.T) {
	sk, err := swc.Parse(strings.NewReader("1 1 0 0 0 1 -1\n2 3 1 1 1 1 1\n"))
	require.NoError(t, err)

	report, err := FromSkeleton(sk)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(3), report.Metrics.TotalCableLength, 1e-9)
}

func TestFromSkeletonRejectsParentCycle(t *testing.T) {
	tests := []struct {
		name string
		swc  string
	}{
		{"two-node cycle", "1 1 0 0 0 1 2\n2 1 1 0 0 1 1\n"},
		{"self-parent", "1 1 0 0 0 1 -1\n2 1 1 0 0 1 2\n"},
		{"cycle below a valid root", "1 1 0 0 0 1 -1\n2 1 1 0 0 1 3\n3 1 2 0 0 1 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sk, err := swc.Parse(strings.NewReader(tt.swc))
			require.NoError(t, err)

			// Must return promptly with an error, never loop on the
			// corrupt parent links.
			_, err = FromSkeleton(sk)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "cycle")
		})
	}
}

func TestComputeFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skeleton_warped.swc")
	require.NoError(t, os.WriteFile(path, []byte(ySkeleton), 0o644))

	report, err := ComputeFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Metrics.NodeCount)

	_, err = ComputeFromFile(filepath.Join(t.TempDir(), "missing.swc"))
	assert.Error(t, err)
}
