// Package arbor computes summary statistics over a parsed skeleton: counts,
// cable length, spatial extent, and path distance from the soma.
package arbor

import (
	"fmt"
	"math"

	"github.com/Schwartz-Lab-NU/arborStats/internal/swc"
)

// Metrics are the computed arbor statistics for one skeleton.
type Metrics struct {
	NodeCount        int        `json:"node_count"`
	BranchPointCount int        `json:"branch_point_count"`
	TipCount         int        `json:"tip_count"`
	TotalCableLength float64    `json:"total_cable_length"`
	MaxPathDistance  float64    `json:"max_path_distance"`
	BoundingBoxMin   [3]float64 `json:"bounding_box_min"`
	BoundingBoxMax   [3]float64 `json:"bounding_box_max"`
	MeanRadius       float64    `json:"mean_radius"`
	MaxRadius        float64    `json:"max_radius"`
}

// Report pairs the metrics with the units they are expressed in.
type Report struct {
	Metrics Metrics           `json:"stats"`
	Units   map[string]string `json:"units"`
}

// defaultUnits describes the coordinate space flatone emits.
var defaultUnits = map[string]string{
	"length": "um",
	"radius": "um",
}

// FromSkeleton computes arbor statistics from a parsed skeleton.
// Path distances are measured along the tree from the first root node.
func FromSkeleton(sk *swc.Skeleton) (*Report, error) {
	n := len(sk.Nodes)
	if n == 0 {
		return nil, fmt.Errorf("skeleton has no nodes")
	}

	m := Metrics{
		NodeCount:      n,
		BoundingBoxMin: [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)},
		BoundingBoxMax: [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)},
	}

	var radiusSum float64
	for _, node := range sk.Nodes {
		m.BoundingBoxMin[0] = math.Min(m.BoundingBoxMin[0], node.X)
		m.BoundingBoxMin[1] = math.Min(m.BoundingBoxMin[1], node.Y)
		m.BoundingBoxMin[2] = math.Min(m.BoundingBoxMin[2], node.Z)
		m.BoundingBoxMax[0] = math.Max(m.BoundingBoxMax[0], node.X)
		m.BoundingBoxMax[1] = math.Max(m.BoundingBoxMax[1], node.Y)
		m.BoundingBoxMax[2] = math.Max(m.BoundingBoxMax[2], node.Z)
		radiusSum += node.Radius
		m.MaxRadius = math.Max(m.MaxRadius, node.Radius)
	}
	m.MeanRadius = radiusSum / float64(n)

	// Edge lengths and degree-derived counts.
	children := sk.ChildCounts()
	edgeLen := make([]float64, n)
	for i := range sk.Nodes {
		j := sk.ParentIndex(i)
		if j < 0 {
			continue
		}
		d := dist(sk.Nodes[i], sk.Nodes[j])
		edgeLen[i] = d
		m.TotalCableLength += d
	}
	for i, c := range children {
		switch {
		case c >= 2:
			m.BranchPointCount++
		case c == 0 && sk.ParentIndex(i) >= 0:
			m.TipCount++
		}
	}

	maxDist, err := maxPathDistance(sk, edgeLen)
	if err != nil {
		return nil, err
	}
	m.MaxPathDistance = maxDist

	return &Report{Metrics: m, Units: defaultUnits}, nil
}

// ComputeFromFile loads the skeleton at path and computes its statistics.
func ComputeFromFile(path string) (*Report, error) {
	sk, err := swc.Load(path)
	if err != nil {
		return nil, err
	}
	return FromSkeleton(sk)
}

// maxPathDistance walks each node's parent chain once, memoizing distance
// from the root reached by the chain. A chain that revisits one of its own
// nodes means the parent links form a cycle, which no valid skeleton has.
func maxPathDistance(sk *swc.Skeleton, edgeLen []float64) (float64, error) {
	n := len(sk.Nodes)
	dist := make([]float64, n)
	done := make([]bool, n)
	onChain := make([]bool, n)

	var maxDist float64
	for i := 0; i < n; i++ {
		// Collect the unresolved chain above i.
		var chain []int
		j := i
		for j >= 0 && !done[j] {
			if onChain[j] {
				return 0, fmt.Errorf("skeleton parent links form a cycle through node %d", sk.Nodes[j].ID)
			}
			onChain[j] = true
			chain = append(chain, j)
			j = sk.ParentIndex(j)
		}
		// Resolve top-down.
		for k := len(chain) - 1; k >= 0; k-- {
			node := chain[k]
			parent := sk.ParentIndex(node)
			if parent >= 0 {
				dist[node] = dist[parent] + edgeLen[node]
			}
			done[node] = true
			onChain[node] = false
		}
		maxDist = math.Max(maxDist, dist[i])
	}
	return maxDist, nil
}

func dist(a, b swc.Node) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
