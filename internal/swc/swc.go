// Package swc parses SWC skeleton files: one node per line with
// id, type, x, y, z, radius, parent columns, '#' comment lines ignored.
package swc

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Node is one skeleton sample point. Parent is -1 for root nodes.
type Node struct {
	ID     int
	Type   int
	X      float64
	Y      float64
	Z      float64
	Radius float64
	Parent int
}

// Skeleton is a parsed SWC file: nodes in file order plus an ID index.
type Skeleton struct {
	Nodes []Node

	index map[int]int
}

// Parse reads SWC data from r. Blank lines and lines starting with '#' are
// skipped. A line with fewer than seven columns or an unparseable field is an
// error.
func Parse(r io.Reader) (*Skeleton, error) {
	sk := &Skeleton{index: make(map[int]int)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 7 {
			return nil, fmt.Errorf("swc line %d: expected 7 columns, got %d", lineNo, len(fields))
		}

		node, err := parseNode(fields)
		if err != nil {
			return nil, fmt.Errorf("swc line %d: %w", lineNo, err)
		}

		if _, dup := sk.index[node.ID]; dup {
			return nil, fmt.Errorf("swc line %d: duplicate node id %d", lineNo, node.ID)
		}
		sk.index[node.ID] = len(sk.Nodes)
		sk.Nodes = append(sk.Nodes, node)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading swc: %w", err)
	}

	if len(sk.Nodes) == 0 {
		return nil, fmt.Errorf("swc contains no nodes")
	}
	return sk, nil
}

// Load parses the SWC file at path.
func Load(path string) (*Skeleton, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sk, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sk, nil
}

func parseNode(fields []string) (Node, error) {
	var (
		node Node
		err  error
	)
	if node.ID, err = strconv.Atoi(fields[0]); err != nil {
		return node, fmt.Errorf("node id: %w", err)
	}
	if node.Type, err = strconv.Atoi(fields[1]); err != nil {
		return node, fmt.Errorf("node type: %w", err)
	}
	if node.X, err = strconv.ParseFloat(fields[2], 64); err != nil {
		return node, fmt.Errorf("x: %w", err)
	}
	if node.Y, err = strconv.ParseFloat(fields[3], 64); err != nil {
		return node, fmt.Errorf("y: %w", err)
	}
	if node.Z, err = strconv.ParseFloat(fields[4], 64); err != nil {
		return node, fmt.Errorf("z: %w", err)
	}
	if node.Radius, err = strconv.ParseFloat(fields[5], 64); err != nil {
		return node, fmt.Errorf("radius: %w", err)
	}
	if node.Parent, err = strconv.Atoi(fields[6]); err != nil {
		return node, fmt.Errorf("parent: %w", err)
	}
	return node, nil
}

// NodeByID returns the node with the given SWC id.
func (sk *Skeleton) NodeByID(id int) (Node, bool) {
	i, ok := sk.index[id]
	if !ok {
		return Node{}, false
	}
	return sk.Nodes[i], true
}

// ParentIndex returns the slice index of node i's parent, or -1 for roots
// and for parents referencing missing nodes.
func (sk *Skeleton) ParentIndex(i int) int {
	parent := sk.Nodes[i].Parent
	if parent < 0 {
		return -1
	}
	j, ok := sk.index[parent]
	if !ok {
		return -1
	}
	return j
}

// ChildCounts returns, per node index, how many nodes list it as parent.
func (sk *Skeleton) ChildCounts() []int {
	counts := make([]int, len(sk.Nodes))
	for i := range sk.Nodes {
		if j := sk.ParentIndex(i); j >= 0 {
			counts[j]++
		}
	}
	return counts
}
