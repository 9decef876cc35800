// Package tabular is a thin adapter over CSV-shaped input. It loads only the
// requested columns with their declared types and surfaces schema problems
// (missing column, uncoercible value) as fatal errors, leaving row-level
// filtering to the caller.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Schwartz-Lab-NU/arborStats/internal/types"
)

// ColumnType is the declared type of a requested column.
type ColumnType string

const (
	// ColumnString keeps cell values as raw text.
	ColumnString ColumnType = "string"
	// ColumnInt64 coerces cell values to int64.
	ColumnInt64 ColumnType = "int64"
)

// ColumnSpec describes one requested column: its header name, declared type,
// and coercion strictness. Lenient int64 columns mark unparseable or empty
// cells invalid instead of failing the whole load; ID columns use this so bad
// rows are dropped rather than fatal.
type ColumnSpec struct {
	Name    string
	Type    ColumnType
	Lenient bool
}

// Column holds the loaded cells of one requested column.
type Column struct {
	spec  ColumnSpec
	cells []string
	ints  []int64
	valid []bool
}

// Table is a loaded view of the requested columns. All columns have the same
// row count.
type Table struct {
	specs []ColumnSpec
	cols  map[string]*Column
	rows  int
}

// Load reads CSV data from r, keeping only the columns named in specs.
// It returns a SOURCE_SCHEMA_INVALID error when a requested column is absent
// from the header or a strict column's value cannot be coerced.
func Load(r io.Reader, specs []ColumnSpec) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, types.NewFatalError(types.SOURCE_SCHEMA_INVALID, "input table is empty")
	}
	if err != nil {
		return nil, types.WrapFatalError(types.SOURCE_SCHEMA_INVALID, "reading table header", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	t := &Table{
		specs: specs,
		cols:  make(map[string]*Column, len(specs)),
	}
	pos := make([]int, len(specs))
	for i, spec := range specs {
		idx, ok := index[spec.Name]
		if !ok {
			return nil, types.NewFatalError(types.SOURCE_SCHEMA_INVALID,
				fmt.Sprintf("requested column %q not found in table header", spec.Name))
		}
		pos[i] = idx
		t.cols[spec.Name] = &Column{spec: spec}
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, types.WrapFatalError(types.SOURCE_SCHEMA_INVALID, "reading table row", err)
		}

		for i, spec := range specs {
			var cell string
			if pos[i] < len(record) {
				cell = strings.TrimSpace(record[pos[i]])
			}
			col := t.cols[spec.Name]
			if err := col.append(cell); err != nil {
				return nil, types.WrapFatalError(types.SOURCE_SCHEMA_INVALID,
					fmt.Sprintf("column %q row %d", spec.Name, t.rows+1), err)
			}
		}
		t.rows++
	}

	return t, nil
}

func (c *Column) append(cell string) error {
	c.cells = append(c.cells, cell)
	if c.spec.Type != ColumnInt64 {
		c.ints = append(c.ints, 0)
		c.valid = append(c.valid, cell != "")
		return nil
	}

	if cell == "" {
		c.ints = append(c.ints, 0)
		c.valid = append(c.valid, false)
		return nil
	}
	v, err := strconv.ParseInt(cell, 10, 64)
	if err != nil {
		if c.spec.Lenient {
			c.ints = append(c.ints, 0)
			c.valid = append(c.valid, false)
			return nil
		}
		return fmt.Errorf("value %q is not coercible to int64", cell)
	}
	c.ints = append(c.ints, v)
	c.valid = append(c.valid, true)
	return nil
}

// Len returns the number of loaded rows.
func (t *Table) Len() int {
	return t.rows
}

// Column returns the named column, or nil if it was not requested.
func (t *Table) Column(name string) *Column {
	return t.cols[name]
}

// StringAt returns the raw text of row i.
func (c *Column) StringAt(i int) string {
	return c.cells[i]
}

// Int64At returns the coerced value of row i and whether the cell held a
// valid value. Only meaningful for ColumnInt64 columns.
func (c *Column) Int64At(i int) (int64, bool) {
	return c.ints[i], c.valid[i]
}
