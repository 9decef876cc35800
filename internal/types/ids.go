package types

import (
	"strconv"
	"strings"
)

// SegmentID uniquely identifies one neuron segment in the source imaging
// dataset. IDs are immutable once resolved from an input source.
type SegmentID int64

// String returns the decimal representation used for directory names and
// summary files.
func (id SegmentID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseSegmentID parses a segment ID from its decimal string form.
// Surrounding whitespace is tolerated; anything else is an error.
func ParseSegmentID(s string) (SegmentID, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return SegmentID(v), nil
}
