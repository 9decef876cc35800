package tabular

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Schwartz-Lab-NU/arborStats/internal/types"
)

const sampleCSV = `Final SegID,Status,Notes
101,Complete,first
,Pending,missing id
abc,Complete,bad id
104,"Complete (cut off)",quoted status
`

func TestLoadRequestedColumns(t *testing.T) {
	table, err := Load(strings.NewReader(sampleCSV), []ColumnSpec{
		{Name: "Final SegID", Type: ColumnInt64, Lenient: true},
		{Name: "Status", Type: ColumnString},
	})
	require.NoError(t, err)
	require.Equal(t, 4, table.Len())

	ids := table.Column("Final SegID")
	require.NotNil(t, ids)

	v, ok := ids.Int64At(0)
	assert.True(t, ok)
	assert.Equal(t, int64(101), v)

	_, ok = ids.Int64At(1)
	assert.False(t, ok, "empty cell should be invalid")

	_, ok = ids.Int64At(2)
	assert.False(t, ok, "lenient column should mark bad cell invalid, not fail")

	status := table.Column("Status")
	assert.Equal(t, "Complete (cut off)", status.StringAt(3))

	assert.Nil(t, table.Column("Notes"), "unrequested columns are not loaded")
}

func TestLoadMissingColumnIsSchemaError(t *testing.T) {
	_, err := Load(strings.NewReader(sampleCSV), []ColumnSpec{
		{Name: "Updated Seg ID (Sept 2)", Type: ColumnInt64},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.NewError(types.SOURCE_SCHEMA_INVALID, "")))
	assert.True(t, types.IsFatal(err))
}

func TestLoadStrictCoercionFailureIsSchemaError(t *testing.T) {
	_, err := Load(strings.NewReader(sampleCSV), []ColumnSpec{
		{Name: "Final SegID", Type: ColumnInt64},
	})
	require.Error(t, err)
	code, ok := types.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, types.SOURCE_SCHEMA_INVALID, code)
}

func TestLoadEmptyInput(t *testing.T) {
	_, err := Load(strings.NewReader(""), []ColumnSpec{{Name: "Final SegID", Type: ColumnInt64}})
	require.Error(t, err)
	assert.True(t, types.IsFatal(err))
}

func TestLoadShortRecords(t *testing.T) {
	// Ragged rows happen in hand-edited sheets; short rows read as empty cells.
	csv := "Final SegID,Status\n101\n102,Complete\n"
	table, err := Load(strings.NewReader(csv), []ColumnSpec{
		{Name: "Final SegID", Type: ColumnInt64, Lenient: true},
		{Name: "Status", Type: ColumnString},
	})
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "", table.Column("Status").StringAt(0))
	assert.Equal(t, "Complete", table.Column("Status").StringAt(1))
}
