package segment

import (
	"github.com/go-playground/validator/v10"

	"github.com/Schwartz-Lab-NU/arborStats/internal/tabular"
	"github.com/Schwartz-Lab-NU/arborStats/internal/types"
)

// Schema describes how segment IDs are extracted from a tabular source: the
// ID column plus optional status and review filter columns with their
// allow-lists. An empty filter column name (or empty allow-list) means no
// constraint on that column.
type Schema struct {
	IDColumn     string   `validate:"required"`
	StatusColumn string   `validate:"required_with=StatusAllow"`
	StatusAllow  []string `validate:"-"`
	ReviewColumn string   `validate:"required_with=ReviewAllow"`
	ReviewAllow  []string `validate:"-"`
}

var schemaValidate = validator.New()

// Validate checks the schema descriptor before any table is loaded.
func (s Schema) Validate() error {
	if err := schemaValidate.Struct(s); err != nil {
		return types.WrapFatalError(types.SOURCE_SCHEMA_INVALID, "invalid column schema", err)
	}
	return nil
}

// columnSpecs returns the tabular column requests implied by the schema.
// The ID column is lenient: rows with missing or unparseable IDs are dropped
// during filtering, not treated as schema failures.
func (s Schema) columnSpecs() []tabular.ColumnSpec {
	specs := []tabular.ColumnSpec{
		{Name: s.IDColumn, Type: tabular.ColumnInt64, Lenient: true},
	}
	if s.filtersStatus() {
		specs = append(specs, tabular.ColumnSpec{Name: s.StatusColumn, Type: tabular.ColumnString})
	}
	if s.filtersReview() {
		specs = append(specs, tabular.ColumnSpec{Name: s.ReviewColumn, Type: tabular.ColumnString})
	}
	return specs
}

func (s Schema) filtersStatus() bool {
	return s.StatusColumn != "" && len(s.StatusAllow) > 0
}

func (s Schema) filtersReview() bool {
	return s.ReviewColumn != "" && len(s.ReviewAllow) > 0
}
