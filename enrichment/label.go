package enrichment

import (
	"fmt"

	"github.com/churn-project/churn-dataset/error_types"
	"github.com/churn-project/churn-dataset/schema"
	"github.com/churn-project/churn-dataset/table"
	"github.com/churn-project/churn-dataset/transform"
)

// churnLabels reads the label column as churned / not churned.
// The label must be BOOLEAN or a numeric 0/1 column. A null label counts as not churned.
func churnLabels(step transform.StepBase, t *table.Table, column string) ([]bool, error) {
	idx, err := step.ColumnIndex(t, column)
	if err != nil {
		return nil, err
	}
	c := t.Schema.Columns[idx]
	if c.Type == schema.TypeVarchar {
		return nil, error_types.NewInvalidStepConfigError(step.Name(), column, "label column must be 0/1 or boolean - convert it first with a map step")
	}

	res := make([]bool, len(t.Rows))
	for i, r := range t.Rows {
		v := r[idx]
		if v == nil {
			continue
		}
		b, err := table.ConvertValue(v, schema.TypeBoolean)
		if err != nil {
			return nil, error_types.NewParseError(error_types.StageTransform, "", i, column, fmt.Sprintf("label %v is not 0 or 1", v))
		}
		res[i] = b.(bool)
	}
	return res, nil
}

// addColumns returns a copy of the table with the columns appended, taking each row's values from fn
func addColumns(step transform.StepBase, t *table.Table, cols []*schema.ColumnSchema, fn func(row int) []any) (*table.Table, error) {
	out := t.Schema
	for _, c := range cols {
		if out.ColumnIndex(c.ColumnName) != -1 {
			return nil, error_types.NewInvalidStepConfigError(step.Name(), c.ColumnName, "column already exists")
		}
		out = out.WithColumn(c)
	}

	res := table.New(out)
	res.Rows = make([]table.Row, len(t.Rows))
	for i, r := range t.Rows {
		row := make(table.Row, len(r), len(r)+len(cols))
		copy(row, r)
		res.Rows[i] = append(row, fn(i)...)
	}
	return res, nil
}
