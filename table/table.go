package table

import (
	"fmt"

	"github.com/churn-project/churn-dataset/schema"
)

// Row is one record, with values aligned to the columns of the table schema.
// Values are string (VARCHAR), int64 (BIGINT), float64 (DOUBLE), bool (BOOLEAN) or nil (null).
type Row []any

// Table is a schema plus an ordered list of rows
type Table struct {
	Schema *schema.RowSchema
	Rows   []Row
}

func New(s *schema.RowSchema, rows ...Row) *Table {
	return &Table{Schema: s, Rows: rows}
}

func (t *Table) NumRows() int {
	return len(t.Rows)
}

func (t *Table) NumColumns() int {
	return len(t.Schema.Columns)
}

// ColumnValues returns the values of the column at idx, in row order
func (t *Table) ColumnValues(idx int) []any {
	res := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		res[i] = r[idx]
	}
	return res
}

// Validate checks that every row conforms to the schema
func (t *Table) Validate() error {
	if t.Schema == nil {
		return fmt.Errorf("table has no schema")
	}
	if err := t.Schema.Validate(); err != nil {
		return err
	}
	for i, r := range t.Rows {
		if len(r) != len(t.Schema.Columns) {
			return fmt.Errorf("row %d has %d values, schema has %d columns", i, len(r), len(t.Schema.Columns))
		}
		for j, c := range t.Schema.Columns {
			v := r[j]
			if v == nil {
				if !c.Nullable {
					return fmt.Errorf("row %d column '%s' is null but column is not nullable", i, c.ColumnName)
				}
				continue
			}
			if !ValueMatchesType(v, c.Type) {
				return fmt.Errorf("row %d column '%s' has value of type %T, expected %s", i, c.ColumnName, v, c.Type)
			}
		}
	}
	return nil
}

// Concat appends the rows of the given tables, in order, under the given schema.
// Values are widened to the schema type where the source table had a narrower numeric type.
func Concat(s *schema.RowSchema, tables ...*Table) *Table {
	var count int
	for _, t := range tables {
		count += len(t.Rows)
	}
	res := &Table{Schema: s, Rows: make([]Row, 0, count)}
	for _, t := range tables {
		for _, r := range t.Rows {
			row := make(Row, len(r))
			for i, v := range r {
				if iv, ok := v.(int64); ok && s.Columns[i].Type == schema.TypeDouble {
					row[i] = float64(iv)
					continue
				}
				row[i] = v
			}
			res.Rows = append(res.Rows, row)
		}
	}
	return res
}
