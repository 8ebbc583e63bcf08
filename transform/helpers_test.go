package transform

import (
	"github.com/churn-project/churn-dataset/schema"
	"github.com/churn-project/churn-dataset/table"
)

func col(name, columnType string, nullable bool) *schema.ColumnSchema {
	return &schema.ColumnSchema{ColumnName: name, Type: columnType, Nullable: nullable}
}

// singleColumn builds a one column table from values
func singleColumn(name, columnType string, values ...any) *table.Table {
	nullable := false
	rows := make([]table.Row, len(values))
	for i, v := range values {
		if v == nil {
			nullable = true
		}
		rows[i] = table.Row{v}
	}
	return table.New(schema.NewRowSchema(col(name, columnType, nullable)), rows...)
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func mustStep(s Step, err error) Step {
	if err != nil {
		panic(err)
	}
	return s
}
