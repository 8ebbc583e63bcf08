package loader

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/churn-project/churn-dataset/constants"
	"github.com/churn-project/churn-dataset/error_types"
	"github.com/churn-project/churn-dataset/schema"
	"github.com/churn-project/churn-dataset/table"
	_ "modernc.org/sqlite"
)

const SqliteReaderIdentifier = "sqlite"

// SqliteReader reads one table of a sqlite database.
// Column types come from the schema stored alongside the table by the writer if present,
// otherwise from the declared column types.
type SqliteReader struct{}

func NewSqliteReader() Reader {
	return &SqliteReader{}
}

func (r *SqliteReader) Identifier() string {
	return SqliteReaderIdentifier
}

func (r *SqliteReader) Extensions() []string {
	return []string{".db", ".sqlite", ".sqlite3"}
}

func (r *SqliteReader) Compressible() bool {
	return false
}

func (r *SqliteReader) Read(ctx context.Context, path string, opts *ReadOptions) (*FileData, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer db.Close()

	tableName := opts.Table
	if tableName == "" {
		tableName = constants.DefaultSqliteTable
	}

	stored, err := storedSchema(ctx, db, tableName)
	if err != nil {
		return nil, sqliteError(path, err)
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY rowid", QuoteIdentifier(tableName)))
	if err != nil {
		return nil, sqliteError(path, err)
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, sqliteError(path, err)
	}

	res := &FileData{Path: path, Schema: &schema.RowSchema{}}
	for _, ct := range colTypes {
		res.Fields = append(res.Fields, ct.Name())
		c := &schema.ColumnSchema{ColumnName: ct.Name(), Type: declaredColumnType(ct.DatabaseTypeName()), Nullable: true}
		if stored != nil {
			if sc, ok := stored.Column(ct.Name()); ok {
				c.Type = sc.Type
				c.Nullable = sc.Nullable
			}
		}
		res.Schema.Columns = append(res.Schema.Columns, c)
	}

	for row := 0; rows.Next(); row++ {
		values := make([]any, len(colTypes))
		ptrs := make([]any, len(colTypes))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, sqliteError(path, err)
		}
		record := make(table.Row, len(values))
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			record[i] = v
		}
		res.Rows = append(res.Rows, record)
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteError(path, err)
	}

	if err := resolveSqliteTypes(res); err != nil {
		return nil, err
	}
	return res, nil
}

// resolveSqliteTypes converts stored values to their column types, and types any undeclared column from its values
func resolveSqliteTypes(d *FileData) error {
	for c, col := range d.Schema.Columns {
		if col.Type == "" {
			col.Type = storedValuesType(d.Rows, c)
		}
		for i, r := range d.Rows {
			if r[c] == nil {
				continue
			}
			v, err := table.ConvertValue(r[c], col.Type)
			if err != nil {
				return error_types.NewParseError(error_types.StageLoad, d.Path, i, col.ColumnName, err.Error())
			}
			r[c] = v
		}
	}
	return nil
}

// storedValuesType returns the narrowest type holding every stored value of a column
func storedValuesType(rows []table.Row, c int) string {
	var res string
	for _, r := range rows {
		t := table.TypeOfValue(r[c])
		switch {
		case t == "" || t == res:
		case res == "":
			res = t
		case schema.IsNumericType(res) && schema.IsNumericType(t):
			res = schema.TypeDouble
		default:
			return schema.TypeVarchar
		}
	}
	if res == "" {
		return schema.TypeVarchar
	}
	return res
}

// declaredColumnType maps a sqlite declared type to a column type using sqlite's affinity rules,
// returning "" if the column has no usable declared type
func declaredColumnType(decl string) string {
	decl = strings.ToUpper(decl)
	switch {
	case strings.Contains(decl, "BOOL"):
		return schema.TypeBoolean
	case strings.Contains(decl, "INT"):
		return schema.TypeBigint
	case strings.Contains(decl, "CHAR"), strings.Contains(decl, "CLOB"), strings.Contains(decl, "TEXT"):
		return schema.TypeVarchar
	case strings.Contains(decl, "REAL"), strings.Contains(decl, "FLOA"), strings.Contains(decl, "DOUB"):
		return schema.TypeDouble
	}
	return ""
}

// storedSchema returns the schema the writer stored for the table, or nil if there is none
func storedSchema(ctx context.Context, db *sql.DB, tableName string) (*schema.RowSchema, error) {
	var exists int
	err := db.QueryRowContext(ctx, "SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", constants.SqliteSchemaTable).Scan(&exists)
	if err != nil || exists == 0 {
		return nil, err
	}

	var raw string
	err = db.QueryRowContext(ctx, fmt.Sprintf("SELECT schema FROM %s WHERE table_name = ?", QuoteIdentifier(constants.SqliteSchemaTable)), tableName).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var res schema.RowSchema
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, fmt.Errorf("invalid stored schema for table %s: %w", tableName, err)
	}
	return &res, nil
}

// QuoteIdentifier quotes a sqlite identifier
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func sqliteError(path string, err error) error {
	pe := error_types.NewParseError(error_types.StageLoad, path, -1, "", "cannot read sqlite table")
	pe.Err = err
	return pe
}
