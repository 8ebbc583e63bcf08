package writer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/churn-project/churn-dataset/constants"
	"github.com/churn-project/churn-dataset/loader"
	"github.com/churn-project/churn-dataset/schema"
	"github.com/churn-project/churn-dataset/table"
	_ "modernc.org/sqlite"
)

const SqliteFormatIdentifier = "sqlite"

// SqliteFormat writes the table to a new sqlite database, storing the schema in a separate table
// so column types survive a reload
type SqliteFormat struct{}

func NewSqliteFormat() Format {
	return &SqliteFormat{}
}

func (f *SqliteFormat) Identifier() string {
	return SqliteFormatIdentifier
}

func (f *SqliteFormat) Extensions() []string {
	return []string{".db", ".sqlite", ".sqlite3"}
}

func (f *SqliteFormat) Text() bool {
	return false
}

func (f *SqliteFormat) Write(ctx context.Context, dest *Destination, t *table.Table, opts *WriteOptions) error {
	schemaJSON, err := json.Marshal(opts.Schema)
	if err != nil {
		return err
	}

	db, err := sql.Open("sqlite", dest.Path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmts := []string{
		createTableStatement(opts.Table, opts.Schema),
		fmt.Sprintf("CREATE TABLE %s (table_name TEXT PRIMARY KEY, schema TEXT NOT NULL)", loader.QuoteIdentifier(constants.SqliteSchemaTable)),
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create sqlite table: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("INSERT INTO %s (table_name, schema) VALUES (?, ?)", loader.QuoteIdentifier(constants.SqliteSchemaTable)), opts.Table, string(schemaJSON)); err != nil {
		return fmt.Errorf("failed to store schema: %w", err)
	}

	insert, err := tx.PrepareContext(ctx, insertStatement(opts.Table, opts.Schema))
	if err != nil {
		return err
	}
	defer insert.Close()

	args := make([]any, t.NumColumns())
	for _, r := range t.Rows {
		for i, v := range r {
			args[i] = opts.value(v)
		}
		if _, err := insert.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row: %w", err)
		}
	}
	return tx.Commit()
}

func createTableStatement(tableName string, s *schema.RowSchema) string {
	cols := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		col := loader.QuoteIdentifier(c.ColumnName) + " " + sqliteColumnType(c.Type)
		if !c.Nullable {
			col += " NOT NULL"
		}
		cols[i] = col
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", loader.QuoteIdentifier(tableName), strings.Join(cols, ", "))
}

func insertStatement(tableName string, s *schema.RowSchema) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(s.Columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s VALUES (%s)", loader.QuoteIdentifier(tableName), placeholders)
}

func sqliteColumnType(columnType string) string {
	switch columnType {
	case schema.TypeBigint:
		return "INTEGER"
	case schema.TypeDouble:
		return "REAL"
	case schema.TypeBoolean:
		return "BOOLEAN"
	}
	return "TEXT"
}
