package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/churn-project/churn-dataset/config"
	"github.com/churn-project/churn-dataset/context_values"
	"github.com/churn-project/churn-dataset/error_types"
	"github.com/churn-project/churn-dataset/filepaths"
	"github.com/churn-project/churn-dataset/schema"
	"github.com/churn-project/churn-dataset/table"
	"github.com/iancoleman/strcase"
	"github.com/turbot/pipe-fittings/utils"
	"golang.org/x/sync/errgroup"
)

// Loader reads the configured input files into a single table
type Loader struct {
	source *config.SourceConfig
	opts   *ReadOptions
	// declared columns (config then preset) used to map source fields
	declared *schema.RowSchema
	// column types in order of precedence: config, then preset
	declaredTypes map[string]string
	presetTypes   map[string]string
	// columns explicitly declared not nullable
	notNullable map[string]struct{}
}

func New(source *config.SourceConfig) (*Loader, error) {
	if err := source.Validate(); err != nil {
		return nil, err
	}

	l := &Loader{
		source: source,
		opts: &ReadOptions{
			MissingValues: utils.SliceToLookup(source.GetMissingValues()),
			Table:         source.GetTable(),
			Sheet:         source.Sheet,
		},
		declared: &schema.RowSchema{
			AutoMapSourceFields: source.GetAutoMapSourceFields(),
			ExcludeSourceFields: slices.Clone(source.ExcludeColumns),
		},
		declaredTypes: make(map[string]string),
		presetTypes:   make(map[string]string),
		notNullable:   make(map[string]struct{}),
	}
	if source.Delimiter != "" {
		l.opts.Delimiter = []rune(source.Delimiter)[0]
	}
	if source.Comment != "" {
		l.opts.Comment = []rune(source.Comment)[0]
	}

	for _, c := range source.Columns {
		col := c.ToColumnSchema()
		l.declared.Columns = append(l.declared.Columns, col)
		if col.Type != "" {
			l.declaredTypes[col.ColumnName] = col.Type
		}
		if c.Nullable != nil && !*c.Nullable {
			l.notNullable[col.ColumnName] = struct{}{}
		}
	}
	if source.SchemaPreset != "" {
		preset, err := schema.GetPreset(source.SchemaPreset)
		if err != nil {
			return nil, err
		}
		for _, col := range preset.Columns {
			l.presetTypes[col.ColumnName] = col.Type
			if l.declared.ColumnIndex(col.ColumnName) != -1 {
				continue
			}
			// the preset type has lower precedence than a schema sidecar, so it is resolved later
			mapped := col.Clone()
			mapped.Type = ""
			l.declared.Columns = append(l.declared.Columns, mapped)
		}
	}
	return l, nil
}

// sourceFile is a file which has been read and mapped to the output columns
type sourceFile struct {
	data    *FileData
	mapping []schema.FieldMapping
	// schema sidecar written alongside a text file, if any
	sidecar *schema.RowSchema
}

func (f *sourceFile) value(row table.Row, c int) any {
	idx := f.mapping[c].SourceIndex
	if idx == -1 {
		return nil
	}
	return row[idx]
}

func (f *sourceFile) names() []string {
	res := make([]string, len(f.mapping))
	for i, m := range f.mapping {
		res[i] = m.Column.ColumnName
	}
	return res
}

// Load reads every input file and combines them into one table, in discovery order
func (l *Loader) Load(ctx context.Context) (*table.Table, error) {
	paths, err := discoverFiles(l.source.Paths)
	if err != nil {
		return nil, err
	}

	files := make([]*sourceFile, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.source.GetParallelism())
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			f, err := l.readFile(gctx, path)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	columns, err := l.resolveColumns(files)
	if err != nil {
		return nil, err
	}

	s := schema.NewRowSchema(columns...)
	parts := make([]*table.Table, len(files))
	for i, f := range files {
		rows, err := l.convertRows(f, columns)
		if err != nil {
			return nil, err
		}
		parts[i] = table.New(s, rows...)
	}
	res := table.Concat(s, parts...)

	slog.Info("loaded dataset", append(context_values.LogArgs(ctx), "files", len(files), "rows", res.NumRows(), "columns", res.NumColumns())...)
	return res, nil
}

func (l *Loader) readFile(ctx context.Context, path string) (*sourceFile, error) {
	reader, err := ReaderForPath(path)
	if err != nil {
		return nil, error_types.NewParseError(error_types.StageLoad, path, -1, "", err.Error())
	}
	data, err := reader.Read(ctx, path, l.opts)
	if err != nil {
		return nil, err
	}
	slog.Debug("read file", append(context_values.LogArgs(ctx), "path", path, "reader", reader.Identifier(), "rows", len(data.Rows))...)

	res := &sourceFile{data: data}
	if data.IsText() {
		res.sidecar, err = readSidecar(path)
		if err != nil {
			return nil, err
		}
		// a text file with no rows may have no header, e.g. empty jsonl, so its columns come from the sidecar
		if len(data.Fields) == 0 && res.sidecar != nil {
			data.Fields = res.sidecar.Names()
		}
	}

	if l.source.SnakeCaseColumns {
		for i, f := range data.Fields {
			data.Fields[i] = strcase.ToSnake(f)
		}
	}

	mapping, err := l.declared.MapFields(data.Fields)
	if err != nil {
		var missing *schema.MissingColumnError
		if errors.As(err, &missing) {
			return nil, error_types.NewSchemaMismatchError(error_types.StageLoad, path, missing.Column, "required column not found")
		}
		return nil, error_types.NewSchemaMismatchError(error_types.StageLoad, path, "", err.Error())
	}
	res.mapping = mapping
	return res, nil
}

func readSidecar(path string) (*schema.RowSchema, error) {
	sidecarPath := filepaths.SchemaSidecarPath(path)
	raw, err := os.ReadFile(sidecarPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		pe := error_types.NewParseError(error_types.StageLoad, sidecarPath, -1, "", "failed to read schema sidecar")
		pe.Err = err
		return nil, pe
	}
	var res schema.RowSchema
	if err := json.Unmarshal(raw, &res); err != nil {
		pe := error_types.NewParseError(error_types.StageLoad, sidecarPath, -1, "", "invalid schema sidecar")
		pe.Err = err
		return nil, pe
	}
	return &res, nil
}

// resolveColumns determines the output schema of the combined files.
// Every file must map to the same column names in the same order. The type of each column is taken from,
// in order: the declared column, the files with typed storage, a schema sidecar, the preset,
// then inference over the values of every text file.
func (l *Loader) resolveColumns(files []*sourceFile) ([]*schema.ColumnSchema, error) {
	first := files[0]
	names := first.names()
	for _, f := range files[1:] {
		if other := f.names(); !slices.Equal(names, other) {
			return nil, error_types.NewSchemaMismatchError(error_types.StageLoad, f.data.Path, firstDifference(names, other),
				fmt.Sprintf("columns %v do not match columns %v of %s", other, names, first.data.Path))
		}
	}

	res := make([]*schema.ColumnSchema, len(names))
	for c, name := range names {
		col := &schema.ColumnSchema{ColumnName: name}
		for _, f := range files {
			m := f.mapping[c]
			col.Nullable = col.Nullable || m.Column.Nullable
			col.Required = col.Required || m.Column.Required
		}

		columnType, nullable, err := l.resolveType(files, c, name)
		if err != nil {
			return nil, err
		}
		col.Type = columnType
		col.Nullable = col.Nullable || nullable
		res[c] = col
	}
	return res, nil
}

func (l *Loader) resolveType(files []*sourceFile, c int, name string) (columnType string, nullable bool, err error) {
	if t, ok := l.declaredTypes[name]; ok {
		return t, false, nil
	}

	// typed storage, then sidecars
	for _, fromSidecar := range []bool{false, true} {
		var merged *schema.ColumnSchema
		for _, f := range files {
			var col *schema.ColumnSchema
			switch {
			case !fromSidecar && !f.data.IsText() && f.mapping[c].SourceIndex != -1:
				col = f.data.Schema.Columns[f.mapping[c].SourceIndex]
			case fromSidecar && f.sidecar != nil:
				col, _ = f.sidecar.Column(name)
			}
			if col == nil {
				continue
			}
			if merged == nil {
				merged = col
				continue
			}
			merged, err = merged.Union(col)
			if err != nil {
				return "", false, error_types.NewSchemaMismatchError(error_types.StageLoad, f.data.Path, name, err.Error())
			}
		}
		if merged != nil {
			return merged.Type, merged.Nullable, nil
		}
	}

	if t, ok := l.presetTypes[name]; ok {
		return t, false, nil
	}

	inf := newTypeInference()
	for _, f := range files {
		for _, r := range f.data.Rows {
			if s, ok := f.value(r, c).(string); ok {
				inf.observe(s)
			}
		}
	}
	return inf.columnType(), false, nil
}

// convertRows maps the rows of a file to the output columns, converting values to the column types
func (l *Loader) convertRows(f *sourceFile, columns []*schema.ColumnSchema) ([]table.Row, error) {
	res := make([]table.Row, len(f.data.Rows))
	for i, r := range f.data.Rows {
		row := make(table.Row, len(columns))
		for c, col := range columns {
			v := f.value(r, c)
			if v == nil {
				if _, ok := l.notNullable[col.ColumnName]; ok {
					return nil, error_types.NewParseError(error_types.StageLoad, f.data.Path, i, col.ColumnName, "missing value in column declared not nullable")
				}
				col.Nullable = true
				continue
			}
			var err error
			if s, ok := v.(string); ok && f.data.IsText() {
				v, err = table.ParseValue(s, col.Type)
			} else {
				v, err = table.ConvertValue(v, col.Type)
			}
			if err != nil {
				return nil, error_types.NewParseError(error_types.StageLoad, f.data.Path, i, col.ColumnName, err.Error())
			}
			row[c] = v
		}
		res[i] = row
	}
	return res, nil
}

func firstDifference(a, b []string) string {
	for i := range a {
		if i >= len(b) || a[i] != b[i] {
			return a[i]
		}
	}
	if len(b) > len(a) {
		return b[len(a)]
	}
	return ""
}
