package writer

import (
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
	"github.com/churn-project/churn-dataset/schema"
	"github.com/churn-project/churn-dataset/table"
)

const (
	ParquetFormatIdentifier = "parquet"

	parquetBatchSize = 64 * 1024
)

// ParquetFormat writes parquet, with column types and nullability carried by the file schema
type ParquetFormat struct{}

func NewParquetFormat() Format {
	return &ParquetFormat{}
}

func (f *ParquetFormat) Identifier() string {
	return ParquetFormatIdentifier
}

func (f *ParquetFormat) Extensions() []string {
	return []string{".parquet"}
}

func (f *ParquetFormat) Text() bool {
	return false
}

func (f *ParquetFormat) Write(ctx context.Context, dest *Destination, t *table.Table, opts *WriteOptions) error {
	arrowSchema, err := toArrowSchema(opts.Schema)
	if err != nil {
		return err
	}

	// the parquet writer closes its sink, so hide Close from it - the temp file is closed on commit
	sink := struct{ io.Writer }{dest.W}
	fw, err := pqarrow.NewFileWriter(arrowSchema, sink, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}

	mem := memory.DefaultAllocator
	for start := 0; start < t.NumRows(); start += parquetBatchSize {
		if err := ctx.Err(); err != nil {
			fw.Close()
			return err
		}
		end := min(start+parquetBatchSize, t.NumRows())
		rec, err := buildRecord(mem, arrowSchema, t.Rows[start:end], opts)
		if err != nil {
			fw.Close()
			return err
		}
		err = fw.Write(rec)
		rec.Release()
		if err != nil {
			fw.Close()
			return fmt.Errorf("failed to write parquet rows: %w", err)
		}
	}
	return fw.Close()
}

func toArrowSchema(s *schema.RowSchema) (*arrow.Schema, error) {
	fields := make([]arrow.Field, len(s.Columns))
	for i, c := range s.Columns {
		var dt arrow.DataType
		switch c.Type {
		case schema.TypeBigint:
			dt = arrow.PrimitiveTypes.Int64
		case schema.TypeDouble:
			dt = arrow.PrimitiveTypes.Float64
		case schema.TypeVarchar:
			dt = arrow.BinaryTypes.String
		case schema.TypeBoolean:
			dt = arrow.FixedWidthTypes.Boolean
		default:
			return nil, fmt.Errorf("column '%s' has unsupported type '%s'", c.ColumnName, c.Type)
		}
		fields[i] = arrow.Field{Name: c.ColumnName, Type: dt, Nullable: c.Nullable}
	}
	return arrow.NewSchema(fields, nil), nil
}

func buildRecord(mem memory.Allocator, s *arrow.Schema, rows []table.Row, opts *WriteOptions) (arrow.Record, error) {
	b := array.NewRecordBuilder(mem, s)
	defer b.Release()

	for c := range s.Fields() {
		fb := b.Field(c)
		fb.Reserve(len(rows))
		for _, r := range rows {
			v := opts.value(r[c])
			if v == nil {
				fb.AppendNull()
				continue
			}
			switch builder := fb.(type) {
			case *array.Int64Builder:
				builder.Append(v.(int64))
			case *array.Float64Builder:
				builder.Append(v.(float64))
			case *array.StringBuilder:
				builder.Append(v.(string))
			case *array.BooleanBuilder:
				builder.Append(v.(bool))
			default:
				return nil, fmt.Errorf("unsupported arrow builder %T", fb)
			}
		}
	}
	return b.NewRecord(), nil
}
