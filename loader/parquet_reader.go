package loader

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
	"github.com/churn-project/churn-dataset/error_types"
	"github.com/churn-project/churn-dataset/schema"
	"github.com/churn-project/churn-dataset/table"
)

const ParquetReaderIdentifier = "parquet"

// ParquetReader reads parquet files. Column types and nullability come from the file.
type ParquetReader struct{}

func NewParquetReader() Reader {
	return &ParquetReader{}
}

func (r *ParquetReader) Identifier() string {
	return ParquetReaderIdentifier
}

func (r *ParquetReader) Extensions() []string {
	return []string{".parquet"}
}

func (r *ParquetReader) Compressible() bool {
	return false
}

func (r *ParquetReader) Read(ctx context.Context, path string, _ *ReadOptions) (*FileData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer f.Close()

	mem := memory.DefaultAllocator
	tbl, err := pqarrow.ReadTable(ctx, f, parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		pe := error_types.NewParseError(error_types.StageLoad, path, -1, "", "invalid parquet file")
		pe.Err = err
		return nil, pe
	}
	defer tbl.Release()

	numRows := int(tbl.NumRows())
	res := &FileData{
		Path:   path,
		Schema: &schema.RowSchema{},
		Rows:   make([]table.Row, numRows),
	}
	numCols := int(tbl.NumCols())
	for i := range res.Rows {
		res.Rows[i] = make(table.Row, numCols)
	}

	for c := 0; c < numCols; c++ {
		field := tbl.Schema().Field(c)
		columnType, err := arrowColumnType(field.Type)
		if err != nil {
			return nil, error_types.NewParseError(error_types.StageLoad, path, -1, field.Name, err.Error())
		}
		res.Fields = append(res.Fields, field.Name)
		res.Schema.Columns = append(res.Schema.Columns, &schema.ColumnSchema{ColumnName: field.Name, Type: columnType, Nullable: field.Nullable})

		row := 0
		for _, chunk := range tbl.Column(c).Data().Chunks() {
			for i := 0; i < chunk.Len(); i++ {
				res.Rows[row][c] = arrowValue(chunk, i)
				row++
			}
		}
	}
	return res, nil
}

func arrowColumnType(t arrow.DataType) (string, error) {
	switch t.ID() {
	case arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64, arrow.UINT8, arrow.UINT16, arrow.UINT32:
		return schema.TypeBigint, nil
	case arrow.FLOAT32, arrow.FLOAT64:
		return schema.TypeDouble, nil
	case arrow.STRING, arrow.LARGE_STRING:
		return schema.TypeVarchar, nil
	case arrow.BOOL:
		return schema.TypeBoolean, nil
	}
	return "", fmt.Errorf("unsupported parquet column type %s", t)
}

func arrowValue(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.Int8:
		return int64(a.Value(i))
	case *array.Int16:
		return int64(a.Value(i))
	case *array.Int32:
		return int64(a.Value(i))
	case *array.Int64:
		return a.Value(i)
	case *array.Uint8:
		return int64(a.Value(i))
	case *array.Uint16:
		return int64(a.Value(i))
	case *array.Uint32:
		return int64(a.Value(i))
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Float64:
		return a.Value(i)
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Boolean:
		return a.Value(i)
	}
	// unreachable for the types accepted by arrowColumnType
	return nil
}
