package loader

import (
	"context"
	"fmt"

	"github.com/churn-project/churn-dataset/error_types"
	"github.com/churn-project/churn-dataset/table"
	"github.com/xuri/excelize/v2"
)

const XlsxReaderIdentifier = "xlsx"

// XlsxReader reads a worksheet whose first row is the header. Cell values are read as displayed text.
type XlsxReader struct{}

func NewXlsxReader() Reader {
	return &XlsxReader{}
}

func (r *XlsxReader) Identifier() string {
	return XlsxReaderIdentifier
}

func (r *XlsxReader) Extensions() []string {
	return []string{".xlsx"}
}

func (r *XlsxReader) Compressible() bool {
	return false
}

func (r *XlsxReader) Read(ctx context.Context, path string, opts *ReadOptions) (*FileData, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, error_types.NewParseError(error_types.StageLoad, path, -1, "", "workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		pe := error_types.NewParseError(error_types.StageLoad, path, -1, "", fmt.Sprintf("cannot read sheet '%s'", sheet))
		pe.Err = err
		return nil, pe
	}

	res := &FileData{Path: path}
	if len(rows) == 0 {
		return res, nil
	}
	res.Fields = rows[0]
	for i, cells := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(cells) > len(res.Fields) {
			return nil, error_types.NewParseError(error_types.StageLoad, path, i, "", fmt.Sprintf("expected %d cells, got %d", len(res.Fields), len(cells)))
		}
		// trailing empty cells are not returned, so short rows are padded with missing values
		values := make(table.Row, len(res.Fields))
		for j := range values {
			v := ""
			if j < len(cells) {
				v = cells[j]
			}
			if !opts.isMissing(v) {
				values[j] = v
			}
		}
		res.Rows = append(res.Rows, values)
	}
	return res, nil
}
