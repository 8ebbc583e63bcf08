package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/churn-project/churn-dataset/error_types"
	"github.com/churn-project/churn-dataset/table"
	"github.com/churn-project/churn-dataset/types"
)

const DelimitedReaderIdentifier = "delimited"

// DelimitedReader reads csv and tsv files with a header row
type DelimitedReader struct{}

func NewDelimitedReader() Reader {
	return &DelimitedReader{}
}

func (r *DelimitedReader) Identifier() string {
	return DelimitedReaderIdentifier
}

func (r *DelimitedReader) Extensions() []string {
	return []string{".csv", ".tsv"}
}

func (r *DelimitedReader) Compressible() bool {
	return true
}

func (r *DelimitedReader) Read(ctx context.Context, path string, opts *ReadOptions) (*FileData, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// the raw text is kept to tell quoted fields from unquoted ones
	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, csvError(path, -1, err)
	}
	lines := newLineIndex(raw)

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.Comma = delimiterFor(path, opts)
	cr.Comment = opts.Comment
	// trimming would also consume whitespace delimiters
	cr.TrimLeadingSpace = !unicode.IsSpace(cr.Comma)

	res := &FileData{Path: path}
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		// empty file: no columns, no rows
		return res, nil
	}
	if err != nil {
		return nil, csvError(path, -1, err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	res.Fields = header

	for row := 0; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) && errors.Is(pe.Err, csv.ErrFieldCount) {
				return nil, error_types.NewParseError(error_types.StageLoad, path, row, "", fmt.Sprintf("expected %d fields, got %d", len(header), len(record)))
			}
			return nil, csvError(path, row, err)
		}

		values := make(table.Row, len(record))
		for i, v := range record {
			// a quoted token is text, unless it is empty
			if opts.isMissing(v) && (v == "" || !lines.quoted(cr.FieldPos(i))) {
				continue
			}
			values[i] = v
		}
		res.Rows = append(res.Rows, values)
	}
	return res, nil
}

// lineIndex maps the line and column of a field reported by csv.Reader to its offset in the raw text
type lineIndex struct {
	raw    []byte
	starts []int
}

func newLineIndex(raw []byte) *lineIndex {
	starts := []int{0}
	for i, b := range raw {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{raw: raw, starts: starts}
}

// quoted returns whether the field starting at the 1-based line and byte column is quoted
func (x *lineIndex) quoted(line, col int) bool {
	if line < 1 || line > len(x.starts) {
		return false
	}
	offset := x.starts[line-1] + col - 1
	return offset >= 0 && offset < len(x.raw) && x.raw[offset] == '"'
}

func delimiterFor(path string, opts *ReadOptions) rune {
	if opts.Delimiter != 0 {
		return opts.Delimiter
	}
	if types.DataExtension(path) == ".tsv" {
		return '\t'
	}
	return ','
}

func csvError(path string, row int, err error) error {
	pe := error_types.NewParseError(error_types.StageLoad, path, row, "", "malformed record")
	pe.Err = err
	return pe
}
