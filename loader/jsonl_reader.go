package loader

import (
	"bufio"
	"bytes"
	"context"
	"fmt"

	"github.com/buger/jsonparser"
	"github.com/churn-project/churn-dataset/error_types"
	"github.com/churn-project/churn-dataset/table"
)

const (
	JsonlReaderIdentifier = "jsonl"

	maxJsonlLineSize = 64 * 1024 * 1024
)

// JsonlReader reads files holding one flat JSON object per line.
// Field order is taken from the first object; fields absent from a later object are null.
// Values are read as text, with JSON null read as null, so they are typed like any other text format.
type JsonlReader struct{}

func NewJsonlReader() Reader {
	return &JsonlReader{}
}

func (r *JsonlReader) Identifier() string {
	return JsonlReaderIdentifier
}

func (r *JsonlReader) Extensions() []string {
	return []string{".jsonl", ".ndjson"}
}

func (r *JsonlReader) Compressible() bool {
	return true
}

func (r *JsonlReader) Read(ctx context.Context, path string, _ *ReadOptions) (*FileData, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res := &FileData{Path: path}
	fieldIndex := make(map[string]int)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxJsonlLineSize)
	row := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		first := row == 0
		values := make(map[int]any)
		err := jsonparser.ObjectEach(line, func(key []byte, value []byte, dataType jsonparser.ValueType, _ int) error {
			name, err := jsonparser.ParseString(key)
			if err != nil {
				return fmt.Errorf("invalid field name: %w", err)
			}
			idx, ok := fieldIndex[name]
			if !ok {
				if !first {
					return fmt.Errorf("unexpected field '%s'", name)
				}
				idx = len(res.Fields)
				fieldIndex[name] = idx
				res.Fields = append(res.Fields, name)
			}
			v, err := jsonValue(value, dataType)
			if err != nil {
				return fmt.Errorf("field '%s': %w", name, err)
			}
			values[idx] = v
			return nil
		})
		if err != nil {
			pe := error_types.NewParseError(error_types.StageLoad, path, row, "", "invalid JSON object")
			pe.Err = err
			return nil, pe
		}

		record := make(table.Row, len(res.Fields))
		for i, v := range values {
			record[i] = v
		}
		res.Rows = append(res.Rows, record)
		row++
	}
	if err := scanner.Err(); err != nil {
		pe := error_types.NewParseError(error_types.StageLoad, path, row, "", "failed to read line")
		pe.Err = err
		return nil, pe
	}
	return res, nil
}

func jsonValue(value []byte, dataType jsonparser.ValueType) (any, error) {
	switch dataType {
	case jsonparser.Null:
		return nil, nil
	case jsonparser.String:
		return jsonparser.ParseString(value)
	case jsonparser.Number, jsonparser.Boolean:
		return string(value), nil
	}
	return nil, fmt.Errorf("unsupported %s value", dataType)
}
