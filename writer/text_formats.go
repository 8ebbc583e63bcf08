package writer

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/churn-project/churn-dataset/table"
	"github.com/churn-project/churn-dataset/types"
)

const (
	DelimitedFormatIdentifier = "delimited"
	JsonlFormatIdentifier     = "jsonl"
)

// DelimitedFormat writes csv or tsv with a header row. Nulls are written as empty fields.
// A text value which would load as null is quoted, since only unquoted tokens load as null.
type DelimitedFormat struct{}

func NewDelimitedFormat() Format {
	return &DelimitedFormat{}
}

func (f *DelimitedFormat) Identifier() string {
	return DelimitedFormatIdentifier
}

func (f *DelimitedFormat) Extensions() []string {
	return []string{".csv", ".tsv"}
}

func (f *DelimitedFormat) Text() bool {
	return true
}

func (f *DelimitedFormat) Write(ctx context.Context, dest *Destination, t *table.Table, opts *WriteOptions) error {
	bw := bufio.NewWriter(dest.W)
	w := csv.NewWriter(bw)
	// dest.Path is the temp file, so the delimiter comes from the published path
	if types.DataExtension(dest.Target) == ".tsv" {
		w.Comma = '\t'
	}

	if err := w.Write(t.Schema.Names()); err != nil {
		return err
	}
	record := make([]string, t.NumColumns())
	for _, r := range t.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		quote := false
		for i, v := range r {
			record[i] = opts.text(v)
			if s, ok := v.(string); ok && s != "" && opts.readsAsMissing(s) {
				quote = true
			}
		}
		// a single empty field would be an empty line, which is skipped on read
		if !quote && !(len(record) == 1 && record[0] == "") {
			if err := w.Write(record); err != nil {
				return err
			}
			continue
		}
		// csv.Writer never quotes these fields, so the line is written directly
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
		if err := writeQuotedRecord(bw, r, record, w.Comma); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return bw.Flush()
}

// writeQuotedRecord writes a record with every non empty text field quoted. Other values, such as the
// sentinel, are only quoted if they contain a delimiter, quote or line break.
// A record holding one empty field is written as a quoted empty field.
func writeQuotedRecord(w *bufio.Writer, row table.Row, record []string, comma rune) error {
	if len(record) == 1 && record[0] == "" {
		_, err := w.WriteString("\"\"\n")
		return err
	}
	for i, field := range record {
		if i > 0 {
			_, _ = w.WriteRune(comma)
		}
		_, text := row[i].(string)
		if field == "" || (!text && !strings.ContainsAny(field, "\"\r\n"+string(comma))) {
			_, _ = w.WriteString(field)
			continue
		}
		_ = w.WriteByte('"')
		_, _ = w.WriteString(strings.ReplaceAll(field, `"`, `""`))
		_ = w.WriteByte('"')
	}
	// bufio errors are sticky, so the last write reports any failure
	_, err := w.WriteString("\n")
	return err
}

// JsonlFormat writes one JSON object per row, with keys in column order
type JsonlFormat struct{}

func NewJsonlFormat() Format {
	return &JsonlFormat{}
}

func (f *JsonlFormat) Identifier() string {
	return JsonlFormatIdentifier
}

func (f *JsonlFormat) Extensions() []string {
	return []string{".jsonl", ".ndjson"}
}

func (f *JsonlFormat) Text() bool {
	return true
}

func (f *JsonlFormat) Write(ctx context.Context, dest *Destination, t *table.Table, opts *WriteOptions) error {
	keys := make([][]byte, t.NumColumns())
	for i, name := range t.Schema.Names() {
		k, err := json.Marshal(name)
		if err != nil {
			return err
		}
		keys[i] = k
	}

	w := bufio.NewWriter(dest.W)
	var buf []byte
	for _, r := range t.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		buf = append(buf[:0], '{')
		for i, v := range r {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = append(buf, keys[i]...)
			buf = append(buf, ':')
			var err error
			buf, err = appendJSONValue(buf, opts.value(v))
			if err != nil {
				return fmt.Errorf("column '%s': %w", t.Schema.Columns[i].ColumnName, err)
			}
		}
		buf = append(buf, '}', '\n')
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return w.Flush()
}

func appendJSONValue(buf []byte, v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return append(buf, "null"...), nil
	case string:
		s, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		return append(buf, s...), nil
	case int64:
		return strconv.AppendInt(buf, val, 10), nil
	case float64:
		// FormatFloat keeps a decimal point on integral values so the column reads back as a double
		return append(buf, table.FormatFloat(val)...), nil
	case bool:
		return strconv.AppendBool(buf, val), nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}
