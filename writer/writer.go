// Package writer persists a table in a format chosen by the output file extension, so that the
// loader reads back the same rows, schema and row order
package writer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/churn-project/churn-dataset/config"
	"github.com/churn-project/churn-dataset/context_values"
	"github.com/churn-project/churn-dataset/error_types"
	"github.com/churn-project/churn-dataset/filepaths"
	"github.com/churn-project/churn-dataset/fit"
	"github.com/churn-project/churn-dataset/schema"
	"github.com/churn-project/churn-dataset/table"
	"github.com/churn-project/churn-dataset/types"
	"github.com/klauspost/compress/gzip"
)

type Writer struct {
	output *config.OutputConfig
	format Format
}

func New(output *config.OutputConfig) (*Writer, error) {
	if err := output.Validate(); err != nil {
		return nil, err
	}
	format, err := FormatForPath(output.Path)
	if err != nil {
		return nil, err
	}
	return &Writer{output: output, format: format}, nil
}

// Path returns the destination path
func (w *Writer) Path() string {
	return w.output.Path
}

// Write persists the table to the destination, replacing any existing file.
// Nothing is written to the destination unless the whole table is written successfully.
func (w *Writer) Write(ctx context.Context, t *table.Table) error {
	dest := w.output.Path
	if err := t.Validate(); err != nil {
		return error_types.NewSerializationError(dest, -1, "", err.Error())
	}

	// rename can not replace a directory, so fail before anything is written
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		return error_types.NewWritePermissionError(dest, fmt.Errorf("%s is a directory", dest))
	}

	opts := newWriteOptions(w.output)
	persisted, err := w.persistedSchema(t)
	if err != nil {
		return err
	}
	opts.Schema = persisted

	data, err := createTemp(ctx, dest)
	if err != nil {
		return err
	}
	defer data.abort()

	if err := w.writeData(ctx, data, t, opts); err != nil {
		return err
	}

	var sidecar *tempFile
	if w.format.Text() {
		sidecar, err = w.writeSidecar(ctx, dest, persisted)
		if err != nil {
			return err
		}
		defer sidecar.abort()
	}
	// the data is published before its sidecar, so a failed publish leaves the old sidecar with the old data
	if err := data.commit(); err != nil {
		return err
	}
	if sidecar != nil {
		if err := sidecar.commit(); err != nil {
			return err
		}
	}

	slog.Info("wrote dataset", append(context_values.LogArgs(ctx), "path", dest, "format", w.format.Identifier(), "rows", t.NumRows(), "columns", t.NumColumns())...)
	return nil
}

// persistedSchema applies the nan policy, returning the schema stored with the data
func (w *Writer) persistedSchema(t *table.Table) (*schema.RowSchema, error) {
	res := t.Schema.Clone()
	// the stored schema only describes columns
	res.AutoMapSourceFields = false
	res.ExcludeSourceFields = nil

	for c, col := range t.Schema.Columns {
		if col.Type != schema.TypeDouble {
			continue
		}
		for r, row := range t.Rows {
			f, ok := row[c].(float64)
			if !ok || !isNonFinite(f) {
				continue
			}
			if w.output.GetNanPolicy() == config.NanPolicyError {
				return nil, error_types.NewSerializationError(w.output.Path, r, col.ColumnName, nonFiniteReason(f))
			}
			res.Columns[c].Nullable = true
			break
		}
	}
	return res, nil
}

func nonFiniteReason(f float64) string {
	if math.IsNaN(f) {
		return "value is NaN"
	}
	return "value is infinite"
}

func (w *Writer) writeData(ctx context.Context, tmp *tempFile, t *table.Table, opts *WriteOptions) error {
	dest := &Destination{Path: tmp.Name(), Target: w.output.Path, W: tmp}

	var gz *gzip.Writer
	if types.IsCompressed(w.output.Path) {
		gz = gzip.NewWriter(tmp)
		dest.W = gz
	}

	if err := w.format.Write(ctx, dest, t, opts); err != nil {
		return w.formatError(ctx, err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return error_types.NewWritePermissionError(w.output.Path, err)
		}
	}
	return nil
}

func (w *Writer) formatError(ctx context.Context, err error) error {
	// cancellation is returned as is
	if ctx.Err() != nil {
		return ctx.Err()
	}
	e := error_types.NewSerializationError(w.output.Path, -1, "", fmt.Sprintf("%s format", w.format.Identifier()))
	e.Err = err
	return e
}

func (w *Writer) writeSidecar(ctx context.Context, dest string, s *schema.RowSchema) (*tempFile, error) {
	sidecarPath := filepaths.SchemaSidecarPath(dest)
	tmp, err := createTemp(ctx, sidecarPath)
	if err != nil {
		return nil, err
	}
	if err := writeJSON(tmp, s); err != nil {
		tmp.abort()
		return nil, error_types.NewWritePermissionError(sidecarPath, err)
	}
	return tmp, nil
}

// WriteFitRecord writes the fit record to the configured fit path. It does nothing if no fit path is set.
func (w *Writer) WriteFitRecord(ctx context.Context, rec *fit.Record) error {
	path := w.output.FitPath
	if path == "" || rec == nil {
		return nil
	}
	tmp, err := createTemp(ctx, path)
	if err != nil {
		return err
	}
	defer tmp.abort()

	if err := writeJSON(tmp, rec); err != nil {
		return error_types.NewWritePermissionError(path, err)
	}
	if err := tmp.commit(); err != nil {
		return err
	}
	slog.Info("wrote fit record", append(context_values.LogArgs(ctx), "path", path, "steps", rec.Len())...)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
