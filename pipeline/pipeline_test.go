package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/churn-project/churn-dataset/config"
	"github.com/churn-project/churn-dataset/error_types"
	"github.com/churn-project/churn-dataset/events"
	"github.com/churn-project/churn-dataset/fit"
	"github.com/churn-project/churn-dataset/loader"
	"github.com/churn-project/churn-dataset/observable"
	"github.com/churn-project/churn-dataset/schema"
	"github.com/churn-project/churn-dataset/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	tbl *table.Table
	err error
}

func (f *fakeLoader) Load(context.Context) (*table.Table, error) {
	return f.tbl, f.err
}

type fakeTransformer struct {
	fitErr  error
	fitted  int
	applied []*fit.Record
}

func (f *fakeTransformer) Fit(_ context.Context, t *table.Table) (*table.Table, *fit.Record, error) {
	f.fitted++
	if f.fitErr != nil {
		return nil, nil, f.fitErr
	}
	return t, fit.NewRecord(fit.Params{Step: "s", Kind: "drop", Learned: true}), nil
}

func (f *fakeTransformer) Apply(_ context.Context, t *table.Table, rec *fit.Record) (*table.Table, error) {
	f.applied = append(f.applied, rec)
	return t, nil
}

type fakeWriter struct {
	writeErr error
	written  []*table.Table
	records  []*fit.Record
}

func (f *fakeWriter) Write(_ context.Context, t *table.Table) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, t)
	return nil
}

func (f *fakeWriter) WriteFitRecord(_ context.Context, rec *fit.Record) error {
	f.records = append(f.records, rec)
	return nil
}

func twoRows() *table.Table {
	return table.New(schema.NewRowSchema(&schema.ColumnSchema{ColumnName: "age", Type: schema.TypeBigint}),
		table.Row{int64(25)},
		table.Row{int64(35)},
	)
}

// recorder collects a description of each event raised
type recorder struct {
	events []string
}

func (r *recorder) Notify(_ context.Context, e events.Event) error {
	switch ev := e.(type) {
	case *events.Started:
		r.events = append(r.events, "started")
	case *events.StageStarted:
		r.events = append(r.events, "start "+ev.Stage)
	case *events.StageCompleted:
		r.events = append(r.events, fmt.Sprintf("complete %s %dx%d", ev.Stage, ev.RowCount, ev.ColumnCount))
	case *events.Completed:
		r.events = append(r.events, fmt.Sprintf("completed %d", ev.RowCount))
	case *events.Failed:
		r.events = append(r.events, fmt.Sprintf("failed %s: %s", ev.Stage, ev.Err))
	}
	return nil
}

func TestPipeline_Run(t *testing.T) {
	tr := &fakeTransformer{}
	w := &fakeWriter{}
	rec := &recorder{}
	p, err := New(&fakeLoader{tbl: twoRows()}, tr, w, WithObserver(rec), WithExecutionId("exec-1"))
	require.NoError(t, err)
	assert.Equal(t, StateIdle, p.State())

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateDone, p.State())
	assert.NoError(t, p.Err())
	assert.Equal(t, "exec-1", res.ExecutionId)
	assert.Equal(t, 2, res.RowCount)
	assert.Equal(t, 1, res.ColumnCount)
	assert.Equal(t, 1, res.FitRecord.Len())
	assert.Equal(t, []string{error_types.StageLoad, error_types.StageTransform, error_types.StageWrite}, res.Timing.Keys())
	assert.Equal(t, 1, tr.fitted)
	assert.Empty(t, tr.applied)
	require.Len(t, w.written, 1)
	assert.Equal(t, twoRows().Rows, w.written[0].Rows)
	assert.Equal(t, []*fit.Record{res.FitRecord}, w.records)
	assert.Equal(t, []string{
		"started",
		"start load", "complete load 2x1",
		"start transform", "complete transform 2x1",
		"start write", "complete write 2x1",
		"completed 2",
	}, rec.events)
}

func TestPipeline_Replay(t *testing.T) {
	replayed := fit.NewRecord(fit.Params{Step: "s", Kind: "drop"})
	tr := &fakeTransformer{}
	w := &fakeWriter{}
	p, err := New(&fakeLoader{tbl: twoRows()}, tr, w, WithFitRecord(replayed))
	require.NoError(t, err)

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, tr.fitted)
	assert.Equal(t, []*fit.Record{replayed}, tr.applied)
	assert.Same(t, replayed, res.FitRecord)
	// the replayed record is not written back
	assert.Empty(t, w.records)
}

func TestPipeline_Failure(t *testing.T) {
	loadErr := error_types.NewNotFoundError(error_types.StageLoad, "data/raw", os.ErrNotExist)
	fitErr := error_types.NewUnknownColumnError("impute_age", "age")
	writeErr := error_types.NewWritePermissionError("out.csv", os.ErrPermission)

	tests := []struct {
		name        string
		loader      *fakeLoader
		transformer *fakeTransformer
		writer      *fakeWriter
		wantErr     error
		wantEvents  []string
		wantWritten int
	}{
		{
			name:        "load",
			loader:      &fakeLoader{err: loadErr},
			transformer: &fakeTransformer{},
			writer:      &fakeWriter{},
			wantErr:     loadErr,
			wantEvents:  []string{"started", "start load", "failed load: " + loadErr.Error()},
		},
		{
			name:        "transform",
			loader:      &fakeLoader{tbl: twoRows()},
			transformer: &fakeTransformer{fitErr: fitErr},
			writer:      &fakeWriter{},
			wantErr:     fitErr,
			wantEvents:  []string{"started", "start load", "complete load 2x1", "start transform", "failed transform: " + fitErr.Error()},
		},
		{
			name:        "write",
			loader:      &fakeLoader{tbl: twoRows()},
			transformer: &fakeTransformer{},
			writer:      &fakeWriter{writeErr: writeErr},
			wantErr:     writeErr,
			wantEvents: []string{"started", "start load", "complete load 2x1", "start transform", "complete transform 2x1",
				"start write", "failed write: " + writeErr.Error()},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			p, err := New(tt.loader, tt.transformer, tt.writer, WithObserver(rec))
			require.NoError(t, err)

			res, err := p.Run(context.Background())

			assert.Nil(t, res)
			// the stage error is returned unmodified
			assert.Same(t, tt.wantErr, err)
			assert.Equal(t, StateFailed, p.State())
			assert.Same(t, tt.wantErr, p.Err())
			assert.Equal(t, tt.wantEvents, rec.events)
			assert.Empty(t, tt.writer.written)
			assert.Empty(t, tt.writer.records)
		})
	}
}

func TestPipeline_RunOnce(t *testing.T) {
	for _, loadErr := range []error{nil, errors.New("boom")} {
		p, err := New(&fakeLoader{tbl: twoRows(), err: loadErr}, &fakeTransformer{}, &fakeWriter{})
		require.NoError(t, err)
		_, _ = p.Run(context.Background())
		state := p.State()
		require.True(t, state.IsTerminal())

		_, err = p.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "can not be run")
		assert.Equal(t, state, p.State())
	}
}

func TestPipeline_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := &fakeWriter{}
	p, err := New(&fakeLoader{tbl: twoRows()}, &fakeTransformer{}, w)
	require.NoError(t, err)

	_, err = p.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, p.State())
	assert.Empty(t, w.written)
}

func TestPipeline_ObserverErrorDoesNotFail(t *testing.T) {
	failing := observable.ObserverFunc(func(context.Context, events.Event) error {
		return errors.New("observer down")
	})
	p, err := New(&fakeLoader{tbl: twoRows()}, &fakeTransformer{}, &fakeWriter{}, WithObserver(failing))
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, StateDone, p.State())
}

func TestNew(t *testing.T) {
	_, err := New(nil, &fakeTransformer{}, &fakeWriter{})
	assert.Error(t, err)

	p, err := New(&fakeLoader{}, &fakeTransformer{}, &fakeWriter{})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ExecutionId())
}

const endToEndConfig = `
source {
  paths = ["%s"]
  column "income" {
    type = "string"
  }
}

step "impute_age" {
  kind     = "impute"
  column   = "age"
  strategy = "mean"
}

step "income_int" {
  kind   = "coerce"
  column = "income"
  to     = "int"
}

output {
  path     = "%s"
  fit_path = "%s"
}
`

func TestNewFromConfig_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "raw", "customers.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(raw), 0755))
	require.NoError(t, os.WriteFile(raw, []byte("age,income\n25,50000\n,60000\n"), 0644))
	out := filepath.Join(dir, "interim", "churn.parquet")
	fitPath := filepath.Join(dir, "interim", "churn.fit.json")

	cfg, err := config.Parse([]byte(fmt.Sprintf(endToEndConfig, raw, out, fitPath)), "churn.hcl")
	require.NoError(t, err)
	p, err := NewFromConfig(cfg)
	require.NoError(t, err)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"age_mean": 25.0}, res.FitRecord.Values())

	want := []table.Row{{25.0, int64(50000)}, {25.0, int64(60000)}}
	l, err := loader.New(&config.SourceConfig{Paths: []string{out}})
	require.NoError(t, err)
	got, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "income"}, got.Schema.Names())
	assert.Equal(t, want, got.Rows)

	stored, err := fit.Load(fitPath)
	require.NoError(t, err)
	assert.Equal(t, res.FitRecord.Steps(), stored.Steps())

	t.Run("replay", func(t *testing.T) {
		replayOut := filepath.Join(dir, "replay", "churn.csv")
		cfg, err := config.Parse([]byte(fmt.Sprintf(endToEndConfig, raw, replayOut, filepath.Join(dir, "replay", "unused.json"))), "churn.hcl")
		require.NoError(t, err)
		p, err := NewFromConfig(cfg, WithFitRecord(stored))
		require.NoError(t, err)

		_, err = p.Run(context.Background())
		require.NoError(t, err)

		l, err := loader.New(&config.SourceConfig{Paths: []string{replayOut}})
		require.NoError(t, err)
		got, err := l.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, got.Rows)
		assert.NoFileExists(t, filepath.Join(dir, "replay", "unused.json"))
	})

	t.Run("missing input", func(t *testing.T) {
		cfg, err := config.Parse([]byte(fmt.Sprintf(endToEndConfig, filepath.Join(dir, "nope.csv"), out, fitPath)), "churn.hcl")
		require.NoError(t, err)
		p, err := NewFromConfig(cfg)
		require.NoError(t, err)

		_, err = p.Run(context.Background())
		var nf *error_types.NotFoundError
		assert.ErrorAs(t, err, &nf)
	})
}
