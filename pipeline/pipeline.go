// Package pipeline runs the loader, transformer and writer in sequence, tracking the state of the run
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/churn-project/churn-dataset/context_values"
	"github.com/churn-project/churn-dataset/events"
	"github.com/churn-project/churn-dataset/fit"
	"github.com/churn-project/churn-dataset/observable"
	"github.com/churn-project/churn-dataset/table"
	"github.com/churn-project/churn-dataset/types"
	"github.com/google/uuid"
)

// Result describes a successful run
type Result struct {
	ExecutionId string
	RowCount    int
	ColumnCount int
	// FitRecord is the record learned by the run, or the record replayed
	FitRecord *fit.Record
	// Timing holds the timing of each stage, keyed by stage name
	Timing types.TimingMap
}

// Pipeline runs once: Idle -> Loading -> Transforming -> Writing -> Done, or Failed from any running state
type Pipeline struct {
	observable.ObservableImpl

	loader      Loader
	transformer Transformer
	writer      Writer
	// if set, the transformer replays this record rather than fitting
	fitRecord   *fit.Record
	executionId string

	stateLock sync.RWMutex
	state     State
	err       error
}

func New(loader Loader, transformer Transformer, writer Writer, opts ...PipelineOption) (*Pipeline, error) {
	if loader == nil || transformer == nil || writer == nil {
		return nil, fmt.Errorf("pipeline requires a loader, a transformer and a writer")
	}
	p := &Pipeline{
		loader:      loader,
		transformer: transformer,
		writer:      writer,
		state:       StateIdle,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.executionId == "" {
		p.executionId = uuid.NewString()
	}
	return p, nil
}

func (p *Pipeline) ExecutionId() string {
	return p.executionId
}

func (p *Pipeline) State() State {
	p.stateLock.RLock()
	defer p.stateLock.RUnlock()
	return p.state
}

// Err returns the error the run failed with, if any
func (p *Pipeline) Err() error {
	p.stateLock.RLock()
	defer p.stateLock.RUnlock()
	return p.err
}

// Run executes the stages in order. The error of a failed stage is returned unmodified.
// A pipeline can only be run once.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	p.stateLock.Lock()
	if p.state != StateIdle {
		state := p.state
		p.stateLock.Unlock()
		return nil, fmt.Errorf("pipeline %s can not be run: state is %s", p.executionId, state)
	}
	p.state = StateLoading
	p.stateLock.Unlock()

	ctx = context_values.WithExecutionId(ctx, p.executionId)
	slog.Info("pipeline started", append(context_values.LogArgs(ctx), "replay", p.fitRecord != nil)...)
	p.notify(ctx, events.NewStartedEvent(p.executionId))

	res := &Result{ExecutionId: p.executionId, Timing: make(types.TimingMap)}

	tbl, err := runStage(ctx, p, StateLoading, res, func(ctx context.Context) (*table.Table, error) {
		return p.loader.Load(ctx)
	})
	if err != nil {
		return nil, err
	}

	tbl, err = runStage(ctx, p, StateTransforming, res, func(ctx context.Context) (*table.Table, error) {
		if p.fitRecord != nil {
			res.FitRecord = p.fitRecord
			return p.transformer.Apply(ctx, tbl, p.fitRecord)
		}
		out, rec, err := p.transformer.Fit(ctx, tbl)
		res.FitRecord = rec
		return out, err
	})
	if err != nil {
		return nil, err
	}

	tbl, err = runStage(ctx, p, StateWriting, res, func(ctx context.Context) (*table.Table, error) {
		if err := p.writer.Write(ctx, tbl); err != nil {
			return nil, err
		}
		// a replayed record is an input of the run, so only a learned record is written
		if p.fitRecord == nil {
			if err := p.writer.WriteFitRecord(ctx, res.FitRecord); err != nil {
				return nil, err
			}
		}
		return tbl, nil
	})
	if err != nil {
		return nil, err
	}

	res.RowCount = tbl.NumRows()
	res.ColumnCount = tbl.NumColumns()
	p.setState(StateDone, nil)

	slog.Info("pipeline completed", append(context_values.LogArgs(ctx), "rows", res.RowCount, "columns", res.ColumnCount)...)
	p.notify(ctx, events.NewCompletedEvent(p.executionId, res.RowCount, res.ColumnCount, res.Timing))
	return res, nil
}

// runStage moves the pipeline into the state and runs the stage function.
// On failure the pipeline moves to Failed and the error is returned as is.
func runStage(ctx context.Context, p *Pipeline, state State, res *Result, f func(context.Context) (*table.Table, error)) (*table.Table, error) {
	stage := state.stage()
	p.setState(state, nil)
	ctx = context_values.WithStage(ctx, stage)

	// cancellation is only checked between stages
	if err := ctx.Err(); err != nil {
		return nil, p.fail(ctx, stage, err)
	}

	slog.Info("stage started", context_values.LogArgs(ctx)...)
	p.notify(ctx, events.NewStageStartedEvent(p.executionId, stage))

	timing := types.NewTiming()
	tbl, err := f(ctx)
	timing = timing.Complete()
	res.Timing[stage] = timing
	if err != nil {
		return nil, p.fail(ctx, stage, err)
	}

	slog.Info("stage completed", append(context_values.LogArgs(ctx), "rows", tbl.NumRows(), "columns", tbl.NumColumns(), "duration", timing.Duration())...)
	p.notify(ctx, events.NewStageCompletedEvent(p.executionId, stage, tbl.NumRows(), tbl.NumColumns(), timing))
	return tbl, nil
}

func (p *Pipeline) fail(ctx context.Context, stage string, err error) error {
	p.setState(StateFailed, err)
	slog.Error("pipeline failed", append(context_values.LogArgs(ctx), "error", err)...)
	p.notify(ctx, events.NewFailedEvent(p.executionId, stage, err))
	return err
}

func (p *Pipeline) setState(state State, err error) {
	p.stateLock.Lock()
	defer p.stateLock.Unlock()
	p.state = state
	p.err = err
}

// notify tells observers about the event. Observer errors are logged, they do not fail the run.
func (p *Pipeline) notify(ctx context.Context, e events.Event) {
	if err := p.NotifyObservers(ctx, e); err != nil {
		slog.Warn("failed to notify observers", append(context_values.LogArgs(ctx), "error", err)...)
	}
}
