package transform

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/churn-project/churn-dataset/config"
	"github.com/churn-project/churn-dataset/context_values"
	"github.com/churn-project/churn-dataset/error_types"
	"github.com/churn-project/churn-dataset/fit"
	"github.com/churn-project/churn-dataset/table"
)

// Transformer applies an ordered list of steps, each consuming the output of the previous one
type Transformer struct {
	steps []Step
}

func New(steps ...Step) *Transformer {
	return &Transformer{steps: steps}
}

// NewFromConfig builds a transformer from step blocks, in declaration order
func NewFromConfig(cfgs []*config.StepConfig) (*Transformer, error) {
	steps := make([]Step, 0, len(cfgs))
	for _, c := range cfgs {
		s, err := NewStep(c)
		if err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return New(steps...), nil
}

func (t *Transformer) Steps() []Step {
	return t.steps
}

// Fit runs every step in order on the table, returning the transformed table and the parameters learned
func (t *Transformer) Fit(ctx context.Context, tbl *table.Table) (*table.Table, *fit.Record, error) {
	params := make([]fit.Params, 0, len(t.steps))
	cur := tbl
	for _, s := range t.steps {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		next, p, err := s.Fit(ctx, cur)
		if err != nil {
			return nil, nil, err
		}
		p.Step = s.Name()
		p.Kind = s.Kind()
		params = append(params, p)
		logStep(ctx, "fitted step", s, next)
		cur = next
	}
	return cur, fit.NewRecord(params...), nil
}

// Apply replays the parameters in a fit record on the table.
// The record must have been produced by a transformer with the same steps.
func (t *Transformer) Apply(ctx context.Context, tbl *table.Table, rec *fit.Record) (*table.Table, error) {
	if rec == nil {
		return nil, fmt.Errorf("fit record is nil")
	}
	params := rec.Steps()
	if len(params) != len(t.steps) {
		return nil, error_types.NewInvalidStepConfigError("", "", fmt.Sprintf("fit record has %d steps, transformer has %d", len(params), len(t.steps)))
	}
	cur := tbl
	for i, s := range t.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := params[i]
		if p.Step != s.Name() || p.Kind != s.Kind() {
			return nil, error_types.NewInvalidStepConfigError(s.Name(), "", fmt.Sprintf("fit record step %d is '%s' (%s), expected '%s' (%s)", i, p.Step, p.Kind, s.Name(), s.Kind()))
		}
		next, err := s.Apply(ctx, cur, p)
		if err != nil {
			return nil, err
		}
		logStep(ctx, "applied step", s, next)
		cur = next
	}
	return cur, nil
}

func logStep(ctx context.Context, msg string, s Step, t *table.Table) {
	args := append(context_values.LogArgs(ctx), "step", s.Name(), "kind", s.Kind(), "rows", t.NumRows(), "columns", t.NumColumns())
	slog.Debug(msg, args...)
}
