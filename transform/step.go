package transform

import (
	"context"

	"github.com/churn-project/churn-dataset/error_types"
	"github.com/churn-project/churn-dataset/fit"
	"github.com/churn-project/churn-dataset/schema"
	"github.com/churn-project/churn-dataset/table"
)

// Step is one named transformation. Steps never mutate their input table.
type Step interface {
	Name() string
	Kind() string
	// Fit learns any parameters from the table and applies them, returning the new table and what was learned
	Fit(ctx context.Context, t *table.Table) (*table.Table, fit.Params, error)
	// Apply replays previously learned parameters on a table
	Apply(ctx context.Context, t *table.Table, p fit.Params) (*table.Table, error)
}

// StepBase provides the name and kind of a step
type StepBase struct {
	name string
	kind string
}

func NewStepBase(name, kind string) StepBase {
	return StepBase{name: name, kind: kind}
}

func (b StepBase) Name() string {
	return b.name
}

func (b StepBase) Kind() string {
	return b.kind
}

// Params returns fit params for this step, with Learned set if the table has rows
func (b StepBase) Params(t *table.Table) fit.Params {
	return fit.Params{Step: b.name, Kind: b.kind, Learned: t.NumRows() > 0}
}

// ColumnIndex returns the index of the named column, or an UnknownColumnError
func (b StepBase) ColumnIndex(t *table.Table, column string) (int, error) {
	idx := t.Schema.ColumnIndex(column)
	if idx == -1 {
		return -1, error_types.NewUnknownColumnError(b.name, column)
	}
	return idx, nil
}

// requireLearned returns an InsufficientDataError if the params were fitted on no rows but the table has rows
func (b StepBase) requireLearned(t *table.Table, p fit.Params, column string) error {
	if !p.Learned && t.NumRows() > 0 {
		return error_types.NewInsufficientDataError(b.name, column, "fit record learned nothing for this step (fitted on zero rows)")
	}
	return nil
}

// statelessStep adapts a step which learns nothing, so Fit and Apply are the same transformation
type statelessStep struct {
	StepBase
	apply func(ctx context.Context, t *table.Table) (*table.Table, error)
}

func (s *statelessStep) Fit(ctx context.Context, t *table.Table) (*table.Table, fit.Params, error) {
	res, err := s.apply(ctx, t)
	if err != nil {
		return nil, fit.Params{}, err
	}
	return res, s.Params(t), nil
}

func (s *statelessStep) Apply(ctx context.Context, t *table.Table, _ fit.Params) (*table.Table, error) {
	return s.apply(ctx, t)
}

// NewStatelessStep returns a step which applies the same function when fitting and replaying
func NewStatelessStep(name, kind string, apply func(ctx context.Context, t *table.Table) (*table.Table, error)) Step {
	return &statelessStep{StepBase: NewStepBase(name, kind), apply: apply}
}

// mapColumn returns a copy of the table under the output schema, with the values of column idx replaced by fn
func mapColumn(t *table.Table, idx int, out *schema.RowSchema, fn func(row int, v any) (any, error)) (*table.Table, error) {
	res := table.New(out)
	res.Rows = make([]table.Row, len(t.Rows))
	for i, r := range t.Rows {
		row := make(table.Row, len(r))
		copy(row, r)
		v, err := fn(i, r[idx])
		if err != nil {
			return nil, err
		}
		row[idx] = v
		res.Rows[i] = row
	}
	return res, nil
}
