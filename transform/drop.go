package transform

import (
	"context"
	"fmt"
	"slices"

	"github.com/churn-project/churn-dataset/error_types"
	"github.com/churn-project/churn-dataset/fit"
	"github.com/churn-project/churn-dataset/table"
)

type DropOptions struct {
	Columns []string `hcl:"columns"`
}

func (o *DropOptions) Validate() error {
	if len(o.Columns) == 0 {
		return fmt.Errorf("columns can not be empty")
	}
	return nil
}

// DropStep removes columns
type DropStep struct {
	StepBase
	columns []string
}

func NewDropStep(name string, opts *DropOptions) (Step, error) {
	if err := opts.Validate(); err != nil {
		return nil, error_types.NewInvalidStepConfigError(name, "", err.Error())
	}
	return &DropStep{
		StepBase: NewStepBase(name, KindDrop),
		columns:  slices.Clone(opts.Columns),
	}, nil
}

func (s *DropStep) Fit(ctx context.Context, t *table.Table) (*table.Table, fit.Params, error) {
	res, err := s.Apply(ctx, t, fit.Params{})
	if err != nil {
		return nil, fit.Params{}, err
	}
	return res, s.Params(t), nil
}

func (s *DropStep) Apply(_ context.Context, t *table.Table, _ fit.Params) (*table.Table, error) {
	drop := make(map[int]struct{}, len(s.columns))
	for _, c := range s.columns {
		idx, err := s.ColumnIndex(t, c)
		if err != nil {
			return nil, err
		}
		drop[idx] = struct{}{}
	}

	res := table.New(t.Schema.Without(s.columns...))
	res.Rows = make([]table.Row, len(t.Rows))
	for i, r := range t.Rows {
		row := make(table.Row, 0, len(r)-len(drop))
		for j, v := range r {
			if _, ok := drop[j]; !ok {
				row = append(row, v)
			}
		}
		res.Rows[i] = row
	}
	return res, nil
}
