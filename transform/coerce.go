package transform

import (
	"context"
	"fmt"

	"github.com/churn-project/churn-dataset/error_types"
	"github.com/churn-project/churn-dataset/fit"
	"github.com/churn-project/churn-dataset/schema"
	"github.com/churn-project/churn-dataset/table"
)

type CoerceOptions struct {
	Column string `hcl:"column"`
	To     string `hcl:"to"`
	// used in place of values which cannot be converted
	Default *string `hcl:"default,optional"`
}

func (o *CoerceOptions) Validate() error {
	if o.Column == "" {
		return fmt.Errorf("column can not be empty")
	}
	if _, err := schema.NormalizeType(o.To); err != nil {
		return err
	}
	return nil
}

// CoerceStep converts a column to another type
type CoerceStep struct {
	StepBase
	column       string
	to           string
	defaultValue any
}

func NewCoerceStep(name string, opts *CoerceOptions) (Step, error) {
	if err := opts.Validate(); err != nil {
		return nil, error_types.NewInvalidStepConfigError(name, opts.Column, err.Error())
	}
	to, _ := schema.NormalizeType(opts.To)
	s := &CoerceStep{
		StepBase: NewStepBase(name, KindCoerce),
		column:   opts.Column,
		to:       to,
	}
	if opts.Default != nil {
		v, err := table.ParseValue(*opts.Default, to)
		if err != nil {
			return nil, error_types.NewInvalidStepConfigError(name, opts.Column, fmt.Sprintf("invalid default: %s", err.Error()))
		}
		s.defaultValue = v
	}
	return s, nil
}

func (s *CoerceStep) Fit(ctx context.Context, t *table.Table) (*table.Table, fit.Params, error) {
	res, err := s.Apply(ctx, t, fit.Params{})
	if err != nil {
		return nil, fit.Params{}, err
	}
	p := s.Params(t)
	p.Column = s.column
	return res, p, nil
}

func (s *CoerceStep) Apply(_ context.Context, t *table.Table, _ fit.Params) (*table.Table, error) {
	idx, err := s.ColumnIndex(t, s.column)
	if err != nil {
		return nil, err
	}
	col := t.Schema.Columns[idx]
	out := t.Schema.Retype(s.column, s.to, col.Nullable)

	return mapColumn(t, idx, out, func(row int, v any) (any, error) {
		if v == nil {
			return nil, nil
		}
		res, err := table.ConvertValue(v, s.to)
		if err != nil {
			if s.defaultValue != nil {
				return s.defaultValue, nil
			}
			return nil, error_types.NewParseError(error_types.StageTransform, "", row, s.column, err.Error())
		}
		return res, nil
	})
}
