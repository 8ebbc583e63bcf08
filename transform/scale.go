package transform

import (
	"context"
	"fmt"

	"github.com/churn-project/churn-dataset/error_types"
	"github.com/churn-project/churn-dataset/fit"
	"github.com/churn-project/churn-dataset/schema"
	"github.com/churn-project/churn-dataset/table"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type ScaleOptions struct {
	Column string `hcl:"column"`
	// "standard" (default) or "minmax"
	Method string `hcl:"method,optional"`
}

func (o *ScaleOptions) Validate() error {
	if o.Column == "" {
		return fmt.Errorf("column can not be empty")
	}
	switch o.Method {
	case "", ScaleStandard, ScaleMinMax:
	default:
		return fmt.Errorf("method must be '%s' or '%s', got '%s'", ScaleStandard, ScaleMinMax, o.Method)
	}
	return nil
}

// ScaleStep rescales a numeric column to (x - center) / scale.
// standard uses the mean and population standard deviation, minmax the minimum and range.
// A column with zero scale maps every value to 0.
type ScaleStep struct {
	StepBase
	column string
	method string
}

func NewScaleStep(name string, opts *ScaleOptions) (Step, error) {
	if err := opts.Validate(); err != nil {
		return nil, error_types.NewInvalidStepConfigError(name, opts.Column, err.Error())
	}
	method := opts.Method
	if method == "" {
		method = ScaleStandard
	}
	return &ScaleStep{
		StepBase: NewStepBase(name, KindScale),
		column:   opts.Column,
		method:   method,
	}, nil
}

func (s *ScaleStep) Fit(ctx context.Context, t *table.Table) (*table.Table, fit.Params, error) {
	idx, err := s.numericColumn(t)
	if err != nil {
		return nil, fit.Params{}, err
	}
	p := s.Params(t)
	p.Column = s.column
	p.Statistic = s.method

	if p.Learned {
		xs := nonNullFloats(t.ColumnValues(idx))
		if len(xs) == 0 {
			return nil, fit.Params{}, error_types.NewInsufficientDataError(s.Name(), s.column, "all values are null")
		}
		var center, scale float64
		switch s.method {
		case ScaleStandard:
			center = stat.Mean(xs, nil)
			scale = stat.PopStdDev(xs, nil)
		case ScaleMinMax:
			center = floats.Min(xs)
			scale = floats.Max(xs) - center
		}
		p.Center = &center
		p.Scale = &scale
	}

	res, err := s.Apply(ctx, t, p)
	if err != nil {
		return nil, fit.Params{}, err
	}
	return res, p, nil
}

func (s *ScaleStep) Apply(_ context.Context, t *table.Table, p fit.Params) (*table.Table, error) {
	idx, err := s.numericColumn(t)
	if err != nil {
		return nil, err
	}
	if err := s.requireLearned(t, p, s.column); err != nil {
		return nil, err
	}
	var center, scale float64
	if p.Center != nil && p.Scale != nil {
		center, scale = *p.Center, *p.Scale
	}
	out := t.Schema.Retype(s.column, schema.TypeDouble, t.Schema.Columns[idx].Nullable)
	return mapColumn(t, idx, out, func(_ int, v any) (any, error) {
		x, ok := table.ToFloat(v)
		if !ok {
			return nil, nil
		}
		if scale == 0 {
			return 0.0, nil
		}
		return (x - center) / scale, nil
	})
}

func (s *ScaleStep) numericColumn(t *table.Table) (int, error) {
	idx, err := s.ColumnIndex(t, s.column)
	if err != nil {
		return -1, err
	}
	if col := t.Schema.Columns[idx]; !schema.IsNumericType(col.Type) {
		return -1, error_types.NewInvalidStepConfigError(s.Name(), s.column, fmt.Sprintf("scale requires a numeric column, column type is %s", col.Type))
	}
	return idx, nil
}
