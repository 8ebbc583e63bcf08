package transform

import (
	"context"
	"fmt"

	"github.com/churn-project/churn-dataset/error_types"
	"github.com/churn-project/churn-dataset/fit"
	"github.com/churn-project/churn-dataset/schema"
	"github.com/churn-project/churn-dataset/table"
)

type MapOptions struct {
	Column string `hcl:"column"`
	// raw value -> replacement; values with no entry become null
	Values map[string]string `hcl:"values"`
	// type of the replacement values (defaults to string)
	To string `hcl:"to,optional"`
}

func (o *MapOptions) Validate() error {
	if o.Column == "" {
		return fmt.Errorf("column can not be empty")
	}
	if len(o.Values) == 0 {
		return fmt.Errorf("values can not be empty")
	}
	if o.To != "" {
		if _, err := schema.NormalizeType(o.To); err != nil {
			return err
		}
	}
	return nil
}

// MapStep replaces the values of a column using a lookup, e.g. Yes -> 1, No -> 0
type MapStep struct {
	StepBase
	column string
	to     string
	values map[string]any
}

func NewMapStep(name string, opts *MapOptions) (Step, error) {
	if err := opts.Validate(); err != nil {
		return nil, error_types.NewInvalidStepConfigError(name, opts.Column, err.Error())
	}
	to := schema.TypeVarchar
	if opts.To != "" {
		to, _ = schema.NormalizeType(opts.To)
	}
	s := &MapStep{
		StepBase: NewStepBase(name, KindMap),
		column:   opts.Column,
		to:       to,
		values:   make(map[string]any, len(opts.Values)),
	}
	for k, raw := range opts.Values {
		v, err := table.ParseValue(raw, to)
		if err != nil {
			return nil, error_types.NewInvalidStepConfigError(name, opts.Column, fmt.Sprintf("value for '%s': %s", k, err.Error()))
		}
		s.values[k] = v
	}
	return s, nil
}

func (s *MapStep) Fit(ctx context.Context, t *table.Table) (*table.Table, fit.Params, error) {
	res, err := s.Apply(ctx, t, fit.Params{})
	if err != nil {
		return nil, fit.Params{}, err
	}
	p := s.Params(t)
	p.Column = s.column
	return res, p, nil
}

func (s *MapStep) Apply(_ context.Context, t *table.Table, _ fit.Params) (*table.Table, error) {
	idx, err := s.ColumnIndex(t, s.column)
	if err != nil {
		return nil, err
	}
	// the output is nullable if the input was, or if any value has no mapping
	nullable := t.Schema.Columns[idx].Nullable
	for _, r := range t.Rows {
		if r[idx] == nil {
			continue
		}
		if _, ok := s.values[table.FormatValue(r[idx])]; !ok {
			nullable = true
			break
		}
	}
	out := t.Schema.Retype(s.column, s.to, nullable)
	return mapColumn(t, idx, out, func(_ int, v any) (any, error) {
		if v == nil {
			return nil, nil
		}
		return s.values[table.FormatValue(v)], nil
	})
}
