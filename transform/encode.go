package transform

import (
	"context"
	"fmt"

	"github.com/churn-project/churn-dataset/error_types"
	"github.com/churn-project/churn-dataset/fit"
	"github.com/churn-project/churn-dataset/schema"
	"github.com/churn-project/churn-dataset/table"
)

type EncodeOptions struct {
	Column string `hcl:"column"`
	// how categories not seen when fitting are handled on replay: "error" (default) or "ignore"
	Unknown string `hcl:"unknown,optional"`
}

func (o *EncodeOptions) Validate() error {
	if o.Column == "" {
		return fmt.Errorf("column can not be empty")
	}
	switch o.Unknown {
	case "", UnknownError, UnknownIgnore:
	default:
		return fmt.Errorf("unknown must be '%s' or '%s', got '%s'", UnknownError, UnknownIgnore, o.Unknown)
	}
	return nil
}

// EncodeStep replaces the categories of a column with integer codes assigned in order of first appearance
type EncodeStep struct {
	StepBase
	column        string
	ignoreUnknown bool
}

func NewEncodeStep(name string, opts *EncodeOptions) (Step, error) {
	if err := opts.Validate(); err != nil {
		return nil, error_types.NewInvalidStepConfigError(name, opts.Column, err.Error())
	}
	return &EncodeStep{
		StepBase:      NewStepBase(name, KindEncode),
		column:        opts.Column,
		ignoreUnknown: opts.Unknown == UnknownIgnore,
	}, nil
}

func (s *EncodeStep) Fit(ctx context.Context, t *table.Table) (*table.Table, fit.Params, error) {
	idx, err := s.ColumnIndex(t, s.column)
	if err != nil {
		return nil, fit.Params{}, err
	}
	p := s.Params(t)
	p.Column = s.column
	p.Type = t.Schema.Columns[idx].Type

	if p.Learned {
		seen := make(map[string]struct{})
		p.Categories = []string{}
		for _, v := range t.ColumnValues(idx) {
			if v == nil {
				continue
			}
			key := table.FormatValue(v)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			p.Categories = append(p.Categories, key)
		}
	}

	res, err := s.Apply(ctx, t, p)
	if err != nil {
		return nil, fit.Params{}, err
	}
	return res, p, nil
}

func (s *EncodeStep) Apply(_ context.Context, t *table.Table, p fit.Params) (*table.Table, error) {
	idx, err := s.ColumnIndex(t, s.column)
	if err != nil {
		return nil, err
	}
	if err := s.requireLearned(t, p, s.column); err != nil {
		return nil, err
	}
	codes := make(map[string]int64, len(p.Categories))
	for i, c := range p.Categories {
		codes[c] = int64(i)
	}

	col := t.Schema.Columns[idx]
	out := t.Schema.Retype(s.column, schema.TypeBigint, col.Nullable)
	return mapColumn(t, idx, out, func(row int, v any) (any, error) {
		if v == nil {
			return nil, nil
		}
		key := table.FormatValue(v)
		code, ok := codes[key]
		if !ok {
			if s.ignoreUnknown {
				return UnknownCategoryCode, nil
			}
			return nil, error_types.NewUnknownCategoryError(s.Name(), s.column, row, key)
		}
		return code, nil
	})
}
