package transform

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/churn-project/churn-dataset/error_types"
	"github.com/churn-project/churn-dataset/fit"
	"github.com/churn-project/churn-dataset/schema"
	"github.com/churn-project/churn-dataset/table"
	"gonum.org/v1/gonum/stat"
)

type ImputeOptions struct {
	Column   string `hcl:"column"`
	Strategy string `hcl:"strategy"`
	// replacement for the constant strategy
	Value *string `hcl:"value,optional"`
	// decimal places the mean or median is rounded to
	Precision *int `hcl:"precision,optional"`
}

func (o *ImputeOptions) Validate() error {
	if o.Column == "" {
		return fmt.Errorf("column can not be empty")
	}
	switch o.Strategy {
	case StrategyDrop, StrategyMode:
	case StrategyConstant:
		if o.Value == nil {
			return fmt.Errorf("strategy '%s' requires value", o.Strategy)
		}
	case StrategyMean, StrategyMedian:
	default:
		return fmt.Errorf("strategy must be one of %s, %s, %s, %s, %s - got '%s'", StrategyDrop, StrategyConstant, StrategyMean, StrategyMedian, StrategyMode, o.Strategy)
	}
	if o.Value != nil && o.Strategy != StrategyConstant {
		return fmt.Errorf("value is only valid for strategy '%s'", StrategyConstant)
	}
	if o.Precision != nil {
		if o.Strategy != StrategyMean && o.Strategy != StrategyMedian {
			return fmt.Errorf("precision is only valid for strategies '%s' and '%s'", StrategyMean, StrategyMedian)
		}
		if *o.Precision < 0 {
			return fmt.Errorf("precision can not be negative")
		}
	}
	return nil
}

// ImputeStep replaces the nulls in a column, or drops the rows containing them
type ImputeStep struct {
	StepBase
	column    string
	strategy  string
	value     *string
	precision *int
}

func NewImputeStep(name string, opts *ImputeOptions) (Step, error) {
	if err := opts.Validate(); err != nil {
		return nil, error_types.NewInvalidStepConfigError(name, opts.Column, err.Error())
	}
	return &ImputeStep{
		StepBase:  NewStepBase(name, KindImpute),
		column:    opts.Column,
		strategy:  opts.Strategy,
		value:     opts.Value,
		precision: opts.Precision,
	}, nil
}

func (s *ImputeStep) Fit(ctx context.Context, t *table.Table) (*table.Table, fit.Params, error) {
	idx, err := s.ColumnIndex(t, s.column)
	if err != nil {
		return nil, fit.Params{}, err
	}
	p := s.Params(t)
	p.Column = s.column

	switch s.strategy {
	case StrategyDrop, StrategyConstant:
		res, err := s.Apply(ctx, t, p)
		return res, p, err
	}

	col := t.Schema.Columns[idx]
	if err := s.checkColumnType(col); err != nil {
		return nil, fit.Params{}, err
	}
	p.Statistic = s.strategy
	p.Type = s.outputType(col)

	if t.NumRows() > 0 {
		statistic, err := s.computeStatistic(t, idx)
		if err != nil {
			return nil, fit.Params{}, err
		}
		formatted := table.FormatValue(statistic)
		p.Value = &formatted
	}

	res, err := s.Apply(ctx, t, p)
	if err != nil {
		return nil, fit.Params{}, err
	}
	return res, p, nil
}

func (s *ImputeStep) Apply(_ context.Context, t *table.Table, p fit.Params) (*table.Table, error) {
	idx, err := s.ColumnIndex(t, s.column)
	if err != nil {
		return nil, err
	}
	col := t.Schema.Columns[idx]

	switch s.strategy {
	case StrategyDrop:
		return s.dropNulls(t, idx), nil
	case StrategyConstant:
		replacement, err := table.ParseValue(*s.value, col.Type)
		if err != nil {
			return nil, error_types.NewInvalidStepConfigError(s.Name(), s.column, fmt.Sprintf("constant: %s", err.Error()))
		}
		return s.fill(t, idx, col.Type, replacement)
	}

	if err := s.checkColumnType(col); err != nil {
		return nil, err
	}
	outputType := s.outputType(col)
	if t.NumRows() == 0 {
		return table.New(t.Schema.Retype(s.column, outputType, false)), nil
	}
	if err := s.requireLearned(t, p, s.column); err != nil {
		return nil, err
	}
	replacement, err := p.StatisticValue()
	if err != nil {
		return nil, error_types.NewInvalidStepConfigError(s.Name(), s.column, err.Error())
	}
	// the record was fitted on a column of a different type
	if !table.ValueMatchesType(replacement, outputType) {
		replacement, err = table.ConvertValue(replacement, outputType)
		if err != nil {
			return nil, error_types.NewInvalidStepConfigError(s.Name(), s.column, err.Error())
		}
	}
	return s.fill(t, idx, outputType, replacement)
}

func (s *ImputeStep) checkColumnType(col *schema.ColumnSchema) error {
	if (s.strategy == StrategyMean || s.strategy == StrategyMedian) && !schema.IsNumericType(col.Type) {
		return error_types.NewInvalidStepConfigError(s.Name(), s.column, fmt.Sprintf("strategy '%s' requires a numeric column, column type is %s", s.strategy, col.Type))
	}
	return nil
}

// mean and median produce a DOUBLE column, other strategies keep the column type
func (s *ImputeStep) outputType(col *schema.ColumnSchema) string {
	if s.strategy == StrategyMean || s.strategy == StrategyMedian {
		return schema.TypeDouble
	}
	return col.Type
}

func (s *ImputeStep) computeStatistic(t *table.Table, idx int) (any, error) {
	values := t.ColumnValues(idx)
	if s.strategy == StrategyMode {
		mode, ok := modeOf(values)
		if !ok {
			return nil, error_types.NewInsufficientDataError(s.Name(), s.column, "all values are null")
		}
		return mode, nil
	}

	xs := nonNullFloats(values)
	if len(xs) == 0 {
		return nil, error_types.NewInsufficientDataError(s.Name(), s.column, "all values are null")
	}
	var res float64
	switch s.strategy {
	case StrategyMean:
		res = stat.Mean(xs, nil)
	case StrategyMedian:
		res = median(xs)
	}
	if s.precision != nil {
		res = roundTo(res, *s.precision)
	}
	return res, nil
}

func (s *ImputeStep) fill(t *table.Table, idx int, outputType string, replacement any) (*table.Table, error) {
	out := t.Schema.Retype(s.column, outputType, false)
	return mapColumn(t, idx, out, func(row int, v any) (any, error) {
		if v == nil {
			return replacement, nil
		}
		if table.ValueMatchesType(v, outputType) {
			return v, nil
		}
		return table.ConvertValue(v, outputType)
	})
}

func (s *ImputeStep) dropNulls(t *table.Table, idx int) *table.Table {
	col := t.Schema.Columns[idx]
	res := table.New(t.Schema.Retype(s.column, col.Type, false))
	for _, r := range t.Rows {
		if r[idx] == nil {
			continue
		}
		res.Rows = append(res.Rows, slices.Clone(r))
	}
	return res
}

// nonNullFloats returns the numeric values, skipping nulls
func nonNullFloats(values []any) []float64 {
	res := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := table.ToFloat(v); ok {
			res = append(res, f)
		}
	}
	return res
}

// median of an even count is the mean of the two middle values
func median(xs []float64) float64 {
	sorted := slices.Clone(xs)
	slices.Sort(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// modeOf returns the most frequent non-null value, ties broken by first occurrence
func modeOf(values []any) (any, bool) {
	counts := make(map[any]int)
	var order []any
	for _, v := range values {
		if v == nil {
			continue
		}
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}
	if len(order) == 0 {
		return nil, false
	}
	best := order[0]
	for _, v := range order[1:] {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best, true
}

func roundTo(f float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(f*scale) / scale
}
