package transform

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/churn-project/churn-dataset/error_types"
	"github.com/churn-project/churn-dataset/fit"
	"github.com/churn-project/churn-dataset/schema"
	"github.com/churn-project/churn-dataset/table"
	"github.com/turbot/go-kit/helpers"
	"golang.org/x/exp/maps"
	"gonum.org/v1/gonum/floats"
)

// DeriveFunc computes a new column from input columns
type DeriveFunc struct {
	// column type of the output
	OutputType string
	// bounds on the number of input columns; MaxInputs of 0 means unbounded
	MinInputs int
	MaxInputs int
	// inputs must be BIGINT or DOUBLE columns
	NumericInputs bool
	// the step requires the value option
	RequiresValue bool
	// Fn is called with the non-null input values of one row and the value option.
	// Returning nil gives a null output.
	Fn func(inputs []any, value string) (any, error)
}

var (
	deriveFuncs   = make(map[string]DeriveFunc)
	deriveFuncsMu sync.RWMutex
)

// RegisterDeriveFunc makes a derive function available to derive steps by name
func RegisterDeriveFunc(name string, f DeriveFunc) {
	deriveFuncsMu.Lock()
	defer deriveFuncsMu.Unlock()
	deriveFuncs[name] = f
}

func getDeriveFunc(name string) (DeriveFunc, bool) {
	deriveFuncsMu.RLock()
	defer deriveFuncsMu.RUnlock()
	f, ok := deriveFuncs[name]
	return f, ok
}

func deriveFuncNames() []string {
	deriveFuncsMu.RLock()
	defer deriveFuncsMu.RUnlock()
	res := maps.Keys(deriveFuncs)
	slices.Sort(res)
	return res
}

type DeriveOptions struct {
	Column   string   `hcl:"column"`
	Function string   `hcl:"function"`
	Inputs   []string `hcl:"inputs"`
	Value    *string  `hcl:"value,optional"`
}

func (o *DeriveOptions) Validate() error {
	if o.Column == "" {
		return fmt.Errorf("column can not be empty")
	}
	if len(o.Inputs) == 0 {
		return fmt.Errorf("inputs can not be empty")
	}
	f, ok := getDeriveFunc(o.Function)
	if !ok {
		return fmt.Errorf("unknown function '%s' - registered functions: %v", o.Function, deriveFuncNames())
	}
	if len(o.Inputs) < f.MinInputs || (f.MaxInputs > 0 && len(o.Inputs) > f.MaxInputs) {
		return fmt.Errorf("function '%s' takes %s, got %d", o.Function, arityString(f), len(o.Inputs))
	}
	if f.RequiresValue && o.Value == nil {
		return fmt.Errorf("function '%s' requires value", o.Function)
	}
	return nil
}

func arityString(f DeriveFunc) string {
	switch {
	case f.MaxInputs == 0:
		return fmt.Sprintf("at least %d inputs", f.MinInputs)
	case f.MinInputs == f.MaxInputs:
		return fmt.Sprintf("%d inputs", f.MinInputs)
	default:
		return fmt.Sprintf("%d to %d inputs", f.MinInputs, f.MaxInputs)
	}
}

// DeriveStep adds a column computed from existing columns
type DeriveStep struct {
	StepBase
	column   string
	function string
	inputs   []string
	value    string
	f        DeriveFunc
}

func NewDeriveStep(name string, opts *DeriveOptions) (Step, error) {
	if err := opts.Validate(); err != nil {
		return nil, error_types.NewInvalidStepConfigError(name, opts.Column, err.Error())
	}
	f, _ := getDeriveFunc(opts.Function)
	s := &DeriveStep{
		StepBase: NewStepBase(name, KindDerive),
		column:   opts.Column,
		function: opts.Function,
		inputs:   slices.Clone(opts.Inputs),
		f:        f,
	}
	if opts.Value != nil {
		s.value = *opts.Value
	}
	return s, nil
}

func (s *DeriveStep) Fit(ctx context.Context, t *table.Table) (*table.Table, fit.Params, error) {
	res, err := s.Apply(ctx, t, fit.Params{})
	if err != nil {
		return nil, fit.Params{}, err
	}
	p := s.Params(t)
	p.Column = s.column
	return res, p, nil
}

func (s *DeriveStep) Apply(_ context.Context, t *table.Table, _ fit.Params) (*table.Table, error) {
	if t.Schema.ColumnIndex(s.column) != -1 {
		return nil, error_types.NewInvalidStepConfigError(s.Name(), s.column, "column already exists")
	}
	indexes := make([]int, len(s.inputs))
	for i, in := range s.inputs {
		idx, err := s.ColumnIndex(t, in)
		if err != nil {
			return nil, err
		}
		if s.f.NumericInputs && !schema.IsNumericType(t.Schema.Columns[idx].Type) {
			return nil, error_types.NewInvalidStepConfigError(s.Name(), in, fmt.Sprintf("function '%s' requires numeric inputs, column type is %s", s.function, t.Schema.Columns[idx].Type))
		}
		indexes[i] = idx
	}

	// derived columns are nullable, as a null in any input gives a null output
	out := t.Schema.WithColumn(&schema.ColumnSchema{ColumnName: s.column, Type: s.f.OutputType, Nullable: true})
	res := table.New(out)
	res.Rows = make([]table.Row, len(t.Rows))
	inputs := make([]any, len(indexes))
	for i, r := range t.Rows {
		row := make(table.Row, len(r), len(r)+1)
		copy(row, r)
		v, err := s.derive(r, indexes, inputs)
		if err != nil {
			return nil, error_types.NewParseError(error_types.StageTransform, "", i, s.column, err.Error())
		}
		res.Rows[i] = append(row, v)
	}
	return res, nil
}

func (s *DeriveStep) derive(r table.Row, indexes []int, inputs []any) (any, error) {
	for j, idx := range indexes {
		if r[idx] == nil {
			return nil, nil
		}
		inputs[j] = r[idx]
	}
	v, err := callDeriveFunc(s.f.Fn, inputs, s.value)
	if err != nil || v == nil {
		return nil, err
	}
	if !table.ValueMatchesType(v, s.f.OutputType) {
		return table.ConvertValue(v, s.f.OutputType)
	}
	return v, nil
}

// callDeriveFunc calls fn, converting a panic into an error
func callDeriveFunc(fn func([]any, string) (any, error), inputs []any, value string) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = helpers.ToError(r)
		}
	}()
	return fn(inputs, value)
}

// built in derive functions
const (
	DeriveSum        = "sum"
	DeriveDifference = "difference"
	DeriveProduct    = "product"
	DeriveRatio      = "ratio"
	DeriveMean       = "mean"
	DeriveLog1p      = "log1p"
	DeriveEquals     = "equals"
)

func toFloats(inputs []any) []float64 {
	res := make([]float64, len(inputs))
	for i, v := range inputs {
		res[i], _ = table.ToFloat(v)
	}
	return res
}

func init() {
	RegisterDeriveFunc(DeriveSum, DeriveFunc{
		OutputType: schema.TypeDouble, MinInputs: 1, NumericInputs: true,
		Fn: func(inputs []any, _ string) (any, error) {
			return floats.Sum(toFloats(inputs)), nil
		},
	})
	RegisterDeriveFunc(DeriveDifference, DeriveFunc{
		OutputType: schema.TypeDouble, MinInputs: 2, MaxInputs: 2, NumericInputs: true,
		Fn: func(inputs []any, _ string) (any, error) {
			xs := toFloats(inputs)
			return xs[0] - xs[1], nil
		},
	})
	RegisterDeriveFunc(DeriveProduct, DeriveFunc{
		OutputType: schema.TypeDouble, MinInputs: 1, NumericInputs: true,
		Fn: func(inputs []any, _ string) (any, error) {
			return floats.Prod(toFloats(inputs)), nil
		},
	})
	RegisterDeriveFunc(DeriveRatio, DeriveFunc{
		OutputType: schema.TypeDouble, MinInputs: 2, MaxInputs: 2, NumericInputs: true,
		Fn: func(inputs []any, _ string) (any, error) {
			xs := toFloats(inputs)
			if xs[1] == 0 {
				return nil, nil
			}
			return xs[0] / xs[1], nil
		},
	})
	RegisterDeriveFunc(DeriveMean, DeriveFunc{
		OutputType: schema.TypeDouble, MinInputs: 1, NumericInputs: true,
		Fn: func(inputs []any, _ string) (any, error) {
			xs := toFloats(inputs)
			return floats.Sum(xs) / float64(len(xs)), nil
		},
	})
	RegisterDeriveFunc(DeriveLog1p, DeriveFunc{
		OutputType: schema.TypeDouble, MinInputs: 1, MaxInputs: 1, NumericInputs: true,
		Fn: func(inputs []any, _ string) (any, error) {
			x, _ := table.ToFloat(inputs[0])
			// undefined at and below -1
			if x <= -1 {
				return nil, nil
			}
			return math.Log1p(x), nil
		},
	})
	RegisterDeriveFunc(DeriveEquals, DeriveFunc{
		OutputType: schema.TypeBoolean, MinInputs: 1, MaxInputs: 1, RequiresValue: true,
		Fn: func(inputs []any, value string) (any, error) {
			want, err := table.ParseValue(value, table.TypeOfValue(inputs[0]))
			if err != nil {
				// a value which cannot be of the input type never matches
				return false, nil
			}
			return want == inputs[0], nil
		},
	})
}
