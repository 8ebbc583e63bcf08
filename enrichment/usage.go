package enrichment

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/churn-project/churn-dataset/constants"
	"github.com/churn-project/churn-dataset/context_values"
	"github.com/churn-project/churn-dataset/error_types"
	"github.com/churn-project/churn-dataset/fit"
	"github.com/churn-project/churn-dataset/schema"
	"github.com/churn-project/churn-dataset/table"
	"github.com/churn-project/churn-dataset/transform"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

type UsageOptions struct {
	// 0/1 or boolean churn label, defaults to "Churn"
	LabelColumn string `hcl:"label_column,optional"`
	Seed        *int64 `hcl:"seed,optional"`
	// length of the simulated monthly usage series, defaults to 6
	Months *int `hcl:"months,optional"`
	// also add the simulated series as one column per month
	KeepSeries bool `hcl:"keep_series,optional"`
}

func (o *UsageOptions) Validate() error {
	if o.Months != nil && *o.Months < usageRecentMonths {
		return fmt.Errorf("months must be at least %d, got %d", usageRecentMonths, *o.Months)
	}
	return nil
}

func (o *UsageOptions) months() int {
	if o.Months == nil {
		return constants.DefaultUsageMonths
	}
	return *o.Months
}

// UsageStep simulates a monthly usage series per customer, decaying for churned customers,
// and adds summary features of the series: least squares trend, population standard deviation
// and the mean of the most recent months
type UsageStep struct {
	transform.StepBase
	label      string
	seed       int64
	months     int
	keepSeries bool
}

func NewUsageStep(name string, opts *UsageOptions) (transform.Step, error) {
	if err := opts.Validate(); err != nil {
		return nil, error_types.NewInvalidStepConfigError(name, "", err.Error())
	}
	interactions := InteractionsOptions{LabelColumn: opts.LabelColumn, Seed: opts.Seed}
	return &UsageStep{
		StepBase:   transform.NewStepBase(name, KindChurnUsage),
		label:      interactions.label(),
		seed:       interactions.seed(),
		months:     opts.months(),
		keepSeries: opts.KeepSeries,
	}, nil
}

func (s *UsageStep) Fit(ctx context.Context, t *table.Table) (*table.Table, fit.Params, error) {
	res, err := s.Apply(ctx, t, fit.Params{})
	if err != nil {
		return nil, fit.Params{}, err
	}
	p := s.Params(t)
	p.Column = s.label
	return res, p, nil
}

func (s *UsageStep) Apply(ctx context.Context, t *table.Table, _ fit.Params) (*table.Table, error) {
	churned, err := churnLabels(s.StepBase, t, s.label)
	if err != nil {
		return nil, err
	}

	cols := []*schema.ColumnSchema{
		{ColumnName: constants.ChurnTrendUsage, Type: schema.TypeDouble},
		{ColumnName: constants.ChurnStdUsage, Type: schema.TypeDouble},
		{ColumnName: constants.ChurnAvgUsageLast3m, Type: schema.TypeDouble},
	}
	if s.keepSeries {
		for m := 1; m <= s.months; m++ {
			cols = append(cols, &schema.ColumnSchema{ColumnName: usageSeriesPrefix + strconv.Itoa(m), Type: schema.TypeBigint})
		}
	}

	gen := newUsageGenerator(s.seed, s.months)
	res, err := addColumns(s.StepBase, t, cols, func(row int) []any {
		series := gen.series(churned[row])
		trend, std, recent := summarizeUsage(series)
		values := []any{trend, std, recent}
		if s.keepSeries {
			for _, v := range series {
				values = append(values, int64(v))
			}
		}
		return values
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("generated usage features", append(context_values.LogArgs(ctx), "step", s.Name(), "seed", s.seed, "months", s.months, "rows", res.NumRows())...)
	return res, nil
}

type usageGenerator struct {
	base  distuv.Poisson
	decay []float64
}

func newUsageGenerator(seed int64, months int) *usageGenerator {
	g := &usageGenerator{
		base:  distuv.Poisson{Lambda: usageLambda, Src: rand.New(rand.NewSource(uint64(seed)))},
		decay: make([]float64, months),
	}
	floats.Span(g.decay, 1, usageChurnedDecay)
	return g
}

// series returns one customer's monthly usage, truncated to whole units
func (g *usageGenerator) series(churned bool) []float64 {
	res := make([]float64, len(g.decay))
	for i := range res {
		v := g.base.Rand()
		if churned {
			v *= g.decay[i]
		}
		res[i] = float64(int64(v))
	}
	return res
}

// summarizeUsage returns the slope of the least squares line through the series,
// its population standard deviation and the mean of its last months
func summarizeUsage(series []float64) (trend, std, recent float64) {
	x := make([]float64, len(series))
	for i := range x {
		x[i] = float64(i)
	}
	_, trend = stat.LinearRegression(x, series, nil, false)
	std = stat.PopStdDev(series, nil)
	recent = stat.Mean(series[len(series)-usageRecentMonths:], nil)
	return trend, std, recent
}
