package enrichment

import (
	"context"
	"log/slog"

	"github.com/churn-project/churn-dataset/constants"
	"github.com/churn-project/churn-dataset/context_values"
	"github.com/churn-project/churn-dataset/fit"
	"github.com/churn-project/churn-dataset/schema"
	"github.com/churn-project/churn-dataset/table"
	"github.com/churn-project/churn-dataset/transform"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

type InteractionsOptions struct {
	// 0/1 or boolean churn label, defaults to "Churn"
	LabelColumn string `hcl:"label_column,optional"`
	Seed        *int64 `hcl:"seed,optional"`
}

func (o *InteractionsOptions) Validate() error {
	return nil
}

func (o *InteractionsOptions) label() string {
	if o.LabelColumn == "" {
		return constants.ChurnDefaultLabel
	}
	return o.LabelColumn
}

func (o *InteractionsOptions) seed() int64 {
	if o.Seed == nil {
		return constants.DefaultSeed
	}
	return *o.Seed
}

// InteractionsStep adds synthetic customer interaction counts, drawn from seeded distributions
// which differ for churned and retained customers
type InteractionsStep struct {
	transform.StepBase
	label string
	seed  int64
}

func NewInteractionsStep(name string, opts *InteractionsOptions) (transform.Step, error) {
	return &InteractionsStep{
		StepBase: transform.NewStepBase(name, KindChurnInteractions),
		label:    opts.label(),
		seed:     opts.seed(),
	}, nil
}

func (s *InteractionsStep) Fit(ctx context.Context, t *table.Table) (*table.Table, fit.Params, error) {
	res, err := s.Apply(ctx, t, fit.Params{})
	if err != nil {
		return nil, fit.Params{}, err
	}
	p := s.Params(t)
	p.Column = s.label
	return res, p, nil
}

func (s *InteractionsStep) Apply(ctx context.Context, t *table.Table, _ fit.Params) (*table.Table, error) {
	churned, err := churnLabels(s.StepBase, t, s.label)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(uint64(s.seed)))
	loginsChurned := distuv.Poisson{Lambda: loginsLambdaChurned, Src: rng}
	loginsRetained := distuv.Poisson{Lambda: loginsLambdaRetained, Src: rng}
	ticketsChurned := distuv.Poisson{Lambda: ticketsLambdaChurned, Src: rng}
	ticketsRetained := distuv.Poisson{Lambda: ticketsLambdaRetained, Src: rng}

	cols := []*schema.ColumnSchema{
		{ColumnName: constants.ChurnNumLogins, Type: schema.TypeBigint},
		{ColumnName: constants.ChurnSupportTickets, Type: schema.TypeBigint},
		{ColumnName: constants.ChurnLastInteraction, Type: schema.TypeBigint},
	}
	res, err := addColumns(s.StepBase, t, cols, func(row int) []any {
		logins, tickets := loginsRetained, ticketsRetained
		low, high := lastInteractionRetained, lastInteractionChurned
		if churned[row] {
			logins, tickets = loginsChurned, ticketsChurned
			low, high = lastInteractionChurned, lastInteractionMax
		}
		return []any{
			int64(logins.Rand()),
			int64(tickets.Rand()),
			int64(low + rng.Intn(high-low)),
		}
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("generated interaction features", append(context_values.LogArgs(ctx), "step", s.Name(), "seed", s.seed, "rows", res.NumRows())...)
	return res, nil
}
