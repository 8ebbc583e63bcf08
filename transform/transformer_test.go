package transform

import (
	"context"
	"testing"

	"github.com/churn-project/churn-dataset/config"
	"github.com/churn-project/churn-dataset/error_types"
	"github.com/churn-project/churn-dataset/fit"
	"github.com/churn-project/churn-dataset/schema"
	"github.com/churn-project/churn-dataset/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func churnTable() *table.Table {
	s := schema.NewRowSchema(
		col("age", schema.TypeBigint, true),
		col("income", schema.TypeVarchar, false),
		col("plan", schema.TypeVarchar, false),
	)
	return table.New(s,
		table.Row{int64(25), "50000", "basic"},
		table.Row{nil, "60000", "pro"},
		table.Row{int64(35), "70000", "basic"},
	)
}

func churnSteps() []Step {
	return []Step{
		mustStep(NewImputeStep("impute_age", &ImputeOptions{Column: "age", Strategy: StrategyMean})),
		mustStep(NewCoerceStep("income_int", &CoerceOptions{Column: "income", To: "int"})),
		mustStep(NewEncodeStep("encode_plan", &EncodeOptions{Column: "plan"})),
		mustStep(NewDeriveStep("income_per_age", &DeriveOptions{Column: "income_per_age", Function: DeriveRatio, Inputs: []string{"income", "age"}})),
		mustStep(NewScaleStep("scale_age", &ScaleOptions{Column: "age", Method: ScaleMinMax})),
		mustStep(NewMapStep("plan_name", &MapOptions{Column: "plan", Values: map[string]string{"0": "basic"}})),
		mustStep(NewDropStep("drop_plan", &DropOptions{Columns: []string{"plan"}})),
	}
}

func TestTransformer_Fit(t *testing.T) {
	input := churnTable()
	tr := New(churnSteps()...)

	got, rec, err := tr.Fit(context.Background(), input)
	require.NoError(t, err)
	require.NoError(t, got.Validate())

	assert.Equal(t, []string{"age", "income", "income_per_age"}, got.Schema.Names())
	assert.Equal(t, []table.Row{
		{0.0, int64(50000), 2000.0},
		{0.5, int64(60000), 2000.0},
		{1.0, int64(70000), 2000.0},
	}, got.Rows)
	assert.Equal(t, 7, rec.Len())

	values := rec.Values()
	assert.Equal(t, 30.0, values["age_mean"])
	assert.Equal(t, map[string]int64{"basic": 0, "pro": 1}, values["plan_codes"])

	// input untouched
	assert.Equal(t, churnTable(), input)

	// deterministic
	again, rec2, err := New(churnSteps()...).Fit(context.Background(), churnTable())
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.Equal(t, rec.Steps(), rec2.Steps())
}

func TestTransformer_Apply(t *testing.T) {
	tr := New(churnSteps()...)
	_, rec, err := tr.Fit(context.Background(), churnTable())
	require.NoError(t, err)

	replay := table.New(churnTable().Schema, table.Row{nil, "40000", "pro"})
	got, err := tr.Apply(context.Background(), replay, rec)
	require.NoError(t, err)
	assert.Equal(t, []table.Row{{0.5, int64(40000), 40000.0 / 30.0}}, got.Rows)

	// record from different steps
	other := New(churnSteps()[:2]...)
	_, err = other.Apply(context.Background(), replay, rec)
	assert.IsType(t, &error_types.InvalidStepConfigError{}, err)

	renamed := fit.NewRecord(append([]fit.Params{{Step: "other", Kind: KindImpute}}, rec.Steps()[1:]...)...)
	_, err = tr.Apply(context.Background(), replay, renamed)
	assert.IsType(t, &error_types.InvalidStepConfigError{}, err)
}

func TestTransformer_ZeroRows(t *testing.T) {
	empty := table.New(churnTable().Schema)
	tr := New(churnSteps()...)

	got, rec, err := tr.Fit(context.Background(), empty)
	require.NoError(t, err)
	assert.Equal(t, 0, got.NumRows())
	assert.Equal(t, []string{"age", "income", "income_per_age"}, got.Schema.Names())
	assert.Equal(t, schema.TypeDouble, got.Schema.Columns[0].Type)
	assert.Equal(t, schema.TypeBigint, got.Schema.Columns[1].Type)
	assert.Empty(t, rec.Values())

	// replaying what was learned from nothing on real data fails
	_, err = tr.Apply(context.Background(), churnTable(), rec)
	assert.IsType(t, &error_types.InsufficientDataError{}, err)

	// but replaying on empty data is fine
	got, err = tr.Apply(context.Background(), empty, rec)
	require.NoError(t, err)
	assert.Equal(t, 0, got.NumRows())
}

func TestTransformer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := New(churnSteps()...).Fit(ctx, churnTable())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewFromConfig(t *testing.T) {
	src := `
step "impute_age" {
  kind     = "impute"
  column   = "age"
  strategy = "mean"
}
step "income_int" {
  kind   = "coerce"
  column = "income"
  to     = "int"
}
`
	cfg, err := config.Parse([]byte(src), "churn.hcl")
	require.NoError(t, err)
	tr, err := NewFromConfig(cfg.Steps)
	require.NoError(t, err)
	require.Len(t, tr.Steps(), 2)
	assert.Equal(t, "income_int", tr.Steps()[1].Name())
	assert.Equal(t, KindCoerce, tr.Steps()[1].Kind())

	// the worked example: age mean then income to int
	input := table.New(schema.NewRowSchema(col("age", schema.TypeBigint, true), col("income", schema.TypeVarchar, false)),
		table.Row{int64(25), "50000"},
		table.Row{nil, "60000"},
	)
	got, rec, err := tr.Fit(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, []table.Row{{25.0, int64(50000)}, {25.0, int64(60000)}}, got.Rows)
	assert.Equal(t, map[string]any{"age_mean": 25.0}, rec.Values())

	tests := []struct {
		name string
		src  string
	}{
		{name: "unknown kind", src: `step "x" { kind = "pivot" }`},
		{name: "option foreign to kind", src: `step "x" {
  kind     = "coerce"
  column   = "income"
  to       = "int"
  strategy = "mean"
}`},
		{name: "missing required option", src: `step "x" {
  kind = "impute"
  column = "age"
}`},
		{name: "invalid option value", src: `step "x" {
  kind     = "impute"
  column   = "age"
  strategy = "average"
}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Parse([]byte(tt.src), "churn.hcl")
			require.NoError(t, err)
			_, err = NewFromConfig(cfg.Steps)
			assert.IsType(t, &error_types.InvalidStepConfigError{}, err)
		})
	}
}

func TestNewOptions(t *testing.T) {
	impute := newOptions[*ImputeOptions]()
	require.NotNil(t, impute)
	assert.Equal(t, &ImputeOptions{}, impute)

	// each call allocates a new struct
	assert.NotSame(t, newOptions[*DropOptions](), newOptions[*DropOptions]())
}
