package transform

import (
	"context"
	"errors"
	"testing"

	"github.com/churn-project/churn-dataset/error_types"
	"github.com/churn-project/churn-dataset/schema"
	"github.com/churn-project/churn-dataset/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImputeStep_Fit(t *testing.T) {
	tests := []struct {
		name      string
		opts      ImputeOptions
		input     *table.Table
		want      []any
		wantType  string
		wantValue any
	}{
		{
			name:      "mean",
			opts:      ImputeOptions{Column: "x", Strategy: StrategyMean},
			input:     singleColumn("x", schema.TypeBigint, int64(1), int64(2), nil, int64(4)),
			want:      []any{1.0, 2.0, 7.0 / 3.0, 4.0},
			wantType:  schema.TypeDouble,
			wantValue: 7.0 / 3.0,
		},
		{
			name:      "mean with precision",
			opts:      ImputeOptions{Column: "x", Strategy: StrategyMean, Precision: intPtr(2)},
			input:     singleColumn("x", schema.TypeDouble, 1.0, 2.0, nil, 4.0),
			want:      []any{1.0, 2.0, 2.33, 4.0},
			wantType:  schema.TypeDouble,
			wantValue: 2.33,
		},
		{
			name:      "median of even count averages the middle values",
			opts:      ImputeOptions{Column: "x", Strategy: StrategyMedian},
			input:     singleColumn("x", schema.TypeBigint, int64(10), nil, int64(1), int64(4), int64(3)),
			want:      []any{10.0, 3.5, 1.0, 4.0, 3.0},
			wantType:  schema.TypeDouble,
			wantValue: 3.5,
		},
		{
			name:      "median of odd count",
			opts:      ImputeOptions{Column: "x", Strategy: StrategyMedian},
			input:     singleColumn("x", schema.TypeDouble, 5.0, 1.0, nil, 3.0),
			want:      []any{5.0, 1.0, 3.0, 3.0},
			wantType:  schema.TypeDouble,
			wantValue: 3.0,
		},
		{
			name:      "mode ties break by first occurrence",
			opts:      ImputeOptions{Column: "plan", Strategy: StrategyMode},
			input:     singleColumn("plan", schema.TypeVarchar, "b", nil, "a", "a", "b"),
			want:      []any{"b", "b", "a", "a", "b"},
			wantType:  schema.TypeVarchar,
			wantValue: "b",
		},
		{
			name:      "mode keeps bigint type",
			opts:      ImputeOptions{Column: "x", Strategy: StrategyMode},
			input:     singleColumn("x", schema.TypeBigint, int64(1), int64(2), int64(2), nil),
			want:      []any{int64(1), int64(2), int64(2), int64(2)},
			wantType:  schema.TypeBigint,
			wantValue: int64(2),
		},
		{
			name:     "constant",
			opts:     ImputeOptions{Column: "plan", Strategy: StrategyConstant, Value: strPtr("unknown")},
			input:    singleColumn("plan", schema.TypeVarchar, "a", nil),
			want:     []any{"a", "unknown"},
			wantType: schema.TypeVarchar,
		},
		{
			name:     "drop",
			opts:     ImputeOptions{Column: "x", Strategy: StrategyDrop},
			input:    singleColumn("x", schema.TypeBigint, int64(1), nil, int64(3)),
			want:     []any{int64(1), int64(3)},
			wantType: schema.TypeBigint,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := mustStep(NewImputeStep("impute", &tt.opts))
			got, p, err := step.Fit(context.Background(), tt.input)
			require.NoError(t, err)
			require.NoError(t, got.Validate())

			assert.Equal(t, tt.want, got.ColumnValues(0))
			assert.Equal(t, tt.wantType, got.Schema.Columns[0].Type)
			assert.False(t, got.Schema.Columns[0].Nullable)
			if tt.wantValue != nil {
				v, err := p.StatisticValue()
				require.NoError(t, err)
				assert.Equal(t, tt.wantValue, v)
			}
			// input is untouched
			assert.True(t, tt.input.Schema.Columns[0].Nullable)
			assert.Contains(t, tt.input.ColumnValues(0), nil)
		})
	}
}

func TestImputeStep_Errors(t *testing.T) {
	tests := []struct {
		name    string
		opts    ImputeOptions
		input   *table.Table
		wantErr error
	}{
		{
			name:    "all null under mean",
			opts:    ImputeOptions{Column: "x", Strategy: StrategyMean},
			input:   singleColumn("x", schema.TypeDouble, nil, nil),
			wantErr: &error_types.InsufficientDataError{},
		},
		{
			name:    "all null under mode",
			opts:    ImputeOptions{Column: "x", Strategy: StrategyMode},
			input:   singleColumn("x", schema.TypeVarchar, nil),
			wantErr: &error_types.InsufficientDataError{},
		},
		{
			name:    "mean of text column",
			opts:    ImputeOptions{Column: "x", Strategy: StrategyMean},
			input:   singleColumn("x", schema.TypeVarchar, "a", nil),
			wantErr: &error_types.InvalidStepConfigError{},
		},
		{
			name:    "constant not parseable as column type",
			opts:    ImputeOptions{Column: "x", Strategy: StrategyConstant, Value: strPtr("abc")},
			input:   singleColumn("x", schema.TypeBigint, int64(1), nil),
			wantErr: &error_types.InvalidStepConfigError{},
		},
		{
			name:    "unknown column",
			opts:    ImputeOptions{Column: "age", Strategy: StrategyMean},
			input:   singleColumn("x", schema.TypeBigint, int64(1)),
			wantErr: &error_types.UnknownColumnError{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := mustStep(NewImputeStep("impute", &tt.opts))
			_, _, err := step.Fit(context.Background(), tt.input)
			require.Error(t, err)
			assert.IsType(t, tt.wantErr, err)
		})
	}
}

func TestImputeOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    ImputeOptions
		wantErr bool
	}{
		{name: "valid mean", opts: ImputeOptions{Column: "x", Strategy: StrategyMean}},
		{name: "unknown strategy", opts: ImputeOptions{Column: "x", Strategy: "average"}, wantErr: true},
		{name: "constant without value", opts: ImputeOptions{Column: "x", Strategy: StrategyConstant}, wantErr: true},
		{name: "value with mean", opts: ImputeOptions{Column: "x", Strategy: StrategyMean, Value: strPtr("1")}, wantErr: true},
		{name: "precision with mode", opts: ImputeOptions{Column: "x", Strategy: StrategyMode, Precision: intPtr(1)}, wantErr: true},
		{name: "negative precision", opts: ImputeOptions{Column: "x", Strategy: StrategyMean, Precision: intPtr(-1)}, wantErr: true},
		{name: "no column", opts: ImputeOptions{Strategy: StrategyMean}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestImputeStep_Apply(t *testing.T) {
	step := mustStep(NewImputeStep("impute_age", &ImputeOptions{Column: "age", Strategy: StrategyMean}))
	_, p, err := step.Fit(context.Background(), singleColumn("age", schema.TypeBigint, int64(20), int64(30)))
	require.NoError(t, err)

	got, err := step.Apply(context.Background(), singleColumn("age", schema.TypeBigint, nil, int64(40)), p)
	require.NoError(t, err)
	assert.Equal(t, []any{25.0, 40.0}, got.ColumnValues(0))

	// fitted on zero rows, replayed on data
	_, empty, err := step.Fit(context.Background(), singleColumn("age", schema.TypeBigint))
	require.NoError(t, err)
	assert.False(t, empty.Learned)
	_, err = step.Apply(context.Background(), singleColumn("age", schema.TypeBigint, nil), empty)
	var insufficient *error_types.InsufficientDataError
	assert.True(t, errors.As(err, &insufficient))
}
