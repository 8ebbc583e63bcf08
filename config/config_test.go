package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/churn-project/churn-dataset/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHcl = `
source {
  paths          = ["data/raw/telco.csv"]
  missing_values = ["", "NA"]
  column "age" {
    type     = "int"
    nullable = true
    required = true
  }
}

step "impute_age" {
  kind     = "impute"
  column   = "age"
  strategy = "mean"
}

step "income_int" {
  kind   = "coerce"
  column = upper("income")
  to     = "int"
}

output {
  path       = "data/interim/churn.parquet"
  fit_path   = "data/interim/churn.fit.json"
  nan_policy = "sentinel"
}
`

type imputeOptions struct {
	Column   string  `hcl:"column"`
	Strategy string  `hcl:"strategy"`
	Value    *string `hcl:"value,optional"`
}

type coerceOptions struct {
	Column string `hcl:"column"`
	To     string `hcl:"to"`
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(testHcl), "churn.hcl")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{filepath.Clean("data/raw/telco.csv")}, cfg.Source.Paths)
	assert.Equal(t, []string{"", "NA"}, cfg.Source.GetMissingValues())
	assert.True(t, cfg.Source.GetAutoMapSourceFields())
	assert.Equal(t, constants.DefaultParallelism, cfg.Source.GetParallelism())
	require.Len(t, cfg.Source.Columns, 1)

	col := cfg.Source.Columns[0].ToColumnSchema()
	assert.Equal(t, "age", col.ColumnName)
	assert.Equal(t, "BIGINT", col.Type)
	assert.True(t, col.Nullable)
	assert.True(t, col.Required)

	require.Len(t, cfg.Steps, 2)
	assert.Equal(t, "impute_age", cfg.Steps[0].Name)
	assert.Equal(t, "impute", cfg.Steps[0].Kind)

	var impute imputeOptions
	require.NoError(t, cfg.Steps[0].DecodeOptions(&impute))
	assert.Equal(t, imputeOptions{Column: "age", Strategy: "mean"}, impute)

	var coerce coerceOptions
	require.NoError(t, cfg.Steps[1].DecodeOptions(&coerce))
	assert.Equal(t, coerceOptions{Column: "INCOME", To: "int"}, coerce)

	assert.Equal(t, NanPolicySentinel, cfg.Output.GetNanPolicy())
	assert.Equal(t, constants.DefaultNanSentinel, cfg.Output.GetSentinel())
}

func TestParse_JSON(t *testing.T) {
	src := `{
  "source": {"paths": ["a.csv"]},
  "step": {"enc": {"kind": "coerce", "column": "plan", "to": "string"}},
  "output": {"path": "out.csv"}
}`
	cfg, err := Parse([]byte(src), "churn.json")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Len(t, cfg.Steps, 1)

	var coerce coerceOptions
	require.NoError(t, cfg.Steps[0].DecodeOptions(&coerce))
	assert.Equal(t, "plan", coerce.Column)
	assert.Equal(t, NanPolicyError, cfg.Output.GetNanPolicy())
}

func TestParse_EnvVariable(t *testing.T) {
	t.Setenv("CHURN_TEST_DATA_DIR", "/data")
	src := `
source {
  paths = [format("%s/raw.csv", env.CHURN_TEST_DATA_DIR)]
}
output {
  path = "out.csv"
}
`
	cfg, err := Parse([]byte(src), "churn.hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/raw.csv"}, cfg.Source.Paths)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "syntax error", src: `source {`},
		{name: "unknown top level attribute", src: `foo = "bar"`},
		{name: "unknown source attribute", src: `source { colour = "red" }`},
		{name: "step without label", src: `step { kind = "drop" }`},
		{name: "unknown function", src: `source { paths = [nope("x")] }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "churn.hcl")
			assert.Error(t, err)
		})
	}
}

func TestStepConfig_DecodeOptions_RejectsForeignOptions(t *testing.T) {
	src := `
step "income_int" {
  kind     = "coerce"
  column   = "income"
  to       = "int"
  strategy = "mean"
}
`
	cfg, err := Parse([]byte(src), "churn.hcl")
	require.NoError(t, err)

	var coerce coerceOptions
	assert.Error(t, cfg.Steps[0].DecodeOptions(&coerce))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{
			name: "valid",
			cfg: &Config{
				Source: &SourceConfig{Paths: []string{"a.csv"}},
				Output: &OutputConfig{Path: "out.csv"},
			},
		},
		{
			name:    "no paths",
			cfg:     NewConfig(),
			wantErr: true,
		},
		{
			name: "bad column type",
			cfg: &Config{
				Source: &SourceConfig{Paths: []string{"a.csv"}, Columns: []*ColumnConfig{{Name: "age", Type: "date"}}},
				Output: &OutputConfig{Path: "out.csv"},
			},
			wantErr: true,
		},
		{
			name: "duplicate step names",
			cfg: &Config{
				Source: &SourceConfig{Paths: []string{"a.csv"}},
				Steps:  []*StepConfig{{Name: "a", Kind: "drop"}, {Name: "a", Kind: "drop"}},
				Output: &OutputConfig{Path: "out.csv"},
			},
			wantErr: true,
		},
		{
			name: "bad nan policy",
			cfg: &Config{
				Source: &SourceConfig{Paths: []string{"a.csv"}},
				Output: &OutputConfig{Path: "out.csv", NanPolicy: "ignore"},
			},
			wantErr: true,
		},
		{
			name: "unknown preset",
			cfg: &Config{
				Source: &SourceConfig{Paths: []string{"a.csv"}, SchemaPreset: "no_such_preset"},
				Output: &OutputConfig{Path: "out.csv"},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoad_WithOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "churn.hcl")
	require.NoError(t, os.WriteFile(path, []byte(testHcl), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, cfg.ApplyOverrides([]string{"other.csv"}, "out.jsonl", ""))
	assert.Equal(t, []string{"other.csv"}, cfg.Source.Paths)
	assert.Equal(t, "out.jsonl", cfg.Output.Path)
	assert.Equal(t, filepath.Clean("data/interim/churn.fit.json"), cfg.Output.FitPath)

	_, err = Load(filepath.Join(dir, "missing.hcl"))
	assert.Error(t, err)
}
