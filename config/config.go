package config

import (
	"fmt"
	"slices"

	"github.com/churn-project/churn-dataset/constants"
	"github.com/churn-project/churn-dataset/schema"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/turbot/pipe-fittings/error_helpers"
)

const (
	NanPolicyError    = "error"
	NanPolicySentinel = "sentinel"
)

// Config is the configuration of one pipeline run
type Config struct {
	Source *SourceConfig `hcl:"source,block"`
	Steps  []*StepConfig `hcl:"step,block"`
	Output *OutputConfig `hcl:"output,block"`
}

// NewConfig returns an empty config, to be populated by overrides
func NewConfig() *Config {
	c := &Config{}
	c.ensureBlocks()
	return c
}

func (c *Config) ensureBlocks() {
	if c.Source == nil {
		c.Source = &SourceConfig{}
	}
	if c.Output == nil {
		c.Output = &OutputConfig{}
	}
}

// ApplyOverrides replaces config values with any non-empty values given on the command line
func (c *Config) ApplyOverrides(inputs []string, output, fitOutput string) error {
	c.ensureBlocks()
	if len(inputs) > 0 {
		c.Source.Paths = slices.Clone(inputs)
	}
	if output != "" {
		c.Output.Path = output
	}
	if fitOutput != "" {
		c.Output.FitPath = fitOutput
	}
	return c.expandPaths()
}

// Validate checks the config is complete enough to run
func (c *Config) Validate() error {
	if c.Source == nil {
		return fmt.Errorf("required block: source")
	}
	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("invalid source config: %w", err)
	}
	seen := make(map[string]struct{}, len(c.Steps))
	for _, s := range c.Steps {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, ok := seen[s.Name]; ok {
			return fmt.Errorf("duplicate step name '%s'", s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	if c.Output == nil {
		return fmt.Errorf("required block: output")
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("invalid output config: %w", err)
	}
	return nil
}

// SourceConfig configures the raw data loader
type SourceConfig struct {
	Paths []string `hcl:"paths,optional"`
	// raw text tokens loaded as null; defaults to constants.DefaultMissingValues
	MissingValues []string `hcl:"missing_values,optional"`
	// convert source field names to snake case
	SnakeCaseColumns bool `hcl:"snake_case_columns,optional"`
	// include source fields which are not declared as columns (defaults to true)
	AutoMapSourceFields *bool    `hcl:"automap_source_fields,optional"`
	ExcludeColumns      []string `hcl:"exclude_columns,optional"`
	SchemaPreset        string   `hcl:"schema_preset,optional"`
	// max number of files read concurrently
	Parallelism int `hcl:"parallelism,optional"`
	// csv options
	Delimiter string `hcl:"delimiter,optional"`
	Comment   string `hcl:"comment,optional"`
	// sqlite table name
	Table string `hcl:"table,optional"`
	// xlsx sheet name (defaults to the first sheet)
	Sheet string `hcl:"sheet,optional"`

	Columns []*ColumnConfig `hcl:"column,block"`
}

func (s *SourceConfig) Validate() error {
	if len(s.Paths) == 0 {
		return fmt.Errorf("required field: paths can not be empty")
	}
	if s.Parallelism < 0 {
		return fmt.Errorf("parallelism must be positive")
	}
	if len([]rune(s.Delimiter)) > 1 || len([]rune(s.Comment)) > 1 {
		return fmt.Errorf("delimiter and comment must be a single character")
	}
	seen := make(map[string]struct{}, len(s.Columns))
	for _, c := range s.Columns {
		if err := c.Validate(); err != nil {
			return err
		}
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("duplicate column '%s'", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	if s.SchemaPreset != "" {
		if _, err := schema.GetPreset(s.SchemaPreset); err != nil {
			return err
		}
	}
	return nil
}

// GetMissingValues returns the configured missing value tokens, or the defaults
func (s *SourceConfig) GetMissingValues() []string {
	if s.MissingValues == nil {
		return slices.Clone(constants.DefaultMissingValues)
	}
	return s.MissingValues
}

func (s *SourceConfig) GetAutoMapSourceFields() bool {
	return s.AutoMapSourceFields == nil || *s.AutoMapSourceFields
}

func (s *SourceConfig) GetParallelism() int {
	if s.Parallelism == 0 {
		return constants.DefaultParallelism
	}
	return s.Parallelism
}

func (s *SourceConfig) GetTable() string {
	if s.Table == "" {
		return constants.DefaultSqliteTable
	}
	return s.Table
}

// ColumnConfig declares the expected shape of a source column
type ColumnConfig struct {
	Name string `hcl:"name,label"`
	// name of the field in the source, if it differs from the column name
	Source string `hcl:"source,optional"`
	Type   string `hcl:"type,optional"`
	// if not set, nullability is inferred from the data
	Nullable *bool `hcl:"nullable,optional"`
	Required bool  `hcl:"required,optional"`
}

func (c *ColumnConfig) Validate() error {
	if !schema.IsValidColumnName(c.Name) {
		return fmt.Errorf("invalid column name '%s'", c.Name)
	}
	if c.Type != "" {
		if _, err := schema.NormalizeType(c.Type); err != nil {
			return fmt.Errorf("column '%s': %w", c.Name, err)
		}
	}
	return nil
}

// ToColumnSchema converts the declaration to a column schema. An unset type is left empty, to be inferred.
func (c *ColumnConfig) ToColumnSchema() *schema.ColumnSchema {
	res := &schema.ColumnSchema{
		ColumnName: c.Name,
		Required:   c.Required,
	}
	if c.Source != c.Name {
		res.SourceName = c.Source
	}
	if c.Type != "" {
		// validated already
		res.Type, _ = schema.NormalizeType(c.Type)
	}
	if c.Nullable != nil {
		res.Nullable = *c.Nullable
	}
	return res
}

// StepConfig is a named transform step. Options specific to the step kind are left in Remain
// and decoded by the step factory with DecodeOptions.
type StepConfig struct {
	Name string `hcl:"name,label"`
	Kind string `hcl:"kind"`
	// required to allow partial decoding
	Remain hcl.Body `hcl:",remain" json:"-"`

	evalCtx *hcl.EvalContext
}

func (s *StepConfig) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("step name can not be empty")
	}
	if s.Kind == "" {
		return fmt.Errorf("step '%s': required field: kind", s.Name)
	}
	return nil
}

func (s *StepConfig) Identifier() string {
	return s.Kind
}

// DecodeOptions decodes the kind specific options of the step into target.
// Attributes not defined by target are rejected.
func (s *StepConfig) DecodeOptions(target any) error {
	if s.Remain == nil {
		return nil
	}
	evalCtx := s.evalCtx
	if evalCtx == nil {
		evalCtx = newEvalContext()
	}
	diags := gohcl.DecodeBody(s.Remain, evalCtx, target)
	if diags.HasErrors() {
		return error_helpers.HclDiagsToError(fmt.Sprintf("failed to decode options for step '%s'", s.Name), diags)
	}
	return nil
}

// OutputConfig configures the dataset writer
type OutputConfig struct {
	Path string `hcl:"path,optional"`
	// optional path the fit record is written to
	FitPath string `hcl:"fit_path,optional"`
	// how NaN and infinite values are written: "error" or "sentinel"
	NanPolicy string `hcl:"nan_policy,optional"`
	// text written for NaN values in text formats when nan_policy is "sentinel"
	Sentinel string `hcl:"sentinel,optional"`
	// sqlite table name
	Table string `hcl:"table,optional"`
}

func (o *OutputConfig) Validate() error {
	if o.Path == "" {
		return fmt.Errorf("required field: path")
	}
	switch o.NanPolicy {
	case "", NanPolicyError, NanPolicySentinel:
	default:
		return fmt.Errorf("nan_policy must be '%s' or '%s', got '%s'", NanPolicyError, NanPolicySentinel, o.NanPolicy)
	}
	return nil
}

func (o *OutputConfig) GetNanPolicy() string {
	if o.NanPolicy == "" {
		return NanPolicyError
	}
	return o.NanPolicy
}

func (o *OutputConfig) GetSentinel() string {
	if o.Sentinel == "" {
		return constants.DefaultNanSentinel
	}
	return o.Sentinel
}

func (o *OutputConfig) GetTable() string {
	if o.Table == "" {
		return constants.DefaultSqliteTable
	}
	return o.Table
}
