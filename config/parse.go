package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/churn-project/churn-dataset/filepaths"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	hcljson "github.com/hashicorp/hcl/v2/json"
	"github.com/turbot/go-kit/helpers"
	"github.com/turbot/pipe-fittings/error_helpers"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Load reads and decodes the config file at path.
// Files with a .json extension are parsed as HCL JSON, everything else as native HCL syntax.
func Load(path string) (*Config, error) {
	path, err := filepaths.Expand(path)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(src, path)
}

// Parse decodes config source. The filename is used for diagnostics and to select the syntax.
func Parse(src []byte, filename string) (*Config, error) {
	var file *hcl.File
	var diags hcl.Diagnostics
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		file, diags = hcljson.Parse(src, filename)
	} else {
		file, diags = hclsyntax.ParseConfig(src, filename, hcl.Pos{Line: 1, Column: 1, Byte: 0})
	}
	if diags.HasErrors() {
		slog.Error("failed to parse config", "filename", filename, "diags", diags)
		return nil, error_helpers.HclDiagsToError("failed to parse config", diags)
	}

	evalCtx := newEvalContext()
	target := &Config{}
	diags = decodeBody(file.Body, evalCtx, target)
	if diags.HasErrors() {
		return nil, error_helpers.HclDiagsToError("failed to decode config", diags)
	}

	for _, s := range target.Steps {
		s.evalCtx = evalCtx
	}
	target.ensureBlocks()
	if err := target.expandPaths(); err != nil {
		return nil, err
	}
	return target, nil
}

// decodeBody decodes the body into the target, converting any panic into a diagnostic
func decodeBody(body hcl.Body, evalCtx *hcl.EvalContext, target any) (diags hcl.Diagnostics) {
	defer func() {
		if r := recover(); r != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "unexpected error decoding config",
				Detail:   helpers.ToError(r).Error()})
		}
	}()
	return gohcl.DecodeBody(body, evalCtx, target)
}

// newEvalContext returns the eval context used for config expressions:
// the process environment as `env` and the functions upper, lower and format
func newEvalContext() *hcl.EvalContext {
	env := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = cty.StringVal(v)
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(env),
		},
		Functions: map[string]function.Function{
			"upper":  stdlib.UpperFunc,
			"lower":  stdlib.LowerFunc,
			"format": stdlib.FormatFunc,
		},
	}
}

func (c *Config) expandPaths() error {
	var err error
	if c.Source != nil {
		for i, p := range c.Source.Paths {
			if c.Source.Paths[i], err = filepaths.Expand(p); err != nil {
				return err
			}
		}
	}
	if c.Output != nil {
		if c.Output.Path != "" {
			if c.Output.Path, err = filepaths.Expand(c.Output.Path); err != nil {
				return err
			}
		}
		if c.Output.FitPath != "" {
			if c.Output.FitPath, err = filepaths.Expand(c.Output.FitPath); err != nil {
				return err
			}
		}
	}
	return nil
}
