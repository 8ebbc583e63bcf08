package pipeline

import (
	"fmt"

	"github.com/churn-project/churn-dataset/config"
	"github.com/churn-project/churn-dataset/loader"
	"github.com/churn-project/churn-dataset/transform"
	"github.com/churn-project/churn-dataset/writer"
)

// NewFromConfig builds a pipeline with the loader, transformer and writer described by the config
func NewFromConfig(cfg *config.Config, opts ...PipelineOption) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l, err := loader.New(cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to create loader: %w", err)
	}
	t, err := transform.NewFromConfig(cfg.Steps)
	if err != nil {
		return nil, err
	}
	w, err := writer.New(cfg.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to create writer: %w", err)
	}
	return New(l, t, w, opts...)
}
