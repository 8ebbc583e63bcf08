package pipeline

import (
	"context"

	"github.com/churn-project/churn-dataset/fit"
	"github.com/churn-project/churn-dataset/table"
)

// Loader reads the raw input files into a single table
type Loader interface {
	Load(ctx context.Context) (*table.Table, error)
}

// Transformer runs the configured steps, either fitting them or replaying a fit record
type Transformer interface {
	Fit(ctx context.Context, t *table.Table) (*table.Table, *fit.Record, error)
	Apply(ctx context.Context, t *table.Table, rec *fit.Record) (*table.Table, error)
}

// Writer persists the processed table and the fit record
type Writer interface {
	Write(ctx context.Context, t *table.Table) error
	WriteFitRecord(ctx context.Context, rec *fit.Record) error
}
