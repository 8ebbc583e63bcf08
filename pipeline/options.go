package pipeline

import (
	"github.com/churn-project/churn-dataset/fit"
	"github.com/churn-project/churn-dataset/observable"
)

type PipelineOption func(*Pipeline)

// WithFitRecord makes the pipeline replay the fit record instead of fitting the steps
func WithFitRecord(rec *fit.Record) PipelineOption {
	return func(p *Pipeline) {
		p.fitRecord = rec
	}
}

func WithObserver(o observable.Observer) PipelineOption {
	return func(p *Pipeline) {
		_ = p.AddObserver(o)
	}
}

// WithExecutionId sets the execution id of the run, which is otherwise generated
func WithExecutionId(executionId string) PipelineOption {
	return func(p *Pipeline) {
		p.executionId = executionId
	}
}
