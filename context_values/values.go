package context_values

import (
	"context"
	"fmt"

	"github.com/turbot/pipe-fittings/contexthelpers"
)

var (
	contextKeyExecutionId = contexthelpers.ContextKey("execution_id")
	contextKeyStage       = contexthelpers.ContextKey("stage")
)

// WithExecutionId adds the execution id to the context
func WithExecutionId(ctx context.Context, executionId string) context.Context {
	return context.WithValue(ctx, contextKeyExecutionId, executionId)
}

// WithStage adds the name of the running pipeline stage to the context
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, contextKeyStage, stage)
}

// ExecutionIdFromContext returns the execution id from the context
func ExecutionIdFromContext(ctx context.Context) (string, error) {
	if ctx == nil {
		return "", fmt.Errorf("context is nil")
	}
	val, ok := ctx.Value(contextKeyExecutionId).(string)
	if !ok {
		return "", fmt.Errorf("no execution id in context")
	}
	return val, nil
}

// StageFromContext returns the running stage, if any
func StageFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	val, ok := ctx.Value(contextKeyStage).(string)
	return val, ok
}

// LogArgs returns slog key/value pairs for the values held in the context
func LogArgs(ctx context.Context) []any {
	var res []any
	if id, err := ExecutionIdFromContext(ctx); err == nil {
		res = append(res, "execution_id", id)
	}
	if stage, ok := StageFromContext(ctx); ok {
		res = append(res, "stage", stage)
	}
	return res
}
