package events

import "github.com/churn-project/churn-dataset/types"

// StageStarted is raised when the pipeline enters a stage
type StageStarted struct {
	Base
	ExecutionId string
	Stage       string
}

func NewStageStartedEvent(executionId, stage string) *StageStarted {
	return &StageStarted{
		ExecutionId: executionId,
		Stage:       stage,
	}
}

// StageCompleted is raised when a stage succeeds, with the shape of the table it produced
type StageCompleted struct {
	Base
	ExecutionId string
	Stage       string
	RowCount    int
	ColumnCount int
	Timing      types.Timing
}

func NewStageCompletedEvent(executionId, stage string, rowCount, columnCount int, timing types.Timing) *StageCompleted {
	return &StageCompleted{
		ExecutionId: executionId,
		Stage:       stage,
		RowCount:    rowCount,
		ColumnCount: columnCount,
		Timing:      timing,
	}
}
