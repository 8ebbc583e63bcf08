package events

import (
	"github.com/churn-project/churn-dataset/types"
)

type Completed struct {
	Base
	ExecutionId string
	RowCount    int
	ColumnCount int
	Timing      types.TimingMap
}

func NewCompletedEvent(executionId string, rowCount, columnCount int, timing types.TimingMap) *Completed {
	return &Completed{
		ExecutionId: executionId,
		RowCount:    rowCount,
		ColumnCount: columnCount,
		Timing:      timing,
	}
}
