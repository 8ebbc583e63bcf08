package pipeline

import "github.com/churn-project/churn-dataset/error_types"

type State string

const (
	StateIdle         State = "idle"
	StateLoading      State = "loading"
	StateTransforming State = "transforming"
	StateWriting      State = "writing"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// IsTerminal returns whether no further transition is possible from the state
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// stage returns the error stage name of a running state
func (s State) stage() string {
	switch s {
	case StateLoading:
		return error_types.StageLoad
	case StateTransforming:
		return error_types.StageTransform
	case StateWriting:
		return error_types.StageWrite
	}
	return ""
}
