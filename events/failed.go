package events

// Failed is raised once when a run fails, with the stage it failed in
type Failed struct {
	Base
	ExecutionId string
	Stage       string
	Err         error
}

func NewFailedEvent(executionId, stage string, err error) *Failed {
	return &Failed{
		ExecutionId: executionId,
		Stage:       stage,
		Err:         err,
	}
}
