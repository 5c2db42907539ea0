package workflow

// EngineError is a workflow-engine sentinel error.
type EngineError struct {
	Code    string
	Message string
}

func (e *EngineError) Error() string { return e.Message }
