// internal/common/errors/handler.go
package errors

// ErrorHandler turns any pipeline failure into the single StandardError that
// is reported for the run.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleRunError normalizes err, logs it once and returns the error to emit.
// Recovered discovery codes are never surfaced; if one leaks out of a stage
// it is reported as an internal error.
func (h *ErrorHandler) HandleRunError(stage string, err error) *StandardError {
	stdErr := Normalize(err)
	if stdErr == nil {
		return nil
	}
	if !IsSurfaced(stdErr.Code) {
		stdErr = NewInternalError(stdErr)
	}

	h.logger.Error("run failed", map[string]interface{}{
		"stage":         stage,
		"errorCode":     string(stdErr.Code),
		"errorCategory": GetErrorCategory(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"field":         stdErr.Field,
	})
	return stdErr
}
