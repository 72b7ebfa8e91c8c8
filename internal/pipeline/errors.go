package pipeline

import (
	"net/http"

	"github.com/forgecrew/promptengine/internal/pkg/errorx"
)

// Pipeline-specific error codes, registered against the shared errorx
// coder registry. Ranges mirror spec.md §7's five error kinds.
const (
	ErrCodeMissingCommand      = 100100 // ParsingFailure
	ErrCodeMalformedOperator   = 100101 // ParsingFailure
	ErrCodeResourceNotFound    = 100200 // ResourceNotFound
	ErrCodeArgumentValidation  = 100300 // ArgumentValidationFailure
	ErrCodeGateFailure         = 100400 // GateFailure (non-terminal)
	ErrCodeInternal            = 100500 // Internal
	ErrCodeCancelled           = 100501 // Internal: request deadline/cancellation
)

// ResponseFromError converts a stage-returned error into the terminal
// Response envelope spec.md §7 mandates for every error kind, including
// Internal/Cancelled, so a raw Go error never needs to escape the engine
// façade into a transport's own error-body path.
func ResponseFromError(err error) *Response {
	resp := &Response{
		IsError: true,
		Content: []ResponseContent{{Type: "text", Text: err.Error()}},
	}
	if code := errorx.Code(err); code != 0 {
		resp.Metadata = map[string]interface{}{"errorCode": code}
	}
	return resp
}

func init() {
	errorx.MustRegister(errorx.NewCoder(ErrCodeMissingCommand, http.StatusBadRequest, "command is required"))
	errorx.MustRegister(errorx.NewCoder(ErrCodeMalformedOperator, http.StatusBadRequest, "malformed command operator"))
	errorx.MustRegister(errorx.NewCoder(ErrCodeResourceNotFound, http.StatusNotFound, "resource not found"))
	errorx.MustRegister(errorx.NewCoder(ErrCodeArgumentValidation, http.StatusUnprocessableEntity, "argument validation failed"))
	errorx.MustRegister(errorx.NewCoder(ErrCodeGateFailure, http.StatusOK, "gate validation failed, retry requested"))
	errorx.MustRegister(errorx.NewCoder(ErrCodeInternal, http.StatusInternalServerError, "internal pipeline error"))
	errorx.MustRegister(errorx.NewCoder(ErrCodeCancelled, http.StatusGatewayTimeout, "request cancelled"))
}
