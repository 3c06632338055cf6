package resp

import (
	"encoding/json"
	"net/http"

	"github.com/ncobase/weibo-agent/ecode"
)

// Exception represents the response structure.
type Exception struct {
	Status  int    `json:"status,omitempty"`  // HTTP status
	Code    int    `json:"code,omitempty"`    // Business code
	Message string `json:"message,omitempty"` // Message
	Errors  any    `json:"errors,omitempty"`  // Validation errors
	Data    any    `json:"data,omitempty"`    // Response data
}

// Error implements error so an Exception can travel through error returns.
func (e *Exception) Error() string {
	return e.Message
}

// newException builds a failure with a code and an optional message override.
func newException(status, code int, message ...string) *Exception {
	msg := ecode.Text(code)
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	return &Exception{Status: status, Code: code, Message: msg}
}

// BadRequest is a 400 with a parameter error code.
func BadRequest(message string, errors ...any) *Exception {
	e := newException(http.StatusBadRequest, ecode.ParamErr, message)
	if len(errors) > 0 {
		e.Errors = errors[0]
	}
	return e
}

// NotFound is a 404.
func NotFound(message ...string) *Exception {
	return newException(http.StatusNotFound, ecode.NotFound, message...)
}

// InternalServer is a 500.
func InternalServer(message ...string) *Exception {
	return newException(http.StatusInternalServerError, ecode.ServerErr, message...)
}

// WithCode builds an exception whose status is derived from the business code.
func WithCode(code int, message ...string) *Exception {
	return newException(ecode.ToHTTPStatus(code), code, message...)
}

// Success handles success responses.
func Success(w http.ResponseWriter, data ...any) {
	WithStatusCode(w, http.StatusOK, data...)
}

// WithStatusCode handles success responses with custom status code.
func WithStatusCode(w http.ResponseWriter, statusCode int, data ...any) {
	var body any
	if len(data) > 0 {
		body = data[0]
	}

	switch v := body.(type) {
	case nil:
		body = map[string]any{"message": "ok"}
	case string:
		body = map[string]any{"message": v}
	}

	if statusCode < 200 || statusCode >= 400 {
		Fail(w, &Exception{Status: statusCode, Data: body})
		return
	}
	writeJSON(w, statusCode, body)
}

// Fail handles failure responses.
func Fail(w http.ResponseWriter, r *Exception) {
	if r == nil {
		r = InternalServer()
	}
	status, body := buildFailureResponse(r)
	writeJSON(w, status, body)
}

// buildFailureResponse builds the failure response.
func buildFailureResponse(r *Exception) (int, *Exception) {
	status := http.StatusBadRequest
	code := ecode.RequestErr

	if r.Status != 0 {
		status = r.Status
	}
	if r.Code != 0 {
		code = r.Code
	}
	message := r.Message
	if message == "" {
		message = ecode.Text(code)
	}

	return status, &Exception{
		Code:    code,
		Message: message,
		Errors:  r.Errors,
		Data:    r.Data,
	}
}

func writeJSON(w http.ResponseWriter, code int, res any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		http.Error(w, "Failed to encode JSON response", http.StatusInternalServerError)
	}
}
