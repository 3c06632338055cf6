package ecode

import "net/http"

// Business codes
const (
	OK = 0

	RequestErr      = -400
	ParamErr        = -401
	ConfirmRequired = -402
	BatchTooLarge   = -403
	NotFound        = -404

	ServerErr          = -500
	QueueUnavailable   = -502
	ServiceUnavailable = -503
)

var texts = map[int]string{
	OK:                 "ok",
	RequestErr:         "invalid request",
	ParamErr:           "invalid parameters",
	ConfirmRequired:    "deletion must be confirmed",
	BatchTooLarge:      "too many posts in one request",
	NotFound:           "resource not found",
	ServerErr:          "internal server error",
	QueueUnavailable:   "task queue unavailable",
	ServiceUnavailable: "service unavailable",
}

// Text returns the message for a code, falling back to the server error text.
func Text(code int) string {
	if t, ok := texts[code]; ok {
		return t
	}
	return texts[ServerErr]
}

// ToHTTPStatus maps a business code to an HTTP status.
func ToHTTPStatus(code int) int {
	switch {
	case code == OK:
		return http.StatusOK
	case code == NotFound:
		return http.StatusNotFound
	case code == QueueUnavailable, code == ServiceUnavailable:
		return http.StatusServiceUnavailable
	case code <= -500:
		return http.StatusInternalServerError
	case code <= -100:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
