package ecode

import (
	"net/http"
	"testing"
)

func TestText(t *testing.T) {
	if got := Text(NotFound); got != "resource not found" {
		t.Errorf("Text(NotFound) = %q", got)
	}
	if got := Text(-9999); got != Text(ServerErr) {
		t.Errorf("unknown code should fall back to server error text, got %q", got)
	}
}

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		code int
		want int
	}{
		{OK, http.StatusOK},
		{ParamErr, http.StatusBadRequest},
		{ConfirmRequired, http.StatusBadRequest},
		{BatchTooLarge, http.StatusBadRequest},
		{NotFound, http.StatusNotFound},
		{ServiceUnavailable, http.StatusServiceUnavailable},
		{ServerErr, http.StatusInternalServerError},
		{QueueUnavailable, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		if got := ToHTTPStatus(tt.code); got != tt.want {
			t.Errorf("ToHTTPStatus(%d) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestMessages(t *testing.T) {
	if got := FieldIsRequired("username"); got != "username required" {
		t.Errorf("FieldIsRequired = %q", got)
	}
	if got := ExceedsLimit("post_ids", 100); got != "post_ids exceeds limit of 100" {
		t.Errorf("ExceedsLimit = %q", got)
	}
}
