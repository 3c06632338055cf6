package automation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ncobase/weibo-agent/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func automationConfig(endpoint string) *config.Automation {
	return &config.Automation{
		Endpoint:           endpoint,
		Timeout:            5 * time.Second,
		Headless:           true,
		BreakerMaxFailures: 2,
		BreakerOpenTimeout: time.Minute,
	}
}

func TestBrowserClientRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, runPath, r.URL.Path)
		var req runRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "open weibo.com", req.Task)
		assert.True(t, req.Headless)
		assert.Equal(t, "deepseek-chat", req.LLM.Model)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"final_result":"{\"success\":true}","extracted_content":["a","b"],"is_done":true}`))
	}))
	defer srv.Close()

	c := NewBrowserClient(automationConfig(srv.URL), &config.LLM{Model: "deepseek-chat"})
	out, err := c.Run(context.Background(), "open weibo.com")
	require.NoError(t, err)

	h, ok := out.(*History)
	require.True(t, ok)
	assert.Equal(t, `{"success":true}`, h.FinalResult())
	assert.Equal(t, []string{"a", "b"}, h.Outputs())
}

func TestBrowserClientAgentError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"final_result":"","errors":["", "element not found"],"is_done":false}`))
	}))
	defer srv.Close()

	c := NewBrowserClient(automationConfig(srv.URL), nil)
	_, err := c.Run(context.Background(), "task")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAutomation)
	assert.Contains(t, err.Error(), "element not found")
}

func TestBrowserClientBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"detail":"browser crashed"}`))
	}))
	defer srv.Close()

	c := NewBrowserClient(automationConfig(srv.URL), nil)
	for i := 0; i < 2; i++ {
		_, err := c.Run(context.Background(), "task")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "browser crashed")
	}

	_, err := c.Run(context.Background(), "task")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAutomation)
	assert.Contains(t, err.Error(), "unavailable")
	assert.Equal(t, int32(2), hits.Load())
	assert.Equal(t, "open", c.State())
}

func TestBrowserClientContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	cause := errors.New("job revoked")
	ctx, cancel := context.WithCancelCause(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel(cause)
	}()

	c := NewBrowserClient(automationConfig(srv.URL), nil)
	_, err := c.Run(ctx, "task")
	assert.ErrorIs(t, err, cause)
}

func TestChatCompleter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "deepseek-chat", body["model"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"risk_score\":3}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewChatCompleter(&config.LLM{
		BaseURL:   srv.URL,
		APIKey:    "sk-test",
		Model:     "deepseek-chat",
		MaxTokens: 128,
		Timeout:   5 * time.Second,
	})
	out, err := c.Complete(context.Background(), "rate this post")
	require.NoError(t, err)
	assert.Equal(t, `{"risk_score":3}`, out)
}

func TestChatCompleterEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	c := NewChatCompleter(&config.LLM{BaseURL: srv.URL, Model: "m", MaxTokens: 1, Timeout: time.Second})
	_, err := c.Complete(context.Background(), "p")
	assert.ErrorIs(t, err, ErrCompletion)
}

func TestHistoryString(t *testing.T) {
	h := &History{Steps: []string{"one", "two"}}
	assert.Equal(t, "one\ntwo", h.String())
	h.Final = "done"
	assert.Equal(t, "done", h.String())
	assert.Equal(t, "", (&History{Errors: []string{" ", ""}}).LastError())
}
