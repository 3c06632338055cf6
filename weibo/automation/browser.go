package automation

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/ncobase/weibo-agent/config"
	"github.com/sony/gobreaker"
)

const runPath = "/api/v1/run"

type runRequest struct {
	Task     string   `json:"task"`
	Headless bool     `json:"headless"`
	LLM      llmHints `json:"llm"`
}

type llmHints struct {
	BaseURL     string  `json:"base_url"`
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
}

type apiError struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

func (e apiError) message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Error
}

// BrowserClient drives a browser-use sidecar over HTTP. Consecutive failures
// open a circuit breaker so that a dead sidecar fails jobs quickly.
type BrowserClient struct {
	client   *resty.Client
	breaker  *gobreaker.CircuitBreaker
	headless bool
	hints    llmHints
}

// NewBrowserClient creates a client for the sidecar at cfg.Endpoint.
func NewBrowserClient(cfg *config.Automation, llm *config.LLM) *BrowserClient {
	client := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	maxFailures := cfg.BreakerMaxFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "browser-automation",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
	})

	b := &BrowserClient{client: client, breaker: breaker, headless: cfg.Headless}
	if llm != nil {
		b.hints = llmHints{BaseURL: llm.BaseURL, Model: llm.Model, Temperature: llm.Temperature}
	}
	return b
}

// Run implements Automator. The returned value is a *History.
func (b *BrowserClient) Run(ctx context.Context, task string) (any, error) {
	res, err := b.breaker.Execute(func() (interface{}, error) {
		return b.run(ctx, task)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: automation engine unavailable (%v)", ErrAutomation, err)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// State reports the breaker state, for health output.
func (b *BrowserClient) State() string {
	return b.breaker.State().String()
}

func (b *BrowserClient) run(ctx context.Context, task string) (*History, error) {
	var h History
	var apiErr apiError

	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(runRequest{Task: task, Headless: b.headless, LLM: b.hints}).
		SetResult(&h).
		SetError(&apiErr).
		Post(runPath)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, context.Cause(ctx)
		}
		return nil, fmt.Errorf("%w: %v", ErrAutomation, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d: %s", ErrAutomation, resp.StatusCode(), apiErr.message())
	}
	if !h.Done && h.Final == "" && h.LastError() != "" {
		return nil, fmt.Errorf("%w: %s", ErrAutomation, h.LastError())
	}
	return &h, nil
}
