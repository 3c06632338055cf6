// Package automation defines the boundary to the browser automation engine
// and the LLM, with production clients for both.
package automation

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrAutomation wraps every failure of the browser automation engine.
	ErrAutomation = errors.New("browser automation failed")
	// ErrCompletion wraps every failure of the LLM endpoint.
	ErrCompletion = errors.New("llm completion failed")
)

// Automator performs a natural language task in a browser and returns the
// engine's raw output.
type Automator interface {
	Run(ctx context.Context, task string) (any, error)
}

// Completer returns a text completion for prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// AutomatorFunc adapts a function to Automator.
type AutomatorFunc func(ctx context.Context, task string) (any, error)

// Run implements Automator.
func (f AutomatorFunc) Run(ctx context.Context, task string) (any, error) {
	return f(ctx, task)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete implements Completer.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// History is an agent run as reported by the automation engine.
type History struct {
	Final   string   `json:"final_result"`
	Steps   []string `json:"extracted_content"`
	Errors  []string `json:"errors"`
	Done    bool     `json:"is_done"`
	StepCnt int      `json:"n_steps"`
}

// FinalResult returns the agent's final answer, possibly empty.
func (h *History) FinalResult() string {
	return h.Final
}

// Outputs returns the content extracted at each step.
func (h *History) Outputs() []string {
	return h.Steps
}

// LastError returns the last non-empty step error.
func (h *History) LastError() string {
	for i := len(h.Errors) - 1; i >= 0; i-- {
		if e := strings.TrimSpace(h.Errors[i]); e != "" {
			return e
		}
	}
	return ""
}

func (h *History) String() string {
	if h.Final != "" {
		return h.Final
	}
	return strings.Join(h.Steps, "\n")
}
