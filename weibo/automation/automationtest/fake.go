// Package automationtest provides scripted stand-ins for the browser
// automation engine and the LLM.
package automationtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Reply is one scripted answer.
type Reply struct {
	Output any
	Err    error
}

// Out is a Reply carrying output.
func Out(v any) Reply { return Reply{Output: v} }

// Fail is a Reply carrying err.
func Fail(err error) Reply { return Reply{Err: err} }

type rule struct {
	match   string
	replies []Reply
	used    int
}

// Fake answers tasks and prompts with scripted replies. A task is answered
// by the first rule whose match string it contains; replies are consumed in
// order and the last one repeats.
type Fake struct {
	mu    sync.Mutex
	rules []*rule
	calls []string
	Block bool
}

// New returns an empty fake.
func New() *Fake {
	return &Fake{}
}

// On scripts the replies for tasks containing match.
func (f *Fake) On(match string, replies ...Reply) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = append(f.rules, &rule{match: match, replies: replies})
	return f
}

// Run implements automation.Automator.
func (f *Fake) Run(ctx context.Context, task string) (any, error) {
	return f.next(ctx, task)
}

// Complete implements automation.Completer. Non-string outputs are
// formatted with fmt.Sprint.
func (f *Fake) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := f.next(ctx, prompt)
	if err != nil {
		return "", err
	}
	if s, ok := out.(string); ok {
		return s, nil
	}
	return fmt.Sprint(out), nil
}

func (f *Fake) next(ctx context.Context, task string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, context.Cause(ctx)
	}

	f.mu.Lock()
	f.calls = append(f.calls, task)
	var reply *Reply
	for _, r := range f.rules {
		if !strings.Contains(task, r.match) || len(r.replies) == 0 {
			continue
		}
		i := r.used
		if i >= len(r.replies) {
			i = len(r.replies) - 1
		}
		r.used++
		reply = &r.replies[i]
		break
	}
	block := f.Block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, context.Cause(ctx)
	}
	if reply == nil {
		return nil, fmt.Errorf("automationtest: no reply scripted for %q", task)
	}
	return reply.Output, reply.Err
}

// Calls returns a copy of every task received.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallsMatching counts the tasks containing match.
func (f *Fake) CallsMatching(match string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.Contains(c, match) {
			n++
		}
	}
	return n
}
