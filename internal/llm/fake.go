package llm

import (
	"context"
	"sync"
)

// FakeClient replays scripted responses per stage. A stage with a scripted
// error fails every call; a stage with neither returns Default.
type FakeClient struct {
	mu        sync.Mutex
	responses map[string][]string
	errs      map[string]error
	calls     map[string]int
	prompts   map[string][]string

	Default string
}

func NewFakeClient() *FakeClient {
	return &FakeClient{
		responses: map[string][]string{},
		errs:      map[string]error{},
		calls:     map[string]int{},
		prompts:   map[string][]string{},
	}
}

// Respond queues responses for stage; the last one repeats once the queue
// drains.
func (f *FakeClient) Respond(stage string, texts ...string) *FakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[stage] = append(f.responses[stage], texts...)
	return f
}

func (f *FakeClient) Fail(stage string, err error) *FakeClient {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[stage] = err
	return f
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Generate(ctx context.Context, prompt string) (string, error) {
	stage := StageFrom(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[stage]++
	f.prompts[stage] = append(f.prompts[stage], prompt)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err, ok := f.errs[stage]; ok {
		return "", err
	}
	q := f.responses[stage]
	switch len(q) {
	case 0:
		return f.Default, nil
	case 1:
		return q[0], nil
	}
	f.responses[stage] = q[1:]
	return q[0], nil
}

// Calls reports how many times stage reached the fake.
func (f *FakeClient) Calls(stage string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[stage]
}

// Prompts returns the prompts received for stage.
func (f *FakeClient) Prompts(stage string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts[stage]...)
}
