package tools

import (
	"context"
	"fmt"
	"sync"
)

// Request is one tool invocation requested by the LLM in a single turn.
type Request struct {
	Tool   string         `json:"tool_name"`
	Params map[string]any `json:"tool_params"`
}

// Result is the normalized outcome of one tool invocation: either a
// payload or an error, tagged with the tool name and the original
// request index so downstream consumers can restore order.
type Result struct {
	Tool   string
	Params map[string]any
	Index  int
	Output string
	Err    error
}

// Failed reports whether the invocation errored.
func (r Result) Failed() bool { return r.Err != nil }

// Payload returns the output, or an error description for failed
// invocations, mirroring what gets folded into the research context.
func (r Result) Payload() string {
	if r.Err != nil {
		return fmt.Sprintf("Error: %v", r.Err)
	}
	return r.Output
}

// ExecuteParallel dispatches every request concurrently and waits for
// the whole batch. A failing tool is isolated: its slot carries the
// error while siblings complete normally. Slots are ordered by request
// index regardless of completion order.
func ExecuteParallel(ctx context.Context, ts *Toolset, reqs []Request) []Result {
	results := make([]Result, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req Request) {
			defer wg.Done()
			results[i] = execute(ctx, ts, req, i)
		}(i, req)
	}
	wg.Wait()

	return results
}

func execute(ctx context.Context, ts *Toolset, req Request, index int) Result {
	result := Result{Tool: req.Tool, Params: req.Params, Index: index}

	t, ok := ts.Get(req.Tool)
	if !ok {
		result.Err = fmt.Errorf("tool %s not found", req.Tool)
		return result
	}

	output, err := t.Execute(ctx, req.Params)
	if err != nil {
		result.Err = err
		return result
	}
	result.Output = output
	return result
}

// Execute runs a single tool request.
func Execute(ctx context.Context, ts *Toolset, req Request) Result {
	return execute(ctx, ts, req, 0)
}
