package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cpunion/reddit-consensus/pkg/config"
	"github.com/cpunion/reddit-consensus/pkg/tools"
)

// scriptedProvider returns canned responses in sequence.
type scriptedProvider struct {
	responses []string
	calls     int
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string) (string, error) {
	if p.calls >= len(p.responses) {
		return "", fmt.Errorf("unexpected call %d", p.calls+1)
	}
	resp := p.responses[p.calls]
	p.calls++
	return resp, nil
}

// echoTool records invocations and returns a fixed payload.
type echoTool struct {
	name  string
	calls int
}

func (e *echoTool) Name() string        { return e.name }
func (e *echoTool) Description() string { return "echo" }
func (e *echoTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	e.calls++
	return fmt.Sprintf(`{"status": "success", "echo": %d}`, e.calls), nil
}

func newTestToolset(tls ...tools.Tool) *tools.Toolset {
	ts := &tools.Toolset{}
	for _, tl := range tls {
		ts.Add(tl)
	}
	return ts
}

func testRecommenderConfig() config.Config {
	cfg := config.Default()
	cfg.MaxIterations = 5
	return cfg
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"{\"action\": \"finalize\"}", "{\"action\": \"finalize\"}"},
		{"```json\n{\"action\": \"finalize\"}\n```", "{\"action\": \"finalize\"}"},
		{"```\n{\"a\": 1}\n```", "{\"a\": 1}"},
		{"  {\"a\": 1}  ", "{\"a\": 1}"},
	}
	for _, c := range cases {
		if got := stripFences(c.in); got != c.want {
			t.Errorf("stripFences(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDecide_RetriesThenFallsBack(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"this is not json",
		"still not json",
	}}
	r := NewRecommender(provider, newTestToolset(), testRecommenderConfig(), nil)

	dec, err := r.decide(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if dec.Action != actionFinalize {
		t.Errorf("expected fallback finalize, got %q", dec.Action)
	}
	if provider.calls != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", provider.calls)
	}
}

func TestDecide_RecoversOnSecondAttempt(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"garbage",
		`{"action": "use_tool", "tool_name": "echo", "reasoning": "retry worked"}`,
	}}
	r := NewRecommender(provider, newTestToolset(), testRecommenderConfig(), nil)

	dec, err := r.decide(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if dec.Action != "use_tool" || dec.ToolName != "echo" {
		t.Errorf("unexpected decision: %+v", dec)
	}
}

func TestDecide_MissingActionTreatedAsMalformed(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`{"reasoning": "no action field"}`,
		`{"reasoning": "still none"}`,
	}}
	r := NewRecommender(provider, newTestToolset(), testRecommenderConfig(), nil)

	dec, err := r.decide(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if dec.Action != actionFinalize {
		t.Errorf("expected fallback finalize, got %q", dec.Action)
	}
}

func TestProcessQuery_FullPipeline(t *testing.T) {
	search := &echoTool{name: "reddit_search_for_posts"}
	comments := &echoTool{name: "reddit_get_post_comments"}

	provider := &scriptedProvider{responses: []string{
		// Research phase: one single tool turn, one parallel turn, finalize.
		`{"action": "use_tool", "tool_name": "reddit_search_for_posts", "tool_params": {"query": "best headphones"}, "reasoning": "initial search"}`,
		`{"action": "use_tools", "tools": [
			{"tool_name": "reddit_get_post_comments", "tool_params": {"post_id": "p1"}},
			{"tool_name": "reddit_get_post_comments", "tool_params": {"post_id": "p2"}}
		], "reasoning": "read two threads"}`,
		`{"action": "finalize", "reasoning": "enough research"}`,
		// Draft recommendations.
		"```json\n[{\"name\": \"Model A\", \"description\": \"praised\", \"reasoning\": \"consensus\"}]\n```",
		// Critique phase: one search, finalize.
		`{"action": "use_tool", "tool_name": "reddit_search_for_posts", "tool_params": {"query": "Model A problems"}, "reasoning": "look for complaints"}`,
		`{"action": "finalize", "reasoning": "critique done"}`,
		// Final recommendations.
		`[{"name": "Model A", "description": "praised", "pros": "sound", "cons": "price", "reasoning": "balanced", "reddit_sources": ["https://reddit.com/r/headphones/p1"]}]`,
	}}

	r := NewRecommender(provider, newTestToolset(search, comments), testRecommenderConfig(), nil)

	result, err := r.ProcessQuery(context.Background(), "best headphones under 200")
	if err != nil {
		t.Fatalf("ProcessQuery failed: %v", err)
	}

	if len(result.Recommendations) != 1 || result.Recommendations[0].Name != "Model A" {
		t.Fatalf("unexpected recommendations: %+v", result.Recommendations)
	}
	if result.Recommendations[0].Cons != "price" {
		t.Error("expected critique findings carried into the final output")
	}
	if !r.State.Completed {
		t.Error("expected the state marked completed")
	}

	// Reasoning steps: 3 research turns + 1 critique turn + 1 critique finalize.
	if result.Steps != 5 {
		t.Errorf("expected 5 reasoning steps, got %d", result.Steps)
	}

	if search.calls != 2 {
		t.Errorf("expected 2 search calls (research + critique), got %d", search.calls)
	}
	if comments.calls != 2 {
		t.Errorf("expected 2 parallel comment fetches, got %d", comments.calls)
	}

	// Research data keys follow the phase and batch naming scheme.
	wantKeys := []string{
		"reddit_search_for_posts",
		"reddit_get_post_comments_1_0",
		"reddit_get_post_comments_1_1",
		"critique_reddit_search_for_posts_0",
	}
	for _, want := range wantKeys {
		if _, ok := r.State.ResearchData(want); !ok {
			t.Errorf("missing research data key %q (have %v)", want, r.State.ResearchKeys())
		}
	}
}

func TestProcessQuery_IterationCapStopsResearch(t *testing.T) {
	search := &echoTool{name: "reddit_search_for_posts"}

	// Always ask for another search; the cap has to stop the loop.
	responses := make([]string, 0, 16)
	for i := 0; i < 3; i++ {
		responses = append(responses, `{"action": "use_tool", "tool_name": "reddit_search_for_posts", "tool_params": {"query": "q"}, "reasoning": "more"}`)
	}
	responses = append(responses,
		`[{"name": "Draft", "description": "d", "reasoning": "r"}]`,
		`{"action": "finalize", "reasoning": "done"}`,
		`[{"name": "Final", "description": "d", "reasoning": "r"}]`,
	)
	provider := &scriptedProvider{responses: responses}

	cfg := testRecommenderConfig()
	cfg.MaxIterations = 3
	r := NewRecommender(provider, newTestToolset(search), cfg, nil)

	result, err := r.ProcessQuery(context.Background(), "q")
	if err != nil {
		t.Fatalf("ProcessQuery failed: %v", err)
	}
	if search.calls != 3 {
		t.Errorf("expected the cap to stop after 3 searches, got %d", search.calls)
	}
	if result.Recommendations[0].Name != "Final" {
		t.Errorf("unexpected final recommendations: %+v", result.Recommendations)
	}
}

func TestProcessQuery_ToolFailureSurfacesInContext(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`{"action": "use_tool", "tool_name": "missing_tool", "tool_params": {}, "reasoning": "oops"}`,
		`{"action": "finalize", "reasoning": "give up"}`,
		`[{"name": "Draft", "description": "d", "reasoning": "r"}]`,
		`{"action": "finalize", "reasoning": "no critique"}`,
		`[{"name": "Final", "description": "d", "reasoning": "r"}]`,
	}}
	r := NewRecommender(provider, newTestToolset(), testRecommenderConfig(), nil)

	if _, err := r.ProcessQuery(context.Background(), "q"); err != nil {
		t.Fatalf("ProcessQuery failed: %v", err)
	}

	data, ok := r.State.ResearchData("missing_tool")
	if !ok {
		t.Fatal("expected the failed tool call recorded as research data")
	}
	if !strings.HasPrefix(data, "Error:") {
		t.Errorf("expected an error record, got %q", data)
	}
}
