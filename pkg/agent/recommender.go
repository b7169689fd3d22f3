package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cpunion/reddit-consensus/pkg/config"
	"github.com/cpunion/reddit-consensus/pkg/llm"
	"github.com/cpunion/reddit-consensus/pkg/tools"
	"github.com/cpunion/reddit-consensus/pkg/types"
)

// Recommender runs the autonomous research loop: research Reddit, draft
// recommendations, critique them with further research, then finalize.
type Recommender struct {
	provider llm.Provider
	toolset  *tools.Toolset
	cfg      config.Config
	logger   *ResearchLogger

	State *AgentState
}

// NewRecommender creates a recommender over the given LLM provider and
// toolset. A nil logger disables trace logging.
func NewRecommender(provider llm.Provider, toolset *tools.Toolset, cfg config.Config, logger *ResearchLogger) *Recommender {
	return &Recommender{
		provider: provider,
		toolset:  toolset,
		cfg:      cfg,
		logger:   logger,
		State:    NewAgentState(),
	}
}

// Result summarizes one completed query.
type Result struct {
	Recommendations []types.Recommendation `json:"recommendations"`
	Steps           int                    `json:"steps"`
}

// ProcessQuery runs the full pipeline for one user query.
func (r *Recommender) ProcessQuery(ctx context.Context, query string) (*Result, error) {
	r.State.OriginalQuery = query

	if err := r.runResearchPhase(ctx); err != nil {
		return nil, fmt.Errorf("research phase: %w", err)
	}

	log.Println("Generating draft recommendations...")
	drafts, err := r.generateRecommendations(ctx, buildDraftPrompt(r.State))
	if err != nil {
		return nil, fmt.Errorf("draft recommendations: %w", err)
	}
	r.State.DraftRecommendations = drafts

	if err := r.runCritiquePhase(ctx); err != nil {
		return nil, fmt.Errorf("critique phase: %w", err)
	}

	log.Println("Generating final recommendations...")
	finals, err := r.generateRecommendations(ctx, buildFinalPrompt(r.State))
	if err != nil {
		return nil, fmt.Errorf("final recommendations: %w", err)
	}
	r.State.FinalRecommendations = finals
	r.State.Completed = true

	return &Result{
		Recommendations: finals,
		Steps:           r.State.StepCount(),
	}, nil
}

// decision is one reasoning turn's parsed output.
type decision struct {
	Action     string          `json:"action"`
	ToolName   string          `json:"tool_name"`
	ToolParams map[string]any  `json:"tool_params"`
	Tools      []tools.Request `json:"tools"`
	Reasoning  string          `json:"reasoning"`
}

const (
	actionUseTool  = "use_tool"
	actionUseTools = "use_tools"
	actionFinalize = "finalize"
)

// runResearchPhase loops reasoning turns until the model finalizes or
// the iteration cap is hit.
func (r *Recommender) runResearchPhase(ctx context.Context) error {
	researchContext := "User query: " + r.State.OriginalQuery

	for i := 0; i < r.cfg.MaxIterations; i++ {
		log.Printf("Iteration %d", i+1)

		prompt := buildReasoningPrompt(r.toolset.Describe(), r.State, researchContext)
		dec, err := r.decide(ctx, prompt)
		if err != nil {
			return err
		}
		r.State.AddReasoningStep(dec.Reasoning)
		r.logEvent("research", i, dec)

		switch dec.Action {
		case actionUseTool:
			result := r.executeTool(ctx, dec.ToolName, dec.ToolParams)
			r.State.AddResearchData(dec.ToolName, result)
			researchContext += fmt.Sprintf("\n\nTool %s: %s", dec.ToolName, result)

		case actionUseTools:
			log.Printf("Using %d tools in parallel", len(dec.Tools))
			results := tools.ExecuteParallel(ctx, r.toolset, dec.Tools)
			for _, res := range results {
				payload := res.Payload()
				key := fmt.Sprintf("%s_%d_%d", res.Tool, i, res.Index)
				r.State.AddResearchData(key, payload)
				researchContext += fmt.Sprintf("\n\nTool %s: %s", res.Tool, payload)
			}

		default:
			log.Println("Finalizing initial research")
			return nil
		}
	}
	return nil
}

// runCritiquePhase searches for criticism of the draft recommendations.
func (r *Recommender) runCritiquePhase(ctx context.Context) error {
	log.Println("Critiquing recommendations...")

	drafts, _ := json.Marshal(r.State.DraftRecommendations)
	critiqueContext := "Draft recommendations: " + string(drafts)

	for i := 0; i < r.cfg.MaxIterations; i++ {
		log.Printf("Critique iteration %d", i+1)

		prompt := buildCritiquePrompt(r.State, critiqueContext)
		dec, err := r.decide(ctx, prompt)
		if err != nil {
			return err
		}
		r.State.AddReasoningStep(dec.Reasoning)
		r.logEvent("critique", i, dec)

		switch dec.Action {
		case actionUseTool:
			result := r.executeTool(ctx, dec.ToolName, dec.ToolParams)
			key := fmt.Sprintf("critique_%s_%d", dec.ToolName, i)
			r.State.AddResearchData(key, result)
			critiqueContext += fmt.Sprintf("\n\nCritique Tool %s: %s", dec.ToolName, result)

		case actionUseTools:
			log.Printf("Critiquing with %d tools in parallel", len(dec.Tools))
			results := tools.ExecuteParallel(ctx, r.toolset, dec.Tools)
			for _, res := range results {
				payload := res.Payload()
				key := fmt.Sprintf("critique_%s_%d_%d", res.Tool, i, res.Index)
				r.State.AddResearchData(key, payload)
				critiqueContext += fmt.Sprintf("\n\nCritique Tool %s: %s", res.Tool, payload)
			}

		default:
			log.Println("Finalizing critique")
			return nil
		}
	}
	return nil
}

// decide asks the model for one decision, retrying once on malformed
// JSON before falling back to a finalize decision.
func (r *Recommender) decide(ctx context.Context, prompt string) (*decision, error) {
	for attempt := 0; attempt < 2; attempt++ {
		raw, err := r.provider.Generate(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("llm call: %w", err)
		}

		var dec decision
		if err := json.Unmarshal([]byte(stripFences(raw)), &dec); err != nil {
			log.Printf("JSON parse error (attempt %d): %v", attempt+1, err)
			continue
		}
		if dec.Action == "" {
			log.Printf("Decision missing action field (attempt %d)", attempt+1)
			continue
		}
		return &dec, nil
	}

	return &decision{Action: actionFinalize, Reasoning: "JSON parse error, finalizing"}, nil
}

// generateRecommendations asks the model for a recommendation array,
// retrying once on malformed JSON.
func (r *Recommender) generateRecommendations(ctx context.Context, prompt string) ([]types.Recommendation, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		raw, err := r.provider.Generate(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("llm call: %w", err)
		}

		var recs []types.Recommendation
		if err := json.Unmarshal([]byte(stripFences(raw)), &recs); err != nil {
			log.Printf("JSON parse error (attempt %d): %v", attempt+1, err)
			lastErr = err
			continue
		}
		return recs, nil
	}
	return nil, fmt.Errorf("parse recommendations: %w", lastErr)
}

// executeTool runs one tool, reporting failures as text so the model
// can react to them.
func (r *Recommender) executeTool(ctx context.Context, name string, params map[string]any) string {
	log.Printf("Using: %s", name)

	res := tools.Execute(ctx, r.toolset, tools.Request{Tool: name, Params: params})
	return res.Payload()
}

func (r *Recommender) logEvent(phase string, iteration int, dec *decision) {
	if r.logger == nil {
		return
	}
	toolNames := make([]string, 0, len(dec.Tools))
	if dec.ToolName != "" {
		toolNames = append(toolNames, dec.ToolName)
	}
	for _, req := range dec.Tools {
		toolNames = append(toolNames, req.Tool)
	}
	if err := r.logger.Log(ResearchEvent{
		Phase:     phase,
		Iteration: iteration,
		Action:    dec.Action,
		Tools:     toolNames,
		Reasoning: dec.Reasoning,
	}); err != nil {
		log.Printf("trace log: %v", err)
	}
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	} else {
		return s
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
