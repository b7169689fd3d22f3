// Package agent implements the autonomous Reddit research loop.
package agent

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cpunion/reddit-consensus/pkg/types"
)

// AgentState tracks the reasoning process and gathered research for one query.
type AgentState struct {
	mu sync.RWMutex

	OriginalQuery        string
	ReasoningSteps       []string
	DraftRecommendations []types.Recommendation
	FinalRecommendations []types.Recommendation
	Completed            bool

	// Research data keeps insertion order so prompts replay the
	// research in the order it happened.
	researchKeys []string
	researchData map[string]string
}

// NewAgentState creates an empty state for a fresh query.
func NewAgentState() *AgentState {
	return &AgentState{
		researchData: make(map[string]string),
	}
}

// AddReasoningStep appends one reasoning step.
func (s *AgentState) AddReasoningStep(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ReasoningSteps = append(s.ReasoningSteps, step)
}

// AddResearchData stores a tool result under the given key. A repeated
// key overwrites the value but keeps its original position.
func (s *AgentState) AddResearchData(key, data string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.researchData[key]; !ok {
		s.researchKeys = append(s.researchKeys, key)
	}
	s.researchData[key] = data
}

// ResearchKeys returns the research data keys in insertion order.
func (s *AgentState) ResearchKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, len(s.researchKeys))
	copy(keys, s.researchKeys)
	return keys
}

// ResearchData returns the stored result for a key.
func (s *AgentState) ResearchData(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.researchData[key]
	return data, ok
}

// ResearchSummary renders all research data as key/value blocks in
// insertion order, for inclusion in prompts.
func (s *AgentState) ResearchSummary() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sb strings.Builder
	for _, key := range s.researchKeys {
		fmt.Fprintf(&sb, "### %s\n%s\n\n", key, s.researchData[key])
	}
	return sb.String()
}

// StepCount returns the number of reasoning steps taken so far.
func (s *AgentState) StepCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ReasoningSteps)
}
