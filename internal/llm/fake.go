package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// ScriptedClient returns pre-arranged responses in call order, for offline
// runs and tests. Once the script is exhausted it keeps replaying the last
// step.
type ScriptedClient struct {
	mu      sync.Mutex
	steps   []ScriptStep
	idx     int
	Prompts []string // prompts seen, in call order
}

// ScriptStep is a single canned outcome for one GenerateJSON call.
type ScriptStep struct {
	Raw json.RawMessage
	Err error
}

// Reply builds a successful step from any JSON-marshalable value.
func Reply(v any) ScriptStep {
	b, _ := json.Marshal(v)
	return ScriptStep{Raw: b}
}

// Fail builds an erroring step.
func Fail(err error) ScriptStep { return ScriptStep{Err: err} }

func NewScriptedClient(steps ...ScriptStep) *ScriptedClient {
	return &ScriptedClient{steps: steps}
}

func (s *ScriptedClient) Name() string { return "ScriptedLLM" }
func (s *ScriptedClient) Close() error { return nil }

// Calls reports how many GenerateJSON calls were made.
func (s *ScriptedClient) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx
}

func (s *ScriptedClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Prompts = append(s.Prompts, prompt)
	if len(s.steps) == 0 {
		s.idx++
		return nil, ErrInvalidJSON
	}
	step := s.steps[min(s.idx, len(s.steps)-1)]
	s.idx++
	return step.Raw, step.Err
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
