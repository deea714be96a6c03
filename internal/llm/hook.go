package llm

import (
	"context"
	"encoding/json"
)

// PromptHook observes prompts and responses around each GenerateJSON call.
// The pipeline attaches its turn logger through this interface; hooks never
// influence control flow.
type PromptHook interface {
	Before(ctx context.Context, phase, prompt string, input any)
	After(ctx context.Context, phase string, raw json.RawMessage, err error)
}

type ctxKeyHook struct{}
type ctxKeyPhase struct{}

// WithHook attaches a PromptHook to every call made through the returned client.
func WithHook(base LLMClient, hook PromptHook) LLMClient {
	return &hookAttaching{base: base, hook: hook}
}

type hookAttaching struct {
	base LLMClient
	hook PromptHook
}

func (h *hookAttaching) Name() string { return h.base.Name() }
func (h *hookAttaching) Close() error { return h.base.Close() }

func (h *hookAttaching) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	ctx = context.WithValue(ctx, ctxKeyHook{}, h.hook)
	return h.base.GenerateJSON(ctx, prompt, input)
}

// WithPhase tags the context with the name of the pipeline step issuing the
// call (e.g. "direct_generation_candidate", "validate", "merge").
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, ctxKeyPhase{}, phase)
}

// HookFrom returns the hook stored in the context.
func HookFrom(ctx context.Context) PromptHook {
	if v := ctx.Value(ctxKeyHook{}); v != nil {
		if h, ok := v.(PromptHook); ok {
			return h
		}
	}
	return nil
}

// PhaseFrom returns the phase string stored in the context.
func PhaseFrom(ctx context.Context) string {
	if v := ctx.Value(ctxKeyPhase{}); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "unknown"
}
