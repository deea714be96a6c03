package turnlog

import (
	"context"
	"encoding/json"

	"sqlqa/internal/llm"
)

// Hook records every prompt and model response into the turn log, keyed by
// the pipeline phase carried in the call context.
type Hook struct {
	Log *Logger
}

var _ llm.PromptHook = Hook{}

func (h Hook) Before(ctx context.Context, phase, prompt string, input any) {
	if h.Log == nil {
		return
	}
	h.Log.Log(phase+"_prompt", prompt)
	if input != nil {
		if b, err := json.Marshal(input); err == nil {
			h.Log.Log(phase+"_input", string(b))
		}
	}
}

func (h Hook) After(ctx context.Context, phase string, raw json.RawMessage, err error) {
	if h.Log == nil {
		return
	}
	if err != nil {
		h.Log.Log(phase+"_error", err.Error())
		return
	}
	h.Log.Log(phase+"_response", string(raw))
}
