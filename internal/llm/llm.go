package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrInvalidJSON is returned when the model produced no usable JSON payload.
var ErrInvalidJSON = errors.New("llm: invalid JSON from model")

// LLMClient is the minimal contract every model backend satisfies.
// GenerateJSON sends a prompt (plus an optional structured input that is
// serialized and appended) and returns the model's raw JSON response.
// Cross-cutting concerns (retries, logging, hooks) are layered on via
// Middleware rather than baked into implementations.
type LLMClient interface {
	Name() string
	GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error)
	Close() error
}
