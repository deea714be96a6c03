package llm

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// Middleware decorates an LLMClient to inject cross-cutting concerns
// (retries, logging, hooks, etc.).
type Middleware func(LLMClient) LLMClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner LLMClient, mws ...Middleware) LLMClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// -------- Retry with exponential backoff --------

// maxRetryDelay caps a single backoff wait.
const maxRetryDelay = 60 * time.Second

// Retry retries GenerateJSON up to maxAttempts with exponential backoff
// starting at baseDelay, each wait capped at maxRetryDelay. If the context
// is canceled, it stops immediately. This covers transport-level failures
// only; semantic regeneration is the generator state machine's own budget.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next LLMClient) LLMClient {
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next LLMClient
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	var last error
	for i := 0; i < r.max; i++ {
		resp, err := r.next.GenerateJSON(ctx, prompt, input)
		if err == nil {
			return resp, nil
		}
		last = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		time.Sleep(r.delay(i))
	}
	return nil, last
}

func (r *retrying) delay(attempt int) time.Duration {
	d := r.base * time.Duration(1<<attempt)
	if d > maxRetryDelay || d <= 0 {
		return maxRetryDelay
	}
	return d
}

// -------- Logging & Hooks --------

// WithLogging logs request size and errors per call.
func WithLogging(log *zap.Logger) Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next LLMClient) LLMClient {
		return &logging{next: next, log: log}
	}
}

type logging struct {
	next LLMClient
	log  *zap.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }

func (l *logging) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	start := time.Now()
	raw, err := l.next.GenerateJSON(ctx, prompt, input)
	fields := []zap.Field{
		zap.String("phase", PhaseFrom(ctx)),
		zap.String("client", l.next.Name()),
		zap.Int("prompt_bytes", len(prompt)),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		l.log.Warn("llm call failed", append(fields, zap.Error(err))...)
	} else {
		l.log.Debug("llm call ok", append(fields, zap.Int("response_bytes", len(raw)))...)
	}
	return raw, err
}

// WithHooks calls HookFrom(ctx).Before/After around GenerateJSON.
// If no hook is present in the context, it is a no-op.
func WithHooks() Middleware {
	return func(next LLMClient) LLMClient {
		return &hooked{next: next}
	}
}

type hooked struct{ next LLMClient }

func (h *hooked) Name() string { return h.next.Name() }
func (h *hooked) Close() error { return h.next.Close() }

func (h *hooked) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	if hook := HookFrom(ctx); hook != nil {
		hook.Before(ctx, PhaseFrom(ctx), prompt, input)
	}
	raw, err := h.next.GenerateJSON(ctx, prompt, input)
	if hook := HookFrom(ctx); hook != nil {
		hook.After(ctx, PhaseFrom(ctx), raw, err)
	}
	return raw, err
}
