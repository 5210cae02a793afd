package worker

import (
	"context"
	"fmt"
	"time"
)

const defaultExternalURL = "http://example.com/mock"

// InputHandler — узел "input": возвращает params execution.
type InputHandler struct{}

// Handle читает params из хранилища.
func (h *InputHandler) Handle(ctx context.Context, r *Request) (map[string]any, error) {
	params, err := r.State.GetParams(ctx, r.ExecutionID)
	if err != nil {
		return nil, fmt.Errorf("load params: %w", err)
	}
	if params == nil {
		params = map[string]any{}
	}
	return params, nil
}

// ExternalServiceHandler — узел "call_external_service" (mock).
type ExternalServiceHandler struct {
	Latency func() time.Duration
}

// Handle имитирует вызов внешнего сервиса.
func (h *ExternalServiceHandler) Handle(ctx context.Context, r *Request) (map[string]any, error) {
	if err := sleep(ctx, latency(h.Latency)); err != nil {
		return nil, err
	}

	return map[string]any{
		"url":    configString(r.Config, "url", defaultExternalURL),
		"status": "ok",
		"data": map[string]any{
			"mock":      true,
			"timestamp": float64(time.Now().UnixNano()) / float64(time.Second),
		},
	}, nil
}

// GenerateHandler — узел "llm_generate" (mock).
type GenerateHandler struct {
	Latency func() time.Duration
}

// Handle возвращает детерминированный ответ на prompt.
func (h *GenerateHandler) Handle(ctx context.Context, r *Request) (map[string]any, error) {
	if err := sleep(ctx, latency(h.Latency)); err != nil {
		return nil, err
	}

	prompt := configString(r.Config, "prompt", "")
	return map[string]any{"text": "mock_response: " + prompt}, nil
}

// OutputHandler — узел "output": собирает выходы родителей в "final".
type OutputHandler struct{}

// Handle читает выходы всех родителей узла.
func (h *OutputHandler) Handle(ctx context.Context, r *Request) (map[string]any, error) {
	final := make(map[string]any)
	if r.Graph == nil {
		return map[string]any{"final": final}, nil
	}

	for _, parent := range r.Graph.ParentsOf(r.NodeID) {
		out, ok, err := r.State.GetNodeOutput(ctx, r.ExecutionID, parent)
		if err != nil {
			return nil, fmt.Errorf("load output of %s: %w", parent, err)
		}
		if ok {
			final[parent] = out
		}
	}
	return map[string]any{"final": final}, nil
}

func latency(f func() time.Duration) time.Duration {
	if f == nil {
		return 0
	}
	return f()
}
