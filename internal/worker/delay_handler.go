package worker

import (
	"context"
	"time"
)

// DelayHandler — обработчик узла "delay".
//
// Config:
//   - duration_sec (number): длительность задержки (default: 1)
type DelayHandler struct{}

// Handle ждёт заданное время с учётом отмены контекста.
func (h *DelayHandler) Handle(ctx context.Context, r *Request) (map[string]any, error) {
	d := configSeconds(r.Config, "duration_sec", time.Second)
	if err := sleep(ctx, d); err != nil {
		return nil, err
	}
	return map[string]any{"delayed_sec": d.Seconds()}, nil
}
