package worker

import "context"

// TransformHandler — обработчик узла "transform".
//
// Шаблоны в config подставлены до диспетчеризации, поэтому узел
// просто возвращает config как выход.
type TransformHandler struct{}

// Handle возвращает config как выход.
func (h *TransformHandler) Handle(_ context.Context, r *Request) (map[string]any, error) {
	out := make(map[string]any, len(r.Config))
	for k, v := range r.Config {
		out[k] = v
	}
	return out, nil
}
