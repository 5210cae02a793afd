package worker

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sort"
	"time"

	"github.com/spf13/cast"

	"github.com/shaiso/dagrun/internal/engine"
	"github.com/shaiso/dagrun/internal/store"
)

// Handler выполняет узел определённого типа.
//
// Возвращает выход узла или ошибку; ошибка означает FAILED для узла
// и всего workflow.
type Handler interface {
	Handle(ctx context.Context, req *Request) (map[string]any, error)
}

// HandlerFunc — адаптер функции к Handler.
type HandlerFunc func(ctx context.Context, req *Request) (map[string]any, error)

// Handle вызывает f.
func (f HandlerFunc) Handle(ctx context.Context, req *Request) (map[string]any, error) {
	return f(ctx, req)
}

// Request — всё, что обработчик знает об узле.
type Request struct {
	ExecutionID string
	NodeID      string
	Handler     string

	// Config — конфигурация с уже подставленными шаблонами.
	Config map[string]any

	// Graph — граф execution (для доступа к родителям).
	Graph *engine.WorkflowGraph

	// State — хранилище для чтения params и выходов родителей.
	State store.Store
}

// Registry — реестр обработчиков по имени.
type Registry struct {
	handlers map[string]Handler
}

// RegistryConfig — настройки обработчиков по умолчанию.
type RegistryConfig struct {
	// MockLatency — имитировать задержку 1–2 с в mock-обработчиках.
	MockLatency bool

	// HTTPClient — клиент для обработчика http (default: http.DefaultClient).
	HTTPClient *http.Client
}

// NewRegistry создаёт реестр со встроенными обработчиками:
// input, call_external_service, llm_generate, output, http, delay, transform.
func NewRegistry(cfg RegistryConfig) *Registry {
	latency := noLatency
	if cfg.MockLatency {
		latency = randomLatency(time.Second, 2*time.Second)
	}

	r := &Registry{handlers: make(map[string]Handler)}
	r.Register("input", &InputHandler{})
	r.Register("call_external_service", &ExternalServiceHandler{Latency: latency})
	r.Register("llm_generate", &GenerateHandler{Latency: latency})
	r.Register("output", &OutputHandler{})
	r.Register("http", &HTTPHandler{Client: cfg.HTTPClient})
	r.Register("delay", &DelayHandler{})
	r.Register("transform", &TransformHandler{})
	return r
}

// Register добавляет обработчик (перезаписывает существующий).
func (r *Registry) Register(name string, handler Handler) {
	r.handlers[name] = handler
}

// Get возвращает обработчик по имени.
func (r *Registry) Get(name string) (Handler, error) {
	handler, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHandler, name)
	}
	return handler, nil
}

// Names возвращает имена зарегистрированных обработчиков.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func noLatency() time.Duration { return 0 }

// randomLatency — равномерная задержка в [lo, hi).
func randomLatency(lo, hi time.Duration) func() time.Duration {
	return func() time.Duration {
		return lo + rand.N(hi-lo)
	}
}

// sleep ждёт d или отмены контекста.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// configString извлекает строку из конфигурации.
func configString(cfg map[string]any, key, defaultVal string) string {
	v, ok := cfg[key]
	if !ok || v == nil {
		return defaultVal
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return defaultVal
	}
	return s
}

// configSeconds извлекает длительность в секундах.
func configSeconds(cfg map[string]any, key string, defaultVal time.Duration) time.Duration {
	v, ok := cfg[key]
	if !ok || v == nil {
		return defaultVal
	}
	sec, err := cast.ToFloat64E(v)
	if err != nil || sec <= 0 {
		return defaultVal
	}
	return time.Duration(sec * float64(time.Second))
}
