package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/dagrun/internal/domain"
	"github.com/shaiso/dagrun/internal/engine"
	"github.com/shaiso/dagrun/internal/mq"
	"github.com/shaiso/dagrun/internal/store"
	"github.com/shaiso/dagrun/internal/telemetry"
)

// Reporter принимает результаты выполнения узлов.
type Reporter interface {
	OnNodeSuccess(ctx context.Context, executionID, nodeID string, output map[string]any, graph *engine.WorkflowGraph) error
	OnNodeFailure(ctx context.Context, executionID, nodeID, message string) error
}

// Executor — точка входа выполнения узла.
type Executor struct {
	store    store.Store
	reporter Reporter
	registry *Registry
	logger   *slog.Logger
}

// ExecutorConfig — конфигурация Executor.
type ExecutorConfig struct {
	Store    store.Store
	Reporter Reporter

	// Registry — реестр обработчиков (default: NewRegistry без задержек).
	Registry *Registry

	Logger *slog.Logger
}

// NewExecutor создаёт Executor.
func NewExecutor(cfg ExecutorConfig) *Executor {
	registry := cfg.Registry
	if registry == nil {
		registry = NewRegistry(RegistryConfig{})
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{
		store:    cfg.Store,
		reporter: cfg.Reporter,
		registry: registry,
		logger:   logger,
	}
}

// Handlers возвращает имена обработчиков, доступных узлам.
func (e *Executor) Handlers() []string {
	return e.registry.Names()
}

// ExecuteNode выполняет один dispatch узла.
//
// Ошибки обработчика переводят узел и workflow в FAILED и не
// возвращаются. Возвращаемая ошибка означает сбой инфраструктуры
// или остановку: сообщение нужно доставить повторно.
func (e *Executor) ExecuteNode(ctx context.Context, p mq.NodeDispatchPayload) (map[string]any, error) {
	logger := telemetry.WithNodeID(telemetry.WithExecutionID(e.logger, p.ExecutionID), p.NodeID)

	def, err := e.store.GetDefinition(ctx, p.ExecutionID)
	if errors.Is(err, store.ErrNotFound) {
		logger.Warn("dispatch for unknown execution dropped")
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}

	graph, err := engine.ValidateWorkflow(def)
	if err != nil {
		return map[string]any{}, e.reporter.OnNodeFailure(ctx, p.ExecutionID, p.NodeID,
			fmt.Sprintf("invalid workflow definition: %v", err))
	}
	if graph.GetNode(p.NodeID) == nil {
		logger.Warn("dispatch for unknown node dropped")
		return map[string]any{}, nil
	}

	// Повторная доставка: результат уже есть
	status, err := e.store.GetNodeStatus(ctx, p.ExecutionID, p.NodeID)
	if err != nil {
		return nil, err
	}
	switch status {
	case domain.NodeStatusCompleted:
		out, _, err := e.store.GetNodeOutput(ctx, p.ExecutionID, p.NodeID)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = map[string]any{}
		}
		// Fan-out мог прерваться сбоем хранилища: повторяем, он идемпотентен
		logger.Debug("node already completed, repeating fan-out")
		if err := e.reporter.OnNodeSuccess(ctx, p.ExecutionID, p.NodeID, out, graph); err != nil {
			return nil, err
		}
		return out, nil
	case domain.NodeStatusFailed:
		logger.Debug("node already failed")
		return map[string]any{}, nil
	}

	handler, err := e.registry.Get(p.Handler)
	if err != nil {
		telemetry.NodeExecutions.WithLabelValues(p.Handler, string(domain.NodeStatusFailed)).Inc()
		return map[string]any{}, e.reporter.OnNodeFailure(ctx, p.ExecutionID, p.NodeID, err.Error())
	}

	req := &Request{
		ExecutionID: p.ExecutionID,
		NodeID:      p.NodeID,
		Handler:     p.Handler,
		Config:      p.Config,
		Graph:       graph,
		State:       e.store,
	}
	if req.Config == nil {
		req.Config = map[string]any{}
	}

	logger.Info("executing node", "handler", p.Handler)

	start := time.Now()
	output, err := e.invoke(ctx, handler, req)
	telemetry.NodeExecutionSeconds.WithLabelValues(p.Handler).Observe(time.Since(start).Seconds())

	if err != nil {
		// Остановка процесса не является ошибкой узла
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		telemetry.NodeExecutions.WithLabelValues(p.Handler, string(domain.NodeStatusFailed)).Inc()
		return map[string]any{}, e.reporter.OnNodeFailure(ctx, p.ExecutionID, p.NodeID, err.Error())
	}
	if output == nil {
		output = map[string]any{}
	}

	telemetry.NodeExecutions.WithLabelValues(p.Handler, string(domain.NodeStatusCompleted)).Inc()
	logger.Info("node executed", "duration", time.Since(start))

	if err := e.reporter.OnNodeSuccess(ctx, p.ExecutionID, p.NodeID, output, graph); err != nil {
		return nil, err
	}
	return output, nil
}

// invoke вызывает обработчик; паника превращается в ошибку узла.
func (e *Executor) invoke(ctx context.Context, h Handler, req *Request) (out map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return h.Handle(ctx, req)
}
