package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/dagrun/internal/domain"
	"github.com/shaiso/dagrun/internal/engine"
	"github.com/shaiso/dagrun/internal/mq"
	"github.com/shaiso/dagrun/internal/store"
	"github.com/shaiso/dagrun/internal/telemetry"
)

// Dispatcher передаёт узел на выполнение (очередь задач).
type Dispatcher interface {
	DispatchNode(ctx context.Context, payload mq.NodeDispatchPayload) error
}

// Orchestrator управляет выполнением workflow.
type Orchestrator struct {
	store      store.Store
	dispatcher Dispatcher
	lockTTL    time.Duration
	logger     *slog.Logger
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Store — общее состояние execution.
	Store store.Store

	// Dispatcher — транспорт dispatch-сообщений.
	Dispatcher Dispatcher

	// LockTTL — время жизни dispatch lock (default: 60s).
	LockTTL time.Duration

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Orchestrator.
func New(cfg Config) *Orchestrator {
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = store.DefaultLockTTL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		store:      cfg.Store,
		dispatcher: cfg.Dispatcher,
		lockTTL:    lockTTL,
		logger:     logger,
	}
}

// Store возвращает хранилище, с которым работает оркестратор.
func (o *Orchestrator) Store() store.Store {
	return o.store
}

// Start инициализирует execution и запускает корневые узлы в порядке объявления.
func (o *Orchestrator) Start(ctx context.Context, executionID string, def *domain.WorkflowDefinition, graph *engine.WorkflowGraph, params map[string]any) error {
	if err := o.store.Init(ctx, executionID, def, params); err != nil {
		return err
	}

	roots := graph.Roots()
	o.logger.Info("workflow started",
		"execution_id", executionID,
		"workflow", def.Name,
		"nodes", graph.Size(),
		"roots", roots,
	)

	for _, nodeID := range roots {
		if _, err := o.DispatchOnce(ctx, executionID, nodeID, graph); err != nil {
			return err
		}
	}

	return nil
}

// DispatchOnce запускает узел не более одного раза за execution.
//
// Возвращает true, только если этот вызов перевёл узел в RUNNING и
// отправил сообщение. Ошибка разрешения шаблона или отправки не
// возвращается, а переводит узел и workflow в FAILED.
func (o *Orchestrator) DispatchOnce(ctx context.Context, executionID, nodeID string, graph *engine.WorkflowGraph) (bool, error) {
	logger := telemetry.WithNodeID(telemetry.WithExecutionID(o.logger, executionID), nodeID)

	// 1. Упавший workflow не запускает новые узлы
	wfStatus, err := o.store.GetWorkflowStatus(ctx, executionID)
	if err != nil {
		return false, err
	}
	if wfStatus == domain.WorkflowStatusFailed {
		logger.Debug("workflow failed, dispatch skipped")
		return false, nil
	}

	node := graph.GetNode(nodeID)
	if node == nil {
		return false, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}

	// 2. Единственный победитель за lock
	acquired, err := o.store.TryAcquireDispatchLock(ctx, executionID, nodeID, o.lockTTL)
	if err != nil {
		return false, err
	}
	if !acquired {
		telemetry.DispatchLockContended.Inc()
		logger.Debug("dispatch lock held, skipping")
		return false, nil
	}

	// 3. Повторная проверка статуса под lock
	current, err := o.store.GetNodeStatus(ctx, executionID, nodeID)
	if err != nil {
		return false, err
	}
	if current == domain.NodeStatusRunning || current == domain.NodeStatusCompleted {
		logger.Warn("node already dispatched, lock and state disagree", "status", current)
		return false, nil
	}

	// 4. Разрешаем шаблоны конфигурации
	resolveCtx := engine.Context{}
	if engine.HasTemplates(node.Def.Config) {
		resolveCtx, err = o.resolutionContext(ctx, executionID, nodeID, graph)
		if err != nil {
			return false, err
		}
	}

	config, err := engine.ResolveConfig(node.Def.Config, resolveCtx)
	if err != nil {
		telemetry.TemplateFailures.Inc()
		msg := fmt.Sprintf("template resolution failed for node %s: %v", nodeID, err)
		return false, o.failNode(ctx, executionID, nodeID, msg)
	}

	// 5. RUNNING и отправка
	if err := o.store.SetNodeStatus(ctx, executionID, nodeID, domain.NodeStatusRunning); err != nil {
		return false, err
	}

	if o.dispatcher == nil {
		return false, o.failNode(ctx, executionID, nodeID,
			fmt.Sprintf("dispatch node %s: %v", nodeID, ErrNoDispatcher))
	}

	payload := mq.NodeDispatchPayload{
		ExecutionID: executionID,
		NodeID:      nodeID,
		Handler:     node.Def.Handler,
		Config:      config,
	}
	if err := o.dispatcher.DispatchNode(ctx, payload); err != nil {
		return false, o.failNode(ctx, executionID, nodeID, fmt.Sprintf("dispatch node %s: %v", nodeID, err))
	}

	telemetry.NodesDispatched.Inc()
	logger.Info("node dispatched", "handler", node.Def.Handler)
	return true, nil
}

// resolutionContext собирает выходы родителей и параметры trigger.
func (o *Orchestrator) resolutionContext(ctx context.Context, executionID, nodeID string, graph *engine.WorkflowGraph) (engine.Context, error) {
	parents := graph.ParentsOf(nodeID)
	outputs := make(map[string]map[string]any, len(parents))

	for _, parentID := range parents {
		out, ok, err := o.store.GetNodeOutput(ctx, executionID, parentID)
		if err != nil {
			return nil, err
		}
		if ok {
			outputs[parentID] = out
		}
	}

	params, err := o.store.GetParams(ctx, executionID)
	if err != nil {
		return nil, err
	}

	return engine.BuildContext(outputs, params), nil
}

// IsReady — узел в PENDING и все его зависимости COMPLETED.
func (o *Orchestrator) IsReady(ctx context.Context, executionID, nodeID string, graph *engine.WorkflowGraph) (bool, error) {
	statuses, err := o.store.ListNodeStatuses(ctx, executionID, graph.Definition)
	if err != nil {
		return false, err
	}

	if statuses[nodeID] != domain.NodeStatusPending {
		return false, nil
	}

	for _, parentID := range graph.ParentsOf(nodeID) {
		if statuses[parentID] != domain.NodeStatusCompleted {
			return false, nil
		}
	}

	return true, nil
}

// OnNodeSuccess фиксирует результат узла и запускает готовых потомков.
//
// Единственная точка fan-out: каждый родитель пытается запустить
// потомка, но запускает только первый прошедший lock.
func (o *Orchestrator) OnNodeSuccess(ctx context.Context, executionID, nodeID string, output map[string]any, graph *engine.WorkflowGraph) error {
	logger := telemetry.WithNodeID(telemetry.WithExecutionID(o.logger, executionID), nodeID)

	wfStatus, err := o.store.GetWorkflowStatus(ctx, executionID)
	if err != nil {
		return err
	}
	if wfStatus == domain.WorkflowStatusFailed {
		logger.Info("late completion of failed workflow ignored")
		return nil
	}
	if wfStatus == domain.WorkflowStatusCompleted {
		return nil
	}

	if err := o.store.PutNodeOutput(ctx, executionID, nodeID, output); err != nil {
		return err
	}
	if err := o.store.SetNodeStatus(ctx, executionID, nodeID, domain.NodeStatusCompleted); err != nil {
		return err
	}
	logger.Info("node completed")

	for _, childID := range graph.Children(nodeID) {
		ready, err := o.IsReady(ctx, executionID, childID, graph)
		if err != nil {
			return err
		}
		if !ready {
			continue
		}
		if _, err := o.DispatchOnce(ctx, executionID, childID, graph); err != nil {
			return err
		}
	}

	// Полный пересчёт: не зависит от порядка и повторов событий
	statuses, err := o.store.ListNodeStatuses(ctx, executionID, graph.Definition)
	if err != nil {
		return err
	}
	for _, status := range statuses {
		if status != domain.NodeStatusCompleted {
			return nil
		}
	}

	if err := o.store.SetWorkflowStatus(ctx, executionID, domain.WorkflowStatusCompleted); err != nil {
		return err
	}
	telemetry.WorkflowsFinished.WithLabelValues(string(domain.WorkflowStatusCompleted)).Inc()
	logger.Info("workflow completed")

	return nil
}

// OnNodeFailure помечает узел и workflow как FAILED.
// Уже запущенные узлы не отменяются, повторов нет.
func (o *Orchestrator) OnNodeFailure(ctx context.Context, executionID, nodeID, message string) error {
	o.logger.Warn("node failed",
		"execution_id", executionID,
		"node_id", nodeID,
		"error", message,
	)
	return o.failNode(ctx, executionID, nodeID, message)
}

// FailWorkflow записывает ошибку и переводит workflow в FAILED.
// Идемпотентно: последняя ошибка побеждает.
func (o *Orchestrator) FailWorkflow(ctx context.Context, executionID, message string) error {
	if err := o.store.SetError(ctx, executionID, message); err != nil {
		return err
	}
	if err := o.store.SetWorkflowStatus(ctx, executionID, domain.WorkflowStatusFailed); err != nil {
		return err
	}

	telemetry.WorkflowsFinished.WithLabelValues(string(domain.WorkflowStatusFailed)).Inc()
	o.logger.Warn("workflow failed", "execution_id", executionID, "error", message)
	return nil
}

// failNode — FAILED для узла и всего workflow.
func (o *Orchestrator) failNode(ctx context.Context, executionID, nodeID, message string) error {
	if err := o.FailWorkflow(ctx, executionID, message); err != nil {
		return err
	}
	return o.store.SetNodeStatus(ctx, executionID, nodeID, domain.NodeStatusFailed)
}
