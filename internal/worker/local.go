package worker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gammazero/workerpool"

	"github.com/shaiso/dagrun/internal/mq"
	"github.com/shaiso/dagrun/internal/telemetry"
)

// LocalQueue — очередь задач внутри процесса.
//
// Реализует orchestrator.Dispatcher без брокера: узлы выполняются
// на пуле горутин того же процесса. Executor привязывается через
// Bind после создания оркестратора.
type LocalQueue struct {
	pool   *workerpool.WorkerPool
	ctx    context.Context
	logger *slog.Logger

	mu       sync.RWMutex
	executor *Executor
	stopped  bool
	inflight sync.WaitGroup
}

// NewLocalQueue создаёт очередь с concurrency горутинами.
// ctx ограничивает время жизни выполняемых узлов.
func NewLocalQueue(ctx context.Context, concurrency int, logger *slog.Logger) *LocalQueue {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &LocalQueue{
		pool:   workerpool.New(concurrency),
		ctx:    ctx,
		logger: logger,
	}
}

// Bind задаёт Executor, выполняющий узлы.
func (q *LocalQueue) Bind(executor *Executor) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.executor = executor
	q.logger.Debug("local queue bound", "handlers", executor.Handlers())
}

// queuedKey помечает контекст узла, выполняемого очередью.
type queuedKey struct{}

// DispatchNode ставит узел в очередь.
//
// После Stop принимаются только потомки узлов, которые очередь
// ещё выполняет: остановка дожидается их, а не обрывает workflow.
func (q *LocalQueue) DispatchNode(ctx context.Context, payload mq.NodeDispatchPayload) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.stopped && ctx.Value(queuedKey{}) != q {
		return ErrQueueStopped
	}

	q.inflight.Add(1)
	q.pool.Submit(func() {
		defer q.inflight.Done()
		q.run(payload)
	})
	return nil
}

func (q *LocalQueue) run(payload mq.NodeDispatchPayload) {
	q.mu.RLock()
	executor := q.executor
	q.mu.RUnlock()

	logger := telemetry.WithNodeID(telemetry.WithExecutionID(q.logger, payload.ExecutionID), payload.NodeID)
	if executor == nil {
		logger.Error("local queue has no executor")
		return
	}

	ctx := context.WithValue(q.ctx, queuedKey{}, q)
	if _, err := executor.ExecuteNode(ctx, payload); err != nil {
		logger.Error("node execution error", "error", err)
	}
}

// Wait ждёт, пока не останется поставленных узлов, включая
// потомков, запущенных в процессе ожидания.
func (q *LocalQueue) Wait() {
	q.inflight.Wait()
}

// Stop перестаёт принимать новые узлы, дожидается выполнения
// очереди и останавливает пул.
func (q *LocalQueue) Stop() {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()

	q.Wait()
	q.pool.StopWait()
}
