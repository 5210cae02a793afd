package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/shaiso/dagrun/internal/mq"
	"github.com/shaiso/dagrun/internal/telemetry"
)

// Default configuration values.
const (
	defaultConcurrency = 8
	defaultPrefetch    = 16
)

// Worker потребляет dispatch-сообщения из RabbitMQ и выполняет узлы.
//
// Воркеры не хранят состояния и масштабируются горизонтально:
// несколько экземпляров читают одну очередь nodes.dispatch.
type Worker struct {
	conn     *mq.Connection
	executor *Executor
	consumer *mq.Consumer

	concurrency int
	prefetch    int

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Worker.
type Config struct {
	Conn     *mq.Connection
	Executor *Executor

	// Concurrency — параллельно выполняемые узлы (default: 8).
	Concurrency int

	// Prefetch — неподтверждённые сообщения на воркер (default: 16).
	Prefetch int

	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		conn:        cfg.Conn,
		executor:    cfg.Executor,
		concurrency: concurrency,
		prefetch:    prefetch,
		logger:      logger,
	}
}

// Start запускает consumer очереди nodes.dispatch.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker",
		"concurrency", w.concurrency,
		"prefetch", w.prefetch,
		"handlers", w.executor.Handlers(),
	)

	w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
		Queue:       mq.QueueNodeDispatch,
		Handler:     w.handleNodeDispatch,
		Prefetch:    w.prefetch,
		Concurrency: w.concurrency,
	})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("dispatch consumer error", "error", err)
		}
	}()

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}

	if w.consumer != nil {
		w.consumer.Stop()
	}

	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}

// handleNodeDispatch обрабатывает сообщение node.dispatch.
func (w *Worker) handleNodeDispatch(ctx context.Context, d *mq.Delivery) error {
	if d.Message.Type != mq.MessageTypeNodeDispatch {
		w.logger.Warn("unexpected message type dropped", "type", d.Message.Type, "message_id", d.Message.ID)
		return nil
	}

	payload, err := mq.ParsePayload[mq.NodeDispatchPayload](&d.Message)
	if err != nil {
		w.logger.Error("malformed dispatch payload dropped", "message_id", d.Message.ID, "error", err)
		return nil
	}

	logger := telemetry.WithNodeID(telemetry.WithExecutionID(w.logger, payload.ExecutionID), payload.NodeID)
	if d.Redelivered() {
		logger.Info("redelivered dispatch")
	}

	if _, err := w.executor.ExecuteNode(ctx, payload); err != nil {
		logger.Error("node execution error", "error", err)
		return err
	}
	return nil
}
