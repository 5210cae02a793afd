// dagrun API — HTTP сервер для регистрации, запуска и просмотра workflow.
//
// С QUEUE_BACKEND=local узлы выполняются в этом же процессе,
// иначе dispatch-сообщения публикуются в RabbitMQ для dagrun-worker.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shaiso/dagrun/internal/api"
	"github.com/shaiso/dagrun/internal/config"
	"github.com/shaiso/dagrun/internal/mq"
	"github.com/shaiso/dagrun/internal/orchestrator"
	"github.com/shaiso/dagrun/internal/store"
	"github.com/shaiso/dagrun/internal/telemetry"
	"github.com/shaiso/dagrun/internal/worker"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger("dagrun-api")
	logger.Info("starting dagrun-api")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Ожидаем сигнал завершения
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(ctx, store.OpenConfig{
		Backend:     cfg.StoreBackend,
		RedisURL:    cfg.RedisURL,
		DatabaseURL: cfg.DatabaseURL,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("failed to open state store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// Очередь задач
	var dispatcher orchestrator.Dispatcher
	var queue *worker.LocalQueue
	execCtx, execCancel := context.WithCancel(context.Background())
	defer execCancel()

	switch cfg.QueueBackend {
	case config.QueueLocal:
		queue = worker.NewLocalQueue(execCtx, cfg.WorkerConcurrency, logger)
		dispatcher = queue
		logger.Info("executing nodes in-process", "concurrency", cfg.WorkerConcurrency)
	default:
		conn, err := mq.NewConnection(mq.ConnectionConfig{URL: cfg.AMQPURL, Logger: logger})
		if err != nil {
			logger.Error("failed to connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer conn.Close()

		if err := mq.SetupTopology(ctx, conn); err != nil {
			logger.Error("failed to setup topology", "error", err)
			os.Exit(1)
		}
		dispatcher = mq.NewPublisher(conn, logger)
		logger.Info("RabbitMQ connected")
	}

	orch := orchestrator.New(orchestrator.Config{
		Store:      st,
		Dispatcher: dispatcher,
		LockTTL:    cfg.DispatchLockTTL(),
		Logger:     logger,
	})

	if queue != nil {
		queue.Bind(worker.NewExecutor(worker.ExecutorConfig{
			Store:    st,
			Reporter: orch,
			Registry: worker.NewRegistry(worker.RegistryConfig{MockLatency: cfg.MockLatency}),
			Logger:   logger,
		}))
	}

	mux := http.NewServeMux()
	api.NewHandler(api.Config{
		Workflows: orch,
		Health:    st,
		Logger:    logger,
	}).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.APIAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	if queue != nil {
		drained := make(chan struct{})
		go func() {
			queue.Stop()
			close(drained)
		}()

		select {
		case <-drained:
		case <-shutdownCtx.Done():
			// Прерываем обработчики; узлы остаются RUNNING
			logger.Warn("local queue did not drain in time, cancelling running nodes")
			execCancel()
			<-drained
		}
	}

	logger.Info("stopped")
}
