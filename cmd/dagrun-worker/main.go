// dagrun Worker — выполняет узлы из очереди nodes.dispatch.
//
// Worker:
//   - Получает dispatch-сообщения из RabbitMQ
//   - Выполняет обработчик узла
//   - Записывает результат и запускает готовых потомков
//
// Workers масштабируются горизонтально.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/dagrun/internal/config"
	"github.com/shaiso/dagrun/internal/mq"
	"github.com/shaiso/dagrun/internal/orchestrator"
	"github.com/shaiso/dagrun/internal/store"
	"github.com/shaiso/dagrun/internal/telemetry"
	"github.com/shaiso/dagrun/internal/worker"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger("dagrun-worker")
	logger.Info("starting dagrun-worker")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// graceful shutdown
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

	// RabbitMQ
	conn, err := mq.NewConnection(mq.ConnectionConfig{URL: cfg.AMQPURL, Logger: logger})
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer conn.Close()
	logger.Info("RabbitMQ connected")

	if err := mq.SetupTopology(ctx, conn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	// Потомки узлов публикуются тем же воркером
	orch := orchestrator.New(orchestrator.Config{
		Store:      st,
		Dispatcher: mq.NewPublisher(conn, logger),
		LockTTL:    cfg.DispatchLockTTL(),
		Logger:     logger,
	})

	executor := worker.NewExecutor(worker.ExecutorConfig{
		Store:    st,
		Reporter: orch,
		Registry: worker.NewRegistry(worker.RegistryConfig{MockLatency: cfg.MockLatency}),
		Logger:   logger,
	})

	w := worker.New(worker.Config{
		Conn:        conn,
		Executor:    executor,
		Concurrency: cfg.WorkerConcurrency,
		Prefetch:    cfg.WorkerPrefetch,
		Logger:      logger,
	})

	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil || !conn.IsConnected() {
			rw.WriteHeader(http.StatusServiceUnavailable)
			rw.Write([]byte("unavailable"))
			return
		}
		rw.WriteHeader(http.StatusOK)
		rw.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.WorkerAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	// Останавливаем worker
	w.Stop()
	logger.Info("dagrun-worker stopped")
}
