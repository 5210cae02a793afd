package api

import (
	"context"
	"log/slog"

	"github.com/shaiso/dagrun/internal/domain"
)

// WorkflowService — операции над execution, которые выставляет API.
type WorkflowService interface {
	Submit(ctx context.Context, def *domain.WorkflowDefinition) (string, error)
	Trigger(ctx context.Context, executionID string, params map[string]any) error
	Status(ctx context.Context, executionID string) (*domain.ExecutionStatus, error)
	Results(ctx context.Context, executionID string) (*domain.ExecutionResults, error)
}

// HealthChecker проверяет доступность зависимостей.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	workflows WorkflowService
	health    HealthChecker
	logger    *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Workflows WorkflowService

	// Health — опционально; без него /healthz всегда отвечает ok.
	Health HealthChecker

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		workflows: cfg.Workflows,
		health:    cfg.Health,
		logger:    logger,
	}
}
