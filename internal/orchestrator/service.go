package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/shaiso/dagrun/internal/domain"
	"github.com/shaiso/dagrun/internal/engine"
	"github.com/shaiso/dagrun/internal/store"
)

// Submit проверяет определение и сохраняет его как новый execution (PENDING).
//
// Ошибка валидации возвращается как *engine.GraphValidationError,
// состояние при этом не меняется.
func (o *Orchestrator) Submit(ctx context.Context, def *domain.WorkflowDefinition) (string, error) {
	if _, err := engine.ValidateWorkflow(def); err != nil {
		return "", err
	}

	executionID := uuid.NewString()

	if err := o.store.PutDefinition(ctx, executionID, def); err != nil {
		return "", err
	}
	if err := o.store.SetWorkflowStatus(ctx, executionID, domain.WorkflowStatusPending); err != nil {
		return "", err
	}

	o.logger.Info("workflow submitted",
		"execution_id", executionID,
		"workflow", def.Name,
		"nodes", len(def.DAG.Nodes),
	)
	return executionID, nil
}

// Trigger повторно проверяет сохранённое определение и запускает execution.
//
// Повторный trigger сбрасывает состояние всех узлов.
func (o *Orchestrator) Trigger(ctx context.Context, executionID string, params map[string]any) error {
	def, err := o.loadDefinition(ctx, executionID)
	if err != nil {
		return err
	}

	graph, err := engine.ValidateWorkflow(def)
	if err != nil {
		return err
	}

	return o.Start(ctx, executionID, def, graph, params)
}

// Status возвращает статус workflow и всех узлов.
func (o *Orchestrator) Status(ctx context.Context, executionID string) (*domain.ExecutionStatus, error) {
	def, err := o.loadDefinition(ctx, executionID)
	if err != nil {
		return nil, err
	}

	status, err := o.workflowStatus(ctx, executionID)
	if err != nil {
		return nil, err
	}

	nodes, err := o.store.ListNodeStatuses(ctx, executionID, def)
	if err != nil {
		return nil, err
	}

	return &domain.ExecutionStatus{
		ExecutionID:  executionID,
		Status:       status,
		NodeStatuses: nodes,
	}, nil
}

// Results возвращает выходы завершённых узлов и ошибку, если она есть.
func (o *Orchestrator) Results(ctx context.Context, executionID string) (*domain.ExecutionResults, error) {
	def, err := o.loadDefinition(ctx, executionID)
	if err != nil {
		return nil, err
	}

	status, err := o.workflowStatus(ctx, executionID)
	if err != nil {
		return nil, err
	}

	outputs, err := o.store.ListOutputs(ctx, executionID, def)
	if err != nil {
		return nil, err
	}

	message, err := o.store.GetError(ctx, executionID)
	if err != nil {
		return nil, err
	}

	return &domain.ExecutionResults{
		ExecutionID: executionID,
		Status:      status,
		Results:     outputs,
		Error:       message,
	}, nil
}

// loadDefinition переводит store.ErrNotFound в ErrExecutionNotFound.
func (o *Orchestrator) loadDefinition(ctx context.Context, executionID string) (*domain.WorkflowDefinition, error) {
	def, err := o.store.GetDefinition(ctx, executionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrExecutionNotFound, executionID)
	}
	if err != nil {
		return nil, err
	}
	return def, nil
}

// workflowStatus — статус workflow; PENDING, если не записан.
func (o *Orchestrator) workflowStatus(ctx context.Context, executionID string) (domain.WorkflowStatus, error) {
	status, err := o.store.GetWorkflowStatus(ctx, executionID)
	if err != nil {
		return "", err
	}
	if status == "" {
		status = domain.WorkflowStatusPending
	}
	return status, nil
}
