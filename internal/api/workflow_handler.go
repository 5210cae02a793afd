package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/shaiso/dagrun/internal/domain"
	"github.com/shaiso/dagrun/internal/engine"
	"github.com/shaiso/dagrun/internal/telemetry"
)

// maxDefinitionBytes — предельный размер тела с определением.
const maxDefinitionBytes = 4 << 20

// SubmitWorkflow проверяет определение и регистрирует execution.
// POST /api/v1/workflows
//
// Тело — WorkflowDefinition в JSON или YAML.
func (h *Handler) SubmitWorkflow(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDefinitionBytes))
	if err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	def, err := engine.ParseDefinition(data)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	executionID, err := h.workflows.Submit(r.Context(), def)
	if HandleServiceError(w, telemetry.FromContext(r.Context()), err) {
		return
	}

	Created(w, SubmitResponse{
		ExecutionID: executionID,
		Status:      domain.WorkflowStatusPending,
	})
}

// TriggerWorkflow запускает execution с параметрами.
// POST /api/v1/workflows/{id}/trigger
func (h *Handler) TriggerWorkflow(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req TriggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(w, "invalid request body")
		return
	}
	if req.Params == nil {
		req.Params = map[string]any{}
	}

	err := h.workflows.Trigger(r.Context(), id, req.Params)
	if HandleServiceError(w, telemetry.FromContext(r.Context()), err) {
		return
	}

	Success(w, TriggerResponse{ExecutionID: id, Status: "triggered"})
}

// GetWorkflowStatus возвращает статус workflow и узлов.
// GET /api/v1/workflows/{id}
func (h *Handler) GetWorkflowStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.workflows.Status(r.Context(), r.PathValue("id"))
	if HandleServiceError(w, telemetry.FromContext(r.Context()), err) {
		return
	}

	Success(w, status)
}

// GetWorkflowResults возвращает выходы узлов.
// GET /api/v1/workflows/{id}/results
func (h *Handler) GetWorkflowResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.workflows.Results(r.Context(), r.PathValue("id"))
	if HandleServiceError(w, telemetry.FromContext(r.Context()), err) {
		return
	}

	Success(w, results)
}

// Health проверяет хранилище.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Ping(r.Context()); err != nil {
			h.logger.Warn("health check failed", "error", err)
			JSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Error: err.Error()})
			return
		}
	}

	JSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
