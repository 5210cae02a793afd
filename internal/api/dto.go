package api

import "github.com/shaiso/dagrun/internal/domain"

// SubmitResponse — ответ на регистрацию workflow.
type SubmitResponse struct {
	ExecutionID string                `json:"execution_id"`
	Status      domain.WorkflowStatus `json:"status"`
}

// TriggerRequest — запрос на запуск execution.
type TriggerRequest struct {
	Params map[string]any `json:"params,omitempty"`
}

// TriggerResponse — ответ на запуск execution.
type TriggerResponse struct {
	ExecutionID string `json:"execution_id"`
	Status      string `json:"status"`
}

// HealthResponse — ответ /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
