package domain

// ExecutionStatus — снимок состояния execution для API.
type ExecutionStatus struct {
	ExecutionID  string                `json:"execution_id"`
	Status       WorkflowStatus        `json:"status"`
	NodeStatuses map[string]NodeStatus `json:"node_statuses"`
}

// ExecutionResults — результаты execution.
//
// Results содержит выходы только тех узлов, которые успели завершиться.
type ExecutionResults struct {
	ExecutionID string                    `json:"execution_id"`
	Status      WorkflowStatus            `json:"status"`
	Results     map[string]map[string]any `json:"results"`
	Error       string                    `json:"error,omitempty"`
}
