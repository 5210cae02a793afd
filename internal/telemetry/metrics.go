package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NodesDispatched — узлы, переведённые в RUNNING и отправленные в очередь.
	NodesDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dagrun_nodes_dispatched_total",
		Help: "Nodes dispatched to the task queue.",
	})

	// DispatchLockContended — попытки dispatch, проигравшие lock.
	DispatchLockContended = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dagrun_dispatch_lock_contended_total",
		Help: "Dispatch attempts that did not acquire the node lock.",
	})

	// TemplateFailures — ошибки разрешения шаблонов при dispatch.
	TemplateFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dagrun_template_failures_total",
		Help: "Node configs that failed template resolution.",
	})

	// WorkflowsFinished — workflow, дошедшие до терминального статуса.
	WorkflowsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dagrun_workflows_finished_total",
		Help: "Workflows that reached a terminal status.",
	}, []string{"status"})

	// NodeExecutions — выполнения узлов воркером.
	NodeExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dagrun_node_executions_total",
		Help: "Node executions by handler and outcome.",
	}, []string{"handler", "status"})

	// NodeExecutionSeconds — длительность выполнения обработчика.
	NodeExecutionSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dagrun_node_execution_seconds",
		Help:    "Handler execution time.",
		Buckets: prometheus.DefBuckets,
	}, []string{"handler"})

	// HTTPRequests — запросы к API.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dagrun_api_http_requests_total",
		Help: "API requests by method, route pattern and status code.",
	}, []string{"method", "route", "code"})
)
