package domain

// WorkflowStatus — статус выполнения workflow (execution).
//
// Жизненный цикл:
//
//	PENDING → RUNNING → COMPLETED
//	                  ↘ FAILED
type WorkflowStatus string

const (
	// WorkflowStatusPending — определение сохранено, но ещё не запущено.
	WorkflowStatusPending WorkflowStatus = "PENDING"

	// WorkflowStatusRunning — execution запущен через trigger.
	WorkflowStatusRunning WorkflowStatus = "RUNNING"

	// WorkflowStatusCompleted — все узлы завершены успешно.
	WorkflowStatusCompleted WorkflowStatus = "COMPLETED"

	// WorkflowStatusFailed — хотя бы один узел упал или не разрешился шаблон.
	WorkflowStatusFailed WorkflowStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s WorkflowStatus) IsTerminal() bool {
	switch s {
	case WorkflowStatusCompleted, WorkflowStatusFailed:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление WorkflowStatus.
func (s WorkflowStatus) String() string {
	return string(s)
}

// NodeStatus — статус выполнения узла внутри execution.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → COMPLETED
//	                  ↘ FAILED
//
// Переход в RUNNING возможен только под dispatch lock.
type NodeStatus string

const (
	// NodeStatusPending — узел ждёт своих зависимостей.
	NodeStatusPending NodeStatus = "PENDING"

	// NodeStatusRunning — узел отправлен в очередь.
	NodeStatusRunning NodeStatus = "RUNNING"

	// NodeStatusCompleted — обработчик вернул результат.
	NodeStatusCompleted NodeStatus = "COMPLETED"

	// NodeStatusFailed — обработчик упал или не разрешился шаблон.
	NodeStatusFailed NodeStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s NodeStatus) IsTerminal() bool {
	switch s {
	case NodeStatusCompleted, NodeStatusFailed:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление NodeStatus.
func (s NodeStatus) String() string {
	return string(s)
}
