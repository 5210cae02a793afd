package engine

import "errors"

// Ошибки валидации WorkflowDefinition.
var (
	// ErrEmptyDAG — DAG не содержит узлов.
	ErrEmptyDAG = errors.New("dag has no nodes")

	// ErrInvalidNodeID — ID узла пустой или содержит недопустимые символы.
	ErrInvalidNodeID = errors.New("invalid node id")

	// ErrDuplicateNodeID — несколько узлов с одинаковым ID.
	ErrDuplicateNodeID = errors.New("duplicate node id")

	// ErrEmptyHandler — у узла не указан обработчик.
	ErrEmptyHandler = errors.New("node has empty handler")

	// ErrMissingDependency — узел зависит от несуществующего узла.
	ErrMissingDependency = errors.New("missing dependency")

	// ErrCycleDetected — обнаружен цикл в зависимостях.
	ErrCycleDetected = errors.New("cycle detected")
)

// Ошибки разрешения шаблонов.
var (
	// ErrTemplateResolution — путь из шаблона не найден в контексте.
	ErrTemplateResolution = errors.New("template resolution failed")
)

// Ошибки разбора определения.
var (
	// ErrParseDefinition — не удалось разобрать JSON/YAML определение.
	ErrParseDefinition = errors.New("parse workflow definition")
)

// GraphValidationError — ошибка валидации графа с контекстом.
type GraphValidationError struct {
	NodeID     string // ID узла, где произошла ошибка
	Dependency string // зависимость (для ErrMissingDependency)
	Message    string // описание ошибки
	Err        error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *GraphValidationError) Error() string {
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *GraphValidationError) Unwrap() error {
	return e.Err
}

// NewGraphValidationError создаёт новую ошибку валидации.
func NewGraphValidationError(nodeID, dependency, message string, err error) *GraphValidationError {
	return &GraphValidationError{
		NodeID:     nodeID,
		Dependency: dependency,
		Message:    message,
		Err:        err,
	}
}

// TemplateResolutionError — шаблон ссылается на отсутствующие данные.
type TemplateResolutionError struct {
	Path string
}

// Error реализует интерфейс error.
func (e *TemplateResolutionError) Error() string {
	return "missing data for template " + e.Path
}

// Unwrap возвращает ErrTemplateResolution.
func (e *TemplateResolutionError) Unwrap() error {
	return ErrTemplateResolution
}
