package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrExecutionNotFound — execution с таким ID не существует.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrNodeNotFound — узла нет в графе execution.
	ErrNodeNotFound = errors.New("node not found in graph")

	// ErrNoDispatcher — оркестратор создан без Dispatcher.
	ErrNoDispatcher = errors.New("dispatcher is not configured")
)
