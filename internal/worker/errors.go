package worker

import "errors"

// Ошибки воркера.
var (
	// ErrUnknownHandler — нет обработчика с таким именем.
	ErrUnknownHandler = errors.New("unknown handler")

	// ErrHandlerPanic — обработчик запаниковал.
	ErrHandlerPanic = errors.New("handler panicked")

	// ErrHTTPRequest — HTTP-запрос завершился ошибкой.
	ErrHTTPRequest = errors.New("http request failed")

	// ErrQueueStopped — локальная очередь остановлена.
	ErrQueueStopped = errors.New("local queue stopped")
)
