// Package worker выполняет узлы workflow.
//
// # Обзор
//
// Worker — stateless компонент, который получает dispatch-сообщения
// из очереди nodes.dispatch, выполняет обработчик узла и сообщает
// результат оркестратору. Воркеры масштабируются горизонтально:
// несколько экземпляров читают одну очередь.
//
// # Ключевые компоненты
//
// ## Executor
//
// Точка входа выполнения узла (ExecuteNode):
//
//  1. Загрузка определения; неизвестный execution — сообщение отбрасывается
//  2. Повторная валидация графа; ошибка — FAILED
//  3. Узел уже COMPLETED — возвращается сохранённый выход
//  4. Узел уже FAILED — пустой выход, ничего не выполняется
//  5. Вызов обработчика; паника перехватывается и становится ошибкой узла
//  6. Ошибка — OnNodeFailure, успех — OnNodeSuccess
//
// ## Handler и Registry
//
// Handler выполняет узел конкретного типа. NewRegistry регистрирует
// встроенные обработчики:
//   - input — возвращает params execution
//   - call_external_service — mock внешнего вызова
//   - llm_generate — mock генерации текста по prompt
//   - output — собирает выходы родителей в "final"
//   - http — HTTP-запрос (method, url, headers, body, timeout_sec)
//   - delay — задержка на duration_sec
//   - transform — возвращает разрешённый config
//
// ## Worker
//
//	w := worker.New(worker.Config{
//	    Conn:        mqConn,
//	    Executor:    executor,
//	    Concurrency: 8,
//	    Logger:      logger,
//	})
//
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// ## LocalQueue
//
// Очередь внутри процесса для запуска без брокера:
//
//	queue := worker.NewLocalQueue(ctx, 8, logger)
//	orch := orchestrator.New(orchestrator.Config{Store: st, Dispatcher: queue})
//	queue.Bind(worker.NewExecutor(worker.ExecutorConfig{Store: st, Reporter: orch}))
//
// # Ошибки
//
// Ошибка обработчика — это ошибка узла: узел и workflow переходят
// в FAILED, сообщение подтверждается. Повторов нет.
// Ошибка хранилища возвращается из ExecuteNode, и сообщение
// возвращается в очередь.
package worker
