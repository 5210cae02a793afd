// Package orchestrator — конечный автомат выполнения workflow.
//
// Orchestrator не хранит состояние в памяти: всё читается и пишется
// через store.Store, поэтому его методы можно вызывать из любого
// процесса (API при trigger, воркеры при завершении узлов).
//
// Гарантии:
//   - узел переходит в RUNNING только под dispatch lock (SET NX + TTL),
//     поэтому параллельные проверки готовности дают один dispatch
//   - завершение workflow определяется полным пересчётом статусов,
//     а не счётчиком, и не зависит от порядка и повторов событий
//   - после FAILED новые узлы не запускаются, уже отправленные не отзываются
//
// Lock не снимается явно, только истекает. Если воркер умер, взяв узел,
// после истечения TTL узел может быть запущен повторно следующей
// проверкой готовности. Это at-least-once, а не exactly-once: обработчики
// должны переносить повторное выполнение.
package orchestrator
