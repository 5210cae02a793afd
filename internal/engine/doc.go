// Package engine содержит чистую логику над определением workflow.
//
// Включает:
//   - graph.go    — построение графа (adjacency, parents, in-degree, roots)
//   - validate.go — проверка определения: зависимости и циклы
//   - template.go — разрешение ссылок {{ node.field }} и {{ params.x }}
//   - parse.go    — разбор определения из JSON/YAML
//
// Пакет не обращается к хранилищу и очереди: всё, что нужно
// orchestrator и worker, вычисляется из WorkflowDefinition.
package engine
