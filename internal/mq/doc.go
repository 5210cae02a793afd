// Package mq — транспорт dispatch-сообщений поверх RabbitMQ.
//
// Структура:
//   - connection.go — соединение с reconnect и publisher confirms
//   - topology.go   — exchanges, queues, bindings
//   - publisher.go  — публикация node.dispatch
//   - consumer.go   — потребление с ограниченным параллелизмом
//
// Доставка at-least-once: ошибка обработчика возвращает сообщение
// в очередь, битые сообщения уходят в dlq.nodes.
package mq
