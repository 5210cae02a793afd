// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go          — Handler с DI (сервис workflow, health, logger)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (recovery, logging, metrics)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - workflow_handler.go — обработчики для /workflows
//
// API принимает определения workflow, запускает их и отдаёт статус
// и результаты execution.
package api
