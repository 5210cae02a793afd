// Package cli реализует инструмент командной строки dagrun.
//
// # Обзор
//
// CLI — клиентская утилита для работы с dagrun API по HTTP.
// Определения читаются из JSON или YAML и проверяются локально
// тем же engine.ValidateWorkflow, что и на сервере.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для API. Инкапсулирует запросы, разбор конверта
// {"data": ...} / {"error": ...} и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	status, err := client.GetStatus(executionID)
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr:
// dagrun workflow status ID --json | jq .
//
// ## Commands
//
//   - workflow: submit, trigger, status, results, wait, validate
//
// Группа создаётся через NewWorkflowCmd, принимающую clientFn и
// outputFn — замыкания для ленивого создания Client и Output после
// парсинга PersistentFlags.
package cli
