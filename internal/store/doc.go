// Package store реализует общее состояние execution поверх key-value хранилища.
//
// Store — узкий контракт, через который orchestrator и worker видят
// состояние: определение, статусы, выходы, параметры, ошибку и dispatch lock.
// Все операции сводятся к одиночным записям ключей и двум атомарным
// примитивам Backend:
//   - Batch — пачка set/delete одной транзакцией (Init)
//   - SetNX — "записать, если нет" с TTL (dispatch lock)
//
// Реализации Backend:
//   - redis.go    — Redis (основной, go-redis)
//   - postgres.go — таблица dagrun_kv в Postgres (pgx)
//   - memory.go   — в памяти процесса, для тестов и локального запуска
//
// Раскладка ключей описана в keys.go.
package store
