package store

import (
	"context"
	"time"
)

// Backend — минимальный key-value интерфейс под Store.
type Backend interface {
	// Get возвращает значение ключа; false, если ключа нет или он истёк.
	Get(ctx context.Context, key string) (string, bool, error)

	// MGet читает несколько ключей за один запрос.
	// Для отсутствующих ключей в результате nil.
	MGet(ctx context.Context, keys []string) ([]*string, error)

	// Set записывает значение без TTL (last-writer-wins).
	Set(ctx context.Context, key, value string) error

	// SetNX атомарно записывает значение с TTL, только если ключа нет.
	// Возвращает true только первому вызвавшему.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Batch применяет операции одной транзакцией.
	Batch(ctx context.Context, ops []Op) error

	// Ping проверяет доступность хранилища.
	Ping(ctx context.Context) error

	// Close освобождает соединения.
	Close() error
}

// Op — операция внутри Batch.
type Op struct {
	Key    string
	Value  string
	Delete bool
}

// SetOp создаёт операцию записи.
func SetOp(key, value string) Op {
	return Op{Key: key, Value: value}
}

// DeleteOp создаёт операцию удаления.
func DeleteOp(key string) Op {
	return Op{Key: key, Delete: true}
}
