package store

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time // нулевое значение — без TTL
}

// MemoryBackend — Backend в памяти процесса.
//
// Годится для тестов и QUEUE_BACKEND=local: состояние не переживает
// рестарт и не разделяется между процессами.
type MemoryBackend struct {
	mu   sync.Mutex
	data map[string]memoryEntry
	now  func() time.Time
}

// NewMemoryBackend создаёт пустой MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data: make(map[string]memoryEntry),
		now:  time.Now,
	}
}

// getLocked возвращает живую запись. Вызывать под mu.
func (m *MemoryBackend) getLocked(key string) (memoryEntry, bool) {
	e, ok := m.data[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.data, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (m *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.getLocked(key)
	return e.value, ok, nil
}

func (m *MemoryBackend) MGet(_ context.Context, keys []string) ([]*string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*string, len(keys))
	for i, key := range keys {
		if e, ok := m.getLocked(key); ok {
			v := e.value
			out[i] = &v
		}
	}
	return out, nil
}

func (m *MemoryBackend) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = memoryEntry{value: value}
	return nil
}

func (m *MemoryBackend) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.getLocked(key); ok {
		return false, nil
	}

	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.data[key] = e
	return true, nil
}

func (m *MemoryBackend) Batch(_ context.Context, ops []Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, op := range ops {
		if op.Delete {
			delete(m.data, op.Key)
			continue
		}
		m.data[op.Key] = memoryEntry{value: op.Value}
	}
	return nil
}

func (m *MemoryBackend) Ping(context.Context) error { return nil }

func (m *MemoryBackend) Close() error { return nil }

// NewMemoryStore — KVStore поверх нового MemoryBackend.
func NewMemoryStore() *KVStore {
	return New(NewMemoryBackend())
}
