package config

import (
	"errors"
	"testing"
	"time"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.StoreBackend != "redis" {
		t.Errorf("StoreBackend = %q, want redis", cfg.StoreBackend)
	}
	if cfg.QueueBackend != QueueAMQP {
		t.Errorf("QueueBackend = %q, want amqp", cfg.QueueBackend)
	}
	if cfg.DispatchLockTTL() != 60*time.Second {
		t.Errorf("DispatchLockTTL = %v, want 60s", cfg.DispatchLockTTL())
	}
	if cfg.APIAddr() != ":8080" || cfg.WorkerAddr() != ":8082" {
		t.Errorf("unexpected addrs %s %s", cfg.APIAddr(), cfg.WorkerAddr())
	}
	if cfg.WorkerConcurrency != 8 || cfg.WorkerPrefetch != 16 {
		t.Errorf("unexpected worker defaults %d/%d", cfg.WorkerConcurrency, cfg.WorkerPrefetch)
	}
	if !cfg.MockLatency {
		t.Error("MockLatency should default to true")
	}
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{
		"STORE_BACKEND":         "memory",
		"QUEUE_BACKEND":         "local",
		"REDIS_URL":             "redis://cache:6379/1",
		"DISPATCH_LOCK_TTL_SEC": "5",
		"API_PORT":              "9000",
		"MOCK_LATENCY":          "false",
		"WORKER_PREFETCH":       "",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.StoreBackend != "memory" || cfg.QueueBackend != QueueLocal {
		t.Errorf("backends not overridden: %+v", cfg)
	}
	if cfg.RedisURL != "redis://cache:6379/1" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.DispatchLockTTL() != 5*time.Second {
		t.Errorf("DispatchLockTTL = %v", cfg.DispatchLockTTL())
	}
	if cfg.APIAddr() != ":9000" {
		t.Errorf("APIAddr = %s", cfg.APIAddr())
	}
	if cfg.MockLatency {
		t.Error("MockLatency should be false")
	}
	if cfg.WorkerPrefetch != 16 {
		t.Errorf("empty value should keep default, got %d", cfg.WorkerPrefetch)
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"non-numeric port", map[string]string{"API_PORT": "http"}},
		{"zero concurrency", map[string]string{"WORKER_CONCURRENCY": "0"}},
		{"bad bool", map[string]string{"MOCK_LATENCY": "sometimes"}},
		{"unknown store", map[string]string{"STORE_BACKEND": "etcd"}},
		{"unknown queue", map[string]string{"QUEUE_BACKEND": "kafka"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(env(tt.env))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
