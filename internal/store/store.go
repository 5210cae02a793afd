package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shaiso/dagrun/internal/domain"
)

// DefaultLockTTL — TTL dispatch lock по умолчанию.
const DefaultLockTTL = 60 * time.Second

// lockMarker — значение ключа dispatch lock.
const lockMarker = "1"

// Store — контракт состояния execution.
type Store interface {
	PutDefinition(ctx context.Context, executionID string, def *domain.WorkflowDefinition) error
	GetDefinition(ctx context.Context, executionID string) (*domain.WorkflowDefinition, error)

	SetWorkflowStatus(ctx context.Context, executionID string, status domain.WorkflowStatus) error
	GetWorkflowStatus(ctx context.Context, executionID string) (domain.WorkflowStatus, error)

	SetNodeStatus(ctx context.Context, executionID, nodeID string, status domain.NodeStatus) error
	GetNodeStatus(ctx context.Context, executionID, nodeID string) (domain.NodeStatus, error)

	PutNodeOutput(ctx context.Context, executionID, nodeID string, output map[string]any) error
	GetNodeOutput(ctx context.Context, executionID, nodeID string) (map[string]any, bool, error)

	PutParams(ctx context.Context, executionID string, params map[string]any) error
	GetParams(ctx context.Context, executionID string) (map[string]any, error)

	SetError(ctx context.Context, executionID, message string) error
	GetError(ctx context.Context, executionID string) (string, error)

	Init(ctx context.Context, executionID string, def *domain.WorkflowDefinition, params map[string]any) error
	TryAcquireDispatchLock(ctx context.Context, executionID, nodeID string, ttl time.Duration) (bool, error)

	ListNodeStatuses(ctx context.Context, executionID string, def *domain.WorkflowDefinition) (map[string]domain.NodeStatus, error)
	ListOutputs(ctx context.Context, executionID string, def *domain.WorkflowDefinition) (map[string]map[string]any, error)

	Ping(ctx context.Context) error
	Close() error
}

// KVStore — реализация Store поверх Backend.
type KVStore struct {
	backend Backend
}

// New создаёт KVStore.
func New(backend Backend) *KVStore {
	return &KVStore{backend: backend}
}

// PutDefinition сохраняет определение workflow.
func (s *KVStore) PutDefinition(ctx context.Context, executionID string, def *domain.WorkflowDefinition) error {
	data, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("marshal definition: %w", err)
	}
	if err := s.backend.Set(ctx, definitionKey(executionID), string(data)); err != nil {
		return fmt.Errorf("put definition: %w", err)
	}
	return nil
}

// GetDefinition возвращает определение; ErrNotFound, если execution неизвестен.
func (s *KVStore) GetDefinition(ctx context.Context, executionID string) (*domain.WorkflowDefinition, error) {
	raw, ok, err := s.backend.Get(ctx, definitionKey(executionID))
	if err != nil {
		return nil, fmt.Errorf("get definition: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: execution %s", ErrNotFound, executionID)
	}

	var def domain.WorkflowDefinition
	if err := json.Unmarshal([]byte(raw), &def); err != nil {
		return nil, fmt.Errorf("%w: definition of %s: %v", ErrCorruptValue, executionID, err)
	}
	return &def, nil
}

// SetWorkflowStatus записывает статус workflow.
func (s *KVStore) SetWorkflowStatus(ctx context.Context, executionID string, status domain.WorkflowStatus) error {
	if err := s.backend.Set(ctx, statusKey(executionID), string(status)); err != nil {
		return fmt.Errorf("set workflow status: %w", err)
	}
	return nil
}

// GetWorkflowStatus возвращает статус workflow; пустая строка, если не задан.
func (s *KVStore) GetWorkflowStatus(ctx context.Context, executionID string) (domain.WorkflowStatus, error) {
	raw, _, err := s.backend.Get(ctx, statusKey(executionID))
	if err != nil {
		return "", fmt.Errorf("get workflow status: %w", err)
	}
	return domain.WorkflowStatus(raw), nil
}

// SetNodeStatus записывает статус узла.
func (s *KVStore) SetNodeStatus(ctx context.Context, executionID, nodeID string, status domain.NodeStatus) error {
	if err := s.backend.Set(ctx, nodeStatusKey(executionID, nodeID), string(status)); err != nil {
		return fmt.Errorf("set node status: %w", err)
	}
	return nil
}

// GetNodeStatus возвращает статус узла; PENDING, если не задан.
func (s *KVStore) GetNodeStatus(ctx context.Context, executionID, nodeID string) (domain.NodeStatus, error) {
	raw, ok, err := s.backend.Get(ctx, nodeStatusKey(executionID, nodeID))
	if err != nil {
		return "", fmt.Errorf("get node status: %w", err)
	}
	if !ok {
		return domain.NodeStatusPending, nil
	}
	return domain.NodeStatus(raw), nil
}

// PutNodeOutput сохраняет выход узла.
func (s *KVStore) PutNodeOutput(ctx context.Context, executionID, nodeID string, output map[string]any) error {
	if output == nil {
		output = map[string]any{}
	}
	data, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("marshal node output: %w", err)
	}
	if err := s.backend.Set(ctx, nodeOutputKey(executionID, nodeID), string(data)); err != nil {
		return fmt.Errorf("put node output: %w", err)
	}
	return nil
}

// GetNodeOutput возвращает выход узла; false, если его нет.
func (s *KVStore) GetNodeOutput(ctx context.Context, executionID, nodeID string) (map[string]any, bool, error) {
	raw, ok, err := s.backend.Get(ctx, nodeOutputKey(executionID, nodeID))
	if err != nil {
		return nil, false, fmt.Errorf("get node output: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	out, err := decodeObject(raw)
	if err != nil {
		return nil, false, fmt.Errorf("output of %s/%s: %w", executionID, nodeID, err)
	}
	return out, true, nil
}

// PutParams сохраняет параметры trigger.
func (s *KVStore) PutParams(ctx context.Context, executionID string, params map[string]any) error {
	data, err := encodeObject(params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	if err := s.backend.Set(ctx, paramsKey(executionID), data); err != nil {
		return fmt.Errorf("put params: %w", err)
	}
	return nil
}

// GetParams возвращает параметры; пустой map, если не заданы.
func (s *KVStore) GetParams(ctx context.Context, executionID string) (map[string]any, error) {
	raw, ok, err := s.backend.Get(ctx, paramsKey(executionID))
	if err != nil {
		return nil, fmt.Errorf("get params: %w", err)
	}
	if !ok {
		return map[string]any{}, nil
	}

	params, err := decodeObject(raw)
	if err != nil {
		return nil, fmt.Errorf("params of %s: %w", executionID, err)
	}
	return params, nil
}

// SetError записывает текст ошибки workflow (последняя запись побеждает).
func (s *KVStore) SetError(ctx context.Context, executionID, message string) error {
	if err := s.backend.Set(ctx, errorKey(executionID), message); err != nil {
		return fmt.Errorf("set error: %w", err)
	}
	return nil
}

// GetError возвращает текст ошибки; пустая строка, если её нет.
func (s *KVStore) GetError(ctx context.Context, executionID string) (string, error) {
	raw, _, err := s.backend.Get(ctx, errorKey(executionID))
	if err != nil {
		return "", fmt.Errorf("get error: %w", err)
	}
	return raw, nil
}

// Init одной транзакцией переводит execution в RUNNING:
// сохраняет params, сбрасывает ошибку, все узлы — в PENDING
// без выходов и lock. Повторный trigger сбрасывает состояние узлов.
func (s *KVStore) Init(ctx context.Context, executionID string, def *domain.WorkflowDefinition, params map[string]any) error {
	data, err := encodeObject(params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	ops := make([]Op, 0, 3+3*len(def.DAG.Nodes))
	ops = append(ops,
		SetOp(statusKey(executionID), string(domain.WorkflowStatusRunning)),
		SetOp(paramsKey(executionID), data),
		DeleteOp(errorKey(executionID)),
	)
	for _, n := range def.DAG.Nodes {
		ops = append(ops,
			SetOp(nodeStatusKey(executionID, n.ID), string(domain.NodeStatusPending)),
			DeleteOp(nodeOutputKey(executionID, n.ID)),
			DeleteOp(nodeLockKey(executionID, n.ID)),
		)
	}

	if err := s.backend.Batch(ctx, ops); err != nil {
		return fmt.Errorf("init execution: %w", err)
	}
	return nil
}

// TryAcquireDispatchLock атомарно ставит lock узла с TTL.
//
// Lock никогда не снимается явно, только истекает.
func (s *KVStore) TryAcquireDispatchLock(ctx context.Context, executionID, nodeID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	ok, err := s.backend.SetNX(ctx, nodeLockKey(executionID, nodeID), lockMarker, ttl)
	if err != nil {
		return false, fmt.Errorf("acquire dispatch lock: %w", err)
	}
	return ok, nil
}

// ListNodeStatuses читает статусы всех узлов одним запросом.
// Незаданные статусы считаются PENDING.
func (s *KVStore) ListNodeStatuses(ctx context.Context, executionID string, def *domain.WorkflowDefinition) (map[string]domain.NodeStatus, error) {
	ids := def.NodeIDs()
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = nodeStatusKey(executionID, id)
	}

	values, err := s.backend.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("list node statuses: %w", err)
	}

	statuses := make(map[string]domain.NodeStatus, len(ids))
	for i, id := range ids {
		if values[i] == nil {
			statuses[id] = domain.NodeStatusPending
			continue
		}
		statuses[id] = domain.NodeStatus(*values[i])
	}
	return statuses, nil
}

// ListOutputs читает выходы всех узлов одним запросом.
// Узлы без выхода в результат не попадают.
func (s *KVStore) ListOutputs(ctx context.Context, executionID string, def *domain.WorkflowDefinition) (map[string]map[string]any, error) {
	ids := def.NodeIDs()
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = nodeOutputKey(executionID, id)
	}

	values, err := s.backend.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("list outputs: %w", err)
	}

	outputs := make(map[string]map[string]any)
	for i, id := range ids {
		if values[i] == nil {
			continue
		}
		out, err := decodeObject(*values[i])
		if err != nil {
			return nil, fmt.Errorf("output of %s/%s: %w", executionID, id, err)
		}
		outputs[id] = out
	}
	return outputs, nil
}

// Ping проверяет доступность backend.
func (s *KVStore) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// Close закрывает backend.
func (s *KVStore) Close() error {
	return s.backend.Close()
}

func encodeObject(v map[string]any) (string, error) {
	if v == nil {
		v = map[string]any{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeObject(raw string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptValue, err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
