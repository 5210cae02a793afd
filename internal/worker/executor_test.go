package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/dagrun/internal/domain"
	"github.com/shaiso/dagrun/internal/mq"
	"github.com/shaiso/dagrun/internal/orchestrator"
	"github.com/shaiso/dagrun/internal/store"
)

func fanInDefinition() *domain.WorkflowDefinition {
	return &domain.WorkflowDefinition{
		Name: "fan-in",
		DAG: domain.DAGDefinition{Nodes: []domain.NodeDefinition{
			{ID: "in", Handler: "input", Dependencies: []string{}, Config: map[string]any{}},
			{ID: "ext", Handler: "call_external_service", Dependencies: []string{"in"}, Config: map[string]any{"url": "http://svc/{{ params.topic }}"}},
			{ID: "llm", Handler: "llm_generate", Dependencies: []string{"in"}, Config: map[string]any{"prompt": "Summarize {{ in.topic }}"}},
			{ID: "out", Handler: "output", Dependencies: []string{"ext", "llm"}, Config: map[string]any{}},
		}},
	}
}

type fixture struct {
	store    *store.KVStore
	orch     *orchestrator.Orchestrator
	queue    *LocalQueue
	registry *Registry
	executor *Executor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := store.NewMemoryStore()
	queue := NewLocalQueue(context.Background(), 4, nil)
	orch := orchestrator.New(orchestrator.Config{Store: st, Dispatcher: queue})
	registry := NewRegistry(RegistryConfig{})
	executor := NewExecutor(ExecutorConfig{Store: st, Reporter: orch, Registry: registry})
	queue.Bind(executor)
	t.Cleanup(queue.Stop)

	return &fixture{store: st, orch: orch, queue: queue, registry: registry, executor: executor}
}

// prepare создаёт RUNNING execution с узлом nodeID в RUNNING, без dispatch.
func (f *fixture) prepare(t *testing.T, def *domain.WorkflowDefinition, nodeID string) string {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.store.PutDefinition(ctx, "e1", def))
	require.NoError(t, f.store.Init(ctx, "e1", def, map[string]any{"topic": "go"}))
	require.NoError(t, f.store.SetNodeStatus(ctx, "e1", nodeID, domain.NodeStatusRunning))
	return "e1"
}

func singleNode(handler string) *domain.WorkflowDefinition {
	return &domain.WorkflowDefinition{
		Name: "single",
		DAG: domain.DAGDefinition{Nodes: []domain.NodeDefinition{
			{ID: "a", Handler: handler, Dependencies: []string{}, Config: map[string]any{}},
		}},
	}
}

func payload(id, node, handler string) mq.NodeDispatchPayload {
	return mq.NodeDispatchPayload{ExecutionID: id, NodeID: node, Handler: handler, Config: map[string]any{}}
}

func TestExecutor_Handlers(t *testing.T) {
	f := newFixture(t)
	f.registry.Register("custom", &TransformHandler{})

	names := f.executor.Handlers()
	assert.Contains(t, names, "custom")
	assert.Contains(t, names, "llm_generate")
	assert.Len(t, names, 8)
}

func TestExecuteNode_UnknownExecution(t *testing.T) {
	f := newFixture(t)

	out, err := f.executor.ExecuteNode(context.Background(), payload("missing", "a", "input"))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestExecuteNode_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.prepare(t, singleNode("llm_generate"), "a")

	p := payload(id, "a", "llm_generate")
	p.Config = map[string]any{"prompt": "hi"}

	out, err := f.executor.ExecuteNode(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "mock_response: hi", out["text"])

	status, err := f.store.GetNodeStatus(ctx, id, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.NodeStatusCompleted, status)

	wf, err := f.store.GetWorkflowStatus(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.WorkflowStatusCompleted, wf)
}

func TestExecuteNode_CompletedReturnsStoredOutput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.prepare(t, singleNode("counting"), "a")

	var calls atomic.Int32
	f.registry.Register("counting", HandlerFunc(func(context.Context, *Request) (map[string]any, error) {
		calls.Add(1)
		return map[string]any{}, nil
	}))

	require.NoError(t, f.store.PutNodeOutput(ctx, id, "a", map[string]any{"cached": true}))
	require.NoError(t, f.store.SetNodeStatus(ctx, id, "a", domain.NodeStatusCompleted))

	out, err := f.executor.ExecuteNode(ctx, payload(id, "a", "counting"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"cached": true}, out)
	assert.Zero(t, calls.Load())
}

// flakyLockStore отказывает в первом захвате dispatch lock.
type flakyLockStore struct {
	store.Store
	failed atomic.Bool
}

func (s *flakyLockStore) TryAcquireDispatchLock(ctx context.Context, executionID, nodeID string, ttl time.Duration) (bool, error) {
	if s.failed.CompareAndSwap(false, true) {
		return false, errStoreUnavailable
	}
	return s.Store.TryAcquireDispatchLock(ctx, executionID, nodeID, ttl)
}

var errStoreUnavailable = errors.New("store unavailable")

// recordingDispatcher запоминает узлы, отправленные на выполнение.
type recordingDispatcher struct {
	mu    sync.Mutex
	nodes []string
}

func (d *recordingDispatcher) DispatchNode(_ context.Context, p mq.NodeDispatchPayload) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nodes = append(d.nodes, p.NodeID)
	return nil
}

func TestExecuteNode_RedeliveryRepeatsFanOut(t *testing.T) {
	ctx := context.Background()

	def := &domain.WorkflowDefinition{
		Name: "chain",
		DAG: domain.DAGDefinition{Nodes: []domain.NodeDefinition{
			{ID: "a", Handler: "transform", Dependencies: []string{}, Config: map[string]any{}},
			{ID: "b", Handler: "transform", Dependencies: []string{"a"}, Config: map[string]any{}},
		}},
	}

	st := &flakyLockStore{Store: store.NewMemoryStore()}
	dispatcher := &recordingDispatcher{}
	orch := orchestrator.New(orchestrator.Config{Store: st, Dispatcher: dispatcher})
	executor := NewExecutor(ExecutorConfig{Store: st, Reporter: orch})

	require.NoError(t, st.PutDefinition(ctx, "e1", def))
	require.NoError(t, st.Init(ctx, "e1", def, map[string]any{}))
	require.NoError(t, st.SetNodeStatus(ctx, "e1", "a", domain.NodeStatusRunning))

	p := payload("e1", "a", "transform")
	p.Config = map[string]any{"v": "x"}

	_, err := executor.ExecuteNode(ctx, p)
	require.ErrorIs(t, err, errStoreUnavailable)

	status, err := st.GetNodeStatus(ctx, "e1", "a")
	require.NoError(t, err)
	assert.Equal(t, domain.NodeStatusCompleted, status)
	assert.Empty(t, dispatcher.nodes)

	// Повторная доставка того же сообщения
	out, err := executor.ExecuteNode(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"v": "x"}, out)

	status, err = st.GetNodeStatus(ctx, "e1", "b")
	require.NoError(t, err)
	assert.Equal(t, domain.NodeStatusRunning, status)
	assert.Equal(t, []string{"b"}, dispatcher.nodes)

	wf, err := st.GetWorkflowStatus(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, domain.WorkflowStatusRunning, wf)
}

func TestExecuteNode_FailedIsSkipped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.prepare(t, singleNode("counting"), "a")

	var calls atomic.Int32
	f.registry.Register("counting", HandlerFunc(func(context.Context, *Request) (map[string]any, error) {
		calls.Add(1)
		return map[string]any{}, nil
	}))
	require.NoError(t, f.store.SetNodeStatus(ctx, id, "a", domain.NodeStatusFailed))

	out, err := f.executor.ExecuteNode(ctx, payload(id, "a", "counting"))
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, calls.Load())
}

func TestExecuteNode_HandlerError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.prepare(t, singleNode("broken"), "a")

	f.registry.Register("broken", HandlerFunc(func(context.Context, *Request) (map[string]any, error) {
		return nil, errors.New("upstream unavailable")
	}))

	out, err := f.executor.ExecuteNode(ctx, payload(id, "a", "broken"))
	require.NoError(t, err)
	assert.Empty(t, out)

	res, err := f.orch.Results(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.WorkflowStatusFailed, res.Status)
	assert.Equal(t, "upstream unavailable", res.Error)

	status, err := f.store.GetNodeStatus(ctx, id, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.NodeStatusFailed, status)
}

func TestExecuteNode_Panic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.prepare(t, singleNode("panics"), "a")

	f.registry.Register("panics", HandlerFunc(func(context.Context, *Request) (map[string]any, error) {
		panic("nil map")
	}))

	_, err := f.executor.ExecuteNode(ctx, payload(id, "a", "panics"))
	require.NoError(t, err)

	msg, err := f.store.GetError(ctx, id)
	require.NoError(t, err)
	assert.Contains(t, msg, "handler panicked: nil map")
}

func TestExecuteNode_UnknownHandler(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.prepare(t, singleNode("nope"), "a")

	_, err := f.executor.ExecuteNode(ctx, payload(id, "a", "nope"))
	require.NoError(t, err)

	msg, err := f.store.GetError(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "unknown handler: nope", msg)
}

func TestExecuteNode_CancelledIsNotFailure(t *testing.T) {
	f := newFixture(t)
	id := f.prepare(t, singleNode("delay"), "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := payload(id, "a", "delay")
	p.Config = map[string]any{"duration_sec": 10}

	_, err := f.executor.ExecuteNode(ctx, p)
	require.ErrorIs(t, err, context.Canceled)

	status, err := f.store.GetNodeStatus(context.Background(), id, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.NodeStatusRunning, status)
}

// --- LocalQueue ---

func TestLocalQueue_RunsWorkflowToCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.orch.Submit(ctx, fanInDefinition())
	require.NoError(t, err)
	require.NoError(t, f.orch.Trigger(ctx, id, map[string]any{"topic": "go"}))

	f.queue.Wait()

	res, err := f.orch.Results(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.WorkflowStatusCompleted, res.Status)
	assert.Empty(t, res.Error)
	assert.Len(t, res.Results, 4)

	assert.Equal(t, "mock_response: Summarize go", res.Results["llm"]["text"])
	assert.Equal(t, "http://svc/go", res.Results["ext"]["url"])

	final, ok := res.Results["out"]["final"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, final, "ext")
	assert.Contains(t, final, "llm")
}

func TestLocalQueue_FailureStopsWorkflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	def := fanInDefinition()
	def.DAG.Nodes[2].Config = map[string]any{"prompt": "{{ in.missing }}"}

	id, err := f.orch.Submit(ctx, def)
	require.NoError(t, err)
	require.NoError(t, f.orch.Trigger(ctx, id, map[string]any{"topic": "go"}))

	f.queue.Wait()

	st, err := f.orch.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.WorkflowStatusFailed, st.Status)
	assert.Equal(t, domain.NodeStatusFailed, st.NodeStatuses["llm"])
	assert.Equal(t, domain.NodeStatusPending, st.NodeStatuses["out"])
}

func TestLocalQueue_StoppedRejectsDispatch(t *testing.T) {
	q := NewLocalQueue(context.Background(), 1, nil)
	q.Stop()

	err := q.DispatchNode(context.Background(), payload("e1", "a", "input"))
	assert.ErrorIs(t, err, ErrQueueStopped)
}

func TestLocalQueue_StopDrainsInFlightChildren(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	f.registry.Register("gate", HandlerFunc(func(context.Context, *Request) (map[string]any, error) {
		close(entered)
		<-release
		return map[string]any{"ok": true}, nil
	}))

	def := &domain.WorkflowDefinition{
		Name: "gated",
		DAG: domain.DAGDefinition{Nodes: []domain.NodeDefinition{
			{ID: "a", Handler: "gate", Dependencies: []string{}, Config: map[string]any{}},
			{ID: "b", Handler: "transform", Dependencies: []string{"a"}, Config: map[string]any{"from": "{{ a.ok }}"}},
		}},
	}

	id, err := f.orch.Submit(ctx, def)
	require.NoError(t, err)
	require.NoError(t, f.orch.Trigger(ctx, id, nil))
	<-entered

	stopped := make(chan struct{})
	go func() {
		f.queue.Stop()
		close(stopped)
	}()

	// Внешний dispatch после Stop отклоняется
	require.Eventually(t, func() bool {
		return errors.Is(f.queue.DispatchNode(ctx, payload("other", "a", "input")), ErrQueueStopped)
	}, time.Second, 5*time.Millisecond)

	close(release)
	<-stopped

	st, err := f.orch.Status(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.WorkflowStatusCompleted, st.Status)
	assert.Equal(t, domain.NodeStatusCompleted, st.NodeStatuses["b"])
}
