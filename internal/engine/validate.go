package engine

import (
	"fmt"

	"github.com/shaiso/dagrun/internal/domain"
)

// ValidateWorkflow проверяет определение и возвращает построенный граф.
//
// Порядок проверок:
//  1. форма узлов (ID, уникальность, handler)
//  2. все зависимости существуют
//  3. отсутствие циклов (DFS с явным стеком)
//
// Обход детерминирован (порядок объявления), поэтому сообщения об
// ошибках воспроизводимы.
func ValidateWorkflow(def *domain.WorkflowDefinition) (*WorkflowGraph, error) {
	if def == nil || len(def.DAG.Nodes) == 0 {
		return nil, NewGraphValidationError("", "", "dag has no nodes", ErrEmptyDAG)
	}

	if err := validateNodes(def.DAG.Nodes); err != nil {
		return nil, err
	}

	if err := validateDependencies(def.DAG.Nodes); err != nil {
		return nil, err
	}

	g := BuildGraph(def)

	if err := detectCycle(g); err != nil {
		return nil, err
	}

	return g, nil
}

// validateNodes проверяет ID и handler каждого узла.
func validateNodes(nodes []domain.NodeDefinition) error {
	seen := make(map[string]bool, len(nodes))

	for _, n := range nodes {
		if !domain.ValidNodeID(n.ID) {
			return NewGraphValidationError(n.ID, "",
				fmt.Sprintf("invalid node id %q", n.ID), ErrInvalidNodeID)
		}
		if seen[n.ID] {
			return NewGraphValidationError(n.ID, "",
				fmt.Sprintf("duplicate node id detected: %s", n.ID), ErrDuplicateNodeID)
		}
		seen[n.ID] = true

		if n.Handler == "" {
			return NewGraphValidationError(n.ID, "",
				fmt.Sprintf("node %s has empty handler", n.ID), ErrEmptyHandler)
		}
	}

	return nil
}

// validateDependencies проверяет, что все зависимости ссылаются на существующие узлы.
func validateDependencies(nodes []domain.NodeDefinition) error {
	ids := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = true
	}

	for _, n := range nodes {
		for _, dep := range n.Dependencies {
			if !ids[dep] {
				return NewGraphValidationError(n.ID, dep,
					fmt.Sprintf("node %s references missing dependency %s", n.ID, dep),
					ErrMissingDependency)
			}
		}
	}

	return nil
}

// dfsFrame — кадр явного стека обхода: узел и индекс следующего ребёнка.
type dfsFrame struct {
	id   string
	next int
}

// detectCycle ищет цикл обходом в глубину без рекурсии.
//
// onStack — узлы текущего пути, visited — полностью обработанные.
// Встреча узла из onStack означает цикл.
func detectCycle(g *WorkflowGraph) error {
	visited := make(map[string]bool, len(g.Nodes))
	onStack := make(map[string]bool, len(g.Nodes))

	for _, start := range g.Order {
		if visited[start] {
			continue
		}

		stack := []dfsFrame{{id: start}}
		visited[start] = true
		onStack[start] = true

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			children := g.Adjacency[top.id]

			if top.next >= len(children) {
				onStack[top.id] = false
				stack = stack[:len(stack)-1]
				continue
			}

			child := children[top.next]
			top.next++

			if onStack[child] {
				return NewGraphValidationError(child, "",
					fmt.Sprintf("cycle detected involving node %s", child), ErrCycleDetected)
			}
			if visited[child] {
				continue
			}

			visited[child] = true
			onStack[child] = true
			stack = append(stack, dfsFrame{id: child})
		}
	}

	return nil
}
