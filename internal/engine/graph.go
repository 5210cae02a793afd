package engine

import (
	"github.com/shaiso/dagrun/internal/domain"
)

// Node — узел графа.
type Node struct {
	// Def — определение узла из WorkflowDefinition.
	Def *domain.NodeDefinition

	// ID — идентификатор узла.
	ID string

	// InDegree — количество зависимостей.
	InDegree int
}

// WorkflowGraph — граф, построенный из WorkflowDefinition.
//
// Не хранится: дешевле пересобрать из определения,
// заодно повторно проходит валидацию.
type WorkflowGraph struct {
	// Definition — исходное определение.
	Definition *domain.WorkflowDefinition

	// Nodes — все узлы (nodeID → Node).
	Nodes map[string]*Node

	// Order — ID узлов в порядке объявления.
	Order []string

	// Adjacency — nodeID → дочерние узлы (в порядке объявления детей).
	Adjacency map[string][]string

	// Parents — nodeID → прямые зависимости.
	Parents map[string][]string
}

// BuildGraph строит граф за один проход по зависимостям.
//
// Не проверяет граф: зависимости на неизвестные узлы попадают
// в Parents, но не в Adjacency. Для проверки используйте ValidateWorkflow.
func BuildGraph(def *domain.WorkflowDefinition) *WorkflowGraph {
	g := &WorkflowGraph{
		Definition: def,
		Nodes:      make(map[string]*Node, len(def.DAG.Nodes)),
		Order:      make([]string, 0, len(def.DAG.Nodes)),
		Adjacency:  make(map[string][]string, len(def.DAG.Nodes)),
		Parents:    make(map[string][]string, len(def.DAG.Nodes)),
	}

	for i := range def.DAG.Nodes {
		n := &def.DAG.Nodes[i]
		g.Nodes[n.ID] = &Node{Def: n, ID: n.ID}
		g.Order = append(g.Order, n.ID)
		g.Adjacency[n.ID] = []string{}
		g.Parents[n.ID] = []string{}
	}

	for i := range def.DAG.Nodes {
		n := &def.DAG.Nodes[i]
		for _, dep := range n.Dependencies {
			g.Parents[n.ID] = append(g.Parents[n.ID], dep)
			g.Nodes[n.ID].InDegree++
			if _, ok := g.Nodes[dep]; ok {
				g.Adjacency[dep] = append(g.Adjacency[dep], n.ID)
			}
		}
	}

	return g
}

// Roots возвращает узлы без зависимостей в порядке объявления.
func (g *WorkflowGraph) Roots() []string {
	roots := make([]string, 0)
	for _, id := range g.Order {
		if g.Nodes[id].InDegree == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// Children возвращает прямых потомков узла.
func (g *WorkflowGraph) Children(id string) []string {
	return g.Adjacency[id]
}

// ParentsOf возвращает прямые зависимости узла.
func (g *WorkflowGraph) ParentsOf(id string) []string {
	return g.Parents[id]
}

// GetNode возвращает узел по ID.
func (g *WorkflowGraph) GetNode(id string) *Node {
	return g.Nodes[id]
}

// Size возвращает количество узлов.
func (g *WorkflowGraph) Size() int {
	return len(g.Nodes)
}

// TopologicalOrder возвращает узлы в топологическом порядке (алгоритм Кана).
//
// Среди готовых узлов сохраняется порядок объявления.
// Вызывать только на проверенном графе.
func (g *WorkflowGraph) TopologicalOrder() []string {
	inDegree := make(map[string]int, len(g.Nodes))
	for id, node := range g.Nodes {
		inDegree[id] = node.InDegree
	}

	queue := g.Roots()
	order := make([]string, 0, len(g.Nodes))

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		for _, child := range g.Adjacency[id] {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	return order
}
