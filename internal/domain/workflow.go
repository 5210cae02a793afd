package domain

import (
	"encoding/json"
	"regexp"
)

// nodeIDPattern — допустимые символы в ID узла.
var nodeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)

// ValidNodeID проверяет, что ID узла состоит из допустимых символов.
func ValidNodeID(id string) bool {
	return nodeIDPattern.MatchString(id)
}

// WorkflowDefinition — определение workflow, присланное клиентом.
//
// Сохраняется как есть (JSON) под ключом execution и
// больше не меняется.
type WorkflowDefinition struct {
	// Name — имя workflow.
	Name string `json:"name"`

	// DAG — граф узлов.
	DAG DAGDefinition `json:"dag"`
}

// DAGDefinition — упорядоченный список узлов.
//
// Порядок важен: в нём обходятся узлы при валидации
// и в нём же запускаются корневые узлы.
type DAGDefinition struct {
	Nodes []NodeDefinition `json:"nodes"`
}

// NodeDefinition — описание одного узла.
type NodeDefinition struct {
	// ID — уникальный в пределах DAG идентификатор.
	ID string `json:"id"`

	// Handler — имя обработчика, который выполнит узел.
	Handler string `json:"handler"`

	// Dependencies — ID узлов, которые должны завершиться раньше.
	Dependencies []string `json:"dependencies"`

	// Config — произвольное дерево конфигурации, может содержать
	// шаблоны вида {{ node.field }} и {{ params.x }}.
	Config map[string]any `json:"config"`
}

// NodeIDs возвращает ID узлов в порядке объявления.
func (d *WorkflowDefinition) NodeIDs() []string {
	ids := make([]string, 0, len(d.DAG.Nodes))
	for _, n := range d.DAG.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

// UnmarshalJSON нормализует пустые dependencies и config.
func (n *NodeDefinition) UnmarshalJSON(data []byte) error {
	type plain NodeDefinition
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Dependencies == nil {
		p.Dependencies = []string{}
	}
	if p.Config == nil {
		p.Config = map[string]any{}
	}
	*n = NodeDefinition(p)
	return nil
}
