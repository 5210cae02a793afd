package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/dagrun/internal/domain"
)

// ParseDefinition разбирает WorkflowDefinition из JSON или YAML.
//
// YAML сначала декодируется в дерево, затем перекодируется в JSON,
// чтобы применились json-теги и нормализация NodeDefinition.
func ParseDefinition(data []byte) (*domain.WorkflowDefinition, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty document", ErrParseDefinition)
	}

	if !strings.HasPrefix(trimmed, "{") {
		var tree any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("%w: yaml: %v", ErrParseDefinition, err)
		}
		converted, err := json.Marshal(normalizeYAML(tree))
		if err != nil {
			return nil, fmt.Errorf("%w: yaml: %v", ErrParseDefinition, err)
		}
		data = converted
	}

	var def domain.WorkflowDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: json: %v", ErrParseDefinition, err)
	}

	return &def, nil
}

// normalizeYAML приводит map[any]any к map[string]any для encoding/json.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, item := range t {
			t[k] = normalizeYAML(item)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return out
	case []any:
		for i, item := range t {
			t[i] = normalizeYAML(item)
		}
		return t
	default:
		return v
	}
}
