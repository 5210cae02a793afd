package engine

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestBuildContext(t *testing.T) {
	ctx := BuildContext(map[string]map[string]any{
		"fetch":  {"data": "x"},
		"params": {"shadowed": true},
	}, map[string]any{"threshold": 2})

	if ctx["fetch"].(map[string]any)["data"] != "x" {
		t.Error("parent output should be present")
	}
	// params перекрывают узел с тем же ID
	if ctx[ParamsKey].(map[string]any)["threshold"] != 2 {
		t.Error("params should win over node named params")
	}

	ctx = BuildContext(nil, nil)
	if ctx[ParamsKey] == nil {
		t.Error("params should never be nil")
	}
}

func TestResolveString_FullMatchPreservesType(t *testing.T) {
	ctx := Context{
		"a": map[string]any{"value": map[string]any{"nested": 5}},
		"b": map[string]any{"list": []any{1, 2}},
	}

	tests := []struct {
		name     string
		template string
		expected any
	}{
		{name: "integer", template: "{{ a.value.nested }}", expected: 5},
		{name: "no spaces", template: "{{a.value.nested}}", expected: 5},
		{name: "surrounding whitespace", template: "  {{ a.value.nested }}\n", expected: 5},
		{name: "object", template: "{{ a.value }}", expected: map[string]any{"nested": 5}},
		{name: "list", template: "{{ b.list }}", expected: []any{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveString(tt.template, ctx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("expected %#v, got %#v", tt.expected, got)
			}
		})
	}
}

func TestResolveString_Embedded(t *testing.T) {
	ctx := Context{
		"params": map[string]any{"threshold": 2, "name": "bob", "ratio": 0.5, "on": true},
		"gen":    map[string]any{"text": "hi", "meta": map[string]any{"k": "v"}},
	}

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{name: "integer", template: "x{{ params.threshold }}y", expected: "x2y"},
		{name: "float", template: "r={{ params.ratio }}", expected: "r=0.5"},
		{name: "bool", template: "on={{ params.on }}", expected: "on=true"},
		{name: "multiple tokens", template: "{{ params.name }} says {{gen.text}}", expected: "bob says hi"},
		{name: "object as json", template: "meta: {{ gen.meta }}", expected: `meta: {"k":"v"}`},
		{name: "two tokens only", template: "{{ params.name }}{{ gen.text }}", expected: "bobhi"},
		{name: "no template", template: "plain", expected: "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveString(tt.template, ctx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestResolveString_Missing(t *testing.T) {
	ctx := Context{
		"params": map[string]any{"x": nil, "s": "str"},
		"a":      map[string]any{"b": 1},
	}

	tests := []struct {
		name     string
		template string
		path     string
	}{
		{name: "absent root", template: "{{ no.key }}", path: "no.key"},
		{name: "absent leaf", template: "{{ a.c }}", path: "a.c"},
		{name: "not traversable", template: "{{ a.b.c }}", path: "a.b.c"},
		{name: "null value", template: "{{ params.x }}", path: "params.x"},
		{name: "embedded", template: "v={{ params.s }}/{{ a.zz }}", path: "a.zz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveString(tt.template, ctx)
			if !errors.Is(err, ErrTemplateResolution) {
				t.Fatalf("expected ErrTemplateResolution, got %v", err)
			}
			var rerr *TemplateResolutionError
			if !errors.As(err, &rerr) || rerr.Path != tt.path {
				t.Errorf("expected path %q, got %v", tt.path, err)
			}
			if !strings.Contains(err.Error(), tt.path) {
				t.Errorf("message should mention path: %s", err)
			}
		})
	}
}

func TestResolve_Tree(t *testing.T) {
	ctx := BuildContext(map[string]map[string]any{
		"input": {"topic": "go", "n": 3},
	}, map[string]any{"lang": "en"})

	config := map[string]any{
		"prompt": "Write about {{ input.topic }} in {{ params.lang }}",
		"count":  "{{ input.n }}",
		"static": 42,
		"flag":   true,
		"nested": map[string]any{
			"items": []any{"{{ params.lang }}", 7, map[string]any{"deep": "{{ input.n }}"}},
		},
		"names": []string{"{{ input.topic }}"},
		"nil":   nil,
	}

	got, err := ResolveConfig(config, ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{
		"prompt": "Write about go in en",
		"count":  3,
		"static": 42,
		"flag":   true,
		"nested": map[string]any{
			"items": []any{"en", 7, map[string]any{"deep": 3}},
		},
		"names": []any{"go"},
		"nil":   nil,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %#v, got %#v", want, got)
	}

	// исходное дерево не меняется
	if config["count"] != "{{ input.n }}" {
		t.Error("input config must not be mutated")
	}
}

func TestResolveConfig_Nil(t *testing.T) {
	got, err := ResolveConfig(nil, Context{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty map, got %v", got)
	}
}

func TestResolveConfig_ErrorInNested(t *testing.T) {
	config := map[string]any{
		"list": []any{"ok", map[string]any{"bad": "{{ missing.path }}"}},
	}

	_, err := ResolveConfig(config, Context{})
	if !errors.Is(err, ErrTemplateResolution) {
		t.Errorf("expected ErrTemplateResolution, got %v", err)
	}
}

func TestHasTemplates(t *testing.T) {
	if !HasTemplates(map[string]any{"a": []any{"{{ x }}"}}) {
		t.Error("nested template should be detected")
	}
	if HasTemplates(map[string]any{"a": "plain", "b": 1}) {
		t.Error("plain config has no templates")
	}
}
