package engine

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cast"
)

// ParamsKey — зарезервированный ключ контекста с параметрами trigger.
const ParamsKey = "params"

// tokenPattern — ссылка вида {{ node.field.nested }}.
var tokenPattern = regexp.MustCompile(`{{\s*([a-zA-Z0-9_\-\.]+)\s*}}`)

// Context — контекст разрешения шаблонов.
//
// Ключи верхнего уровня:
//   - ID родительских узлов → их выходы
//   - "params" → параметры, переданные в trigger
type Context map[string]any

// BuildContext собирает контекст из выходов родителей и параметров.
//
// params записываются последними и перекрывают узел с ID "params".
func BuildContext(parentOutputs map[string]map[string]any, params map[string]any) Context {
	ctx := make(Context, len(parentOutputs)+1)
	for id, out := range parentOutputs {
		ctx[id] = out
	}
	if params == nil {
		params = map[string]any{}
	}
	ctx[ParamsKey] = params
	return ctx
}

// Lookup ищет значение по пути через точку.
//
// Возвращает false, если какой-либо сегмент отсутствует, значение
// не является mapping или итоговое значение null.
func Lookup(path string, ctx Context) (any, bool) {
	var cur any = map[string]any(ctx)

	for _, seg := range strings.Split(path, ".") {
		switch m := cur.(type) {
		case map[string]any:
			v, ok := m[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]string:
			v, ok := m[seg]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}

	if cur == nil {
		return nil, false
	}
	return cur, true
}

// Resolve рекурсивно разрешает шаблоны в дереве конфигурации.
//
// Возвращает новое дерево, исходное не изменяется.
// Поддерживаемые узлы: map[string]any, []any, string; прочие
// скаляры возвращаются как есть.
func Resolve(value any, ctx Context) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			resolved, err := Resolve(item, ctx)
			if err != nil {
				return nil, err
			}
			out[key] = resolved
		}
		return out, nil

	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			resolved, err := Resolve(item, ctx)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil

	case []string:
		out := make([]any, len(v))
		for i, item := range v {
			resolved, err := ResolveString(item, ctx)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil

	case string:
		return ResolveString(v, ctx)

	default:
		return value, nil
	}
}

// ResolveString разрешает шаблоны в строке.
//
// Если вся строка (без пробелов по краям) — один шаблон, возвращается
// значение исходного типа. Иначе каждый шаблон заменяется строковым
// представлением значения.
func ResolveString(s string, ctx Context) (any, error) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}

	trimmed := strings.TrimSpace(s)
	if m := tokenPattern.FindStringSubmatchIndex(trimmed); m != nil && m[0] == 0 && m[1] == len(trimmed) {
		path := trimmed[m[2]:m[3]]
		v, ok := Lookup(path, ctx)
		if !ok {
			return nil, &TemplateResolutionError{Path: path}
		}
		return v, nil
	}

	var resolveErr error
	out := tokenPattern.ReplaceAllStringFunc(s, func(token string) string {
		if resolveErr != nil {
			return token
		}
		path := tokenPattern.FindStringSubmatch(token)[1]
		v, ok := Lookup(path, ctx)
		if !ok {
			resolveErr = &TemplateResolutionError{Path: path}
			return token
		}
		return stringify(v)
	})
	if resolveErr != nil {
		return nil, resolveErr
	}

	return out, nil
}

// ResolveConfig разрешает шаблоны в конфигурации узла.
func ResolveConfig(config map[string]any, ctx Context) (map[string]any, error) {
	if config == nil {
		return map[string]any{}, nil
	}

	resolved, err := Resolve(config, ctx)
	if err != nil {
		return nil, err
	}

	return resolved.(map[string]any), nil
}

// HasTemplates проверяет, содержит ли дерево конфигурации шаблоны.
func HasTemplates(value any) bool {
	switch v := value.(type) {
	case map[string]any:
		for _, item := range v {
			if HasTemplates(item) {
				return true
			}
		}
	case []any:
		for _, item := range v {
			if HasTemplates(item) {
				return true
			}
		}
	case string:
		return tokenPattern.MatchString(v)
	}
	return false
}

// stringify приводит значение к строке для встраивания в текст.
func stringify(v any) string {
	switch v.(type) {
	case map[string]any, []any, map[string]string, []string:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}

	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}
