package engine

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ============================================================================
// Variable Substitution
// ============================================================================

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// ReplaceVariables sustituye cada {{name}} por el valor de la variable.
// Missing variables render as an empty string; objects and arrays render
// as JSON.
func ReplaceVariables(text string, variables map[string]any) string {
	if text == "" {
		return text
	}
	return variablePattern.ReplaceAllStringFunc(text, func(match string) string {
		name := strings.TrimSpace(match[2 : len(match)-2])
		value, ok := variables[name]
		if !ok {
			return ""
		}
		return ValueToString(value)
	})
}

// ReplaceVariablesInValue aplica la sustitución recursivamente sobre
// strings, maps y slices (headers y body de api_call).
func ReplaceVariablesInValue(value any, variables map[string]any) any {
	switch v := value.(type) {
	case string:
		return ReplaceVariables(v, variables)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = ReplaceVariablesInValue(item, variables)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = ReplaceVariablesInValue(item, variables)
		}
		return out
	default:
		return value
	}
}

// ExtractVariables lista los nombres de variable referenciados en el texto
func ExtractVariables(text string) []string {
	if text == "" {
		return nil
	}
	seen := map[string]bool{}
	var names []string
	for _, match := range variablePattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(match[1])
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// HasVariables reports whether the text contains any {{name}} placeholder.
func HasVariables(text string) bool {
	return variablePattern.MatchString(text)
}

// ValueToString renderiza un valor de variable como texto
func ValueToString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		// JSON numbers decode as float64; keep integers clean
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	case bool:
		return fmt.Sprintf("%t", v)
	case map[string]any, []any:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(raw)
	default:
		return fmt.Sprintf("%v", v)
	}
}
