package session

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"
)

// RecordTool appends a tool invocation unless it repeats the previous one
// exactly. Returns whether the invocation was stored.
func (s *Session) RecordTool(name string, input any, at time.Time) bool {
	if n := len(s.Tools); n > 0 {
		last := s.Tools[n-1]
		if last.Name == name && reflect.DeepEqual(last.Input, input) {
			return false
		}
	}
	s.Tools = append(s.Tools, ToolInvocation{Name: name, Input: input, At: at})
	s.UpdatedAt = at
	return true
}

// SetTodos replaces the whole todo list.
func (s *Session) SetTodos(items []TodoItem, at time.Time) {
	s.Todos = append([]TodoItem(nil), items...)
	s.UpdatedAt = at
}

// TodosFromInput decodes the todo list carried by a TodoWrite tool input.
func TodosFromInput(input any) ([]TodoItem, bool) {
	m, ok := input.(map[string]any)
	if !ok {
		return nil, false
	}
	raw, ok := m["todos"]
	if !ok {
		return nil, false
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, false
	}
	var items []TodoItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	for i := range items {
		items[i].Priority = normalizePriority(items[i].Priority)
	}
	return items, true
}

func normalizePriority(p string) string {
	switch p = strings.ToLower(strings.TrimSpace(p)); p {
	case "high", "medium", "low":
		return p
	}
	return ""
}
