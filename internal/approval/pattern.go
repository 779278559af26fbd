package approval

import "strings"

// PatternFor derives the "allow all like this" pattern for a tool call.
// Shell commands key on their first word; other tools key on their name.
func PatternFor(tool string, input any) string {
	if tool != "Bash" {
		return tool
	}
	fields := strings.Fields(stringField(input, "command"))
	if len(fields) == 0 {
		return "Bash:"
	}
	first := fields[0]
	switch {
	case strings.HasPrefix(first, "./"):
		return "Bash:./"
	case strings.HasPrefix(first, "/"):
		name := first[strings.LastIndex(first, "/")+1:]
		if name == "" {
			return "Bash:/"
		}
		return "Bash:" + name
	}
	return "Bash:" + first
}

// PreviewFor returns the one-line summary shown next to an approval prompt.
func PreviewFor(tool string, input any) string {
	switch tool {
	case "Bash":
		return stringField(input, "command")
	case "Edit", "Write", "MultiEdit":
		if p := stringField(input, "file_path"); p != "" {
			return p
		}
		return stringField(input, "filePath")
	}
	return ""
}

func stringField(input any, key string) string {
	m, ok := input.(map[string]any)
	if !ok {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
