package events

import "strings"

// Fragment is text carried by an output or interrupt payload. Complete marks
// the final form of a turn, which replaces whatever was streamed before it.
type Fragment struct {
	Text     string
	Complete bool
}

func (f Fragment) Empty() bool {
	return f.Text == ""
}

// ExtractFragment pulls plain text from an agent stream-json object.
//
//	assistant                     text blocks of message.content, streamed
//	content_block_delta           delta.text, streamed
//	stream_event                  event.delta.text, streamed
//	result                        result, complete
//	text                          text, streamed
//
// Other payloads, including raw non-JSON lines, carry no fragment.
func ExtractFragment(content map[string]any) Fragment {
	if content == nil {
		return Fragment{}
	}
	switch str(content, "type") {
	case "assistant":
		msg, _ := content["message"].(map[string]any)
		return Fragment{Text: textBlocks(msg)}
	case "content_block_delta":
		return Fragment{Text: deltaText(content)}
	case "stream_event":
		ev, _ := content["event"].(map[string]any)
		if ev == nil || str(ev, "type") != "content_block_delta" {
			return Fragment{}
		}
		return Fragment{Text: deltaText(ev)}
	case "result":
		return Fragment{Text: str(content, "result"), Complete: true}
	case "text":
		return Fragment{Text: str(content, "text")}
	}
	return Fragment{}
}

// ExtractQuestion returns the prompt of an AskUserQuestion/AskHuman tool call
// or the plan of an ExitPlanMode call found in an assistant message.
func ExtractQuestion(content map[string]any) string {
	if str(content, "type") != "assistant" {
		return ""
	}
	msg, _ := content["message"].(map[string]any)
	blocks, _ := msg["content"].([]any)
	for _, b := range blocks {
		block, ok := b.(map[string]any)
		if !ok || str(block, "type") != "tool_use" {
			continue
		}
		input, _ := block["input"].(map[string]any)
		switch str(block, "name") {
		case "AskUserQuestion", "AskHuman":
			if q := str(input, "question"); q != "" {
				return q
			}
			if qs, ok := input["questions"].([]any); ok && len(qs) > 0 {
				if first, ok := qs[0].(map[string]any); ok {
					return str(first, "question")
				}
			}
		case "ExitPlanMode":
			if p := str(input, "plan"); p != "" {
				return p
			}
		}
	}
	return ""
}

func textBlocks(msg map[string]any) string {
	blocks, _ := msg["content"].([]any)
	var parts []string
	for _, b := range blocks {
		block, ok := b.(map[string]any)
		if !ok || str(block, "type") != "text" {
			continue
		}
		if t := str(block, "text"); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

func deltaText(m map[string]any) string {
	delta, _ := m["delta"].(map[string]any)
	if delta == nil {
		return ""
	}
	if t := str(delta, "type"); t != "" && t != "text_delta" {
		return ""
	}
	return str(delta, "text")
}

func str(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
