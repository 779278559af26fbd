package events

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMissingType    = errors.New("frame has no type")
	ErrMissingSession = errors.New("frame has no session id")
	ErrMalformed      = errors.New("malformed frame")
)

type toolFrame struct {
	Name  string `json:"name"`
	Input any    `json:"input"`
}

type inboundFrame struct {
	Type          string          `json:"type"`
	SessionID     string          `json:"session_id"`
	AgentID       string          `json:"agent_id"`
	Project       string          `json:"project"`
	Status        string          `json:"status"`
	Mode          string          `json:"mode"`
	Messages      []InitMessage   `json:"messages"`
	WaitingOnUser bool            `json:"waiting_on_user"`
	Tool          *toolFrame      `json:"tool"`
	Usage         map[string]any  `json:"usage"`
	Todos         any             `json:"todos"`
	InterruptType string          `json:"interrupt_type"`
	Content       json.RawMessage `json:"content"`

	RequestID      string `json:"request_id"`
	ToolName       string `json:"tool_name"`
	ToolInput      any    `json:"tool_input"`
	CommandDisplay string `json:"command_display"`
	Cwd            string `json:"cwd"`
	Pattern        string `json:"pattern"`

	Error string `json:"error"`
}

// Decode parses one inbound frame. The session id is read from session_id,
// falling back to agent_id.
func Decode(data []byte) (Event, error) {
	var f inboundFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	h := header{Session: f.SessionID}
	if h.Session == "" {
		h.Session = f.AgentID
	}

	if f.Type == "" {
		if f.Error != "" {
			return ErrorReported{header: h, Message: f.Error}, nil
		}
		return nil, ErrMissingType
	}
	if Type(f.Type) == TypeError {
		return ErrorReported{header: h, Message: f.Error}, nil
	}
	if h.Session == "" {
		return nil, fmt.Errorf("%s frame: %w", f.Type, ErrMissingSession)
	}

	switch Type(f.Type) {
	case TypeInit:
		return Init{
			header:        h,
			Project:       f.Project,
			Status:        f.Status,
			Mode:          f.Mode,
			Messages:      f.Messages,
			WaitingOnUser: f.WaitingOnUser,
		}, nil
	case TypeDeleted:
		return Deleted{header: h}, nil
	case TypeStatus:
		if f.Status == "" {
			return nil, fmt.Errorf("status frame without status: %w", ErrMalformed)
		}
		return StatusChanged{header: h, Status: f.Status}, nil
	case TypeMode:
		if f.Mode == "" {
			return nil, fmt.Errorf("mode frame without mode: %w", ErrMalformed)
		}
		return ModeChanged{header: h, Mode: f.Mode}, nil
	case TypeTool:
		if f.Tool == nil || f.Tool.Name == "" {
			return nil, fmt.Errorf("tool frame without name: %w", ErrMalformed)
		}
		return ToolUsed{header: h, Name: f.Tool.Name, Input: f.Tool.Input}, nil
	case TypeUsage:
		if f.Usage == nil {
			return nil, fmt.Errorf("usage frame without usage: %w", ErrMalformed)
		}
		return UsageReported{header: h, Usage: f.Usage}, nil
	case TypeTodos:
		return TodosReplaced{header: h, Todos: f.Todos}, nil
	case TypeInterrupt:
		content := decodeContent(f.Content)
		return Interrupt{
			header:   h,
			Kind:     f.InterruptType,
			Fragment: ExtractFragment(content),
			Question: ExtractQuestion(content),
		}, nil
	case TypeOutput:
		return Output{header: h, Fragment: ExtractFragment(decodeContent(f.Content))}, nil
	case TypeApprovalRequest:
		if f.RequestID == "" {
			return nil, fmt.Errorf("approval_request without request_id: %w", ErrMalformed)
		}
		return ApprovalRequested{
			header:         h,
			RequestID:      f.RequestID,
			ToolName:       f.ToolName,
			ToolInput:      f.ToolInput,
			CommandDisplay: f.CommandDisplay,
			Cwd:            f.Cwd,
			Pattern:        f.Pattern,
		}, nil
	}
	return Unknown{header: h, Kind: f.Type}, nil
}

// decodeContent returns the embedded payload as a map, or a string wrapped
// as {"text": s}. Anything else yields nil.
func decodeContent(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err == nil {
		return m
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return map[string]any{"type": "text", "text": s}
	}
	return nil
}
