// Package session holds per-agent state: the registry of live sessions, their
// transcripts, observed tool calls, todo lists and token usage.
package session

import (
	"time"

	"github.com/thajpo/ceo-dashboard/internal/usage"
)

// Status is the runtime-reported activity of a session. Runtimes may report
// values beyond the ones declared here; they are stored verbatim.
type Status string

const (
	StatusWorking        Status = "working"
	StatusIdle           Status = "idle"
	StatusNeedsAttention Status = "needs_attention"
)

// Mode is the autonomy level a session runs with.
type Mode string

const (
	ModePlan     Mode = "plan"
	ModeNormal   Mode = "normal"
	ModeAutoEdit Mode = "auto-edit"
	ModeYolo     Mode = "yolo"
)

// ParseMode normalizes a mode string. Unknown values fall back to ModeNormal,
// which is what the runtime starts sessions with.
func ParseMode(raw string) Mode {
	switch Mode(raw) {
	case ModePlan, ModeNormal, ModeAutoEdit, ModeYolo:
		return Mode(raw)
	}
	return ModeNormal
}

// Interaction is the kind of operator input a session is blocked on.
type Interaction string

const (
	InteractionNone     Interaction = ""
	InteractionApproval Interaction = "approval"
	InteractionQuestion Interaction = "question"
	InteractionPlan     Interaction = "plan"
)

// Role of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type ToolInvocation struct {
	Name  string    `json:"name"`
	Input any       `json:"input,omitempty"`
	At    time.Time `json:"at"`
}

type TodoItem struct {
	Content  string `json:"content"`
	Priority string `json:"priority,omitempty"`
	Status   string `json:"status"`
}

// Session is the client-side view of one running agent.
type Session struct {
	ID          string           `json:"id"`
	Project     string           `json:"project"`
	Status      Status           `json:"status"`
	Mode        Mode             `json:"mode"`
	Pending     Interaction      `json:"pending_interaction,omitempty"`
	Provisional bool             `json:"provisional,omitempty"`
	Messages    []Message        `json:"messages"`
	Tools       []ToolInvocation `json:"tools"`
	Todos       []TodoItem       `json:"todos"`
	Usage       usage.Counter    `json:"usage"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Clone returns a copy that shares no slices with s.
func (s *Session) Clone() Session {
	out := *s
	out.Messages = append([]Message(nil), s.Messages...)
	out.Tools = append([]ToolInvocation(nil), s.Tools...)
	out.Todos = append([]TodoItem(nil), s.Todos...)
	return out
}

// LastAssistant returns the content of the most recent assistant message.
func (s *Session) LastAssistant() (string, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i].Content, true
		}
	}
	return "", false
}
