// Package approval correlates operator decisions with the tool-execution
// requests the agent runtime is blocked on.
package approval

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrUnknownRequest is returned when a decision names a request that is not
// the session's active one.
var ErrUnknownRequest = errors.New("unknown approval request")

type Decision string

const (
	Allow Decision = "allow"
	Deny  Decision = "deny"
)

// ParseDecision accepts "allow" and "deny".
func ParseDecision(raw string) (Decision, error) {
	switch d := Decision(raw); d {
	case Allow, Deny:
		return d, nil
	}
	return "", fmt.Errorf("invalid decision %q", raw)
}

// Request is a pending tool execution awaiting the operator.
type Request struct {
	ID             string    `json:"request_id"`
	SessionID      string    `json:"session_id"`
	ToolName       string    `json:"tool_name"`
	ToolInput      any       `json:"tool_input"`
	CommandPreview string    `json:"command_display"`
	Cwd            string    `json:"cwd,omitempty"`
	Pattern        string    `json:"pattern,omitempty"`
	ReceivedAt     time.Time `json:"received_at"`
}

// Response is the approval_response frame sent back to the runtime.
type Response struct {
	Type      string   `json:"type"`
	RequestID string   `json:"request_id"`
	SessionID string   `json:"session_id"`
	AgentID   string   `json:"agent_id"`
	Decision  Decision `json:"decision"`
	Pattern   string   `json:"pattern,omitempty"`
	ToolInput any      `json:"tool_input"`
}

// Correlator tracks at most one active request per session.
// Not safe for concurrent use; the router loop owns it.
type Correlator struct {
	active map[string]*Request
}

func NewCorrelator() *Correlator {
	return &Correlator{active: make(map[string]*Request)}
}

// Open makes req the session's active request. A previous active request for
// the same session is returned so the caller can log that it was superseded.
func (c *Correlator) Open(req Request) *Request {
	if req.CommandPreview == "" {
		req.CommandPreview = PreviewFor(req.ToolName, req.ToolInput)
	}
	if req.Pattern == "" {
		req.Pattern = PatternFor(req.ToolName, req.ToolInput)
	}
	prev := c.active[req.SessionID]
	c.active[req.SessionID] = &req
	return prev
}

// Resolve closes the active request and builds the response frame. The
// pattern is only forwarded on allow.
func (c *Correlator) Resolve(requestID, sessionID string, decision Decision, pattern string) (Response, error) {
	req, ok := c.active[sessionID]
	if !ok || req.ID != requestID {
		return Response{}, fmt.Errorf("resolve %s for session %s: %w", requestID, sessionID, ErrUnknownRequest)
	}
	delete(c.active, sessionID)

	resp := Response{
		Type:      "approval_response",
		RequestID: req.ID,
		SessionID: sessionID,
		AgentID:   sessionID,
		Decision:  decision,
		ToolInput: req.ToolInput,
	}
	if decision == Allow {
		resp.Pattern = pattern
	}
	return resp, nil
}

// Find returns the active request with the given id, whichever session owns it.
func (c *Correlator) Find(requestID string) (Request, bool) {
	for _, req := range c.active {
		if req.ID == requestID {
			return *req, true
		}
	}
	return Request{}, false
}

func (c *Correlator) Active(sessionID string) (Request, bool) {
	req, ok := c.active[sessionID]
	if !ok {
		return Request{}, false
	}
	return *req, true
}

// DropSession forgets the session's active request without responding.
func (c *Correlator) DropSession(sessionID string) bool {
	if _, ok := c.active[sessionID]; !ok {
		return false
	}
	delete(c.active, sessionID)
	return true
}

// Rekey moves an active request from one session id to another.
func (c *Correlator) Rekey(from, to string) {
	req, ok := c.active[from]
	if !ok {
		return
	}
	delete(c.active, from)
	req.SessionID = to
	c.active[to] = req
}

// List returns active requests, oldest first.
func (c *Correlator) List() []Request {
	out := make([]Request, 0, len(c.active))
	for _, req := range c.active {
		out = append(out, *req)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ReceivedAt.Equal(out[j].ReceivedAt) {
			return out[i].SessionID < out[j].SessionID
		}
		return out[i].ReceivedAt.Before(out[j].ReceivedAt)
	})
	return out
}

func (c *Correlator) Len() int {
	return len(c.active)
}
