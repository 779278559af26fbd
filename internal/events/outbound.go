package events

// UserMessage sends operator text to a session. AgentID mirrors SessionID for
// runtimes that still key on agent_id.
type UserMessage struct {
	SessionID string `json:"session_id"`
	AgentID   string `json:"agent_id"`
	Content   string `json:"content"`
}

func NewUserMessage(sessionID, text string) UserMessage {
	return UserMessage{SessionID: sessionID, AgentID: sessionID, Content: text}
}

type StopAgent struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	AgentID   string `json:"agent_id"`
}

func NewStopAgent(sessionID string) StopAgent {
	return StopAgent{Type: "stop_agent", SessionID: sessionID, AgentID: sessionID}
}
