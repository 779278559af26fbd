// Package events defines the frames exchanged with the agent runtime. Inbound
// frames decode into a closed set of Event types; anything else becomes
// Unknown.
package events

type Type string

const (
	TypeInit            Type = "init"
	TypeDeleted         Type = "deleted"
	TypeStatus          Type = "status"
	TypeMode            Type = "mode"
	TypeTool            Type = "tool"
	TypeUsage           Type = "usage"
	TypeTodos           Type = "todos"
	TypeInterrupt       Type = "interrupt"
	TypeOutput          Type = "output"
	TypeApprovalRequest Type = "approval_request"
	TypeError           Type = "error"
)

// Event is implemented only by the types in this package.
type Event interface {
	Type() Type
	SessionID() string
	event()
}

type header struct {
	Session string
}

func (h header) SessionID() string { return h.Session }
func (header) event()              {}

// InitMessage is a transcript entry replayed in an init frame.
type InitMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Init announces a live session, either new or replayed after a reconnect.
type Init struct {
	header
	Project       string
	Status        string
	Mode          string
	Messages      []InitMessage
	WaitingOnUser bool
}

type Deleted struct{ header }

type StatusChanged struct {
	header
	Status string
}

type ModeChanged struct {
	header
	Mode string
}

type ToolUsed struct {
	header
	Name  string
	Input any
}

type UsageReported struct {
	header
	Usage map[string]any
}

type TodosReplaced struct {
	header
	Todos any
}

// Interrupt is agent output that needs the operator.
type Interrupt struct {
	header
	Kind     string
	Fragment Fragment
	// Question is the prompt pulled from the interrupting tool call, if any.
	Question string
}

// Summary is the text shown for the interrupt in the inbox.
func (e Interrupt) Summary() string {
	if e.Question != "" {
		return e.Question
	}
	return e.Fragment.Text
}

type Output struct {
	header
	Fragment Fragment
}

type ApprovalRequested struct {
	header
	RequestID      string
	ToolName       string
	ToolInput      any
	CommandDisplay string
	Cwd            string
	Pattern        string
}

// ErrorReported is an error frame from the runtime. The session is optional.
type ErrorReported struct {
	header
	Message string
}

// Unknown carries a frame whose type is not recognized.
type Unknown struct {
	header
	Kind string
}

func (Init) Type() Type              { return TypeInit }
func (Deleted) Type() Type           { return TypeDeleted }
func (StatusChanged) Type() Type     { return TypeStatus }
func (ModeChanged) Type() Type       { return TypeMode }
func (ToolUsed) Type() Type          { return TypeTool }
func (UsageReported) Type() Type     { return TypeUsage }
func (TodosReplaced) Type() Type     { return TypeTodos }
func (Interrupt) Type() Type         { return TypeInterrupt }
func (Output) Type() Type            { return TypeOutput }
func (ApprovalRequested) Type() Type { return TypeApprovalRequest }
func (ErrorReported) Type() Type     { return TypeError }
func (e Unknown) Type() Type         { return Type(e.Kind) }
