package router

import (
	"log"

	"github.com/thajpo/ceo-dashboard/internal/approval"
	"github.com/thajpo/ceo-dashboard/internal/events"
	"github.com/thajpo/ceo-dashboard/internal/inbox"
	"github.com/thajpo/ceo-dashboard/internal/session"
	"github.com/thajpo/ceo-dashboard/internal/usage"
)

// Route applies one inbound event. Events naming a session that is not
// registered are logged and dropped.
func (r *Router) Route(ev events.Event) {
	switch e := ev.(type) {
	case events.Init:
		r.routeInit(e)
		return
	case events.ErrorReported:
		r.metrics.EventRouted(string(e.Type()))
		log.Printf("Runtime error for session %q: %s", e.SessionID(), e.Message)
		return
	case events.Unknown:
		r.metrics.EventDropped("unknown_type")
		log.Printf("Dropping event with unknown type %q for session %s", e.Kind, e.SessionID())
		return
	}

	s, ok := r.sessions.Get(ev.SessionID())
	if !ok {
		r.metrics.EventDropped("unknown_session")
		log.Printf("Dropping %s event for unknown session %s", ev.Type(), ev.SessionID())
		return
	}
	r.metrics.EventRouted(string(ev.Type()))
	now := r.now()

	switch e := ev.(type) {
	case events.Deleted:
		r.RemoveSession(s.ID)

	case events.StatusChanged:
		prev, _ := r.sessions.UpdateStatus(s.ID, session.Status(e.Status))
		if prev == session.StatusWorking && s.Status == session.StatusIdle {
			content := "Finished"
			if last, ok := s.LastAssistant(); ok && last != "" {
				content = preview(last)
			}
			r.enqueue(s, content, inbox.TypeComplete)
		}
		r.notify(ChangeSession, s.ID)

	case events.ModeChanged:
		r.sessions.SetMode(s.ID, session.ParseMode(e.Mode))
		r.notify(ChangeSession, s.ID)

	case events.ToolUsed:
		if s.RecordTool(e.Name, e.Input, now) {
			r.notify(ChangeTools, s.ID)
		}
		if e.Name == "TodoWrite" {
			r.replaceTodos(s, e.Input)
		}

	case events.TodosReplaced:
		r.replaceTodos(s, map[string]any{"todos": e.Todos})

	case events.UsageReported:
		delta, ok := usage.DeltaFromMap(e.Usage)
		if !ok {
			r.metrics.EventDropped("malformed")
			log.Printf("Ignoring usage event without token counts for session %s", s.ID)
			return
		}
		s.Usage.Accumulate(delta)
		s.UpdatedAt = now
		r.notify(ChangeUsage, s.ID)

	case events.Output:
		r.applyFragment(s, e.Fragment)

	case events.Interrupt:
		r.applyFragment(s, e.Fragment)
		typ := inbox.ParseType(e.Kind)
		r.sessions.SetPending(s.ID, interactionFor(typ))
		r.enqueue(s, preview(e.Summary()), typ)
		r.notify(ChangeSession, s.ID)

	case events.ApprovalRequested:
		req := approval.Request{
			ID:             e.RequestID,
			SessionID:      s.ID,
			ToolName:       e.ToolName,
			ToolInput:      e.ToolInput,
			CommandPreview: e.CommandDisplay,
			Cwd:            e.Cwd,
			Pattern:        e.Pattern,
			ReceivedAt:     now,
		}
		if prev := r.approvals.Open(req); prev != nil {
			log.Printf("Approval %s for session %s superseded by %s", prev.ID, s.ID, req.ID)
		}
		active, _ := r.approvals.Active(s.ID)
		r.sessions.SetPending(s.ID, session.InteractionApproval)
		content := active.ToolName
		if active.CommandPreview != "" {
			content += ": " + active.CommandPreview
		}
		r.enqueue(s, preview(content), inbox.TypeApproval)
		r.notify(ChangeApproval, s.ID)
		r.notify(ChangeSession, s.ID)

	default:
		r.metrics.EventDropped("unhandled")
		log.Printf("Dropping unhandled %s event for session %s", ev.Type(), s.ID)
	}
}

func (r *Router) routeInit(e events.Init) {
	r.metrics.EventRouted(string(e.Type()))
	s, created := r.sessions.Create(e.SessionID(), e.Project, session.Status(e.Status), session.ParseMode(e.Mode))
	if !created {
		return
	}
	at := r.now()
	for _, m := range e.Messages {
		switch session.Role(m.Role) {
		case session.RoleUser:
			s.AppendUser(m.Content, at)
		case session.RoleAssistant:
			// each replayed message is a whole turn
			s.Messages = append(s.Messages, session.Message{Role: session.RoleAssistant, Content: m.Content, Timestamp: at})
		}
	}
	r.metrics.SetSessions(r.sessions.Len())
	if e.WaitingOnUser {
		// replayed on reconnect for sessions still blocked on the operator
		r.sessions.SetPending(s.ID, session.InteractionQuestion)
		content := "Waiting for input"
		if last, ok := s.LastAssistant(); ok && last != "" {
			content = preview(last)
		}
		r.enqueue(s, content, inbox.TypeQuestion)
	}
	r.notify(ChangeSession, s.ID)
}

func (r *Router) applyFragment(s *session.Session, f events.Fragment) {
	if f.Empty() {
		return
	}
	if f.Complete {
		s.ReplaceWithFinal(f.Text, r.now())
	} else {
		s.AppendDelta(f.Text, r.now())
	}
	r.notify(ChangeTranscript, s.ID)
}

func (r *Router) replaceTodos(s *session.Session, input any) {
	items, ok := session.TodosFromInput(input)
	if !ok {
		log.Printf("Ignoring malformed todo list for session %s", s.ID)
		return
	}
	s.SetTodos(items, r.now())
	r.notify(ChangeTodos, s.ID)
}

func interactionFor(t inbox.Type) session.Interaction {
	switch t {
	case inbox.TypePlan:
		return session.InteractionPlan
	case inbox.TypeApproval:
		return session.InteractionApproval
	}
	return session.InteractionQuestion
}
