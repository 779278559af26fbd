package router

import (
	"github.com/thajpo/ceo-dashboard/internal/approval"
	"github.com/thajpo/ceo-dashboard/internal/inbox"
	"github.com/thajpo/ceo-dashboard/internal/session"
)

// View is a session snapshot with derived display flags.
type View struct {
	session.Session
	HighUsage bool `json:"high_usage"`
}

type Status struct {
	Sessions         int      `json:"sessions"`
	Working          int      `json:"working"`
	NeedsAttention   int      `json:"needs_attention"`
	InboxItems       int      `json:"inbox_items"`
	PendingApprovals int      `json:"pending_approvals"`
	AutonomyGranted  bool     `json:"autonomy_granted"`
	HighUsage        []string `json:"high_usage,omitempty"`
}

func (r *Router) view(s *session.Session) View {
	return View{Session: s.Clone(), HighUsage: s.Usage.High(r.highUsage)}
}

func (r *Router) Sessions() []View {
	list := r.sessions.List()
	out := make([]View, 0, len(list))
	for _, s := range list {
		out = append(out, r.view(s))
	}
	return out
}

func (r *Router) Session(id string) (View, bool) {
	s, ok := r.sessions.Get(id)
	if !ok {
		return View{}, false
	}
	return r.view(s), true
}

func (r *Router) Inbox() []inbox.Item {
	return r.inbox.Items()
}

func (r *Router) Approvals() []approval.Request {
	return r.approvals.List()
}

func (r *Router) Status() Status {
	st := Status{
		Sessions:         r.sessions.Len(),
		InboxItems:       r.inbox.Len(),
		PendingApprovals: r.approvals.Len(),
		AutonomyGranted:  r.gate.Granted(),
	}
	for _, s := range r.sessions.List() {
		switch s.Status {
		case session.StatusWorking:
			st.Working++
		case session.StatusNeedsAttention:
			st.NeedsAttention++
		}
		if s.Usage.High(r.highUsage) {
			st.HighUsage = append(st.HighUsage, s.ID)
		}
	}
	return st
}
