package router

import (
	"log"
	"sort"

	"github.com/thajpo/ceo-dashboard/internal/approval"
	"github.com/thajpo/ceo-dashboard/internal/diff"
	"github.com/thajpo/ceo-dashboard/internal/events"
	"github.com/thajpo/ceo-dashboard/internal/inbox"
	"github.com/thajpo/ceo-dashboard/internal/session"
)

// SendOperatorMessage appends the operator's text to the transcript and
// forwards it to the runtime. Answering a session clears its pending
// interaction and its inbox items.
func (r *Router) SendOperatorMessage(sessionID, text string) bool {
	s, ok := r.sessions.Get(sessionID)
	if !ok {
		log.Printf("Ignoring message for unknown session %s", sessionID)
		return false
	}
	s.AppendUser(text, r.now())
	r.answered(s)
	r.send(events.NewUserMessage(s.ID, text))
	r.notify(ChangeTranscript, s.ID)
	return true
}

// SendApprovalDecision resolves the session's active approval request.
func (r *Router) SendApprovalDecision(requestID, sessionID string, decision approval.Decision, pattern string) bool {
	s, ok := r.sessions.Get(sessionID)
	if !ok {
		log.Printf("Ignoring approval %s for unknown session %s", requestID, sessionID)
		return false
	}
	resp, err := r.approvals.Resolve(requestID, s.ID, decision, pattern)
	if err != nil {
		log.Printf("Ignoring approval decision: %v", err)
		return false
	}
	r.send(resp)
	r.metrics.ApprovalSent(string(decision))
	r.answered(s)
	r.notify(ChangeApproval, s.ID)
	return true
}

// ResolveApproval is SendApprovalDecision for callers that only know the
// request id.
func (r *Router) ResolveApproval(requestID string, decision approval.Decision, pattern string) bool {
	req, ok := r.approvals.Find(requestID)
	if !ok {
		log.Printf("Ignoring decision for unknown approval %s", requestID)
		return false
	}
	return r.SendApprovalDecision(requestID, req.SessionID, decision, pattern)
}

// ExecutePlan records that the operator accepted the session's plan. The
// collaborator call that restarts the agent is made by the caller.
func (r *Router) ExecutePlan(sessionID string) bool {
	s, ok := r.sessions.Get(sessionID)
	if !ok {
		log.Printf("Ignoring plan execution for unknown session %s", sessionID)
		return false
	}
	r.answered(s)
	return true
}

// StopSession denies the active approval, if any, and then asks the runtime
// to stop the agent. The deny is always sent first.
func (r *Router) StopSession(sessionID string) bool {
	s, ok := r.sessions.Get(sessionID)
	if !ok {
		log.Printf("Ignoring stop for unknown session %s", sessionID)
		return false
	}
	if req, ok := r.approvals.Active(s.ID); ok {
		resp, err := r.approvals.Resolve(req.ID, s.ID, approval.Deny, "")
		if err == nil {
			r.send(resp)
			r.metrics.ApprovalSent(string(approval.Deny))
			r.notify(ChangeApproval, s.ID)
		}
	}
	r.send(events.NewStopAgent(s.ID))
	r.answered(s)
	return true
}

// RemoveSession destroys the session together with its inbox items, its
// active approval and any loaded diff.
func (r *Router) RemoveSession(sessionID string) bool {
	id := r.sessions.Resolve(sessionID)
	if !r.sessions.Remove(id) {
		return false
	}
	if r.approvals.DropSession(id) {
		r.notify(ChangeApproval, id)
	}
	if r.inbox.DequeueBySession(id) > 0 {
		r.metrics.SetInboxItems(r.inbox.Len())
		r.notify(ChangeInbox, id)
	}
	delete(r.opened, id)
	delete(r.reviews, id)
	r.metrics.SetSessions(r.sessions.Len())
	r.notify(ChangeRemoved, id)
	return true
}

// StartSession registers a provisional session for a create request the
// caller is about to send. Unconfirmed yolo requests start in plan mode.
func (r *Router) StartSession(project string, mode session.Mode) (session.Session, bool) {
	effective, awaiting := r.gate.Select(mode)
	s := r.sessions.CreateProvisional(project, effective)
	r.metrics.SetSessions(r.sessions.Len())
	r.notify(ChangeSession, s.ID)
	return s.Clone(), awaiting
}

// ConfirmSession reconciles a provisional id with the id the runtime assigned.
func (r *Router) ConfirmSession(provisional, canonical string) (session.Session, bool) {
	s, ok := r.sessions.Confirm(provisional, canonical)
	if !ok {
		return session.Session{}, false
	}
	r.approvals.Rekey(provisional, s.ID)
	if items, ok := r.opened[provisional]; ok {
		delete(r.opened, provisional)
		for i := range items {
			items[i].SessionID = s.ID
		}
		r.opened[s.ID] = append(r.opened[s.ID], items...)
	}
	if rv, ok := r.reviews[provisional]; ok {
		delete(r.reviews, provisional)
		r.reviews[s.ID] = rv
	}
	r.metrics.SetSessions(r.sessions.Len())
	r.notify(ChangeRemoved, provisional)
	r.notify(ChangeSession, s.ID)
	return s.Clone(), true
}

// AbandonSession drops a provisional session whose create call failed.
func (r *Router) AbandonSession(provisional string) bool {
	s, ok := r.sessions.Get(provisional)
	if !ok || !s.Provisional {
		return false
	}
	return r.RemoveSession(s.ID)
}

// OpenInboxItem takes an item off the queue for the operator to act on.
func (r *Router) OpenInboxItem(id string) (inbox.Item, bool) {
	item, ok := r.inbox.DequeueByID(id)
	if !ok {
		return inbox.Item{}, false
	}
	r.opened[item.SessionID] = append(r.opened[item.SessionID], item)
	r.metrics.SetInboxItems(r.inbox.Len())
	r.notify(ChangeInbox, item.SessionID)
	return item, true
}

// LeaveSession returns every opened but unanswered item of the session to
// the inbox, newest at the head.
func (r *Router) LeaveSession(sessionID string) bool {
	id := r.sessions.Resolve(sessionID)
	items, ok := r.opened[id]
	if !ok {
		return false
	}
	delete(r.opened, id)
	if _, live := r.sessions.Get(id); !live {
		return false
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	for _, item := range items {
		r.inbox.Restore(item)
	}
	r.metrics.SetInboxItems(r.inbox.Len())
	r.notify(ChangeInbox, id)
	return true
}

func (r *Router) ConfirmAutonomy(input string) bool {
	return r.gate.Confirm(input)
}

func (r *Router) AutonomyGranted() bool {
	return r.gate.Granted()
}

// LoadDiff parses a freshly fetched diff for the session.
func (r *Router) LoadDiff(sessionID, stat, text string) ([]diff.Summary, bool) {
	s, ok := r.sessions.Get(sessionID)
	if !ok {
		return nil, false
	}
	rv, ok := r.reviews[s.ID]
	if !ok {
		rv = &diff.Review{}
		r.reviews[s.ID] = rv
	}
	rv.Load(stat, text)
	return rv.Summary(), true
}

// DiffFile looks up a file in the session's most recently loaded diff.
func (r *Router) DiffFile(sessionID, path string) (diff.File, bool) {
	rv, ok := r.reviews[r.sessions.Resolve(sessionID)]
	if !ok {
		return diff.File{}, false
	}
	return rv.Select(path)
}

// answered clears everything that was waiting on the operator for s.
func (r *Router) answered(s *session.Session) {
	r.sessions.ClearPending(s.ID)
	delete(r.opened, s.ID)
	if r.inbox.DequeueBySession(s.ID) > 0 {
		r.metrics.SetInboxItems(r.inbox.Len())
		r.notify(ChangeInbox, s.ID)
	}
	r.notify(ChangeSession, s.ID)
}
