package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/thajpo/ceo-dashboard/internal/approval"
	"github.com/thajpo/ceo-dashboard/internal/inbox"
	"github.com/thajpo/ceo-dashboard/internal/router"
)

func (s *Server) handleListInbox(w http.ResponseWriter, r *http.Request) {
	var items []inbox.Item
	if !s.do(w, r, func(rt *router.Router) { items = rt.Inbox() }) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type openResponse struct {
	Item    inbox.Item   `json:"item"`
	Session *router.View `json:"session,omitempty"`
}

func (s *Server) handleOpenInboxItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var (
		resp openResponse
		ok   bool
	)
	if !s.do(w, r, func(rt *router.Router) {
		resp.Item, ok = rt.OpenInboxItem(id)
		if view, live := rt.Session(resp.Item.SessionID); ok && live {
			resp.Session = &view
		}
	}) {
		return
	}
	if !ok {
		writeNotFound(w, "inbox item not found")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListApprovals(w http.ResponseWriter, r *http.Request) {
	var list []approval.Request
	if !s.do(w, r, func(rt *router.Router) { list = rt.Approvals() }) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"approvals": list})
}

type decisionRequest struct {
	Decision string `json:"decision"`
	Pattern  string `json:"pattern"`
}

func (s *Server) handleDecideApproval(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req decisionRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid body")
		return
	}
	decision, err := approval.ParseDecision(req.Decision)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var ok bool
	if !s.do(w, r, func(rt *router.Router) { ok = rt.ResolveApproval(id, decision, req.Pattern) }) {
		return
	}
	if !ok {
		writeNotFound(w, "approval request not found")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
}

type autonomyResponse struct {
	Granted bool `json:"granted"`
}

func (s *Server) handleGetAutonomy(w http.ResponseWriter, r *http.Request) {
	var granted bool
	if !s.do(w, r, func(rt *router.Router) { granted = rt.AutonomyGranted() }) {
		return
	}
	writeJSON(w, http.StatusOK, autonomyResponse{Granted: granted})
}

func (s *Server) handleConfirmAutonomy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phrase string `json:"phrase"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid body")
		return
	}
	var granted bool
	if !s.do(w, r, func(rt *router.Router) { granted = rt.ConfirmAutonomy(req.Phrase) }) {
		return
	}
	writeJSON(w, http.StatusOK, autonomyResponse{Granted: granted})
}
