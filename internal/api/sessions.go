package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/thajpo/ceo-dashboard/internal/diff"
	"github.com/thajpo/ceo-dashboard/internal/router"
	"github.com/thajpo/ceo-dashboard/internal/session"
)

type statusResponse struct {
	router.Status
	Connected bool `json:"connected"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var st router.Status
	if !s.do(w, r, func(rt *router.Router) { st = rt.Status() }) {
		return
	}
	resp := statusResponse{Status: st}
	if s.connected != nil {
		resp.Connected = s.connected()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.runtime.ListProjects(r.Context())
	if err != nil {
		writeRuntimeError(w, err)
		return
	}
	if projects == nil {
		projects = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	var views []router.View
	if !s.do(w, r, func(rt *router.Router) { views = rt.Sessions() }) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": views})
}

type createSessionRequest struct {
	Project string `json:"project"`
	Mode    string `json:"mode"`
}

type createSessionResponse struct {
	Session              session.Session `json:"session"`
	AwaitingConfirmation bool            `json:"awaiting_confirmation"`
}

// handleCreateSession registers a provisional session, asks the runtime to
// start the agent and reconciles the id it returns.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(r, &req); err != nil || strings.TrimSpace(req.Project) == "" {
		writeBadRequest(w, "project required")
		return
	}
	mode := session.ParseMode(req.Mode)

	var (
		prov     session.Session
		awaiting bool
	)
	if !s.do(w, r, func(rt *router.Router) { prov, awaiting = rt.StartSession(req.Project, mode) }) {
		return
	}

	created, err := s.runtime.CreateSession(r.Context(), req.Project, string(prov.Mode))
	if err != nil {
		log.Printf("Failed to create session for %s: %v", req.Project, err)
		s.run(r, func(rt *router.Router) { rt.AbandonSession(prov.ID) })
		writeRuntimeError(w, err)
		return
	}

	var (
		confirmed session.Session
		ok        bool
	)
	if !s.do(w, r, func(rt *router.Router) { confirmed, ok = rt.ConfirmSession(prov.ID, created.ID) }) {
		return
	}
	if !ok {
		// already reconciled or removed by a deleted event
		writeNotFound(w, "session no longer exists")
		return
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{Session: confirmed, AwaitingConfirmation: awaiting})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var (
		view router.View
		ok   bool
	)
	if !s.do(w, r, func(rt *router.Router) { view, ok = rt.Session(id) }) {
		return
	}
	if !ok {
		writeNotFound(w, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// lookup resolves the session or writes a 404.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (router.View, bool) {
	id := chi.URLParam(r, "id")
	var (
		view router.View
		ok   bool
	)
	if !s.do(w, r, func(rt *router.Router) { view, ok = rt.Session(id) }) {
		return router.View{}, false
	}
	if !ok {
		writeNotFound(w, "session not found")
		return router.View{}, false
	}
	return view, true
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	view, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if !view.Provisional {
		if err := s.runtime.DeleteSession(r.Context(), view.ID); err != nil {
			writeRuntimeError(w, err)
			return
		}
	}
	s.run(r, func(rt *router.Router) { rt.RemoveSession(view.ID) })
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type messageRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req messageRequest
	if err := decodeBody(r, &req); err != nil || strings.TrimSpace(req.Content) == "" {
		writeBadRequest(w, "content required")
		return
	}
	var ok bool
	if !s.do(w, r, func(rt *router.Router) { ok = rt.SendOperatorMessage(id, req.Content) }) {
		return
	}
	if !ok {
		writeNotFound(w, "session not found")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
}

func (s *Server) handleStopSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var ok bool
	if !s.do(w, r, func(rt *router.Router) { ok = rt.StopSession(id) }) {
		return
	}
	if !ok {
		writeNotFound(w, "session not found")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
}

// handleExecutePlan asks the runtime to run the accepted plan. Local state
// only changes once the runtime agreed.
func (s *Server) handleExecutePlan(w http.ResponseWriter, r *http.Request) {
	view, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if err := s.runtime.ExecutePlan(r.Context(), view.ID); err != nil {
		writeRuntimeError(w, err)
		return
	}
	s.run(r, func(rt *router.Router) { rt.ExecutePlan(view.ID) })
	writeJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
}

func (s *Server) handleLeaveSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var restored bool
	if !s.do(w, r, func(rt *router.Router) { restored = rt.LeaveSession(id) }) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"restored": restored})
}

type diffResponse struct {
	Stat   string         `json:"stat"`
	Status string         `json:"status"`
	Files  []diff.Summary `json:"files"`
}

func (s *Server) handleGetDiff(w http.ResponseWriter, r *http.Request) {
	view, ok := s.lookup(w, r)
	if !ok {
		return
	}
	d, err := s.runtime.FetchDiff(r.Context(), view.ID)
	if err != nil {
		writeRuntimeError(w, err)
		return
	}
	var (
		files  []diff.Summary
		loaded bool
	)
	if !s.do(w, r, func(rt *router.Router) { files, loaded = rt.LoadDiff(view.ID, d.Stat, d.Diff) }) {
		return
	}
	if !loaded {
		writeNotFound(w, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, diffResponse{Stat: d.Stat, Status: d.Status, Files: files})
}

func (s *Server) handleGetDiffFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	path := r.URL.Query().Get("path")
	if path == "" {
		writeBadRequest(w, "path required")
		return
	}
	var (
		file diff.File
		ok   bool
	)
	if !s.do(w, r, func(rt *router.Router) { file, ok = rt.DiffFile(id, path) }) {
		return
	}
	if !ok {
		writeNotFound(w, "file not in loaded diff")
		return
	}
	writeJSON(w, http.StatusOK, file)
}
