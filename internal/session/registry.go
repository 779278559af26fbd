package session

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// ProvisionalPrefix marks ids minted locally before the runtime assigns one.
const ProvisionalPrefix = "pending-"

// Registry is the authoritative store of sessions. It is not safe for
// concurrent use; the router loop is its only writer.
type Registry struct {
	sessions map[string]*Session
	// provisional id -> canonical id, kept after confirmation so operator
	// actions issued against the old id still land.
	aliases map[string]string
	now     func() time.Time
}

func NewRegistry(now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		sessions: make(map[string]*Session),
		aliases:  make(map[string]string),
		now:      now,
	}
}

// Create adds a session unless one with the same id already exists. An
// existing record is left untouched so a late init never clobbers state
// written by newer events.
func (r *Registry) Create(id, project string, status Status, mode Mode) (*Session, bool) {
	id = r.Resolve(id)
	if existing, ok := r.sessions[id]; ok {
		return existing, false
	}
	if status == "" {
		status = StatusIdle
	}
	s := &Session{
		ID:        id,
		Project:   project,
		Status:    status,
		Mode:      mode,
		UpdatedAt: r.now(),
	}
	r.sessions[id] = s
	return s, true
}

// CreateProvisional registers a session under a locally minted id while the
// runtime has not yet confirmed the real one.
func (r *Registry) CreateProvisional(project string, mode Mode) *Session {
	id := ProvisionalPrefix + uuid.NewString()
	s, _ := r.Create(id, project, StatusWorking, mode)
	s.Provisional = true
	return s
}

// Confirm reconciles a provisional session with the canonical id reported by
// the runtime. If the canonical session already arrived through an init event
// the provisional record is folded into it; otherwise it is re-keyed.
// Repeated confirmations are no-ops.
func (r *Registry) Confirm(provisional, canonical string) (*Session, bool) {
	if provisional == canonical {
		return r.Get(canonical)
	}
	prov, ok := r.sessions[provisional]
	if !ok {
		return nil, false
	}
	delete(r.sessions, provisional)
	r.aliases[provisional] = canonical

	if existing, ok := r.sessions[canonical]; ok {
		if len(existing.Messages) == 0 {
			existing.Messages = prov.Messages
		}
		if existing.Project == "" {
			existing.Project = prov.Project
		}
		existing.UpdatedAt = r.now()
		return existing, true
	}

	prov.ID = canonical
	prov.Provisional = false
	prov.UpdatedAt = r.now()
	r.sessions[canonical] = prov
	return prov, true
}

// Resolve maps a confirmed provisional id to its canonical id.
func (r *Registry) Resolve(id string) string {
	if canonical, ok := r.aliases[id]; ok {
		return canonical
	}
	return id
}

func (r *Registry) Get(id string) (*Session, bool) {
	s, ok := r.sessions[r.Resolve(id)]
	return s, ok
}

// UpdateStatus sets the status and returns the previous one. Going idle
// clears any pending interaction.
func (r *Registry) UpdateStatus(id string, status Status) (Status, bool) {
	s, ok := r.Get(id)
	if !ok {
		return "", false
	}
	prev := s.Status
	s.Status = status
	if status == StatusIdle {
		s.Pending = InteractionNone
	}
	s.UpdatedAt = r.now()
	return prev, true
}

func (r *Registry) SetMode(id string, mode Mode) bool {
	s, ok := r.Get(id)
	if !ok {
		return false
	}
	s.Mode = mode
	s.UpdatedAt = r.now()
	return true
}

func (r *Registry) SetPending(id string, kind Interaction) bool {
	s, ok := r.Get(id)
	if !ok {
		return false
	}
	s.Pending = kind
	s.UpdatedAt = r.now()
	return true
}

func (r *Registry) ClearPending(id string) bool {
	return r.SetPending(id, InteractionNone)
}

// Remove deletes the session and any alias pointing at it.
func (r *Registry) Remove(id string) bool {
	id = r.Resolve(id)
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	for alias, target := range r.aliases {
		if target == id || alias == id {
			delete(r.aliases, alias)
		}
	}
	return true
}

func (r *Registry) Len() int {
	return len(r.sessions)
}

// List returns sessions ordered by project, then id.
func (r *Registry) List() []*Session {
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Project != out[j].Project {
			return out[i].Project < out[j].Project
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Snapshot returns a detached copy for readers outside the router loop.
func (r *Registry) Snapshot(id string) (Session, bool) {
	s, ok := r.Get(id)
	if !ok {
		return Session{}, false
	}
	return s.Clone(), true
}
