// Package router applies runtime events and operator commands to session
// state. A Router is not safe for concurrent use: it is owned by a Loop,
// which serializes every mutation onto one goroutine.
package router

import (
	"log"
	"time"

	"github.com/thajpo/ceo-dashboard/internal/approval"
	"github.com/thajpo/ceo-dashboard/internal/autonomy"
	"github.com/thajpo/ceo-dashboard/internal/diff"
	"github.com/thajpo/ceo-dashboard/internal/inbox"
	"github.com/thajpo/ceo-dashboard/internal/metrics"
	"github.com/thajpo/ceo-dashboard/internal/session"
	"github.com/thajpo/ceo-dashboard/internal/usage"
)

// Sender delivers outbound frames to the agent runtime without blocking on
// acknowledgement.
type Sender interface {
	Send(v any) error
}

type ChangeKind string

const (
	ChangeSession    ChangeKind = "session"
	ChangeTranscript ChangeKind = "transcript"
	ChangeTools      ChangeKind = "tools"
	ChangeTodos      ChangeKind = "todos"
	ChangeUsage      ChangeKind = "usage"
	ChangeInbox      ChangeKind = "inbox"
	ChangeApproval   ChangeKind = "approval"
	ChangeRemoved    ChangeKind = "removed"
)

// Change tells listeners which part of the state moved. Listeners read the
// new state through a snapshot.
type Change struct {
	Kind      ChangeKind `json:"kind"`
	SessionID string     `json:"session_id,omitempty"`
}

// Settings are the engine parameters that can change while running.
type Settings struct {
	InboxCapacity int
	BurstWindow   time.Duration
	HighUsage     int64
	ConfirmPhrase string
}

type Options struct {
	Outbound Sender
	Metrics  *metrics.Metrics
	Now      func() time.Time
	Settings Settings
}

const previewLimit = 200

type Router struct {
	sessions  *session.Registry
	inbox     *inbox.Manager
	approvals *approval.Correlator
	gate      *autonomy.Gate
	out       Sender
	metrics   *metrics.Metrics
	now       func() time.Time
	highUsage int64

	// inbox items the operator opened and has not answered, by session
	opened    map[string][]inbox.Item
	reviews   map[string]*diff.Review
	listeners []func(Change)
}

func New(opts Options) *Router {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	r := &Router{
		sessions:  session.NewRegistry(now),
		inbox:     inbox.NewManager(opts.Settings.InboxCapacity, opts.Settings.BurstWindow, now),
		approvals: approval.NewCorrelator(),
		gate:      autonomy.NewGate(opts.Settings.ConfirmPhrase),
		out:       opts.Outbound,
		metrics:   opts.Metrics,
		now:       now,
		opened:    make(map[string][]inbox.Item),
		reviews:   make(map[string]*diff.Review),
	}
	r.ApplySettings(opts.Settings)
	return r
}

// ApplySettings updates limits in place. Zero values select defaults.
func (r *Router) ApplySettings(s Settings) {
	window := s.BurstWindow
	if window == 0 {
		window = inbox.DefaultBurstWindow
	}
	r.inbox.SetLimits(s.InboxCapacity, window)
	r.highUsage = s.HighUsage
	if r.highUsage <= 0 {
		r.highUsage = usage.DefaultHighThreshold
	}
	if s.ConfirmPhrase != "" {
		r.gate.SetPhrase(s.ConfirmPhrase)
	}
	r.metrics.SetInboxItems(r.inbox.Len())
}

// Subscribe registers fn to be called after every state change. fn runs on
// the loop goroutine and must not block.
func (r *Router) Subscribe(fn func(Change)) {
	r.listeners = append(r.listeners, fn)
}

func (r *Router) notify(kind ChangeKind, sessionID string) {
	c := Change{Kind: kind, SessionID: sessionID}
	for _, fn := range r.listeners {
		fn(c)
	}
}

func (r *Router) send(v any) bool {
	if r.out == nil {
		log.Printf("No runtime connection configured, dropping %T", v)
		return false
	}
	if err := r.out.Send(v); err != nil {
		log.Printf("Failed to send %T to runtime: %v", v, err)
		return false
	}
	return true
}

func (r *Router) enqueue(s *session.Session, content string, typ inbox.Type) {
	if _, ok := r.inbox.Enqueue(s.ID, s.Project, content, typ); !ok {
		r.metrics.InboxSuppressedInc()
		return
	}
	r.metrics.SetInboxItems(r.inbox.Len())
	r.notify(ChangeInbox, s.ID)
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLimit {
		return text
	}
	return string(runes[:previewLimit]) + "…"
}
