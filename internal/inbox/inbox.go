// Package inbox keeps the bounded queue of events waiting for the operator.
package inbox

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultCapacity    = 50
	DefaultBurstWindow = 2 * time.Second
)

// Type classifies why an item needs attention.
type Type string

const (
	TypeQuestion Type = "question"
	TypeApproval Type = "approval"
	TypePlan     Type = "plan"
	TypeComplete Type = "complete"
	TypeUpdate   Type = "update"
	TypeStatus   Type = "status"
	TypeMessage  Type = "message"
)

// ParseType maps a runtime interrupt kind onto an inbox type. Unrecognized
// kinds become TypeUpdate.
func ParseType(raw string) Type {
	switch t := Type(raw); t {
	case TypeQuestion, TypeApproval, TypePlan, TypeComplete, TypeUpdate, TypeStatus, TypeMessage:
		return t
	}
	return TypeUpdate
}

type Item struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Project   string    `json:"project"`
	Content   string    `json:"content"`
	Type      Type      `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// Manager holds items newest first. Not safe for concurrent use.
type Manager struct {
	items    []Item
	capacity int
	window   time.Duration
	now      func() time.Time
}

func NewManager(capacity int, window time.Duration, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	m := &Manager{now: now}
	m.SetLimits(capacity, window)
	return m
}

// SetLimits changes the capacity and burst window, trimming if needed.
func (m *Manager) SetLimits(capacity int, window time.Duration) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if window < 0 {
		window = DefaultBurstWindow
	}
	m.capacity = capacity
	m.window = window
	m.trim()
}

// Enqueue inserts a new item at the head. It is discarded when the current
// head belongs to the same session and is younger than the burst window.
func (m *Manager) Enqueue(sessionID, project, content string, typ Type) (Item, bool) {
	now := m.now()
	if len(m.items) > 0 {
		head := m.items[0]
		if head.SessionID == sessionID && now.Sub(head.CreatedAt) < m.window {
			return Item{}, false
		}
	}

	item := Item{
		ID:        newID(),
		SessionID: sessionID,
		Project:   project,
		Content:   content,
		Type:      typ,
		CreatedAt: now,
	}
	m.items = append([]Item{item}, m.items...)
	m.trim()
	return item, true
}

// DequeueByID removes and returns the item with the given id.
func (m *Manager) DequeueByID(id string) (Item, bool) {
	for i, item := range m.items {
		if item.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return item, true
		}
	}
	return Item{}, false
}

// DequeueBySession removes every item owned by the session.
func (m *Manager) DequeueBySession(sessionID string) int {
	kept := m.items[:0]
	removed := 0
	for _, item := range m.items {
		if item.SessionID == sessionID {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	m.items = kept
	return removed
}

// Restore puts a previously dequeued item back at the head. The burst rule
// does not apply: the item already passed it once.
func (m *Manager) Restore(item Item) {
	for _, existing := range m.items {
		if existing.ID == item.ID {
			return
		}
	}
	m.items = append([]Item{item}, m.items...)
	m.trim()
}

func (m *Manager) Items() []Item {
	return append([]Item(nil), m.items...)
}

func (m *Manager) Len() int {
	return len(m.items)
}

func (m *Manager) trim() {
	if len(m.items) > m.capacity {
		m.items = m.items[:m.capacity]
	}
}

// newID returns a time-ordered unique id.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
