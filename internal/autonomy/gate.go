// Package autonomy gates the unrestricted "yolo" session mode behind an
// explicit typed confirmation.
package autonomy

import (
	"strings"

	"github.com/thajpo/ceo-dashboard/internal/session"
)

const DefaultPhrase = "agree"

// Gate remembers whether the operator has confirmed unrestricted mode.
// The grant lasts for the life of the process.
type Gate struct {
	phrase  string
	granted bool
}

func NewGate(phrase string) *Gate {
	g := &Gate{}
	g.SetPhrase(phrase)
	return g
}

func (g *Gate) SetPhrase(phrase string) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		phrase = DefaultPhrase
	}
	g.phrase = phrase
}

func (g *Gate) Phrase() string {
	return g.phrase
}

// Select returns the mode a new session should actually start in. Requesting
// yolo before the grant yields plan and reports that confirmation is needed.
func (g *Gate) Select(mode session.Mode) (session.Mode, bool) {
	if mode == session.ModeYolo && !g.granted {
		return session.ModePlan, true
	}
	return mode, false
}

// Confirm grants unrestricted mode when input matches the phrase, ignoring
// case and surrounding whitespace.
func (g *Gate) Confirm(input string) bool {
	if strings.EqualFold(strings.TrimSpace(input), g.phrase) {
		g.granted = true
	}
	return g.granted
}

func (g *Gate) Granted() bool {
	return g.granted
}
