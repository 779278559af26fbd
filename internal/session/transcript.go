package session

import "time"

// AppendDelta extends the trailing assistant message with a streamed fragment,
// or starts a new assistant message if the transcript ends with the user.
func (s *Session) AppendDelta(text string, at time.Time) {
	if last := s.trailingAssistant(); last != nil {
		last.Content += text
		last.Timestamp = at
	} else {
		s.Messages = append(s.Messages, Message{Role: RoleAssistant, Content: text, Timestamp: at})
	}
	s.UpdatedAt = at
}

// ReplaceWithFinal overwrites the trailing assistant message with the
// completed text. Fragments streamed before the completion are discarded so
// tokens sent twice do not appear twice.
func (s *Session) ReplaceWithFinal(text string, at time.Time) {
	if last := s.trailingAssistant(); last != nil {
		last.Content = text
		last.Timestamp = at
	} else {
		s.Messages = append(s.Messages, Message{Role: RoleAssistant, Content: text, Timestamp: at})
	}
	s.UpdatedAt = at
}

// AppendUser records a message typed by the operator.
func (s *Session) AppendUser(text string, at time.Time) {
	s.Messages = append(s.Messages, Message{Role: RoleUser, Content: text, Timestamp: at})
	s.UpdatedAt = at
}

func (s *Session) trailingAssistant() *Message {
	if n := len(s.Messages); n > 0 && s.Messages[n-1].Role == RoleAssistant {
		return &s.Messages[n-1]
	}
	return nil
}
