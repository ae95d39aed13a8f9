package view

import (
	"time"

	"github.com/google/uuid"
)

// NoticeKind classifies a user-facing notice.
type NoticeKind string

const (
	NoticeNotFound    NoticeKind = "not_found"
	NoticeWriteFailed NoticeKind = "write_failed"
)

// Notice is a dismissible message about something that went wrong after an edit returned.
type Notice struct {
	ID      string     `json:"id"`
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
	At      time.Time  `json:"at"`
	Err     error      `json:"-"`
}

// Notices returns the undismissed notices, oldest first.
func (s *Scorecard) Notices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notice(nil), s.notices...)
}

// Dismiss removes a notice and reports whether it existed.
func (s *Scorecard) Dismiss(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notices {
		if n.ID == id {
			s.notices = append(s.notices[:i], s.notices[i+1:]...)
			return true
		}
	}
	return false
}

// Caller holds s.mu.
func (s *Scorecard) pushNotice(kind NoticeKind, msg string, err error) {
	s.notices = append(s.notices, Notice{
		ID:      uuid.NewString(),
		Kind:    kind,
		Message: msg,
		At:      time.Now(),
		Err:     err,
	})
}
