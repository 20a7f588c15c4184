// Package events publishes transcript changes so live clients can follow a
// session without polling.
package events

import (
	"context"

	"github.com/yoockh/faqchat/internal/models"
)

const (
	TypeEntry    = "entry"
	TypeFeedback = "feedback"
	TypeStatus   = "status"
)

// Event is one change to a session. Seq is the entry's position in the
// transcript and is set on entry and feedback events.
type Event struct {
	Type      string                  `json:"type"`
	SessionID string                  `json:"session_id"`
	Seq       *int64                  `json:"seq,omitempty"`
	Entry     *models.TranscriptEntry `json:"entry,omitempty"`
	Busy      *bool                   `json:"busy,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

func TranscriptChannel(sessionID string) string { return "session:" + sessionID + ":transcript" }

func StatusChannel(sessionID string) string { return "session:" + sessionID + ":status" }

func EntryEvent(sessionID string, seq int64, e models.TranscriptEntry) Event {
	return Event{Type: TypeEntry, SessionID: sessionID, Seq: &seq, Entry: &e}
}

func FeedbackEvent(sessionID string, seq int64, e models.TranscriptEntry) Event {
	return Event{Type: TypeFeedback, SessionID: sessionID, Seq: &seq, Entry: &e}
}

func StatusEvent(sessionID string, busy bool) Event {
	return Event{Type: TypeStatus, SessionID: sessionID, Busy: &busy}
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
