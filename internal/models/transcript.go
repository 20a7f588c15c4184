package models

import "time"

type Author string

const (
	AuthorUser Author = "user"
	AuthorBot  Author = "bot"
)

type Feedback struct {
	Helpful bool   `json:"helpful"`
	Comment string `json:"comment"`
}

// TranscriptEntry is one message in a conversation. FAQResults and Feedback are
// only ever set on bot entries.
type TranscriptEntry struct {
	ID         string     `json:"id"`
	Author     Author     `json:"author"`
	Text       string     `json:"text"`
	CreatedAt  time.Time  `json:"created_at"`
	FAQResults []FAQEntry `json:"faq_results"`
	Feedback   *Feedback  `json:"feedback"`
}

// Clone returns a deep copy so callers can never reach shared slices or pointers.
func (e TranscriptEntry) Clone() TranscriptEntry {
	out := e
	out.FAQResults = make([]FAQEntry, len(e.FAQResults))
	copy(out.FAQResults, e.FAQResults)
	if e.Feedback != nil {
		fb := *e.Feedback
		out.Feedback = &fb
	}
	return out
}
