// Package transcript holds the append-only conversation log of a session.
package transcript

import (
	"iter"
	"sync"

	"github.com/google/uuid"
	"github.com/yoockh/faqchat/internal/models"
	"github.com/yoockh/faqchat/internal/utils"
)

// Transcript is an ordered, append-only log of entries. Entries are never
// removed; the only in-place mutation is a one-time feedback on a bot entry.
type Transcript struct {
	mu      sync.RWMutex
	entries []models.TranscriptEntry
	index   map[string]int
}

func New() *Transcript {
	return &Transcript{index: map[string]int{}}
}

// Append adds e to the end of the log and returns its id. An id is generated
// when e.ID is empty.
func (t *Transcript) Append(e models.TranscriptEntry) (string, error) {
	const op = "Transcript.Append"

	if e.Author == models.AuthorUser && (len(e.FAQResults) > 0 || e.Feedback != nil) {
		return "", utils.E(utils.CodeInternal, op, "user entries cannot carry faq results or feedback", utils.ErrInvariantViolation)
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e = e.Clone()

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, dup := t.index[e.ID]; dup {
		return "", utils.E(utils.CodeInternal, op, "duplicate entry id", utils.ErrInvariantViolation)
	}
	if n := len(t.entries); n > 0 && e.CreatedAt.Before(t.entries[n-1].CreatedAt) {
		return "", utils.E(utils.CodeInternal, op, "created_at is earlier than the last entry", utils.ErrInvariantViolation)
	}

	t.index[e.ID] = len(t.entries)
	t.entries = append(t.entries, e)
	return e.ID, nil
}

func (t *Transcript) Get(id string) (models.TranscriptEntry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	i, ok := t.index[id]
	if !ok {
		return models.TranscriptEntry{}, utils.E(utils.CodeNotFound, "Transcript.Get", "entry not found", utils.ErrNotFound)
	}
	return t.entries[i].Clone(), nil
}

// SetFeedback records feedback on a bot entry. Feedback can be set once; a
// second call is refused rather than overwriting the first value.
func (t *Transcript) SetFeedback(id string, helpful bool, comment string) error {
	const op = "Transcript.SetFeedback"

	t.mu.Lock()
	defer t.mu.Unlock()

	i, ok := t.index[id]
	if !ok {
		return utils.E(utils.CodeNotFound, op, "entry not found", utils.ErrNotFound)
	}
	e := &t.entries[i]
	if e.Author != models.AuthorBot {
		return utils.E(utils.CodeInvalidArgument, op, "feedback is only accepted on bot entries", utils.ErrNotBotEntry)
	}
	if e.Feedback != nil {
		return utils.E(utils.CodeConflict, op, "feedback already submitted for this entry", utils.ErrFeedbackAlreadySet)
	}
	e.Feedback = &models.Feedback{Helpful: helpful, Comment: comment}
	return nil
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Last returns the most recent entry, if any.
func (t *Transcript) Last() (models.TranscriptEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.entries) == 0 {
		return models.TranscriptEntry{}, false
	}
	return t.entries[len(t.entries)-1].Clone(), true
}

// Snapshot returns a lazy view of the entries present at call time. Each range
// over the result starts from the first entry again and yields copies, so the
// caller can never mutate the log.
func (t *Transcript) Snapshot() iter.Seq[models.TranscriptEntry] {
	t.mu.RLock()
	n := len(t.entries)
	t.mu.RUnlock()

	return func(yield func(models.TranscriptEntry) bool) {
		for i := 0; i < n; i++ {
			t.mu.RLock()
			e := t.entries[i].Clone()
			t.mu.RUnlock()
			if !yield(e) {
				return
			}
		}
	}
}

// Entries collects a Snapshot into a slice.
func (t *Transcript) Entries() []models.TranscriptEntry {
	out := make([]models.TranscriptEntry, 0, t.Len())
	for e := range t.Snapshot() {
		out = append(out, e)
	}
	return out
}
