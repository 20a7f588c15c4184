package services

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/yoockh/faqchat/internal/analytics"
	"github.com/yoockh/faqchat/internal/models"
	"github.com/yoockh/faqchat/internal/providers/faqdir"
	"github.com/yoockh/faqchat/internal/providers/history"
	"github.com/yoockh/faqchat/internal/workers"
)

type fakeDirectory struct {
	mu sync.Mutex

	keyword    map[string][]models.FAQEntry
	category   map[string][]models.FAQEntry
	categories []string

	keywordErr  error
	categoryErr error
	listErr     error

	// When set, keyword searches signal started and wait on release.
	started chan string
	release chan struct{}

	keywordCalls  int
	categoryCalls int
}

func (d *fakeDirectory) wait(q string) {
	if d.started != nil {
		d.started <- q
	}
	if d.release != nil {
		<-d.release
	}
}

func (d *fakeDirectory) SearchByKeyword(_ context.Context, keyword string) ([]models.FAQEntry, error) {
	d.mu.Lock()
	d.keywordCalls++
	d.mu.Unlock()
	d.wait(keyword)
	if d.keywordErr != nil {
		return nil, d.keywordErr
	}
	return d.keyword[keyword], nil
}

func (d *fakeDirectory) SearchByCategory(_ context.Context, category string) ([]models.FAQEntry, error) {
	d.mu.Lock()
	d.categoryCalls++
	d.mu.Unlock()
	if d.categoryErr != nil {
		return nil, d.categoryErr
	}
	return d.category[category], nil
}

func (d *fakeDirectory) ListQuickReplyCategories(context.Context) ([]string, error) {
	if d.listErr != nil {
		return nil, d.listErr
	}
	return d.categories, nil
}

func (d *fakeDirectory) calls() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.keywordCalls, d.categoryCalls
}

type fakeDirectorySource struct {
	dir   *fakeDirectory
	creds []string
}

func (s *fakeDirectorySource) ForCredential(cred string) faqdir.Directory {
	s.creds = append(s.creds, cred)
	return s.dir
}

type feedbackCall struct {
	RecordID string
	Helpful  bool
	Comment  string
}

type fakeRecorder struct {
	mu sync.Mutex

	appendErr   error
	feedbackErr error
	nextID      int

	appended  []string
	feedbacks []feedbackCall

	popular    analytics.Counts
	categories analytics.Counts
	countsErr  error
	countCalls int
}

func (r *fakeRecorder) AppendHistory(_ context.Context, _ string, question string, _ time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return "", r.appendErr
	}
	r.nextID++
	r.appended = append(r.appended, question)
	return strconv.Itoa(r.nextID), nil
}

func (r *fakeRecorder) SubmitFeedback(_ context.Context, recordID string, helpful bool, comment string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedbacks = append(r.feedbacks, feedbackCall{RecordID: recordID, Helpful: helpful, Comment: comment})
	return r.feedbackErr
}

func (r *fakeRecorder) PopularQuestions(context.Context) (analytics.Counts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.countCalls++
	return r.popular, r.countsErr
}

func (r *fakeRecorder) CategoryCounts(context.Context) (analytics.Counts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.countCalls++
	return r.categories, r.countsErr
}

func (r *fakeRecorder) feedbackCalls() []feedbackCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]feedbackCall(nil), r.feedbacks...)
}

type fakeHistorySource struct{ rec *fakeRecorder }

func (s fakeHistorySource) ForCredential(string) history.Recorder { return s.rec }

type recordingArchive struct {
	mu        sync.Mutex
	seqs      []int64
	entries   []models.TranscriptEntry
	feedbacks map[string]models.Feedback
}

func (a *recordingArchive) Record(_ context.Context, _, _ string, seq int64, e models.TranscriptEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seqs = append(a.seqs, seq)
	a.entries = append(a.entries, e)
	return nil
}

func (a *recordingArchive) RecordFeedback(_ context.Context, entryID string, fb models.Feedback) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.feedbacks == nil {
		a.feedbacks = map[string]models.Feedback{}
	}
	a.feedbacks[entryID] = fb
	return nil
}

type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []workers.FeedbackJob
}

func (d *recordingDispatcher) Dispatch(_ context.Context, job workers.FeedbackJob) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, job)
	return nil
}

// stepClock returns times from a fixed list, repeating the last one.
type stepClock struct {
	mu    sync.Mutex
	times []time.Time
	i     int
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.times[c.i]
	if c.i < len(c.times)-1 {
		c.i++
	}
	return t
}

var testIdentity = models.Identity{UserID: "u-1", Role: models.RoleUser, Credential: "token-1"}

func faq(id int64, q, category string) models.FAQEntry {
	return models.FAQEntry{ID: id, Question: q, Answer: "answer to " + q, Category: category}
}
