package services

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/faqchat/internal/coordinator"
	"github.com/yoockh/faqchat/internal/events"
	"github.com/yoockh/faqchat/internal/models"
	"github.com/yoockh/faqchat/internal/providers/faqdir"
	"github.com/yoockh/faqchat/internal/providers/history"
	"github.com/yoockh/faqchat/internal/transcript"
	"github.com/yoockh/faqchat/internal/utils"
	"github.com/yoockh/faqchat/internal/workers"
)

// Bot notice texts.
const (
	NoticeBusy      = "a request is already in progress"
	NoticeResults   = "Here are some relevant FAQs I found:"
	NoticeNoResults = "I couldn't find any FAQs matching your query. Please try different keywords or select from the quick replies below."
	NoticeFailure   = "Sorry, I couldn't reach the FAQ service right now. Please try again in a moment."

	noticeCategoryResults = "Here are the FAQs for %s:"
	noticeCategoryFailure = "Sorry, I couldn't load the FAQs for %s right now. Please try again in a moment."
)

// FeedbackDispatcher delivers feedback to the history service. Delivery is
// best-effort; the local transcript is already updated when it runs.
type FeedbackDispatcher interface {
	Dispatch(ctx context.Context, job workers.FeedbackJob) error
}

// TranscriptArchive mirrors transcript changes to durable storage.
type TranscriptArchive interface {
	Record(ctx context.Context, sessionID, userID string, seq int64, e models.TranscriptEntry) error
	RecordFeedback(ctx context.Context, entryID string, fb models.Feedback) error
}

type OrchestratorConfig struct {
	SessionID string
	Identity  models.Identity

	Directory faqdir.Directory
	History   history.Recorder

	Feedback  FeedbackDispatcher // nil: submit synchronously through History
	Archive   TranscriptArchive  // nil: no archive
	Publisher events.Publisher   // nil: events.Nop

	Logger *logrus.Logger
	Now    func() time.Time

	// QuickReplySingleFlight routes quick replies through the same
	// single-flight admission as free-text questions.
	QuickReplySingleFlight bool
}

// Orchestrator owns one session's transcript and request coordinator and turns
// each caller operation into transcript appends plus calls to the FAQ
// directory and chat history services.
type Orchestrator struct {
	sessionID string
	identity  models.Identity

	transcript *transcript.Transcript
	flight     *coordinator.Coordinator

	directory faqdir.Directory
	history   history.Recorder
	feedback  FeedbackDispatcher
	archive   TranscriptArchive
	publisher events.Publisher

	log *logrus.Entry
	now func() time.Time

	quickReplyFlight bool

	// appendMu serialises timestamping and appending so concurrent operations
	// cannot produce out-of-order timestamps.
	appendMu sync.Mutex

	mu      sync.RWMutex
	catalog []string
	records map[string]string // bot entry id -> history record id
	seqs    map[string]int64  // entry id -> transcript position
}

func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	const op = "Orchestrator.New"

	if cfg.Identity.UserID == "" || strings.TrimSpace(cfg.Identity.Credential) == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "authenticated identity and credential are required", utils.ErrUnauthenticated)
	}
	if cfg.Directory == nil || cfg.History == nil {
		return nil, utils.E(utils.CodeInternal, op, "directory and history clients are required", nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Publisher == nil {
		cfg.Publisher = events.Nop{}
	}
	if cfg.Feedback == nil {
		cfg.Feedback = directFeedback{}
	}

	o := &Orchestrator{
		sessionID:        cfg.SessionID,
		identity:         cfg.Identity,
		transcript:       transcript.New(),
		flight:           coordinator.New(),
		directory:        cfg.Directory,
		history:          cfg.History,
		feedback:         cfg.Feedback,
		archive:          cfg.Archive,
		publisher:        cfg.Publisher,
		now:              cfg.Now,
		quickReplyFlight: cfg.QuickReplySingleFlight,
		catalog:          []string{},
		records:          map[string]string{},
		seqs:             map[string]int64{},
		log: cfg.Logger.WithFields(logrus.Fields{
			"session_id": cfg.SessionID,
			"user_id":    cfg.Identity.UserID,
		}),
	}
	o.flight.OnChange(func(busy bool) {
		o.publish(context.Background(), events.StatusEvent(o.sessionID, busy))
	})
	return o, nil
}

func (o *Orchestrator) SessionID() string { return o.sessionID }

func (o *Orchestrator) Identity() models.Identity { return o.identity }

// SubmitQuestion resolves free text against the FAQ directory and returns the
// id of the bot entry that answers it. The user's message is always recorded,
// even when another question is still being resolved.
func (o *Orchestrator) SubmitQuestion(ctx context.Context, text string) (entryID string, err error) {
	const op = "Orchestrator.SubmitQuestion"

	if strings.TrimSpace(text) == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "question must not be empty", utils.ErrEmptyInput)
	}

	if _, err := o.appendEntry(ctx, models.AuthorUser, text, nil, ""); err != nil {
		return "", err
	}

	h, berr := o.flight.Begin()
	if berr != nil {
		o.log.WithField("op", op).Info("question rejected while another is resolving")
		return o.appendBot(ctx, NoticeBusy, nil)
	}
	defer func() { o.release(h, err) }()

	// Outbound calls always run to completion once issued.
	callCtx := context.WithoutCancel(ctx)

	recordID := o.appendHistory(callCtx, text)

	results, err := o.directory.SearchByKeyword(callCtx, text)
	var botText string
	switch {
	case errors.Is(err, utils.ErrUnauthenticated):
		return "", err
	case err != nil:
		o.log.WithError(err).WithField("op", op).Warn("keyword search failed")
		botText, results = NoticeFailure, nil
	case len(results) == 0:
		botText = NoticeNoResults
	default:
		botText = NoticeResults
	}

	e, err := o.appendEntry(ctx, models.AuthorBot, botText, results, recordID)
	if err != nil {
		return "", err
	}
	return e.ID, nil
}

// InvokeQuickReply looks up every FAQ in a category from the current catalog.
func (o *Orchestrator) InvokeQuickReply(ctx context.Context, category string) (entryID string, err error) {
	const op = "Orchestrator.InvokeQuickReply"

	if !o.hasCategory(category) {
		return "", utils.E(utils.CodeInvalidArgument, op, "category is not a quick reply", utils.ErrUnknownCategory)
	}

	if _, err := o.appendEntry(ctx, models.AuthorUser, category, nil, ""); err != nil {
		return "", err
	}

	if o.quickReplyFlight {
		h, berr := o.flight.Begin()
		if berr != nil {
			return o.appendBot(ctx, NoticeBusy, nil)
		}
		defer func() { o.release(h, err) }()
	}

	results, err := o.directory.SearchByCategory(context.WithoutCancel(ctx), category)
	switch {
	case errors.Is(err, utils.ErrUnauthenticated):
		return "", err
	case err != nil:
		o.log.WithError(err).WithFields(logrus.Fields{"op": op, "category": category}).Warn("category lookup failed")
		return o.appendBot(ctx, fmt.Sprintf(noticeCategoryFailure, category), nil)
	}
	return o.appendBot(ctx, fmt.Sprintf(noticeCategoryResults, category), results)
}

// SubmitFeedback records feedback locally and forwards it to the history
// service. A failed forward is logged; the local feedback stays.
func (o *Orchestrator) SubmitFeedback(ctx context.Context, entryID string, helpful bool, comment string) error {
	const op = "Orchestrator.SubmitFeedback"

	if err := o.transcript.SetFeedback(entryID, helpful, comment); err != nil {
		return err
	}

	o.mu.RLock()
	seq := o.seqs[entryID]
	recordID := o.records[entryID]
	o.mu.RUnlock()

	entry, err := o.transcript.Get(entryID)
	if err == nil {
		o.publish(ctx, events.FeedbackEvent(o.sessionID, seq, entry))
	}
	if o.archive != nil {
		if err := o.archive.RecordFeedback(context.WithoutCancel(ctx), entryID, models.Feedback{Helpful: helpful, Comment: comment}); err != nil {
			o.log.WithError(err).WithField("entry_id", entryID).Warn("archive feedback failed")
		}
	}

	log := o.log.WithFields(logrus.Fields{"op": op, "entry_id": entryID})
	if recordID == "" {
		log.Debug("no history record linked; feedback kept locally")
		return nil
	}

	job := workers.FeedbackJob{
		SessionID: o.sessionID,
		EntryID:   entryID,
		RecordID:  recordID,
		Helpful:   helpful,
		Comment:   comment,
		Recorder:  o.history,
	}
	if err := o.feedback.Dispatch(context.WithoutCancel(ctx), job); err != nil {
		log.WithError(err).Warn("remote feedback submit failed")
	}
	return nil
}

// RefreshQuickReplies replaces the catalog wholesale. Any failure leaves an
// empty catalog.
func (o *Orchestrator) RefreshQuickReplies(ctx context.Context) {
	cats, err := o.directory.ListQuickReplyCategories(ctx)
	if err != nil {
		o.log.WithError(err).Warn("quick reply catalog unavailable")
		cats = []string{}
	}
	cats = slices.Clone(cats)
	if cats == nil {
		cats = []string{}
	}

	o.mu.Lock()
	o.catalog = cats
	o.mu.Unlock()
}

func (o *Orchestrator) QuickReplies() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return slices.Clone(o.catalog)
}

func (o *Orchestrator) IsBusy() bool { return o.flight.IsBusy() }

func (o *Orchestrator) Entry(id string) (models.TranscriptEntry, error) { return o.transcript.Get(id) }

func (o *Orchestrator) Snapshot() iter.Seq[models.TranscriptEntry] { return o.transcript.Snapshot() }

func (o *Orchestrator) Entries() []models.TranscriptEntry { return o.transcript.Entries() }

func (o *Orchestrator) hasCategory(category string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return slices.Contains(o.catalog, category)
}

// release always frees the coordinator; an operation that ended in error is
// recorded as abandoned.
func (o *Orchestrator) release(h coordinator.Handle, opErr error) {
	var err error
	if opErr != nil {
		err = o.flight.Cancel(h)
	} else {
		err = o.flight.Complete(h)
	}
	if err != nil {
		o.log.WithError(err).Error("failed to release resolve operation")
	}
}

func (o *Orchestrator) appendHistory(ctx context.Context, question string) string {
	id, err := o.history.AppendHistory(ctx, o.identity.UserID, question, o.now().UTC())
	if err != nil {
		o.log.WithError(err).Warn("history append failed")
		return ""
	}
	return id
}

func (o *Orchestrator) appendBot(ctx context.Context, text string, results []models.FAQEntry) (string, error) {
	e, err := o.appendEntry(ctx, models.AuthorBot, text, results, "")
	if err != nil {
		return "", err
	}
	return e.ID, nil
}

// appendEntry stamps, appends and publishes one entry. Publishing happens
// under appendMu so subscribers see entries in transcript order, and the
// history record is linked before anyone can react to the event.
func (o *Orchestrator) appendEntry(ctx context.Context, author models.Author, text string, results []models.FAQEntry, recordID string) (models.TranscriptEntry, error) {
	if results == nil {
		results = []models.FAQEntry{}
	}

	o.appendMu.Lock()
	at := o.now().UTC()
	if last, ok := o.transcript.Last(); ok && at.Before(last.CreatedAt) {
		at = last.CreatedAt
	}
	e := models.TranscriptEntry{Author: author, Text: text, CreatedAt: at, FAQResults: results}
	id, err := o.transcript.Append(e)
	if err != nil {
		o.appendMu.Unlock()
		return models.TranscriptEntry{}, err
	}
	e.ID = id
	seq := int64(o.transcript.Len() - 1)

	o.mu.Lock()
	o.seqs[id] = seq
	if recordID != "" {
		o.records[id] = recordID
	}
	o.mu.Unlock()

	o.publish(ctx, events.EntryEvent(o.sessionID, seq, e))
	o.appendMu.Unlock()

	if o.archive != nil {
		if err := o.archive.Record(context.WithoutCancel(ctx), o.sessionID, o.identity.UserID, seq, e); err != nil {
			o.log.WithError(err).WithField("entry_id", id).Warn("archive append failed")
		}
	}
	return e, nil
}

func (o *Orchestrator) publish(ctx context.Context, ev events.Event) {
	if err := o.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
		o.log.WithError(err).WithField("event", ev.Type).Debug("publish failed")
	}
}

type directFeedback struct{}

func (directFeedback) Dispatch(ctx context.Context, job workers.FeedbackJob) error {
	return job.Recorder.SubmitFeedback(ctx, job.RecordID, job.Helpful, job.Comment)
}
