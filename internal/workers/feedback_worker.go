package workers

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/faqchat/internal/providers/history"
)

// FeedbackJob is one feedback submission bound for the history service.
// Recorder is already bound to the submitting user's credential.
type FeedbackJob struct {
	SessionID string
	EntryID   string
	RecordID  string
	Helpful   bool
	Comment   string

	Recorder history.Recorder
}

var (
	ErrPoolNotStarted = errors.New("feedback pool is not running")
	ErrQueueFull      = errors.New("feedback queue is full")
)

// FeedbackWorkerPool submits feedback in the background so a slow history
// service never holds up the caller. Jobs are attempted once; failures are
// logged and dropped.
type FeedbackWorkerPool struct {
	NumWorkers int
	QueueSize  int
	Timeout    time.Duration

	Logger *logrus.Logger

	mu      sync.RWMutex
	jobs    chan FeedbackJob
	wg      sync.WaitGroup
	running bool
}

func (p *FeedbackWorkerPool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return errors.New("FeedbackWorkerPool already started")
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.QueueSize <= 0 {
		p.QueueSize = 256
	}
	if p.Timeout <= 0 {
		p.Timeout = 10 * time.Second
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	p.jobs = make(chan FeedbackJob, p.QueueSize)
	p.running = true

	for i := 0; i < p.NumWorkers; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx, "feedback-"+strconv.Itoa(i+1), p.jobs)
	}

	go func() {
		<-ctx.Done()
		p.stop()
	}()
	return nil
}

// Dispatch enqueues job without blocking.
func (p *FeedbackWorkerPool) Dispatch(_ context.Context, job FeedbackJob) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.running {
		return ErrPoolNotStarted
	}
	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Wait blocks until every worker has exited after the start context is done.
func (p *FeedbackWorkerPool) Wait() { p.wg.Wait() }

func (p *FeedbackWorkerPool) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	close(p.jobs)
}

func (p *FeedbackWorkerPool) runWorker(ctx context.Context, name string, jobs <-chan FeedbackJob) {
	defer p.wg.Done()
	// Queued jobs are drained even after shutdown starts.
	for job := range jobs {
		p.handle(context.WithoutCancel(ctx), name, job)
	}
}

func (p *FeedbackWorkerPool) handle(ctx context.Context, worker string, job FeedbackJob) {
	log := p.Logger.WithFields(logrus.Fields{
		"worker":     worker,
		"session_id": job.SessionID,
		"entry_id":   job.EntryID,
		"record_id":  job.RecordID,
	})
	if job.Recorder == nil || job.RecordID == "" {
		log.Warn("dropping feedback job without recorder or record id")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	start := time.Now()
	if err := job.Recorder.SubmitFeedback(ctx, job.RecordID, job.Helpful, job.Comment); err != nil {
		log.WithError(err).Warn("feedback submit failed")
		return
	}
	log.WithField("latency_ms", time.Since(start).Milliseconds()).Debug("feedback submitted")
}
