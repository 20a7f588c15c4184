package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/faqchat/internal/events"
	"github.com/yoockh/faqchat/internal/models"
	"github.com/yoockh/faqchat/internal/providers/faqdir"
	"github.com/yoockh/faqchat/internal/providers/history"
	mongorepo "github.com/yoockh/faqchat/internal/repositories/mongo"
	"github.com/yoockh/faqchat/internal/utils"
)

// SessionService owns the live SessionStates: one per logged-in identity,
// created on Start and discarded on End.
type SessionService interface {
	Start(ctx context.Context, id models.Identity) (*Orchestrator, error)
	Get(ctx context.Context, id models.Identity, sessionID string) (*Orchestrator, error)
	End(ctx context.Context, id models.Identity, sessionID string) (*models.Session, error)
	SubmitQuestion(ctx context.Context, id models.Identity, sessionID, text string) (string, error)
	RefreshQuickReplies(ctx context.Context, id models.Identity, sessionID string) ([]string, error)
	Recent(ctx context.Context, id models.Identity, limit int64) ([]models.Session, error)
}

// CatalogInvalidator drops a cached quick-reply catalog.
type CatalogInvalidator interface {
	InvalidateQuickReplies(ctx context.Context) error
}

type SessionServiceConfig struct {
	Directory faqdir.Source
	History   history.Source

	Sessions  mongorepo.SessionRepository // optional
	Archive   TranscriptArchive           // optional
	Publisher events.Publisher            // optional
	Feedback  FeedbackDispatcher          // optional
	Catalog   CatalogInvalidator          // optional

	Logger *logrus.Logger
	Now    func() time.Time

	QuickReplySingleFlight bool
}

type liveSession struct {
	orch      *Orchestrator
	userID    string
	createdAt time.Time
	questions atomic.Int64
}

type sessionService struct {
	cfg SessionServiceConfig

	mu     sync.Mutex
	live   map[string]*liveSession // session id -> state
	byUser map[string]string       // user id -> session id
}

func NewSessionService(cfg SessionServiceConfig) SessionService {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &sessionService{
		cfg:    cfg,
		live:   map[string]*liveSession{},
		byUser: map[string]string{},
	}
}

func (s *sessionService) Start(ctx context.Context, id models.Identity) (*Orchestrator, error) {
	const op = "SessionService.Start"

	if id.UserID == "" || id.Credential == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "authenticated identity is required", utils.ErrUnauthenticated)
	}

	sessionID := uuid.NewString()
	orch, err := NewOrchestrator(OrchestratorConfig{
		SessionID:              sessionID,
		Identity:               id,
		Directory:              s.cfg.Directory.ForCredential(id.Credential),
		History:                s.cfg.History.ForCredential(id.Credential),
		Feedback:               s.cfg.Feedback,
		Archive:                s.cfg.Archive,
		Publisher:              s.cfg.Publisher,
		Logger:                 s.cfg.Logger,
		Now:                    s.cfg.Now,
		QuickReplySingleFlight: s.cfg.QuickReplySingleFlight,
	})
	if err != nil {
		return nil, err
	}
	orch.RefreshQuickReplies(ctx)

	now := s.cfg.Now().UTC()

	s.mu.Lock()
	previous := s.byUser[id.UserID]
	if previous != "" {
		delete(s.live, previous)
	}
	s.live[sessionID] = &liveSession{orch: orch, userID: id.UserID, createdAt: now}
	s.byUser[id.UserID] = sessionID
	s.mu.Unlock()

	log := s.cfg.Logger.WithFields(logrus.Fields{
		"op":         op,
		"session_id": sessionID,
		"user_id":    id.UserID,
		"credential": utils.CredentialFingerprint(id.Credential),
	})
	if previous != "" {
		log = log.WithField("replaced_session_id", previous)
		s.persistEnd(ctx, previous, now)
	}

	if s.cfg.Sessions != nil {
		rec := &models.Session{
			SessionID:             sessionID,
			UserID:                id.UserID,
			Status:                models.SessionActive,
			CredentialFingerprint: utils.CredentialFingerprint(id.Credential),
			QuickReplies:          orch.QuickReplies(),
			CreatedAt:             now,
		}
		if err := s.cfg.Sessions.Create(ctx, rec); err != nil {
			log.WithError(err).Warn("failed to persist session record")
		}
	}

	log.Info("session started")
	return orch, nil
}

func (s *sessionService) Get(_ context.Context, id models.Identity, sessionID string) (*Orchestrator, error) {
	const op = "SessionService.Get"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	s.mu.Lock()
	ls, ok := s.live[sessionID]
	s.mu.Unlock()

	if !ok {
		return nil, utils.E(utils.CodeNotFound, op, "session not found", utils.ErrNotFound)
	}
	if ls.userID != id.UserID {
		return nil, utils.E(utils.CodeForbidden, op, "forbidden", nil)
	}
	return ls.orch, nil
}

func (s *sessionService) End(ctx context.Context, id models.Identity, sessionID string) (*models.Session, error) {
	const op = "SessionService.End"

	if _, err := s.Get(ctx, id, sessionID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	ls, ok := s.live[sessionID]
	if ok {
		delete(s.live, sessionID)
		if s.byUser[ls.userID] == sessionID {
			delete(s.byUser, ls.userID)
		}
	}
	s.mu.Unlock()
	if !ok {
		return nil, utils.E(utils.CodeNotFound, op, "session not found", utils.ErrNotFound)
	}

	now := s.cfg.Now().UTC()
	dur := int64(now.Sub(ls.createdAt).Seconds())
	if dur < 0 {
		dur = 0
	}
	s.persistEnd(ctx, sessionID, now)

	s.cfg.Logger.WithFields(logrus.Fields{"op": op, "session_id": sessionID, "user_id": id.UserID}).Info("session ended")

	return &models.Session{
		SessionID:       sessionID,
		UserID:          ls.userID,
		Status:          models.SessionEnded,
		QuickReplies:    ls.orch.QuickReplies(),
		Questions:       ls.questions.Load(),
		CreatedAt:       ls.createdAt,
		EndedAt:         &now,
		DurationSeconds: dur,
	}, nil
}

// SubmitQuestion forwards to the session's orchestrator and counts answered
// questions on the session record.
func (s *sessionService) SubmitQuestion(ctx context.Context, id models.Identity, sessionID, text string) (string, error) {
	orch, err := s.Get(ctx, id, sessionID)
	if err != nil {
		return "", err
	}
	entryID, err := orch.SubmitQuestion(ctx, text)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	ls := s.live[sessionID]
	s.mu.Unlock()
	if ls != nil {
		ls.questions.Add(1)
	}
	if s.cfg.Sessions != nil {
		if err := s.cfg.Sessions.IncQuestions(context.WithoutCancel(ctx), sessionID); err != nil {
			s.cfg.Logger.WithError(err).WithField("session_id", sessionID).Warn("failed to count question")
		}
	}
	return entryID, nil
}

// RefreshQuickReplies reloads the catalog of a live session, bypassing any
// cached copy.
func (s *sessionService) RefreshQuickReplies(ctx context.Context, id models.Identity, sessionID string) ([]string, error) {
	orch, err := s.Get(ctx, id, sessionID)
	if err != nil {
		return nil, err
	}
	if s.cfg.Catalog != nil {
		if err := s.cfg.Catalog.InvalidateQuickReplies(ctx); err != nil {
			s.cfg.Logger.WithError(err).Warn("quick reply cache invalidation failed")
		}
	}
	orch.RefreshQuickReplies(ctx)
	cats := orch.QuickReplies()

	if s.cfg.Sessions != nil {
		if err := s.cfg.Sessions.SetQuickReplies(ctx, sessionID, cats); err != nil {
			s.cfg.Logger.WithError(err).WithField("session_id", sessionID).Warn("failed to persist quick replies")
		}
	}
	return cats, nil
}

func (s *sessionService) Recent(ctx context.Context, id models.Identity, limit int64) ([]models.Session, error) {
	const op = "SessionService.Recent"

	if id.UserID == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "authenticated identity is required", utils.ErrUnauthenticated)
	}
	if s.cfg.Sessions == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "session history is not configured", utils.ErrServiceUnavailable)
	}
	out, err := s.cfg.Sessions.ListByUser(ctx, id.UserID, limit)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return []models.Session{}, nil
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to list sessions", err)
	}
	return out, nil
}

func (s *sessionService) persistEnd(ctx context.Context, sessionID string, now time.Time) {
	if s.cfg.Sessions == nil {
		return
	}
	log := s.cfg.Logger.WithField("session_id", sessionID)

	rec, err := s.cfg.Sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		log.WithError(err).Warn("failed to load session record")
		return
	}
	dur := int64(now.Sub(rec.CreatedAt).Seconds())
	if dur < 0 {
		dur = 0
	}
	if err := s.cfg.Sessions.End(ctx, sessionID, now, dur); err != nil {
		log.WithError(err).Warn("failed to end session record")
	}
}
