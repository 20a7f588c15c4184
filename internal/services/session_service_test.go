package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/faqchat/internal/models"
	"github.com/yoockh/faqchat/internal/utils"
)

type fakeSessionRepo struct {
	mu        sync.Mutex
	sessions  map[string]*models.Session
	questions map[string]int64
	listErr   error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*models.Session{}, questions: map[string]int64{}}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.sessions[s.SessionID] = &cp
	return nil
}

func (r *fakeSessionRepo) GetBySessionID(_ context.Context, sessionID string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) ListByUser(_ context.Context, userID string, _ int64) ([]models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []models.Session
	for _, s := range r.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) End(_ context.Context, sessionID string, endedAt time.Time, dur int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return utils.ErrNotFound
	}
	s.Status = models.SessionEnded
	s.EndedAt = &endedAt
	s.DurationSeconds = dur
	return nil
}

func (r *fakeSessionRepo) SetQuickReplies(_ context.Context, sessionID string, cats []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		s.QuickReplies = cats
	}
	return nil
}

func (r *fakeSessionRepo) IncQuestions(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questions[sessionID]++
	return nil
}

func (r *fakeSessionRepo) get(sessionID string) *models.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[sessionID]
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) InvalidateQuickReplies(context.Context) error {
	c.n++
	return nil
}

func newTestSessionService(dir *fakeDirectory, repo *fakeSessionRepo, mutate ...func(*SessionServiceConfig)) (SessionService, *fakeDirectorySource) {
	logger, _ := test.NewNullLogger()
	src := &fakeDirectorySource{dir: dir}
	cfg := SessionServiceConfig{
		Directory: src,
		History:   fakeHistorySource{rec: &fakeRecorder{}},
		Logger:    logger,
	}
	if repo != nil {
		cfg.Sessions = repo
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return NewSessionService(cfg), src
}

func TestSessionStart(t *testing.T) {
	repo := newFakeSessionRepo()
	dir := &fakeDirectory{categories: []string{"Billing", "Shipping"}}
	svc, src := newTestSessionService(dir, repo)

	orch, err := svc.Start(context.Background(), testIdentity)
	require.NoError(t, err)
	require.NotEmpty(t, orch.SessionID())

	assert.Equal(t, []string{"Billing", "Shipping"}, orch.QuickReplies())
	assert.Empty(t, orch.Entries())
	assert.False(t, orch.IsBusy())
	assert.Equal(t, []string{"token-1"}, src.creds)

	rec := repo.get(orch.SessionID())
	require.NotNil(t, rec)
	assert.Equal(t, models.SessionActive, rec.Status)
	assert.Equal(t, "u-1", rec.UserID)
	assert.Equal(t, utils.CredentialFingerprint("token-1"), rec.CredentialFingerprint)
	assert.NotContains(t, rec.CredentialFingerprint, "token-1")
}

func TestSessionStartUnauthenticated(t *testing.T) {
	svc, _ := newTestSessionService(&fakeDirectory{}, nil)

	_, err := svc.Start(context.Background(), models.Identity{UserID: "u-1"})
	assert.ErrorIs(t, err, utils.ErrUnauthenticated)
}

func TestSessionStartCatalogFailure(t *testing.T) {
	svc, _ := newTestSessionService(&fakeDirectory{listErr: errors.New("down")}, nil)

	orch, err := svc.Start(context.Background(), testIdentity)
	require.NoError(t, err)
	assert.NotNil(t, orch.QuickReplies())
	assert.Empty(t, orch.QuickReplies())
}

func TestSessionStartReplacesPrevious(t *testing.T) {
	repo := newFakeSessionRepo()
	svc, _ := newTestSessionService(&fakeDirectory{}, repo)
	ctx := context.Background()

	first, err := svc.Start(ctx, testIdentity)
	require.NoError(t, err)
	second, err := svc.Start(ctx, testIdentity)
	require.NoError(t, err)
	assert.NotEqual(t, first.SessionID(), second.SessionID())

	_, err = svc.Get(ctx, testIdentity, first.SessionID())
	assert.ErrorIs(t, err, utils.ErrNotFound)
	assert.Equal(t, models.SessionEnded, repo.get(first.SessionID()).Status)

	got, err := svc.Get(ctx, testIdentity, second.SessionID())
	require.NoError(t, err)
	assert.Same(t, second, got)
}

func TestSessionGetOtherUser(t *testing.T) {
	svc, _ := newTestSessionService(&fakeDirectory{}, nil)
	orch, err := svc.Start(context.Background(), testIdentity)
	require.NoError(t, err)

	other := models.Identity{UserID: "u-2", Credential: "token-2"}
	_, err = svc.Get(context.Background(), other, orch.SessionID())
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))

	_, err = svc.Get(context.Background(), testIdentity, "")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestSessionEnd(t *testing.T) {
	repo := newFakeSessionRepo()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := &stepClock{times: []time.Time{start, start, start, start.Add(90 * time.Second)}}
	dir := &fakeDirectory{keyword: map[string][]models.FAQEntry{"refund": {faq(1, "Refunds", "Billing")}}}
	svc, _ := newTestSessionService(dir, repo, func(c *SessionServiceConfig) { c.Now = clock.Now })
	ctx := context.Background()

	orch, err := svc.Start(ctx, testIdentity)
	require.NoError(t, err)
	sid := orch.SessionID()

	_, err = svc.SubmitQuestion(ctx, testIdentity, sid, "refund")
	require.NoError(t, err)
	assert.Equal(t, int64(1), repo.questions[sid])

	ended, err := svc.End(ctx, testIdentity, sid)
	require.NoError(t, err)
	assert.Equal(t, models.SessionEnded, ended.Status)
	assert.Equal(t, int64(1), ended.Questions)
	require.NotNil(t, ended.EndedAt)
	assert.GreaterOrEqual(t, ended.DurationSeconds, int64(0))

	_, err = svc.Get(ctx, testIdentity, sid)
	assert.ErrorIs(t, err, utils.ErrNotFound)
	_, err = svc.End(ctx, testIdentity, sid)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	assert.Equal(t, models.SessionEnded, repo.get(sid).Status)
}

func TestSessionSubmitQuestionEmptyNotCounted(t *testing.T) {
	repo := newFakeSessionRepo()
	svc, _ := newTestSessionService(&fakeDirectory{}, repo)
	orch, err := svc.Start(context.Background(), testIdentity)
	require.NoError(t, err)

	_, err = svc.SubmitQuestion(context.Background(), testIdentity, orch.SessionID(), "  ")
	assert.ErrorIs(t, err, utils.ErrEmptyInput)
	assert.Zero(t, repo.questions[orch.SessionID()])
}

func TestSessionRefreshQuickReplies(t *testing.T) {
	repo := newFakeSessionRepo()
	dir := &fakeDirectory{categories: []string{"Billing"}}
	inv := &countingInvalidator{}
	svc, _ := newTestSessionService(dir, repo, func(c *SessionServiceConfig) { c.Catalog = inv })
	ctx := context.Background()

	orch, err := svc.Start(ctx, testIdentity)
	require.NoError(t, err)

	dir.categories = []string{"Billing", "Returns"}
	cats, err := svc.RefreshQuickReplies(ctx, testIdentity, orch.SessionID())
	require.NoError(t, err)
	assert.Equal(t, []string{"Billing", "Returns"}, cats)
	assert.Equal(t, 1, inv.n)
	assert.Equal(t, []string{"Billing", "Returns"}, repo.get(orch.SessionID()).QuickReplies)
}

func TestSessionRecent(t *testing.T) {
	svc, _ := newTestSessionService(&fakeDirectory{}, nil)
	_, err := svc.Recent(context.Background(), testIdentity, 10)
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))

	repo := newFakeSessionRepo()
	svc, _ = newTestSessionService(&fakeDirectory{}, repo)
	_, err = svc.Start(context.Background(), testIdentity)
	require.NoError(t, err)

	got, err := svc.Recent(context.Background(), testIdentity, 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	repo.listErr = errors.New("mongo down")
	_, err = svc.Recent(context.Background(), testIdentity, 10)
	assert.True(t, utils.IsCode(err, utils.CodeInternal))
}
