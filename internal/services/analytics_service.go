package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/faqchat/internal/analytics"
	"github.com/yoockh/faqchat/internal/cache"
	"github.com/yoockh/faqchat/internal/models"
	"github.com/yoockh/faqchat/internal/providers/history"
	"github.com/yoockh/faqchat/internal/utils"
)

type AnalyticsService interface {
	PopularQuestions(ctx context.Context, id models.Identity) ([]analytics.QuestionCount, error)
	CategoryDistribution(ctx context.Context, id models.Identity) ([]analytics.CategoryShare, error)
}

type analyticsService struct {
	history history.Source
	cache   cache.Cache // optional
	ttl     time.Duration
	logger  *logrus.Logger
}

func NewAnalyticsService(h history.Source, c cache.Cache, ttl time.Duration, l *logrus.Logger) AnalyticsService {
	if ttl <= 0 {
		ttl = cache.DefaultAnalyticsTTL
	}
	if l == nil {
		l = logrus.New()
	}
	return &analyticsService{history: h, cache: c, ttl: ttl, logger: l}
}

func (s *analyticsService) PopularQuestions(ctx context.Context, id models.Identity) ([]analytics.QuestionCount, error) {
	counts, err := s.counts(ctx, "AnalyticsService.PopularQuestions", id, cache.KeyPopularQuestions, history.Recorder.PopularQuestions)
	if err != nil {
		return nil, err
	}
	return analytics.RankPopularQuestions(counts), nil
}

func (s *analyticsService) CategoryDistribution(ctx context.Context, id models.Identity) ([]analytics.CategoryShare, error) {
	counts, err := s.counts(ctx, "AnalyticsService.CategoryDistribution", id, cache.KeyCategoryCounts, history.Recorder.CategoryCounts)
	if err != nil {
		return nil, err
	}
	return analytics.CategoryDistribution(counts), nil
}

func (s *analyticsService) counts(
	ctx context.Context,
	op string,
	id models.Identity,
	key string,
	fetch func(history.Recorder, context.Context) (analytics.Counts, error),
) (analytics.Counts, error) {
	if id.Credential == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "authenticated identity is required", utils.ErrUnauthenticated)
	}

	// Entries are per credential so a rejected credential never reads counts
	// fetched with someone else's.
	key += ":" + utils.CredentialFingerprint(id.Credential)

	log := s.logger.WithField("op", op)
	if s.cache != nil {
		var cached analytics.Counts
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			log.WithError(err).Warn("analytics cache read failed")
		}
		if hit {
			return cached, nil
		}
	}

	counts, err := fetch(s.history.ForCredential(id.Credential), ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, counts, s.ttl); err != nil {
			log.WithError(err).Warn("analytics cache write failed")
		}
	}
	return counts, nil
}
