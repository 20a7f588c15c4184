package cache

import (
	"context"
	"time"
)

type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

const (
	KeyQuickReplies     = "faqchat:quick_replies"
	KeyPopularQuestions = "faqchat:analytics:popular_questions"
	KeyCategoryCounts   = "faqchat:analytics:category_counts"

	DefaultQuickReplyTTL = 10 * time.Minute
	DefaultAnalyticsTTL  = time.Minute
)
