package cache

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/faqchat/internal/providers/faqdir"
)

// DirectorySource decorates a faqdir.Source so the quick-reply catalog, which
// is identical for every caller, is served from cache. Searches always go
// upstream. A cache hit skips the caller's credential; catalog failures are
// never surfaced to callers anyway, they only leave the catalog empty.
type DirectorySource struct {
	next   faqdir.Source
	cache  Cache
	ttl    time.Duration
	logger *logrus.Logger
}

func NewDirectorySource(next faqdir.Source, c Cache, ttl time.Duration, l *logrus.Logger) *DirectorySource {
	if ttl <= 0 {
		ttl = DefaultQuickReplyTTL
	}
	if l == nil {
		l = logrus.New()
	}
	return &DirectorySource{next: next, cache: c, ttl: ttl, logger: l}
}

func (s *DirectorySource) ForCredential(credential string) faqdir.Directory {
	return &cachedDirectory{Directory: s.next.ForCredential(credential), src: s}
}

// InvalidateQuickReplies drops the cached catalog so the next read goes upstream.
func (s *DirectorySource) InvalidateQuickReplies(ctx context.Context) error {
	return s.cache.Del(ctx, KeyQuickReplies)
}

type cachedDirectory struct {
	faqdir.Directory
	src *DirectorySource
}

func (d *cachedDirectory) ListQuickReplyCategories(ctx context.Context) ([]string, error) {
	var out []string
	hit, err := d.src.cache.GetJSON(ctx, KeyQuickReplies, &out)
	if err != nil {
		d.src.logger.WithError(err).Warn("quick reply cache read failed")
	}
	if hit {
		return out, nil
	}

	out, err = d.Directory.ListQuickReplyCategories(ctx)
	if err != nil {
		return nil, err
	}
	if err := d.src.cache.SetJSON(ctx, KeyQuickReplies, out, d.src.ttl); err != nil {
		d.src.logger.WithError(err).Warn("quick reply cache write failed")
	}
	return out, nil
}
