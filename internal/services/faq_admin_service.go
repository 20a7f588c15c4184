package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/faqchat/internal/models"
	"github.com/yoockh/faqchat/internal/providers/faqdir"
	"github.com/yoockh/faqchat/internal/utils"
)

// FAQAdminService proxies FAQ maintenance to the directory service with the
// admin's own credential. Writes drop the cached quick-reply catalog.
type FAQAdminService interface {
	List(ctx context.Context, id models.Identity) ([]models.FAQEntry, error)
	Get(ctx context.Context, id models.Identity, faqID int64) (*models.FAQEntry, error)
	Create(ctx context.Context, id models.Identity, faq models.FAQEntry) (*models.FAQEntry, error)
	Update(ctx context.Context, id models.Identity, faqID int64, faq models.FAQEntry) (*models.FAQEntry, error)
	Delete(ctx context.Context, id models.Identity, faqID int64) error
}

type faqAdminService struct {
	admins  faqdir.AdminSource
	catalog CatalogInvalidator // optional
	logger  *logrus.Logger
}

func NewFAQAdminService(admins faqdir.AdminSource, catalog CatalogInvalidator, l *logrus.Logger) FAQAdminService {
	if l == nil {
		l = logrus.New()
	}
	return &faqAdminService{admins: admins, catalog: catalog, logger: l}
}

func (s *faqAdminService) admin(op string, id models.Identity) (faqdir.Admin, error) {
	if id.Credential == "" {
		return nil, utils.E(utils.CodeUnauthorized, op, "authenticated identity is required", utils.ErrUnauthenticated)
	}
	if id.Role != models.RoleAdmin {
		return nil, utils.E(utils.CodeForbidden, op, "forbidden", nil)
	}
	return s.admins.AdminFor(id.Credential), nil
}

func (s *faqAdminService) List(ctx context.Context, id models.Identity) ([]models.FAQEntry, error) {
	a, err := s.admin("FAQAdminService.List", id)
	if err != nil {
		return nil, err
	}
	return a.List(ctx)
}

func (s *faqAdminService) Get(ctx context.Context, id models.Identity, faqID int64) (*models.FAQEntry, error) {
	a, err := s.admin("FAQAdminService.Get", id)
	if err != nil {
		return nil, err
	}
	return a.Get(ctx, faqID)
}

func (s *faqAdminService) Create(ctx context.Context, id models.Identity, faq models.FAQEntry) (*models.FAQEntry, error) {
	const op = "FAQAdminService.Create"

	a, err := s.admin(op, id)
	if err != nil {
		return nil, err
	}
	faq, err = normalizeFAQ(op, faq)
	if err != nil {
		return nil, err
	}
	out, err := a.Create(ctx, faq)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, op)
	return out, nil
}

func (s *faqAdminService) Update(ctx context.Context, id models.Identity, faqID int64, faq models.FAQEntry) (*models.FAQEntry, error) {
	const op = "FAQAdminService.Update"

	a, err := s.admin(op, id)
	if err != nil {
		return nil, err
	}
	faq, err = normalizeFAQ(op, faq)
	if err != nil {
		return nil, err
	}
	out, err := a.Update(ctx, faqID, faq)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, op)
	return out, nil
}

func (s *faqAdminService) Delete(ctx context.Context, id models.Identity, faqID int64) error {
	const op = "FAQAdminService.Delete"

	a, err := s.admin(op, id)
	if err != nil {
		return err
	}
	if err := a.Delete(ctx, faqID); err != nil {
		return err
	}
	s.invalidate(ctx, op)
	return nil
}

func (s *faqAdminService) invalidate(ctx context.Context, op string) {
	if s.catalog == nil {
		return
	}
	if err := s.catalog.InvalidateQuickReplies(ctx); err != nil {
		s.logger.WithError(err).WithField("op", op).Warn("quick reply cache invalidation failed")
	}
}

func normalizeFAQ(op string, faq models.FAQEntry) (models.FAQEntry, error) {
	faq.Question = strings.TrimSpace(faq.Question)
	faq.Answer = strings.TrimSpace(faq.Answer)
	faq.Category = strings.TrimSpace(faq.Category)
	if faq.Question == "" || faq.Answer == "" || faq.Category == "" {
		return faq, utils.E(utils.CodeInvalidArgument, op, "question, answer and category are required", utils.ErrEmptyInput)
	}
	return faq, nil
}
