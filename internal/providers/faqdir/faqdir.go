package faqdir

import (
	"context"

	"github.com/yoockh/faqchat/internal/models"
)

// Directory is the query side of the FAQ directory service.
type Directory interface {
	SearchByKeyword(ctx context.Context, keyword string) ([]models.FAQEntry, error)
	SearchByCategory(ctx context.Context, category string) ([]models.FAQEntry, error)
	ListQuickReplyCategories(ctx context.Context) ([]string, error)
}

// Admin is the CRUD side used by the admin proxy routes.
type Admin interface {
	List(ctx context.Context) ([]models.FAQEntry, error)
	Get(ctx context.Context, id int64) (*models.FAQEntry, error)
	Create(ctx context.Context, faq models.FAQEntry) (*models.FAQEntry, error)
	Update(ctx context.Context, id int64, faq models.FAQEntry) (*models.FAQEntry, error)
	Delete(ctx context.Context, id int64) error
}

// Source hands out directory views bound to a caller's bearer credential.
type Source interface {
	ForCredential(credential string) Directory
}

type AdminSource interface {
	AdminFor(credential string) Admin
}
