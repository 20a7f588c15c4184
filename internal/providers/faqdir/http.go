package faqdir

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/yoockh/faqchat/internal/models"
	"github.com/yoockh/faqchat/internal/providers/restclient"
)

// HTTPDirectory talks to the FAQ directory REST API:
//
//	GET    /faqs?keyword=q
//	GET    /faqs/category/{category}
//	GET    /quick-replies
//	GET    /faqs, POST /faqs, GET|PUT|DELETE /faqs/{id}
type HTTPDirectory struct {
	rest restclient.Client
}

func NewHTTPDirectory(baseURL string, hc *http.Client) *HTTPDirectory {
	return &HTTPDirectory{rest: restclient.New(baseURL, hc)}
}

func (d *HTTPDirectory) withToken(credential string) *HTTPDirectory {
	return &HTTPDirectory{rest: d.rest.WithToken(credential)}
}

func (d *HTTPDirectory) ForCredential(credential string) Directory { return d.withToken(credential) }

func (d *HTTPDirectory) AdminFor(credential string) Admin { return d.withToken(credential) }

func (d *HTTPDirectory) SearchByKeyword(ctx context.Context, keyword string) ([]models.FAQEntry, error) {
	var out []models.FAQEntry
	q := url.Values{"keyword": {keyword}}
	if err := d.rest.Do(ctx, "FAQDirectory.SearchByKeyword", http.MethodGet, "/faqs?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (d *HTTPDirectory) SearchByCategory(ctx context.Context, category string) ([]models.FAQEntry, error) {
	var out []models.FAQEntry
	path := "/faqs/category/" + url.PathEscape(category)
	if err := d.rest.Do(ctx, "FAQDirectory.SearchByCategory", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (d *HTTPDirectory) ListQuickReplyCategories(ctx context.Context) ([]string, error) {
	var out []string
	if err := d.rest.Do(ctx, "FAQDirectory.ListQuickReplyCategories", http.MethodGet, "/quick-replies", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (d *HTTPDirectory) List(ctx context.Context) ([]models.FAQEntry, error) {
	var out []models.FAQEntry
	if err := d.rest.Do(ctx, "FAQDirectory.List", http.MethodGet, "/faqs", nil, &out); err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

func (d *HTTPDirectory) Get(ctx context.Context, id int64) (*models.FAQEntry, error) {
	var out models.FAQEntry
	if err := d.rest.Do(ctx, "FAQDirectory.Get", http.MethodGet, faqPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *HTTPDirectory) Create(ctx context.Context, faq models.FAQEntry) (*models.FAQEntry, error) {
	var out models.FAQEntry
	if err := d.rest.Do(ctx, "FAQDirectory.Create", http.MethodPost, "/faqs", faq, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *HTTPDirectory) Update(ctx context.Context, id int64, faq models.FAQEntry) (*models.FAQEntry, error) {
	var out models.FAQEntry
	if err := d.rest.Do(ctx, "FAQDirectory.Update", http.MethodPut, faqPath(id), faq, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *HTTPDirectory) Delete(ctx context.Context, id int64) error {
	return d.rest.Do(ctx, "FAQDirectory.Delete", http.MethodDelete, faqPath(id), nil, nil)
}

func faqPath(id int64) string { return "/faqs/" + strconv.FormatInt(id, 10) }

func nonNil(in []models.FAQEntry) []models.FAQEntry {
	if in == nil {
		return []models.FAQEntry{}
	}
	return in
}
