// Package restclient is the JSON-over-HTTP plumbing shared by the FAQ
// directory and chat history clients.
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yoockh/faqchat/internal/utils"
)

const maxBody = 4 << 20

// Client carries the base URL and the caller's bearer credential. It is a
// value type; WithToken returns a copy bound to another credential.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(baseURL string, hc *http.Client) Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: hc}
}

func (c Client) WithToken(token string) Client {
	c.Token = token
	return c
}

// Do sends in (if non-nil) as JSON and decodes the response into out (if
// non-nil). Transport failures and 5xx map to ErrServiceUnavailable, 401/403 to
// ErrUnauthenticated and 404 to ErrNotFound.
func (c Client) Do(ctx context.Context, op, method, path string, in, out any) error {
	if strings.TrimSpace(c.Token) == "" {
		return utils.E(utils.CodeUnauthorized, op, "missing bearer credential", utils.ErrUnauthenticated)
	}
	if c.BaseURL == "" {
		return utils.E(utils.CodeInternal, op, "base url is not configured", nil)
	}
	hc := c.HTTP
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return utils.E(utils.CodeInternal, op, "failed to encode request", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := hc.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return utils.E(utils.CodeTimeout, op, "upstream timed out", errors.Join(utils.ErrServiceUnavailable, err))
		}
		return utils.E(utils.CodeUnavailable, op, "upstream unreachable", errors.Join(utils.ErrServiceUnavailable, err))
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to read upstream response", errors.Join(utils.ErrServiceUnavailable, err))
	}

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		return utils.E(utils.CodeUnauthorized, op, "upstream rejected credential", utils.ErrUnauthenticated)
	case res.StatusCode == http.StatusNotFound:
		return utils.E(utils.CodeNotFound, op, "upstream resource not found", utils.ErrNotFound)
	case res.StatusCode >= 400:
		return utils.E(utils.CodeUnavailable, op, fmt.Sprintf("upstream status %d", res.StatusCode), utils.ErrServiceUnavailable)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return utils.E(utils.CodeUnavailable, op, "invalid upstream response", errors.Join(utils.ErrServiceUnavailable, err))
	}
	return nil
}
