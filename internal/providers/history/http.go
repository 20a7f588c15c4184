package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/yoockh/faqchat/internal/analytics"
	"github.com/yoockh/faqchat/internal/providers/restclient"
	"github.com/yoockh/faqchat/internal/utils"
)

// HTTPRecorder talks to the chat history REST API:
//
//	POST /chat-history                              {userId, question, timestamp}
//	POST /chat-history/feedback/{recordId}          {helpful, comment}
//	GET  /chat-history/analytics/popular-questions
//	GET  /chat-history/analytics/category-counts
type HTTPRecorder struct {
	rest restclient.Client
}

func NewHTTPRecorder(baseURL string, hc *http.Client) *HTTPRecorder {
	return &HTTPRecorder{rest: restclient.New(baseURL, hc)}
}

func (h *HTTPRecorder) ForCredential(credential string) Recorder {
	return &HTTPRecorder{rest: h.rest.WithToken(credential)}
}

type appendRequest struct {
	UserID    string `json:"userId"`
	Question  string `json:"question"`
	Timestamp string `json:"timestamp"`
}

type feedbackRequest struct {
	Helpful bool   `json:"helpful"`
	Comment string `json:"comment"`
}

func (h *HTTPRecorder) AppendHistory(ctx context.Context, userID, question string, at time.Time) (string, error) {
	const op = "HistoryClient.AppendHistory"

	var raw json.RawMessage
	req := appendRequest{UserID: userID, Question: question, Timestamp: at.UTC().Format(time.RFC3339Nano)}
	if err := h.rest.Do(ctx, op, http.MethodPost, "/chat-history", req, &raw); err != nil {
		return "", err
	}
	id, err := parseRecordID(raw)
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "history service returned no record id", err)
	}
	return id, nil
}

func (h *HTTPRecorder) SubmitFeedback(ctx context.Context, recordID string, helpful bool, comment string) error {
	const op = "HistoryClient.SubmitFeedback"

	if recordID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "record id is required", nil)
	}
	path := "/chat-history/feedback/" + url.PathEscape(recordID)
	return h.rest.Do(ctx, op, http.MethodPost, path, feedbackRequest{Helpful: helpful, Comment: comment}, nil)
}

func (h *HTTPRecorder) PopularQuestions(ctx context.Context) (analytics.Counts, error) {
	var out analytics.Counts
	if err := h.rest.Do(ctx, "HistoryClient.PopularQuestions", http.MethodGet, "/chat-history/analytics/popular-questions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (h *HTTPRecorder) CategoryCounts(ctx context.Context) (analytics.Counts, error) {
	var out analytics.Counts
	if err := h.rest.Do(ctx, "HistoryClient.CategoryCounts", http.MethodGet, "/chat-history/analytics/category-counts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// parseRecordID accepts a bare id (number or string) or an object carrying
// "id" or "recordId".
func parseRecordID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("empty body")
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return "", err
	}

	if obj, ok := v.(map[string]any); ok {
		if id, ok := obj["id"]; ok {
			v = id
		} else {
			v = obj["recordId"]
		}
	}

	switch id := v.(type) {
	case string:
		if id != "" {
			return id, nil
		}
	case json.Number:
		if n, err := id.Int64(); err == nil {
			return strconv.FormatInt(n, 10), nil
		}
		return id.String(), nil
	}
	return "", fmt.Errorf("unrecognised record id %s", string(raw))
}
