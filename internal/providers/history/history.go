package history

import (
	"context"
	"time"

	"github.com/yoockh/faqchat/internal/analytics"
)

// Recorder persists asked questions and feedback and serves aggregate counts.
type Recorder interface {
	AppendHistory(ctx context.Context, userID, question string, at time.Time) (recordID string, err error)
	SubmitFeedback(ctx context.Context, recordID string, helpful bool, comment string) error
	PopularQuestions(ctx context.Context) (analytics.Counts, error)
	CategoryCounts(ctx context.Context) (analytics.Counts, error)
}

// Source hands out recorders bound to a caller's bearer credential.
type Source interface {
	ForCredential(credential string) Recorder
}
