package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/faqchat/internal/utils"
)

type memUploader struct {
	name        string
	contentType string
	body        []byte
	err         error
}

func (u *memUploader) Upload(_ context.Context, objectName, contentType string, r io.Reader) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	u.name, u.contentType, u.body = objectName, contentType, b
	return "gs://bucket/" + objectName, nil
}

func TestExportTranscript(t *testing.T) {
	o := newTestOrchestrator(t, &fakeDirectory{}, &fakeRecorder{})
	_, err := o.SubmitQuestion(context.Background(), "zebra")
	require.NoError(t, err)

	up := &memUploader{}
	path, err := NewExportService(up).Export(context.Background(), o)
	require.NoError(t, err)
	assert.Equal(t, "gs://bucket/transcripts/u-1/s-1.json", path)
	assert.Equal(t, "application/json", up.contentType)

	var doc transcriptExport
	require.NoError(t, json.Unmarshal(up.body, &doc))
	assert.Equal(t, "s-1", doc.SessionID)
	require.Len(t, doc.Entries, 2)
	assert.Equal(t, "zebra", doc.Entries[0].Text)
	assert.NotContains(t, string(up.body), "token-1")
}

func TestExportErrors(t *testing.T) {
	o := newTestOrchestrator(t, &fakeDirectory{}, &fakeRecorder{})

	_, err := NewExportService(nil).Export(context.Background(), o)
	assert.ErrorIs(t, err, utils.ErrServiceUnavailable)

	_, err = NewExportService(&memUploader{err: errors.New("denied")}).Export(context.Background(), o)
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))
}
