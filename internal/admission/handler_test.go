package admission

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ravndata/ingestgate/internal/pipeline"
	"github.com/ravndata/ingestgate/internal/testhelpers"
)

type capturingSink struct {
	batches [][]pipeline.Record
}

func (s *capturingSink) WriteBatch(ctx context.Context, records []pipeline.Record) error {
	s.batches = append(s.batches, records)
	return nil
}

func newTestHandler(t *testing.T, queueCapacity int) (*Handler, *pipeline.Pipeline) {
	t.Helper()
	primary := &capturingSink{}
	dlq := &capturingSink{}
	p := pipeline.New(pipeline.Config{
		Queue:         pipeline.NewQueue(queueCapacity),
		BatchSize:     100,
		FlushInterval: time.Minute,
		Primary:       primary,
		DLQ:           dlq,
		Retry:         pipeline.NewRetryPolicy(1, time.Millisecond),
		Logger:        testhelpers.NewTestLogger(),
	})
	p.Start(context.Background())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = p.Shutdown(ctx)
	})

	return &Handler{Pipeline: p, Logger: testhelpers.NewTestLogger(), MaxBodyBytes: 1 << 20}, p
}

func TestHandler_AcceptsSingleObject(t *testing.T) {
	h, p := newTestHandler(t, 10)

	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(`{"payload": {"a": 1}}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"accepted_count":1,"message":"successfully ingested 1 records"}`, rec.Body.String())
	assert.Equal(t, 1, p.QueueDepth())
}

func TestHandler_AcceptsListOfObjects(t *testing.T) {
	h, p := newTestHandler(t, 10)

	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(`{"payload": [{"a": 1}, {"b": 2}]}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 2, p.QueueDepth())
}

func TestHandler_RejectsMissingPayload(t *testing.T) {
	h, _ := newTestHandler(t, 10)

	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_RejectsEmptyList(t *testing.T) {
	h, _ := newTestHandler(t, 10)

	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(`{"payload": []}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_RejectsNonObjectItemsInList(t *testing.T) {
	h, _ := newTestHandler(t, 10)

	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(`{"payload": [{"a": 1}, "not an object"]}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_RejectsMalformedJSON(t *testing.T) {
	h, _ := newTestHandler(t, 10)

	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(`{not json`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_RejectsNonPostMethod(t *testing.T) {
	h, _ := newTestHandler(t, 10)

	req := httptest.NewRequest(http.MethodGet, "/ingest", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandler_ReturnsTooManyRequestsWhenQueueFull(t *testing.T) {
	h, _ := newTestHandler(t, 1)

	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(`{"payload": [{"a": 1}, {"b": 2}]}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "queue is full")
}
