package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-analyzer/internal/core"
	"github.com/mikey/llm-mail-analyzer/internal/extract"
	"github.com/mikey/llm-mail-analyzer/internal/router"
)

type fakeLLM struct {
	pingErr error
}

func (f *fakeLLM) Generate(ctx context.Context, modelID, prompt string) (string, error) {
	return `{"summary": "ok", "priority_score": 6}`, nil
}
func (f *fakeLLM) Ping(ctx context.Context) error { return f.pingErr }

type fakeStore struct {
	records       map[string]*core.AnalysisRecord
	conversations map[string][]*core.AnalysisRecord
	stats         *core.AnalysisStats
	searchResults []*core.AnalysisRecord
}

func (f *fakeStore) Migrate(ctx context.Context) error { return nil }
func (f *fakeStore) Upsert(ctx context.Context, rec *core.AnalysisRecord) error {
	return nil
}
func (f *fakeStore) Get(ctx context.Context, mailbox, emailID string) (*core.AnalysisRecord, error) {
	if rec, ok := f.records[mailbox+"/"+emailID]; ok {
		return rec, nil
	}
	return nil, core.ErrNotFound
}
func (f *fakeStore) Search(ctx context.Context, query, mailbox string, limit int) ([]*core.AnalysisRecord, error) {
	return f.searchResults, nil
}
func (f *fakeStore) ByConversation(ctx context.Context, conversationID string) ([]*core.AnalysisRecord, error) {
	return f.conversations[conversationID], nil
}
func (f *fakeStore) Stats(ctx context.Context) (*core.AnalysisStats, error) { return f.stats, nil }
func (f *fakeStore) Ping(ctx context.Context) error                         { return nil }

type fakeCache struct{}

func (fakeCache) Exists(ctx context.Context, key string) (bool, error)         { return false, nil }
func (fakeCache) Set(ctx context.Context, key string, ttl time.Duration) error { return nil }
func (fakeCache) Delete(ctx context.Context, key string) error                 { return nil }
func (fakeCache) Cleanup(ctx context.Context) error                            { return nil }
func (fakeCache) Ping(ctx context.Context) error                               { return nil }

type fakeMail struct{}

func (fakeMail) List(maildir string, limit int) ([]core.MessageRef, error) { return nil, nil }
func (fakeMail) Read(maildir, emailID string) ([]byte, error) {
	if emailID == "missing" {
		return nil, core.ErrNotFound
	}
	return []byte("hello"), nil
}

type fakeDirectory struct{}

func (fakeDirectory) Active(ctx context.Context) ([]core.Mailbox, error) {
	return []core.Mailbox{{Address: "bob@example.com", Maildir: "/vmail/bob"}}, nil
}

type rawNormalizer struct{}

func (rawNormalizer) Parse(raw []byte) (*core.EmailMessage, error) {
	return &core.EmailMessage{Subject: "Hi", From: "a@x.com", To: "b@x.com", Body: string(raw)}, nil
}

func newTestServer(t *testing.T, llm core.LLMClient, store core.AnalysisStore) *Server {
	t.Helper()
	svc := core.NewAnalysisService(
		llm,
		extract.NewEngine(),
		rawNormalizer{},
		store,
		fakeCache{},
		fakeMail{},
		fakeDirectory{},
		router.Profiles{Balanced: "model-balanced"},
		zap.NewNop(),
		extract.DefaultLanguage,
		time.Second,
		24*time.Hour,
		"llm:processed",
	)
	return NewServer(svc, store, fakeCache{}, llm,
		router.Profiles{Balanced: "model-balanced"},
		t.TempDir(), "127.0.0.1:0", zap.NewNop())
}

func doRequest(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	s.httpSrv.Handler.ServeHTTP(w, req)
	return w
}

func TestHealthAllChecksPass(t *testing.T) {
	s := newTestServer(t, &fakeLLM{}, &fakeStore{})

	w := doRequest(s, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "ok", resp.Checks["store"])
	assert.Equal(t, "ok", resp.Checks["cache"])
	assert.Equal(t, "ok", resp.Checks["llm"])
	assert.Equal(t, "ok", resp.Checks["mail_storage"])
	assert.Equal(t, map[string]string{"balanced": "model-balanced"}, resp.Models)
}

func TestHealthDegradedWhenModelUnreachable(t *testing.T) {
	s := newTestServer(t, &fakeLLM{pingErr: errors.New("dial timeout")}, &fakeStore{})

	w := doRequest(s, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Contains(t, resp.Checks["llm"], "dial timeout")
}

func TestAnalyzeEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeLLM{}, &fakeStore{})

	w := doRequest(s, http.MethodPost, "/analyze", `{"mailbox": "bob@example.com", "email_id": "msg-1"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var rec core.AnalysisRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "bob@example.com", rec.Mailbox)
	assert.Equal(t, "msg-1", rec.EmailID)
	assert.Equal(t, 6, rec.PriorityScore)
}

func TestAnalyzeEndpointValidation(t *testing.T) {
	s := newTestServer(t, &fakeLLM{}, &fakeStore{})

	assert.Equal(t, http.StatusBadRequest, doRequest(s, http.MethodPost, "/analyze", `{"mailbox": ""}`).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(s, http.MethodPost, "/analyze", `not json`).Code)
}

func TestAnalyzeEndpointUnknownMailbox(t *testing.T) {
	s := newTestServer(t, &fakeLLM{}, &fakeStore{})

	w := doRequest(s, http.MethodPost, "/analyze", `{"mailbox": "ghost@example.com", "email_id": "msg-1"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyzeEndpointUnknownMessage(t *testing.T) {
	s := newTestServer(t, &fakeLLM{}, &fakeStore{})

	w := doRequest(s, http.MethodPost, "/analyze", `{"mailbox": "bob@example.com", "email_id": "missing"}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatsEndpoint(t *testing.T) {
	store := &fakeStore{stats: &core.AnalysisStats{
		TotalAnalyzed:     42,
		PhishingDetected:  3,
		AvgProcessingTime: 1.5,
		Recent:            []*core.AnalysisRecord{},
	}}
	s := newTestServer(t, &fakeLLM{}, store)

	w := doRequest(s, http.MethodGet, "/stats", "")

	require.Equal(t, http.StatusOK, w.Code)
	var stats core.AnalysisStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, int64(42), stats.TotalAnalyzed)
	assert.Equal(t, int64(3), stats.PhishingDetected)
}

func TestSearchEndpoint(t *testing.T) {
	store := &fakeStore{searchResults: []*core.AnalysisRecord{
		{Mailbox: "bob@example.com", EmailID: "msg-1", Summary: "budget discussion"},
	}}
	s := newTestServer(t, &fakeLLM{}, store)

	w := doRequest(s, http.MethodGet, "/search?q=budget", "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp searchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "budget", resp.Query)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "budget discussion", resp.Results[0].Summary)
}

func TestSearchEndpointValidation(t *testing.T) {
	s := newTestServer(t, &fakeLLM{}, &fakeStore{})

	assert.Equal(t, http.StatusBadRequest, doRequest(s, http.MethodGet, "/search", "").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(s, http.MethodGet, "/search?q=x&limit=zero", "").Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(s, http.MethodGet, "/search?q=x&limit=-5", "").Code)
}

func TestConversationEndpoint(t *testing.T) {
	store := &fakeStore{conversations: map[string][]*core.AnalysisRecord{
		"abcd1234abcd1234": {
			{EmailID: "msg-1", ConversationID: "abcd1234abcd1234"},
			{EmailID: "msg-2", ConversationID: "abcd1234abcd1234"},
		},
	}}
	s := newTestServer(t, &fakeLLM{}, store)

	w := doRequest(s, http.MethodGet, "/conversations/abcd1234abcd1234", "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp conversationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "abcd1234abcd1234", resp.ConversationID)
	assert.Len(t, resp.Messages, 2)
}

func TestConversationEndpointNotFound(t *testing.T) {
	s := newTestServer(t, &fakeLLM{}, &fakeStore{})

	assert.Equal(t, http.StatusNotFound, doRequest(s, http.MethodGet, "/conversations/unknown", "").Code)
}
