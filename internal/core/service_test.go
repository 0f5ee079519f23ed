package core_test

import (
	"context"
	"errors"
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
	response   string
	err        error
	lastModel  string
	lastPrompt string
}

func (f *fakeLLM) Generate(ctx context.Context, modelID, prompt string) (string, error) {
	f.lastModel = modelID
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeLLM) Ping(ctx context.Context) error { return nil }

type fakeStore struct {
	upserted  []*core.AnalysisRecord
	upsertErr error
	records   map[string]*core.AnalysisRecord
}

func storeKey(mailbox, emailID string) string { return mailbox + "/" + emailID }

func (f *fakeStore) Migrate(ctx context.Context) error { return nil }

func (f *fakeStore) Upsert(ctx context.Context, rec *core.AnalysisRecord) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, rec)
	return nil
}

func (f *fakeStore) Get(ctx context.Context, mailbox, emailID string) (*core.AnalysisRecord, error) {
	if rec, ok := f.records[storeKey(mailbox, emailID)]; ok {
		return rec, nil
	}
	return nil, core.ErrNotFound
}

func (f *fakeStore) Search(ctx context.Context, query, mailbox string, limit int) ([]*core.AnalysisRecord, error) {
	return nil, nil
}

func (f *fakeStore) ByConversation(ctx context.Context, conversationID string) ([]*core.AnalysisRecord, error) {
	return nil, nil
}

func (f *fakeStore) Stats(ctx context.Context) (*core.AnalysisStats, error) { return nil, nil }
func (f *fakeStore) Ping(ctx context.Context) error                        { return nil }

type fakeCache struct {
	exists    bool
	existsErr error
	setKeys   []string
	setErr    error
}

func (f *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeCache) Set(ctx context.Context, key string, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.setKeys = append(f.setKeys, key)
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error { return nil }
func (f *fakeCache) Cleanup(ctx context.Context) error            { return nil }
func (f *fakeCache) Ping(ctx context.Context) error               { return nil }

type fakeMail struct {
	messages map[string][]byte
}

func (f *fakeMail) List(maildir string, limit int) ([]core.MessageRef, error) {
	refs := []core.MessageRef{}
	for id := range f.messages {
		refs = append(refs, core.MessageRef{ID: id})
	}
	return refs, nil
}

func (f *fakeMail) Read(maildir, emailID string) ([]byte, error) {
	if raw, ok := f.messages[emailID]; ok {
		return raw, nil
	}
	return nil, core.ErrNotFound
}

type fakeDirectory struct {
	boxes []core.Mailbox
}

func (f *fakeDirectory) Active(ctx context.Context) ([]core.Mailbox, error) {
	return f.boxes, nil
}

// rawNormalizer treats the raw bytes as the body of a fixed-header message
type rawNormalizer struct{}

func (rawNormalizer) Parse(raw []byte) (*core.EmailMessage, error) {
	return &core.EmailMessage{
		Subject: "Weekly Sync",
		From:    "alice@example.com",
		To:      "bob@example.com",
		Body:    string(raw),
	}, nil
}

var testProfiles = router.Profiles{
	Fast:         "model-fast",
	Balanced:     "model-balanced",
	Accurate:     "model-accurate",
	Multilingual: "model-multilingual",
}

func newTestService(llm core.LLMClient, store core.AnalysisStore, cache core.DedupCache, mail core.MailStore, dir core.MailboxDirectory) *core.AnalysisService {
	return core.NewAnalysisService(
		llm,
		extract.NewEngine(),
		rawNormalizer{},
		store,
		cache,
		mail,
		dir,
		testProfiles,
		zap.NewNop(),
		extract.DefaultLanguage,
		time.Second,
		24*time.Hour,
		"llm:processed",
	)
}

const modelResponse = `{
	"summary": "Alice shares progress and asks for revised numbers.",
	"categories": ["work"],
	"priority_score": 7,
	"is_phishing": false,
	"phishing_score": 0.05,
	"sensitive_data": false,
	"auto_reply_suggestion": "Thanks, will send them over.",
	"thread_context": "A reply in an ongoing planning thread."
}`

func TestAnalyzeMergesModelAndHeuristicSignals(t *testing.T) {
	llm := &fakeLLM{response: modelResponse}
	svc := newTestService(llm, &fakeStore{}, &fakeCache{}, &fakeMail{}, &fakeDirectory{})

	msg := &core.EmailMessage{
		Subject: "Re: Quarterly Planning",
		From:    "alice@example.com",
		To:      "bob@example.com",
		Body:    "Thanks for the update. Please send the revised numbers by tomorrow.",
	}
	rec := svc.Analyze(context.Background(), msg)

	require.NotNil(t, rec)
	assert.Equal(t, "Alice shares progress and asks for revised numbers.", rec.Summary)
	assert.Equal(t, []string{"work"}, rec.Categories)
	assert.Equal(t, 7, rec.PriorityScore)
	assert.Equal(t, "A reply in an ongoing planning thread.", rec.ThreadContext)
	assert.Empty(t, rec.AnalysisError)

	// short English body routes to the fast profile
	assert.Equal(t, "model-fast", rec.ModelUsed)
	assert.Equal(t, "model-fast", llm.lastModel)

	assert.Equal(t, extract.ConversationID("Quarterly Planning", "alice@example.com", "bob@example.com"), rec.ConversationID)
	require.Len(t, rec.Tasks, 1)
	assert.Equal(t, 7, rec.Tasks[0].Priority, "tasks inherit the message priority")
	assert.NotEmpty(t, rec.SmartReplies)
	assert.Positive(t, rec.ResponseTimeMinutes)
}

func TestAnalyzeRoutesNonDefaultLanguageToMultilingual(t *testing.T) {
	llm := &fakeLLM{response: modelResponse}
	svc := newTestService(llm, &fakeStore{}, &fakeCache{}, &fakeMail{}, &fakeDirectory{})

	msg := &core.EmailMessage{
		Subject: "Consulta",
		From:    "ana@example.com",
		To:      "bob@example.com",
		Body:    "Hola, gracias por el mensaje. Es muy importante para usted.",
	}
	rec := svc.Analyze(context.Background(), msg)

	assert.Equal(t, "spanish", rec.Language)
	assert.Equal(t, "model-multilingual", rec.ModelUsed)
}

func TestAnalyzeDegradedOnModelFailure(t *testing.T) {
	llm := &fakeLLM{err: errors.New("connection refused")}
	svc := newTestService(llm, &fakeStore{}, &fakeCache{}, &fakeMail{}, &fakeDirectory{})

	msg := &core.EmailMessage{
		Subject: "Re: Quarterly Planning",
		From:    "alice@example.com",
		To:      "bob@example.com",
		Body:    "Please send the revised numbers by tomorrow.",
	}
	rec := svc.Analyze(context.Background(), msg)

	require.NotNil(t, rec)
	assert.Equal(t, 5, rec.PriorityScore)
	assert.False(t, rec.IsPhishing)
	assert.Zero(t, rec.PhishingScore)
	assert.Empty(t, rec.Summary)
	assert.Empty(t, rec.Categories)
	assert.Empty(t, rec.Tasks)
	assert.Empty(t, rec.SmartReplies)
	assert.Equal(t, "neutral", rec.Tone)
	assert.Equal(t, extract.DefaultLanguage, rec.Language)
	assert.NotEmpty(t, rec.AnalysisError)
	assert.Contains(t, rec.AnalysisError, "connection refused")

	// thread linkage survives a model outage
	assert.Equal(t, extract.ConversationID("Quarterly Planning", "alice@example.com", "bob@example.com"), rec.ConversationID)
}

func TestAnalyzeDegradedOnMalformedResponse(t *testing.T) {
	llm := &fakeLLM{response: "I could not produce an answer."}
	svc := newTestService(llm, &fakeStore{}, &fakeCache{}, &fakeMail{}, &fakeDirectory{})

	rec := svc.Analyze(context.Background(), &core.EmailMessage{Subject: "Hi", Body: "hello"})

	assert.Equal(t, 5, rec.PriorityScore)
	assert.NotEmpty(t, rec.AnalysisError)
}

func TestAnalyzeRecoversJSONWrappedInProse(t *testing.T) {
	llm := &fakeLLM{response: "Sure, here is the analysis:\n" + modelResponse + "\nLet me know if you need more."}
	svc := newTestService(llm, &fakeStore{}, &fakeCache{}, &fakeMail{}, &fakeDirectory{})

	rec := svc.Analyze(context.Background(), &core.EmailMessage{Subject: "Hi", Body: "hello"})

	assert.Empty(t, rec.AnalysisError)
	assert.Equal(t, 7, rec.PriorityScore)
}

func TestAnalyzeClampsPriority(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     int
	}{
		{"above range", `{"summary": "s", "priority_score": 15}`, 10},
		{"below range", `{"summary": "s", "priority_score": -3}`, 1},
		{"missing defaults", `{"summary": "s"}`, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeLLM{response: tt.response}
			svc := newTestService(llm, &fakeStore{}, &fakeCache{}, &fakeMail{}, &fakeDirectory{})

			rec := svc.Analyze(context.Background(), &core.EmailMessage{Subject: "Hi", Body: "hello"})
			assert.Equal(t, tt.want, rec.PriorityScore)
		})
	}
}

func TestProcessSkipsWhenMarkerPresent(t *testing.T) {
	llm := &fakeLLM{response: modelResponse}
	store := &fakeStore{}
	cache := &fakeCache{exists: true}
	mail := &fakeMail{messages: map[string][]byte{"msg-1": []byte("hello")}}
	svc := newTestService(llm, store, cache, mail, &fakeDirectory{})

	rec, skipped, err := svc.Process(context.Background(), "bob@example.com", "msg-1", "/vmail/bob", false)

	require.NoError(t, err)
	assert.True(t, skipped)
	assert.Nil(t, rec)
	assert.Empty(t, store.upserted)
	assert.Empty(t, llm.lastPrompt, "model must not be invoked for a deduplicated message")
}

func TestProcessForceBypassesMarker(t *testing.T) {
	llm := &fakeLLM{response: modelResponse}
	store := &fakeStore{}
	cache := &fakeCache{exists: true}
	mail := &fakeMail{messages: map[string][]byte{"msg-1": []byte("hello")}}
	svc := newTestService(llm, store, cache, mail, &fakeDirectory{})

	rec, skipped, err := svc.Process(context.Background(), "bob@example.com", "msg-1", "/vmail/bob", true)

	require.NoError(t, err)
	assert.False(t, skipped)
	require.NotNil(t, rec)
	assert.Len(t, store.upserted, 1)
}

func TestProcessSetsMarkerAfterSuccessfulUpsert(t *testing.T) {
	llm := &fakeLLM{response: modelResponse}
	store := &fakeStore{}
	cache := &fakeCache{}
	mail := &fakeMail{messages: map[string][]byte{"msg-1": []byte("hello")}}
	svc := newTestService(llm, store, cache, mail, &fakeDirectory{})

	rec, skipped, err := svc.Process(context.Background(), "bob@example.com", "msg-1", "/vmail/bob", false)

	require.NoError(t, err)
	assert.False(t, skipped)
	assert.Equal(t, "bob@example.com", rec.Mailbox)
	assert.Equal(t, "msg-1", rec.EmailID)
	require.Len(t, cache.setKeys, 1)
	assert.Equal(t, "llm:processed:bob@example.com:msg-1", cache.setKeys[0])
}

func TestProcessPersistenceFailureLeavesNoMarker(t *testing.T) {
	llm := &fakeLLM{response: modelResponse}
	store := &fakeStore{upsertErr: errors.New("table is locked")}
	cache := &fakeCache{}
	mail := &fakeMail{messages: map[string][]byte{"msg-1": []byte("hello")}}
	svc := newTestService(llm, store, cache, mail, &fakeDirectory{})

	_, _, err := svc.Process(context.Background(), "bob@example.com", "msg-1", "/vmail/bob", false)

	require.Error(t, err)
	var perr *core.PersistenceError
	assert.ErrorAs(t, err, &perr)
	assert.Empty(t, cache.setKeys, "a failed upsert must leave the message eligible for retry")
}

func TestProcessDegradedRecordIsStillPersisted(t *testing.T) {
	llm := &fakeLLM{err: errors.New("model unavailable")}
	store := &fakeStore{}
	cache := &fakeCache{}
	mail := &fakeMail{messages: map[string][]byte{"msg-1": []byte("hello")}}
	svc := newTestService(llm, store, cache, mail, &fakeDirectory{})

	rec, skipped, err := svc.Process(context.Background(), "bob@example.com", "msg-1", "/vmail/bob", false)

	require.NoError(t, err)
	assert.False(t, skipped)
	assert.NotEmpty(t, rec.AnalysisError)
	require.Len(t, store.upserted, 1)
	assert.Len(t, cache.setKeys, 1)
}

func TestProcessCacheLookupFailureProceeds(t *testing.T) {
	llm := &fakeLLM{response: modelResponse}
	store := &fakeStore{}
	cache := &fakeCache{existsErr: errors.New("cache offline")}
	mail := &fakeMail{messages: map[string][]byte{"msg-1": []byte("hello")}}
	svc := newTestService(llm, store, cache, mail, &fakeDirectory{})

	rec, skipped, err := svc.Process(context.Background(), "bob@example.com", "msg-1", "/vmail/bob", false)

	require.NoError(t, err)
	assert.False(t, skipped)
	require.NotNil(t, rec)
	assert.Len(t, store.upserted, 1)
}

func TestProcessByAddressUnknownMailbox(t *testing.T) {
	svc := newTestService(&fakeLLM{response: modelResponse}, &fakeStore{}, &fakeCache{}, &fakeMail{}, &fakeDirectory{})

	_, err := svc.ProcessByAddress(context.Background(), "ghost@example.com", "msg-1", false)

	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestProcessByAddressSkippedReturnsStoredRecord(t *testing.T) {
	stored := &core.AnalysisRecord{Mailbox: "bob@example.com", EmailID: "msg-1", Summary: "previous run"}
	store := &fakeStore{records: map[string]*core.AnalysisRecord{storeKey("bob@example.com", "msg-1"): stored}}
	cache := &fakeCache{exists: true}
	mail := &fakeMail{messages: map[string][]byte{"msg-1": []byte("hello")}}
	dir := &fakeDirectory{boxes: []core.Mailbox{{Address: "bob@example.com", Maildir: "/vmail/bob"}}}
	svc := newTestService(&fakeLLM{response: modelResponse}, store, cache, mail, dir)

	rec, err := svc.ProcessByAddress(context.Background(), "bob@example.com", "msg-1", false)

	require.NoError(t, err)
	assert.Same(t, stored, rec)
}

func TestAnalyzeMessagePersistsAndMarks(t *testing.T) {
	store := &fakeStore{}
	cache := &fakeCache{}
	svc := newTestService(&fakeLLM{response: modelResponse}, store, cache, &fakeMail{}, &fakeDirectory{})

	msg := &core.EmailMessage{Subject: "Hi", From: "a@x.com", To: "b@x.com", Body: "hello"}
	rec, err := svc.AnalyzeMessage(context.Background(), "b@x.com", "ingest-1", msg)

	require.NoError(t, err)
	assert.Equal(t, "b@x.com", rec.Mailbox)
	assert.Equal(t, "ingest-1", rec.EmailID)
	require.Len(t, store.upserted, 1)
	assert.Equal(t, []string{"llm:processed:b@x.com:ingest-1"}, cache.setKeys)
}
