package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-analyzer/internal/router"
)

// defaultPriority is used whenever the model did not produce a usable score
const defaultPriority = 5

// SignalExtractor runs the heuristic extractors over one normalized message.
// Implementations must be pure and safe for concurrent use.
type SignalExtractor interface {
	// Extract computes every model-independent signal; now anchors relative dates
	Extract(msg *EmailMessage, now time.Time) *Signals

	// Replies selects suggested replies given the final priority and the signals
	Replies(priority int, sig *Signals) []string

	// PredictResponseMinutes predicts a response-time target in minutes
	PredictResponseMinutes(priority int, sig *Signals) int
}

// AnalysisService orchestrates one message's journey from raw bytes to a
// persisted AnalysisRecord: dedup check, normalization, heuristic extraction,
// model invocation, merge, upsert, marker refresh.
type AnalysisService struct {
	llm        LLMClient
	extractor  SignalExtractor
	normalizer Normalizer
	store      AnalysisStore
	cache      DedupCache
	mail       MailStore
	directory  MailboxDirectory
	profiles   router.Profiles
	logger     *zap.Logger

	defaultLanguage string
	llmTimeout      time.Duration
	cacheTTL        time.Duration
	cacheNamespace  string
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(
	llm LLMClient,
	extractor SignalExtractor,
	normalizer Normalizer,
	store AnalysisStore,
	cache DedupCache,
	mail MailStore,
	directory MailboxDirectory,
	profiles router.Profiles,
	logger *zap.Logger,
	defaultLanguage string,
	llmTimeout time.Duration,
	cacheTTL time.Duration,
	cacheNamespace string,
) *AnalysisService {
	return &AnalysisService{
		llm:             llm,
		extractor:       extractor,
		normalizer:      normalizer,
		store:           store,
		cache:           cache,
		mail:            mail,
		directory:       directory,
		profiles:        profiles,
		logger:          logger,
		defaultLanguage: defaultLanguage,
		llmTimeout:      llmTimeout,
		cacheTTL:        cacheTTL,
		cacheNamespace:  cacheNamespace,
	}
}

// dedupKey builds the cache key for one message
func (s *AnalysisService) dedupKey(mailbox, emailID string) string {
	return fmt.Sprintf("%s:%s:%s", s.cacheNamespace, mailbox, emailID)
}

// Analyze produces one AnalysisRecord from one normalized message. It never
// returns nil: any model invocation or parse failure yields a degraded-mode
// record carrying safe defaults and an error descriptor.
func (s *AnalysisService) Analyze(ctx context.Context, msg *EmailMessage) *AnalysisRecord {
	start := time.Now()

	sig := s.extractor.Extract(msg, start)

	task := router.TaskCategorization
	if sig.Language != s.defaultLanguage {
		task = router.TaskTranslation
	}
	modelID := router.Select(s.profiles, task, len(msg.Body))

	prompt := buildPrompt(msg, sig.Language, sig.Tone)

	llmCtx := ctx
	if s.llmTimeout > 0 {
		var cancel context.CancelFunc
		llmCtx, cancel = context.WithTimeout(ctx, s.llmTimeout)
		defer cancel()
	}

	responseText, err := s.llm.Generate(llmCtx, modelID, prompt)
	if err != nil {
		return s.degradedRecord(msg, sig, modelID, start, &ModelInvocationError{Model: modelID, Err: err})
	}

	parsed, err := parseAnalysisResponse(responseText)
	if err != nil {
		return s.degradedRecord(msg, sig, modelID, start, &ModelInvocationError{Model: modelID, Err: err})
	}

	priority := parsed.PriorityScore
	if priority == 0 {
		priority = defaultPriority
	}
	priority = clampPriority(priority)

	categories := parsed.Categories
	if categories == nil {
		categories = []string{}
	}

	// Tasks inherit the message priority once the model has scored it
	for i := range sig.Tasks {
		sig.Tasks[i].Priority = priority
	}

	return &AnalysisRecord{
		Summary:             parsed.Summary,
		Categories:          categories,
		PriorityScore:       priority,
		IsPhishing:          parsed.IsPhishing,
		PhishingScore:       parsed.PhishingScore,
		SensitiveData:       parsed.SensitiveData,
		AutoReplySuggestion: parsed.AutoReplySuggestion,
		ProcessingTime:      time.Since(start).Seconds(),
		AnalyzedAt:          time.Now(),
		ConversationID:      sig.ConversationID,
		Tasks:               sig.Tasks,
		Meeting:             sig.Meeting,
		Tone:                sig.Tone,
		SentimentScore:      sig.SentimentScore,
		Language:            sig.Language,
		Entities:            sig.Entities,
		SmartReplies:        s.extractor.Replies(priority, sig),
		ThreadContext:       parsed.ThreadContext,
		ResponseTimeMinutes: s.extractor.PredictResponseMinutes(priority, sig),
		ModelUsed:           modelID,
	}
}

// degradedRecord builds the fallback result for a failed model invocation.
// Everything model-derived collapses to safe defaults; only the conversation
// id survives, since it is a pure function of the headers and keeps thread
// linkage intact across model outages.
func (s *AnalysisService) degradedRecord(msg *EmailMessage, sig *Signals, modelID string, start time.Time, cause error) *AnalysisRecord {
	s.logger.Warn("Model analysis failed, producing degraded record",
		zap.String("model", modelID),
		zap.String("subject", msg.Subject),
		zap.Error(cause))

	return &AnalysisRecord{
		Categories:          []string{},
		PriorityScore:       defaultPriority,
		IsPhishing:          false,
		PhishingScore:       0.0,
		SensitiveData:       false,
		ProcessingTime:      time.Since(start).Seconds(),
		AnalyzedAt:          time.Now(),
		ConversationID:      sig.ConversationID,
		Tasks:               []Task{},
		Tone:                "neutral",
		SentimentScore:      0.0,
		Language:            s.defaultLanguage,
		Entities:            map[string][]string{},
		SmartReplies:        []string{},
		ResponseTimeMinutes: s.extractor.PredictResponseMinutes(defaultPriority, &Signals{}),
		ModelUsed:           modelID,
		AnalysisError:       cause.Error(),
	}
}

// Process analyzes one message end to end. It returns skipped=true when the
// dedup marker is present and force is not set. A degraded analysis is still
// persisted; only a persistence failure leaves the message eligible for
// retry, because the marker is set strictly after a successful upsert.
func (s *AnalysisService) Process(ctx context.Context, mailbox, emailID, maildir string, force bool) (*AnalysisRecord, bool, error) {
	key := s.dedupKey(mailbox, emailID)

	if !force {
		exists, err := s.cache.Exists(ctx, key)
		if err != nil {
			s.logger.Warn("Dedup cache lookup failed, proceeding with analysis",
				zap.String("key", key), zap.Error(err))
		} else if exists {
			s.logger.Debug("Message already processed, skipping",
				zap.String("mailbox", mailbox), zap.String("email_id", emailID))
			return nil, true, nil
		}
	}

	raw, err := s.mail.Read(maildir, emailID)
	if err != nil {
		return nil, false, err
	}

	msg, err := s.normalizer.Parse(raw)
	if err != nil {
		return nil, false, err
	}

	rec := s.Analyze(ctx, msg)
	rec.Mailbox = mailbox
	rec.EmailID = emailID

	if err := s.store.Upsert(ctx, rec); err != nil {
		return nil, false, &PersistenceError{Mailbox: mailbox, EmailID: emailID, Err: err}
	}

	if err := s.cache.Set(ctx, key, s.cacheTTL); err != nil {
		// The record is already persisted; a marker failure only risks one
		// redundant re-analysis, so it is logged rather than surfaced.
		s.logger.Error("Failed to set dedup marker", zap.String("key", key), zap.Error(err))
	}

	s.logger.Info("Saved analysis",
		zap.String("mailbox", mailbox),
		zap.String("email_id", emailID),
		zap.Int("priority", rec.PriorityScore),
		zap.Bool("degraded", rec.AnalysisError != ""))

	return rec, false, nil
}

// ProcessByAddress resolves a mailbox address through the directory and runs
// Process. Used by the on-demand API path, which has no maildir in hand.
func (s *AnalysisService) ProcessByAddress(ctx context.Context, mailbox, emailID string, force bool) (*AnalysisRecord, error) {
	boxes, err := s.directory.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active mailboxes: %w", err)
	}

	var maildir string
	for _, b := range boxes {
		if b.Address == mailbox {
			maildir = b.Maildir
			break
		}
	}
	if maildir == "" {
		return nil, fmt.Errorf("mailbox %s: %w", mailbox, ErrNotFound)
	}

	rec, skipped, err := s.Process(ctx, mailbox, emailID, maildir, force)
	if err != nil {
		return nil, err
	}
	if skipped {
		// The marker says this message was analyzed recently; hand back the
		// stored record instead of re-running the pipeline.
		return s.store.Get(ctx, mailbox, emailID)
	}
	return rec, nil
}

// AnalyzeMessage runs extraction and model analysis over an already-normalized
// message and persists the result. Used by the SMTP ingest path.
func (s *AnalysisService) AnalyzeMessage(ctx context.Context, mailbox, emailID string, msg *EmailMessage) (*AnalysisRecord, error) {
	rec := s.Analyze(ctx, msg)
	rec.Mailbox = mailbox
	rec.EmailID = emailID

	if err := s.store.Upsert(ctx, rec); err != nil {
		return nil, &PersistenceError{Mailbox: mailbox, EmailID: emailID, Err: err}
	}
	if err := s.cache.Set(ctx, s.dedupKey(mailbox, emailID), s.cacheTTL); err != nil {
		s.logger.Error("Failed to set dedup marker", zap.Error(err))
	}
	return rec, nil
}
