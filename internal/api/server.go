// Package api exposes the HTTP request surface: health, on-demand analysis,
// aggregate stats, keyword search and conversation timelines.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-analyzer/internal/core"
	"github.com/mikey/llm-mail-analyzer/internal/router"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
	healthCheckTimeout = 5 * time.Second
)

// Server is the HTTP front door for the analysis pipeline
type Server struct {
	service   *core.AnalysisService
	store     core.AnalysisStore
	cache     core.DedupCache
	llm       core.LLMClient
	profiles  router.Profiles
	vmailPath string
	logger    *zap.Logger
	httpSrv   *http.Server
}

// NewServer creates the HTTP server bound to the given listen address
func NewServer(
	service *core.AnalysisService,
	store core.AnalysisStore,
	cache core.DedupCache,
	llm core.LLMClient,
	profiles router.Profiles,
	vmailPath string,
	listenAddress string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		service:   service,
		store:     store,
		cache:     cache,
		llm:       llm,
		profiles:  profiles,
		vmailPath: vmailPath,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Post("/analyze", s.handleAnalyze)
	r.Get("/stats", s.handleStats)
	r.Get("/search", s.handleSearch)
	r.Get("/conversations/{id}", s.handleConversation)

	s.httpSrv = &http.Server{
		Addr:    listenAddress,
		Handler: r,
	}
	return s
}

// Start begins serving requests. It blocks until the listener fails or the
// server is shut down.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("address", s.httpSrv.Addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Models map[string]string `json:"models"`
}

// handleHealth reports liveness of every external dependency. The overall
// status is "degraded" as soon as one check fails; the HTTP code stays 200 so
// orchestrators can distinguish a degraded service from a dead one.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := map[string]string{}
	status := "healthy"

	record := func(name string, err error) {
		if err != nil {
			checks[name] = err.Error()
			status = "degraded"
		} else {
			checks[name] = "ok"
		}
	}

	record("store", s.store.Ping(ctx))
	record("cache", s.cache.Ping(ctx))
	record("llm", s.llm.Ping(ctx))

	if _, err := os.Stat(s.vmailPath); err != nil {
		checks["mail_storage"] = err.Error()
		status = "degraded"
	} else {
		checks["mail_storage"] = "ok"
	}

	models := map[string]string{}
	for profile, model := range map[string]string{
		"fast":         s.profiles.Fast,
		"balanced":     s.profiles.Balanced,
		"accurate":     s.profiles.Accurate,
		"multilingual": s.profiles.Multilingual,
	} {
		if model != "" {
			models[profile] = model
		}
	}

	s.writeJSON(w, http.StatusOK, healthResponse{Status: status, Checks: checks, Models: models})
}

type analyzeRequest struct {
	Mailbox string `json:"mailbox"`
	EmailID string `json:"email_id"`
	Force   bool   `json:"force"`
}

// handleAnalyze runs on-demand analysis of one message
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Mailbox == "" || req.EmailID == "" {
		s.writeError(w, http.StatusBadRequest, "mailbox and email_id are required")
		return
	}

	rec, err := s.service.ProcessByAddress(r.Context(), req.Mailbox, req.EmailID, req.Force)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("On-demand analysis failed",
			zap.String("mailbox", req.Mailbox),
			zap.String("email_id", req.EmailID),
			zap.Error(err))
		s.writeError(w, http.StatusBadGateway, "analysis failed")
		return
	}

	s.writeJSON(w, http.StatusOK, rec)
}

// handleStats returns the aggregate reporting view
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.logger.Error("Failed to compute stats", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

type searchResponse struct {
	Query   string                 `json:"query"`
	Results []*core.AnalysisRecord `json:"results"`
}

// handleSearch performs keyword search over summaries and thread context
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	mailbox := r.URL.Query().Get("mailbox")

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n > maxSearchLimit {
			n = maxSearchLimit
		}
		limit = n
	}

	results, err := s.store.Search(r.Context(), query, mailbox, limit)
	if err != nil {
		s.logger.Error("Search failed", zap.String("query", query), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	s.writeJSON(w, http.StatusOK, searchResponse{Query: query, Results: results})
}

type conversationResponse struct {
	ConversationID string                 `json:"conversation_id"`
	Messages       []*core.AnalysisRecord `json:"messages"`
}

// handleConversation returns a conversation's records in chronological order
func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	records, err := s.store.ByConversation(r.Context(), id)
	if err != nil {
		s.logger.Error("Conversation lookup failed", zap.String("conversation_id", id), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "conversation lookup failed")
		return
	}
	if len(records) == 0 {
		s.writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	s.writeJSON(w, http.StatusOK, conversationResponse{ConversationID: id, Messages: records})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, map[string]string{"error": msg})
}
