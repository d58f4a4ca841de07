// Package api exposes the sourcing agent over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/F8ai/sourcing-agent/agent"
	"github.com/F8ai/sourcing-agent/catalog"
	"github.com/F8ai/sourcing-agent/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server hosts the agent and knowledge base endpoints.
type Server struct {
	agent    *agent.Agent
	cfg      *config.Config
	gatherer prometheus.Gatherer // nil disables /metrics
}

// New builds the API server.
func New(a *agent.Agent, cfg *config.Config, gatherer prometheus.Gatherer) *Server {
	return &Server{agent: a, cfg: cfg, gatherer: gatherer}
}

// Routes mounts all handlers on a chi router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/supplier-categories", s.handleSupplierCategories)
		r.Get("/quality-standards", s.handleQualityStandards)
		r.Get("/sourcing-strategies", s.handleSourcingStrategies)
		r.Get("/compliance-requirements", s.handleComplianceRequirements)
		r.Get("/agent-status", s.handleAgentStatus)
		r.Get("/source-metrics", s.handleSourceMetrics)
		r.Post("/query", s.handleQuery)
	})
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSupplierCategories(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.agent.KnowledgeBase().SupplierCategories())
}

func (s *Server) handleQualityStandards(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.agent.KnowledgeBase().QualityStandards())
}

func (s *Server) handleSourcingStrategies(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.agent.KnowledgeBase().SourcingStrategies())
}

func (s *Server) handleComplianceRequirements(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.agent.KnowledgeBase().ComplianceRequirements())
}

func (s *Server) handleAgentStatus(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.agent.GetStatus())
}

type queryRequest struct {
	Query  string `json:"query"`
	UserID string `json:"user_id"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		respondError(w, http.StatusBadRequest, "Query is required")
		return
	}
	if req.UserID == "" {
		req.UserID = "anonymous"
	}

	response, err := s.agent.ProcessQuery(r.Context(), req.UserID, req.Query)
	if err != nil {
		slog.Error("query processing failed", slog.Any("error", err))
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleSourceMetrics(w http.ResponseWriter, _ *http.Request) {
	c, err := catalog.Load(s.cfg.SourcesFile)
	if err != nil {
		slog.Error("loading source catalog", slog.Any("error", err))
	}

	metrics := catalog.Summarize(c)
	metrics.LastScrape = latestSnapshotTime(filepath.Dir(s.cfg.SourcesFile))
	respondJSON(w, http.StatusOK, metrics)
}

// latestSnapshotTime finds the newest scraped_data_* snapshot in dir and
// formats its modification time, or returns empty when none exist.
func latestSnapshotTime(dir string) string {
	matches, err := filepath.Glob(filepath.Join(dir, "scraped_data_*.json"))
	if err != nil || len(matches) == 0 {
		return ""
	}

	var newest os.FileInfo
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			continue
		}
		if newest == nil || info.ModTime().After(newest.ModTime()) {
			newest = info
		}
	}
	if newest == nil {
		return ""
	}
	return newest.ModTime().Format("2006-01-02 15:04")
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode response", slog.Any("error", err))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
