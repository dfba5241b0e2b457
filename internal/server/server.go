// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server exposes the Orchestrator over HTTP: a Task JSON in,
// a Run record out. The server is an optional surface over the core;
// every endpoint is a thin translation layer, no business logic lives
// here.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vibeagent/vibe/internal/observability"
	"github.com/vibeagent/vibe/internal/orchestrator"
	"github.com/vibeagent/vibe/internal/primitive"
	"github.com/vibeagent/vibe/internal/session"
	"github.com/vibeagent/vibe/internal/vibemodel"
)

// RunRequest is the body of POST /runs: a Task plus the identity and
// workspace it runs against.
type RunRequest struct {
	UserID        string          `json:"userId"`
	WorkspacePath string          `json:"workspacePath"`
	Task          vibemodel.Task  `json:"task"`
}

// Server wires the Orchestrator, a Planner, and the Session Store behind
// an HTTP API.
type Server struct {
	Orchestrator *orchestrator.Orchestrator
	Planning     *primitive.Planning
	Store        *session.Store
	Metrics      *observability.Metrics
	Tracer       *observability.Tracer
}

// Router builds the chi router for the server's endpoints.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.metricsMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Post("/runs", s.handleCreateRun)
	r.Get("/runs/{id}", s.handleGetRun)
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics.Handler())
	}
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	planOut := s.Planning.Execute(ctx, req.Task.Description)
	if !planOut.Success {
		writeError(w, http.StatusUnprocessableEntity, planErr(planOut.Error))
		return
	}
	plan, ok := planOut.Data.(vibemodel.Plan)
	if !ok {
		writeError(w, http.StatusInternalServerError, planErr("planner returned an unexpected result type"))
		return
	}

	run, err := s.Orchestrator.Run(ctx, req.UserID, req.WorkspacePath, plan)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := s.Store.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, planErr("run not found"))
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		if s.Tracer != nil {
			ctx, span := s.Tracer.StartHTTPRequest(r.Context(), r.Method, r.URL.Path)
			defer span.End()
			r = r.WithContext(ctx)
		}

		rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		slog.Info("http request", "method", r.Method, "path", r.URL.Path, "status", rw.status, "duration_ms", duration.Milliseconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type planErr string

func (e planErr) Error() string { return string(e) }
