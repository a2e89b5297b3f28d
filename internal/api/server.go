// Package api provides the HTTP API for observing the shelf.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/talgya/magnetar/internal/engine"
	"github.com/talgya/magnetar/internal/event"
	"github.com/talgya/magnetar/internal/magnetar"
	"github.com/talgya/magnetar/internal/metrics"
	"github.com/talgya/magnetar/internal/persistence"
)

// Admin request limits.
const (
	adminRate     = 30
	adminWindow   = time.Minute
	maxCellsAdded = 16
	maxSpeed      = 100
)

// Server serves the shelf state over HTTP.
type Server struct {
	Shelf    *magnetar.Magnetar
	Eng      *engine.Engine
	Events   *event.Log
	DB       *persistence.DB   // Optional; enables ?source=db on /events
	Metrics  *metrics.Recorder // Optional; enables /metrics
	Save     func() error      // Optional; enables POST /snapshot
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	started time.Time

	mu       sync.Mutex
	lastSave time.Time
	srv      *http.Server
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	if s.started.IsZero() {
		s.started = time.Now()
	}
	limiter := NewRateLimiter(adminRate, adminWindow)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Public endpoints (GET, read-only).
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/api/v1/cells", s.handleCells)
	r.Get("/api/v1/events", s.handleEvents)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}

	// Admin endpoints (POST, require bearer token).
	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware, s.adminOnly)
		r.Post("/api/v1/cells", s.handleAddCells)
		r.Post("/api/v1/speed", s.handleSpeed)
		r.Post("/api/v1/snapshot", s.handleSnapshot)
	})

	return r
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "metrics", s.Metrics != nil)

	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	s.mu.Lock()
	s.srv = srv
	s.mu.Unlock()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops a server started with Start.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// MarkSaved records a successful save for the status endpoint.
func (s *Server) MarkSaved(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSave = t
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && token == s.AdminKey
}

// adminOnly requires bearer token auth.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no admin_key set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) snapshot() magnetar.Snapshot {
	var snap magnetar.Snapshot
	s.Eng.Do(func() { snap = s.Shelf.Snapshot() })
	return snap
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()

	s.mu.Lock()
	lastSave := "never"
	if !s.lastSave.IsZero() {
		lastSave = humanize.Time(s.lastSave)
	}
	s.mu.Unlock()

	var held, pending int
	for _, c := range snap.Cells {
		held += len(c.Held)
		pending += len(c.Pending)
	}

	writeJSON(w, map[string]any{
		"name":         "magnetar",
		"frame":        s.Eng.Frame(),
		"session_time": engine.SessionTime(s.Eng.Elapsed()),
		"speed":        s.Eng.Speed(),
		"running":      s.Eng.Running(),
		"started":      humanize.Time(s.started),
		"last_save":    lastSave,
		"cells":        len(snap.Cells),
		"held":         held,
		"pending":      pending,
		"y_pos":        snap.YPos,
		"dragging":     snap.Dragging,
		"actor":        snap.Actor,
	})
}

func (s *Server) handleCells(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.snapshot())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	var events []event.Event
	if r.URL.Query().Get("source") == "db" {
		if s.DB == nil {
			http.Error(w, "database not available", http.StatusServiceUnavailable)
			return
		}
		var err error
		events, err = s.DB.RecentEvents(limit)
		if err != nil {
			slog.Error("event query failed", "error", err)
			http.Error(w, "event query failed", http.StatusInternalServerError)
			return
		}
	} else {
		events = s.Events.Recent(limit)
	}

	// Optional kind filter.
	if kind := r.URL.Query().Get("kind"); kind != "" {
		filtered := make([]event.Event, 0, len(events))
		for _, e := range events {
			if string(e.Kind) == kind {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	if events == nil {
		events = []event.Event{}
	}
	writeJSON(w, events)
}

func (s *Server) handleAddCells(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Count int `json:"count"`
	}{Count: 1}
	// An empty body keeps the default count.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Count < 1 || req.Count > maxCellsAdded {
		http.Error(w, fmt.Sprintf("count must be 1-%d", maxCellsAdded), http.StatusBadRequest)
		return
	}

	var (
		err   error
		added int
		total int
	)
	s.Eng.Do(func() {
		for ; added < req.Count; added++ {
			if err = s.Shelf.AddCell(); err != nil {
				break
			}
		}
		total = len(s.Shelf.Cells())
	})
	if err != nil {
		slog.Error("add cell failed", "added", added, "error", err)
		http.Error(w, "add cell failed", http.StatusInternalServerError)
		return
	}

	slog.Info("cells added", "added", added, "cells", total)
	writeJSON(w, map[string]int{"added": added, "cells": total})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Speed float64 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Speed < 0 || req.Speed > maxSpeed {
		http.Error(w, fmt.Sprintf("speed must be 0-%d", maxSpeed), http.StatusBadRequest)
		return
	}
	s.Eng.SetSpeed(req.Speed)
	slog.Info("speed changed", "speed", req.Speed)

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.Save == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	if err := s.Save(); err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	s.MarkSaved(time.Now())

	writeJSON(w, map[string]any{
		"frame":   s.Eng.Frame(),
		"message": "snapshot saved",
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
